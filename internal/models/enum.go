package models

import "strings"

func normalizeEnum(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
