package services

import (
	"testing"

	"github.com/abhinavaxid/finance-tracker/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	service := NewUserService(db)

	t.Run("creates user with lowercased email", func(t *testing.T) {
		user, err := service.CreateUser("Alice@Example.com", "secret123", "Alice", "Smith")
		testutil.AssertNoError(t, err)

		if user.Email != "alice@example.com" {
			t.Errorf("email = %q, want lowercased", user.Email)
		}
		if user.Password == "secret123" {
			t.Error("password stored in plaintext")
		}
		if !service.VerifyPassword(user, "secret123") {
			t.Error("VerifyPassword rejected the correct password")
		}
		if service.VerifyPassword(user, "wrong") {
			t.Error("VerifyPassword accepted a wrong password")
		}
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := service.CreateUser("alice@example.com", "another", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("rejects missing credentials", func(t *testing.T) {
		_, err := service.CreateUser("", "secret123", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = service.CreateUser("bob@example.com", "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestStoreRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	service := NewUserService(db)
	user := testutil.CreateTestUser(t, db)

	t.Run("stores and revokes the hash", func(t *testing.T) {
		testutil.AssertNoError(t, service.StoreRefreshTokenHash(user.ID, "abc123"))

		stored, err := service.GetUserByID(user.ID)
		testutil.AssertNoError(t, err)
		if stored.RefreshTokenHash != "abc123" {
			t.Errorf("hash = %q, want abc123", stored.RefreshTokenHash)
		}

		testutil.AssertNoError(t, service.StoreRefreshTokenHash(user.ID, ""))
		stored, err = service.GetUserByID(user.ID)
		testutil.AssertNoError(t, err)
		if stored.RefreshTokenHash != "" {
			t.Errorf("hash = %q, want empty after revoke", stored.RefreshTokenHash)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		err := service.StoreRefreshTokenHash(99999, "abc123")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestListActiveUserIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	service := NewUserService(db)
	active := testutil.CreateTestUser(t, db)
	inactive := testutil.CreateTestUser(t, db)
	testutil.AssertNoError(t, db.Model(inactive).Update("is_active", false).Error)

	ids, err := service.ListActiveUserIDs()
	testutil.AssertNoError(t, err)

	found := false
	for _, id := range ids {
		if id == inactive.ID {
			t.Error("inactive user listed")
		}
		if id == active.ID {
			found = true
		}
	}
	if !found {
		t.Error("active user missing from list")
	}
}
