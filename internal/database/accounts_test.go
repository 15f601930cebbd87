package database

import (
	"errors"
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestCreateAccount(t *testing.T) {
	db := setupTestDB(t)

	account, err := db.CreateAccount("testuser", "password123")
	if err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}

	if account.ID == 0 {
		t.Error("Account ID should not be 0")
	}
	if account.Username != "testuser" {
		t.Errorf("Expected username 'testuser', got '%s'", account.Username)
	}
	if account.PasswordHash == "" || account.PasswordHash == "password123" {
		t.Error("Password should be hashed, not stored in plain text")
	}
}

func TestCreateAccountRejects(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.CreateAccount("TestUser", "password123"); err != nil {
		t.Fatalf("Failed to create first account: %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"duplicate", "TestUser", "differentpass", ErrAccountExists},
		{"duplicate other case", "testuser", "password123", ErrAccountExists},
		{"empty username", "   ", "password123", nil},
		{"short password", "newuser", "abc", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.CreateAccount(tt.username, tt.password)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLogin(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.CreateAccount("TestUser", "password123"); err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}

	account, err := db.ValidateLogin("testuser", "password123", "10.0.0.42")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if account.Username != "TestUser" {
		t.Errorf("Expected username 'TestUser', got '%s'", account.Username)
	}

	account, err = db.GetAccountByUsername("testuser")
	if err != nil {
		t.Fatalf("Failed to get account: %v", err)
	}
	if account.LastIP != "10.0.0.42" || account.LastLogin == nil {
		t.Errorf("login not recorded: ip=%q last=%v", account.LastIP, account.LastLogin)
	}

	if _, err := db.ValidateLogin("testuser", "wrong", "10.0.0.42"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := db.ValidateLogin("nobody", "password123", "10.0.0.42"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: got %v", err)
	}
}

func TestBannedAccountCannotLogin(t *testing.T) {
	db := setupTestDB(t)
	account, err := db.CreateAccount("testuser", "password123")
	if err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}

	if err := db.SetBanned(account.ID, true); err != nil {
		t.Fatalf("Failed to ban account: %v", err)
	}
	if _, err := db.ValidateLogin("testuser", "password123", "192.168.1.1"); !errors.Is(err, ErrAccountBanned) {
		t.Errorf("Expected ErrAccountBanned, got: %v", err)
	}

	if err := db.SetBanned(account.ID, false); err != nil {
		t.Fatalf("Failed to unban account: %v", err)
	}
	if _, err := db.ValidateLogin("testuser", "password123", "192.168.1.1"); err != nil {
		t.Errorf("Should be able to login after unban: %v", err)
	}

	if err := db.SetBanned(9999, true); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("banning a missing account: got %v", err)
	}
}

func TestSetAdmin(t *testing.T) {
	db := setupTestDB(t)
	account, err := db.CreateAccount("keeper", "password123")
	if err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}

	if err := db.SetAdmin(account.ID, true); err != nil {
		t.Fatalf("SetAdmin failed: %v", err)
	}
	got, err := db.GetAccountByID(account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID failed: %v", err)
	}
	if !got.IsAdmin {
		t.Error("account should be admin")
	}
}

func TestGetAccountNotFound(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.GetAccountByUsername("nobody"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("GetAccountByUsername: got %v", err)
	}
	if _, err := db.GetAccountByID(42); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("GetAccountByID: got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	db := setupTestDB(t)
	account, err := db.CreateAccount("testuser", "oldpassword")
	if err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}

	if err := db.ChangePasswordWithVerify(account.ID, "wrongold", "newpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong old password: got %v", err)
	}
	if err := db.ChangePasswordWithVerify(account.ID, "oldpassword", "newpassword"); err != nil {
		t.Fatalf("ChangePasswordWithVerify failed: %v", err)
	}
	if _, err := db.ValidateLogin("testuser", "oldpassword", ""); err == nil {
		t.Error("old password should no longer work")
	}
	if _, err := db.ValidateLogin("testuser", "newpassword", ""); err != nil {
		t.Errorf("new password should work: %v", err)
	}
	if err := db.ChangePassword(account.ID, "ab"); err == nil {
		t.Error("short password should be rejected")
	}
}

func TestAccountCounts(t *testing.T) {
	db := setupTestDB(t)

	for _, name := range []string{"ann", "ben", "cat"} {
		if _, err := db.CreateAccount(name, "password123"); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}
	count, err := db.GetTotalAccounts()
	if err != nil || count != 3 {
		t.Errorf("GetTotalAccounts() = %d, %v", count, err)
	}
	exists, err := db.AccountExists("BEN")
	if err != nil || !exists {
		t.Errorf("AccountExists(BEN) = %v, %v", exists, err)
	}
}
