package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/config"
)

func testUsers(t *testing.T) []config.UserConfig {
	t.Helper()
	adminHash, err := HashPassword("admin-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	viewerHash, err := HashPassword("viewer-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	return []config.UserConfig{
		{Username: "Admin", PasswordHash: adminHash, Role: "admin"},
		{Username: "viewer", PasswordHash: viewerHash, Role: "viewer"},
		{Username: "broken", PasswordHash: "$argon2id$garbage", Role: "viewer"},
	}
}

func TestUserStore_Authenticate(t *testing.T) {
	store, err := NewUserStore(testUsers(t))
	if err != nil {
		t.Fatalf("NewUserStore() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantRole Role
		wantErr  bool
	}{
		{"admin", "Admin", "admin-pass", RoleAdmin, false},
		{"case insensitive name", "admin", "admin-pass", RoleAdmin, false},
		{"viewer", "viewer", "viewer-pass", RoleViewer, false},
		{"wrong password", "viewer", "admin-pass", "", true},
		{"unknown user", "mallory", "admin-pass", "", true},
		{"unreadable hash", "broken", "anything", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := store.Authenticate(tt.username, tt.password)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if user.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", user.Role, tt.wantRole)
			}
		})
	}
}

func TestNewUserStore_Validation(t *testing.T) {
	if _, err := NewUserStore([]config.UserConfig{
		{Username: "a", Role: "admin"},
		{Username: "A", Role: "viewer"},
	}); !errors.Is(err, ErrDuplicateUser) {
		t.Errorf("duplicate user error = %v, want ErrDuplicateUser", err)
	}

	if _, err := NewUserStore([]config.UserConfig{{Username: "a", Role: "root"}}); err == nil {
		t.Error("unknown role should fail")
	}
}

func TestUserStore_Usernames(t *testing.T) {
	store, err := NewUserStore(testUsers(t))
	if err != nil {
		t.Fatalf("NewUserStore() error = %v", err)
	}
	if got := strings.Join(store.Usernames(), ","); got != "Admin,broken,viewer" {
		t.Errorf("Usernames() = %s", got)
	}
}
