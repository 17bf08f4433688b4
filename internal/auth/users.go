package auth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/config"
)

// dummyHash is verified when the username is unknown so a failed login
// takes the same time whether or not the account exists.
var dummyHash = mustHash("raspicam-dummy-password")

func mustHash(password string) string {
	h, err := HashPassword(password)
	if err != nil {
		panic(err)
	}
	return h
}

// UserStore holds the accounts from the configuration file.
type UserStore struct {
	users map[string]User
}

// NewUserStore builds a store from configured users. Usernames are compared
// case-insensitively.
func NewUserStore(users []config.UserConfig) (*UserStore, error) {
	s := &UserStore{users: make(map[string]User, len(users))}
	for _, u := range users {
		key := strings.ToLower(u.Username)
		if _, dup := s.users[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, u.Username)
		}
		role := Role(u.Role)
		if !IsValidRole(role) {
			return nil, fmt.Errorf("user %s: unknown role %q", u.Username, u.Role)
		}
		s.users[key] = User{Username: u.Username, PasswordHash: u.PasswordHash, Role: role}
	}
	return s, nil
}

// Authenticate checks username and password. Every failure, including an
// unreadable stored hash, is reported as ErrInvalidCredentials.
func (s *UserStore) Authenticate(username, password string) (*User, error) {
	user, ok := s.users[strings.ToLower(username)]
	if !ok {
		VerifyPassword(password, dummyHash) //nolint:errcheck // timing only
		return nil, ErrInvalidCredentials
	}

	match, err := VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Usernames returns the configured usernames, sorted.
func (s *UserStore) Usernames() []string {
	names := make([]string, 0, len(s.users))
	for _, u := range s.users {
		names = append(names, u.Username)
	}
	sort.Strings(names)
	return names
}
