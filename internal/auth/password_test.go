package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/crypto/argon2"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("camera-admin")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("hash %q has %d parts, want 6", hash, len(parts))
	}
	if got := strings.Join(parts[1:4], "$"); got != "argon2id$v=19$m=65536,t=3,p=1" {
		t.Errorf("hash header = %q", got)
	}

	again, err := HashPassword("camera-admin")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if again == hash {
		t.Error("hashes of the same password share a salt")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("camera-admin")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		password string
		want     bool
	}{
		{"camera-admin", true},
		{"camera-admin ", false},
		{"Camera-admin", false},
		{"", false},
	}
	for _, tt := range tests {
		ok, err := VerifyPassword(tt.password, hash)
		if err != nil {
			t.Fatalf("VerifyPassword(%q) error = %v", tt.password, err)
		}
		if ok != tt.want {
			t.Errorf("VerifyPassword(%q) = %v, want %v", tt.password, ok, tt.want)
		}
	}
}

// Hashes made with other cost settings, for example by an older release,
// still verify because the parameters are read from the hash.
func TestVerifyPassword_StoredParameters(t *testing.T) {
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte("viewer"), salt, 1, 8*1024, 2, 24)
	hash := fmt.Sprintf("$argon2id$v=19$m=8192,t=1,p=2$%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	ok, err := VerifyPassword("viewer", hash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword() = %v, %v; want true, nil", ok, err)
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"plain text", "camera-admin"},
		{"bcrypt", "$2a$10$abcdefghijklmnopqrstuv"},
		{"argon2i", "$argon2i$v=19$m=65536,t=3,p=1$c2FsdHNhbHQ$aGFzaGhhc2g"},
		{"missing hash", "$argon2id$v=19$m=65536,t=3,p=1$c2FsdHNhbHQ"},
		{"version 16", "$argon2id$v=16$m=65536,t=3,p=1$c2FsdHNhbHQ$aGFzaGhhc2g"},
		{"garbled parameters", "$argon2id$v=19$memory$c2FsdHNhbHQ$aGFzaGhhc2g"},
		{"zero iterations", "$argon2id$v=19$m=65536,t=0,p=1$c2FsdHNhbHQ$aGFzaGhhc2g"},
		{"zero threads", "$argon2id$v=19$m=65536,t=3,p=0$c2FsdHNhbHQ$aGFzaGhhc2g"},
		{"bad salt", "$argon2id$v=19$m=65536,t=3,p=1$!!!$aGFzaGhhc2g"},
		{"bad hash", "$argon2id$v=19$m=65536,t=3,p=1$c2FsdHNhbHQ$!!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword("camera-admin", tt.hash)
			if !errors.Is(err, ErrInvalidHash) {
				t.Errorf("VerifyPassword(%q) error = %v, want ErrInvalidHash", tt.hash, err)
			}
			if ok {
				t.Errorf("VerifyPassword(%q) = true", tt.hash)
			}
		})
	}
}
