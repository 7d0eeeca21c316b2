package auth

import (
	"errors"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("expected password to be hashed")
	}

	if err := CheckPassword(hash, "hunter22"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
}
