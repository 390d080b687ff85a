package service

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"abc", "budi.santoso", "user_01", "A.B_c9"}
	for _, u := range valid {
		if err := validateUsername(u); err != nil {
			t.Errorf("validateUsername(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{"", "ab", "has space", "emoji😀name", "dash-name", strings.Repeat("a", 51)}
	for _, u := range invalid {
		if err := validateUsername(u); err == nil {
			t.Errorf("validateUsername(%q) = nil, want error", u)
		}
	}
}

func TestValidateFullName(t *testing.T) {
	if err := validateFullName("Budi Santoso"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	for _, name := range []string{"ab", "Agent 47", ""} {
		if err := validateFullName(name); err == nil {
			t.Errorf("validateFullName(%q) = nil, want error", name)
		}
	}
}

func TestValidateNIP(t *testing.T) {
	if err := validateNIP("198001012005011001"); err != nil {
		t.Errorf("valid NIP rejected: %v", err)
	}
	for _, nip := range []string{"", "12345", "19800101200501100a", "1980010120050110011"} {
		if err := validateNIP(nip); err == nil {
			t.Errorf("validateNIP(%q) = nil, want error", nip)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if err := validateEmail("budi@example.com"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}
	for _, email := range []string{"", "plain", "Budi <budi@example.com>", "@example.com"} {
		if err := validateEmail(email); err == nil {
			t.Errorf("validateEmail(%q) = nil, want error", email)
		}
	}
}
