package auth

import (
	"errors"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	digest, err := HashPassword("Tr1cky#Pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if digest == "" {
		t.Fatalf("expected non-empty digest")
	}

	ok, rehash, err := VerifyPassword(digest, "Tr1cky#Pass")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected matching password to verify")
	}
	if rehash {
		t.Fatalf("fresh digest should not need a rehash")
	}

	ok, _, err = VerifyPassword(digest, "wrong-password")
	if err != nil {
		t.Fatalf("verify wrong password: %v", err)
	}
	if ok {
		t.Fatalf("expected wrong password to fail verification")
	}
}

func TestVerifyPasswordSignalsRehashOnStaleParams(t *testing.T) {
	stale := DefaultHashParams
	stale.Time = 1
	stale.Memory = 32 * 1024

	digest, err := HashPasswordWithParams("Tr1cky#Pass", stale)
	if err != nil {
		t.Fatalf("hash with stale params: %v", err)
	}

	ok, rehash, err := VerifyPassword(digest, "Tr1cky#Pass")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("stale-parameter digest must still verify")
	}
	if !rehash {
		t.Fatalf("stale-parameter digest must signal a rehash")
	}
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	for _, digest := range []string{
		"",
		"not-a-digest",
		"$argon2id$v=19$m=65536,t=3,p=4$only-three-parts",
		"$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA",
	} {
		_, _, err := VerifyPassword(digest, "whatever")
		if !errors.Is(err, ErrMalformedDigest) {
			t.Fatalf("digest %q: expected ErrMalformedDigest, got %v", digest, err)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("Str0ng#Pass"); err != nil {
		t.Fatalf("expected valid password, got: %v", err)
	}
	for _, password := range []string{
		"Sh0rt!",          // too short
		"alllower1!",      // no uppercase
		"ALLUPPER1!",      // no lowercase
		"NoDigitsHere!",   // no digit
		"NoSpecials1234A", // no special character
	} {
		if err := ValidatePassword(password); err == nil {
			t.Fatalf("expected password %q to fail validation", password)
		}
	}
}
