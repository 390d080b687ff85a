package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/argon2"
)

// HashParams are the argon2id cost parameters baked into each digest. They can
// be tuned per deployment; VerifyPassword keeps accepting digests minted under
// older parameters and reports that a rehash is due.
type HashParams struct {
	Time        uint32
	Memory      uint32 // KiB
	Parallelism uint8
	KeyLen      uint32
	SaltLen     uint32
}

// DefaultHashParams matches the deployment baseline: 3 iterations, 64 MB
// memory, 4 lanes, 32-byte key, 16-byte salt.
var DefaultHashParams = HashParams{
	Time:        3,
	Memory:      64 * 1024,
	Parallelism: 4,
	KeyLen:      32,
	SaltLen:     16,
}

// ErrMalformedDigest reports a stored digest that cannot be parsed. Callers
// should treat it as an authentication failure but log it, since it points at
// data corruption rather than a wrong password.
var ErrMalformedDigest = errors.New("malformed password digest")

// HashPassword hashes a password with the default argon2id parameters.
func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, DefaultHashParams)
}

// HashPasswordWithParams hashes a password and encodes it in the standard
// $argon2id$v=19$m=..,t=..,p=..$salt$hash form.
func HashPasswordWithParams(password string, p HashParams) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks a password against a stored digest. needsRehash is
// true when the digest matches but was minted with parameters different from
// DefaultHashParams, so the caller can transparently upgrade it after a
// successful login. A non-nil error means the digest itself is unusable.
func VerifyPassword(digest, password string) (ok bool, needsRehash bool, err error) {
	params, salt, key, err := decodeDigest(digest)
	if err != nil {
		return false, false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, params.KeyLen)
	if subtle.ConstantTimeCompare(candidate, key) != 1 {
		return false, false, nil
	}

	needsRehash = params.Time != DefaultHashParams.Time ||
		params.Memory != DefaultHashParams.Memory ||
		params.Parallelism != DefaultHashParams.Parallelism ||
		params.KeyLen != DefaultHashParams.KeyLen
	return true, needsRehash, nil
}

func decodeDigest(digest string) (HashParams, []byte, []byte, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return HashParams{}, nil, nil, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return HashParams{}, nil, nil, ErrMalformedDigest
	}

	var p HashParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Parallelism); err != nil {
		return HashParams{}, nil, nil, ErrMalformedDigest
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return HashParams{}, nil, nil, ErrMalformedDigest
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return HashParams{}, nil, nil, ErrMalformedDigest
	}

	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))
	return p, salt, key, nil
}

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// ValidatePassword enforces the password policy: at least 8 characters with
// an uppercase letter, a lowercase letter, a digit, and a special character.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !upperRe.MatchString(password) {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !lowerRe.MatchString(password) {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !digitRe.MatchString(password) {
		return errors.New("password must contain at least one digit")
	}
	if !specialRe.MatchString(password) {
		return errors.New(`password must contain at least one special character (!@#$%^&*(),.?":{}|<>)`)
	}
	return nil
}
