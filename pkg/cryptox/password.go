package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ErrCorruptHash reports a stored hash that cannot be parsed as a PHC-format
// Argon2id string. A plain mismatch is NOT an error; VerifyPassword returns
// false for that.
var ErrCorruptHash = errors.New("cryptox: corrupt password hash")

// HashPassword derives a PHC-format Argon2id hash of the password, salted per
// call and peppered with the process-wide pepper.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: salt generation failed: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password+GetPepper()),
		salt,
		iterations,
		memory,
		parallelism,
		keyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks a plaintext password against a stored PHC-format
// Argon2id hash in constant time. It returns (false, nil) on a mismatch and
// an ErrCorruptHash-wrapped error only when the stored hash is malformed.
func VerifyPassword(password, encodedHash string) (bool, error) {
	mem, iters, par, salt, want, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey(
		[]byte(password+GetPepper()),
		salt,
		iters,
		mem,
		par,
		uint32(len(want)), // #nosec G115 -- key length is bounded by the encoded hash
	)

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// parsePHC splits "$argon2id$v=19$m=X,t=Y,p=Z$salt$hash" into its parameters.
func parsePHC(encoded string) (mem, iters uint32, par uint8, salt, hash []byte, err error) {
	parts := make([]string, 0, 6)
	start := 0
	for i := range len(encoded) {
		if encoded[i] == '$' {
			parts = append(parts, encoded[start:i])
			start = i + 1
		}
	}
	parts = append(parts, encoded[start:])

	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad structure", ErrCorruptHash)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad parameters: %v", ErrCorruptHash, err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad salt encoding", ErrCorruptHash)
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad hash encoding", ErrCorruptHash)
	}
	if len(hash) == 0 {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: empty hash", ErrCorruptHash)
	}

	return mem, iters, par, salt, hash, nil
}
