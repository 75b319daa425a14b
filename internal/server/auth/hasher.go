// Package auth contains the credential and token primitives used by the
// authentication flows: PBKDF2 password hashing and signed session tokens.
package auth

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophsecrets/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Method = "pbkdf2"
	pbkdf2KeyLen = 32
	saltBytes    = 16

	// legacyPBKDF2Iterations applies to "pbkdf2:sha256" hashes that
	// carry no explicit iteration count.
	legacyPBKDF2Iterations = 260_000
)

// PasswordHasher turns plaintext passwords into storable hashes and checks
// plaintexts against them.
type PasswordHasher interface {
	// Hash returns a salted hash of password. Two calls with the same
	// input return different strings.
	Hash(password string) (string, error)

	// Verify reports whether password matches encoded. Malformed or empty
	// hashes never match.
	Verify(password, encoded string) bool
}

// PBKDF2Hasher hashes with PBKDF2-HMAC-SHA256 and encodes the result as
//
//	pbkdf2:sha256:<iterations>$<salt>$<hex digest>
//
// which is the layout werkzeug.security uses, so hashes written by the
// earlier Flask deployment verify unchanged. Verification reads the hash
// function and iteration count from the stored string, so raising
// Iterations only affects new hashes.
type PBKDF2Hasher struct {
	Iterations int
}

func NewPBKDF2Hasher(iterations int) *PBKDF2Hasher {
	return &PBKDF2Hasher{Iterations: iterations}
}

func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	if h.Iterations < 1 {
		return "", fmt.Errorf("invalid iteration count %d", h.Iterations)
	}

	salt, err := common.MakeRandHexString(saltBytes)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), []byte(salt), h.Iterations, pbkdf2KeyLen, sha256.New)

	return fmt.Sprintf("%s:sha256:%d$%s$%s", pbkdf2Method, h.Iterations, salt, hex.EncodeToString(key)), nil
}

func (h *PBKDF2Hasher) Verify(password, encoded string) bool {
	fields := strings.Split(encoded, "$")
	if len(fields) != 3 || fields[1] == "" {
		return false
	}
	method, salt, digest := fields[0], fields[1], fields[2]

	newHash, iterations, ok := parseMethod(method)
	if !ok {
		return false
	}

	expected, err := hex.DecodeString(digest)
	if err != nil || len(expected) == 0 {
		return false
	}

	actual := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(expected), newHash)
	return subtle.ConstantTimeCompare(actual, expected) == 1
}

// parseMethod understands "pbkdf2:<hash>[:<iterations>]".
func parseMethod(method string) (func() hash.Hash, int, bool) {
	parts := strings.Split(method, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != pbkdf2Method {
		return nil, 0, false
	}

	var newHash func() hash.Hash
	switch parts[1] {
	case "sha256":
		newHash = sha256.New
	case "sha512":
		newHash = sha512.New
	case "sha1":
		newHash = sha1.New
	default:
		return nil, 0, false
	}

	iterations := legacyPBKDF2Iterations
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return nil, 0, false
		}
		iterations = n
	}

	return newHash, iterations, true
}
