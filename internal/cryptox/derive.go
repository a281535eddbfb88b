package cryptox

import (
	"crypto/sha256"

	"github.com/stringshare/ordervault/internal/common"
	"golang.org/x/crypto/argon2"
)

// argon2id parameters for password-based key derivation.
const (
	deriveTime    = 1
	deriveMemory  = 64 * 1024
	deriveThreads = 4
	deriveKeyLen  = 32
)

// DeriveKey derives a 32-byte symmetric key from a password and salt.
// The derivation is deterministic: identical (password, salt) inputs always
// produce identical output. argon2id does the slow, salted work; the result
// is then folded through SHA-256 to a fixed-size value usable directly as an
// AES-256 key.
//
// Empty passwords are not rejected here; that policy belongs to the caller.
// The caller owns the returned slice and should wipe it after use.
func DeriveKey(password, salt []byte) []byte {
	raw := argon2.IDKey(password, salt, deriveTime, deriveMemory, deriveThreads, deriveKeyLen)
	defer common.WipeByteArray(raw)

	sum := sha256.Sum256(raw)
	return sum[:]
}
