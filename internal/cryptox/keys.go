package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/stringshare/ordervault/internal/common"
)

const rsaKeyBits = 2048

const (
	pemTypePublic  = "PUBLIC KEY"
	pemTypePrivate = "PRIVATE KEY"
)

// Identity is the human-readable owner of a key pair, kept alongside the key
// for display and audit purposes.
type Identity struct {
	Name  string
	Email string
}

// KeyPair bundles a freshly generated RSA key pair with its owner identity.
// The private half must never be persisted as-is; pass it through Protect.
type KeyPair struct {
	Identity Identity
	Public   *rsa.PublicKey
	Private  *rsa.PrivateKey
}

// GenerateKeyPair creates a 2048-bit RSA key pair bound to the given identity.
func GenerateKeyPair(id Identity) (*KeyPair, error) {
	if id.Email == "" {
		return nil, errors.New("key identity requires an email")
	}
	priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("rsa keygen: %w", err)
	}
	return &KeyPair{Identity: id, Public: &priv.PublicKey, Private: priv}, nil
}

// KeyID returns a stable hex fingerprint of a public key (SHA-256 over the
// PKIX encoding). Used to address recipients and signers inside envelopes.
func KeyID(pub *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		// MarshalPKIXPublicKey cannot fail for a well-formed *rsa.PublicKey.
		panic(err)
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// Protect seals a private key under a key derived from the password and a
// fresh random salt, returning the opaque blob and the salt to persist.
// The plaintext key encoding and the derived key are wiped before returning;
// the caller still holds priv and is responsible for discarding it.
func Protect(priv *rsa.PrivateKey, password []byte) (blob, salt []byte, err error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal private key: %w", err)
	}
	defer common.WipeByteArray(der)

	salt = common.GenerateRandByteArray(32)
	key := DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	blob = aesgcm.Seal(nonce, nonce, der, nil)
	return blob, salt, nil
}

// Unlock decrypts a protected private-key blob with the key derived from the
// password and salt. Any failure, including a malformed blob, is reported as
// common.ErrWrongPassword; callers get no detail about which layer rejected
// the attempt. The unlocked key is scoped to the current operation: use it,
// then drop it.
func Unlock(blob, salt, password []byte) (*rsa.PrivateKey, error) {
	key := DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, common.ErrWrongPassword
	}

	if len(blob) < aesgcm.NonceSize() {
		return nil, common.ErrWrongPassword
	}
	nonce, ciphertext := blob[:aesgcm.NonceSize()], blob[aesgcm.NonceSize():]

	der, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrWrongPassword
	}
	defer common.WipeByteArray(der)

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, common.ErrWrongPassword
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, common.ErrWrongPassword
	}
	return priv, nil
}

// EncodePublicKeyPEM serializes a public key for storage or download.
func EncodePublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublic, Bytes: der}), nil
}

// DecodePublicKeyPEM parses a PEM-encoded RSA public key.
func DecodePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypePublic {
		return nil, errors.New("no public key PEM block")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return pub, nil
}

// EncodePrivateKeyPEM serializes an unlocked private key for export/download.
// Only call this behind the Unlock password gate.
func EncodePrivateKeyPEM(priv *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivate, Bytes: der}), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
