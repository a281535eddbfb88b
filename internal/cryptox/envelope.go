package cryptox

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/stringshare/ordervault/internal/common"
)

// Signature is one detached signature layer over the content.
// Layers are independent: verifying or failing one never affects another.
type Signature struct {
	KeyID     string `json:"key_id"`
	Signature []byte `json:"signature"`
}

// SignedContent is the plaintext of an envelope: the content plus the stack
// of signatures accumulated so far. It is what lives inside the ciphertext,
// so signatures are themselves confidential (sign before encrypt).
type SignedContent struct {
	Content    []byte      `json:"content"`
	Signatures []Signature `json:"signatures"`
}

// NewSignedContent wraps raw content with an empty signature stack.
func NewSignedContent(content []byte) *SignedContent {
	return &SignedContent{Content: content}
}

// Sign appends the signer's detached RSA-PSS signature over the content.
// Existing layers are left untouched, so signers can be stacked across
// workflow steps.
func (sc *SignedContent) Sign(priv *rsa.PrivateKey) error {
	digest := sha256.Sum256(sc.Content)
	sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digest[:], nil)
	if err != nil {
		return fmt.Errorf("sign content: %w", err)
	}
	sc.Signatures = append(sc.Signatures, Signature{
		KeyID:     KeyID(&priv.PublicKey),
		Signature: sig,
	})
	return nil
}

// Verify reports whether the content carries a valid signature from the
// given public key. Missing or invalid layers yield false, never an error.
func (sc *SignedContent) Verify(pub *rsa.PublicKey) bool {
	id := KeyID(pub)
	digest := sha256.Sum256(sc.Content)
	for _, s := range sc.Signatures {
		if s.KeyID != id {
			continue
		}
		if rsa.VerifyPSS(pub, crypto.SHA256, digest[:], s.Signature, nil) == nil {
			return true
		}
	}
	return false
}

// WrappedKey is the envelope session key encrypted for one recipient.
type WrappedKey struct {
	KeyID      string `json:"key_id"`
	SessionKey []byte `json:"session_key"`
}

// Envelope is the persisted form of signed order content: one AES-GCM
// ciphertext plus the session key wrapped once per recipient, so each
// recipient decrypts the same ciphertext independently.
type Envelope struct {
	Ciphertext []byte       `json:"ciphertext"`
	Nonce      []byte       `json:"nonce"`
	Recipients []WrappedKey `json:"recipients"`
}

// Encrypt seals signed content for every recipient in the set. A fresh
// 32-byte session key is generated per call, wrapped with RSA-OAEP for each
// recipient, and wiped before returning; it is never persisted anywhere else.
func Encrypt(sc *SignedContent, recipients []*rsa.PublicKey) (*Envelope, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("encrypt: empty recipient set")
	}

	plaintext, err := json.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("marshal signed content: %w", err)
	}
	defer common.WipeByteArray(plaintext)

	sessionKey := common.GenerateRandByteArray(32)
	defer common.WipeByteArray(sessionKey)

	aesgcm, err := newGCM(sessionKey)
	if err != nil {
		return nil, err
	}
	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	env := &Envelope{Ciphertext: ciphertext, Nonce: nonce}
	for _, pub := range recipients {
		wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, sessionKey, nil)
		if err != nil {
			return nil, fmt.Errorf("wrap session key: %w", err)
		}
		env.Recipients = append(env.Recipients, WrappedKey{
			KeyID:      KeyID(pub),
			SessionKey: wrapped,
		})
	}
	return env, nil
}

// Decrypt recovers the signed content with one recipient's private key.
// A wrong key, a corrupt ciphertext, or a key that was never among the
// encryption targets all fail with common.ErrDecryptionFailed.
func (e *Envelope) Decrypt(priv *rsa.PrivateKey) (*SignedContent, error) {
	id := KeyID(&priv.PublicKey)

	for _, w := range e.Recipients {
		if w.KeyID != id {
			continue
		}
		sessionKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, w.SessionKey, nil)
		if err != nil {
			return nil, common.ErrDecryptionFailed
		}
		sc, err := e.open(sessionKey)
		common.WipeByteArray(sessionKey)
		return sc, err
	}
	return nil, common.ErrDecryptionFailed
}

func (e *Envelope) open(sessionKey []byte) (*SignedContent, error) {
	aesgcm, err := newGCM(sessionKey)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	plaintext, err := aesgcm.Open(nil, e.Nonce, e.Ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	defer common.WipeByteArray(plaintext)

	sc := &SignedContent{}
	if err := json.Unmarshal(plaintext, sc); err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return sc, nil
}

// Marshal serializes the envelope for persistence. Envelopes are only ever
// written whole; there is no partial-update path.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEnvelope parses a persisted envelope.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	e := &Envelope{}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return e, nil
}
