// Package cryptox implements the cryptographic core of the purchase-order
// workflow: password-based key derivation, RSA key pair lifecycle
// (generate, protect at rest, unlock), and the signed-then-encrypted
// envelope format.
//
// # Envelope architecture
//
// Order content is wrapped in two layers, always in the same order:
//
//  1. Signing. A SignedContent carries the plaintext and a stack of
//     detached RSA-PSS signatures. Each signer signs the content
//     independently, so signatures can be added across workflow steps
//     without invalidating earlier ones, and each is verifiable on its own.
//  2. Encryption. The SignedContent is serialized and sealed with AES-GCM
//     under a fresh 32-byte session key. The session key is wrapped with
//     RSA-OAEP once per recipient, so any single recipient can decrypt the
//     shared ciphertext with their own private key.
//
// Decryption reverses the layers: unseal first, then verify whichever
// signatures the caller cares about. A failed signature is reported as
// false, never as an error, so one broken layer cannot mask the others.
//
// # Key protection
//
// Private keys exist at rest only as AES-GCM blobs sealed under a key
// derived from the owner's password and a per-user random salt
// (argon2id, then SHA-256 down to a 32-byte AES key). Unlock failures
// are reported uniformly as common.ErrWrongPassword regardless of which
// layer rejected the attempt. Unlocked keys and derived material are
// scoped to a single operation and wiped on exit.
package cryptox
