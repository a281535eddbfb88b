package cryptox

import "crypto/rsa"

// Signer names one expected signature layer for trust reporting: a workflow
// role ("sender", "server", "supervisor") and the public key it should have
// signed with.
type Signer struct {
	Role      string
	PublicKey *rsa.PublicKey
}

// VerifyAll checks every expected signer against the signed content and
// returns a role -> verified map. A signature that is missing, invalid, or
// unverifiable counts as false for that role only; one bad layer never blocks
// the others and nothing is propagated as an error.
func VerifyAll(sc *SignedContent, signers []Signer) map[string]bool {
	report := make(map[string]bool, len(signers))
	for _, s := range signers {
		if s.PublicKey == nil {
			report[s.Role] = false
			continue
		}
		report[s.Role] = sc.Verify(s.PublicKey)
	}
	return report
}
