// Package signature verifies inbound webhook authenticity. The verifiers
// are pure and deterministic; callers load secrets and decide what a
// failed check means.
package signature

import (
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// OzowNotification is the ordered field set Ozow signs. All values are the
// raw strings as posted, amount included.
type OzowNotification struct {
	SiteCode             string
	TransactionId        string
	TransactionReference string
	Amount               string
	Status               string
	Optional1            string
	Optional2            string
	Optional3            string
	Optional4            string
	Optional5            string
	CurrencyCode         string
	IsTest               string
	StatusMessage        string
	Hash                 string
}

// VerifyOzow recomputes the Ozow hash check: concatenate the signed fields
// in provider order plus the private key, lowercase, SHA-512, then strip
// leading zero characters from both digests before a case-insensitive
// compare (Ozow's own tooling drops them).
func VerifyOzow(n OzowNotification, privateKey string) bool {
	if n.Hash == "" {
		return false
	}

	concat := n.SiteCode +
		n.TransactionId +
		n.TransactionReference +
		n.Amount +
		n.Status +
		n.Optional1 +
		n.Optional2 +
		n.Optional3 +
		n.Optional4 +
		n.Optional5 +
		n.CurrencyCode +
		n.IsTest +
		n.StatusMessage +
		privateKey

	sum := sha512.Sum512([]byte(strings.ToLower(concat)))
	computed := strings.TrimLeft(hex.EncodeToString(sum[:]), "0")
	received := strings.TrimLeft(n.Hash, "0")

	return strings.EqualFold(computed, received)
}
