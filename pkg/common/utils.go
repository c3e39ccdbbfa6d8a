package common

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// GenerateTrxNo returns a short human-readable transaction number, used
// for voucher codes and operator-facing references.
func GenerateTrxNo() string {
	const characters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	result := make([]byte, 7)
	for i := range result {
		result[i] = characters[r.Intn(len(characters))]
	}
	return string(result)
}

// GeneratePayoutRef returns the globally unique reference a payout run is
// identified by towards disbursement providers.
func GeneratePayoutRef() string {
	return fmt.Sprintf("PS-%s", uuid.NewString())
}
