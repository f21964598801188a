package ride

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultOTPLength matches what rider apps display.
const DefaultOTPLength = 6

// generateOTP returns a numeric secret of the given length. Uniqueness is
// per-ride, not global, so collisions across rides are harmless.
func generateOTP(length int) (string, error) {
	if length <= 0 {
		length = DefaultOTPLength
	}
	max := big.NewInt(10)
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		out[i] = byte('0' + n.Int64())
	}
	return string(out), nil
}
