package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewVerificationCode generates a 6-digit email verification code.
// Its validity lives entirely on the account record (existence + expiry);
// the code itself carries no claims.
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// NewResetToken generates a cryptographically random 40-character hex token
// for password resets.
func NewResetToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
