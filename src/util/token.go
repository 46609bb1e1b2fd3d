package util

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	codeMin   = 100000
	codeRange = 900000
)

// GenerateCode returns a 6-digit confirmation/reset code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}
