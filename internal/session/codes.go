package session

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
)

// codeAlphabet excludes the visually confusable I, O, l, 0 and 1 so a
// pairing code can be read off one screen and typed into another.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

const (
	codeLength = 8

	// maxCodeRetries caps collision retries during generation. At any
	// plausible session count the 56^8 keyspace makes hitting this a
	// sign something is broken, not a capacity problem.
	maxCodeRetries = 1000
)

var ErrCodeSpaceExhausted = errors.New("code_space_exhausted")

// CodePattern is the wire-format check applied before any lookup.
var CodePattern = regexp.MustCompile(`^[A-Za-z0-9]{8}$`)

func ValidCodeFormat(code string) bool {
	return CodePattern.MatchString(code)
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
