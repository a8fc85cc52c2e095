package file

import (
	"crypto/rand"
	"math/big"
	"path"
	"strings"
)

const (
	suffixLen      = 6
	suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// RandomSuffix returns a 6-character alphanumeric string.
func RandomSuffix() string {
	limit := big.NewInt(int64(len(suffixAlphabet)))
	b := make([]byte, suffixLen)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic("crypto/rand unavailable: " + err.Error())
		}
		b[i] = suffixAlphabet[n.Int64()]
	}
	return string(b)
}

// deriveName inserts "_"+suffix before the extension of fileName.
// Dotfiles such as ".env" have no extension.
func deriveName(fileName, suffix string) string {
	ext := path.Ext(fileName)
	if ext == fileName {
		ext = ""
	}
	return strings.TrimSuffix(fileName, ext) + "_" + suffix + ext
}
