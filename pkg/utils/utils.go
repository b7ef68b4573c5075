package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path"
	"strings"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
)

// NewHandle generates the public name shown on the leaderboard.
func NewHandle() string {
	petname.NonDeterministicMode()
	n, _ := rand.Int(rand.Reader, big.NewInt(1000))
	return fmt.Sprintf("%s-%03d", petname.Generate(2, "-"), n.Int64())
}

// ProofObjectKey builds the bucket key for an uploaded proof photo.
func ProofObjectKey(uid string, contentType string) string {
	ext := ".jpg"
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	case "image/heic":
		ext = ".heic"
	case "image/heif":
		ext = ".heif"
	}
	return path.Join("proofs", uid, uuid.NewString()+ext)
}

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
