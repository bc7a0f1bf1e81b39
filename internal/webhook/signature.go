package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// VerifySignature computes the HMAC-SHA256 of the raw body using secret
// and compares it, in constant time, against the supplied
// "sha256=<hex>" header value. An empty signature is always rejected.
func VerifySignature(body []byte, secret []byte, signature string) bool {
	if signature == "" {
		return false
	}
	provided, ok := strings.CutPrefix(signature, signaturePrefix)
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return len(provided) == len(expected) && hmac.Equal([]byte(provided), []byte(expected))
}
