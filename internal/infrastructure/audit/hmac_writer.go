package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the HMAC-SHA256 of the message value.
const SignatureHeader = "x-kpidash-signature"

// Sign returns the base64 HMAC-SHA256 of payload under key.
func Sign(payload, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write(payload)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature matches payload under key.
func Verify(payload, key []byte, signature string) bool {
	want, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, key)
	h.Write(payload)
	return hmac.Equal(h.Sum(nil), want)
}
