package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer computes and checks gateway callback signatures: hex(HMAC-SHA256(secret, orderRef + "|" + paymentRef)).
type Signer struct {
	secret []byte
}

func NewSigner(secret string) Signer {
	return Signer{secret: []byte(secret)}
}

func (s Signer) Sign(gatewayOrderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(gatewayOrderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signature with the expected value in constant time.
func (s Signer) Verify(gatewayOrderRef, paymentRef, signature string) bool {
	expected := s.Sign(gatewayOrderRef, paymentRef)
	return hmac.Equal([]byte(expected), []byte(signature))
}
