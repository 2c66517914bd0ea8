// internal/common/gateway/razorpay_test.go
package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "test_secret_key"
	orderID := "order_MkWq8q3x1abc"
	paymentID := "pay_MkWrD72yxyz"

	valid := signPayload(secret, orderID, paymentID)
	assert.True(t, VerifySignature(secret, orderID, paymentID, valid))
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	secret := "test_secret_key"
	valid := signPayload(secret, "order_1", "pay_1")

	// Wrong payment id
	assert.False(t, VerifySignature(secret, "order_1", "pay_2", valid))
	// Wrong order id
	assert.False(t, VerifySignature(secret, "order_2", "pay_1", valid))
	// Wrong secret
	assert.False(t, VerifySignature("other_secret", "order_1", "pay_1", valid))
	// Garbage signature
	assert.False(t, VerifySignature(secret, "order_1", "pay_1", "deadbeef"))
	assert.False(t, VerifySignature(secret, "order_1", "pay_1", ""))
}
