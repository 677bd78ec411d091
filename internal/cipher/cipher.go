// Package cipher implements the two toy symmetric schemes a session can use
// plus the illustrative interception simulator. Both directions are total:
// a transformation that cannot be applied returns its input unchanged.
package cipher

import (
	"qchat/internal/domain"
	"qchat/pkg/errors"
)

// Encrypt dispatches on the session's method tag. An unknown method is a
// domain-rule error; the send path must reject it before persisting anything.
func Encrypt(method domain.EncryptionMethod, message, key string) (string, error) {
	switch method {
	case domain.MethodXOR:
		return XOREncrypt(message, key), nil
	case domain.MethodOTP:
		return OTPEncrypt(message, key), nil
	default:
		return "", errors.ErrInvalidMethod
	}
}

// Decrypt dispatches on the method tag. The display path is best-effort, so
// an unknown method falls back to the stored text unchanged.
func Decrypt(method domain.EncryptionMethod, ciphertext, key string) string {
	switch method {
	case domain.MethodXOR:
		return XORDecrypt(ciphertext, key)
	case domain.MethodOTP:
		return OTPDecrypt(ciphertext, key)
	default:
		return ciphertext
	}
}
