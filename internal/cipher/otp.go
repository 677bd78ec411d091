package cipher

// The "one-time pad" here is a deliberately toy variant preserved from the
// reference behavior: the key character at position i mod len(key) is read as
// a decimal digit and added to the plaintext rune modulo 256. The key is
// repeated rather than consumed, so this has none of the properties of a real
// pad. Kept as documented behavior, not a bug to fix.

// OTPEncrypt shifts each rune of message by the digit value of the
// corresponding key character, modulo 256. Failure (empty key, non-digit key
// character) returns the message unchanged.
func OTPEncrypt(message, key string) string {
	if key == "" {
		return message
	}

	runes := []rune(message)
	encrypted := make([]rune, len(runes))
	for i, r := range runes {
		digit, ok := keyDigit(key, i)
		if !ok {
			return message
		}
		encrypted[i] = rune((int(r) + digit) % 256)
	}
	return string(encrypted)
}

// OTPDecrypt reverses OTPEncrypt. The round trip holds for runes below 256;
// anything above is folded into that range by the modulus, matching the
// reference. Failure returns the ciphertext unchanged.
func OTPDecrypt(ciphertext, key string) string {
	if key == "" {
		return ciphertext
	}

	runes := []rune(ciphertext)
	decrypted := make([]rune, len(runes))
	for i, r := range runes {
		digit, ok := keyDigit(key, i)
		if !ok {
			return ciphertext
		}
		decrypted[i] = rune(((int(r)-digit)%256 + 256) % 256)
	}
	return string(decrypted)
}

func keyDigit(key string, i int) (int, bool) {
	c := key[i%len(key)]
	if c < '0' || c > '9' {
		return 0, false
	}
	return int(c - '0'), true
}
