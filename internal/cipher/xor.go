package cipher

import (
	"encoding/base64"
	"strconv"
	"unicode/utf8"
)

// keyToBytes packs a binary key string big-endian, 8 bits per byte. A partial
// trailing group still packs as its own byte using only the available bits,
// so a 12-bit key becomes two bytes: key[0:8] and key[8:12].
func keyToBytes(key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}

	out := make([]byte, 0, (len(key)+7)/8)
	for i := 0; i < len(key); i += 8 {
		end := i + 8
		if end > len(key) {
			end = len(key)
		}
		b, err := strconv.ParseUint(key[i:end], 2, 8)
		if err != nil {
			return nil, false
		}
		out = append(out, byte(b))
	}
	return out, true
}

// XOREncrypt XORs the UTF-8 bytes of message against the repeating key bytes
// and returns the result base64-encoded. Any failure (empty or malformed key)
// returns the message unchanged; this path never errors out to the caller.
func XOREncrypt(message, key string) string {
	keyBytes, ok := keyToBytes(key)
	if !ok {
		return message
	}

	messageBytes := []byte(message)
	encrypted := make([]byte, len(messageBytes))
	for i, b := range messageBytes {
		encrypted[i] = b ^ keyBytes[i%len(keyBytes)]
	}

	return base64.StdEncoding.EncodeToString(encrypted)
}

// XORDecrypt reverses XOREncrypt. A payload that is not valid base64, or
// whose XOR result is not valid UTF-8, returns the input unchanged so the
// caller can fall back to displaying the stored ciphertext.
func XORDecrypt(ciphertext, key string) string {
	keyBytes, ok := keyToBytes(key)
	if !ok {
		return ciphertext
	}

	encrypted, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return ciphertext
	}

	decrypted := make([]byte, len(encrypted))
	for i, b := range encrypted {
		decrypted[i] = b ^ keyBytes[i%len(keyBytes)]
	}

	if !utf8.Valid(decrypted) {
		return ciphertext
	}
	return string(decrypted)
}
