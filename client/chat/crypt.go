package chat

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"
)

// Message bodies travel encrypted end to end; the relay and the REST API
// treat them as opaque strings. The scheme is AES-128-CBC with a static
// key/IV pair shared by all clients, ciphertext hex-encoded.

var (
	ErrBadKeySize    = errors.New("chat: key and iv must be 16 bytes")
	ErrBadCiphertext = errors.New("chat: malformed ciphertext")
)

// MessageCodec encrypts and decrypts message bodies.
type MessageCodec struct {
	block cipher.Block
	iv    []byte
}

// NewMessageCodec builds a codec from a 16 byte key and 16 byte IV.
func NewMessageCodec(key, iv []byte) (*MessageCodec, error) {
	if len(key) != 16 || len(iv) != 16 {
		return nil, ErrBadKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("chat: init cipher: %w", err)
	}
	return &MessageCodec{block: block, iv: iv}, nil
}

// Encrypt returns the hex-encoded AES-CBC ciphertext of plaintext.
func (c *MessageCodec) Encrypt(plaintext string) string {
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	return hex.EncodeToString(out)
}

// Decrypt reverses Encrypt.
func (c *MessageCodec) Decrypt(ciphertext string) (string, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", ErrBadCiphertext
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", ErrBadCiphertext
	}

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, raw)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrBadCiphertext
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, ErrBadCiphertext
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, ErrBadCiphertext
		}
	}
	return data[:len(data)-padding], nil
}
