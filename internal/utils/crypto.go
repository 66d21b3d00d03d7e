package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// sealedPrefix marks a note that was encrypted by SealNote
const sealedPrefix = "enc:v1:"

// IsSealed reports whether s was produced by SealNote
func IsSealed(s string) bool {
	return strings.HasPrefix(s, sealedPrefix)
}

// SealNote encrypts a note with AES-CBC and PKCS#7 padding. Empty notes are
// left empty so "no notes" stays visible in storage.
func SealNote(note string, key []byte) (string, error) {
	if note == "" {
		return "", nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	data := []byte(note)
	padding := aes.BlockSize - len(data)%aes.BlockSize
	for i := 0; i < padding; i++ {
		data = append(data, byte(padding))
	}

	ciphertext := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, data)

	return sealedPrefix + hex.EncodeToString(append(iv, ciphertext...)), nil
}

// OpenNote reverses SealNote. Strings without the sealed prefix are returned
// unchanged, which covers notes written before a key was configured.
func OpenNote(stored string, key []byte) (string, error) {
	if !IsSealed(stored) {
		return stored, nil
	}
	data, err := hex.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}
	if len(data) < 2*aes.BlockSize || len(data)%aes.BlockSize != 0 {
		return "", fmt.Errorf("invalid ciphertext length: %d bytes", len(data))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv, ciphertext := data[:aes.BlockSize], data[aes.BlockSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	padding := int(plaintext[len(plaintext)-1])
	if padding == 0 || padding > aes.BlockSize {
		return "", fmt.Errorf("invalid padding value: %d", padding)
	}
	for _, b := range plaintext[len(plaintext)-padding:] {
		if int(b) != padding {
			return "", fmt.Errorf("invalid padding bytes")
		}
	}
	return string(plaintext[:len(plaintext)-padding]), nil
}
