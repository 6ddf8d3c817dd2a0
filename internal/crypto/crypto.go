// Package crypto implements the symmetric encryption scheme used for secret values:
// PBKDF2-HMAC-SHA512 key derivation, AES-256-CBC with a SHA-256 integrity suffix, and
// the "OctoCrypt!" token framing. Grounded on octoploy/utils/Encryption.py; PBKDF2 is
// provided by golang.org/x/crypto/pbkdf2, the one new direct dependency this module
// adds (see DESIGN.md) since no repo in the pack carries its own KDF implementation.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"github.com/octoploy/octoploy-go/internal/errs"
)

// Prefix marks a leaf string as an encrypted token.
const Prefix = "OctoCrypt!"

// KeyEnv is the environment variable holding the encryption password.
const KeyEnv = "OCTOPLOY_KEY"

var salt = []byte("octoployPepper!!")

const (
	pbkdf2Iterations = 100000
	keyLength        = 32 // AES-256
	integritySuffix  = sha256.Size
)

// HasPrefix reports whether s is an encrypted token.
func HasPrefix(s string) bool {
	return len(s) >= len(Prefix) && s[:len(Prefix)] == Prefix
}

// Cipher holds a derived AES-256 key and performs the encrypt/decrypt transform. It is
// built once per process run via NewCipher/NewEncryptor - never as a package-level
// singleton - so the key is threaded explicitly through whatever constructs it.
type Cipher struct {
	key []byte
}

// NewCipher derives the AES key from password via PBKDF2-HMAC-SHA512.
func NewCipher(password string) *Cipher {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLength, sha512.New)
	return &Cipher{key: key}
}

// Encrypt returns base64(IV ‖ AES-CBC(PKCS7(plaintext ‖ SHA-256(plaintext)))).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	payload := []byte(plaintext)
	digest := sha256.Sum256(payload)
	payload = append(payload, digest[:]...)
	padded := pkcs7Pad(payload, aes.BlockSize)

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrValueError, err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrValueError, err)
	}
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	out := make([]byte, 0, len(iv)+len(ciphertext))
	out = append(out, iv...)
	out = append(out, ciphertext...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt, verifying the trailing SHA-256 integrity suffix.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrValueError, err)
	}
	if len(raw) < aes.BlockSize {
		return "", fmt.Errorf("%w: Could not decrypt value", errs.ErrValueError)
	}
	iv, ciphertext := raw[:aes.BlockSize], raw[aes.BlockSize:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: Could not decrypt value", errs.ErrValueError)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrValueError, err)
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plain, err := pkcs7Unpad(padded)
	if err != nil {
		return "", fmt.Errorf("%w: Could not decrypt value", errs.ErrValueError)
	}
	if len(plain) < integritySuffix {
		return "", fmt.Errorf("%w: Could not decrypt value", errs.ErrValueError)
	}
	payload, expected := plain[:len(plain)-integritySuffix], plain[len(plain)-integritySuffix:]
	got := sha256.Sum256(payload)
	if !bytes.Equal(got[:], expected) {
		return "", fmt.Errorf("%w: Could not decrypt value", errs.ErrValueError)
	}
	return string(payload), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(data, padding...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) || padLen > aes.BlockSize {
		return nil, fmt.Errorf("invalid padding")
	}
	return data[:len(data)-padLen], nil
}

// Encryptor lazily derives its Cipher from OCTOPLOY_KEY the first time it is needed,
// mirroring Encryption's "fatal if the env var is absent on first use" behavior rather
// than failing at process start for tools that never touch a secret.
type Encryptor struct {
	cipher *Cipher
}

// NewEncryptor returns an Encryptor with no derived key yet.
func NewEncryptor() *Encryptor {
	return &Encryptor{}
}

func (e *Encryptor) cipherFor() (*Cipher, error) {
	if e.cipher == nil {
		key, ok := os.LookupEnv(KeyEnv)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: environment variable %s is not set", errs.ErrValueError, KeyEnv)
		}
		e.cipher = NewCipher(key)
	}
	return e.cipher, nil
}

// Encrypt encrypts raw and returns it framed with Prefix.
func (e *Encryptor) Encrypt(raw string) (string, error) {
	c, err := e.cipherFor()
	if err != nil {
		return "", err
	}
	token, err := c.Encrypt(raw)
	if err != nil {
		return "", err
	}
	return Prefix + token, nil
}

// Decrypt strips Prefix from token and decrypts the remainder.
func (e *Encryptor) Decrypt(token string) (string, error) {
	if !HasPrefix(token) {
		return "", fmt.Errorf("%w: value is not an encrypted token", errs.ErrValueError)
	}
	c, err := e.cipherFor()
	if err != nil {
		return "", err
	}
	return c.Decrypt(token[len(Prefix):])
}
