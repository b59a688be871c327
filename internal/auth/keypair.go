package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/youmark/pkcs8"
)

var (
	// ErrNotFound is returned when the key file does not exist.
	ErrNotFound = errors.New("private key file not found")

	// ErrFormat is returned when the file cannot be parsed as an RSA
	// private key, including a wrong or missing passphrase.
	ErrFormat = errors.New("invalid private key format")
)

// LoadPrivateKey reads an RSA private key from a PEM file. Encrypted
// PKCS#8 keys are decrypted with passphrase.
func LoadPrivateKey(path, passphrase string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return ParsePrivateKey(data, passphrase)
}

// ParsePrivateKey parses a PEM-encoded RSA private key in PKCS#8 form,
// plain or passphrase-encrypted, or legacy PKCS#1 form.
func ParsePrivateKey(data []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrFormat)
	}

	switch block.Type {
	case "ENCRYPTED PRIVATE KEY":
		key, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		return key, nil

	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		return key, nil

	default:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA private key", ErrFormat)
		}
		return rsaKey, nil
	}
}
