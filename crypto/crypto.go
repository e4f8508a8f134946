package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize = 32
	keySize  = 32

	// DefaultIterations is the PBKDF2 work factor for new records.
	DefaultIterations = 100_000
)

// ErrDecrypt hides whether the passphrase, the key name or the ciphertext was wrong.
var ErrDecrypt = errors.New("cannot decrypt record: wrong passphrase or corrupted data")

// EncryptedData is a sealed payload together with what is needed to open it.
type EncryptedData struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
	Iterations int    `json:"iterations"`
}

// Sealer encrypts records with a key derived from a passphrase.
// Every Seal draws a fresh salt and nonce.
type Sealer struct {
	pass       []byte
	iterations int
}

func NewSealer(passphrase string, iterations int) *Sealer {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Sealer{pass: []byte(passphrase), iterations: iterations}
}

// Seal encrypts plaintext; aad (the record key) is authenticated but not stored.
func (s *Sealer) Seal(plaintext, aad []byte) (*EncryptedData, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := s.aead(salt, s.iterations)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return &EncryptedData{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, aad),
		Iterations: s.iterations,
	}, nil
}

func (s *Sealer) Open(data EncryptedData, aad []byte) ([]byte, error) {
	iterations := data.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	gcm, err := s.aead(data.Salt, iterations)
	if err != nil {
		return nil, err
	}
	if len(data.Nonce) != gcm.NonceSize() {
		return nil, ErrDecrypt
	}

	plaintext, err := gcm.Open(nil, data.Nonce, data.Ciphertext, aad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func (s *Sealer) aead(salt []byte, iterations int) (cipher.AEAD, error) {
	key := pbkdf2.Key(s.pass, salt, iterations, keySize, sha256.New)
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func clearBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
