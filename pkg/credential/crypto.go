package credential

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen  = 16
	nonceLen = 12

	// Argon2id parameters mirror the argon2 crate's Default impl: 19456
	// KiB memory, 2 passes, 1 thread, 32-byte output.
	argonTime    = 2
	argonMemory  = 19456
	argonThreads = 1
	argonKeyLen  = 32
)

// ErrDecryptionFailed covers a wrong master password, a corrupted file,
// or a malformed salt/nonce: one distinct error kind, surfaced without
// partial state.
var ErrDecryptionFailed = errors.New("credential: decryption failed")

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// encrypt lays out <salt-b64><0x00><12-byte nonce><AES-256-GCM ciphertext>.
func encrypt(password string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("credential: generate salt: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("credential: generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	saltB64 := base64.RawStdEncoding.EncodeToString(salt)
	out := make([]byte, 0, len(saltB64)+1+len(nonce)+len(ciphertext))
	out = append(out, []byte(saltB64)...)
	out = append(out, 0)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

func decrypt(password string, data []byte) ([]byte, error) {
	sep := bytes.IndexByte(data, 0)
	if sep < 0 {
		return nil, fmt.Errorf("%w: missing salt separator", ErrDecryptionFailed)
	}

	salt, err := base64.RawStdEncoding.DecodeString(string(data[:sep]))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid salt encoding", ErrDecryptionFailed)
	}

	rest := data[sep+1:]
	if len(rest) < nonceLen {
		return nil, fmt.Errorf("%w: truncated data", ErrDecryptionFailed)
	}
	nonce, ciphertext := rest[:nonceLen], rest[nonceLen:]

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("credential: init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("credential: init gcm: %w", err)
	}
	return gcm, nil
}
