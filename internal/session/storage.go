package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
)

// Storage persists the identity record between console restarts.
type Storage interface {
	Load() (Identity, error)
	Save(Identity) error
}

var errSealedTooShort = errors.New("sealed session file too short")

// FileStorage keeps the identity as a JSON file. When a secret is set the
// file content is sealed with ChaCha20-Poly1305: the bearer token is a
// credential and should not sit on disk in the clear.
type FileStorage struct {
	path string
	key  []byte
}

func NewFileStorage(path, secret string) *FileStorage {
	fs := &FileStorage{path: path}
	if secret != "" {
		sum := sha256.Sum256([]byte(secret))
		fs.key = sum[:]
	}
	return fs
}

func (fs *FileStorage) Load() (Identity, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return Sentinel(), err
	}

	if fs.key != nil {
		data, err = fs.unseal(data)
		if err != nil {
			return Sentinel(), err
		}
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Sentinel(), fmt.Errorf("failed to decode session file: %w", err)
	}
	return id, nil
}

func (fs *FileStorage) Save(id Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if fs.key != nil {
		data, err = fs.seal(data)
		if err != nil {
			return err
		}
	}

	if dir := filepath.Dir(fs.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	// Write-then-rename so readers never see a partial record on disk.
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (fs *FileStorage) seal(plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(fs.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

func (fs *FileStorage) unseal(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(fs.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < chacha20poly1305.NonceSize {
		return nil, errSealedTooShort
	}
	nonce, box := sealed[:chacha20poly1305.NonceSize], sealed[chacha20poly1305.NonceSize:]
	return aead.Open(nil, nonce, box, nil)
}
