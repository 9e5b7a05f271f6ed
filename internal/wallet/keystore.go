package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/Klingon-tech/ipdb-go/pkg/crypto"
)

// Keystore errors.
var (
	ErrKeyExists   = errors.New("key already exists")
	ErrKeyNotFound = errors.New("key not found")
)

const (
	keyFileVersion = 1
	keyFileExt     = ".key"
)

var validKeyName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// keyFile is the on-disk JSON format of one named keypair. The public key
// is stored in the clear so it can be listed without a password.
type keyFile struct {
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	PublicKey        string    `json:"public_key"`
	EncryptedPrivate []byte    `json:"encrypted_private"`
}

// KeyEntry describes a stored keypair without its private half.
type KeyEntry struct {
	Name      string
	PublicKey string
	CreatedAt time.Time
}

// Keystore keeps password-encrypted keypairs in a directory, one file each.
type Keystore struct {
	path string
}

// NewKeystore opens the keystore in path, creating the directory if needed.
func NewKeystore(path string) (*Keystore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path}, nil
}

func (ks *Keystore) keyPath(name string) (string, error) {
	if !validKeyName.MatchString(name) {
		return "", fmt.Errorf("invalid key name %q", name)
	}
	return filepath.Join(ks.path, name+keyFileExt), nil
}

// Save encrypts kp under password and stores it as name.
func (ks *Keystore) Save(name string, kp crypto.KeyPair, password []byte, params EncryptionParams) error {
	path, err := ks.keyPath(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %q", ErrKeyExists, name)
	}

	// Refuse to store a pair whose halves do not match.
	key, err := crypto.ParsePrivateKey(kp.PrivateKey)
	if err != nil {
		return fmt.Errorf("private key: %w", err)
	}
	defer key.Zero()
	if key.PublicKeyBase58() != kp.PublicKey {
		return fmt.Errorf("public key does not match private key")
	}

	sealed, err := Encrypt([]byte(kp.PrivateKey), password, params)
	if err != nil {
		return fmt.Errorf("encrypt private key: %w", err)
	}
	return ks.writeFile(path, &keyFile{
		Version:          keyFileVersion,
		CreatedAt:        time.Now().UTC(),
		PublicKey:        kp.PublicKey,
		EncryptedPrivate: sealed,
	})
}

// Load decrypts the keypair stored as name.
func (ks *Keystore) Load(name string, password []byte) (crypto.KeyPair, error) {
	kf, err := ks.read(name)
	if err != nil {
		return crypto.KeyPair{}, err
	}
	private, err := Decrypt(kf.EncryptedPrivate, password)
	if err != nil {
		return crypto.KeyPair{}, fmt.Errorf("decrypt key %q: %w", name, err)
	}
	return crypto.KeyPair{PublicKey: kf.PublicKey, PrivateKey: string(private)}, nil
}

// PublicKey returns the public key stored as name. No password is needed.
func (ks *Keystore) PublicKey(name string) (string, error) {
	kf, err := ks.read(name)
	if err != nil {
		return "", err
	}
	return kf.PublicKey, nil
}

// List returns every stored key, sorted by name.
func (ks *Keystore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	var keys []KeyEntry
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != keyFileExt {
			continue
		}
		name := e.Name()[:len(e.Name())-len(keyFileExt)]
		kf, err := ks.read(name)
		if err != nil {
			return nil, err
		}
		keys = append(keys, KeyEntry{Name: name, PublicKey: kf.PublicKey, CreatedAt: kf.CreatedAt})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys, nil
}

// Delete removes the key stored as name.
func (ks *Keystore) Delete(name string) error {
	path, err := ks.keyPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", ErrKeyNotFound, name)
		}
		return fmt.Errorf("delete key: %w", err)
	}
	return nil
}

func (ks *Keystore) writeFile(path string, kf *keyFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key file: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

func (ks *Keystore) read(name string) (*keyFile, error) {
	path, err := ks.keyPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, name)
		}
		return nil, fmt.Errorf("read key file: %w", err)
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key file %q: %w", name, err)
	}
	if kf.Version != keyFileVersion {
		return nil, fmt.Errorf("unsupported key file version: %d", kf.Version)
	}
	return &kf, nil
}
