package password

import (
	"errors"
	"strings"
)

const maxBcryptBytes = 72

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password empty")
	// ErrTooLongForBcrypt is returned for passwords bcrypt would truncate.
	ErrTooLongForBcrypt = errors.New("password exceeds 72 bytes, bcrypt would truncate it")
	// ErrUnknownHashFormat is returned when a stored hash matches no known scheme.
	ErrUnknownHashFormat = errors.New("unknown password hash format")
)

// Algorithm selects the scheme used for new hashes.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Config selects the hashing scheme and its cost parameters.
type Config struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     Argon2Config
}

// DefaultConfig hashes new passwords with Argon2id.
func DefaultConfig() Config {
	return Config{
		Algorithm: AlgorithmArgon2id,
		Argon2:    DefaultArgon2Config(),
	}
}

type scheme interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
	NeedsUpgrade(hash string) (bool, error)
}

// Hasher hashes with the configured algorithm and verifies any stored hash it
// recognises, so switching algorithms does not lock out existing users.
type Hasher struct {
	primary Algorithm
	bcrypt  *Bcrypt
	argon2  *Argon2
}

// New builds a Hasher from cfg.
func New(cfg Config) (*Hasher, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmArgon2id
	}
	if cfg.Algorithm != AlgorithmBcrypt && cfg.Algorithm != AlgorithmArgon2id {
		return nil, errors.New("unsupported password hash algorithm")
	}

	bc, err := NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	if cfg.Argon2 == (Argon2Config{}) {
		cfg.Argon2 = DefaultArgon2Config()
	}
	a2, err := NewArgon2(cfg.Argon2)
	if err != nil {
		return nil, err
	}

	return &Hasher{primary: cfg.Algorithm, bcrypt: bc, argon2: a2}, nil
}

// Algorithm reports the scheme used for new hashes.
func (h *Hasher) Algorithm() Algorithm { return h.primary }

func (h *Hasher) Hash(password string) (string, error) {
	if h.primary == AlgorithmArgon2id {
		return h.argon2.Hash(password)
	}
	return h.bcrypt.Hash(password)
}

func (h *Hasher) Verify(password, hash string) (bool, error) {
	s, _, err := h.schemeFor(hash)
	if err != nil {
		return false, err
	}
	return s.Verify(password, hash)
}

// NeedsUpgrade reports whether hash should be replaced on next login: either
// it uses another scheme or weaker parameters.
func (h *Hasher) NeedsUpgrade(hash string) (bool, error) {
	s, alg, err := h.schemeFor(hash)
	if err != nil {
		return false, err
	}
	if alg != h.primary {
		return true, nil
	}
	return s.NeedsUpgrade(hash)
}

func (h *Hasher) schemeFor(hash string) (scheme, Algorithm, error) {
	switch {
	case strings.HasPrefix(hash, "$"+argon2ID+"$"):
		return h.argon2, AlgorithmArgon2id, nil
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return h.bcrypt, AlgorithmBcrypt, nil
	default:
		return nil, "", ErrUnknownHashFormat
	}
}
