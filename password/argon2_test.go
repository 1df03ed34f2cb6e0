package password

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func lightArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgon2HashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(lightArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("P@ssw0rd-Ascii", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed: ok=%v err=%v", ok, err)
	}
	ok, err = hasher.Verify("wrong-password", hash)
	if err != nil || ok {
		t.Fatalf("expected wrong password to fail: ok=%v err=%v", ok, err)
	}
}

func TestArgon2RejectsWeakConfig(t *testing.T) {
	cfg := lightArgon2Config()
	cfg.Memory = 1024
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected memory below minimum to be rejected")
	}
	cfg = lightArgon2Config()
	cfg.SaltLength = 8
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected short salt to be rejected")
	}
}

func TestArgon2NeedsUpgrade(t *testing.T) {
	oldHasher, err := NewArgon2(lightArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2(old) error: %v", err)
	}
	hash, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := lightArgon2Config()
	stronger.Time = 2
	newHasher, err := NewArgon2(stronger)
	if err != nil {
		t.Fatalf("NewArgon2(new) error: %v", err)
	}

	if up, err := newHasher.NeedsUpgrade(hash); err != nil || !up {
		t.Fatalf("expected upgrade for weaker hash: up=%v err=%v", up, err)
	}
	if up, err := oldHasher.NeedsUpgrade(hash); err != nil || up {
		t.Fatalf("expected no upgrade for same params: up=%v err=%v", up, err)
	}
}

func TestArgon2VerifyMalformedHash(t *testing.T) {
	hasher, err := NewArgon2(lightArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	if _, err := hasher.Verify("password", "not-a-phc-hash"); err == nil {
		t.Fatal("expected malformed hash verification to fail")
	}

	hash, _ := hasher.Hash("version-test")
	wrongVersion := strings.Replace(hash, "$v=19$", "$v=18$", 1)
	if _, err := hasher.Verify("version-test", wrongVersion); err == nil {
		t.Fatal("expected unsupported version verification to fail")
	}
}

func TestArgon2HashEmptyPassword(t *testing.T) {
	hasher, err := NewArgon2(lightArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	if _, err := hasher.Hash(""); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestArgon2MalformedHashes(t *testing.T) {
	hasher, err := NewArgon2(lightArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	salt := "c29tZXNhbHRzb21lc2FsdA"
	key := "a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5"

	tests := map[string]string{
		"wrong algorithm": "$argon2i$v=19$m=8192,t=1,p=1$" + salt + "$" + key,
		"missing params":  "$argon2id$v=19$m=8192,t=1$" + salt + "$" + key,
		"weak memory":     "$argon2id$v=19$m=1024,t=1,p=1$" + salt + "$" + key,
		"short salt":      "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$" + key,
		"bad key":         "$argon2id$v=19$m=8192,t=1,p=1$" + salt + "$!!!",
		"empty key":       "$argon2id$v=19$m=8192,t=1,p=1$" + salt + "$",
	}
	for name, encoded := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := hasher.Verify("password", encoded); !errors.Is(err, ErrMalformedHash) {
				t.Fatalf("expected ErrMalformedHash, got %v", err)
			}
		})
	}
}

func TestArgon2AcceptsPaddedBase64(t *testing.T) {
	hasher, err := NewArgon2(lightArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	hash, err := hasher.Hash("padded-form")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if strings.Contains(hash, "=$") || strings.HasSuffix(hash, "=") {
		t.Fatalf("expected unpadded encoding, got %s", hash)
	}

	p, err := parsePHC(hash)
	if err != nil {
		t.Fatalf("parsePHC error: %v", err)
	}
	parts := strings.Split(hash, "$")
	parts[4] = base64.StdEncoding.EncodeToString(p.salt)
	parts[5] = base64.StdEncoding.EncodeToString(p.key)
	padded := strings.Join(parts, "$")

	ok, err := hasher.Verify("padded-form", padded)
	if err != nil || !ok {
		t.Fatalf("expected padded hash to verify: ok=%v err=%v", ok, err)
	}
}
