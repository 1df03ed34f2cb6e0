package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod names the JWS algorithm used for both token kinds.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA256 over the shared secret.
	MethodHS256 SigningMethod = "HS256"
	// MethodHS384 signs with HMAC-SHA384 over the shared secret.
	MethodHS384 SigningMethod = "HS384"
	// MethodHS512 signs with HMAC-SHA512 over the shared secret.
	MethodHS512 SigningMethod = "HS512"
	// MethodEdDSA signs with an Ed25519 private key; the verify key is derived from it.
	MethodEdDSA SigningMethod = "EdDSA"
)

// TokenType is carried in the "type" claim and separates access from refresh tokens.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures, wrong algorithms
	// and missing required claims.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned for a correctly signed token whose exp is not after now.
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidSubject is returned when the subject is not a positive decimal user id.
	ErrInvalidSubject = errors.New("token subject invalid")
)

// Config holds the codec settings. It is read once by NewManager.
type Config struct {
	SigningMethod SigningMethod
	// SecretKey is the HMAC secret, or an Ed25519 private key (PEM or raw 64 bytes) for EdDSA.
	SecretKey  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	// Now overrides the wall clock; nil means time.Now.
	Now func() time.Time
}

// Claims is the payload of both token kinds.
type Claims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	if c == nil {
		return 0, ErrInvalidSubject
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidSubject
	}
	return id, nil
}

// Manager issues and decodes access and refresh tokens. It holds no mutable
// state and is safe for concurrent use.
type Manager struct {
	config    Config
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
}

// ParseSigningMethod accepts the algorithm identifiers used in configuration,
// case-insensitively ("hs256", "HS512", "eddsa", "ed25519").
func ParseSigningMethod(raw string) (SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "HS256":
		return MethodHS256, nil
	case "HS384":
		return MethodHS384, nil
	case "HS512":
		return MethodHS512, nil
	case "EDDSA", "ED25519":
		return MethodEdDSA, nil
	default:
		return "", fmt.Errorf("unsupported signing algorithm %q", raw)
	}
}

// NewManager validates cfg and resolves the signing and verification keys.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.SecretKey) == 0 {
		return nil, errors.New("signing key required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.SecretKey = append([]byte(nil), cfg.SecretKey...)

	m := &Manager{config: cfg}
	switch cfg.SigningMethod {
	case MethodHS256:
		m.method = jwt.SigningMethodHS256
	case MethodHS384:
		m.method = jwt.SigningMethodHS384
	case MethodHS512:
		m.method = jwt.SigningMethodHS512
	case MethodEdDSA:
		m.method = jwt.SigningMethodEdDSA
	default:
		return nil, errors.New("unsupported signing method")
	}

	if cfg.SigningMethod == MethodEdDSA {
		priv, err := parseEdPrivateKey(cfg.SecretKey)
		if err != nil {
			return nil, err
		}
		m.signKey = priv
		m.verifyKey = priv.Public().(ed25519.PublicKey)
	} else {
		m.signKey = cfg.SecretKey
		m.verifyKey = cfg.SecretKey
	}

	return m, nil
}

// AccessTTL reports the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL reports the configured refresh-token lifetime. The registry
// entry for a fresh refresh token is saved with this ttl.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// IssueAccess signs an access token for userID valid for AccessTTL.
func (m *Manager) IssueAccess(userID int64) (string, error) {
	return m.issue(userID, TypeAccess, m.config.AccessTTL)
}

// IssueRefresh signs a refresh token for userID valid for RefreshTTL.
func (m *Manager) IssueRefresh(userID int64) (string, error) {
	return m.issue(userID, TypeRefresh, m.config.RefreshTTL)
}

func (m *Manager) issue(userID int64, typ TokenType, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", ErrInvalidSubject
	}

	now := m.config.Now()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
			// jti keeps two tokens minted in the same second distinct.
			ID: uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(m.method, claims).SignedString(m.signKey)
}

// Decode verifies signature and expiry and returns the claims. A token is
// rejected once now reaches exp. The type claim is returned as-is; callers
// check it against the kind they expect.
func (m *Manager) Decode(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.config.Now),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// DecodeAs decodes tokenStr, requires the given type claim and returns the
// subject as a user id.
func (m *Manager) DecodeAs(tokenStr string, want TokenType) (int64, *Claims, error) {
	claims, err := m.Decode(tokenStr)
	if err != nil {
		return 0, nil, err
	}
	if claims.Type != want {
		return 0, nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, want, claims.Type)
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, nil, err
	}
	return userID, claims, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}
