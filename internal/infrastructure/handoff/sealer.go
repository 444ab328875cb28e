package handoff

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// tokenVersion is the first byte of every sealed token
const tokenVersion byte = 1

// DefaultMaxAge bounds how long a token stays valid; it covers the hosted
// payment round trip.
const DefaultMaxAge = 2 * time.Hour

var (
	// ErrInvalidToken is returned for tokens that are malformed, tampered or sealed with another secret
	ErrInvalidToken = errors.New("invalid handoff token")
	// ErrExpiredToken is returned for tokens older than the max age
	ErrExpiredToken = errors.New("handoff token expired")
	// ErrEmptySecret is returned when no secret is configured
	ErrEmptySecret = errors.New("handoff secret is empty")
)

// KDFParams are the scrypt tunables
type KDFParams struct {
	N, R, P int
}

// DefaultKDFParams are the production scrypt parameters
func DefaultKDFParams() KDFParams { return KDFParams{N: 1 << 15, R: 8, P: 1} }

// Sealer encrypts user data carried between the checkout and success pages,
// so the password never travels as readable query text.
type Sealer struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

type envelope struct {
	IssuedAt int64           `json:"iat"`
	Data     json.RawMessage `json:"data"`
}

// NewSealer derives the sealing key from secret once
func NewSealer(secret string, params KDFParams) (*Sealer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	salt := []byte("regwiz/handoff/v1")
	key, err := scrypt.Key([]byte(secret), salt, params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive handoff key: %w", err)
	}
	return &Sealer{key: key, maxAge: DefaultMaxAge, now: time.Now}, nil
}

// WithMaxAge sets how long tokens stay valid
func (s *Sealer) WithMaxAge(d time.Duration) *Sealer {
	s.maxAge = d
	return s
}

// Seal encodes v as JSON and returns a URL-safe token
func (s *Sealer) Seal(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal handoff data: %w", err)
	}
	plain, err := json.Marshal(envelope{IssuedAt: s.now().Unix(), Data: data})
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, 1+len(nonce)+len(plain)+aead.Overhead())
	out = append(out, tokenVersion)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plain, []byte{tokenVersion})
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open verifies token and decodes its data into v
func (s *Sealer) Open(token string, v interface{}) error {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrInvalidToken
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return err
	}
	if len(raw) < 1+aead.NonceSize()+aead.Overhead() || raw[0] != tokenVersion {
		return ErrInvalidToken
	}
	nonce := raw[1 : 1+aead.NonceSize()]
	plain, err := aead.Open(nil, nonce, raw[1+aead.NonceSize():], []byte{tokenVersion})
	if err != nil {
		return ErrInvalidToken
	}

	var env envelope
	if err := json.Unmarshal(plain, &env); err != nil {
		return ErrInvalidToken
	}
	if s.maxAge > 0 && s.now().Sub(time.Unix(env.IssuedAt, 0)) > s.maxAge {
		return ErrExpiredToken
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode handoff data: %w", err)
	}
	return nil
}
