package calendar

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the shortest secret accepted for token keys.
const MinSecretLength = 16

const tokenName = "moffi-calendar"

var ErrInvalidToken = errors.New("invalid calendar token")

// Credentials are the Moffi login sealed inside a calendar token.
type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Tokens seals and opens calendar access tokens. Tokens are authenticated
// and encrypted, and never expire.
type Tokens struct {
	sc *securecookie.SecureCookie
}

// NewTokens derives a hash key and an AES-256 block key from secret.
func NewTokens(secret string) (*Tokens, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("calendar secret must be at least %d characters", MinSecretLength)
	}
	hashKey, err := derive(secret, "hash")
	if err != nil {
		return nil, err
	}
	blockKey, err := derive(secret, "block")
	if err != nil {
		return nil, err
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(0)
	return &Tokens{sc: sc}, nil
}

func derive(secret, purpose string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("moffisched calendar "+purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}

func (t *Tokens) Encode(c Credentials) (string, error) {
	return t.sc.Encode(tokenName, c)
}

func (t *Tokens) Decode(token string) (Credentials, error) {
	var c Credentials
	if err := t.sc.Decode(tokenName, token, &c); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Login == "" {
		return Credentials{}, fmt.Errorf("%w: no login", ErrInvalidToken)
	}
	return c, nil
}
