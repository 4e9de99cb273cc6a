package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "typ" claim
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
	TokenVerify  = "verify"
)

var (
	ErrExpiredToken   = errors.New("token expired")
	ErrMalformedToken = errors.New("malformed token")
)

// Claims is the payload of every token the application issues. Session
// tokens also pin the user ID, the subject alone is the username and can be
// taken over after a rename.
type Claims struct {
	jwt.RegisteredClaims
	Type   string `json:"typ"`
	UserID uint   `json:"uid,omitempty"`
}

// Codec signs and verifies tokens with a single shared HMAC secret
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

type CodecOption func(*Codec)

// WithClock replaces time.Now as the source of iat/exp and of the expiry check
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

func NewCodec(secret, algorithm string, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("no signing secret provided")
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	c := &Codec{
		secret: []byte(secret),
		method: method,
		now:    time.Now,
	}

	for _, o := range opts {
		o(c)
	}

	return c, nil
}

// Encode signs claims after stamping iat with the current time and exp with
// the current time plus ttl
func (c *Codec) Encode(claims Claims, ttl time.Duration) (string, error) {
	now := c.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token, %w", err)
	}

	return signed, nil
}

// Decode verifies the signature, algorithm and expiry of token. Any failure
// other than expiry is reported as ErrMalformedToken.
func (c *Codec) Decode(token string) (*Claims, error) {
	claims := new(Claims)

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}

		return nil, fmt.Errorf("%w, %w", ErrMalformedToken, err)
	}

	return claims, nil
}

// DecodeAs is Decode that also requires the typ claim to equal typ
func (c *Codec) DecodeAs(token, typ string) (*Claims, error) {
	claims, err := c.Decode(token)
	if err != nil {
		return nil, err
	}

	if claims.Type != typ {
		return nil, fmt.Errorf("%w, expected %s token but got %q", ErrMalformedToken, typ, claims.Type)
	}

	return claims, nil
}
