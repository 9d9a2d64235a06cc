package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken: токен не прошёл проверку.
var ErrInvalidToken = errors.New("invalid token")

// Claims: claims токена идентичности.
type Claims struct {
	jwt.RegisteredClaims
	PreferredUsername string   `json:"preferred_username,omitempty"`
	IsStaff           bool     `json:"is_staff,omitempty"`
	IsSuperuser       bool     `json:"is_superuser,omitempty"`
	Groups            []string `json:"groups,omitempty"`
}

// TokenProvider выпускает и проверяет HS256-токены идентичности.
type TokenProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenProvider создаёт провайдер. issuer может быть пустым — тогда iss не проверяется.
func NewTokenProvider(secret, issuer string, ttl time.Duration) *TokenProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenProvider{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue подписывает токен для актора.
func (p *TokenProvider) Issue(a Actor) (string, error) {
	if a.ID == "" {
		return "", errors.New("identity: subject is required")
	}
	now := p.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		PreferredUsername: a.Username,
		IsStaff:           a.Staff,
		IsSuperuser:       a.Superuser,
		Groups:            a.Groups,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Parse проверяет подпись и срок действия и возвращает аутентифицированного актора.
func (p *TokenProvider) Parse(raw string) (Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Actor{}, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return Actor{
		ID:            claims.Subject,
		Username:      claims.PreferredUsername,
		Authenticated: true,
		Staff:         claims.IsStaff,
		Superuser:     claims.IsSuperuser,
		Groups:        claims.Groups,
	}, nil
}
