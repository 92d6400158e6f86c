// Package auth resuelve la sesión del usuario a partir de un JWT HS256.
// Es pass/fail: no hay roles ni scopes.
package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("auth: missing token")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Session es la identidad autenticada. Token es el JWT original, que el
// backend graph reenvía en el tier Secondary.
type Session struct {
	UserID string
	Token  string
	Expiry time.Time
}

// Verifier valida tokens firmados con un secreto compartido.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, leeway: 30 * time.Second}
}

// Verify valida firma, exp/nbf (con tolerancia) e iss si está configurado.
func (v *Verifier) Verify(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoToken
	}

	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithLeeway(v.leeway),
		jwtv5.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(v.issuer))
	}

	var claims jwtv5.RegisteredClaims
	tok, err := jwtv5.ParseWithClaims(token, &claims, func(*jwtv5.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	s := &Session{UserID: claims.Subject, Token: token}
	if claims.ExpiresAt != nil {
		s.Expiry = claims.ExpiresAt.Time
	}
	return s, nil
}

// Sign emite un token para userID; lo usan el CLI y los tests.
func (v *Verifier) Sign(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtv5.RegisteredClaims{
		Subject:   userID,
		Issuer:    v.issuer,
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(v.secret)
}

// BearerToken extrae el token de un header Authorization.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// SignInURL arma la URL de login preservando el destino original en "next".
func SignInURL(base, next string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return "/sign-in?next=" + url.QueryEscape(next)
	}
	q := u.Query()
	if next != "" {
		q.Set("next", next)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type ctxKey struct{}

// ToContext adjunta la sesión al contexto.
func ToContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext retorna la sesión o nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
