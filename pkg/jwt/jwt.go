package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL es la vigencia fija de un token de sesión.
const TokenTTL = 7 * 24 * time.Hour

// MinSecretLength longitud mínima del secreto HMAC (256 bits de material).
const MinSecretLength = 32

var (
	ErrEmptySecret = errors.New("jwt: secret vacío")
	ErrWeakSecret  = fmt.Errorf("jwt: el secret debe tener al menos %d caracteres", MinSecretLength)
	ErrEmptyUserID = errors.New("jwt: userID vacío")
)

// Claims del token de sesión: sub = id del usuario, iat y exp estándar.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID devuelve el subject del token.
func (c *Claims) UserID() string {
	return c.Subject
}

// Signer emite y verifica tokens HS256 con un secreto del servidor.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configura un Signer.
type Option func(*Signer)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// NewSigner valida el secreto y construye el firmador. Un secreto ausente o
// corto es un error de configuración, no de petición.
func NewSigner(secret, issuer string, opts ...Option) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	s := &Signer{secret: []byte(secret), issuer: issuer, ttl: TokenTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue genera un token firmado para userID y devuelve su expiración. El jti
// aleatorio hace que dos logins en el mismo segundo produzcan tokens distintos.
func (s *Signer) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, ErrEmptyUserID
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("firmar token: %w", err)
	}
	return signed, exp, nil
}

// Verify comprueba firma, algoritmo y expiración. Cualquier fallo (malformado,
// expirado, firma incorrecta) devuelve ok=false: no es un caso excepcional.
func (s *Signer) Verify(tokenString string) (*Claims, bool) {
	if tokenString == "" {
		return nil, false
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, false
	}
	return claims, true
}
