package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"identity-service/internal/user"
)

// Session is the claim set carried by an issued token: the subject and
// email identifying exactly one directory user at issuance time.
type Session struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Issuer signs time-bound session tokens. The secret and expiry policy
// are fixed at construction; there is no hidden global key state.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("session: signing secret missing")
	}
	if ttl <= 0 {
		return nil, errors.New("session: token ttl must be positive")
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// Issue signs a token for the resolved user. The claim set is exactly
// {sub, email} plus the issued-at and expiry timestamps; nothing else
// about the account leaks into the token.
func (i *Issuer) Issue(u *user.User) (string, time.Time, error) {
	if u == nil || u.ID == "" || u.Email == "" {
		return "", time.Time{}, errors.New("session: user missing id or email")
	}

	now := time.Now()
	expiresAt := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse validates a previously issued token: signature, algorithm, and
// expiry. Used by the request middleware, not by the login flows.
func (i *Issuer) Parse(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("session: parse: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("session: invalid claims")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" || email == "" {
		return nil, errors.New("session: token missing subject or email")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("session: token missing expiry")
	}

	return &Session{
		UserID:    sub,
		Email:     email,
		ExpiresAt: exp.Time,
	}, nil
}
