package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuthGate turns a bearer credential into a trusted identity.
type AuthGate interface {
	ResolveIdentity(credential string) (string, error)
}

// AccessClaims is the payload written by the credential issuer.
type AccessClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type authGate struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

type AuthGateOption func(*authGate)

// WithClock overrides the time source used for the expiry check.
func WithClock(now func() time.Time) AuthGateOption {
	return func(g *authGate) {
		g.now = now
	}
}

// NewAuthGate copies the secret once; the gate never changes it afterwards.
func NewAuthGate(secret string, options ...AuthGateOption) AuthGate {
	gate := &authGate{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, option := range options {
		option(gate)
	}

	gate.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(gate.now),
	)
	return gate
}

func (g *authGate) ResolveIdentity(credential string) (string, error) {
	tokenString := strings.TrimSpace(credential)
	if tokenString == "" {
		return "", ErrUnauthenticated
	}

	claims := &AccessClaims{}
	token, err := g.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if !token.Valid {
		return "", ErrInvalidCredential
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}

	return canonicalIdentity(userID)
}

// canonicalIdentity keeps one representation of an identity so that
// likes toggled from different tokens always compare equal. Two forms are
// accepted: a UUID (hyphenated, lowercase) and a Mongo ObjectId (24 hex
// digits, lowercase) as issued by existing user stores.
func canonicalIdentity(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: в токене отсутствует идентификатор пользователя", ErrInvalidCredential)
	}

	if id, err := uuid.Parse(raw); err == nil {
		return id.String(), nil
	}
	if oid, err := bson.ObjectIDFromHex(raw); err == nil {
		return oid.Hex(), nil
	}

	return "", fmt.Errorf("%w: неверный идентификатор пользователя", ErrInvalidCredential)
}
