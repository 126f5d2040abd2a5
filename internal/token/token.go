// Package token issues and verifies the HS256 access/refresh token pair.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "typ" claim.
const (
	TipoAccess  = "access"
	TipoRefresh = "refresh"
)

// ErrInvalidToken covers bad signatures, expiry, malformed input and a
// token of the wrong type.
var ErrInvalidToken = errors.New("token inválido o expirado")

// Subject is the identity payload shared by both tokens of a pair.
type Subject struct {
	UserID        string
	NombreUsuario string
	Correo        string
	Rol           string
}

// Claims are the custom claims embedded in every token.
type Claims struct {
	UserID        string `json:"user_id"`
	NombreUsuario string `json:"nombre_usuario"`
	Correo        string `json:"correo"`
	Rol           string `json:"rol"`
	Tipo          string `json:"typ"`
	SesionID      string `json:"sid"`
	jwt.RegisteredClaims
}

func (c *Claims) Subject() Subject {
	return Subject{UserID: c.UserID, NombreUsuario: c.NombreUsuario, Correo: c.Correo, Rol: c.Rol}
}

// Pair is the result of a successful login.
type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
}

type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// Issue signs an access and a refresh token for the same subject and session.
func (i *Issuer) Issue(sub Subject, sesionID string) (Pair, error) {
	access, err := i.sign(sub, sesionID, TipoAccess, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.sign(sub, sesionID, TipoRefresh, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh, AccessTTL: i.accessTTL}, nil
}

// Parse verifies signature, expiry and the expected token type.
func (i *Issuer) Parse(raw, tipo string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Tipo != tipo || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh verifies a refresh token and signs a new access token with the
// same subject and session.
func (i *Issuer) Refresh(raw string) (string, *Claims, error) {
	claims, err := i.Parse(raw, TipoRefresh)
	if err != nil {
		return "", nil, err
	}
	access, err := i.sign(claims.Subject(), claims.SesionID, TipoAccess, i.accessTTL)
	if err != nil {
		return "", nil, err
	}
	return access, claims, nil
}

func (i *Issuer) sign(sub Subject, sesionID, tipo string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:        sub.UserID,
		NombreUsuario: sub.NombreUsuario,
		Correo:        sub.Correo,
		Rol:           sub.Rol,
		Tipo:          tipo,
		SesionID:      sesionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}
