package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what a valid token identifies.
type Claims struct {
	UserID    string
	SessionID string
}

// TokenIssuer signs and checks HS256 tokens that wrap a server-side session.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// GenerateToken creates a token for a user's session.
func (t *TokenIssuer) GenerateToken(userID, sessionID string) (string, error) {
	// 1. Create the claims: "sub" is the user, "jti" the session.
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": sessionID,
		"exp": now.Add(t.ttl).Unix(),
		"iat": now.Unix(),
	}

	// 2. Sign it using HS256 and our secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken parses tokenString and returns its claims if the signature
// and expiry are valid.
func (t *TokenIssuer) ValidateToken(tokenString string) (*Claims, error) {
	// 1. Parse the token string.
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 2. Check the signing method.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}

	// 3. Read subject and session id.
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	sub, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" || jti == "" {
		return nil, errors.New("invalid subject or session claim")
	}
	return &Claims{UserID: sub, SessionID: jti}, nil
}
