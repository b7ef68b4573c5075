package utils

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"greencreditapi/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

type AuthToken struct {
	Uid   string `json:"uid"`
	Admin bool   `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

func CreateNewAuthToken(uid string, admin bool) *AuthToken {

	token := AuthToken{Uid: uid, Admin: admin}
	token.refreshToken()
	return &token

}

// BearerToken extracts the raw token from the Authorization header, falling
// back to the token query parameter for websocket upgrades.
func BearerToken(r *http.Request) (string, error) {

	header := r.Header.Get("Authorization")
	if header == "" {
		if q := r.URL.Query().Get("token"); q != "" {
			return q, nil
		}
		return "", errors.New("missing token")
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid token format")
	}

	return parts[1], nil

}

func ParseAuthToken(raw string) (*AuthToken, error) {

	var authToken AuthToken
	token, err := jwt.ParseWithClaims(raw, &authToken, func(token *jwt.Token) (any, error) {
		return []byte(config.ENV.JWT_SECRET), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	// error if expired
	if authToken.ExpiresAt == nil || time.Now().UTC().After(authToken.ExpiresAt.Time) {
		return nil, errors.New("token expired")
	}
	if authToken.Uid == "" {
		return nil, errors.New("token missing uid")
	}

	return &authToken, nil

}

func ValidateAuthToken(r *http.Request) (*AuthToken, error) {

	raw, err := BearerToken(r)
	if err != nil {
		return nil, err
	}

	return ParseAuthToken(raw)

}

func (authToken *AuthToken) Sign() (string, error) {

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authToken)
	key := []byte(config.ENV.JWT_SECRET)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", err
	}

	return "Bearer " + signed, nil

}

func (authToken *AuthToken) Refresh() {

	//if expiring in < 3 month refresh token
	timeTillExpire := authToken.ExpiresAt.Sub(time.Now().UTC())
	if timeTillExpire <= time.Hour*24*7*4*3 {
		authToken.refreshToken()
	}

}

func (authToken *AuthToken) refreshToken() {

	now := time.Now().UTC()
	authToken.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.AddDate(0, 6, 0)), //6 months
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    "greencreditapi",
	}

}
