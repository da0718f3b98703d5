package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	claimUserID = "user_id"
	claimEmail  = "email"
)

// Identity is who an access token speaks for.
type Identity struct {
	UserID bson.ObjectID
	Email  string
}

var errBadClaims = errors.New("token claims incomplete")

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch strings.ToUpper(alg) {
	case "HS256":
		return jwt.SigningMethodHS256, nil
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q", alg)
	}
}

func issueToken(id Identity, now time.Time, ttl time.Duration, alg, secret string) (string, error) {
	method, err := signingMethod(alg)
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		claimUserID: id.UserID.Hex(),
		claimEmail:  id.Email,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
}

// IdentityFromClaims reads the user id and email out of verified claims.
func IdentityFromClaims(claims jwt.MapClaims) (Identity, error) {
	rawID, _ := claims[claimUserID].(string)
	email, _ := claims[claimEmail].(string)
	if rawID == "" || email == "" {
		return Identity{}, errBadClaims
	}
	uid, err := bson.ObjectIDFromHex(rawID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: user_id: %v", errBadClaims, err)
	}
	return Identity{UserID: uid, Email: email}, nil
}

// VerifyToken checks the HS256 signature and expiry of raw and returns its
// identity.
func VerifyToken(raw, secret string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errBadClaims
	}
	return IdentityFromClaims(claims)
}
