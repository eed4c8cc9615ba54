package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenLifetime = 5 * time.Minute
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the caller carried by a token. The engine trusts it as given.
type Identity struct {
	UserID string
	OrgID  string
	Role   organization.Role
}

type Service interface {
	GenerateAccessToken(identity Identity) (token string, expiresAt int64, err error)
	GenerateSSEToken(identity Identity) (token string, expiresIn int, err error)
	ValidateSSEToken(ctx context.Context, tokenString string) (Identity, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// NewJWTService parses the access token lifetime, e.g. "1h".
func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	expDuration, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, err
	}
	return &JWTService{
		accessTokenExpirationTime: expDuration,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                       time.Now,
	}, nil
}

func (j *JWTService) GenerateAccessToken(identity Identity) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpirationTime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": identity.UserID,
		"org_id":  identity.OrgID,
		"role":    string(identity.Role),
		"type":    TokenTypeAccess,
		"exp":     expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for the punch stream, which
// is opened with the token in the query string.
func (j *JWTService) GenerateSSEToken(identity Identity) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(sseTokenLifetime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": identity.UserID,
		"org_id":  identity.OrgID,
		"role":    string(identity.Role),
		"type":    TokenTypeSSE,
		"exp":     expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(sseTokenLifetime.Seconds()), nil
}

// ValidateSSEToken validates an SSE token and returns its identity.
func (j *JWTService) ValidateSSEToken(ctx context.Context, tokenString string) (Identity, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	claims, err := token.AsMap(ctx)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	if claims["type"] != TokenTypeSSE {
		return Identity{}, ErrInvalidToken
	}
	return IdentityFromClaims(claims)
}

// IdentityFromClaims reads user_id, org_id and role from decoded claims.
func IdentityFromClaims(claims map[string]interface{}) (Identity, error) {
	userID, _ := claims["user_id"].(string)
	orgID, _ := claims["org_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || orgID == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: userID, OrgID: orgID, Role: organization.Role(role)}, nil
}
