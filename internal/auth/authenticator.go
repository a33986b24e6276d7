package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/luigipascal/blackthorn-server/internal/database"
	"github.com/luigipascal/blackthorn-server/internal/types"
)

// ErrAuthenticationFailed is returned for any credential that cannot be
// resolved to an active user: malformed, expired, bad signature, unknown
// user or a deactivated account. Callers are not told which.
var ErrAuthenticationFailed = errors.New("authentication failed")

const (
	userIdClaim = "user-id"
	expClaim    = "exp"
)

// SessionAuthenticator verifies bearer tokens and resolves them to user
// identities. It holds no mutable state and is safe for concurrent use.
type SessionAuthenticator struct {
	signingKey []byte
	db         database.ManorRepository
}

func NewSessionAuthenticator(signingKey []byte, db database.ManorRepository) *SessionAuthenticator {
	return &SessionAuthenticator{
		signingKey: signingKey,
		db:         db,
	}
}

func (a *SessionAuthenticator) Authenticate(tokenString string) (types.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil || !token.Valid {
		return types.User{}, ErrAuthenticationFailed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return types.User{}, ErrAuthenticationFailed
	}

	userId, ok := claims[userIdClaim].(float64)
	if !ok {
		return types.User{}, ErrAuthenticationFailed
	}

	user, err := a.db.GetAccountById(int(userId))
	if err != nil || !user.IsActive {
		return types.User{}, ErrAuthenticationFailed
	}

	return types.User{
		Id:        user.Id,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}, nil
}

// IssueToken mints a signed session token for the given user id.
func (a *SessionAuthenticator) IssueToken(userId int, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		userIdClaim: userId,
		expClaim:    time.Now().Add(ttl).Unix(),
	})

	return token.SignedString(a.signingKey)
}
