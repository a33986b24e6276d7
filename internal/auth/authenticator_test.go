package auth

import (
	"database/sql"
	"testing"
	"time"

	"github.com/luigipascal/blackthorn-server/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testSigningKey = []byte("test-signing-key")

func TestAuthenticate(t *testing.T) {
	t.Run("valid token and active user", func(t *testing.T) {
		db := &database.MockManorRepository{}
		defer db.AssertExpectations(t)
		db.On("GetAccountById", 7).Return(database.User{
			Id:        7,
			Username:  "mbl",
			FirstName: "Margaret",
			LastName:  "Blackthorn",
			Role:      "reader",
			IsActive:  true,
		}, nil)

		a := NewSessionAuthenticator(testSigningKey, db)
		token, err := a.IssueToken(7, time.Minute)
		assert.NoError(t, err, "expected token to be issued")

		user, err := a.Authenticate(token)
		assert.NoError(t, err, "expected authentication to succeed")
		assert.Equal(t, 7, user.Id, "expected resolved user id to match")
		assert.Equal(t, "mbl", user.Username, "expected resolved username to match")
		assert.Equal(t, "reader", user.Role, "expected resolved role to match")
	})

	t.Run("malformed token", func(t *testing.T) {
		db := &database.MockManorRepository{}
		a := NewSessionAuthenticator(testSigningKey, db)

		_, err := a.Authenticate("not-a-token")
		assert.ErrorIs(t, err, ErrAuthenticationFailed, "expected authentication to fail")
		db.AssertNotCalled(t, "GetAccountById", mock.Anything)
	})

	t.Run("expired token", func(t *testing.T) {
		db := &database.MockManorRepository{}
		a := NewSessionAuthenticator(testSigningKey, db)

		token, err := a.IssueToken(7, -time.Minute)
		assert.NoError(t, err, "expected token to be issued")

		_, err = a.Authenticate(token)
		assert.ErrorIs(t, err, ErrAuthenticationFailed, "expected expired token to be rejected")
		db.AssertNotCalled(t, "GetAccountById", mock.Anything)
	})

	t.Run("token signed with different key", func(t *testing.T) {
		db := &database.MockManorRepository{}
		other := NewSessionAuthenticator([]byte("other-key"), db)
		token, err := other.IssueToken(7, time.Minute)
		assert.NoError(t, err, "expected token to be issued")

		a := NewSessionAuthenticator(testSigningKey, db)
		_, err = a.Authenticate(token)
		assert.ErrorIs(t, err, ErrAuthenticationFailed, "expected bad signature to be rejected")
	})

	t.Run("inactive user", func(t *testing.T) {
		db := &database.MockManorRepository{}
		defer db.AssertExpectations(t)
		db.On("GetAccountById", 7).Return(database.User{Id: 7, IsActive: false}, nil)

		a := NewSessionAuthenticator(testSigningKey, db)
		token, err := a.IssueToken(7, time.Minute)
		assert.NoError(t, err, "expected token to be issued")

		_, err = a.Authenticate(token)
		assert.ErrorIs(t, err, ErrAuthenticationFailed, "expected inactive user to be rejected")
	})

	t.Run("unknown user", func(t *testing.T) {
		db := &database.MockManorRepository{}
		defer db.AssertExpectations(t)
		db.On("GetAccountById", 7).Return(database.User{}, sql.ErrNoRows)

		a := NewSessionAuthenticator(testSigningKey, db)
		token, err := a.IssueToken(7, time.Minute)
		assert.NoError(t, err, "expected token to be issued")

		_, err = a.Authenticate(token)
		assert.ErrorIs(t, err, ErrAuthenticationFailed, "expected unknown user to be rejected")
	})
}
