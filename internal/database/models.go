package database

import (
	"encoding/json"
	"time"
)

type User struct {
	Id           int
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Room struct {
	Id              int
	Name            string
	Description     string
	RoomCode        string
	RoomType        string
	OwnerId         int
	MaxParticipants int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Participant struct {
	Id         int
	RoomId     int
	UserId     int
	Role       string
	Status     string
	JoinedAt   time.Time
	LastActive time.Time
}

// ParticipantUser is a roster row: a participant record joined with the
// user it belongs to.
type ParticipantUser struct {
	UserId    int
	Username  string
	FirstName string
	LastName  string
	Role      string
}

type Annotation struct {
	Id              int
	UserId          int
	PageIndex       int
	ContentType     string
	Content         string
	SelectedText    string
	Position        json.RawMessage
	Styling         json.RawMessage
	IsPublic        bool
	IsCollaborative bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	// author fields, populated by GetAnnotationWithAuthor
	Username  string
	FirstName string
	LastName  string
}

type CreateAccountParams struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
}

type CreateRoomParams struct {
	Name            string
	Description     string
	RoomCode        string
	RoomType        string
	OwnerId         int
	MaxParticipants int
}

type CreateAnnotationParams struct {
	UserId          int
	PageIndex       int
	ContentType     string
	Content         string
	SelectedText    string
	Position        json.RawMessage
	Styling         json.RawMessage
	IsPublic        bool
	IsCollaborative bool
}

// UpdateAnnotationParams carries a partial update: nil fields are left
// untouched by the query.
type UpdateAnnotationParams struct {
	Content  *string
	Position json.RawMessage
	Styling  json.RawMessage
}
