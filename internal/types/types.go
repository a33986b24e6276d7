package types

import (
	"encoding/json"
	"time"
)

type User struct {
	Id        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty"`
}

type Room struct {
	Id          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	RoomCode    string `json:"roomCode"`
	RoomType    string `json:"roomType"`
}

// Participant is an entry in a room's durable roster, joined with the
// user record it belongs to.
type Participant struct {
	Id        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type Annotation struct {
	Id              int             `json:"id"`
	PageIndex       int             `json:"pageIndex"`
	ContentType     string          `json:"contentType"`
	Content         string          `json:"content"`
	SelectedText    string          `json:"selectedText,omitempty"`
	Position        json.RawMessage `json:"position,omitempty"`
	Styling         json.RawMessage `json:"styling,omitempty"`
	IsPublic        bool            `json:"isPublic"`
	IsCollaborative bool            `json:"isCollaborative"`
	CreatedAt       time.Time       `json:"createdAt"`
	User            User            `json:"user"`
}
