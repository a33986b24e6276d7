package collab

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/luigipascal/blackthorn-server/internal/types"
)

// Inbound event names.
const (
	EventAuthenticate      = "authenticate"
	EventJoinRoom          = "join_room"
	EventLeaveRoom         = "leave_room"
	EventAnnotationCreated = "annotation_created"
	EventAnnotationUpdated = "annotation_updated"
	EventAnnotationDeleted = "annotation_deleted"
	EventPageChanged       = "page_changed"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
	EventChatMessage       = "chat_message"
	EventGetRoomStatus     = "get_room_status"
)

// Outbound event names.
const (
	EventAuthenticated       = "authenticated"
	EventAuthenticationError = "authentication_error"
	EventRoomJoined          = "room_joined"
	EventUserJoined          = "user_joined"
	EventUserLeft            = "user_left"
	EventUserPageChanged     = "user_page_changed"
	EventUserTyping          = "user_typing"
	EventRoomStatus          = "room_status"
	EventError               = "error"
)

// ClientEvent is the inbound wire envelope: a named event with a typed
// payload decoded per event name.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type AuthenticateData struct {
	Token string `json:"token"`
}

func (d *AuthenticateData) Validate() error {
	if d.Token == "" {
		return fmt.Errorf("token is required")
	}
	return nil
}

type JoinRoomData struct {
	RoomCode string `json:"roomCode"`
}

func (d *JoinRoomData) Validate() error {
	if d.RoomCode == "" {
		return fmt.Errorf("roomCode is required")
	}
	return nil
}

type AnnotationCreateData struct {
	PageIndex    int             `json:"pageIndex"`
	Content      string          `json:"content"`
	ContentType  string          `json:"contentType"`
	SelectedText string          `json:"selectedText,omitempty"`
	Position     json.RawMessage `json:"position,omitempty"`
	Styling      json.RawMessage `json:"styling,omitempty"`
	IsPublic     bool            `json:"isPublic,omitempty"`
}

func (d *AnnotationCreateData) Validate() error {
	if d.PageIndex < 0 {
		return fmt.Errorf("pageIndex must not be negative")
	}
	if d.Content == "" {
		return fmt.Errorf("content is required")
	}
	if d.ContentType == "" {
		return fmt.Errorf("contentType is required")
	}
	return nil
}

type AnnotationUpdateData struct {
	AnnotationId int             `json:"annotationId"`
	Content      *string         `json:"content,omitempty"`
	Position     json.RawMessage `json:"position,omitempty"`
	Styling      json.RawMessage `json:"styling,omitempty"`
}

func (d *AnnotationUpdateData) Validate() error {
	if d.AnnotationId <= 0 {
		return fmt.Errorf("annotationId is required")
	}
	return nil
}

type AnnotationDeleteData struct {
	AnnotationId int `json:"annotationId"`
}

func (d *AnnotationDeleteData) Validate() error {
	if d.AnnotationId <= 0 {
		return fmt.Errorf("annotationId is required")
	}
	return nil
}

type PageChangedData struct {
	PageIndex int   `json:"pageIndex"`
	Timestamp int64 `json:"timestamp"`
}

func (d *PageChangedData) Validate() error {
	if d.PageIndex < 0 {
		return fmt.Errorf("pageIndex must not be negative")
	}
	return nil
}

type TypingData struct {
	PageIndex    int `json:"pageIndex"`
	AnnotationId int `json:"annotationId,omitempty"`
}

func (d *TypingData) Validate() error {
	if d.PageIndex < 0 {
		return fmt.Errorf("pageIndex must not be negative")
	}
	return nil
}

type ChatMessageData struct {
	Message     string `json:"message"`
	MessageType string `json:"messageType,omitempty"`
}

func (d *ChatMessageData) Validate() error {
	if d.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}

// ServerEvent is the outbound wire envelope.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type AuthenticatedData struct {
	Success bool       `json:"success"`
	User    types.User `json:"user"`
}

type AuthenticationErrorData struct {
	Error string `json:"error"`
}

type RoomJoinedData struct {
	Room         types.Room          `json:"room"`
	Participants []types.Participant `json:"participants"`
}

type UserEventData struct {
	User types.User `json:"user"`
}

type AnnotationUpdatedData struct {
	AnnotationId int             `json:"annotationId"`
	Content      *string         `json:"content,omitempty"`
	Position     json.RawMessage `json:"position,omitempty"`
	Styling      json.RawMessage `json:"styling,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type AnnotationDeletedData struct {
	AnnotationId int `json:"annotationId"`
}

type UserPageChangedData struct {
	User      types.User `json:"user"`
	PageIndex int        `json:"pageIndex"`
	Timestamp int64      `json:"timestamp"`
}

type UserTypingData struct {
	User         types.User `json:"user"`
	PageIndex    int        `json:"pageIndex"`
	AnnotationId int        `json:"annotationId,omitempty"`
	Typing       bool       `json:"typing"`
}

type ChatMessage struct {
	Id          string     `json:"id"`
	User        types.User `json:"user"`
	Message     string     `json:"message"`
	MessageType string     `json:"messageType"`
	Timestamp   time.Time  `json:"timestamp"`
}

// LivePresence is a room_status roster entry, built from the in-memory
// registry rather than the durable participant table.
type LivePresence struct {
	UserId      int       `json:"userId"`
	Username    string    `json:"username"`
	ConnectedAt time.Time `json:"connectedAt"`
}

type RoomStatusData struct {
	Participants []LivePresence `json:"participants"`
	TotalActive  int            `json:"totalActive"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// Event-scoped error messages delivered to the originating connection.
const (
	msgAuthRequired     = "Authentication required"
	msgRoomRequired     = "Authentication and room required"
	msgRoomNotFound     = "Room not found"
	msgAccessDenied     = "Access denied to private room"
	msgPermissionDenied = "Permission denied"
	msgJoinFailed       = "Failed to join room"
	msgCreateFailed     = "Failed to create annotation"
	msgUpdateFailed     = "Failed to update annotation"
	msgDeleteFailed     = "Failed to delete annotation"
	msgChatFailed       = "Failed to send message"
)

func ErrorEvent(message string) *ServerEvent {
	return &ServerEvent{
		Event: EventError,
		Data:  ErrorData{Message: message},
	}
}

func AuthenticationErrorEvent(message string) *ServerEvent {
	return &ServerEvent{
		Event: EventAuthenticationError,
		Data:  AuthenticationErrorData{Error: message},
	}
}

func InvalidPayloadEvent(event string, err error) *ServerEvent {
	return ErrorEvent(fmt.Sprintf("Invalid %s payload: %s", event, err))
}

func UserJoinedEvent(user types.User) *ServerEvent {
	return &ServerEvent{
		Event: EventUserJoined,
		Data:  UserEventData{User: user},
	}
}

func UserLeftEvent(user types.User) *ServerEvent {
	return &ServerEvent{
		Event: EventUserLeft,
		Data:  UserEventData{User: user},
	}
}
