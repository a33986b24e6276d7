package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/luigipascal/blackthorn-server/internal/database"
	"github.com/luigipascal/blackthorn-server/internal/types"
)

const sessionTokenTTL = 24 * time.Hour

// pq error code for unique_violation
const pqUniqueViolation = "23505"

type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

type CreateRoomRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	RoomType        string `json:"roomType"`
	MaxParticipants int    `json:"maxParticipants"`
}

func (s *BlackthornApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *BlackthornApp) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newUser, err := s.db.CreateAccount(database.CreateAccountParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwdHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		var pqErr *pq.Error
		var errResp *ApiError
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			errResp = NewConflictError("email or username already taken")
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.authenticator.IssueToken(newUser.Id, sessionTokenTTL)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, AuthResponse{
		Token: token,
		User: types.User{
			Id:        newUser.Id,
			Username:  newUser.Username,
			FirstName: newUser.FirstName,
			LastName:  newUser.LastName,
			Role:      newUser.Role,
		},
	})
}

func (s *BlackthornApp) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByEmail(req.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewUnauthorizedError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !dbUser.IsActive || !verifyPassword(dbUser.PasswordHash, req.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.authenticator.IssueToken(dbUser.Id, sessionTokenTTL)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, AuthResponse{
		Token: token,
		User: types.User{
			Id:        dbUser.Id,
			Username:  dbUser.Username,
			FirstName: dbUser.FirstName,
			LastName:  dbUser.LastName,
			Role:      dbUser.Role,
		},
	})
}

func (s *BlackthornApp) me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, user)
}

func (s *BlackthornApp) createRoom(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	roomType := req.RoomType
	if roomType == "" {
		roomType = "private"
	}
	maxParticipants := req.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = 10
	}

	code, err := s.roomCodes.Generate()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.CreateRoom(database.CreateRoomParams{
		Name:            req.Name,
		Description:     req.Description,
		RoomCode:        strings.ToUpper(code),
		RoomType:        roomType,
		OwnerId:         user.Id,
		MaxParticipants: maxParticipants,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.AddParticipant(room.Id, user.Id, "owner"); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Room{
		Id:          room.Id,
		Name:        room.Name,
		Description: room.Description,
		RoomCode:    room.RoomCode,
		RoomType:    room.RoomType,
	})
}

func (s *BlackthornApp) listRooms(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRooms, err := s.db.ListRoomsByOwner(user.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rooms := make([]types.Room, len(dbRooms))
	for i, room := range dbRooms {
		rooms[i] = types.Room{
			Id:          room.Id,
			Name:        room.Name,
			Description: room.Description,
			RoomCode:    room.RoomCode,
			RoomType:    room.RoomType,
		}
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *BlackthornApp) getRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.db.GetActiveRoomByCode(strings.ToUpper(r.PathValue("code")))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.Room{
		Id:          room.Id,
		Name:        room.Name,
		Description: room.Description,
		RoomCode:    room.RoomCode,
		RoomType:    room.RoomType,
	})
}

func (s *BlackthornApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := s.cs.NewClient(conn)
	go client.Write()
	go client.Read()
}

func hashPassword(passwd string) (string, error) {
	passwdHash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	return string(passwdHash), err
}

func verifyPassword(passwdHash, passwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(passwd))
	return err == nil
}
