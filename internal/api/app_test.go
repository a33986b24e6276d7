package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luigipascal/blackthorn-server/internal/database"
)

type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialWs(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "failed to dial %s", url)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readWsEvent(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env wsEnvelope
	require.NoError(t, conn.ReadJSON(&env), "timed out waiting for an event")
	return env
}

func sendWsEvent(t *testing.T, conn *websocket.Conn, event, data string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"`+event+`","data":`+data+`}`)))
}

func TestServeWs(t *testing.T) {
	margaret := database.User{Id: 1, Username: "margaret", FirstName: "Margaret", LastName: "Blackthorn", IsActive: true}
	jonathan := database.User{Id: 2, Username: "jonathan", FirstName: "Jonathan", LastName: "Reed", IsActive: true}
	room := database.Room{Id: 5, Name: "Study", RoomCode: "ABC123", RoomType: "public", IsActive: true}

	db := &database.MockManorRepository{}
	db.On("GetAccountById", 1).Return(margaret, nil)
	db.On("GetAccountById", 2).Return(jonathan, nil)
	db.On("GetActiveRoomByCode", "ABC123").Return(room, nil)
	db.On("GetActiveParticipant", 5, 1).Return(database.Participant{}, sql.ErrNoRows)
	db.On("GetActiveParticipant", 5, 2).Return(database.Participant{}, sql.ErrNoRows)
	db.On("ListActiveParticipants", 5).Return([]database.ParticipantUser{
		{UserId: 1, Username: "margaret", Role: "owner"},
	}, nil)

	app, mux := newTestApp(t, db)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	tokenA, err := app.authenticator.IssueToken(1, time.Minute)
	require.NoError(t, err)
	tokenB, err := app.authenticator.IssueToken(2, time.Minute)
	require.NoError(t, err)

	connA := dialWs(t, ts)
	connB := dialWs(t, ts)

	// first connection authenticates and joins
	sendWsEvent(t, connA, "authenticate", `{"token":"`+tokenA+`"}`)
	env := readWsEvent(t, connA)
	require.Equal(t, "authenticated", env.Event)

	sendWsEvent(t, connA, "join_room", `{"roomCode":"ABC123"}`)
	env = readWsEvent(t, connA)
	require.Equal(t, "room_joined", env.Event)

	// second connection follows; the first is notified of the arrival
	sendWsEvent(t, connB, "authenticate", `{"token":"`+tokenB+`"}`)
	env = readWsEvent(t, connB)
	require.Equal(t, "authenticated", env.Event)

	sendWsEvent(t, connB, "join_room", `{"roomCode":"ABC123"}`)
	env = readWsEvent(t, connB)
	require.Equal(t, "room_joined", env.Event)

	env = readWsEvent(t, connA)
	require.Equal(t, "user_joined", env.Event)

	var joined struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &joined))
	assert.Equal(t, "jonathan", joined.User.Username)

	// chat is delivered to both, the sender included
	sendWsEvent(t, connB, "chat_message", `{"message":"hello"}`)
	for _, conn := range []*websocket.Conn{connA, connB} {
		env = readWsEvent(t, conn)
		require.Equal(t, "chat_message", env.Event)

		var msg struct {
			Id      string `json:"id"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &msg))
		assert.Equal(t, "hello", msg.Message)
		assert.NotEmpty(t, msg.Id)
	}

	// closing the second connection produces a departure notice
	connB.Close()
	env = readWsEvent(t, connA)
	require.Equal(t, "user_left", env.Event)
}

func TestServeWs_badToken(t *testing.T) {
	db := &database.MockManorRepository{}
	_, mux := newTestApp(t, db)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	conn := dialWs(t, ts)

	sendWsEvent(t, conn, "authenticate", `{"token":"garbage"}`)

	env := readWsEvent(t, conn)
	assert.Equal(t, "authentication_error", env.Event)

	// the server closes the connection after delivering the error
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "expected the connection to be closed")
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected a normal closure, got %v", err)
}

func TestRecoverHandler(t *testing.T) {
	db := &database.MockManorRepository{}
	app, _ := newTestApp(t, db)

	h := app.recoverHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "close", w.Result().Header.Get("Connection"))
}
