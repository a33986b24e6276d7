package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadValidation(t *testing.T) {
	tt := []struct {
		name    string
		payload validatable
		wantErr bool
	}{
		{"authenticate ok", &AuthenticateData{Token: "t"}, false},
		{"authenticate empty token", &AuthenticateData{}, true},
		{"join ok", &JoinRoomData{RoomCode: "ABC123"}, false},
		{"join empty code", &JoinRoomData{}, true},
		{"create ok", &AnnotationCreateData{PageIndex: 0, Content: "x", ContentType: "note"}, false},
		{"create negative page", &AnnotationCreateData{PageIndex: -1, Content: "x", ContentType: "note"}, true},
		{"create empty content", &AnnotationCreateData{PageIndex: 1, ContentType: "note"}, true},
		{"create empty content type", &AnnotationCreateData{PageIndex: 1, Content: "x"}, true},
		{"update ok", &AnnotationUpdateData{AnnotationId: 1}, false},
		{"update missing id", &AnnotationUpdateData{}, true},
		{"delete missing id", &AnnotationDeleteData{}, true},
		{"page ok", &PageChangedData{PageIndex: 0}, false},
		{"page negative", &PageChangedData{PageIndex: -1}, true},
		{"typing negative page", &TypingData{PageIndex: -1}, true},
		{"chat ok", &ChatMessageData{Message: "hi"}, false},
		{"chat empty message", &ChatMessageData{}, true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServerEventEncoding(t *testing.T) {
	raw, err := json.Marshal(ErrorEvent("Room not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"error","data":{"message":"Room not found"}}`, string(raw))

	raw, err = json.Marshal(AuthenticationErrorEvent("Authentication failed"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"authentication_error","data":{"error":"Authentication failed"}}`, string(raw))
}

func TestClientEventDecoding(t *testing.T) {
	var ev ClientEvent
	require.NoError(t, json.Unmarshal([]byte(`{"event":"join_room","data":{"roomCode":"ABC123"}}`), &ev))
	assert.Equal(t, EventJoinRoom, ev.Event)

	var data JoinRoomData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, "ABC123", data.RoomCode)
}
