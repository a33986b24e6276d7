package collab

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/luigipascal/blackthorn-server/internal/database"
	"github.com/luigipascal/blackthorn-server/internal/types"
)

type validatable interface {
	Validate() error
}

func (s *CollabServer) decodeEvent(c *Client, ev *ClientEvent, data validatable) bool {
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, data); err != nil {
			c.queueEvent(InvalidPayloadEvent(ev.Event, err))
			return false
		}
	}

	if err := data.Validate(); err != nil {
		c.queueEvent(InvalidPayloadEvent(ev.Event, err))
		return false
	}

	return true
}

// routeEvent checks each inbound event against its preconditions and
// dispatches to the matching handler. It runs on the client's read pump,
// so events from one connection are handled strictly in order.
func (s *CollabServer) routeEvent(c *Client, ev *ClientEvent) {
	s.stats.Incr(StatEventsRouted)

	if ev.Event == EventAuthenticate {
		var data AuthenticateData
		if !s.decodeEvent(c, ev, &data) {
			return
		}
		s.handleAuthenticate(c, &data)
		return
	}

	sess, err := s.registry.Lookup(c.id)
	if err != nil {
		c.queueEvent(ErrorEvent(msgAuthRequired))
		return
	}

	switch ev.Event {
	case EventJoinRoom:
		var data JoinRoomData
		if !s.decodeEvent(c, ev, &data) {
			return
		}
		s.handleJoinRoom(c, sess, &data)
		return
	case EventLeaveRoom:
		s.handleLeaveRoom(c, sess)
		return
	case EventGetRoomStatus:
		s.handleRoomStatus(c)
		return
	}

	// every remaining event requires live room membership
	roomId, ok := s.directory.RoomOf(c.id)
	if !ok {
		c.queueEvent(ErrorEvent(msgRoomRequired))
		return
	}

	switch ev.Event {
	case EventAnnotationCreated:
		var data AnnotationCreateData
		if !s.decodeEvent(c, ev, &data) {
			return
		}
		s.handleAnnotationCreated(c, sess, roomId, &data)
	case EventAnnotationUpdated:
		var data AnnotationUpdateData
		if !s.decodeEvent(c, ev, &data) {
			return
		}
		s.handleAnnotationUpdated(c, sess, roomId, &data)
	case EventAnnotationDeleted:
		var data AnnotationDeleteData
		if !s.decodeEvent(c, ev, &data) {
			return
		}
		s.handleAnnotationDeleted(c, sess, roomId, &data)
	case EventPageChanged:
		var data PageChangedData
		if !s.decodeEvent(c, ev, &data) {
			return
		}
		s.handlePageChanged(c, sess, roomId, &data)
	case EventTypingStart:
		var data TypingData
		if !s.decodeEvent(c, ev, &data) {
			return
		}
		s.handleTyping(c, sess, roomId, &data, true)
	case EventTypingStop:
		var data TypingData
		if !s.decodeEvent(c, ev, &data) {
			return
		}
		s.handleTyping(c, sess, roomId, &data, false)
	case EventChatMessage:
		var data ChatMessageData
		if !s.decodeEvent(c, ev, &data) {
			return
		}
		s.handleChatMessage(c, sess, roomId, &data)
	default:
		c.queueEvent(ErrorEvent("Unknown event: " + ev.Event))
	}
}

func (s *CollabServer) handleAuthenticate(c *Client, data *AuthenticateData) {
	user, err := s.authenticator.Authenticate(data.Token)
	if err != nil {
		c.queueEvent(AuthenticationErrorEvent("Authentication failed"))
		// terminate the connection once the error is on the wire
		c.close()
		return
	}

	if err := s.registry.Register(c.id, user); err != nil {
		c.queueEvent(ErrorEvent("Already authenticated"))
		return
	}

	c.queueEvent(&ServerEvent{
		Event: EventAuthenticated,
		Data:  AuthenticatedData{Success: true, User: user},
	})

	s.log.Printf("user %q authenticated on conn %s", user.Username, c.id)
}

func (s *CollabServer) handleJoinRoom(c *Client, sess Session, data *JoinRoomData) {
	room, err := s.db.GetActiveRoomByCode(data.RoomCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.queueEvent(ErrorEvent(msgRoomNotFound))
		} else {
			s.log.Printf("GetActiveRoomByCode: %v", err)
			c.queueEvent(ErrorEvent(msgJoinFailed))
		}
		return
	}

	var participant *database.Participant
	p, err := s.db.GetActiveParticipant(room.Id, sess.User.Id)
	switch {
	case err == nil:
		participant = &p
	case !errors.Is(err, sql.ErrNoRows):
		s.log.Printf("GetActiveParticipant: %v", err)
		c.queueEvent(ErrorEvent(msgJoinFailed))
		return
	}

	if room.RoomType == "private" && participant == nil {
		c.queueEvent(ErrorEvent(msgAccessDenied))
		return
	}

	// durable roster is the source of truth for names and roles; read it
	// before touching any live state so a storage failure leaves the
	// registry and directory unchanged
	roster, err := s.db.ListActiveParticipants(room.Id)
	if err != nil {
		s.log.Printf("ListActiveParticipants: %v", err)
		c.queueEvent(ErrorEvent(msgJoinFailed))
		return
	}

	created, prunedPrev := s.directory.Join(room.Id, c.id)
	if created {
		s.stats.Incr(StatActiveRooms)
	}
	if prunedPrev {
		s.stats.Decr(StatActiveRooms)
	}
	s.registry.SetRoom(c.id, room.Id)

	if participant != nil {
		if err := s.db.TouchParticipantLastActive(participant.Id); err != nil {
			s.log.Printf("TouchParticipantLastActive %d: %v", participant.Id, err)
			s.stats.Incr(StatParticipantTouchFailures)
		}
	}

	participants := make([]types.Participant, len(roster))
	for i, rp := range roster {
		participants[i] = types.Participant{
			Id:        rp.UserId,
			Username:  rp.Username,
			FirstName: rp.FirstName,
			LastName:  rp.LastName,
			Role:      rp.Role,
		}
	}

	c.queueEvent(&ServerEvent{
		Event: EventRoomJoined,
		Data: RoomJoinedData{
			Room:         wireRoom(room),
			Participants: participants,
		},
	})

	s.Broadcast(room.Id, UserJoinedEvent(types.User{
		Id:        sess.User.Id,
		Username:  sess.User.Username,
		FirstName: sess.User.FirstName,
		LastName:  sess.User.LastName,
	}), c.id)

	s.log.Printf("user %q joined room %q", sess.User.Username, room.RoomCode)
}

// handleLeaveRoom is a no-op when the connection is not in a room.
func (s *CollabServer) handleLeaveRoom(c *Client, sess Session) {
	roomId, ok := s.directory.RoomOf(c.id)
	if !ok {
		return
	}

	if pruned := s.directory.Leave(roomId, c.id); pruned {
		s.stats.Decr(StatActiveRooms)
	}
	s.registry.SetRoom(c.id, 0)

	s.Broadcast(roomId, UserLeftEvent(minimalUser(sess.User)), c.id)
}

func (s *CollabServer) handleAnnotationCreated(c *Client, sess Session, roomId int, data *AnnotationCreateData) {
	id, err := s.db.CreateAnnotation(database.CreateAnnotationParams{
		UserId:          sess.User.Id,
		PageIndex:       data.PageIndex,
		ContentType:     data.ContentType,
		Content:         data.Content,
		SelectedText:    data.SelectedText,
		Position:        data.Position,
		Styling:         data.Styling,
		IsPublic:        data.IsPublic,
		IsCollaborative: true,
	})
	if err != nil {
		s.log.Printf("CreateAnnotation: %v", err)
		c.queueEvent(ErrorEvent(msgCreateFailed))
		return
	}

	ann, err := s.db.GetAnnotationWithAuthor(id)
	if err != nil {
		s.log.Printf("GetAnnotationWithAuthor %d: %v", id, err)
		c.queueEvent(ErrorEvent(msgCreateFailed))
		return
	}

	// creation is echoed to the whole room, sender included, so every
	// client renders from the same authoritative record with its
	// server-assigned id
	s.Broadcast(roomId, &ServerEvent{
		Event: EventAnnotationCreated,
		Data: types.Annotation{
			Id:              ann.Id,
			PageIndex:       ann.PageIndex,
			ContentType:     ann.ContentType,
			Content:         ann.Content,
			SelectedText:    ann.SelectedText,
			Position:        ann.Position,
			Styling:         ann.Styling,
			IsPublic:        ann.IsPublic,
			IsCollaborative: ann.IsCollaborative,
			CreatedAt:       ann.CreatedAt,
			User: types.User{
				Id:        ann.UserId,
				Username:  ann.Username,
				FirstName: ann.FirstName,
				LastName:  ann.LastName,
			},
		},
	}, "")

	s.log.Printf("annotation %d created by %q in room %d", ann.Id, sess.User.Username, roomId)
}

// authorizeAnnotation loads the annotation and verifies the caller is its
// author or holds an elevated role. A missing record is reported the same
// as a denied one.
func (s *CollabServer) authorizeAnnotation(c *Client, sess Session, annotationId int, failMsg string) (database.Annotation, bool) {
	ann, err := s.db.GetAnnotation(annotationId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.queueEvent(ErrorEvent(msgPermissionDenied))
		} else {
			s.log.Printf("GetAnnotation %d: %v", annotationId, err)
			c.queueEvent(ErrorEvent(failMsg))
		}
		return database.Annotation{}, false
	}

	if ann.UserId != sess.User.Id && sess.User.Role != "admin" {
		c.queueEvent(ErrorEvent(msgPermissionDenied))
		return database.Annotation{}, false
	}

	return ann, true
}

func (s *CollabServer) handleAnnotationUpdated(c *Client, sess Session, roomId int, data *AnnotationUpdateData) {
	if _, ok := s.authorizeAnnotation(c, sess, data.AnnotationId, msgUpdateFailed); !ok {
		return
	}

	if err := s.db.UpdateAnnotation(data.AnnotationId, database.UpdateAnnotationParams{
		Content:  data.Content,
		Position: data.Position,
		Styling:  data.Styling,
	}); err != nil {
		s.log.Printf("UpdateAnnotation %d: %v", data.AnnotationId, err)
		c.queueEvent(ErrorEvent(msgUpdateFailed))
		return
	}

	// the sender already applied the change optimistically, so updates
	// are broadcast to everyone else only
	s.Broadcast(roomId, &ServerEvent{
		Event: EventAnnotationUpdated,
		Data: AnnotationUpdatedData{
			AnnotationId: data.AnnotationId,
			Content:      data.Content,
			Position:     data.Position,
			Styling:      data.Styling,
			UpdatedAt:    time.Now().UTC(),
		},
	}, c.id)
}

func (s *CollabServer) handleAnnotationDeleted(c *Client, sess Session, roomId int, data *AnnotationDeleteData) {
	if _, ok := s.authorizeAnnotation(c, sess, data.AnnotationId, msgDeleteFailed); !ok {
		return
	}

	if err := s.db.DeleteAnnotation(data.AnnotationId); err != nil {
		s.log.Printf("DeleteAnnotation %d: %v", data.AnnotationId, err)
		c.queueEvent(ErrorEvent(msgDeleteFailed))
		return
	}

	s.Broadcast(roomId, &ServerEvent{
		Event: EventAnnotationDeleted,
		Data:  AnnotationDeletedData{AnnotationId: data.AnnotationId},
	}, c.id)
}

func (s *CollabServer) handlePageChanged(c *Client, sess Session, roomId int, data *PageChangedData) {
	s.Broadcast(roomId, &ServerEvent{
		Event: EventUserPageChanged,
		Data: UserPageChangedData{
			User:      minimalUser(sess.User),
			PageIndex: data.PageIndex,
			Timestamp: data.Timestamp,
		},
	}, c.id)
}

func (s *CollabServer) handleTyping(c *Client, sess Session, roomId int, data *TypingData, typing bool) {
	s.Broadcast(roomId, &ServerEvent{
		Event: EventUserTyping,
		Data: UserTypingData{
			User:         minimalUser(sess.User),
			PageIndex:    data.PageIndex,
			AnnotationId: data.AnnotationId,
			Typing:       typing,
		},
	}, c.id)
}

func (s *CollabServer) handleChatMessage(c *Client, sess Session, roomId int, data *ChatMessageData) {
	messageType := data.MessageType
	if messageType == "" {
		messageType = "text"
	}

	// chat is never persisted; the id only needs to be unique among
	// concurrently delivered messages
	msg := ChatMessage{
		Id:          s.nextId(),
		User:        sess.User,
		Message:     data.Message,
		MessageType: messageType,
		Timestamp:   time.Now().UTC(),
	}

	// sender included, so their own message lands in the same order
	// everyone else sees
	s.Broadcast(roomId, &ServerEvent{Event: EventChatMessage, Data: msg}, "")
}

// handleRoomStatus answers from the in-memory registry and directory
// only; the durable participant table is not consulted.
func (s *CollabServer) handleRoomStatus(c *Client) {
	roomId, ok := s.directory.RoomOf(c.id)
	if !ok {
		c.queueEvent(&ServerEvent{
			Event: EventRoomStatus,
			Data:  RoomStatusData{Participants: []LivePresence{}},
		})
		return
	}

	members := s.directory.MembersOf(roomId)
	participants := make([]LivePresence, 0, len(members))
	for _, connId := range members {
		sess, err := s.registry.Lookup(connId)
		if err != nil {
			continue
		}
		participants = append(participants, LivePresence{
			UserId:      sess.User.Id,
			Username:    sess.User.Username,
			ConnectedAt: sess.ConnectedAt,
		})
	}

	c.queueEvent(&ServerEvent{
		Event: EventRoomStatus,
		Data: RoomStatusData{
			Participants: participants,
			TotalActive:  len(participants),
		},
	})
}

// handleDisconnect runs exactly once per connection, from the read
// pump's teardown. The identity snapshot is taken before any state is
// removed so the departure notice carries the last known identity.
func (s *CollabServer) handleDisconnect(c *Client) {
	sess, authErr := s.registry.Lookup(c.id)

	roomId, inRoom := s.directory.RoomOf(c.id)
	if inRoom {
		if pruned := s.directory.Leave(roomId, c.id); pruned {
			s.stats.Decr(StatActiveRooms)
		}
	}
	s.registry.Remove(c.id)
	s.removeClient(c.id)
	s.stats.Decr(StatActiveConnections)

	if inRoom && authErr == nil {
		s.Broadcast(roomId, UserLeftEvent(minimalUser(sess.User)), c.id)
	}
}

func wireRoom(room database.Room) types.Room {
	return types.Room{
		Id:          room.Id,
		Name:        room.Name,
		Description: room.Description,
		RoomCode:    room.RoomCode,
		RoomType:    room.RoomType,
	}
}

// minimalUser trims the identity to what presence-style notices carry.
func minimalUser(u types.User) types.User {
	return types.User{Id: u.Id, Username: u.Username}
}
