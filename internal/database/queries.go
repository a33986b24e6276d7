package database

import (
	"database/sql"
	"fmt"
	"time"
)

func (db *PgManorRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (username, email, password_hash, first_name, last_name, role, is_active, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, 'reader', TRUE, $6) "+
			"RETURNING id, username, email, first_name, last_name, role",
		params.Username,
		params.Email,
		params.PasswordHash,
		params.FirstName,
		params.LastName,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Role,
	)

	return u, err
}

func (db *PgManorRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, first_name, last_name, role, is_active FROM users "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.IsActive,
	)

	return u, err
}

func (db *PgManorRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, first_name, last_name, role, is_active FROM users "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.IsActive,
	)

	return u, err
}

func (db *PgManorRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	res := db.conn.QueryRow(
		"INSERT INTO collaboration_rooms (name, description, room_code, room_type, owner_id, max_participants, is_active, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7) "+
			"RETURNING id, name, description, room_code, room_type, owner_id, max_participants, is_active",
		params.Name,
		params.Description,
		params.RoomCode,
		params.RoomType,
		params.OwnerId,
		params.MaxParticipants,
		time.Now().UTC(),
	)

	var r Room
	err := res.Scan(
		&r.Id,
		&r.Name,
		&r.Description,
		&r.RoomCode,
		&r.RoomType,
		&r.OwnerId,
		&r.MaxParticipants,
		&r.IsActive,
	)

	return r, err
}

func (db *PgManorRepository) ListRoomsByOwner(ownerId int) ([]Room, error) {
	rows, err := db.conn.Query(
		"SELECT id, name, description, room_code, room_type, owner_id, max_participants, is_active FROM collaboration_rooms "+
			"WHERE owner_id = $1 ORDER BY created_at DESC",
		ownerId,
	)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(
			&r.Id,
			&r.Name,
			&r.Description,
			&r.RoomCode,
			&r.RoomType,
			&r.OwnerId,
			&r.MaxParticipants,
			&r.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}

func (db *PgManorRepository) GetActiveRoomByCode(roomCode string) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, description, room_code, room_type, owner_id, max_participants, is_active FROM collaboration_rooms "+
			"WHERE room_code = $1 AND is_active = TRUE LIMIT 1",
		roomCode,
	)

	var r Room
	err := row.Scan(
		&r.Id,
		&r.Name,
		&r.Description,
		&r.RoomCode,
		&r.RoomType,
		&r.OwnerId,
		&r.MaxParticipants,
		&r.IsActive,
	)

	return r, err
}

func (db *PgManorRepository) AddParticipant(roomId, userId int, role string) (Participant, error) {
	res := db.conn.QueryRow(
		"INSERT INTO room_participants (room_id, user_id, role, status, joined_at, last_active) "+
			"VALUES ($1, $2, $3, 'active', $4, $4) "+
			"RETURNING id, room_id, user_id, role, status",
		roomId,
		userId,
		role,
		time.Now().UTC(),
	)

	var p Participant
	err := res.Scan(
		&p.Id,
		&p.RoomId,
		&p.UserId,
		&p.Role,
		&p.Status,
	)

	return p, err
}

func (db *PgManorRepository) GetActiveParticipant(roomId, userId int) (Participant, error) {
	row := db.conn.QueryRow(
		"SELECT id, room_id, user_id, role, status, joined_at, last_active FROM room_participants "+
			"WHERE room_id = $1 AND user_id = $2 AND status = 'active' LIMIT 1",
		roomId,
		userId,
	)

	var p Participant
	err := row.Scan(
		&p.Id,
		&p.RoomId,
		&p.UserId,
		&p.Role,
		&p.Status,
		&p.JoinedAt,
		&p.LastActive,
	)

	return p, err
}

func (db *PgManorRepository) TouchParticipantLastActive(participantId int) error {
	_, err := db.conn.Exec(
		"UPDATE room_participants SET last_active = $2, updated_at = $2 WHERE id = $1",
		participantId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgManorRepository) ListActiveParticipants(roomId int) ([]ParticipantUser, error) {
	rows, err := db.conn.Query(
		"SELECT u.id, u.username, u.first_name, u.last_name, rp.role "+
			"FROM room_participants rp "+
			"JOIN users u ON rp.user_id = u.id "+
			"WHERE rp.room_id = $1 AND rp.status = 'active'",
		roomId,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []ParticipantUser
	for rows.Next() {
		var p ParticipantUser
		if err := rows.Scan(
			&p.UserId,
			&p.Username,
			&p.FirstName,
			&p.LastName,
			&p.Role,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

func (db *PgManorRepository) CreateAnnotation(params CreateAnnotationParams) (int, error) {
	res := db.conn.QueryRow(
		"INSERT INTO annotations (user_id, page_index, content_type, content, selected_text, position, styling, is_public, is_collaborative, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10) "+
			"RETURNING id",
		params.UserId,
		params.PageIndex,
		params.ContentType,
		params.Content,
		nullString(params.SelectedText),
		nullJson(params.Position),
		nullJson(params.Styling),
		params.IsPublic,
		params.IsCollaborative,
		time.Now().UTC(),
	)

	var id int
	err := res.Scan(&id)

	return id, err
}

func (db *PgManorRepository) GetAnnotation(annotationId int) (Annotation, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, page_index, content_type, content, COALESCE(selected_text, ''), position, styling, is_public, is_collaborative, created_at, updated_at "+
			"FROM annotations WHERE id = $1 LIMIT 1",
		annotationId,
	)

	var a Annotation
	err := row.Scan(
		&a.Id,
		&a.UserId,
		&a.PageIndex,
		&a.ContentType,
		&a.Content,
		&a.SelectedText,
		&a.Position,
		&a.Styling,
		&a.IsPublic,
		&a.IsCollaborative,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (db *PgManorRepository) GetAnnotationWithAuthor(annotationId int) (Annotation, error) {
	row := db.conn.QueryRow(
		"SELECT a.id, a.user_id, a.page_index, a.content_type, a.content, COALESCE(a.selected_text, ''), a.position, a.styling, a.is_public, a.is_collaborative, a.created_at, a.updated_at, "+
			"u.username, u.first_name, u.last_name "+
			"FROM annotations a "+
			"JOIN users u ON a.user_id = u.id "+
			"WHERE a.id = $1 LIMIT 1",
		annotationId,
	)

	var a Annotation
	err := row.Scan(
		&a.Id,
		&a.UserId,
		&a.PageIndex,
		&a.ContentType,
		&a.Content,
		&a.SelectedText,
		&a.Position,
		&a.Styling,
		&a.IsPublic,
		&a.IsCollaborative,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.Username,
		&a.FirstName,
		&a.LastName,
	)

	return a, err
}

func (db *PgManorRepository) UpdateAnnotation(annotationId int, params UpdateAnnotationParams) error {
	_, err := db.conn.Exec(
		"UPDATE annotations SET "+
			"content = COALESCE($2, content), "+
			"position = COALESCE($3, position), "+
			"styling = COALESCE($4, styling), "+
			"updated_at = $5 "+
			"WHERE id = $1",
		annotationId,
		nullStringPtr(params.Content),
		nullJson(params.Position),
		nullJson(params.Styling),
		time.Now().UTC(),
	)

	return err
}

func (db *PgManorRepository) DeleteAnnotation(annotationId int) error {
	_, err := db.conn.Exec("DELETE FROM annotations WHERE id = $1", annotationId)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullJson(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
