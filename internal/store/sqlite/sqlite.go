package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/devconnect/devconnect-server/internal/chat"
	"github.com/devconnect/devconnect-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	age           INTEGER,
	gender        TEXT,
	photo_url     TEXT NOT NULL DEFAULT '',
	about         TEXT NOT NULL DEFAULT '',
	skills        TEXT NOT NULL DEFAULT '[]',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS connection_requests (
	id           TEXT PRIMARY KEY,
	from_user_id TEXT NOT NULL REFERENCES users(id),
	to_user_id   TEXT NOT NULL REFERENCES users(id),
	status       TEXT NOT NULL CHECK (status IN ('interested','ignored','accepted','rejected')),
	pair_key     TEXT NOT NULL UNIQUE,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_requests_to ON connection_requests(to_user_id, status);
CREATE INDEX IF NOT EXISTS idx_requests_from ON connection_requests(from_user_id, status);

CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	pair_key   TEXT NOT NULL UNIQUE,
	user_lo    TEXT NOT NULL REFERENCES users(id),
	user_hi    TEXT NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	sender_id       TEXT NOT NULL REFERENCES users(id),
	body            TEXT NOT NULL,
	status          TEXT NOT NULL CHECK (status IN ('sent','seen')),
	created_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single connection: SQLite works best this way, and it doubles as the
	// per-conversation serialization point for concurrent appends.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser persists a new user.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *store.User) (*store.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	skills, err := json.Marshal(user.Skills)
	if err != nil {
		return nil, fmt.Errorf("encode skills: %w", err)
	}

	query := `
		INSERT INTO users (id, first_name, last_name, email, password_hash, age, gender, photo_url, about, skills)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash,
		user.Age, user.Gender, user.PhotoURL, user.About, string(skills),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("email %s taken: %w", user.Email, store.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.GetUserByID(ctx, user.ID)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*store.User, error) {
	query := `
		SELECT id, first_name, last_name, email, password_hash, age, gender, photo_url, about, skills, created_at
		FROM users
		WHERE ` + where

	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// GetUsersByIDs retrieves users for a set of ids, keyed by id.
func (s *SQLiteStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*store.User, error) {
	users := make(map[string]*store.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `
		SELECT id, first_name, last_name, email, password_hash, age, gender, photo_url, about, skills, created_at
		FROM users
		WHERE id IN (` + placeholders + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users[user.ID] = user
	}

	return users, rows.Err()
}

// UpdateUserProfile overwrites the editable profile fields.
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, user *store.User) error {
	skills, err := json.Marshal(user.Skills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}

	query := `
		UPDATE users
		SET first_name = ?, last_name = ?, age = ?, gender = ?, photo_url = ?, about = ?, skills = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		user.FirstName, user.LastName, user.Age, user.Gender,
		user.PhotoURL, user.About, string(skills), user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", user.ID, store.ErrNotFound)
	}
	return nil
}

// ListFeedCandidates pages users excluding the given ids.
func (s *SQLiteStore) ListFeedCandidates(ctx context.Context, exclude []string, limit, offset int) ([]*store.User, error) {
	query := `
		SELECT id, first_name, last_name, email, password_hash, age, gender, photo_url, about, skills, created_at
		FROM users
	`
	var args []any
	if len(exclude) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(exclude)), ",")
		query += " WHERE id NOT IN (" + placeholders + ")"
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	query += " ORDER BY created_at, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*store.User, error) {
	var (
		user   store.User
		age    sql.NullInt64
		gender sql.NullString
		skills string
	)
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&age,
		&gender,
		&user.PhotoURL,
		&user.About,
		&skills,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if age.Valid {
		v := int(age.Int64)
		user.Age = &v
	}
	if gender.Valid {
		user.Gender = &gender.String
	}
	if err := json.Unmarshal([]byte(skills), &user.Skills); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}

	return &user, nil
}

// ==== RequestStore implementation ====

// CreateRequest creates a directed request between two users.
func (s *SQLiteStore) CreateRequest(ctx context.Context, fromID, toID string, status store.RequestStatus) (*store.ConnectionRequest, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO connection_requests (id, from_user_id, to_user_id, status, pair_key)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, id, fromID, toID, status, chat.PairKey(fromID, toID))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("request between %s and %s exists: %w", fromID, toID, store.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert request: %w", err)
	}

	return s.getRequest(ctx, "id = ?", id)
}

// GetRequestBetween retrieves the request linking two users in either direction.
func (s *SQLiteStore) GetRequestBetween(ctx context.Context, userA, userB string) (*store.ConnectionRequest, error) {
	return s.getRequest(ctx, "pair_key = ?", chat.PairKey(userA, userB))
}

func (s *SQLiteStore) getRequest(ctx context.Context, where string, arg any) (*store.ConnectionRequest, error) {
	query := `
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM connection_requests
		WHERE ` + where

	var req store.ConnectionRequest
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&req.ID,
		&req.FromUserID,
		&req.ToUserID,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("connection request: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query request: %w", err)
	}
	return &req, nil
}

// UpdateRequestStatus transitions a request to a new status.
func (s *SQLiteStore) UpdateRequestStatus(ctx context.Context, id string, status store.RequestStatus) error {
	query := `
		UPDATE connection_requests
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("connection request %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ListReceived lists requests addressed to a user with the given status.
func (s *SQLiteStore) ListReceived(ctx context.Context, toID string, status store.RequestStatus) ([]*store.ConnectionRequest, error) {
	query := `
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM connection_requests
		WHERE to_user_id = ? AND status = ?
		ORDER BY created_at DESC
	`
	return s.listRequests(ctx, query, toID, status)
}

// ListConnections lists accepted requests touching a user in either direction.
func (s *SQLiteStore) ListConnections(ctx context.Context, userID string) ([]*store.ConnectionRequest, error) {
	query := `
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM connection_requests
		WHERE (from_user_id = ? OR to_user_id = ?) AND status = 'accepted'
		ORDER BY updated_at DESC
	`
	return s.listRequests(ctx, query, userID, userID)
}

func (s *SQLiteStore) listRequests(ctx context.Context, query string, args ...any) ([]*store.ConnectionRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var requests []*store.ConnectionRequest
	for rows.Next() {
		var req store.ConnectionRequest
		if err := rows.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, &req)
	}

	return requests, rows.Err()
}

// ListRequestPeers lists ids of every user sharing a request edge with userID.
func (s *SQLiteStore) ListRequestPeers(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT from_user_id, to_user_id
		FROM connection_requests
		WHERE from_user_id = ? OR to_user_id = ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query request peers: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var peers []string
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("scan request peers: %w", err)
		}
		for _, id := range []string{from, to} {
			if id == userID {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			peers = append(peers, id)
		}
	}

	return peers, rows.Err()
}

// ==== ChatStore implementation ====

// FindOrCreateConversation returns the conversation for an unordered pair,
// creating it atomically if absent.
func (s *SQLiteStore) FindOrCreateConversation(ctx context.Context, userA, userB string) (*store.Conversation, error) {
	pairKey := chat.PairKey(userA, userB)
	lo, hi := userA, userB
	if hi < lo {
		lo, hi = hi, lo
	}

	// INSERT OR IGNORE against the unique pair key makes find-or-create a
	// single atomic statement; two racing callers cannot both insert.
	query := `
		INSERT OR IGNORE INTO conversations (id, pair_key, user_lo, user_hi)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), pairKey, lo, hi); err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	return s.FindConversation(ctx, userA, userB)
}

// FindConversation returns the conversation for a pair or store.ErrNotFound.
func (s *SQLiteStore) FindConversation(ctx context.Context, userA, userB string) (*store.Conversation, error) {
	query := `
		SELECT id, user_lo, user_hi, created_at
		FROM conversations
		WHERE pair_key = ?
	`
	var conv store.Conversation
	err := s.db.QueryRowContext(ctx, query, chat.PairKey(userA, userB)).Scan(
		&conv.ID,
		&conv.Participants[0],
		&conv.Participants[1],
		&conv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	return &conv, nil
}

func (s *SQLiteStore) getConversationByID(ctx context.Context, id string) (*store.Conversation, error) {
	query := `
		SELECT id, user_lo, user_hi, created_at
		FROM conversations
		WHERE id = ?
	`
	var conv store.Conversation
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&conv.ID,
		&conv.Participants[0],
		&conv.Participants[1],
		&conv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	return &conv, nil
}

// ListMessages returns a conversation's messages in append order.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]*store.Message, error) {
	query := `
		SELECT seq, id, conversation_id, sender_id, body, status, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.Seq, &msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Body, &msg.Status, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// AppendMessage validates and appends a message with status "sent".
func (s *SQLiteStore) AppendMessage(ctx context.Context, conversationID, senderID, body string) (*store.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("empty message body: %w", store.ErrValidation)
	}

	conv, err := s.getConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, fmt.Errorf("sender %s is not a participant: %w", senderID, store.ErrValidation)
	}

	msg := &store.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		Status:         store.MessageStatusSent,
		CreatedAt:      time.Now().UTC(),
	}

	query := `
		INSERT INTO messages (id, conversation_id, sender_id, body, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.ID, msg.ConversationID, msg.SenderID, msg.Body, msg.Status, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	msg.Seq, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return msg, nil
}

// MarkSeen transitions every "sent" message not authored by reader to "seen".
func (s *SQLiteStore) MarkSeen(ctx context.Context, conversationID, reader string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id
		FROM messages
		WHERE conversation_id = ? AND sender_id != ? AND status = 'sent'
		ORDER BY seq
	`, conversationID, reader)
	if err != nil {
		return nil, fmt.Errorf("query unseen: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan unseen: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Nothing to flip: skip the write entirely so callers can skip the broadcast.
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE messages
		SET status = 'seen'
		WHERE conversation_id = ? AND sender_id != ? AND status = 'sent'
	`, conversationID, reader)
	if err != nil {
		return nil, fmt.Errorf("mark seen: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}
