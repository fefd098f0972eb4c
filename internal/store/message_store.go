package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/lexidrill/internal/domain"
)

// MessageStore persists chat turns with per-session gapless sequence numbers.
type MessageStore struct {
	db *DB
}

// NewMessageStore creates a message store using the given database.
func NewMessageStore(db *DB) *MessageStore {
	return &MessageStore{db: db}
}

// AppendTx inserts a message at the session's next sequence number. It must
// run inside a transaction: the UPDATE..RETURNING both allocates the seq and
// takes the write lock on the session row up front, so concurrent appenders
// to the same session serialize and the committed seq values stay gapless.
// A rollback undoes the counter advance together with the insert.
// Returns domain.ErrSessionNotFound if the session row does not exist.
func (s *MessageStore) AppendTx(tx *sql.Tx, sessionID, role, content string) (int, error) {
	var seq int
	err := tx.QueryRow(
		`UPDATE sessions SET next_seq = next_seq + 1 WHERE id = ? RETURNING next_seq - 1`,
		sessionID,
	).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("allocating seq: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO messages (session_id, seq, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, seq, role, content, time.Now().UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting message: %w", err)
	}
	return seq, nil
}

// ListBySession returns all messages of a session in seq order.
func (s *MessageStore) ListBySession(sessionID string) ([]domain.Message, error) {
	return s.queryMessages(
		`SELECT seq, role, content, created_at
		 FROM messages WHERE session_id = ? ORDER BY seq ASC`, sessionID)
}

// ListBySessionLast returns the last limit messages in chronological order.
// Useful for LLM context without loading the full history.
func (s *MessageStore) ListBySessionLast(sessionID string, limit int) ([]domain.Message, error) {
	msgs, err := s.queryMessages(
		`SELECT seq, role, content, created_at
		 FROM messages WHERE session_id = ? ORDER BY seq DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListStudentContentsLast returns the contents of the last limit student
// turns in chronological order. This is the bounded corpus the coverage
// matcher runs over.
func (s *MessageStore) ListStudentContentsLast(sessionID string, limit int) ([]string, error) {
	rows, err := s.db.sql.Query(
		`SELECT content FROM (
		    SELECT seq, content FROM messages
		    WHERE session_id = ? AND role = ?
		    ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`,
		sessionID, domain.RoleStudent, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing student contents: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scanning content: %w", err)
		}
		out = append(out, content)
	}
	return out, rows.Err()
}

// CountByRole returns how many turns with the given role a session has.
func (s *MessageStore) CountByRole(sessionID, role string) (int, error) {
	var count int
	err := s.db.sql.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE session_id = ? AND role = ?`,
		sessionID, role,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

func (s *MessageStore) queryMessages(query string, args ...any) ([]domain.Message, error) {
	rows, err := s.db.sql.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		var createdAt string
		if err := rows.Scan(&m.Seq, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
