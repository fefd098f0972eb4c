package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/lexidrill/internal/domain"
)

// SessionStore persists chat sessions and their snapshots.
type SessionStore struct {
	db       *DB
	messages *MessageStore
}

// NewSessionStore creates a session store using the given database.
func NewSessionStore(db *DB, messages *MessageStore) *SessionStore {
	return &SessionStore{db: db, messages: messages}
}

// CreateFromAssignment creates a new session copying the assignment's topic,
// vocabulary and level, and returns its id. next_seq starts at 1.
func (s *SessionStore) CreateFromAssignment(a domain.Assignment) (string, error) {
	vocab, err := encodeVocab(a.Vocab)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = s.db.sql.Exec(
		`INSERT INTO sessions (id, assignment_id, join_key, topic, vocab, level, next_seq, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
		id, a.ID, a.JoinKey, a.Topic, vocab, a.Level, time.Now().UTC().Format(time.DateTime),
	)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

// GetSnapshot returns a session with its messages. messageLimit bounds the
// history to the most recent N messages (in chronological order); pass 0 for
// the full history. Returns domain.ErrSessionNotFound when the id is unknown.
func (s *SessionStore) GetSnapshot(sessionID string, messageLimit int) (*domain.Session, error) {
	var sess domain.Session
	var vocabJSON, createdAt string

	err := s.db.sql.QueryRow(
		`SELECT id, assignment_id, join_key, topic, vocab, level, created_at
		 FROM sessions WHERE id = ?`, sessionID,
	).Scan(&sess.ID, &sess.AssignmentID, &sess.JoinKey, &sess.Topic, &vocabJSON, &sess.Level, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	sess.Vocab = decodeVocab(vocabJSON)
	sess.CreatedAt, _ = time.Parse(time.DateTime, createdAt)

	if messageLimit > 0 {
		sess.Messages, err = s.messages.ListBySessionLast(sessionID, messageLimit)
	} else {
		sess.Messages, err = s.messages.ListBySession(sessionID)
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Delete removes a session; messages and idempotency rows cascade. Returns
// false when nothing was deleted.
func (s *SessionStore) Delete(sessionID string) (bool, error) {
	res, err := s.db.sql.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return false, fmt.Errorf("deleting session: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListSummaries returns recent sessions with their message counts, newest
// first.
func (s *SessionStore) ListSummaries(limit, offset int) ([]domain.SessionSummary, error) {
	rows, err := s.db.sql.Query(
		`SELECT s.id, s.assignment_id, s.join_key, s.topic, s.vocab,
		        COALESCE(COUNT(m.id), 0) AS message_count
		 FROM sessions s
		 LEFT JOIN messages m ON m.session_id = s.id
		 GROUP BY s.id
		 ORDER BY s.created_at DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionSummary
	for rows.Next() {
		var sum domain.SessionSummary
		var vocabJSON string
		if err := rows.Scan(&sum.SessionID, &sum.AssignmentID, &sum.JoinKey,
			&sum.Topic, &vocabJSON, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning session summary: %w", err)
		}
		sum.Vocab = decodeVocab(vocabJSON)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteOlderThan purges sessions created before now-ttl. Messages and
// idempotency rows cascade. Returns the number of sessions removed.
func (s *SessionStore) DeleteOlderThan(ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl).Format(time.DateTime)
	res, err := s.db.sql.Exec(`DELETE FROM sessions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
