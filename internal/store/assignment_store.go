package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/lexidrill/internal/domain"
)

// AssignmentStore persists teacher-created assignments.
type AssignmentStore struct {
	db *DB
}

// NewAssignmentStore creates an assignment store using the given database.
func NewAssignmentStore(db *DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

// Insert stores a new assignment. The join_key unique index is the source of
// truth for key uniqueness; callers should retry with a fresh key when
// IsUniqueViolation(err) is true.
func (s *AssignmentStore) Insert(a domain.Assignment) error {
	vocab, err := encodeVocab(a.Vocab)
	if err != nil {
		return err
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.sql.Exec(
		`INSERT INTO assignments (id, join_key, topic, vocab, level, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.JoinKey, a.Topic, vocab, a.Level, createdAt.Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting assignment: %w", err)
	}
	return nil
}

// GetByID returns an assignment by id, or domain.ErrAssignmentNotFound.
func (s *AssignmentStore) GetByID(id string) (*domain.Assignment, error) {
	return s.getWhere("id = ?", id, domain.ErrAssignmentNotFound)
}

// GetByJoinKey returns an assignment by join key, or domain.ErrInvalidJoinKey.
func (s *AssignmentStore) GetByJoinKey(joinKey string) (*domain.Assignment, error) {
	return s.getWhere("join_key = ?", joinKey, domain.ErrInvalidJoinKey)
}

func (s *AssignmentStore) getWhere(cond string, arg any, notFound error) (*domain.Assignment, error) {
	var a domain.Assignment
	var vocabJSON, createdAt string

	err := s.db.sql.QueryRow(
		`SELECT id, join_key, topic, vocab, level, created_at
		 FROM assignments WHERE `+cond, arg,
	).Scan(&a.ID, &a.JoinKey, &a.Topic, &vocabJSON, &a.Level, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading assignment: %w", err)
	}

	a.Vocab = decodeVocab(vocabJSON)
	a.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	return &a, nil
}

// NewAssignmentID returns a fresh assignment id.
func NewAssignmentID() string {
	return uuid.New().String()
}

// encodeVocab serializes the vocabulary list to the JSON text column.
func encodeVocab(vocab []string) (string, error) {
	if vocab == nil {
		vocab = []string{}
	}
	data, err := json.Marshal(vocab)
	if err != nil {
		return "", fmt.Errorf("encoding vocab: %w", err)
	}
	return string(data), nil
}

// decodeVocab parses the JSON text column; malformed data degrades to an
// empty list rather than failing reads.
func decodeVocab(raw string) []string {
	var vocab []string
	if err := json.Unmarshal([]byte(raw), &vocab); err != nil {
		return []string{}
	}
	if vocab == nil {
		return []string{}
	}
	return vocab
}
