package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/lexidrill/internal/domain"
)

// pendingJSON marks a claimed key whose reply is not computed yet. Detection
// goes through json_extract rather than raw string comparison so a re-encoded
// row still counts as pending.
const pendingJSON = `{"status":"pending"}`

// DefaultPendingTTL is how long a pending claim blocks resubmission. A claim
// older than this belongs to a request that crashed between claim and
// completion, and may be taken over.
const DefaultPendingTTL = 2 * time.Minute

// IdempotencyStore is the claim/complete ledger keyed by
// (session id, client-supplied key).
//
// Lifecycle: absent -> pending -> completed. A key is claimed inside the same
// transaction as the student-message append and completed inside the same
// transaction as the tutor-message append, so a crash in between leaves a
// pending row and no half-written conversation state.
type IdempotencyStore struct {
	db         *DB
	pendingTTL time.Duration
}

// NewIdempotencyStore creates a ledger with the default pending TTL.
func NewIdempotencyStore(db *DB) *IdempotencyStore {
	return &IdempotencyStore{db: db, pendingTTL: DefaultPendingTTL}
}

// Get returns the completed reply for the key, or nil when the key is
// absent or still pending. Stale pending rows (older than the pending TTL)
// also read as nil; ClaimTx applies the same staleness rule, so a client
// retrying after the TTL can actually reclaim the key.
func (s *IdempotencyStore) Get(sessionID, key string) (*domain.TutorReply, error) {
	var raw, createdAt string
	err := s.db.sql.QueryRow(
		`SELECT response, created_at FROM idempotency
		 WHERE session_id = ? AND idem_key = ?`,
		sessionID, key,
	).Scan(&raw, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading idempotency row: %w", err)
	}

	if isPending(raw) {
		return nil, nil
	}

	var reply domain.TutorReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("decoding idempotency response: %w", err)
	}
	return &reply, nil
}

// ClaimTx attempts to claim the key inside the given transaction. Returns
// true only when this call performed the claim: either the key was absent,
// or its pending row went stale and is taken over in place. A fresh pending
// row or a completed row leaves the claim with its current owner.
func (s *IdempotencyStore) ClaimTx(tx *sql.Tx, sessionID, key string) (bool, error) {
	now := time.Now().UTC()
	staleCutoff := now.Add(-s.pendingTTL).Format(time.DateTime)

	res, err := tx.Exec(
		`INSERT INTO idempotency (session_id, idem_key, response, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, idem_key) DO UPDATE
		 SET response = excluded.response, created_at = excluded.created_at
		 WHERE json_extract(idempotency.response, '$.status') = 'pending'
		   AND idempotency.created_at < ?`,
		sessionID, key, pendingJSON, now.Format(time.DateTime), staleCutoff,
	)
	if err != nil {
		return false, fmt.Errorf("claiming idempotency key: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// CompleteTx overwrites the pending marker with the final reply inside the
// given transaction.
func (s *IdempotencyStore) CompleteTx(tx *sql.Tx, sessionID, key string, reply domain.TutorReply) error {
	raw, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("encoding idempotency response: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE idempotency SET response = ? WHERE session_id = ? AND idem_key = ?`,
		string(raw), sessionID, key,
	)
	if err != nil {
		return fmt.Errorf("completing idempotency key: %w", err)
	}
	return nil
}

// DeleteOlderThan purges ledger rows created before now-ttl and returns the
// number removed. Runs from the maintenance path, never per request.
func (s *IdempotencyStore) DeleteOlderThan(ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl).Format(time.DateTime)
	res, err := s.db.sql.Exec(`DELETE FROM idempotency WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging idempotency rows: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func isPending(raw string) bool {
	var probe struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return false
	}
	return probe.Status == "pending"
}
