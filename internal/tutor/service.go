// Package tutor implements the use cases of the vocabulary tutor: joining
// an assignment, the student/tutor message exchange, and teacher-side
// management of assignments and sessions.
package tutor

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/lexidrill/internal/domain"
	"github.com/soyeahso/lexidrill/internal/llm"
	"github.com/soyeahso/lexidrill/internal/logging"
	"github.com/soyeahso/lexidrill/internal/ratelimit"
	"github.com/soyeahso/lexidrill/internal/store"
	"github.com/soyeahso/lexidrill/internal/vocab"
)

// Request quotas, all per minute.
const (
	messageRateLimit    = 60
	openRateLimit       = 30
	assignmentRateLimit = 10
	rateWindow          = time.Minute
)

// llmContextLimit bounds the message history handed to the model.
// coverageStudentLimit bounds the student corpus the coverage matcher scans.
const (
	llmContextLimit      = 60
	coverageStudentLimit = 80
)

// joinKeyInsertRetries is how many fresh keys CreateAssignment tries before
// giving up on unique-index collisions.
const joinKeyInsertRetries = 10

// Retention defaults for the maintenance pass.
const (
	DefaultIdempotencyTTL = 7 * 24 * time.Hour
	DefaultSessionTTL     = 30 * 24 * time.Hour
)

// Service wires the stores, the rate limiter and the LLM client into the
// tutor use cases.
type Service struct {
	db          *store.DB
	assignments *store.AssignmentStore
	sessions    *store.SessionStore
	messages    *store.MessageStore
	idem        *store.IdempotencyStore
	limiter     *ratelimit.Limiter
	llm         llm.Client
	teacherTok  string
	log         *logging.Logger
}

// NewService creates the use-case service. teacherToken guards assignment
// creation; an empty token disables that endpoint.
func NewService(
	db *store.DB,
	assignments *store.AssignmentStore,
	sessions *store.SessionStore,
	messages *store.MessageStore,
	idem *store.IdempotencyStore,
	limiter *ratelimit.Limiter,
	client llm.Client,
	teacherToken string,
	log *logging.Logger,
) *Service {
	return &Service{
		db:          db,
		assignments: assignments,
		sessions:    sessions,
		messages:    messages,
		idem:        idem,
		limiter:     limiter,
		llm:         client,
		teacherTok:  teacherToken,
		log:         log.Sub("tutor"),
	}
}

// PostStudentMessage ingests one student turn and produces the tutor's reply.
//
// Ordering is load-bearing: the student append and the idempotency claim
// commit together before the model is called, the model runs outside any
// transaction, and the tutor append commits together with the ledger
// completion. A crash mid-flight leaves a pending claim and a lone student
// turn, never a half-pair plus a completed ledger row.
func (s *Service) PostStudentMessage(ctx context.Context, ip, sessionID, studentText, idemKey string) (*domain.TutorReply, error) {
	key := fmt.Sprintf("v1.sessions.messages.ip=%s.session=%s", ip, sessionID)
	if !s.limiter.AllowNow(key, messageRateLimit, rateWindow) {
		return nil, domain.ErrRateLimited
	}

	studentText = strings.TrimSpace(studentText)
	if studentText == "" {
		return nil, fmt.Errorf("%w: text must not be blank", domain.ErrValidation)
	}

	// Cheap existence check before doing any writes.
	snapshot, err := s.sessions.GetSnapshot(sessionID, llmContextLimit)
	if err != nil {
		return nil, err
	}

	idemKey = strings.TrimSpace(idemKey)

	// Fast path: this key already produced a reply.
	if idemKey != "" {
		cached, err := s.idem.Get(sessionID, idemKey)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return cached, nil
		}
	}

	// Claim the key and persist the student turn in one transaction, so a
	// losing racer never leaves a duplicate student message behind.
	if idemKey != "" {
		claimed := false
		err = s.db.InTx(ctx, func(tx *sql.Tx) error {
			ok, err := s.idem.ClaimTx(tx, sessionID, idemKey)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			claimed = true
			_, err = s.messages.AppendTx(tx, sessionID, domain.RoleStudent, studentText)
			return err
		})
		if err != nil {
			return nil, err
		}

		if !claimed {
			cached, err := s.idem.Get(sessionID, idemKey)
			if err != nil {
				return nil, err
			}
			if cached != nil {
				return cached, nil
			}
			return nil, domain.ErrConflictInProgress
		}
	} else {
		err = s.db.InTx(ctx, func(tx *sql.Tx) error {
			_, err := s.messages.AppendTx(tx, sessionID, domain.RoleStudent, studentText)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	// The model context must include the turn just written.
	if fresh, err := s.sessions.GetSnapshot(sessionID, llmContextLimit); err == nil {
		snapshot = fresh
	}

	// Coverage runs over the persisted corpus, not just this message, so a
	// word used ten turns ago still counts as used.
	corpus, err := s.messages.ListStudentContentsLast(sessionID, coverageStudentLimit)
	if err != nil {
		return nil, err
	}
	used, missing := vocab.Coverage(strings.Join(corpus, "\n"), snapshot.Vocab)

	studentTurns, err := s.messages.CountByRole(sessionID, domain.RoleStudent)
	if err != nil {
		return nil, err
	}

	tutorText, err := s.llm.TutorReply(ctx, snapshot, studentText, used, missing)
	if err != nil {
		// The claim stays pending; the client retries with the same key
		// once the pending TTL lapses.
		return nil, err
	}

	var hint string
	if len(missing) > 0 && studentTurns >= 2 {
		hint = vocab.PickHint(missing)
	}

	reply := domain.TutorReply{
		TutorText:    tutorText,
		Hint:         hint,
		VocabUsed:    used,
		VocabMissing: missing,
	}

	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.messages.AppendTx(tx, sessionID, domain.RoleTutor, reply.TutorText); err != nil {
			return err
		}
		if idemKey != "" {
			return s.idem.CompleteTx(tx, sessionID, idemKey, reply)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("session_id", sessionID).
		Int("student_turns", studentTurns).
		Int("vocab_used", len(used)).
		Int("vocab_missing", len(missing)).
		Bool("hint", hint != "").
		Msg("student message processed")

	return &reply, nil
}

// OpenSession joins an assignment by key and starts a session with a tutor
// opener.
func (s *Service) OpenSession(ctx context.Context, ip, joinKey string) (*domain.Session, error) {
	key := fmt.Sprintf("v1.sessions.open.ip=%s", ip)
	if !s.limiter.AllowNow(key, openRateLimit, rateWindow) {
		return nil, domain.ErrRateLimited
	}

	joinKey = strings.ToUpper(strings.TrimSpace(joinKey))
	if joinKey == "" {
		return nil, fmt.Errorf("%w: joinKey must not be blank", domain.ErrValidation)
	}

	a, err := s.assignments.GetByJoinKey(joinKey)
	if err != nil {
		return nil, err
	}

	sessionID, err := s.sessions.CreateFromAssignment(*a)
	if err != nil {
		return nil, err
	}

	opener, err := s.llm.GenerateOpener(ctx, a.Topic, a.Vocab, a.Level)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("opener generation failed, using fallback")
		opener = ""
	}
	if strings.TrimSpace(opener) == "" {
		opener = llm.FallbackOpener
	}

	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := s.messages.AppendTx(tx, sessionID, domain.RoleTutor, opener)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("session_id", sessionID).Str("assignment_id", a.ID).Msg("session opened")
	return s.sessions.GetSnapshot(sessionID, 0)
}

// CreateAssignment stores a teacher's assignment under a fresh join key.
func (s *Service) CreateAssignment(ctx context.Context, bearerToken, ip, topic string, vocabList []string, level string) (*domain.Assignment, error) {
	key := fmt.Sprintf("v1.assignments.create.ip=%s", ip)
	if !s.limiter.AllowNow(key, assignmentRateLimit, rateWindow) {
		return nil, domain.ErrRateLimited
	}

	if !s.teacherAllowed(bearerToken) {
		return nil, domain.ErrUnauthorized
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic must not be blank", domain.ErrValidation)
	}

	cleaned := make([]string, 0, len(vocabList))
	for _, w := range vocabList {
		if w = strings.TrimSpace(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: vocab must not be empty", domain.ErrValidation)
	}

	a := domain.Assignment{
		ID:        store.NewAssignmentID(),
		Topic:     topic,
		Vocab:     cleaned,
		Level:     strings.TrimSpace(level),
		CreatedAt: time.Now().UTC(),
	}

	// The unique index on join_key is the arbiter; collisions just mean
	// another roll of the key.
	for attempt := 0; attempt < joinKeyInsertRetries; attempt++ {
		a.JoinKey = vocab.NewJoinKey(vocab.JoinKeyLength)
		err := s.assignments.Insert(a)
		if err == nil {
			s.log.Info().Str("assignment_id", a.ID).Str("join_key", a.JoinKey).Msg("assignment created")
			return &a, nil
		}
		if !store.IsUniqueViolation(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("could not generate a unique join key after %d attempts", joinKeyInsertRetries)
}

func (s *Service) teacherAllowed(token string) bool {
	if s.teacherTok == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.teacherTok)) == 1
}

// GetAssignment returns an assignment by id.
func (s *Service) GetAssignment(ctx context.Context, id string) (*domain.Assignment, error) {
	return s.assignments.GetByID(id)
}

// GetSession returns a session with its full history.
func (s *Service) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return s.sessions.GetSnapshot(id, 0)
}

// ListSessions returns recent session summaries, newest first.
func (s *Service) ListSessions(ctx context.Context, limit, offset int) ([]domain.SessionSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.sessions.ListSummaries(limit, offset)
}

// DeleteSession removes a session and everything hanging off it.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	ok, err := s.sessions.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.log.Info().Str("session_id", id).Msg("session deleted")
	return nil
}

// PingLLM reports provider health. Never returns an error.
func (s *Service) PingLLM(ctx context.Context) llm.PingResult {
	return s.llm.Ping(ctx)
}

// CleanupResult reports what one maintenance pass removed.
type CleanupResult struct {
	IdempotencyRows int `json:"idempotencyRows"`
	Sessions        int `json:"sessions"`
	RateBuckets     int `json:"rateBuckets"`
}

// Cleanup purges expired idempotency rows and stale sessions, and prunes
// idle rate-limit buckets. Zero TTLs fall back to the defaults.
func (s *Service) Cleanup(ctx context.Context, idemTTL, sessionTTL time.Duration) (CleanupResult, error) {
	if idemTTL <= 0 {
		idemTTL = DefaultIdempotencyTTL
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}

	var res CleanupResult
	var err error

	if res.IdempotencyRows, err = s.idem.DeleteOlderThan(idemTTL); err != nil {
		return res, err
	}
	if res.Sessions, err = s.sessions.DeleteOlderThan(sessionTTL); err != nil {
		return res, err
	}
	res.RateBuckets = s.limiter.Prune(rateWindow, time.Now())

	s.log.Info().
		Int("idempotency_rows", res.IdempotencyRows).
		Int("sessions", res.Sessions).
		Int("rate_buckets", res.RateBuckets).
		Msg("cleanup pass finished")
	return res, nil
}

// RunCleanupLoop runs Cleanup on a fixed interval until ctx is cancelled.
func (s *Service) RunCleanupLoop(ctx context.Context, interval, idemTTL, sessionTTL time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(ctx, idemTTL, sessionTTL); err != nil {
				s.log.Error().Err(err).Msg("cleanup pass failed")
			}
		}
	}
}
