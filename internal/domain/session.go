// Package domain holds the core types shared across the service.
package domain

import "time"

// Message roles. Every persisted turn is one of these.
const (
	RoleTutor   = "tutor"
	RoleStudent = "student"
)

// Session is one student's ongoing chat tied to one assignment join.
// Sessions are immutable except for appended messages and the next_seq
// counter that backs sequence allocation.
type Session struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignmentId"`
	JoinKey      string    `json:"joinKey"`
	Topic        string    `json:"topic"`
	Vocab        []string  `json:"vocab"`
	Level        string    `json:"level,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Messages     []Message `json:"messages,omitempty"`
}

// Message is a single turn in a session. Seq is unique and gapless within
// the owning session; messages are never updated or reordered once written.
type Message struct {
	Seq       int       `json:"seq"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionSummary is a teacher-facing listing row.
type SessionSummary struct {
	SessionID    string   `json:"sessionId"`
	AssignmentID string   `json:"assignmentId"`
	JoinKey      string   `json:"joinKey"`
	Topic        string   `json:"topic"`
	Vocab        []string `json:"vocab"`
	MessageCount int      `json:"messageCount"`
}
