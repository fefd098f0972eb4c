package domain

import "time"

// Assignment is a teacher-created vocabulary practice task. Students attach
// to it with the short join key, which is unique across assignments.
type Assignment struct {
	ID        string    `json:"id"`
	JoinKey   string    `json:"joinKey"`
	Topic     string    `json:"topic"`
	Vocab     []string  `json:"vocab"`
	Level     string    `json:"level,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
