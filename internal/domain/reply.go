package domain

// TutorReply is the canonical result of one student message: the tutor's
// text plus coverage feedback. This is also the payload stored in the
// idempotency ledger, so replayed requests return it byte for byte.
type TutorReply struct {
	TutorText    string   `json:"tutorText"`
	Hint         string   `json:"hint,omitempty"`
	VocabUsed    []string `json:"vocabUsed"`
	VocabMissing []string `json:"vocabMissing"`
}
