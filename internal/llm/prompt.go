package llm

import (
	"strings"

	"github.com/soyeahso/lexidrill/internal/domain"
)

// historyWindow bounds how many recent turns go into the tutor prompt.
const historyWindow = 10

func openerPrompt(topic string, vocab []string, level string) string {
	var b strings.Builder
	b.WriteString("You are a friendly English tutor starting a dialogue with a student.\n")
	b.WriteString("The teacher provided the topic and target vocabulary, but do not force vocabulary immediately.\n\n")
	b.WriteString("Topic: " + topic + "\n")
	b.WriteString("Target vocabulary: " + strings.Join(vocab, ", ") + "\n")
	if level != "" {
		b.WriteString("Student level: " + level + "\n")
	}
	b.WriteString("\nRules:\n")
	b.WriteString("- Write ONLY the tutor's opening line.\n")
	b.WriteString("- 1 short sentence + 1 simple question is ideal.\n")
	b.WriteString("- Do NOT ask for long explanations yet.\n")
	b.WriteString("- Do NOT mention the vocabulary list.\n\n")
	b.WriteString("Now generate the opening line.\n")
	return b.String()
}

func tutorPrompt(session *domain.Session, studentText string, missing []string) string {
	msgs := session.Messages
	if len(msgs) > historyWindow {
		msgs = msgs[len(msgs)-historyWindow:]
	}
	var history strings.Builder
	for _, m := range msgs {
		history.WriteString(strings.ToUpper(m.Role) + ": " + m.Content + "\n")
	}

	var b strings.Builder
	b.WriteString("You are a friendly English tutor having a dialogue with a student.\n")
	b.WriteString("Your job is to guide the student to naturally use the target vocabulary over multiple turns.\n\n")
	b.WriteString("Topic: " + session.Topic + "\n")
	b.WriteString("Target vocabulary: " + strings.Join(session.Vocab, ", ") + "\n")
	b.WriteString("Missing (not used yet in this session): " + strings.Join(missing, ", ") + "\n\n")
	b.WriteString("Dialogue rules:\n")
	b.WriteString("- Reply as TUTOR only, 1-2 sentences.\n")
	b.WriteString("- Prefer a follow-up question to keep the dialogue going.\n")
	b.WriteString("- Be encouraging. Do not over-correct grammar.\n\n")
	b.WriteString("Nudging strategy:\n")
	b.WriteString("- If 'because' is missing, ask for a reason with a simple 'Why?' question.\n")
	b.WriteString("- If 'however' is missing, ask for a contrast: a downside or a different viewpoint.\n")
	b.WriteString("- If 'recommend' is missing, ask what they would recommend to a friend.\n\n")
	b.WriteString("Recent dialogue:\n")
	b.WriteString(history.String())
	b.WriteString("\nLatest student message:\nSTUDENT: " + studentText + "\n\n")
	b.WriteString("Now write the next TUTOR message.\n")
	return b.String()
}
