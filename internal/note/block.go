package note

import (
	"strings"
	"time"
	"unicode"

	"github.com/shinji-kodama/notesync/internal/model"
)

// timestampLayouts are the ISO-8601 forms accepted for comment timestamps,
// tried in order. Layouts without a zone offset are read as UTC. Offsets may be written
// with or without a colon. Fractional
// seconds are accepted after any seconds field.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp and normalizes it to UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ComposeBlock builds the note block for one synced comment.
//
// createdAt is parsed as ISO-8601; when it cannot be parsed, now() is used
// instead. The body is trimmed of surrounding whitespace. Composition never
// fails.
func ComposeBlock(ticketID, agentName, createdAt, body string, now func() time.Time) model.NoteBlock {
	ts, ok := ParseTimestamp(createdAt)
	if !ok {
		ts = now().UTC()
	}
	return model.NoteBlock{
		TicketID:  ticketID,
		AgentName: agentName,
		Timestamp: ts,
		Body:      strings.TrimSpace(body),
	}
}

// MergeNote appends block to an existing order note.
//
// An empty or whitespace-only note is replaced by the block. Otherwise the
// existing note keeps its content, loses only its trailing whitespace, and
// is followed by exactly one blank line and the block. Identical blocks are
// not deduplicated.
func MergeNote(existing string, block model.NoteBlock) string {
	rendered := block.String()
	if strings.TrimSpace(existing) == "" {
		return rendered
	}
	return strings.TrimRightFunc(existing, unicode.IsSpace) + "\n\n" + rendered
}
