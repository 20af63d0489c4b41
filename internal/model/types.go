// Package model defines the domain types for the notesync CLI.
//
// All entities in this package are transient representations built from
// the ticket system and the commerce platform at runtime. They are created
// fresh per invocation and never cached or persisted.
package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Comment is a single ticket comment as returned by the ticket system.
// Comments are immutable once fetched.
type Comment struct {
	// ID is the ticket system's comment identifier.
	ID int64 `json:"id"`

	// Body is the plain-text comment body.
	Body string `json:"body"`

	// Public reports whether the requester can see the comment.
	// Internal (agent-only) comments have Public == false.
	Public bool `json:"public"`

	// AuthorID identifies the user who wrote the comment.
	AuthorID int64 `json:"authorId"`

	// CreatedAt is the raw ISO-8601 creation timestamp exactly as the
	// ticket system supplied it. Parsing (and the fallback for unparseable
	// values) belongs to the note composer.
	CreatedAt string `json:"createdAt"`
}

// IsInternal reports whether the comment is agent-only.
func (c Comment) IsInternal() bool {
	return !c.Public
}

// OrderReference is a validated order name token such as "A273302":
// one uppercase ASCII letter followed by exactly six ASCII digits.
type OrderReference string

// orderReferenceRegex matches a complete order reference and nothing else.
var orderReferenceRegex = regexp.MustCompile(`^[A-Z][0-9]{6}$`)

// String returns the reference as a plain string.
func (r OrderReference) String() string {
	return string(r)
}

// IsValid reports whether the reference matches the order name pattern.
func (r OrderReference) IsValid() bool {
	return orderReferenceRegex.MatchString(string(r))
}

// ParseOrderReference validates s as an order reference.
func ParseOrderReference(s string) (OrderReference, error) {
	ref := OrderReference(s)
	if !ref.IsValid() {
		return "", fmt.Errorf("invalid order reference %q: must be one uppercase letter followed by six digits", s)
	}
	return ref, nil
}

// Order is the subset of a commerce order that notesync reads and rewrites.
// Only Note is ever modified.
type Order struct {
	// ID is the platform's numeric order identifier, used as the write key.
	ID int64 `json:"id"`

	// Name is the human-readable order name (e.g. "A273302").
	Name string `json:"name"`

	// Note is the free-text note field. An absent note is "".
	Note string `json:"note"`
}

// noteTimestampLayout renders minute-precision UTC timestamps in note headers.
const noteTimestampLayout = "2006-01-02 15:04"

// NoteBlock is one formatted entry appended to an order note.
// It is a value type and is not modified after construction.
type NoteBlock struct {
	// TicketID is the ticket the note was synced from.
	TicketID string `json:"ticketId"`

	// AgentName is the display name of the comment author.
	AgentName string `json:"agentName"`

	// Timestamp is the comment creation time. Always rendered in UTC.
	Timestamp time.Time `json:"timestamp"`

	// Body is the comment text with surrounding whitespace removed.
	Body string `json:"body"`
}

// Header returns the first line of the block, e.g.
// "#123456 | Dana | 2024-03-01 15:04 UTC".
func (b NoteBlock) Header() string {
	return fmt.Sprintf("#%s | %s | %s UTC",
		b.TicketID, b.AgentName, b.Timestamp.UTC().Format(noteTimestampLayout))
}

// String renders the canonical block text, trailing newline included:
//
//	#<ticket_id> | <agent_name> | <YYYY-MM-DD HH:MM UTC>
//
//	<body>
//
//	---
func (b NoteBlock) String() string {
	return b.Header() + "\n\n" + b.Body + "\n\n---\n"
}

// SyncResult describes the outcome of one sync run. It is what the CLI
// reports in both text and JSON output.
type SyncResult struct {
	RunID     string         `json:"runId"`
	TicketID  string         `json:"ticketId"`
	CommentID int64          `json:"commentId"`
	AgentName string         `json:"agentName"`
	Reference OrderReference `json:"orderReference"`
	OrderID   int64          `json:"orderId"`
	OrderName string         `json:"orderName"`
	Block     string         `json:"block"`
	NewNote   string         `json:"newNote"`
	DryRun    bool           `json:"dryRun"`
}

// ParseTicketID normalizes a ticket identifier given on the command line.
// Surrounding whitespace and a single leading "#" are accepted; the rest
// must be a positive decimal integer.
func ParseTicketID(s string) (string, error) {
	id := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if id == "" {
		return "", fmt.Errorf("ticket ID must not be empty")
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return "", fmt.Errorf("invalid ticket ID %q: must be a positive integer", s)
	}
	return strconv.FormatUint(n, 10), nil
}
