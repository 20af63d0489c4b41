package note

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2030, 6, 7, 8, 9, 10, 0, time.UTC)

func nowFunc() time.Time { return fixedNow }

// danaBlockText is the rendering of ticket 123456 by Dana at
// 2024-03-01T15:04:00Z with body "  Hello world  ".
const danaBlockText = "#123456 | Dana | 2024-03-01 15:04 UTC\n\nHello world\n\n---\n"

// TestComposeBlock_Canonical verifies the canonical rendering end to end.
func TestComposeBlock_Canonical(t *testing.T) {
	block := ComposeBlock("123456", "Dana", "2024-03-01T15:04:00Z", "  Hello world  ", nowFunc)
	assert.Equal(t, danaBlockText, block.String())
	assert.Equal(t, "Hello world", block.Body)
}

// TestComposeBlock_Timestamps verifies parsing, UTC normalization, and the
// wall-clock fallback for unparseable values.
func TestComposeBlock_Timestamps(t *testing.T) {
	tests := []struct {
		name      string
		createdAt string
		want      string
	}{
		{"zulu", "2024-03-01T15:04:00Z", "2024-03-01 15:04 UTC"},
		{"offset is normalized", "2024-03-01T17:04:00+02:00", "2024-03-01 15:04 UTC"},
		{"negative offset crosses midnight", "2024-02-29T21:30:00-05:00", "2024-03-01 02:30 UTC"},
		{"fractional seconds", "2024-03-01T15:04:59.123456Z", "2024-03-01 15:04 UTC"},
		{"naive is read as UTC", "2024-03-01T15:04:00", "2024-03-01 15:04 UTC"},
		{"minute precision", "2024-03-01T15:04", "2024-03-01 15:04 UTC"},
		{"offset without colon", "2024-03-01T17:04:00+0200", "2024-03-01 15:04 UTC"},
		{"space separator", "2024-03-01 15:04:00", "2024-03-01 15:04 UTC"},
		{"space separator minute precision", "2024-03-01 15:04", "2024-03-01 15:04 UTC"},
		{"space separator offset without colon", "2024-03-01 10:04:00-0500", "2024-03-01 15:04 UTC"},
		{"date only", "2024-03-01", "2024-03-01 00:00 UTC"},
		{"garbage falls back to now", "yesterday-ish", "2030-06-07 08:09 UTC"},
		{"empty falls back to now", "", "2030-06-07 08:09 UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := ComposeBlock("1", "Agent", tt.createdAt, "body", nowFunc)
			assert.Equal(t, "#1 | Agent | "+tt.want, block.Header())
			assert.Equal(t, time.UTC, block.Timestamp.Location())
		})
	}
}

// TestComposeBlock_FallbackIsUTC verifies a non-UTC clock is normalized.
func TestComposeBlock_FallbackIsUTC(t *testing.T) {
	local := time.FixedZone("X", -3*60*60)
	block := ComposeBlock("1", "Agent", "not a time", "body", func() time.Time {
		return time.Date(2024, 1, 1, 22, 0, 0, 0, local)
	})
	assert.Equal(t, "#1 | Agent | 2024-01-02 01:00 UTC", block.Header())
}

// TestMergeNote verifies the append policy against existing note values.
func TestMergeNote(t *testing.T) {
	block := ComposeBlock("123456", "Dana", "2024-03-01T15:04:00Z", "Hello world", nowFunc)

	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{"empty note", "", danaBlockText},
		{"whitespace-only note", " \n\t\n", danaBlockText},
		{"prior note with trailing newline", "Prior note\n", "Prior note\n\n" + danaBlockText},
		{"prior note without newline", "Prior note", "Prior note\n\n" + danaBlockText},
		{"trailing whitespace collapsed", "Prior note \n\n\n  ", "Prior note\n\n" + danaBlockText},
		{"leading content preserved", "  indented\n\nsecond paragraph\n", "  indented\n\nsecond paragraph\n\n" + danaBlockText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeNote(tt.existing, block))
		})
	}
}

// TestMergeNote_Accumulates verifies repeated syncs form an append-only log
// and identical blocks are not deduplicated.
func TestMergeNote_Accumulates(t *testing.T) {
	block := ComposeBlock("123456", "Dana", "2024-03-01T15:04:00Z", "Hello world", nowFunc)

	first := MergeNote("", block)
	second := MergeNote(first, block)

	require.Equal(t, danaBlockText, first)
	assert.Equal(t, danaBlockText[:len(danaBlockText)-1]+"\n\n"+danaBlockText, second)
}

// TestParseTimestamp_Rejects verifies inputs that are not ISO-8601.
func TestParseTimestamp_Rejects(t *testing.T) {
	for _, s := range []string{"", "   ", "03/01/2024", "2024-13-01T00:00:00Z", "1709305440"} {
		_, ok := ParseTimestamp(s)
		assert.False(t, ok, s)
	}
	_, ok := ParseTimestamp(" 2024-03-01T15:04:00Z ")
	assert.True(t, ok)
}
