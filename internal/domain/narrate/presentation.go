package narrate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	maxRecentLineHashes = 16
	maxLastVerbKeys     = 12
	maxLastTemplateIDs  = 12
)

// PresentationDelta is what one turn contributes to the rolling
// presentation memory.
type PresentationDelta struct {
	Tone        string
	OpenerID    string
	LineHashes  []string
	VerbKeys    []string
	TemplateIDs []string
	EventCursor EventCursor
}

// MergePresentation appends the delta onto the current state and
// truncates each list to its bound. Scalars are last-wins; an empty
// scalar in the delta leaves the current value standing. History is
// never discarded wholesale.
func MergePresentation(cur PresentationState, delta PresentationDelta) PresentationState {
	next := cur
	if delta.Tone != "" {
		next.LastTone = delta.Tone
	}
	if delta.OpenerID != "" {
		next.LastBoardOpenerID = delta.OpenerID
	}
	next.RecentLineHashes = appendBounded(cur.RecentLineHashes, delta.LineHashes, maxRecentLineHashes)
	next.LastVerbKeys = appendBounded(cur.LastVerbKeys, delta.VerbKeys, maxLastVerbKeys)
	next.LastTemplateIDs = appendBounded(cur.LastTemplateIDs, delta.TemplateIDs, maxLastTemplateIDs)
	if CompareCursor(delta.EventCursor, cur.LastEventCursor) > 0 {
		next.LastEventCursor = delta.EventCursor
	}
	return next
}

func appendBounded(cur, add []string, bound int) []string {
	merged := make([]string, 0, len(cur)+len(add))
	merged = append(merged, cur...)
	merged = append(merged, add...)
	if len(merged) > bound {
		merged = merged[len(merged)-bound:]
	}
	return merged
}

// AdvanceCursor returns the furthest cursor reachable from cur through
// the given events. Events behind cur never move it backward.
func AdvanceCursor(events []CombatEvent, cur EventCursor) EventCursor {
	latest := cur
	for _, e := range events {
		ec := EventCursor{TurnIndex: e.TurnIndex, EventID: e.ID, CreatedAt: e.CreatedAt}
		if CompareCursor(ec, latest) > 0 {
			latest = ec
		}
	}
	return latest
}

// CompareCursor orders event cursors: later turn index wins; within a
// turn, later creation time wins; equal index and timestamp break by
// event id.
func CompareCursor(a, b EventCursor) int {
	switch {
	case a.TurnIndex != b.TurnIndex:
		if a.TurnIndex > b.TurnIndex {
			return 1
		}
		return -1
	case a.CreatedAt != b.CreatedAt:
		if a.CreatedAt > b.CreatedAt {
			return 1
		}
		return -1
	case a.EventID != b.EventID:
		if a.EventID > b.EventID {
			return 1
		}
		return -1
	}
	return 0
}

// LineHash produces the short stable identity of a narration line used
// for cross-turn repetition checks.
func LineHash(line string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(line)), " ")
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:6])
}

// VerbKey extracts the leading verb-ish token of a line, the unit the
// de-duplication memory tracks to avoid "you strike... you strike...".
func VerbKey(line string) string {
	fields := strings.Fields(strings.ToLower(line))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:'\"")
		switch f {
		case "the", "a", "an", "you", "your", "then", "and":
			continue
		}
		if f != "" {
			return f
		}
	}
	return ""
}
