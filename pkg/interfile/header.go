// Package interfile provides an order-preserving, line-oriented model of
// interfile-style tagged text headers as written by SIMIND and read by STIR.
//
// A Header keeps every line exactly as it was read, including its line
// terminator, so untouched lines are reproduced byte-for-byte when the
// header is written back. Tags are located by case-sensitive substring
// containment on the raw line; which of several matching lines an operation
// acts on is fixed per operation and exposed as a MatchPolicy.
package interfile

import (
	"strings"
)

// NoValue is the value reported when a tag is not present in a header
const NoValue = "no_value"

// MatchPolicy selects which of the lines containing a tag an operation uses
type MatchPolicy int

const (
	// LastMatch uses the last matching line in file order
	LastMatch MatchPolicy = iota
	// FirstMatch uses the first matching line in file order
	FirstMatch
	// AllMatches uses every matching line
	AllMatches
)

func (p MatchPolicy) String() string {
	switch p {
	case LastMatch:
		return "last-match"
	case FirstMatch:
		return "first-match"
	case AllMatches:
		return "all-matches"
	default:
		return "unknown"
	}
}

// Match policies of the header operations
const (
	ExtractPolicy      = LastMatch
	ReplacePolicy      = LastMatch
	RenamePolicy       = LastMatch
	RemovePolicy       = LastMatch
	InsertBeforePolicy = AllMatches
)

// EntryKind classifies a header line
type EntryKind int

const (
	Blank EntryKind = iota
	Comment
	Tagged
	Other
)

// Entry is a single header line. The raw text includes the line terminator
// when the line had one.
type Entry struct {
	raw string
}

// NewEntry returns an entry holding text verbatim
func NewEntry(text string) Entry {
	return Entry{raw: text}
}

// Raw returns the line exactly as stored
func (e Entry) Raw() string {
	return e.raw
}

// Text returns the line without its trailing newline
func (e Entry) Text() string {
	return strings.TrimSuffix(e.raw, "\n")
}

// Kind classifies the line
func (e Entry) Kind() EntryKind {
	text := strings.TrimSpace(e.raw)
	switch {
	case text == "":
		return Blank
	case strings.HasPrefix(text, ";"):
		return Comment
	case strings.Contains(text, ":=") || strings.Contains(text, ": "):
		return Tagged
	default:
		return Other
	}
}

// Indent returns the leading whitespace of the line
func (e Entry) Indent() string {
	text := e.Text()
	return text[:len(text)-len(strings.TrimLeft(text, " \t"))]
}

// Name returns the tag name of a tagged line with surrounding whitespace
// removed, or "" for any other line
func (e Entry) Name() string {
	name, _, ok := e.cut()
	if !ok {
		return ""
	}
	return strings.TrimSpace(name)
}

// Value returns the trimmed value of a tagged line, or ""
func (e Entry) Value() string {
	_, value, ok := e.cut()
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func (e Entry) cut() (string, string, bool) {
	text := e.Text()
	if name, value, ok := strings.Cut(text, ":="); ok {
		return name, value, true
	}
	return strings.Cut(text, ": ")
}

// Header is an ordered sequence of header lines
type Header struct {
	entries []Entry
}

// NewHeader returns a header made of the given lines, stored verbatim
func NewHeader(lines ...string) *Header {
	h := &Header{entries: make([]Entry, 0, len(lines))}
	for _, l := range lines {
		h.entries = append(h.entries, Entry{raw: l})
	}
	return h
}

// Len returns the number of entries, including removed (empty) ones that
// have not yet been through a write/read cycle
func (h *Header) Len() int {
	return len(h.entries)
}

// Entry returns the i-th entry
func (h *Header) Entry(i int) Entry {
	return h.entries[i]
}

// Entries returns a copy of the entries
func (h *Header) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Clone returns an independent copy of the header
func (h *Header) Clone() *Header {
	return &Header{entries: h.Entries()}
}

// Locate returns the indices of the lines containing substr, selected by p.
// It returns nil when nothing matches.
func (h *Header) Locate(substr string, p MatchPolicy) []int {
	var idx []int
	for i, e := range h.entries {
		if !strings.Contains(e.raw, substr) {
			continue
		}
		switch p {
		case FirstMatch:
			return []int{i}
		case LastMatch:
			idx = []int{i}
		default:
			idx = append(idx, i)
		}
	}
	return idx
}

// Extract returns the value of the last line containing tag. The value is
// the text after ":= " (or ": " when ":= " does not split the line in
// exactly two), without the line terminator. A later matching line that
// does not split keeps the earlier value. When no value was found Extract
// returns NoValue and false.
func (h *Header) Extract(tag string) (string, bool) {
	return h.extract(tag, false)
}

// ExtractRaw is Extract without stripping the line terminator from the
// value, as a reader working on whole file lines sees it.
func (h *Header) ExtractRaw(tag string) (string, bool) {
	return h.extract(tag, true)
}

func (h *Header) extract(tag string, keepTerminator bool) (string, bool) {
	value := ""
	for _, e := range h.entries {
		line := e.raw
		if !keepTerminator {
			line = e.Text()
		}
		if !strings.Contains(line, tag) {
			continue
		}
		if v, ok := splitValue(line); ok {
			value = v
		}
	}
	if value == "" {
		return NoValue, false
	}
	return value, true
}

func splitValue(line string) (string, bool) {
	if parts := strings.Split(line, ":= "); len(parts) == 2 {
		return parts[1], true
	}
	if parts := strings.Split(line, ": "); len(parts) == 2 {
		return parts[1], true
	}
	return "", false
}

// ReplaceValue rewrites the last line containing tag as "tag := value".
// It reports whether a line was found.
func (h *Header) ReplaceValue(tag, value string) bool {
	idx := h.Locate(tag, ReplacePolicy)
	if idx == nil {
		return false
	}
	h.entries[idx[0]] = Entry{raw: tag + " := " + value + "\n"}
	return true
}

// RenameTag rewrites the last line containing oldTag as "newName := value",
// value being the raw extracted value of oldTag. No terminator is added: the
// line keeps the one carried by the value, and when oldTag has no value the
// rewritten line ("newName := no_value") runs into the following line once
// the header is written out.
func (h *Header) RenameTag(oldTag, newName string) bool {
	value, _ := h.ExtractRaw(oldTag)
	idx := h.Locate(oldTag, RenamePolicy)
	if idx == nil {
		return false
	}
	h.entries[idx[0]] = Entry{raw: newName + " := " + value}
	return true
}

// RemoveTag empties the last line containing tag. The entry stays in place
// until the header is serialized, where it produces no output.
func (h *Header) RemoveTag(tag string) bool {
	idx := h.Locate(tag, RemovePolicy)
	if idx == nil {
		return false
	}
	h.entries[idx[0]] = Entry{}
	return true
}

// InsertBefore inserts text verbatim before every line containing anchor
// and returns the number of insertions. Callers supply the terminator.
func (h *Header) InsertBefore(anchor, text string) int {
	out := make([]Entry, 0, len(h.entries)+1)
	n := 0
	for _, e := range h.entries {
		if strings.Contains(e.raw, anchor) {
			out = append(out, Entry{raw: text})
			n++
		}
		out = append(out, e)
	}
	h.entries = out
	return n
}

// Append adds text verbatim as the last entry
func (h *Header) Append(text string) {
	h.entries = append(h.entries, Entry{raw: text})
}
