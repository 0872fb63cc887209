package interfile

import (
	"fmt"
	"log/slog"
)

// Editor applies single header edits to files on disk. Each edit is one
// complete read-modify-write cycle of the file. Tags that cannot be found
// are reported through the logger and leave the file untouched.
//
// Editor does no locking: callers must not run two edits on the same path
// concurrently.
type Editor struct {
	logger *slog.Logger
}

// NewEditor creates an editor reporting diagnostics to logger. A nil
// logger uses slog.Default().
func NewEditor(logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{logger: logger}
}

// ExtractTag returns the value of tag in the header designated by ref.
// A missing tag is not an error: the result is NoValue.
func (ed *Editor) ExtractTag(ref HeaderRef, tag string) (string, error) {
	var (
		value string
		found bool
	)
	switch r := ref.(type) {
	case Path:
		h, err := Load(string(r))
		if err != nil {
			return "", err
		}
		value, found = h.ExtractRaw(tag)
	case Loaded:
		if r.Header == nil {
			return "", fmt.Errorf("%w: nil header", ErrFatalInput)
		}
		value, found = r.Header.Extract(tag)
	default:
		return "", fmt.Errorf("%w: unsupported header reference %T", ErrFatalInput, ref)
	}
	if !found {
		ed.logger.Warn("tag not found", "tag", tag)
	}
	return value, nil
}

// ReplaceTagValue sets the value of the last line containing tag
func (ed *Editor) ReplaceTagValue(path, tag, value string) error {
	return ed.edit(path, "replace", tag, func(h *Header) bool {
		return h.ReplaceValue(tag, value)
	})
}

// RenameTag renames the last line containing oldTag to newName, keeping
// its value
func (ed *Editor) RenameTag(path, oldTag, newName string) error {
	return ed.edit(path, "rename", oldTag, func(h *Header) bool {
		return h.RenameTag(oldTag, newName)
	})
}

// RemoveTag deletes the last line containing tag
func (ed *Editor) RemoveTag(path, tag string) error {
	return ed.edit(path, "remove", tag, func(h *Header) bool {
		return h.RemoveTag(tag)
	})
}

// InsertBefore inserts text before every line containing anchor
func (ed *Editor) InsertBefore(path, anchor, text string) error {
	return ed.edit(path, "insert", anchor, func(h *Header) bool {
		return h.InsertBefore(anchor, text) > 0
	})
}

func (ed *Editor) edit(path, op, tag string, apply func(*Header) bool) error {
	h, err := Load(path)
	if err != nil {
		return err
	}
	if !apply(h) {
		ed.logger.Warn("tag not found, header left unchanged", "op", op, "tag", tag, "path", path)
		return nil
	}
	if err := h.WriteFile(path); err != nil {
		return fmt.Errorf("%s %q: %w", op, tag, err)
	}
	ed.logger.Debug("header edited", "op", op, "tag", tag, "path", path)
	return nil
}
