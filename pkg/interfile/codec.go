package interfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Parse splits data into lines, each keeping its "\n" terminator
func Parse(data []byte) *Header {
	h := &Header{}
	text := string(data)
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			h.entries = append(h.entries, Entry{raw: text})
			break
		}
		h.entries = append(h.entries, Entry{raw: text[:i+1]})
		text = text[i+1:]
	}
	return h
}

// Bytes serializes the header. Removed entries produce no output.
func (h *Header) Bytes() []byte {
	var buf bytes.Buffer
	for _, e := range h.entries {
		buf.WriteString(e.raw)
	}
	return buf.Bytes()
}

func (h *Header) String() string {
	return string(h.Bytes())
}

// Load reads and parses the header file at path. A missing file is a
// fatal input error.
func Load(path string) (*Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: header %s: %w", ErrFatalInput, path, err)
		}
		return nil, fmt.Errorf("error reading header %s: %w", path, err)
	}
	return Parse(data), nil
}

// WriteFile replaces the file at path with the serialized header. The data
// is written to a temporary file in the same directory which is then
// renamed over path.
func (h *Header) WriteFile(path string) error {
	return writeAtomic(path, h.Bytes())
}

// CopyFile copies the file at src to dst byte for byte
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %w", ErrFatalInput, src, err)
		}
		return fmt.Errorf("error reading %s: %w", src, err)
	}
	return writeAtomic(dst, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("error creating temporary file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("error syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("error closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		cleanup()
		return fmt.Errorf("error setting permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("error replacing %s: %w", path, err)
	}
	return nil
}
