// Package movie reads and writes the ASCII Movie Document, the JSON file the
// translator produces and the interpreter plays.
package movie

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultFPS is substituted when a document has no usable frame rate.
const DefaultFPS = 24.0

var (
	ErrNotFound      = errors.New("file not found")
	ErrMalformed     = errors.New("not a valid JSON file")
	ErrInvalidSchema = errors.New("no valid 'frames' data found")
)

// Document is the on-disk interchange format. Width and Height are
// informational and never re-validated against the frames. A zero FPS is
// omitted from the file and defaulted on load.
type Document struct {
	FPS     float64  `json:"fps,omitempty"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Charset string   `json:"charset,omitempty"`
	Color   bool     `json:"color,omitempty"`
	Frames  []string `json:"frames"`
}

// FrameDelay is the time each frame stays on screen.
func (d *Document) FrameDelay() time.Duration {
	return FrameDelay(d.FPS)
}

// FrameDelay returns 1/fps seconds, saturating at the largest Duration.
func FrameDelay(fps float64) time.Duration {
	d := float64(time.Second) / fps
	if math.IsNaN(d) || d >= math.MaxInt64 || d < 0 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Warning is a recoverable problem found while loading.
type Warning string

// rawDocument defers decoding of each key so a bad fps can be recovered while
// a bad frames array is rejected.
type rawDocument struct {
	FPS     json.RawMessage `json:"fps"`
	Width   json.RawMessage `json:"width"`
	Height  json.RawMessage `json:"height"`
	Charset json.RawMessage `json:"charset"`
	Color   json.RawMessage `json:"color"`
	Frames  json.RawMessage `json:"frames"`
}

// Load reads and validates the document at path. Missing or non-positive fps
// is not an error: a Warning is returned and DefaultFPS is used.
func Load(path string) (*Document, []Warning, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w at '%s'", ErrNotFound, path)
		}
		return nil, nil, fmt.Errorf("error reading file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading file: %w", err)
	}
	return Decode(data, path)
}

// Decode validates an in-memory document. name is only used in messages.
func Decode(data []byte, name string) (*Document, []Warning, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("'%s' is %w: %v", name, ErrMalformed, err)
	}

	doc := &Document{}
	frames, ok := decodeFrames(raw.Frames)
	if !ok {
		return nil, nil, fmt.Errorf("%w in '%s'", ErrInvalidSchema, name)
	}
	doc.Frames = frames

	var warnings []Warning
	fps, ok := decodeFPS(raw.FPS)
	if !ok {
		warnings = append(warnings, Warning(fmt.Sprintf("No valid 'fps' data found in '%s'. Defaulting to %g.", name, DefaultFPS)))
		fps = DefaultFPS
	}
	doc.FPS = fps

	// Informational keys: keep what decodes, ignore the rest.
	_ = json.Unmarshal(raw.Width, &doc.Width)
	_ = json.Unmarshal(raw.Height, &doc.Height)
	_ = json.Unmarshal(raw.Charset, &doc.Charset)
	_ = json.Unmarshal(raw.Color, &doc.Color)

	return doc, warnings, nil
}

// decodeFrames accepts only a non-empty array of strings. encoding/json would
// turn a null element into "", so elements are decoded as pointers.
func decodeFrames(raw json.RawMessage) ([]string, bool) {
	if isNull(raw) {
		return nil, false
	}
	var elems []*string
	if err := json.Unmarshal(raw, &elems); err != nil || len(elems) == 0 {
		return nil, false
	}
	frames := make([]string, len(elems))
	for i, e := range elems {
		if e == nil {
			return nil, false
		}
		frames[i] = *e
	}
	return frames, true
}

func decodeFPS(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var fps float64
	if err := json.Unmarshal(raw, &fps); err != nil {
		return 0, false
	}
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		return 0, false
	}
	return fps, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Encode renders doc as indented JSON. HTML characters are kept literal and
// an empty frame list is written as [] rather than null.
func Encode(doc *Document) ([]byte, error) {
	out := *doc
	if out.Frames == nil {
		out.Frames = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes doc to path, replacing any existing file. The data goes to a
// temporary file in the same directory first, so path only ever holds a
// complete document.
func Save(path string, doc *Document) (int, error) {
	data, err := Encode(doc)
	if err != nil {
		return 0, err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+strings.TrimPrefix(filepath.Base(path), ".")+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("rename %s to %s: %w", tmpName, path, err)
	}
	return len(data), nil
}

// LineCount returns the number of rows in a rendered frame.
func LineCount(frame string) int {
	return strings.Count(frame, "\n") + 1
}
