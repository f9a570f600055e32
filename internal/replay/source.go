package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okian/proctor/internal/domain/model"
)

const (
	directoryPermission = 0o750
	maxLineBytes        = 1 << 20
)

// ReadFrames decodes one frame per line. Blank lines are skipped.
func ReadFrames(r io.Reader) ([]*model.LandmarkFrame, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var frames []*model.LandmarkFrame
	for line := 1; sc.Scan(); line++ {
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var f model.LandmarkFrame
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, &f)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	return frames, nil
}

// LoadFrames reads a JSON-lines file.
func LoadFrames(path string) ([]*model.LandmarkFrame, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadFrames(f)
}

// WriteFrames encodes frames one per line.
func WriteFrames(w io.Writer, frames []*model.LandmarkFrame) error {
	enc := json.NewEncoder(w)
	for i, f := range frames {
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
	}
	return nil
}

// SaveFrames writes frames to path, creating the directory if needed.
func SaveFrames(path string, frames []*model.LandmarkFrame) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // user-supplied output file
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteFrames(f, frames); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
