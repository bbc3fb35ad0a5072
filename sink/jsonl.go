package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/soocke/buoy-vision-go/domain/detect"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONL appends one JSON object per frame to a file.
type JSONL struct {
	f     *os.File
	w     *bufio.Writer
	enc   *jsoniter.Encoder
	runID string
	now   func() time.Time
}

// NewJSONL opens path for appending.
func NewJSONL(path, runID string) (*JSONL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriter(f)
	return &JSONL{f: f, w: w, enc: json.NewEncoder(w), runID: runID, now: time.Now}, nil
}

// Write encodes rep as a single line and flushes it.
func (s *JSONL) Write(ctx context.Context, rep detect.FrameReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.enc.Encode(NewRecord(s.runID, rep, s.now())); err != nil {
		return fmt.Errorf("jsonl: %w", err)
	}
	return s.w.Flush()
}

func (s *JSONL) Close() error {
	ferr := s.w.Flush()
	if err := s.f.Close(); err != nil {
		return err
	}
	return ferr
}
