package sink

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/buoy-vision-go/domain/detect"
	"github.com/soocke/buoy-vision-go/domain/track"
)

func trackingReport(seq uint64) detect.FrameReport {
	return detect.FrameReport{
		Frame:    int(seq % 900),
		Sequence: seq,
		Mode:     detect.ModeFullSearch,
		State:    detect.StateTracking,
		Path:     []detect.State{detect.StateFullSearch, detect.StateValidating, detect.StateTrackInit, detect.StateTracking},
		Detection: &detect.Detection{
			Center:     image.Pt(200, 150),
			Extent:     image.Pt(40, 40),
			Confidence: 0.82,
			ROI:        image.Rect(0, 0, 640, 480),
			Accepted:   true,
		},
		Box: image.Rect(100, 50, 300, 250),
		Objects: []detect.Object{
			{ID: 0, Box: image.Rect(100, 50, 300, 250), Confidence: 0.82, Target: true},
			{ID: 1, Box: image.Rect(400, 300, 420, 330), Confidence: 0.7},
		},
		PercentArea: 13.02,
		Tracker:     track.Diagnostics{Tracker: "ncc", FPS: 120, OK: true},
		Duration:    1500 * time.Microsecond,
	}
}

func TestNewRecord(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecord("run-1", trackingReport(7), at)

	want := Record{
		RunID:    "run-1",
		Time:     at,
		Sequence: 7,
		Frame:    7,
		Mode:     "full_search",
		State:    "tracking",
		Path:     []string{"full_search", "validating", "track_init", "tracking"},
		Detection: &DetectionRecord{
			CenterX: 200, CenterY: 150, Width: 40, Height: 40,
			Confidence: 0.82, ROI: Box{0, 0, 640, 480}, Accepted: true,
		},
		Box: &Box{100, 50, 300, 250},
		Objects: []ObjectRecord{
			{ID: 0, Box: Box{100, 50, 300, 250}, Confidence: 0.82, Target: true},
			{ID: 1, Box: Box{400, 300, 420, 330}, Confidence: 0.7},
		},
		PercentArea:    13.02,
		Tracker:        "ncc",
		TrackerFPS:     120,
		TrackerOK:      true,
		DurationMicros: 1500,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	lost := NewRecord("run-1", detect.FrameReport{State: detect.StateLost, Err: detect.ErrTrackLost}, at)
	assert.Nil(t, lost.Box)
	assert.Nil(t, lost.Detection)
	assert.Equal(t, "track lost", lost.Error)
	assert.NotNil(t, lost.Objects)
}

func TestJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	s, err := Open("jsonl:"+path, "run-1")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Write(ctx, trackingReport(1)))
	require.NoError(t, s.Write(ctx, detect.FrameReport{Sequence: 2, State: detect.StateLost, Err: detect.ErrDetectionMiss}))
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var recs []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		recs = append(recs, r)
	}
	require.NoError(t, sc.Err())
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(1), recs[0].Sequence)
	assert.Equal(t, "run-1", recs[0].RunID)
	require.Len(t, recs[0].Objects, 2)
	assert.True(t, recs[0].Objects[0].Target)
	assert.Equal(t, "lost", recs[1].State)
	assert.Equal(t, "detection miss", recs[1].Error)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.db")
	s, err := NewSQLite(path, "run-1")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for seq := uint64(1); seq <= 3; seq++ {
		require.NoError(t, s.Write(ctx, trackingReport(seq)))
	}
	require.NoError(t, s.Write(ctx, detect.FrameReport{Sequence: 4, State: detect.StateLost, Err: detect.ErrTrackLost}))

	var frames, objects int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM frames WHERE run_id = ?`, "run-1").Scan(&frames))
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM objects WHERE run_id = ?`, "run-1").Scan(&objects))
	assert.Equal(t, 4, frames)
	assert.Equal(t, 6, objects)

	var state, errText string
	var box sql.NullInt64
	require.NoError(t, s.DB().QueryRow(`SELECT state, error, box_x0 FROM frames WHERE sequence = 4`).Scan(&state, &errText, &box))
	assert.Equal(t, "lost", state)
	assert.Equal(t, "track lost", errText)
	assert.False(t, box.Valid)

	// Same run and sequence twice violates the key.
	assert.Error(t, s.Write(ctx, trackingReport(1)))
}

func TestPNGDumper(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	fs, err := OpenFrame("png:"+dir, 2)
	require.NoError(t, err)
	d := fs.(*PNGDumper)

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for seq := uint64(1); seq <= 5; seq++ {
		require.NoError(t, d.WriteFrame(seq, img))
	}
	require.NoError(t, d.WriteFrame(6, nil))
	assert.Equal(t, 2, d.Count())
	_, err = os.Stat(filepath.Join(dir, "frame_000004.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "frame_000003.png"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, d.Close())
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("kafka:topic", "r")
	assert.ErrorIs(t, err, ErrUnknownSink)
	_, err = Open("jsonl", "r")
	assert.Error(t, err)
	_, err = OpenFrame("gif:x", 1)
	assert.ErrorIs(t, err, ErrUnknownSink)
}

type failingSink struct {
	writes int
	err    error
}

func (f *failingSink) Write(context.Context, detect.FrameReport) error { f.writes++; return f.err }
func (f *failingSink) Close() error                                    { return f.err }

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	a, b := &failingSink{err: boom}, &failingSink{}
	m := Multi{a, b}
	err := m.Write(context.Background(), trackingReport(1))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.writes)
	assert.Equal(t, 1, b.writes)
	assert.ErrorIs(t, m.Close(), boom)
}
