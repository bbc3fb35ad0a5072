package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/soocke/buoy-vision-go/domain/detect"
)

const schema = `
	CREATE TABLE IF NOT EXISTS frames (
		run_id            TEXT NOT NULL,
		sequence          BIGINT NOT NULL,
		frame             INTEGER,
		mode              TEXT,
		state             TEXT,
		path              TEXT,
		confidence        DOUBLE,
		center_x          INTEGER,
		center_y          INTEGER,
		accepted          BOOLEAN,
		box_x0            INTEGER,
		box_y0            INTEGER,
		box_x1            INTEGER,
		box_y1            INTEGER,
		percent_area      DOUBLE,
		tracker           TEXT,
		tracker_fps       DOUBLE,
		tracker_ok        BOOLEAN,
		error             TEXT,
		duration_us       BIGINT,
		timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, sequence)
	);
	CREATE TABLE IF NOT EXISTS objects (
		run_id            TEXT NOT NULL,
		sequence          BIGINT NOT NULL,
		identity          INTEGER,
		x0                INTEGER,
		y0                INTEGER,
		x1                INTEGER,
		y1                INTEGER,
		confidence        DOUBLE,
		target            BOOLEAN,
		FOREIGN KEY(run_id, sequence) REFERENCES frames(run_id, sequence)
	);
	CREATE INDEX IF NOT EXISTS objects_identity ON objects(run_id, identity);
`

// SQLite stores frames and their labelled objects in two tables keyed by
// run id and sequence.
type SQLite struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(path, runID string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLite{db: db, runID: runID, now: time.Now}, nil
}

// DB exposes the handle for queries.
func (s *SQLite) DB() *sql.DB { return s.db }

// Write inserts one frame row plus one row per object in a transaction.
func (s *SQLite) Write(ctx context.Context, rep detect.FrameReport) error {
	rec := NewRecord(s.runID, rep, s.now())
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		conf               sql.NullFloat64
		cx, cy             sql.NullInt64
		accepted           sql.NullBool
		bx0, by0, bx1, by1 sql.NullInt64
		errText            sql.NullString
	)
	if d := rec.Detection; d != nil {
		conf = sql.NullFloat64{Float64: d.Confidence, Valid: true}
		cx = sql.NullInt64{Int64: int64(d.CenterX), Valid: true}
		cy = sql.NullInt64{Int64: int64(d.CenterY), Valid: true}
		accepted = sql.NullBool{Bool: d.Accepted, Valid: true}
	}
	if b := rec.Box; b != nil {
		bx0 = sql.NullInt64{Int64: int64(b.X0), Valid: true}
		by0 = sql.NullInt64{Int64: int64(b.Y0), Valid: true}
		bx1 = sql.NullInt64{Int64: int64(b.X1), Valid: true}
		by1 = sql.NullInt64{Int64: int64(b.Y1), Valid: true}
	}
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO frames (
			run_id, sequence, frame, mode, state, path,
			confidence, center_x, center_y, accepted,
			box_x0, box_y0, box_x1, box_y1,
			percent_area, tracker, tracker_fps, tracker_ok, error, duration_us, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, int64(rec.Sequence), rec.Frame, rec.Mode, rec.State, strings.Join(rec.Path, ","),
		conf, cx, cy, accepted,
		bx0, by0, bx1, by1,
		rec.PercentArea, rec.Tracker, rec.TrackerFPS, rec.TrackerOK, errText, rec.DurationMicros, rec.Time,
	)
	if err != nil {
		return fmt.Errorf("insert frame %d: %w", rec.Sequence, err)
	}
	for _, o := range rec.Objects {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO objects (run_id, sequence, identity, x0, y0, x1, y1, confidence, target)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, int64(rec.Sequence), o.ID, o.Box.X0, o.Box.Y0, o.Box.X1, o.Box.Y1, o.Confidence, o.Target,
		)
		if err != nil {
			return fmt.Errorf("insert object %d: %w", o.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Close() error { return s.db.Close() }
