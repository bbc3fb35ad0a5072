package detect

import (
	"errors"
	"image"
	"image/color"
	"time"

	"github.com/soocke/buoy-vision-go/domain/match"
	"github.com/soocke/buoy-vision-go/domain/track"
)

// State enumerates orchestrator states.
type State int

const (
	StateFullSearch State = iota
	StateValidating
	StateTrackInit
	StateTracking
	StateROIRedetect
	StateLost
)

func (s State) String() string {
	switch s {
	case StateFullSearch:
		return "full_search"
	case StateValidating:
		return "validating"
	case StateTrackInit:
		return "track_init"
	case StateTracking:
		return "tracking"
	case StateROIRedetect:
		return "roi_redetect"
	case StateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Mode is the work scheduled for a frame by the cadence.
type Mode int

const (
	ModeTrack Mode = iota
	ModeFullSearch
	ModeRedetect
)

func (m Mode) String() string {
	switch m {
	case ModeTrack:
		return "track"
	case ModeFullSearch:
		return "full_search"
	case ModeRedetect:
		return "redetect"
	default:
		return "unknown"
	}
}

// Cadence returns the mode scheduled for frame counter n. Re-detection is
// only acted on while a track is held.
func Cadence(n, fullEvery, redetectEvery int) Mode {
	if fullEvery > 0 && n%fullEvery == 0 {
		return ModeFullSearch
	}
	if redetectEvery > 0 && n%redetectEvery == 0 {
		return ModeRedetect
	}
	return ModeTrack
}

// StateListener is called on each state change.
type StateListener func(prev, next State)

// Recoverable per-frame conditions reported in FrameReport.Err.
var (
	ErrDetectionMiss = errors.New("detection miss")
	ErrRejected      = errors.New("candidate rejected by color gate")
	ErrTrackInit     = errors.New("tracker init failed")
	ErrTrackLost     = errors.New("track lost")
)

// Searcher locates the template in a binary mask.
type Searcher interface {
	Search(env *image.Gray) (match.Result, error)
}

// Detection is one search outcome in frame coordinates.
type Detection struct {
	Center     image.Point
	Extent     image.Point
	Confidence float64
	ROI        image.Rectangle // region that was searched
	Color      color.RGBA      // averaged small-ROI sample
	Accepted   bool
}

// Object is one labelled buoy on a frame.
type Object struct {
	ID         int
	Box        image.Rectangle
	Confidence float64
	Target     bool // the tracked buoy rather than a labelled blob
}

// FrameReport is everything produced for one frame.
type FrameReport struct {
	Frame       int    // wrapped cadence counter
	Sequence    uint64 // monotonically increasing frame number
	Mode        Mode
	State       State
	Path        []State
	Detection   *Detection
	Box         image.Rectangle // tracker box when tracking succeeded
	Objects     []Object
	PercentArea float64
	Tracker     track.Diagnostics
	Err         error
	Duration    time.Duration
	Image       *image.RGBA // annotated frame
}
