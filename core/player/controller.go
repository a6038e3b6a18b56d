package player

import (
	"context"
	"math"
	"strings"
	"sync"

	"Musarty/core/directory"
	"Musarty/logger"
	"Musarty/model"
)

const (
	DefaultVolume       = 0.7
	DefaultPopularLimit = 100
	DefaultSearchLimit  = 50
)

// State is the player's view-state for one page view.
type State struct {
	Stations []model.Station // latest query response, in response order
	Selected *model.Station  // may be absent from Stations
	Playing  bool            // intent to play, not decoder confirmation
	Volume   float64         // [0,1], kept while muted
	Muted    bool
	Query    string
	Loading  bool // the latest query is outstanding

	// StreamError is the last failure the host reported for Selected.
	// It does not change Playing.
	StreamError string
}

// EffectiveVolume is the level actually applied to the output.
func (s State) EffectiveVolume() float64 {
	if s.Muted {
		return 0
	}
	return s.Volume
}

// Status derives the playback status of the selected station.
func (s State) Status() Status {
	switch {
	case s.Selected == nil:
		return StatusIdle
	case s.Playing:
		return StatusPlaying
	default:
		return StatusPaused
	}
}

// Controller owns a State and is the only way to change it. All operations
// are safe for concurrent use.
type Controller struct {
	mu    sync.Mutex
	dir   directory.Directory
	out   Output
	state State

	popularLimit int
	searchLimit  int

	// seq numbers directory queries; only the response of the latest one is applied.
	seq uint64

	onChange func(State)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLimits sets the popular and search result limits.
func WithLimits(popular, search int) Option {
	return func(c *Controller) {
		if popular > 0 {
			c.popularLimit = popular
		}
		if search > 0 {
			c.searchLimit = search
		}
	}
}

// WithVolume sets the initial volume.
func WithVolume(level float64) Option {
	return func(c *Controller) { c.state.Volume = clampVolume(level) }
}

// WithChangeListener registers fn to receive a snapshot after every state
// change. fn runs outside the controller lock and may call back into it.
func WithChangeListener(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// New creates a Controller with mount-time defaults.
func New(dir directory.Directory, out Output, opts ...Option) *Controller {
	if out == nil {
		out = NopOutput{}
	}
	c := &Controller{
		dir: dir,
		out: out,
		state: State{
			Stations: []model.Station{},
			Volume:   DefaultVolume,
		},
		popularLimit: DefaultPopularLimit,
		searchLimit:  DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Stations = append([]model.Station(nil), c.state.Stations...)
	if c.state.Selected != nil {
		sel := *c.state.Selected
		s.Selected = &sel
	}
	return s
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

// Mount loads the popular list, as on first page load.
func (c *Controller) Mount(ctx context.Context) {
	c.load(ctx, "")
}

// SetSearchQuery records the search field text. Nothing is queried until
// SubmitSearch.
func (c *Controller) SetSearchQuery(text string) {
	c.mu.Lock()
	c.state.Query = text
	s := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(s)
}

// SubmitSearch queries the directory for the current search text, or the
// popular list when it is blank, and replaces the station list with the
// result. It blocks until the query completes.
func (c *Controller) SubmitSearch(ctx context.Context) {
	c.mu.Lock()
	query := strings.TrimSpace(c.state.Query)
	c.mu.Unlock()
	c.load(ctx, query)
}

func (c *Controller) load(ctx context.Context, query string) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state.Loading = true
	s := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(s)

	var stations []model.Station
	defer func() {
		c.mu.Lock()
		if seq != c.seq {
			c.mu.Unlock()
			logger.Debug("discarding superseded station query",
				logger.String("query", query),
				logger.Uint64("seq", seq))
			return
		}
		if stations == nil {
			stations = []model.Station{}
		}
		c.state.Stations = stations
		c.state.Loading = false
		s := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(s)
	}()

	var err error
	if query == "" {
		stations, err = c.dir.FetchPopular(ctx, c.popularLimit)
	} else {
		stations, err = c.dir.SearchByName(ctx, query, c.searchLimit)
	}
	if err != nil {
		logger.Warn("station query failed, showing empty list",
			logger.String("query", query),
			logger.ErrorField(err))
		stations = []model.Station{}
	}
}

// SelectStation switches the output to st and starts playback. Reselecting
// the current station restarts it.
func (c *Controller) SelectStation(st model.Station) {
	c.mu.Lock()
	c.selectLocked(st)
	s := c.snapshotLocked()
	c.mu.Unlock()

	logger.Info("station selected",
		logger.String("station", st.ID),
		logger.String("name", st.Name),
		logger.String("url", st.PlayURL()))
	c.notify(s)
}

// SelectStationByID selects the station with id from the current list, or
// restarts the selected station when ids match. It reports whether id was found.
func (c *Controller) SelectStationByID(id string) bool {
	c.mu.Lock()
	st, ok := c.findLocked(id)
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.selectLocked(st)
	s := c.snapshotLocked()
	c.mu.Unlock()

	logger.Info("station selected",
		logger.String("station", st.ID),
		logger.String("name", st.Name),
		logger.String("url", st.PlayURL()))
	c.notify(s)
	return true
}

func (c *Controller) findLocked(id string) (model.Station, bool) {
	for _, st := range c.state.Stations {
		if st.ID == id {
			return st, true
		}
	}
	if c.state.Selected != nil && c.state.Selected.ID == id {
		return *c.state.Selected, true
	}
	return model.Station{}, false
}

// selectLocked detaches the previous source before attaching the new one so
// two streams never overlap.
func (c *Controller) selectLocked(st model.Station) {
	c.out.Pause()
	c.out.SetSource(st.PlayURL())
	c.out.SetVolume(c.state.EffectiveVolume())
	c.out.Play()

	c.state.Selected = &st
	c.state.Playing = true
	c.state.StreamError = ""
}

// TogglePlayPause pauses or resumes the selected station. It is a no-op and
// returns false when nothing is selected.
func (c *Controller) TogglePlayPause() bool {
	c.mu.Lock()
	if c.state.Selected == nil {
		c.mu.Unlock()
		return false
	}
	if c.state.Playing {
		c.out.Pause()
	} else {
		c.out.Play()
	}
	c.state.Playing = !c.state.Playing
	s := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(s)
	return true
}

// ToggleMute flips the mute flag and reapplies the effective volume. The
// stored volume is left alone.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	c.state.Muted = !c.state.Muted
	c.out.SetVolume(c.state.EffectiveVolume())
	s := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(s)
}

// SetVolume stores level clamped to [0,1]. A level of exactly 0 mutes, any
// other level unmutes.
func (c *Controller) SetVolume(level float64) {
	level = clampVolume(level)

	c.mu.Lock()
	c.state.Volume = level
	c.state.Muted = level == 0
	c.out.SetVolume(c.state.EffectiveVolume())
	s := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(s)
}

// ReportStreamError records a playback failure reported by the host for
// stationID. Reports for anything but the selected station are ignored.
func (c *Controller) ReportStreamError(stationID, message string) {
	c.mu.Lock()
	if c.state.Selected == nil || c.state.Selected.ID != stationID {
		c.mu.Unlock()
		return
	}
	if message == "" {
		message = "stream unavailable"
	}
	c.state.StreamError = message
	s := c.snapshotLocked()
	c.mu.Unlock()

	logger.Warn("host reported stream failure",
		logger.String("station", stationID),
		logger.String("message", message))
	c.notify(s)
}

func clampVolume(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
