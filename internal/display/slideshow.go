// Package display drives a carousel outside the browser: one timer replaces
// the image set from a Source, another advances the visible slide.
package display

import (
	"context"
	"time"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/logger"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

const (
	DefaultRefresh = 10 * time.Second
	DefaultAdvance = 8 * time.Second
)

// Source yields the current gallery.
type Source interface {
	Fetch(ctx context.Context) ([]types.DisplayImage, error)
}

// Snapshot is the display state after a change.
type Snapshot struct {
	Images    []types.DisplayImage
	Index     int
	UpdatedAt time.Time
	// Err is the last refresh failure. The previous images stay on screen.
	Err error
}

// Current returns the visible slide, if any.
func (s Snapshot) Current() (types.DisplayImage, bool) {
	if s.Index < 0 || s.Index >= len(s.Images) {
		return types.DisplayImage{}, false
	}
	return s.Images[s.Index], true
}

// Empty reports whether the placeholder should be shown.
func (s Snapshot) Empty() bool { return len(s.Images) == 0 }

type Options struct {
	Refresh time.Duration
	Advance time.Duration
	// OnChange receives every new snapshot from the owner goroutine.
	OnChange func(Snapshot)
}

// Slideshow owns the slide state. Run is its only goroutine that touches it.
type Slideshow struct {
	source   Source
	refresh  time.Duration
	advance  time.Duration
	onChange func(Snapshot)
}

// New constructs a Slideshow. Zero intervals fall back to the defaults.
func New(source Source, opts Options) *Slideshow {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	if opts.Advance <= 0 {
		opts.Advance = DefaultAdvance
	}
	if opts.OnChange == nil {
		opts.OnChange = func(Snapshot) {}
	}
	return &Slideshow{
		source:   source,
		refresh:  opts.Refresh,
		advance:  opts.Advance,
		onChange: opts.OnChange,
	}
}

type fetchResult struct {
	images []types.DisplayImage
	err    error
}

type state struct {
	images []types.DisplayImage
	index  int
	err    error
}

func (st *state) replace(images []types.DisplayImage) {
	st.images = images
	st.err = nil
	if st.index >= len(st.images) {
		st.index = 0
	}
}

// next moves to the following slide; a single image never moves.
func (st *state) next() bool {
	if len(st.images) <= 1 {
		return false
	}
	st.index = (st.index + 1) % len(st.images)
	return true
}

func (st *state) snapshot() Snapshot {
	images := make([]types.DisplayImage, len(st.images))
	copy(images, st.images)
	return Snapshot{Images: images, Index: st.index, UpdatedAt: time.Now(), Err: st.err}
}

// Run fetches immediately, then refreshes and advances on independent
// timers until ctx is cancelled. Cancellation stops both timers.
func (s *Slideshow) Run(ctx context.Context) error {
	logger.Info(ctx, "starting slideshow", logger.Fields{
		"refresh_interval": s.refresh.String(),
		"advance_interval": s.advance.String(),
	})

	refreshTicker := time.NewTicker(s.refresh)
	defer refreshTicker.Stop()
	advanceTicker := time.NewTicker(s.advance)
	defer advanceTicker.Stop()

	results := make(chan fetchResult, 1)
	inFlight := false
	fetch := func() {
		inFlight = true
		go func() {
			images, err := s.source.Fetch(ctx)
			select {
			case results <- fetchResult{images: images, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	st := &state{}
	s.onChange(st.snapshot())
	fetch()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "slideshow stopped")
			return ctx.Err()

		case <-refreshTicker.C:
			// A slow fetch is not stacked; the next tick retries.
			if !inFlight {
				fetch()
			}

		case res := <-results:
			inFlight = false
			if res.err != nil {
				if ctx.Err() != nil {
					continue
				}
				logger.Warn(ctx, "failed to refresh images", logger.Fields{"error": res.err.Error()})
				st.err = res.err
			} else {
				st.replace(res.images)
				logger.Debug(ctx, "images refreshed", logger.Fields{"count": len(st.images)})
			}
			s.onChange(st.snapshot())

		case <-advanceTicker.C:
			if st.next() {
				s.onChange(st.snapshot())
			}
		}
	}
}
