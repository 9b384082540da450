package display

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

func images(keys ...string) []types.DisplayImage {
	out := make([]types.DisplayImage, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.DisplayImage{Key: k, URL: "https://signed.example/" + k, StudentName: k})
	}
	return out
}

type fakeSource struct {
	mu     sync.Mutex
	images []types.DisplayImage
	err    error
	calls  atomic.Int32
}

func (f *fakeSource) Fetch(context.Context) ([]types.DisplayImage, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.images, f.err
}

func (f *fakeSource) set(images []types.DisplayImage, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images, f.err = images, err
}

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) record(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return Snapshot{}
	}
	return r.snaps[len(r.snaps)-1]
}

func (r *recorder) seenIndex(i int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.snaps {
		if len(s.Images) > 0 && s.Index == i {
			return true
		}
	}
	return false
}

func start(t *testing.T, src Source, opts Options) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(src, opts).Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestStateReplaceResetsIndex(t *testing.T) {
	st := &state{}
	st.replace(images("a", "b", "c"))
	st.index = 2

	st.replace(images("a", "b"))
	assert.Equal(t, 0, st.index)

	st.index = 1
	st.replace(images("x", "y", "z"))
	assert.Equal(t, 1, st.index)
}

func TestStateNext(t *testing.T) {
	st := &state{}
	assert.False(t, st.next())

	st.replace(images("a"))
	assert.False(t, st.next())
	assert.Equal(t, 0, st.index)

	st.replace(images("a", "b", "c"))
	for _, want := range []int{1, 2, 0} {
		require.True(t, st.next())
		assert.Equal(t, want, st.index)
	}
}

func TestSnapshotCurrent(t *testing.T) {
	_, ok := Snapshot{}.Current()
	assert.False(t, ok)
	assert.True(t, Snapshot{}.Empty())

	img, ok := Snapshot{Images: images("a", "b"), Index: 1}.Current()
	require.True(t, ok)
	assert.Equal(t, "b", img.Key)
}

func TestSlideshowRotates(t *testing.T) {
	src := &fakeSource{images: images("a", "b", "c")}
	rec := &recorder{}
	_, _ = start(t, src, Options{Refresh: time.Hour, Advance: 5 * time.Millisecond, OnChange: rec.record})

	assert.Eventually(t, func() bool {
		return rec.seenIndex(1) && rec.seenIndex(2)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSlideshowRefreshReplacesImages(t *testing.T) {
	src := &fakeSource{images: images("a")}
	rec := &recorder{}
	_, _ = start(t, src, Options{Refresh: 10 * time.Millisecond, Advance: time.Hour, OnChange: rec.record})

	assert.Eventually(t, func() bool { return len(rec.last().Images) == 1 }, 2*time.Second, 5*time.Millisecond)

	src.set(images("x", "y"), nil)
	assert.Eventually(t, func() bool {
		snap := rec.last()
		return len(snap.Images) == 2 && snap.Images[0].Key == "x"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSlideshowKeepsImagesOnError(t *testing.T) {
	src := &fakeSource{images: images("a", "b")}
	rec := &recorder{}
	_, _ = start(t, src, Options{Refresh: 10 * time.Millisecond, Advance: time.Hour, OnChange: rec.record})

	assert.Eventually(t, func() bool { return len(rec.last().Images) == 2 }, 2*time.Second, 5*time.Millisecond)

	src.set(nil, errors.New("connection refused"))
	assert.Eventually(t, func() bool {
		snap := rec.last()
		return snap.Err != nil && len(snap.Images) == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSlideshowStopsOnCancel(t *testing.T) {
	src := &fakeSource{images: images("a", "b")}
	cancel, done := start(t, src, Options{Refresh: 5 * time.Millisecond, Advance: 5 * time.Millisecond})

	assert.Eventually(t, func() bool { return src.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("slideshow did not stop")
	}

	calls := src.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, src.calls.Load())
}

func TestNewDefaults(t *testing.T) {
	s := New(&fakeSource{}, Options{})
	assert.Equal(t, DefaultRefresh, s.refresh)
	assert.Equal(t, DefaultAdvance, s.advance)
}
