package burst

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeReader serves capture times from a map keyed by file name and decodes
// frames from disk.
type fakeReader struct {
	mu    sync.Mutex
	times map[string]time.Time
	fail  map[string]error
}

func newFakeReader() *fakeReader {
	return &fakeReader{times: map[string]time.Time{}, fail: map[string]error{}}
}

func (r *fakeReader) set(name string, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times[name] = t
}

func (r *fakeReader) CaptureTime(_ context.Context, path string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := filepath.Base(path)
	if err := r.fail[name]; err != nil {
		return time.Time{}, err
	}
	t, ok := r.times[name]
	if !ok {
		return time.Time{}, fmt.Errorf("read EXIF data for %s: %w", path, ErrNoCaptureTime)
	}
	return t, nil
}

func (r *fakeReader) Preview(_ context.Context, path string) (image.Image, error) {
	return decodeFile(path)
}

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// writeFrame writes a small png whose modification time is mtime.
func writeFrame(t *testing.T, path string, w, h int, shade uint8, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x * 10), B: uint8(y * 10), A: 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// framesAt builds in-memory frames whose capture times are base + offsets.
func framesAt(offsets ...time.Duration) []Frame {
	frames := make([]Frame, len(offsets))
	for i, off := range offsets {
		frames[i] = Frame{
			Path:        fmt.Sprintf("IMG_%04d.CR3", i+1),
			CaptureTime: t0.Add(off),
		}
	}
	return frames
}

// burstOffsets returns n offsets step apart starting at from.
func burstOffsets(from time.Duration, n int, step time.Duration) []time.Duration {
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = from + time.Duration(i)*step
	}
	return out
}
