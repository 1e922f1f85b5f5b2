package burst

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // decode embedded previews and jpeg frames
	_ "image/png"  // decode png frames
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// exifTimeLayout is the EXIF DateTimeOriginal format.
const exifTimeLayout = "2006:01:02 15:04:05"

// ErrNoCaptureTime is returned when a file carries no DateTimeOriginal tag.
var ErrNoCaptureTime = errors.New("no capture time")

// ErrExifToolNotFound is returned when the exiftool binary is missing.
var ErrExifToolNotFound = errors.New("exiftool not found")

// MetadataReader reads what the pipeline needs from a frame file.
type MetadataReader interface {
	// CaptureTime returns the moment the frame was shot.
	CaptureTime(ctx context.Context, path string) (time.Time, error)
	// Preview decodes a displayable image of the frame.
	Preview(ctx context.Context, path string) (image.Image, error)
}

// ExifTool reads metadata and embedded previews with the exiftool binary.
// JPEG and PNG frames are decoded directly.
type ExifTool struct {
	// Path is the exiftool executable. Empty means "exiftool" on PATH.
	Path string
}

// Check returns an error wrapping ErrExifToolNotFound when the binary
// cannot be found.
func (e ExifTool) Check() error {
	if _, err := exec.LookPath(e.binary()); err != nil {
		return fmt.Errorf("%w: %q (install exiftool or set burst.exiftool)", ErrExifToolNotFound, e.binary())
	}
	return nil
}

// Available reports whether the exiftool binary can be found.
func (e ExifTool) Available() bool {
	return e.Check() == nil
}

func (e ExifTool) binary() string {
	if strings.TrimSpace(e.Path) == "" {
		return "exiftool"
	}
	return e.Path
}

// CaptureTime implements MetadataReader.
func (e ExifTool) CaptureTime(ctx context.Context, path string) (time.Time, error) {
	out, err := e.run(ctx, "-s3", "-DateTimeOriginal", path)
	if err != nil {
		return time.Time{}, fmt.Errorf("read EXIF data for %s: %w", path, err)
	}
	return parseCaptureTime(path, string(out))
}

func parseCaptureTime(path, raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	// Plain exiftool output is "Date/Time Original : 2024:05:01 10:11:12".
	if i := strings.LastIndex(value, ": "); i >= 0 && strings.Count(value, ":") > 4 {
		value = strings.TrimSpace(value[i+2:])
	}
	if value == "" {
		return time.Time{}, fmt.Errorf("read EXIF data for %s: %w", path, ErrNoCaptureTime)
	}
	t, err := time.ParseInLocation(exifTimeLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse capture time of %s: %w", path, err)
	}
	return t, nil
}

// Preview implements MetadataReader. Raw files yield their embedded JPEG
// preview, falling back to JpgFromRaw.
func (e ExifTool) Preview(ctx context.Context, path string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return decodeFile(path)
	}

	for _, tag := range []string{"-PreviewImage", "-JpgFromRaw"} {
		out, err := e.run(ctx, "-b", tag, path)
		if err != nil {
			return nil, fmt.Errorf("extract preview of %s: %w", path, err)
		}
		if len(out) == 0 {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(out))
		if err != nil {
			return nil, fmt.Errorf("decode preview of %s: %w", path, err)
		}
		return img, nil
	}
	return nil, fmt.Errorf("no embedded preview in %s", path)
}

func (e ExifTool) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.binary(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", e.binary(), err, msg)
		}
		return nil, fmt.Errorf("%s: %w", e.binary(), err)
	}
	return stdout.Bytes(), nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the scan
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
