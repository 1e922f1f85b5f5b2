package burst

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	stddraw "image/draw"
	"image/gif"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Render decodes frames through reader, scales each so its longer side is
// opts.MaxSize, and writes them to dst as a looping GIF. Frames are placed
// in file-name order.
func Render(ctx context.Context, reader MetadataReader, frames []Frame, dst string, opts Options) error {
	opts = opts.withDefaults()
	if len(frames) == 0 {
		return fmt.Errorf("render %s: no frames", dst)
	}

	ordered := slices.Clone(frames)
	slices.SortStableFunc(ordered, func(a, b Frame) int {
		return strings.Compare(a.Name(), b.Name())
	})

	paletted := make([]*image.Paletted, len(ordered))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Workers)
	for i, f := range ordered {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			img, err := reader.Preview(egctx, f.Path)
			if err != nil {
				return err
			}
			paletted[i] = quantize(Resize(img, opts.MaxSize))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("render %s: %w", dst, err)
	}

	anim := &gif.GIF{
		Image:     paletted,
		Delay:     make([]int, len(paletted)),
		LoopCount: 0,
	}
	delay := delayCentiseconds(opts.FrameDelay)
	for i, p := range paletted {
		anim.Delay[i] = delay
		anim.Config.Width = max(anim.Config.Width, p.Bounds().Dx())
		anim.Config.Height = max(anim.Config.Height, p.Bounds().Dy())
	}

	return writeGIF(dst, anim)
}

// Resize scales img so that its longer side is maxSize, keeping the aspect
// ratio. Frames smaller than maxSize are scaled up.
func Resize(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}

	aspect := float64(w) / float64(h)
	var nw, nh int
	if w > h {
		nw = maxSize
		nh = int(float64(maxSize) / aspect)
	} else {
		nh = maxSize
		nw = int(float64(maxSize) * aspect)
	}
	nw, nh = max(nw, 1), max(nh, 1)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	stddraw.FloydSteinberg.Draw(p, p.Bounds(), img, b.Min)
	return p
}

// delayCentiseconds converts d to GIF delay units, at least one.
func delayCentiseconds(d time.Duration) int {
	return max(int(d/(10*time.Millisecond)), 1)
}

func writeGIF(dst string, anim *gif.GIF) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("render %s: %w", dst, err)
	}

	f, err := os.Create(dst) //nolint:gosec // dst is inside the project layout
	if err != nil {
		return fmt.Errorf("render %s: %w", dst, err)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	return f.Close()
}
