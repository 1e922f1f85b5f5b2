package burst

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sidewinder5675/tm-photo-tools/internal/fsutil"
)

// Progress receives coarse progress of a run. Implementations must be safe
// for concurrent Advance calls.
type Progress interface {
	Start(label string, total int)
	Advance(n int)
	Done()
}

type nopProgress struct{}

func (nopProgress) Start(string, int) {}
func (nopProgress) Advance(int)       {}
func (nopProgress) Done()             {}

// checker is implemented by readers that depend on an external tool.
type checker interface {
	Check() error
}

// Report summarizes a finished run.
type Report struct {
	Frames    int
	Sequences []Sequence
	GIFs      []string
	Duration  time.Duration
}

// Config holds dependencies for a Processor.
type Config struct {
	Reader   MetadataReader
	Options  Options
	Logger   *slog.Logger
	Progress Progress
}

// Processor turns a folder of raw captures into burst GIFs.
type Processor struct {
	reader   MetadataReader
	opts     Options
	logger   *slog.Logger
	progress Progress
}

// NewProcessor creates a Processor. A nil Reader means ExifTool on PATH.
func NewProcessor(cfg Config) *Processor {
	p := &Processor{
		reader:   cfg.Reader,
		opts:     cfg.Options.withDefaults(),
		logger:   cfg.Logger,
		progress: cfg.Progress,
	}
	if p.reader == nil {
		p.reader = ExifTool{}
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.progress == nil {
		p.progress = nopProgress{}
	}
	return p
}

// Options returns the effective tuning.
func (p *Processor) Options() Options {
	return p.opts
}

// ProcessProject processes projectPath/RAWs into projectPath/GIFs.
func (p *Processor) ProcessProject(ctx context.Context, projectPath string) (Report, error) {
	return p.Process(ctx, projectPath, filepath.Join(projectPath, RawsDir))
}

// Process scans rawsPath for frames, groups them into bursts and writes
// one GIF per kept burst under outputPath/GIFs.
func (p *Processor) Process(ctx context.Context, outputPath, rawsPath string) (Report, error) {
	start := time.Now()
	var report Report

	if !fsutil.IsDir(rawsPath) {
		return report, fmt.Errorf("raw images folder does not exist: %s", rawsPath)
	}

	layout, err := MakeLayout(outputPath)
	if err != nil {
		return report, err
	}

	frames, err := FindFrames(rawsPath, p.opts.Extensions)
	if err != nil {
		return report, err
	}
	report.Frames = len(frames)
	if c, ok := p.reader.(checker); ok && len(frames) > 0 {
		if err := c.Check(); err != nil {
			return report, err
		}
	}
	p.logger.Info("processing images", slog.Int("count", len(frames)), slog.String("path", rawsPath))

	if err := p.readCaptureTimes(ctx, frames); err != nil {
		return report, err
	}

	report.Sequences = Group(frames, p.opts)
	for _, seq := range report.Sequences {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		gifPath, err := p.processSequence(ctx, layout, seq)
		if err != nil {
			return report, err
		}
		report.GIFs = append(report.GIFs, gifPath)
	}

	report.Duration = time.Since(start)
	p.logger.Info("completed processing",
		slog.Int("gifs", len(report.GIFs)),
		slog.Duration("duration", report.Duration))
	return report, nil
}

func (p *Processor) readCaptureTimes(ctx context.Context, frames []Frame) error {
	p.progress.Start("Reading capture times", len(frames))
	defer p.progress.Done()

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.opts.Workers)
	for i := range frames {
		eg.Go(func() error {
			t, err := p.reader.CaptureTime(egctx, frames[i].Path)
			if err != nil {
				return err
			}
			frames[i].CaptureTime = t
			p.progress.Advance(1)
			return nil
		})
	}
	return eg.Wait()
}

func (p *Processor) processSequence(ctx context.Context, layout Layout, seq Sequence) (string, error) {
	rawFolder := filepath.Join(layout.RawGIFs, seq.Name())
	exportFolder := filepath.Join(layout.GIFExports, seq.Name())
	for _, dir := range []string{rawFolder, exportFolder} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}

	p.progress.Start(fmt.Sprintf("Processing GIF %d", seq.Index), len(seq.Frames))
	copies := make([]Frame, len(seq.Frames))
	for i, f := range seq.Frames {
		dst := filepath.Join(rawFolder, f.Name())
		if _, err := fsutil.CopyFile(f.Path, dst); err != nil {
			p.progress.Done()
			return "", err
		}
		copies[i] = Frame{Path: dst, ModTime: f.ModTime, CaptureTime: f.CaptureTime}
		p.progress.Advance(1)
	}
	p.progress.Done()

	gifPath := filepath.Join(layout.FinishedGIFs, seq.FileName())
	p.logger.Info("creating gif",
		slog.Int("index", seq.Index),
		slog.Int("frames", len(seq.Frames)),
		slog.String("path", gifPath))

	if err := Render(ctx, p.reader, copies, gifPath, p.opts); err != nil {
		return "", err
	}
	return gifPath, nil
}
