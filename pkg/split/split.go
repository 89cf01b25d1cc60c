// Package split cuts a source image into a grid of numbered fragments.
package split

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PhantomInTheWire/image-fragmenter/pkg/label"
)

// WriteErrorMode selects how fragment save failures are handled.
type WriteErrorMode string

const (
	// WriteErrorAbort stops at the first failed save.
	WriteErrorAbort WriteErrorMode = "abort"
	// WriteErrorCollect attempts every fragment and reports all failures.
	WriteErrorCollect WriteErrorMode = "collect"
)

// Options configures Split. Zero values of the optional fields select png
// output, discard remainder, one worker, abort on write error and a red
// label. LabelOffset is used as given; DefaultLabelOffset matches the
// usual placement.
type Options struct {
	SourcePath   string
	OutputDir    string
	Grid         Grid
	Remainder    Remainder
	Format       string
	Font         label.FontSpec
	LabelOffset  image.Point
	LabelColor   color.Color
	Workers      int
	OnWriteError WriteErrorMode
	Logger       *zap.Logger
}

// DefaultLabelOffset places the label just inside the fragment's top-left corner.
var DefaultLabelOffset = image.Pt(10, 10)

// Report describes a completed run.
type Report struct {
	Source         string
	Width          int
	Height         int
	Grid           Grid
	FragmentWidth  int
	FragmentHeight int
	// Fragments lists the saved fragments in sequence order.
	Fragments    []Fragment
	FontFallback bool
}

// Count is the number of fragments written.
func (r *Report) Count() int { return len(r.Fragments) }

// FileName is the output file name of fragment seq.
func FileName(seq int, format string) string {
	return fmt.Sprintf("fragment_%d.%s", seq, format)
}

func (o *Options) normalize() error {
	if o.Grid.Rows < 1 || o.Grid.Cols < 1 {
		return fmt.Errorf("%w: grid %dx%d, rows and cols must be >= 1", ErrConfig, o.Grid.Rows, o.Grid.Cols)
	}
	if o.SourcePath == "" {
		return fmt.Errorf("%w: source path is empty", ErrConfig)
	}
	if o.OutputDir == "" {
		return fmt.Errorf("%w: output dir is empty", ErrConfig)
	}
	if o.Format == "" {
		o.Format = "png"
	}
	if _, err := imaging.FormatFromExtension(o.Format); err != nil {
		return fmt.Errorf("%w: output format %q: %v", ErrConfig, o.Format, err)
	}
	if o.Remainder == "" {
		o.Remainder = RemainderDiscard
	}
	if o.Workers == 0 {
		o.Workers = 1
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers %d must be positive", ErrConfig, o.Workers)
	}
	switch o.OnWriteError {
	case "":
		o.OnWriteError = WriteErrorAbort
	case WriteErrorAbort, WriteErrorCollect:
	default:
		return fmt.Errorf("%w: unknown write error mode %q", ErrConfig, o.OnWriteError)
	}
	if o.LabelColor == nil {
		o.LabelColor = color.NRGBA{R: 255, A: 255}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return nil
}

// Split crops the source image into opts.Grid fragments, labels each with
// its sequence number and saves them into opts.OutputDir.
func Split(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	log := opts.Logger

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output dir: %v", ErrFileWrite, err)
	}

	src, err := imaging.Open(opts.SourcePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, opts.SourcePath, err)
	}
	b := src.Bounds()
	log.Info("loaded image", zap.String("path", opts.SourcePath), zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))

	cells, fw, fh, err := Cells(opts.Grid, b.Dx(), b.Dy(), opts.Remainder)
	if err != nil {
		return nil, err
	}

	fnt := label.Resolve(opts.Font)
	if fnt.Fallback() {
		log.Warn("using built-in label font", zap.Error(fnt.Reason()))
	}

	results := make([]*Fragment, len(cells))
	failures := make([]error, len(cells))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range cells {
		if gctx.Err() != nil {
			break
		}
		cell := cells[i]
		cell.Bounds = cell.Bounds.Add(b.Min)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			saved, err := saveFragment(src, cell, fnt, opts)
			if err != nil {
				if opts.OnWriteError == WriteErrorCollect {
					log.Error("save fragment", zap.Int("seq", cell.Seq), zap.Error(err))
					failures[i] = err
					return nil
				}
				return err
			}
			log.Info("saved fragment", zap.Int("seq", saved.Seq), zap.String("path", saved.Path))
			results[i] = saved
			return nil
		})
	}
	waitErr := g.Wait()

	rep := &Report{
		Source:         opts.SourcePath,
		Width:          b.Dx(),
		Height:         b.Dy(),
		Grid:           opts.Grid,
		FragmentWidth:  fw,
		FragmentHeight: fh,
		FontFallback:   fnt.Fallback(),
	}
	for _, f := range results {
		if f != nil {
			rep.Fragments = append(rep.Fragments, *f)
		}
	}

	if waitErr != nil {
		return rep, waitErr
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	if err := errors.Join(failures...); err != nil {
		return rep, err
	}
	log.Info("split complete", zap.Int("count", rep.Count()), zap.String("dir", opts.OutputDir))
	return rep, nil
}

func saveFragment(src image.Image, cell Fragment, fnt label.Font, opts Options) (*Fragment, error) {
	tile := imaging.Crop(src, cell.Bounds)

	face := fnt.NewFace()
	defer face.Close()
	label.Draw(tile, strconv.Itoa(cell.Seq), opts.LabelOffset, opts.LabelColor, face)

	cell.Path = filepath.Join(opts.OutputDir, FileName(cell.Seq, opts.Format))
	if err := imaging.Save(tile, cell.Path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileWrite, cell.Path, err)
	}
	return &cell, nil
}
