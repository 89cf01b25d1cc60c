package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PhantomInTheWire/image-fragmenter/pkg/config"
	"github.com/PhantomInTheWire/image-fragmenter/pkg/split"
)

type splitFlags struct {
	source       string
	out          string
	rows         int
	cols         int
	font         string
	fontSize     float64
	labelX       int
	labelY       int
	labelColor   string
	remainder    string
	format       string
	workers      int
	onWriteError string
}

func (f *splitFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.source, "source", "s", "", "source image path")
	fs.StringVarP(&f.out, "out", "o", "", "output directory")
	fs.IntVarP(&f.rows, "rows", "r", 0, "number of rows")
	fs.IntVarP(&f.cols, "cols", "c", 0, "number of columns")
	fs.StringVar(&f.font, "font", "", "preferred label font file")
	fs.Float64Var(&f.fontSize, "font-size", 0, "label font size in points")
	fs.IntVar(&f.labelX, "label-x", 0, "label x offset from the fragment's left edge")
	fs.IntVar(&f.labelY, "label-y", 0, "label y offset from the fragment's top edge")
	fs.StringVar(&f.labelColor, "label-color", "", "label colour name or #rrggbb")
	fs.StringVar(&f.remainder, "remainder", "", "leftover pixels: discard or distribute")
	fs.StringVar(&f.format, "format", "", "output format: png, jpg, gif, tif or bmp")
	fs.IntVarP(&f.workers, "workers", "w", 0, "fragments processed concurrently")
	fs.StringVar(&f.onWriteError, "on-write-error", "", "abort or collect")
}

func (f *splitFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("source") {
		cfg.SourcePath = f.source
	}
	if changed("out") {
		cfg.OutputDir = f.out
	}
	if changed("rows") {
		cfg.Rows = f.rows
	}
	if changed("cols") {
		cfg.Cols = f.cols
	}
	if changed("font") {
		cfg.FontPath = f.font
	}
	if changed("font-size") {
		cfg.FontSize = f.fontSize
	}
	if changed("label-x") {
		cfg.LabelOffsetX = f.labelX
	}
	if changed("label-y") {
		cfg.LabelOffsetY = f.labelY
	}
	if changed("label-color") {
		cfg.LabelColor = f.labelColor
	}
	if changed("remainder") {
		cfg.Remainder = f.remainder
	}
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("on-write-error") {
		cfg.OnWriteError = f.onWriteError
	}
}

func splitCmd(g *globalFlags) *cobra.Command {
	sf := &splitFlags{}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split the source image into numbered fragments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g, sf)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			_, err = runSplit(cmd, cfg, logger)
			return err
		},
	}
	sf.register(cmd)
	return cmd
}

func runSplit(cmd *cobra.Command, cfg config.Config, logger *zap.Logger) (*split.Report, error) {
	opts, err := cfg.SplitOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = logger

	rep, err := split.Split(cmd.Context(), opts)
	if rep != nil {
		printReport(cmd.OutOrStdout(), rep, cfg.OutputDir)
	}
	if err != nil {
		return rep, fmt.Errorf("split %s: %w", cfg.SourcePath, err)
	}
	return rep, nil
}

func printReport(w io.Writer, rep *split.Report, dir string) {
	fmt.Fprintf(w, "Loaded image: %s (%dx%d)\n", rep.Source, rep.Width, rep.Height)
	for _, f := range rep.Fragments {
		fmt.Fprintf(w, "Saved %s\n", f.Path)
	}
	fmt.Fprintf(w, "Done! %d fragments created in '%s'\n", rep.Count(), dir)
}
