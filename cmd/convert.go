package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"framepress/internal/config"
	"framepress/internal/processor"
	"framepress/internal/raster"
	"framepress/internal/tui"
)

var (
	convertOutputDir  string
	convertQuality    int
	convertLossless   bool
	convertPreset     string
	convertResize     string
	convertPercentage float64
	convertWidth      int
	convertHeight     int
	convertSharpen    int
	convertDenoise    int
	convertFormat     string
	convertFilter     string
	convertWorkers    int
	convertGap        int
	convertZip        bool
	convertFidelity   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <path>",
	Short: "Convert images to WebP, frame sequences included",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyConvertFlags(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		settings, err := cfg.Settings()
		if err != nil {
			return err
		}
		format, err := raster.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}
		filter, err := raster.ParseFilter(cfg.Filter)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(convertOutputDir, 0o755); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		useTUI := hasTerminal()
		updates := make(chan processor.ProgressUpdate, 64)
		uiDone := startProgress(updates, useTUI, stop)

		summary, reports, err := processor.Run(ctx, args[0], processor.Options{
			Mode:         processor.ModeConvert,
			OutputDir:    convertOutputDir,
			Settings:     settings,
			Format:       format,
			Filter:       filter,
			Workers:      cfg.Workers,
			GapThreshold: cfg.GapThreshold,
			Zip:          cfg.Zip,
			Fidelity:     cfg.Fidelity,
			Logger:       runLogger(logger, useTUI, logFile),
		}, updates)

		close(updates)
		<-uiDone
		if err != nil {
			return err
		}

		rows := []tui.SummaryRow{
			{Label: "Images", Value: strconv.Itoa(summary.Images)},
			{Label: "Sequences", Value: strconv.Itoa(countSequences(reports))},
			{Label: "Converted", Value: strconv.Itoa(summary.Converted)},
			{Label: "Errors", Value: strconv.Itoa(summary.Errors)},
			{Label: "Original size", Value: tui.FormatBytes(summary.OriginalBytes)},
			{Label: "Converted size", Value: tui.FormatBytes(summary.ConvertedBytes)},
			{Label: "Saved", Value: tui.FormatBytes(summary.BytesSaved())},
			{Label: "Metadata stripped", Value: strconv.Itoa(summary.MetadataStripped)},
			{Label: "Missing frames", Value: strconv.Itoa(summary.MissingFrames)},
		}
		if summary.Canceled > 0 {
			rows = append(rows, tui.SummaryRow{Label: "Canceled", Value: strconv.Itoa(summary.Canceled)})
		}
		if summary.ZipPath != "" {
			rows = append(rows, tui.SummaryRow{Label: "Archive", Value: summary.ZipPath})
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))

		printFailures(reports)
		if cfg.Fidelity {
			printFidelity(reports)
		}

		outPath := convertOutputDir
		if abs, absErr := filepath.Abs(convertOutputDir); absErr == nil {
			outPath = abs
		}
		fmt.Fprintf(os.Stdout, "Converted files written to: %s\n", pathStyle.Render(outPath))

		if ctx.Err() != nil {
			return fmt.Errorf("interrupted: %d of %d images finished", summary.Converted+summary.Errors, summary.Images)
		}
		return nil
	},
}

// applyConvertFlags overrides cfg with every flag the user actually set.
func applyConvertFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("preset") {
		cfg.Preset = convertPreset
	}
	if f.Changed("quality") {
		cfg.Quality = &convertQuality
	}
	if f.Changed("lossless") {
		cfg.Lossless = &convertLossless
	}
	if f.Changed("sharpen") {
		cfg.Sharpen = &convertSharpen
	}
	if f.Changed("denoise") {
		cfg.Denoise = &convertDenoise
	}
	if f.Changed("resize") {
		cfg.Resize.Mode = convertResize
	}
	if f.Changed("percentage") {
		cfg.Resize.Percentage = convertPercentage
	}
	if f.Changed("width") {
		cfg.Resize.Width = convertWidth
	}
	if f.Changed("height") {
		cfg.Resize.Height = convertHeight
	}
	if f.Changed("format") {
		cfg.Format = convertFormat
	}
	if f.Changed("filter") {
		cfg.Filter = convertFilter
	}
	if f.Changed("workers") {
		cfg.Workers = convertWorkers
	}
	if f.Changed("gap") {
		cfg.GapThreshold = convertGap
	}
	if f.Changed("zip") {
		cfg.Zip = convertZip
	}
	if f.Changed("fidelity") {
		cfg.Fidelity = convertFidelity
	}
}

func countSequences(reports []processor.SequenceReport) int {
	n := 0
	for _, rep := range reports {
		if rep.IsSequence {
			n++
		}
	}
	return n
}

func printFailures(reports []processor.SequenceReport) {
	for _, rep := range reports {
		header := false
		for _, img := range rep.Images {
			if img.Status != processor.StatusError || img.Canceled {
				continue
			}
			if !header {
				fmt.Fprintln(os.Stdout, seqNameStyle.Render(rep.BaseName))
				header = true
			}
			fmt.Fprintf(os.Stdout, "  %s %s\n", errStyle.Render("error"), img.Error)
		}
	}
}

func printFidelity(reports []processor.SequenceReport) {
	for _, rep := range reports {
		for _, img := range rep.Images {
			if img.Fidelity == nil {
				continue
			}
			fmt.Fprintf(os.Stdout, "%s %s\n", valueStyle.Render(img.Name), dimStyle.Render(fmt.Sprintf(
				"dE mean %.2f max %.2f, hue shift max %.2f deg",
				img.Fidelity.MeanDeltaE, img.Fidelity.MaxDeltaE, img.Fidelity.MaxHueShift)))
		}
	}
}

var pathStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)

func init() {
	f := convertCmd.Flags()
	f.StringVarP(&convertOutputDir, "output", "o", "converted", "destination folder for converted files")
	f.IntVarP(&convertQuality, "quality", "q", 85, "encode quality 0-100")
	f.BoolVar(&convertLossless, "lossless", false, "lossless encoding, ignores --quality")
	f.StringVar(&convertPreset, "preset", "custom", "web | photo | archive | small | custom")
	f.StringVar(&convertResize, "resize", "percentage", "percentage | width | height | exact")
	f.Float64Var(&convertPercentage, "percentage", 100, "scale for --resize percentage")
	f.IntVar(&convertWidth, "width", 0, "target width in pixels")
	f.IntVar(&convertHeight, "height", 0, "target height in pixels")
	f.IntVar(&convertSharpen, "sharpen", 0, "luminance sharpening 0-100")
	f.IntVar(&convertDenoise, "denoise", 0, "luminance denoise 0-100")
	f.StringVar(&convertFormat, "format", "webp", "output format: webp | jpeg | png")
	f.StringVar(&convertFilter, "filter", "lanczos", "resampling filter: lanczos | catmullrom")
	f.IntVar(&convertWorkers, "workers", 0, "parallel workers, 0 means one per CPU")
	f.IntVar(&convertGap, "gap", 5, "largest frame step kept in one sequence")
	f.BoolVar(&convertZip, "zip", false, "also bundle converted files into a zip")
	f.BoolVar(&convertFidelity, "fidelity", false, "report colour drift after luminance filtering")

	rootCmd.AddCommand(convertCmd)
}
