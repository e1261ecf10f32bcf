package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"framepress/internal/processor"
	"framepress/internal/tui"
)

var detectCmd = &cobra.Command{
	Use:   "detect <path>",
	Short: "Group images into frame sequences and report missing frames",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("gap") {
			cfg.GapThreshold = detectGap
		}

		summary, reports, err := processor.Run(cmd.Context(), args[0], processor.Options{
			Mode:         processor.ModeDetect,
			GapThreshold: cfg.GapThreshold,
			Logger:       logger,
		}, nil)
		if err != nil {
			return err
		}

		for i, rep := range reports {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			printSequence(rep)
		}

		fmt.Fprintln(os.Stdout)
		fmt.Fprintln(os.Stdout, tui.RenderSummary([]tui.SummaryRow{
			{Label: "Images", Value: strconv.Itoa(summary.Images)},
			{Label: "Groups", Value: strconv.Itoa(summary.Sequences)},
			{Label: "Missing frames", Value: strconv.Itoa(summary.MissingFrames)},
			{Label: "Total size", Value: tui.FormatBytes(summary.OriginalBytes)},
		}))
		return nil
	},
}

var detectGap int

func printSequence(rep processor.SequenceReport) {
	kind := "single"
	if rep.IsSequence {
		kind = fmt.Sprintf("sequence, %d frames", len(rep.Images))
	}
	fmt.Fprintf(os.Stdout, "%s %s\n", seqNameStyle.Render(rep.BaseName), dimStyle.Render("("+kind+", "+tui.FormatBytes(rep.TotalOriginalSize)+")"))

	if rep.IsSequence {
		first, last := frameRange(rep)
		fmt.Fprintf(os.Stdout, "  %s %s\n", bulletStyle.Render("-"), valueStyle.Render(fmt.Sprintf("frames %d-%d", first, last)))
		if len(rep.MissingFrames) > 0 {
			fmt.Fprintf(os.Stdout, "  %s %s\n", bulletStyle.Render("-"), warnStyle.Render("missing: "+joinFrames(rep.MissingFrames)))
		}
		return
	}
	fmt.Fprintf(os.Stdout, "  %s %s\n", bulletStyle.Render("-"), valueStyle.Render(rep.Images[0].Name))
}

func frameRange(rep processor.SequenceReport) (int, int) {
	first, last, seen := 0, 0, false
	for _, img := range rep.Images {
		if !img.HasFrame {
			continue
		}
		if !seen || img.Frame < first {
			first = img.Frame
		}
		if !seen || img.Frame > last {
			last = img.Frame
		}
		seen = true
	}
	return first, last
}

// joinFrames collapses consecutive frames into ranges: 3, 7-9, 12.
func joinFrames(frames []int) string {
	var parts []string
	for i := 0; i < len(frames); {
		j := i
		for j+1 < len(frames) && frames[j+1] == frames[j]+1 {
			j++
		}
		if j == i {
			parts = append(parts, strconv.Itoa(frames[i]))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", frames[i], frames[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ", ")
}

var (
	seqNameStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	valueStyle   = lipgloss.NewStyle().Foreground(tui.ColorInk)
	warnStyle    = lipgloss.NewStyle().Foreground(tui.ColorWarn)
	dimStyle     = lipgloss.NewStyle().Foreground(tui.ColorDim)
	bulletStyle  = lipgloss.NewStyle().Foreground(tui.ColorDim)
	errStyle     = lipgloss.NewStyle().Foreground(tui.ColorError)
)

func init() {
	detectCmd.Flags().IntVar(&detectGap, "gap", 5, "largest frame step kept in one sequence")
	rootCmd.AddCommand(detectCmd)
}
