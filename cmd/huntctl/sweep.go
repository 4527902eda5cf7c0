package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samirrijal/cityhunt/internal/core/ar"
	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// sweepStep is one heading of a 360° sweep and the targets visible there.
type sweepStep struct {
	Heading float64
	Visible []domain.Projection
}

// sweep turns a phone held at pitch through a full circle and records which
// targets are on screen at each heading.
func sweep(targets []domain.VirtualTarget, pitch, step float64, fov domain.FOV) []sweepStep {
	var out []sweepStep
	for h := 0.0; h < 360; h += step {
		o := &domain.Orientation{Heading: h, Pitch: pitch}
		out = append(out, sweepStep{Heading: h, Visible: ar.Visible(targets, o, fov)})
	}
	return out
}

func newSweepCmd() *cobra.Command {
	var (
		count int
		seed  int64
		step  float64
		pitch float64
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Place AR targets and show which are visible around a full turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if step <= 0 || step > 360 {
				return fmt.Errorf("--step must be in (0, 360]")
			}
			targets := ar.PlaceTargets(count, rand.New(rand.NewSource(seed)))

			var b strings.Builder
			b.WriteString(styleTitle.Render("Targets") + "\n")
			for _, t := range targets {
				fmt.Fprintf(&b, "%s %-20s bearing %6.1f°  elevation %5.1f°\n",
					t.Icon, t.Label, t.Bearing, t.Elevation)
			}
			b.WriteString("\n" + styleTitle.Render(fmt.Sprintf("Sweep at pitch %.0f°", pitch)) + "\n")

			seen := map[string]bool{}
			for _, s := range sweep(targets, pitch, step, ar.DefaultFOV) {
				ids := make([]string, 0, len(s.Visible))
				for _, p := range s.Visible {
					ids = append(ids, fmt.Sprintf("%s@(%.0f,%.0f)", p.TargetID, p.X, p.Y))
					seen[p.TargetID] = true
				}
				line := "-"
				if len(ids) > 0 {
					line = styleOK.Render(strings.Join(ids, " "))
				}
				fmt.Fprintf(&b, "%6.1f°  %s\n", s.Heading, line)
			}

			missing := 0
			for _, t := range targets {
				if !seen[t.ID] {
					missing++
				}
			}
			summary := styleOK.Render(fmt.Sprintf("all %d targets reachable", len(targets)))
			if missing > 0 {
				summary = styleFail.Render(fmt.Sprintf("%d targets never in view at this pitch", missing))
			}
			b.WriteString("\n" + summary)

			fmt.Fprintln(cmd.OutOrStdout(), styleBox.Render(b.String()))
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 3, "number of targets")
	cmd.Flags().Int64Var(&seed, "seed", 1, "placement seed")
	cmd.Flags().Float64Var(&step, "step", 15, "heading step in degrees")
	cmd.Flags().Float64Var(&pitch, "pitch", 0, "device pitch in degrees")
	return cmd
}
