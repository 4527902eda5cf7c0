package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/samirrijal/cityhunt/internal/pkg/geospatial"
	"github.com/samirrijal/cityhunt/internal/pkg/i18n"
)

func newDistanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distance FROM TO",
		Short: "Great-circle distance and initial bearing between two points",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parsePoint(args[0])
			if err != nil {
				return err
			}
			to, err := parsePoint(args[1])
			if err != nil {
				return err
			}

			dist := from.DistanceTo(to)
			bearing := geospatial.InitialBearing(from.Lat, from.Lon, to.Lat, to.Lon)

			out := lipgloss.JoinVertical(lipgloss.Left,
				styleTitle.Render("Distance"),
				row("meters", fmt.Sprintf("%.1f", dist)),
				row("label", i18n.RadiusLabel(dist)),
				row("bearing", fmt.Sprintf("%.1f°", bearing)),
			)
			fmt.Fprintln(cmd.OutOrStdout(), styleBox.Render(out))
			return nil
		},
	}
}
