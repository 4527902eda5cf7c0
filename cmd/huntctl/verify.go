package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/samirrijal/cityhunt/internal/adapters/sensors"
	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/core/usecases"
	"github.com/samirrijal/cityhunt/internal/pkg/geospatial"
	"github.com/samirrijal/cityhunt/internal/pkg/i18n"
)

func newVerifyCmd() *cobra.Command {
	var (
		target  string
		radius  float64
		failure string
		lang    string
		north   float64
		east    float64
	)

	cmd := &cobra.Command{
		Use:   "verify POSITION",
		Short: "Run a geofence check the way the API does",
		Long: `verify checks POSITION against a target geofence and prints the
localized player-facing message. --north/--east place the player relative
to the target instead of POSITION. Use --error to simulate a sensor failure
(permission_denied, position_unavailable, timeout, unsupported).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			center, err := parsePoint(target)
			if err != nil {
				return fmt.Errorf("--target: %w", err)
			}

			sensor := sensors.ReportedLocation{Failure: failure}
			if len(args) == 1 {
				pos, err := parsePoint(args[0])
				if err != nil {
					return err
				}
				sensor.Point = &pos
			} else if north != 0 || east != 0 {
				lat, lon := geospatial.OffsetMeters(center.Lat, center.Lon, north, east)
				sensor.Point = &domain.GeoPoint{Lat: lat, Lon: lon}
			} else if failure == "" {
				return fmt.Errorf("POSITION, --north/--east or --error is required")
			}

			svc := usecases.NewVerificationService(nil, nil, 10*time.Second)
			fence := domain.Geofence{Center: center, RadiusMeters: radius}
			res, err := svc.Verify(cmd.Context(), fence, sensor, i18n.Parse(lang))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderVerification(res))
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "-6.1754,106.8272", "geofence center as lat,lon")
	cmd.Flags().Float64Var(&radius, "radius", 500, "geofence radius in meters")
	cmd.Flags().StringVar(&failure, "error", "", "simulated sensor failure code")
	cmd.Flags().StringVar(&lang, "lang", "id", "message language")
	cmd.Flags().Float64Var(&north, "north", 0, "place the player this many meters north of the target")
	cmd.Flags().Float64Var(&east, "east", 0, "place the player this many meters east of the target")
	return cmd
}

func renderVerification(res *domain.VerificationResult) string {
	status := styleOK.Render("VERIFIED")
	if !res.Verified {
		status = styleFail.Render(string(res.Reason))
	}

	rows := []string{
		styleTitle.Render("Geofence check"),
		row("result", status),
		row("radius", i18n.RadiusLabel(res.RadiusMeters)),
	}
	if res.DistanceMeters != nil {
		rows = append(rows, row("distance", fmt.Sprintf("%.1f m", *res.DistanceMeters)))
	}
	if !res.Verified {
		rows = append(rows, row("retryable", fmt.Sprintf("%t", res.Retryable)))
	}
	rows = append(rows, row("message", res.Message))
	return styleBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
