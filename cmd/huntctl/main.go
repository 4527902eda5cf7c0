package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00CC88"))
	styleLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(14)
	styleOK    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF41"))
	styleFail  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF3300"))
	styleBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00AA66")).
			Padding(0, 1)
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "huntctl",
		Short: "huntctl - field tools for CityHunt levels",
		Long: `huntctl checks geofences and AR target layouts without a phone.

Coordinates are given as "lat,lon", e.g. -6.1754,106.8272.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newDistanceCmd(), newVerifyCmd(), newSweepCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// parsePoint parses "lat,lon".
func parsePoint(s string) (domain.GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.GeoPoint{}, fmt.Errorf("want lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.GeoPoint{}, fmt.Errorf("coordinates out of range: %s", s)
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, styleLabel.Render(label), value)
}
