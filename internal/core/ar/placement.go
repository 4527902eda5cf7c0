package ar

import (
	"fmt"
	"strconv"

	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/pkg/geospatial"
)

// RandSource yields uniform values in [0, 1). *math/rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

const (
	// Max lat/lon offset span in degrees (about ±33 m around the player).
	placementSpreadDeg = 0.0006
	// Elevation band in degrees, centered on the horizon.
	elevationBandDeg = 20.0
)

type targetTemplate struct {
	Kind  string
	Label string
	Icon  string
}

var targetTemplates = []targetTemplate{
	{Kind: "heritage", Label: "Historic Monument", Icon: "🏛️"},
	{Kind: "artifact", Label: "Ancient Artifact", Icon: "🗿"},
	{Kind: "landmark", Label: "City Landmark", Icon: "🏰"},
}

// PlaceTargets scatters count virtual targets around the player. Each target
// gets a bearing derived from a random north/east offset and an elevation
// within ±10° of the horizon. Calling it again produces a fresh set, so
// sessions must only call it once.
func PlaceTargets(count int, rng RandSource) []domain.VirtualTarget {
	if count <= 0 {
		return nil
	}

	targets := make([]domain.VirtualTarget, 0, count)
	for i := 0; i < count; i++ {
		tpl := targetTemplates[i%len(targetTemplates)]
		label := tpl.Label
		if round := i / len(targetTemplates); round > 0 {
			label = fmt.Sprintf("%s %d", tpl.Label, round+1)
		}

		north := (rng.Float64() - 0.5) * placementSpreadDeg
		east := (rng.Float64() - 0.5) * placementSpreadDeg
		elevation := (rng.Float64() - 0.5) * elevationBandDeg

		targets = append(targets, domain.VirtualTarget{
			ID:        strconv.Itoa(i + 1),
			Index:     i + 1,
			Kind:      tpl.Kind,
			Label:     label,
			Icon:      tpl.Icon,
			Bearing:   geospatial.BearingFromOffsets(north, east),
			Elevation: elevation,
		})
	}
	return targets
}
