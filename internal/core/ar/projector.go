package ar

import (
	"math"

	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/pkg/geospatial"
)

// DefaultFOV is the camera field of view assumed for phone screens.
var DefaultFOV = domain.FOV{Horizontal: 50, Vertical: 45}

// Viewport mapping: angular deltas scale to ±spanX/±spanY around the center,
// then positions are kept inside a safe inset so icons never touch the edge.
const (
	viewCenter = 50.0
	spanX      = 45.0
	spanY      = 40.0
	minX, maxX = 5.0, 95.0
	minY, maxY = 10.0, 90.0
)

type screenPos struct{ X, Y float64 }

// Static layout used when no live orientation is available.
var fallbackLayout = []screenPos{
	{X: 20, Y: 35},
	{X: 50, Y: 55},
	{X: 80, Y: 40},
}

// FallbackPosition returns the fixed screen position for the target with the
// given 1-based index. Indices past the layout wrap around one row lower.
func FallbackPosition(index int) (x, y float64) {
	if index < 1 {
		return viewCenter, viewCenter
	}
	slot := fallbackLayout[(index-1)%len(fallbackLayout)]
	row := (index - 1) / len(fallbackLayout)
	return slot.X, geospatial.Clamp(slot.Y+float64(row)*15, minY, maxY)
}

// Project maps a target onto the viewport for the given orientation. A nil
// orientation yields the static fallback position, always in view.
func Project(t domain.VirtualTarget, o *domain.Orientation, fov domain.FOV) domain.Projection {
	if o == nil {
		x, y := FallbackPosition(t.Index)
		return domain.Projection{TargetID: t.ID, X: x, Y: y, InView: true, Fallback: true}
	}

	halfH := fov.Horizontal / 2
	halfV := fov.Vertical / 2

	dH := geospatial.Wrap180(t.Bearing - geospatial.Normalize360(o.Heading))
	dV := t.Elevation - o.Pitch

	inView := math.Abs(dH) < halfH && math.Abs(dV) < halfV

	// Screen Y grows downward, so targets above the line of sight get a smaller Y.
	x := viewCenter + (dH/halfH)*spanX
	y := viewCenter - (dV/halfV)*spanY

	return domain.Projection{
		TargetID: t.ID,
		X:        geospatial.Clamp(x, minX, maxX),
		Y:        geospatial.Clamp(y, minY, maxY),
		InView:   inView,
	}
}

// ProjectAll projects every target, in order.
func ProjectAll(targets []domain.VirtualTarget, o *domain.Orientation, fov domain.FOV) []domain.Projection {
	out := make([]domain.Projection, 0, len(targets))
	for _, t := range targets {
		out = append(out, Project(t, o, fov))
	}
	return out
}

// Visible returns projections for targets currently in view. Targets out of
// view are omitted entirely, so they cannot be tapped.
func Visible(targets []domain.VirtualTarget, o *domain.Orientation, fov domain.FOV) []domain.Projection {
	all := ProjectAll(targets, o, fov)
	out := all[:0]
	for _, p := range all {
		if p.InView {
			out = append(out, p)
		}
	}
	return out
}
