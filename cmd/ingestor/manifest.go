package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// Manifest describes a hunt: the levels of one city pack.
type Manifest struct {
	Source string       `json:"source"`
	Levels []LevelEntry `json:"levels"`
}

// LevelEntry is one level in a manifest. Name and radius are optional.
type LevelEntry struct {
	ID           int     `json:"id"`
	Name         string  `json:"name,omitempty"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	RadiusMeters float64 `json:"radius_meters,omitempty"`
}

var errEmptyManifest = errors.New("manifest has no levels")

// ReadManifest loads a manifest from a file path or an http(s) URL.
func ReadManifest(ctx context.Context, client *http.Client, src string) (*Manifest, error) {
	var r io.ReadCloser
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("download: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, src)
		}
		r = resp.Body
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()

	return DecodeManifest(r)
}

// DecodeManifest parses a manifest. Unknown fields are rejected.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// ToLevels validates the manifest and returns its levels sorted by id. Missing
// names become "Level N" and missing radii take defaultRadius.
func (m *Manifest) ToLevels(defaultRadius float64) ([]domain.Level, error) {
	if len(m.Levels) == 0 {
		return nil, errEmptyManifest
	}

	seen := make(map[int]bool, len(m.Levels))
	levels := make([]domain.Level, 0, len(m.Levels))
	for i, e := range m.Levels {
		if e.ID < 1 {
			return nil, fmt.Errorf("level #%d: id must be positive, got %d", i, e.ID)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("level %d: duplicate id", e.ID)
		}
		seen[e.ID] = true

		if e.Lat < -90 || e.Lat > 90 || e.Lon < -180 || e.Lon > 180 {
			return nil, fmt.Errorf("level %d: coordinates out of range (%f, %f)", e.ID, e.Lat, e.Lon)
		}
		radius := e.RadiusMeters
		if radius == 0 {
			radius = defaultRadius
		}
		if radius <= 0 {
			return nil, fmt.Errorf("level %d: radius must be positive", e.ID)
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = fmt.Sprintf("Level %d", e.ID)
		}

		levels = append(levels, domain.Level{
			ID:           e.ID,
			Name:         name,
			Target:       domain.GeoPoint{Lat: e.Lat, Lon: e.Lon},
			RadiusMeters: radius,
		})
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].ID < levels[j].ID })
	for i, l := range levels {
		if l.ID != i+1 {
			return nil, fmt.Errorf("level ids must be contiguous from 1, missing %d", i+1)
		}
	}
	return levels, nil
}
