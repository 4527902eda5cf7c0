package ar_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/cityhunt/internal/core/ar"
	"github.com/samirrijal/cityhunt/internal/core/domain"
)

func raw(alpha, beta float64) ar.RawOrientation {
	return ar.RawOrientation{Alpha: &alpha, Beta: &beta}
}

func TestCanonicalize(t *testing.T) {
	o := ar.Canonicalize(raw(370, 90))
	assert.InDelta(t, 10, o.Heading, 1e-9)
	assert.InDelta(t, 0, o.Pitch, 1e-9)

	o = ar.Canonicalize(raw(-30, 180))
	assert.InDelta(t, 330, o.Heading, 1e-9)
	assert.InDelta(t, -90, o.Pitch, 1e-9)

	o = ar.Canonicalize(ar.RawOrientation{})
	assert.Equal(t, domain.Orientation{Heading: 0, Pitch: 0}, o)

	o = ar.Canonicalize(raw(0, -120))
	assert.InDelta(t, 90, o.Pitch, 1e-9)
}

func TestTracker_SuppressesDuplicates(t *testing.T) {
	tr := ar.NewTracker(ar.AlwaysAvailable)

	var got []domain.Orientation
	sub := tr.Subscribe(func(o domain.Orientation) { got = append(got, o) })
	defer sub.Unsubscribe()

	assert.True(t, tr.Push(raw(10, 90)))
	assert.False(t, tr.Push(raw(10, 90)))
	assert.False(t, tr.Push(raw(370, 90)), "same heading modulo 360")
	assert.True(t, tr.Push(raw(11, 90)))

	require.Len(t, got, 2)
	emitted, suppressed := tr.Stats()
	assert.EqualValues(t, 2, emitted)
	assert.EqualValues(t, 2, suppressed)

	cur, ok := tr.Current()
	require.True(t, ok)
	assert.InDelta(t, 11, cur.Heading, 1e-9)
}

func TestTracker_NeedsGrant(t *testing.T) {
	tr := ar.NewTracker(ar.NeedsGrant)
	assert.False(t, tr.Active())
	assert.False(t, tr.Push(raw(10, 90)), "no updates before permission")
	_, ok := tr.Current()
	assert.False(t, ok)

	state, err := tr.RequestPermission(false)
	assert.Equal(t, ar.PermissionDenied, state)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.False(t, tr.Push(raw(10, 90)))

	state, err = tr.RequestPermission(true)
	require.NoError(t, err)
	assert.Equal(t, ar.PermissionGranted, state)
	assert.True(t, tr.Push(raw(10, 90)))
}

func TestTracker_Unsupported(t *testing.T) {
	tr := ar.NewTracker(ar.Unsupported)
	_, err := tr.RequestPermission(true)
	assert.True(t, errors.Is(err, domain.ErrUnsupported))
	assert.False(t, tr.Push(raw(1, 2)))
}

func TestTracker_StopReleasesSubscribers(t *testing.T) {
	tr := ar.NewTracker(ar.AlwaysAvailable)
	calls := 0
	sub := tr.Subscribe(func(domain.Orientation) { calls++ })

	tr.Push(raw(1, 90))
	tr.Stop()
	tr.Stop()
	assert.False(t, tr.Push(raw(2, 90)))
	assert.Equal(t, 1, calls)

	sub.Unsubscribe()
	sub.Unsubscribe()

	_, err := tr.RequestPermission(true)
	assert.ErrorIs(t, err, domain.ErrChallengeClosed)
}

func TestTracker_Unsubscribe(t *testing.T) {
	tr := ar.NewTracker(ar.AlwaysAvailable)
	calls := 0
	sub := tr.Subscribe(func(domain.Orientation) { calls++ })
	tr.Push(raw(1, 90))
	sub.Unsubscribe()
	tr.Push(raw(2, 90))
	assert.Equal(t, 1, calls)
}
