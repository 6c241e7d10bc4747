package ingester

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/artstore/artstore/pkg/capacitystatus"
	"github.com/artstore/artstore/pkg/redisdiscovery"
)

// RW and EDIT both floor their FULL threshold at 20GiB of free space
// regardless of percentage once total capacity is in the hundreds-of-GiB
// range, so fixtures here use a GiB-scale total to keep WouldFit
// meaningful rather than always failing against a token byte count.
const giB = 1 << 30

func newTestRegistry(t *testing.T) *redisdiscovery.Registry {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return redisdiscovery.NewRegistry(client)
}

func reportElement(t *testing.T, reg *redisdiscovery.Registry, el *redisdiscovery.StorageElement) {
	t.Helper()
	require.NoError(t, reg.Report(context.Background(), el))
}

func TestSelectorPicksLowestPriority(t *testing.T) {
	reg := newTestRegistry(t)
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-low", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 5, CapacityBytes: 500 * giB, UsedBytes: 0, CapacityStatus: redisdiscovery.CapacityOK,
	})
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-high", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 1, CapacityBytes: 500 * giB, UsedBytes: 0, CapacityStatus: redisdiscovery.CapacityOK,
	})

	sel := NewSelector(reg)
	el, err := sel.Select(context.Background(), 100<<20)
	require.NoError(t, err)
	require.Equal(t, "se-high", el.ID)
}

func TestSelectorBreaksPriorityTiesByID(t *testing.T) {
	reg := newTestRegistry(t)
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-b", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 3, CapacityBytes: 500 * giB, UsedBytes: 0, CapacityStatus: redisdiscovery.CapacityOK,
	})
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-a", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 3, CapacityBytes: 500 * giB, UsedBytes: 0, CapacityStatus: redisdiscovery.CapacityOK,
	})

	sel := NewSelector(reg)
	el, err := sel.Select(context.Background(), 100<<20)
	require.NoError(t, err)
	require.Equal(t, "se-a", el.ID)
}

func TestSelectorSkipsElementsThatWouldNotFit(t *testing.T) {
	reg := newTestRegistry(t)
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-tight", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 1, CapacityBytes: 500 * giB, UsedBytes: 489 * giB, CapacityStatus: redisdiscovery.CapacityWarning,
	})
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-roomy", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 2, CapacityBytes: 500 * giB, UsedBytes: 0, CapacityStatus: redisdiscovery.CapacityOK,
	})

	sel := NewSelector(reg)
	el, err := sel.Select(context.Background(), 100<<20)
	require.NoError(t, err)
	require.Equal(t, "se-roomy", el.ID)
}

func TestSelectorSkipsFullAndReadOnlyElements(t *testing.T) {
	reg := newTestRegistry(t)
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-full", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 1, CapacityBytes: 500 * giB, UsedBytes: 500 * giB, CapacityStatus: redisdiscovery.CapacityFull,
	})
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-ro", Mode: redisdiscovery.ModeRO, Status: redisdiscovery.StatusOnline,
		Priority: 1, CapacityBytes: 500 * giB, UsedBytes: 0, CapacityStatus: redisdiscovery.CapacityOK,
	})
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-ok", Mode: redisdiscovery.ModeEdit, Status: redisdiscovery.StatusOnline,
		Priority: 9, CapacityBytes: 500 * giB, UsedBytes: 0, CapacityStatus: redisdiscovery.CapacityOK,
	})

	sel := NewSelector(reg)
	el, err := sel.Select(context.Background(), 100<<20)
	require.NoError(t, err)
	require.Equal(t, "se-ok", el.ID)
}

func TestSelectorRejectsOversizeFileAtCriticalElement(t *testing.T) {
	reg := newTestRegistry(t)
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-critical", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 1, CapacityBytes: 500 * giB, UsedBytes: 0, CapacityStatus: redisdiscovery.CapacityCritical,
	})

	sel := NewSelector(reg)
	_, err := sel.Select(context.Background(), capacitystatus.CriticalOversizeLimit+1)
	require.True(t, errors.Is(err, ErrFileTooLargeForCritical))
}

func TestSelectorAllowsOversizeFileAtNonCriticalElement(t *testing.T) {
	reg := newTestRegistry(t)
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-ok", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 1, CapacityBytes: 500 * giB, UsedBytes: 0, CapacityStatus: redisdiscovery.CapacityOK,
	})

	sel := NewSelector(reg)
	el, err := sel.Select(context.Background(), capacitystatus.CriticalOversizeLimit+1)
	require.NoError(t, err)
	require.Equal(t, "se-ok", el.ID)
}

func TestSelectorReturnsNoEligibleElementWhenRegistryEmpty(t *testing.T) {
	reg := newTestRegistry(t)
	sel := NewSelector(reg)
	_, err := sel.Select(context.Background(), 100<<20)
	require.True(t, errors.Is(err, ErrNoEligibleElement))
}

func TestSelectorReportsCriticalOversizeWhenOtherCandidatesCannotFit(t *testing.T) {
	reg := newTestRegistry(t)
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-critical", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 1, CapacityBytes: 500 * giB, UsedBytes: 0, CapacityStatus: redisdiscovery.CapacityCritical,
	})
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-full", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 2, CapacityBytes: 500 * giB, UsedBytes: 500 * giB, CapacityStatus: redisdiscovery.CapacityFull,
	})

	sel := NewSelector(reg)
	_, err := sel.Select(context.Background(), capacitystatus.CriticalOversizeLimit+1)
	require.True(t, errors.Is(err, ErrFileTooLargeForCritical))
}

func TestSelectorZeroDeclaredSizeSkipsCapacityPreflight(t *testing.T) {
	reg := newTestRegistry(t)
	reportElement(t, reg, &redisdiscovery.StorageElement{
		ID: "se-tight", Mode: redisdiscovery.ModeRW, Status: redisdiscovery.StatusOnline,
		Priority: 1, CapacityBytes: 500 * giB, UsedBytes: 489 * giB, CapacityStatus: redisdiscovery.CapacityWarning,
	})

	sel := NewSelector(reg)
	el, err := sel.Select(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "se-tight", el.ID)
}
