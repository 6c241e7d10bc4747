package ingester

import (
	"context"
	"sort"

	"github.com/artstore/artstore/internal/telemetry"
	"github.com/artstore/artstore/pkg/capacitystatus"
	"github.com/artstore/artstore/pkg/redisdiscovery"
)

// Selector implements the sequential-fill-by-priority storage-element
// selection rule: enumerate the live, writable, non-full membership from
// the Redis registry, order by priority with a lexicographic element_id
// tie-break, and pick the first candidate that passes a capacity
// pre-flight check for the incoming file's declared size.
type Selector struct {
	registry *redisdiscovery.Registry
}

func NewSelector(registry *redisdiscovery.Registry) *Selector {
	return &Selector{registry: registry}
}

// Select returns the storage element an upload of declaredSize should be
// routed to. declaredSize may be 0 if the caller didn't supply a
// Content-Length; in that case the CRITICAL oversize rule can't reject on
// size and only the FULL-threshold check applies.
func (s *Selector) Select(ctx context.Context, declaredSize int64) (*redisdiscovery.StorageElement, error) {
	ctx, span := telemetry.StartSelectSpan(ctx, telemetry.FSSize(declaredSize))
	defer span.End()

	candidates, err := s.eligibleCandidates(ctx)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoEligibleElement
	}

	sortByPriorityThenID(candidates)

	sawCriticalOversize := false
	for _, el := range candidates {
		if el.CapacityStatus == redisdiscovery.CapacityCritical && declaredSize > capacitystatus.CriticalOversizeLimit {
			sawCriticalOversize = true
			continue
		}
		if declaredSize > 0 && !capacitystatus.WouldFit(el.Mode, el.CapacityBytes, el.UsedBytes, declaredSize) {
			continue
		}
		span.SetAttributes(
			telemetry.ElementID(el.ID),
			telemetry.Mode(string(el.Mode)),
			telemetry.CapacityStatus(string(el.CapacityStatus)),
		)
		return el, nil
	}

	if sawCriticalOversize {
		return nil, ErrFileTooLargeForCritical
	}
	return nil, ErrNoEligibleElement
}

// eligibleCandidates merges the EDIT and RW priority sets and resolves
// each member ID to its full reported state, skipping any whose hash has
// since expired (the element went offline between ZRANGE and HGETALL).
func (s *Selector) eligibleCandidates(ctx context.Context) ([]*redisdiscovery.StorageElement, error) {
	seen := make(map[string]bool)
	var candidates []*redisdiscovery.StorageElement

	for _, mode := range []redisdiscovery.StorageMode{redisdiscovery.ModeEdit, redisdiscovery.ModeRW} {
		ids, err := s.registry.EligibleMembers(ctx, mode)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true

			el, err := s.registry.Element(ctx, id)
			if err != nil {
				return nil, err
			}
			if el == nil {
				continue
			}
			candidates = append(candidates, el)
		}
	}
	return candidates, nil
}

func sortByPriorityThenID(els []*redisdiscovery.StorageElement) {
	sort.SliceStable(els, func(i, j int) bool {
		if els[i].Priority != els[j].Priority {
			return els[i].Priority < els[j].Priority
		}
		return els[i].ID < els[j].ID
	})
}
