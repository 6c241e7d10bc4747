// Package capacitystatus computes the adaptive OK/WARNING/CRITICAL/FULL
// classification shared by the storage-element's health reporter (which
// publishes its own status into the Redis registry), the ingester's
// selector (which gates eligibility and applies the CRITICAL oversize
// rule), and the admin-module's topology snapshot.
package capacitystatus

import "github.com/artstore/artstore/pkg/redisdiscovery"

// thresholds expresses a mode's warning/critical/full cutoffs as
// max(total*pct, min_free_bytes), so small elements get a floor in
// absolute bytes and large ones scale with capacity.
type thresholds struct {
	warningPct, warningMinFreeGB   float64
	criticalPct, criticalMinFreeGB float64
	fullPct, fullMinFreeGB         float64
}

const gib = 1 << 30

var modeThresholds = map[redisdiscovery.StorageMode]thresholds{
	redisdiscovery.ModeRW: {
		warningPct: 0.15, warningMinFreeGB: 150,
		criticalPct: 0.08, criticalMinFreeGB: 80,
		fullPct: 0.02, fullMinFreeGB: 20,
	},
	redisdiscovery.ModeEdit: {
		warningPct: 0.10, warningMinFreeGB: 100,
		criticalPct: 0.05, criticalMinFreeGB: 50,
		fullPct: 0.02, fullMinFreeGB: 20,
	},
}

// Compute classifies a storage element's current usage. Read-only modes
// (RO, AR) have no thresholds and are always OK — they can never be FULL,
// since they don't accept new writes.
func Compute(mode redisdiscovery.StorageMode, totalBytes, usedBytes int64) redisdiscovery.CapacityStatus {
	t, ok := modeThresholds[mode]
	if !ok {
		return redisdiscovery.CapacityOK
	}
	// A writable element with no capacity has no room by definition.
	if totalBytes <= 0 {
		return redisdiscovery.CapacityFull
	}

	free := totalBytes - usedBytes
	if free < 0 {
		free = 0
	}

	fullThreshold := maxFloat(float64(totalBytes)*t.fullPct, t.fullMinFreeGB*gib)
	if float64(free) <= fullThreshold {
		return redisdiscovery.CapacityFull
	}

	criticalThreshold := maxFloat(float64(totalBytes)*t.criticalPct, t.criticalMinFreeGB*gib)
	if float64(free) <= criticalThreshold {
		return redisdiscovery.CapacityCritical
	}

	warningThreshold := maxFloat(float64(totalBytes)*t.warningPct, t.warningMinFreeGB*gib)
	if float64(free) <= warningThreshold {
		return redisdiscovery.CapacityWarning
	}

	return redisdiscovery.CapacityOK
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// fullThresholdBytes returns the free-bytes floor below which an element
// of this mode is FULL. Read-only modes have no floor (they never accept
// writes, so the ingester's pre-flight check never applies to them).
func fullThresholdBytes(mode redisdiscovery.StorageMode, totalBytes int64) (float64, bool) {
	t, ok := modeThresholds[mode]
	if !ok {
		return 0, false
	}
	return maxFloat(float64(totalBytes)*t.fullPct, t.fullMinFreeGB*gib), true
}

// WouldFit reports whether admitting incomingBytes would still leave this
// element at or above its FULL floor. Used by the ingester's selector as
// a capacity pre-flight check before committing to a storage element.
func WouldFit(mode redisdiscovery.StorageMode, totalBytes, usedBytes, incomingBytes int64) bool {
	threshold, ok := fullThresholdBytes(mode, totalBytes)
	if !ok {
		return true
	}
	freeAfter := float64(totalBytes - usedBytes - incomingBytes)
	return freeAfter >= threshold
}

// CriticalOversizeLimit is the maximum upload size admitted to an element
// reporting CRITICAL capacity status. The limit applies only at
// CRITICAL, not WARNING.
const CriticalOversizeLimit = 100 << 20 // 100 MiB
