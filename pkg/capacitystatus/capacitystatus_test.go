package capacitystatus

import (
	"testing"

	"github.com/artstore/artstore/pkg/redisdiscovery"
)

const gibBytes = int64(1) << 30

func TestComputeRWMode(t *testing.T) {
	total := int64(1000) * gibBytes // 1000 GiB

	cases := []struct {
		name      string
		usedBytes int64
		want      redisdiscovery.CapacityStatus
	}{
		{"plenty of room", total / 2, redisdiscovery.CapacityOK},
		{"below warning threshold (15%)", total - 140*gibBytes, redisdiscovery.CapacityWarning},
		{"below critical threshold (8%)", total - 70*gibBytes, redisdiscovery.CapacityCritical},
		{"below full threshold (2%)", total - 10*gibBytes, redisdiscovery.CapacityFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(redisdiscovery.ModeRW, total, tc.usedBytes)
			if got != tc.want {
				t.Errorf("Compute(RW, %d, %d) = %s, want %s", total, tc.usedBytes, got, tc.want)
			}
		})
	}
}

func TestComputeEditModeHasTighterThresholds(t *testing.T) {
	total := int64(1000) * gibBytes

	// 150 GiB free is comfortably OK for EDIT (warning at 100 GiB/10%)
	// but sits exactly on RW's warning threshold (150 GiB/15%), which is
	// inclusive, so RW reports WARNING at the same usage level.
	used := total - 150*gibBytes
	if got := Compute(redisdiscovery.ModeEdit, total, used); got != redisdiscovery.CapacityOK {
		t.Errorf("expected OK for EDIT with 150GiB free, got %s", got)
	}
	if got := Compute(redisdiscovery.ModeRW, total, used); got != redisdiscovery.CapacityWarning {
		t.Errorf("expected WARNING for RW with exactly 150GiB free (boundary), got %s", got)
	}
}

func TestComputeReadOnlyModesAreAlwaysOK(t *testing.T) {
	total := int64(100) * gibBytes
	for _, mode := range []redisdiscovery.StorageMode{redisdiscovery.ModeRO, redisdiscovery.ModeAR} {
		if got := Compute(mode, total, total); got != redisdiscovery.CapacityOK {
			t.Errorf("expected OK for fully-used %s, got %s", mode, got)
		}
	}
}

func TestComputeZeroCapacityIsFull(t *testing.T) {
	for _, mode := range []redisdiscovery.StorageMode{redisdiscovery.ModeRW, redisdiscovery.ModeEdit} {
		if got := Compute(mode, 0, 0); got != redisdiscovery.CapacityFull {
			t.Errorf("expected FULL for zero-capacity %s element, got %s", mode, got)
		}
	}
	// Read-only modes have no thresholds, so zero capacity stays OK.
	if got := Compute(redisdiscovery.ModeRO, 0, 0); got != redisdiscovery.CapacityOK {
		t.Errorf("expected OK for zero-capacity RO element, got %s", got)
	}
}

func TestComputeUsedBytesExceedingCapacityIsFull(t *testing.T) {
	total := int64(10) * gibBytes
	if got := Compute(redisdiscovery.ModeRW, total, total+gibBytes); got != redisdiscovery.CapacityFull {
		t.Errorf("expected FULL when used exceeds total, got %s", got)
	}
}
