package storageelement

import (
	"context"
	"time"

	"github.com/artstore/artstore/pkg/capacitystatus"
	"github.com/artstore/artstore/pkg/metrics"
	"github.com/artstore/artstore/pkg/redisdiscovery"
)

// HealthReporter periodically mirrors an Element's liveness and capacity
// into the Redis topology registry so the ingester's selector and
// admin-module's snapshot stay current.
type HealthReporter struct {
	element  *Element
	registry *redisdiscovery.Registry

	id       string
	name     string
	apiURL   string
	priority uint16
	interval time.Duration

	status func() redisdiscovery.StorageElementStatus

	stop chan struct{}
	done chan struct{}
}

// HealthReporterConfig configures a HealthReporter.
type HealthReporterConfig struct {
	Name     string
	APIURL   string
	Priority uint16
	Interval time.Duration // defaults to 10s if zero

	// Status reports operational status beyond mode/capacity (ONLINE by
	// default); override to plumb in a liveness check for the WAL/cache
	// backends.
	Status func() redisdiscovery.StorageElementStatus
}

// NewHealthReporter builds a reporter bound to el and registry.
func NewHealthReporter(el *Element, registry *redisdiscovery.Registry, cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	status := cfg.Status
	if status == nil {
		status = func() redisdiscovery.StorageElementStatus { return redisdiscovery.StatusOnline }
	}

	return &HealthReporter{
		element:  el,
		registry: registry,
		id:       el.cfg.ElementID,
		name:     cfg.Name,
		apiURL:   cfg.APIURL,
		priority: cfg.Priority,
		interval: interval,
		status:   status,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// snapshot builds the current StorageElement report from live element state.
func (h *HealthReporter) snapshot() *redisdiscovery.StorageElement {
	mode := redisdiscovery.StorageMode(h.element.Mode().Current())
	used := h.element.UsedBytes()
	total := h.element.CapacityBytes()

	fileCount, err := h.element.FileCount()
	if err != nil {
		fileCount = 0
	}

	status := capacitystatus.Compute(mode, total, used)
	metrics.CapacityUsedBytes.Set(float64(used))
	metrics.CapacityStatus.Set(capacityStatusOrdinal(status))

	return &redisdiscovery.StorageElement{
		ID:             h.id,
		Name:           h.name,
		APIURL:         h.apiURL,
		Mode:           mode,
		Status:         h.status(),
		CapacityBytes:  total,
		UsedBytes:      used,
		FileCount:      fileCount,
		Priority:       h.priority,
		CapacityStatus: status,
	}
}

func capacityStatusOrdinal(s redisdiscovery.CapacityStatus) float64 {
	switch s {
	case redisdiscovery.CapacityWarning:
		return 1
	case redisdiscovery.CapacityCritical:
		return 2
	case redisdiscovery.CapacityFull:
		return 3
	default:
		return 0
	}
}

// ReportOnce publishes a single heartbeat immediately, useful right after
// startup or a mode transition instead of waiting for the next tick.
func (h *HealthReporter) ReportOnce(ctx context.Context) error {
	return h.registry.Report(ctx, h.snapshot())
}

// Run blocks, reporting on Interval until ctx is cancelled or Stop is
// called, then deregisters the element before returning.
func (h *HealthReporter) Run(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.ReportOnce(ctx)

	for {
		select {
		case <-ticker.C:
			h.ReportOnce(ctx)
		case <-h.stop:
			h.deregister()
			return
		case <-ctx.Done():
			h.deregister()
			return
		}
	}
}

// Stop signals Run to deregister the element and exit, blocking until it
// has.
func (h *HealthReporter) Stop() {
	close(h.stop)
	<-h.done
}

func (h *HealthReporter) deregister() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.registry.Deregister(ctx, h.id)
}
