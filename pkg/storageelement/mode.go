package storageelement

import (
	"sync"
	"time"

	"github.com/artstore/artstore/pkg/redisdiscovery"
)

// Mode mirrors redisdiscovery.StorageMode locally so the write path can
// depend on this package alone.
type Mode = redisdiscovery.StorageMode

const (
	ModeEdit = redisdiscovery.ModeEdit
	ModeRW   = redisdiscovery.ModeRW
	ModeRO   = redisdiscovery.ModeRO
	ModeAR   = redisdiscovery.ModeAR
)

// Operation enumerates the write-path actions gated by the current mode.
type Operation string

const (
	OpCreate         Operation = "create"
	OpRead           Operation = "read"
	OpUpdateMetadata Operation = "update_metadata"
	OpDelete         Operation = "delete"
)

// permittedOps lists the operations allowed in each mode, per the state
// table: EDIT permits everything, RW drops delete, RO is read-only, AR is
// metadata-only (no byte reads of new content, but attribute reads/updates
// still resolve through read for simplicity of the archive case).
var permittedOps = map[Mode]map[Operation]bool{
	ModeEdit: {OpCreate: true, OpRead: true, OpUpdateMetadata: true, OpDelete: true},
	ModeRW:   {OpCreate: true, OpRead: true, OpUpdateMetadata: true},
	ModeRO:   {OpRead: true},
	ModeAR:   {OpRead: true, OpUpdateMetadata: true},
}

// apiTransitions enumerates the only legal API-driven mode transitions.
// EDIT is reachable only via operator restart + config change, and AR is
// terminal, so neither appears as a source of a transition here.
var apiTransitions = map[Mode]Mode{
	ModeRW: ModeRO,
	ModeRO: ModeAR,
}

// Permits reports whether the given mode allows the operation.
func Permits(mode Mode, op Operation) bool {
	return permittedOps[mode][op]
}

// CanTransitionTo reports whether target is a legal API-driven transition
// away from mode.
func CanTransitionTo(mode, target Mode) bool {
	allowed, ok := apiTransitions[mode]
	return ok && allowed == target
}

// Transition records a single mode change for the in-memory history.
type Transition struct {
	From      Mode      `json:"from"`
	To        Mode      `json:"to"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`
}

// ModeController holds the element's current mode and the in-memory
// transition history described in the state-machine design: every
// API-driven change appends an entry, never pruned during the process
// lifetime (the admin registry is the durable record).
type ModeController struct {
	mu      sync.RWMutex
	current Mode
	history []Transition
}

// NewModeController creates a controller fixed at the given starting mode,
// normally read from the element's configuration at startup.
func NewModeController(initial Mode) *ModeController {
	return &ModeController{current: initial}
}

// Current returns the element's current mode.
func (c *ModeController) Current() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Permits reports whether the current mode allows op.
func (c *ModeController) Permits(op Operation) bool {
	return Permits(c.Current(), op)
}

// Transition moves the controller to target if the transition is legal,
// recording it in the history. Returns ErrInvalidModeTransition otherwise.
func (c *ModeController) Transition(target Mode, reason string) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !CanTransitionTo(c.current, target) {
		return Transition{}, ErrInvalidModeTransition
	}

	t := Transition{From: c.current, To: target, Timestamp: time.Now(), Reason: reason}
	c.current = target
	c.history = append(c.history, t)
	return t, nil
}

// History returns a copy of every transition recorded so far, oldest first.
func (c *ModeController) History() []Transition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Transition, len(c.history))
	copy(out, c.history)
	return out
}
