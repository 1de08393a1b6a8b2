package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayInfection OverlayID = "infection"
	OverlayCapacity  OverlayID = "capacity"
	OverlayVision    OverlayID = "vision"
	OverlayFlashes   OverlayID = "flashes"
	OverlayPerf      OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID        OverlayID
	Name      string
	Key       int32  // Keyboard key to toggle (0 = no key)
	KeyLabel  string // Key label for display (e.g., "S", "V")
	Category  string // Grouping (e.g., "visual", "debug")
	Default   bool
	Exclusive []OverlayID // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:       OverlayInfection,
		Name:     "Infection Colors",
		Key:      rl.KeyI,
		KeyLabel: "I",
		Category: "visual",
		Default:  true,
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayCapacity,
		Name:     "Capacity Map",
		Key:      rl.KeyC,
		KeyLabel: "C",
		Category: "visual",
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayFlashes,
		Name:     "Event Flashes",
		Key:      rl.KeyF,
		KeyLabel: "F",
		Category: "visual",
		Default:  true,
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayVision,
		Name:     "Line of Sight",
		Key:      rl.KeyV,
		KeyLabel: "V",
		Category: "selection",
		Default:  true,
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayPerf,
		Name:     "Perf Panel",
		Key:      rl.KeyP,
		KeyLabel: "P",
		Category: "debug",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	r.SetEnabled(id, !r.enabled[id])
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}
	r.enabled[id] = enabled
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// HandleKeyPresses toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleKeyPresses() {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			r.Toggle(desc.ID)
		}
	}
}
