package sensor

import "time"

// State is the mutable per-sensor-instance state. It is owned by exactly one
// entity and mutated only by Load.
type State struct {
	// Measured is the timestamp of the snapshot the state was last loaded
	// from; the dispatcher's freshness key.
	Measured time.Time
	// Value is the current value; nil means unset.
	Value any
	// EntityPicture is the condition image reference, condition/symbol
	// sensors only.
	EntityPicture string
	// Attributes is the side-channel attributes map, plain scalar sensors only.
	Attributes map[string]any
	// Timeframe is the precipitation forecast window in minutes, kept as
	// auxiliary state for precipitation sensors; not published as the value.
	Timeframe int
}
