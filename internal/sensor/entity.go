package sensor

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pegah-mashcool/buienradar-bridge/internal/buienradar"
)

// Publisher pushes a sensor state to an external observer. Implementations
// must be safe for concurrent use.
type Publisher interface {
	SetState(ctx context.Context, entityID string, state string, attributes map[string]any) error
}

// Entity binds one sensor spec to its state and pushes changes through the
// publisher. The dispatcher itself stays a pure function; the entity is the
// collaborator that performs the observer notification.
type Entity struct {
	spec      *Spec
	publisher Publisher

	entityID string
	uniqueID string

	mu    sync.RWMutex
	state State
}

// NewEntity creates an entity for the spec. name prefixes the entity ID;
// the coordinates make the unique ID stable per location.
func NewEntity(name string, latitude, longitude float64, spec *Spec, publisher Publisher) *Entity {
	return &Entity{
		spec:      spec,
		publisher: publisher,
		entityID:  "sensor." + slugify(name+"_"+spec.Key),
		uniqueID:  fmt.Sprintf("%2.6f%2.6f%s", latitude, longitude, spec.Key),
	}
}

// NewEntities creates one entity per spec in the table.
func NewEntities(name string, latitude, longitude float64, publisher Publisher) []*Entity {
	table := Specs()
	entities := make([]*Entity, 0, len(table))
	for i := range table {
		entities = append(entities, NewEntity(name, latitude, longitude, &table[i], publisher))
	}
	return entities
}

// DataUpdated loads the snapshot into the entity and, when the dispatcher
// reports a change, publishes the new state.
func (e *Entity) DataUpdated(ctx context.Context, snapshot *buienradar.Snapshot) {
	e.mu.Lock()
	changed := Load(snapshot, e.spec, &e.state)
	stateStr := formatValue(e.state.Value)
	attrs := e.publishedAttributesLocked()
	e.mu.Unlock()

	if !changed || e.publisher == nil {
		return
	}

	if err := e.publisher.SetState(ctx, e.entityID, stateStr, attrs); err != nil {
		log.Printf("sensor: publish %s failed: %v", e.entityID, err)
	}
}

// EntityID returns the published entity ID (sensor.<name>_<key>).
func (e *Entity) EntityID() string { return e.entityID }

// UniqueID returns the location-scoped unique ID.
func (e *Entity) UniqueID() string { return e.uniqueID }

// Key returns the sensor key.
func (e *Entity) Key() string { return e.spec.Key }

// Spec returns the immutable descriptor.
func (e *Entity) Spec() *Spec { return e.spec }

// Value returns the current value; nil when unset.
func (e *Entity) Value() any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Value
}

// Measured returns the timestamp of the last loaded snapshot.
func (e *Entity) Measured() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Measured
}

// Attributes returns the attributes as they would be published.
func (e *Entity) Attributes() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.publishedAttributesLocked()
}

func (e *Entity) publishedAttributesLocked() map[string]any {
	attrs := make(map[string]any, len(e.state.Attributes)+6)
	for k, v := range e.state.Attributes {
		attrs[k] = v
	}

	attrs["friendly_name"] = e.spec.Key
	if e.spec.Unit != "" {
		attrs["unit_of_measurement"] = e.spec.Unit
	}
	if e.spec.DeviceClass != DeviceClassNone {
		attrs["device_class"] = string(e.spec.DeviceClass)
	}
	if e.spec.Icon != "" {
		attrs["icon"] = e.spec.Icon
	}
	if e.state.EntityPicture != "" {
		attrs["entity_picture"] = e.state.EntityPicture
	}
	if e.state.Timeframe > 0 {
		attrs["timeframe"] = e.state.Timeframe
	}
	return attrs
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "unknown"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
