package httpapi

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/pegah-mashcool/buienradar-bridge/internal/bridge"
	"github.com/pegah-mashcool/buienradar-bridge/internal/convflow"
	"github.com/pegah-mashcool/buienradar-bridge/internal/sensor"
	"github.com/pegah-mashcool/buienradar-bridge/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *bridge.Service, entities []*sensor.Entity, flow *convflow.Flow) {
	entries := newEntryRegistry()
	v1 := app.Group("/api/v1")

	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		snapshot, err := service.GetLatest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no snapshot available yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch snapshot")
		}
		return c.JSON(snapshot)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshots, err := service.GetRange(req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no snapshot history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch snapshot history")
		}

		return c.JSON(fiber.Map{
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	v1.Get("/sensors", func(c *fiber.Ctx) error {
		out := make([]fiber.Map, 0, len(entities))
		for _, e := range entities {
			entry := fiber.Map{
				"key":       e.Key(),
				"entity_id": e.EntityID(),
				"value":     e.Value(),
			}
			if m := e.Measured(); !m.IsZero() {
				entry["measured"] = m
			}
			out = append(out, entry)
		}
		return c.JSON(fiber.Map{"sensors": out})
	})

	v1.Get("/sensors/:key", func(c *fiber.Ctx) error {
		key := c.Params("key")
		for _, e := range entities {
			if e.Key() != key {
				continue
			}
			return c.JSON(fiber.Map{
				"key":        e.Key(),
				"entity_id":  e.EntityID(),
				"value":      e.Value(),
				"attributes": e.Attributes(),
			})
		}
		return fiber.NewError(fiber.StatusNotFound, "unknown sensor key")
	})

	v1.Post("/conversation/validate", func(c *fiber.Ctx) error {
		var input convflow.UserInput
		if err := c.BodyParser(&input); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entry, flowErrors := flow.ValidateUser(c.Context(), input)
		if flowErrors != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": flowErrors})
		}

		entries.put(entry)
		return c.Status(fiber.StatusCreated).JSON(entry)
	})

	v1.Post("/conversation/:id/options", func(c *fiber.Ctx) error {
		entry := entries.get(c.Params("id"))
		if entry == nil {
			return fiber.NewError(fiber.StatusNotFound, "unknown config entry")
		}

		var submitted convflow.Options
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&submitted); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}

		result, err := flow.OptionsStep(c.Context(), entry, submitted)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}

		if result.Saved != nil {
			entries.saveOptions(entry.ID, result.Saved)
		}
		return c.JSON(result)
	})
}

// entryRegistry keeps created config entries for the options flow. Entry
// persistence beyond process lifetime is out of scope.
type entryRegistry struct {
	mu      sync.RWMutex
	entries map[string]*convflow.Entry
}

func newEntryRegistry() *entryRegistry {
	return &entryRegistry{entries: make(map[string]*convflow.Entry)}
}

func (r *entryRegistry) put(e *convflow.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.ID] = e
}

func (r *entryRegistry) get(id string) *convflow.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

func (r *entryRegistry) saveOptions(id string, options convflow.Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.Options = options
	}
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
