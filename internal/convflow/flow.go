package convflow

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Option and data field names shared with the HTTP API.
const (
	FieldBaseURL      = "base_url"
	FieldAPIKey       = "api_key"
	FieldEnableMemory = "enable_memory"
	FieldPrompt       = "prompt"
	FieldLLMAPI       = "llm_api"
	FieldRecommended  = "recommended"
	FieldChatModel    = "chat_model"
	FieldAgent        = "agent"
	FieldMaxTokens    = "max_tokens"
	FieldTemperature  = "temperature"
	FieldTopP         = "top_p"
)

// Recommended defaults.
const (
	RecommendedBaseURL     = "https://api.openai.com/v1"
	RecommendedChatModel   = "gpt-4o-mini"
	RecommendedMaxTokens   = 150
	RecommendedTemperature = 1.0
	RecommendedTopP        = 1.0

	// DefaultPrompt is the instructions prompt suggested for new entries.
	DefaultPrompt = "You are a voice assistant for a smart home. " +
		"Answer questions truthfully and keep responses simple and to the point."

	// apiNoControl is the sentinel select value meaning "no assist API".
	apiNoControl = "none"
)

// Error codes returned in the flow's errors map under the "base" key.
const (
	ErrorInvalidAuth   = "invalid_auth"
	ErrorCannotConnect = "cannot_connect"
	ErrorInvalidInput  = "invalid_input"
	ErrorUnknown       = "unknown"
)

// UserInput is the initial configuration step.
type UserInput struct {
	BaseURL      string `json:"base_url" validate:"required,url"`
	APIKey       string `json:"api_key" validate:"required"`
	EnableMemory bool   `json:"enable_memory"`
}

// Options holds the mutable options of a config entry.
type Options map[string]any

// Entry is a created configuration entry.
type Entry struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Data    UserInput `json:"data"`
	Options Options   `json:"options"`
}

// RecommendedOptions are the options a freshly created entry starts with.
func RecommendedOptions() Options {
	return Options{
		FieldRecommended: true,
		FieldLLMAPI:      "assist",
		FieldPrompt:      DefaultPrompt,
	}
}

// ModelLister validates credentials and lists model IDs.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// MemoryProber reaches the agent-memory server.
type MemoryProber interface {
	ListBackends(ctx context.Context) ([]string, error)
	ListAgents(ctx context.Context, userID string) ([]string, error)
}

// Flow drives credential validation and options-schema construction.
type Flow struct {
	newModelClient func(baseURL, apiKey string) ModelLister
	memory         MemoryProber
	validate       *validator.Validate

	mu sync.Mutex
	// lastRendered tracks, per entry, the recommended toggle as last shown,
	// so flipping it re-renders the form instead of saving. Until an entry's
	// form has been rendered its stored options are the reference.
	lastRendered map[string]bool
}

// NewFlow creates a flow backed by the real API clients.
func NewFlow(memory MemoryProber) *Flow {
	return &Flow{
		newModelClient: func(baseURL, apiKey string) ModelLister {
			return NewAPIClient(baseURL, apiKey)
		},
		memory:       memory,
		validate:     validator.New(),
		lastRendered: make(map[string]bool),
	}
}

// ValidateUser handles the initial step: validate the connection settings
// against the remote service and create an entry on success. On failure the
// returned map carries a single "base" error code.
func (f *Flow) ValidateUser(ctx context.Context, input UserInput) (*Entry, map[string]string) {
	if err := f.validate.Struct(input); err != nil {
		return nil, map[string]string{"base": ErrorInvalidInput}
	}

	var err error
	if !input.EnableMemory {
		// Just testing whether the connection works.
		_, err = f.newModelClient(input.BaseURL, input.APIKey).ListModels(ctx)
	} else {
		// With memory enabled the memory server is the one that must answer.
		_, err = f.memory.ListBackends(ctx)
	}

	if err != nil {
		return nil, map[string]string{"base": errorCode(err)}
	}

	return &Entry{
		ID:      uuid.NewString(),
		Title:   "ChatGPT",
		Data:    input,
		Options: RecommendedOptions(),
	}, nil
}

// StepResult is the outcome of an options step: either the submitted
// options were saved, or a (re-rendered) form schema must be shown.
type StepResult struct {
	Saved  Options `json:"saved,omitempty"`
	Schema Schema  `json:"schema,omitempty"`
}

// OptionsStep manages the options form. A nil submission renders the
// initial form. A submission whose recommended toggle matches the last
// rendered form is saved; a flipped toggle re-renders the form with the
// advanced fields shown or hidden.
func (f *Flow) OptionsStep(ctx context.Context, entry *Entry, submitted Options) (*StepResult, error) {
	options := entry.Options

	if submitted != nil {
		f.mu.Lock()
		last, rendered := f.lastRendered[entry.ID]
		f.mu.Unlock()
		if !rendered {
			last = entry.Options[FieldRecommended] == true
		}

		recommended, _ := submitted[FieldRecommended].(bool)
		if recommended == last {
			if submitted[FieldLLMAPI] == apiNoControl {
				delete(submitted, FieldLLMAPI)
			}
			return &StepResult{Saved: submitted}, nil
		}

		options = Options{
			FieldRecommended: recommended,
			FieldPrompt:      submitted[FieldPrompt],
			FieldLLMAPI:      submitted[FieldLLMAPI],
		}
	}

	var idList []string
	memoryEnabled := entry.Data.EnableMemory
	if !memoryEnabled {
		models, err := f.newModelClient(entry.Data.BaseURL, entry.Data.APIKey).ListModels(ctx)
		switch {
		case errors.Is(err, ErrCannotConnect):
			// Still render a usable form when the service is down.
			idList = []string{RecommendedChatModel}
		case err != nil:
			return nil, err
		default:
			idList = models
		}
	} else {
		agents, err := f.memory.ListAgents(ctx, "")
		if err != nil {
			log.Printf("convflow: listing agents failed: %v", err)
		} else {
			idList = agents
		}
	}

	f.mu.Lock()
	f.lastRendered[entry.ID] = options[FieldRecommended] == true
	f.mu.Unlock()

	return &StepResult{Schema: optionsSchema(options, idList, memoryEnabled)}, nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAuth):
		return ErrorInvalidAuth
	case errors.Is(err, ErrCannotConnect):
		return ErrorCannotConnect
	default:
		log.Printf("convflow: unexpected validation error: %v", err)
		return ErrorUnknown
	}
}
