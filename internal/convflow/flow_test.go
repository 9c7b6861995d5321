package convflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModelLister struct {
	models []string
	err    error
}

func (f *fakeModelLister) ListModels(ctx context.Context) ([]string, error) {
	return f.models, f.err
}

type fakeMemory struct {
	backends []string
	agents   []string
	err      error
}

func (f *fakeMemory) ListBackends(ctx context.Context) ([]string, error) {
	return f.backends, f.err
}

func (f *fakeMemory) ListAgents(ctx context.Context, userID string) ([]string, error) {
	return f.agents, f.err
}

func newTestFlow(lister ModelLister, memory MemoryProber) *Flow {
	return &Flow{
		newModelClient: func(baseURL, apiKey string) ModelLister { return lister },
		memory:         memory,
		validate:       validator.New(),
		lastRendered:   make(map[string]bool),
	}
}

func validInput() UserInput {
	return UserInput{BaseURL: "https://api.openai.com/v1", APIKey: "sk-test"}
}

func TestValidateUserSuccess(t *testing.T) {
	flow := newTestFlow(&fakeModelLister{models: []string{"gpt-4o"}}, &fakeMemory{})

	entry, errs := flow.ValidateUser(context.Background(), validInput())
	require.Nil(t, errs)
	require.NotNil(t, entry)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "ChatGPT", entry.Title)
	assert.Equal(t, true, entry.Options[FieldRecommended])
	assert.Equal(t, DefaultPrompt, entry.Options[FieldPrompt])
}

func TestValidateUserInvalidAuth(t *testing.T) {
	flow := newTestFlow(&fakeModelLister{err: ErrInvalidAuth}, &fakeMemory{})

	entry, errs := flow.ValidateUser(context.Background(), validInput())
	assert.Nil(t, entry)
	assert.Equal(t, map[string]string{"base": ErrorInvalidAuth}, errs)
}

func TestValidateUserCannotConnect(t *testing.T) {
	wrapped := errors.Join(ErrCannotConnect, errors.New("connection refused"))
	flow := newTestFlow(&fakeModelLister{err: wrapped}, &fakeMemory{})

	_, errs := flow.ValidateUser(context.Background(), validInput())
	assert.Equal(t, map[string]string{"base": ErrorCannotConnect}, errs)
}

func TestValidateUserUnknownError(t *testing.T) {
	flow := newTestFlow(&fakeModelLister{err: errors.New("boom")}, &fakeMemory{})

	_, errs := flow.ValidateUser(context.Background(), validInput())
	assert.Equal(t, map[string]string{"base": ErrorUnknown}, errs)
}

func TestValidateUserRejectsBadInput(t *testing.T) {
	flow := newTestFlow(&fakeModelLister{}, &fakeMemory{})

	cases := []UserInput{
		{BaseURL: "", APIKey: "sk-test"},
		{BaseURL: "not a url", APIKey: "sk-test"},
		{BaseURL: "https://api.openai.com/v1", APIKey: ""},
	}
	for _, input := range cases {
		_, errs := flow.ValidateUser(context.Background(), input)
		assert.Equal(t, map[string]string{"base": ErrorInvalidInput}, errs)
	}
}

func TestValidateUserWithMemoryProbesMemoryServer(t *testing.T) {
	// The model API must not be consulted when memory is enabled.
	lister := &fakeModelLister{err: errors.New("should not be called")}
	memory := &fakeMemory{backends: []string{"openai"}}
	flow := newTestFlow(lister, memory)

	input := validInput()
	input.EnableMemory = true

	entry, errs := flow.ValidateUser(context.Background(), input)
	require.Nil(t, errs)
	assert.True(t, entry.Data.EnableMemory)
}

func TestOptionsStepInitialRecommendedForm(t *testing.T) {
	flow := newTestFlow(&fakeModelLister{models: []string{"gpt-4o"}}, &fakeMemory{})
	entry := &Entry{Data: validInput(), Options: RecommendedOptions()}

	res, err := flow.OptionsStep(context.Background(), entry, nil)
	require.NoError(t, err)
	require.Nil(t, res.Saved)

	// Recommended mode hides the advanced fields.
	names := fieldNames(res.Schema)
	assert.Equal(t, []string{FieldPrompt, FieldLLMAPI, FieldRecommended}, names)
}

func TestOptionsStepSaveWhenToggleUnchanged(t *testing.T) {
	flow := newTestFlow(&fakeModelLister{models: []string{"gpt-4o"}}, &fakeMemory{})
	entry := &Entry{Data: validInput(), Options: RecommendedOptions()}

	_, err := flow.OptionsStep(context.Background(), entry, nil)
	require.NoError(t, err)

	submitted := Options{
		FieldRecommended: true,
		FieldPrompt:      "Be concise.",
		FieldLLMAPI:      "assist",
	}
	res, err := flow.OptionsStep(context.Background(), entry, submitted)
	require.NoError(t, err)
	require.NotNil(t, res.Saved)
	assert.Equal(t, "Be concise.", res.Saved[FieldPrompt])
}

func TestOptionsStepSaveWithoutPriorRender(t *testing.T) {
	// No form was rendered for this entry yet; its stored options are the
	// reference, so a matching toggle saves directly.
	flow := newTestFlow(&fakeModelLister{models: []string{"gpt-4o"}}, &fakeMemory{})
	entry := &Entry{ID: "entry-a", Data: validInput(), Options: RecommendedOptions()}

	res, err := flow.OptionsStep(context.Background(), entry, Options{
		FieldRecommended: true,
		FieldPrompt:      "Be concise.",
		FieldLLMAPI:      "assist",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Saved)
	assert.Equal(t, "Be concise.", res.Saved[FieldPrompt])
}

func TestOptionsStepEntriesTrackToggleIndependently(t *testing.T) {
	flow := newTestFlow(&fakeModelLister{models: []string{"gpt-4o"}}, &fakeMemory{})
	entryA := &Entry{ID: "entry-a", Data: validInput(), Options: RecommendedOptions()}
	entryB := &Entry{ID: "entry-b", Data: validInput(), Options: Options{FieldRecommended: false}}

	// A renders its recommended form, then B renders its advanced form.
	_, err := flow.OptionsStep(context.Background(), entryA, nil)
	require.NoError(t, err)
	_, err = flow.OptionsStep(context.Background(), entryB, nil)
	require.NoError(t, err)

	// A's unchanged toggle still saves; B's rendering must not bleed into it.
	res, err := flow.OptionsStep(context.Background(), entryA, Options{
		FieldRecommended: true,
		FieldLLMAPI:      "assist",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Saved)

	// And B's unchanged toggle saves too.
	res, err = flow.OptionsStep(context.Background(), entryB, Options{
		FieldRecommended: false,
		FieldChatModel:   "gpt-4o",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Saved)
}

func TestOptionsStepFlipRerendersWithAdvancedFields(t *testing.T) {
	flow := newTestFlow(&fakeModelLister{models: []string{"gpt-4o", "gpt-4o-mini"}}, &fakeMemory{})
	entry := &Entry{Data: validInput(), Options: RecommendedOptions()}

	_, err := flow.OptionsStep(context.Background(), entry, nil)
	require.NoError(t, err)

	submitted := Options{
		FieldRecommended: false,
		FieldPrompt:      DefaultPrompt,
		FieldLLMAPI:      "assist",
	}
	res, err := flow.OptionsStep(context.Background(), entry, submitted)
	require.NoError(t, err)
	require.Nil(t, res.Saved, "a flipped toggle must re-render, not save")

	names := fieldNames(res.Schema)
	assert.Contains(t, names, FieldChatModel)
	assert.Contains(t, names, FieldMaxTokens)
	assert.Contains(t, names, FieldTemperature)
	assert.Contains(t, names, FieldTopP)
	assert.NotContains(t, names, FieldAgent)

	model := fieldByName(t, res.Schema, FieldChatModel)
	assert.Len(t, model.Options, 2)

	// The next submission with the same toggle saves.
	saveRes, err := flow.OptionsStep(context.Background(), entry, Options{
		FieldRecommended: false,
		FieldChatModel:   "gpt-4o",
	})
	require.NoError(t, err)
	assert.NotNil(t, saveRes.Saved)
}

func TestOptionsStepFallbackModelListWhenUnreachable(t *testing.T) {
	flow := newTestFlow(&fakeModelLister{err: ErrCannotConnect}, &fakeMemory{})
	entry := &Entry{
		Data:    validInput(),
		Options: Options{FieldRecommended: false},
	}

	res, err := flow.OptionsStep(context.Background(), entry, nil)
	require.NoError(t, err)

	model := fieldByName(t, res.Schema, FieldChatModel)
	require.Len(t, model.Options, 1)
	assert.Equal(t, RecommendedChatModel, model.Options[0].Value)
}

func TestOptionsStepMemoryEntryListsAgents(t *testing.T) {
	flow := newTestFlow(&fakeModelLister{}, &fakeMemory{agents: []string{"jarvis", "hal"}})
	input := validInput()
	input.EnableMemory = true
	entry := &Entry{
		Data:    input,
		Options: Options{FieldRecommended: false},
	}

	res, err := flow.OptionsStep(context.Background(), entry, nil)
	require.NoError(t, err)

	names := fieldNames(res.Schema)
	assert.Contains(t, names, FieldAgent)
	assert.NotContains(t, names, FieldChatModel)

	agent := fieldByName(t, res.Schema, FieldAgent)
	assert.Len(t, agent.Options, 2)
}

func TestOptionsStepSaveDropsNoControlAPI(t *testing.T) {
	flow := newTestFlow(&fakeModelLister{models: []string{"gpt-4o"}}, &fakeMemory{})
	entry := &Entry{Data: validInput(), Options: RecommendedOptions()}

	_, err := flow.OptionsStep(context.Background(), entry, nil)
	require.NoError(t, err)

	res, err := flow.OptionsStep(context.Background(), entry, Options{
		FieldRecommended: true,
		FieldLLMAPI:      apiNoControl,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Saved)

	_, present := res.Saved[FieldLLMAPI]
	assert.False(t, present, "the no-control sentinel must not be persisted")
}

func TestAPIClientListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"}]}`))
	}))
	defer srv.Close()

	models, err := NewAPIClient(srv.URL, "sk-test").ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, models)
}

func TestAPIClientListModelsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL, "bad-key").ListModels(context.Background())
	assert.ErrorIs(t, err, ErrInvalidAuth)
}

func TestMemoryClientListAgents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/agents/", r.URL.Path)
		assert.Equal(t, "user-1", r.Header.Get("user_id"))
		w.Write([]byte(`[{"name":"jarvis"},{"name":"hal"}]`))
	}))
	defer srv.Close()

	agents, err := NewMemoryClient(srv.URL).ListAgents(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"jarvis", "hal"}, agents)
}

func TestClassifyTransportError(t *testing.T) {
	err := classifyTransportError(errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, ErrCannotConnect)

	plain := errors.New("some app error")
	assert.Equal(t, plain, classifyTransportError(plain))
}

func fieldNames(s Schema) []string {
	names := make([]string, 0, len(s))
	for _, f := range s {
		names = append(names, f.Name)
	}
	return names
}

func fieldByName(t *testing.T, s Schema, name string) SchemaField {
	t.Helper()
	for _, f := range s {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("schema has no field %q", name)
	return SchemaField{}
}
