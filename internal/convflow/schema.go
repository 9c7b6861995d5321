package convflow

// FieldKind is the widget kind of a schema field. The actual form rendering
// is the consumer's business; the schema is plain data.
type FieldKind string

const (
	FieldKindBool     FieldKind = "bool"
	FieldKindSelect   FieldKind = "select"
	FieldKindNumber   FieldKind = "number"
	FieldKindTemplate FieldKind = "template"
)

// SelectOption is one entry of a select field.
type SelectOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SchemaField describes one field of the options form.
type SchemaField struct {
	Name      string         `json:"name"`
	Kind      FieldKind      `json:"kind"`
	Required  bool           `json:"required,omitempty"`
	Default   any            `json:"default,omitempty"`
	Suggested any            `json:"suggested,omitempty"`
	Options   []SelectOption `json:"options,omitempty"`
	Min       *float64       `json:"min,omitempty"`
	Max       *float64       `json:"max,omitempty"`
}

// Schema is the ordered field list of the options form.
type Schema []SchemaField

// optionsSchema builds the form conditioned on the current options: the
// recommended base form, extended with model/agent selection and tuning
// numbers when recommended mode is off.
func optionsSchema(options Options, idList []string, memoryEnabled bool) Schema {
	apis := []SelectOption{
		{Label: "No control", Value: apiNoControl},
		{Label: "Assist", Value: "assist"},
	}

	schema := Schema{
		{
			Name:      FieldPrompt,
			Kind:      FieldKindTemplate,
			Suggested: suggestedOr(options, FieldPrompt, DefaultPrompt),
		},
		{
			Name:      FieldLLMAPI,
			Kind:      FieldKindSelect,
			Default:   apiNoControl,
			Suggested: options[FieldLLMAPI],
			Options:   apis,
		},
		{
			Name:     FieldRecommended,
			Kind:     FieldKindBool,
			Required: true,
			Default:  options[FieldRecommended] == true,
		},
	}

	if options[FieldRecommended] == true {
		return schema
	}

	ids := make([]SelectOption, 0, len(idList))
	for _, id := range idList {
		ids = append(ids, SelectOption{Label: id, Value: id})
	}

	if !memoryEnabled {
		schema = append(schema, SchemaField{
			Name:    FieldChatModel,
			Kind:    FieldKindSelect,
			Default: RecommendedChatModel,
			Options: ids,
		})
	} else {
		schema = append(schema, SchemaField{
			Name:    FieldAgent,
			Kind:    FieldKindSelect,
			Options: ids,
		})
	}

	schema = append(schema,
		SchemaField{
			Name:    FieldMaxTokens,
			Kind:    FieldKindNumber,
			Default: RecommendedMaxTokens,
			Min:     floatPtr(1),
			Max:     floatPtr(4096),
		},
		SchemaField{
			Name:    FieldTemperature,
			Kind:    FieldKindNumber,
			Default: RecommendedTemperature,
			Min:     floatPtr(0),
			Max:     floatPtr(1),
		},
		SchemaField{
			Name:    FieldTopP,
			Kind:    FieldKindNumber,
			Default: RecommendedTopP,
			Min:     floatPtr(0),
			Max:     floatPtr(1),
		},
	)

	return schema
}

func suggestedOr(options Options, key string, def any) any {
	if v, ok := options[key]; ok && v != nil {
		return v
	}
	return def
}

func floatPtr(v float64) *float64 { return &v }
