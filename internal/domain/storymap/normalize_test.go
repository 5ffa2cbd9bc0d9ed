package storymap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/StoryForge/internal/domain"
)

const sampleYAML = `
title: EV Charging
description: Find and pay for charging
epics:
  - title: Discovery
    features:
      - title: Station Search
        tasks:
          - title: Search nearby
            priority: HIGH
            effort: 3
            acceptance_criteria:
              - Stations are listed
              - ""
            supporting_requirements:
              - title: Map SDK
                type: Service_Integration
                technical_specs:
                  sdk_name: mapkit
              - title: Geo cache
                type: hardware
                priority: urgent
                technical_specs: none
          - title: "   "
            priority: critical
            acceptance_criteria: []
            supporting_requirements: []
      - "not a mapping"
  - 42
`

func TestNormalizeDefaults(t *testing.T) {
	raw, err := DecodeRaw([]byte(sampleYAML))
	require.NoError(t, err)

	d, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "EV Charging", d.Title)
	require.Len(t, d.Epics, 2)

	epic := d.Epics[0]
	assert.Equal(t, "Discovery", epic.Title)
	assert.Equal(t, "", epic.Description)
	require.Len(t, epic.Features, 2)

	tasks := epic.Features[0].Tasks
	require.Len(t, tasks, 2)

	first := tasks[0]
	assert.Equal(t, PriorityHigh, first.Priority)
	assert.Equal(t, "3", first.Effort)
	assert.Equal(t, []string{"Stations are listed"}, first.AcceptanceCriteria)
	require.Len(t, first.SupportingRequirements, 2)
	assert.Equal(t, RequirementServiceIntegration, first.SupportingRequirements[0].Type)
	assert.Equal(t, PriorityMedium, first.SupportingRequirements[0].Priority)
	assert.Equal(t, &TechnicalSpecs{SDKName: "mapkit"}, first.SupportingRequirements[0].TechnicalSpecs)
	assert.Equal(t, RequirementSoftwareDependency, first.SupportingRequirements[1].Type)
	assert.Equal(t, PriorityMedium, first.SupportingRequirements[1].Priority)
	assert.Nil(t, first.SupportingRequirements[1].TechnicalSpecs)

	second := tasks[1]
	assert.Equal(t, DefaultTaskTitle, second.Title)
	assert.Equal(t, PriorityMedium, second.Priority)
	assert.Equal(t, DefaultEffort, second.Effort)
	assert.Equal(t, []string{DefaultAcceptanceCriteria}, second.AcceptanceCriteria)
	assert.Nil(t, second.SupportingRequirements)

	assert.Equal(t, DefaultFeatureTitle, epic.Features[1].Title)
	assert.Empty(t, epic.Features[1].Tasks)

	assert.Equal(t, DefaultEpicTitle, d.Epics[1].Title)
	assert.Empty(t, d.Epics[1].Features)
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := map[string]any{
		"sample": sampleYAML,
		"minimal": `
title: T
description: ""
epics: []
`,
		"scalars": `
title: 2024
description: true
epics:
  - title: 7
    features:
      - tasks:
          - acceptance_criteria: [1, 2]
            priority: Low
`,
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			raw, err := DecodeRaw([]byte(in.(string)))
			require.NoError(t, err)

			once, err := Normalize(raw)
			require.NoError(t, err)
			twice, err := Normalize(once)
			require.NoError(t, err)
			assert.Equal(t, once, twice)

			ptr, err := Normalize(&once)
			require.NoError(t, err)
			assert.Equal(t, once, ptr)
		})
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{name: "nil", raw: nil},
		{name: "sequence", raw: []any{"a"}},
		{name: "string", raw: "title: x"},
		{name: "missing title", raw: map[string]any{"description": "d", "epics": []any{}}},
		{name: "blank title", raw: map[string]any{"title": "  ", "description": "d", "epics": []any{}}},
		{name: "missing description", raw: map[string]any{"title": "t", "epics": []any{}}},
		{name: "epics not a sequence", raw: map[string]any{"title": "t", "description": "d", "epics": "none"}},
		{name: "epics missing", raw: map[string]any{"title": "t", "description": "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedGeneration), "got %v", err)
		})
	}
}

func TestDecodeRawAcceptsJSON(t *testing.T) {
	raw, err := DecodeRaw([]byte(`{"title":"T","description":"D","epics":[{"title":"E","features":[]}]}`))
	require.NoError(t, err)

	d, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, d.Epics, 1)
	assert.Equal(t, "E", d.Epics[0].Title)
}

func TestDecodeRawInvalid(t *testing.T) {
	_, err := DecodeRaw([]byte("title: [unclosed"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedGeneration))
}

func TestDraftDocumentRoundTrip(t *testing.T) {
	raw, err := DecodeRaw([]byte(sampleYAML))
	require.NoError(t, err)
	draft, err := Normalize(raw)
	require.NoError(t, err)

	doc := draft.ToDocument("doc-9", fixedNow)
	require.NoError(t, doc.Validate())
	assert.Equal(t, "doc-9", doc.ID)
	assert.Equal(t, 1, doc.Epics[1].Order)

	ref := doc.Epics[0].Features[0].Tasks[0]
	assert.Equal(t, TypeTask, ref.Type)
	assert.Equal(t, StatusTodo, ref.Status)
	assert.Equal(t, "3", ref.EstimatedEffort)

	assert.Equal(t, draft, FromDocument(doc))
}

func TestToDocumentGeneratesID(t *testing.T) {
	d := Draft{Title: "T", Epics: []DraftEpic{}}
	doc := d.ToDocument("", fixedNow)
	assert.NotEmpty(t, doc.ID)
}
