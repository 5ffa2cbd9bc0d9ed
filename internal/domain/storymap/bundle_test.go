package storymap

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/StoryForge/internal/domain"
)

func TestBundleRoundTrip(t *testing.T) {
	docs := []Document{*sampleDocument()}

	data, err := EncodeBundle(docs, fixedNow)
	require.NoError(t, err)

	var b Bundle
	require.NoError(t, json.Unmarshal(data, &b))
	assert.Equal(t, BundleFormat, b.Format)
	assert.Equal(t, BundleVersion, b.Version)

	res, err := DecodeBundle(data, fixedNow)
	require.NoError(t, err)
	assert.Zero(t, res.Skipped)
	assert.Zero(t, res.Migrated)
	assert.Equal(t, docs, res.Documents)
}

func TestEncodeBundleEmpty(t *testing.T) {
	data, err := EncodeBundle(nil, fixedNow)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"documents": []`)
}

func TestDecodeBundleBareArray(t *testing.T) {
	data, err := json.Marshal([]Document{*sampleDocument()})
	require.NoError(t, err)

	res, err := DecodeBundle(data, fixedNow)
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "doc-1", res.Documents[0].ID)
}

func TestDecodeBundleRepairsAndSkips(t *testing.T) {
	payload := `[
	  {"id": "a", "title": "Repairable", "epics": [{"title": "", "features": [{"tasks": [{"title": "t"}]}]}]},
	  {"id": "b", "title": ""},
	  "garbage"
	]`

	res, err := DecodeBundle([]byte(payload), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Documents, 1)

	doc := res.Documents[0]
	assert.Equal(t, DefaultEpicTitle, doc.Epics[0].Title)
	s := doc.Epics[0].Features[0].Tasks[0]
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, PriorityMedium, s.Priority)
	assert.Equal(t, StatusTodo, s.Status)
	assert.Equal(t, TypeTask, s.Type)
	assert.Equal(t, DefaultEffort, s.EstimatedEffort)
	assert.Equal(t, []string{DefaultAcceptanceCriteria}, s.AcceptanceCriteria)
	assert.Equal(t, fixedNow, doc.CreatedAt)
}

func TestDecodeBundleLegacy(t *testing.T) {
	created := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	payload := `{
	  "storyMaps": [
	    {
	      "id": "legacy-1",
	      "createdAt": "2023-01-02T03:04:05Z",
	      "content": {"title": "Old map", "description": "from v0", "epics": [{"title": "E", "features": [{"title": "F", "tasks": [{"title": "T"}]}]}]}
	    },
	    {
	      "id": "legacy-2",
	      "content": "title: YAML map\ndescription: kept as text\nepics: []\n"
	    },
	    {
	      "id": "legacy-3",
	      "content": {"description": "no title"}
	    }
	  ]
	}`

	res, err := DecodeBundle([]byte(payload), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Migrated)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Documents, 2)

	first := res.Documents[0]
	assert.Equal(t, "legacy-1", first.ID)
	assert.Equal(t, created, first.CreatedAt)
	assert.Equal(t, fixedNow, first.UpdatedAt)
	assert.Equal(t, PriorityMedium, first.Epics[0].Features[0].Tasks[0].Priority)
	require.NoError(t, first.Validate())

	second := res.Documents[1]
	assert.Equal(t, "legacy-2", second.ID)
	assert.Equal(t, "YAML map", second.Title)
}

func TestDecodeBundleErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: "   "},
		{name: "not json", payload: "title: yaml"},
		{name: "unknown object", payload: `{"foo": 1}`},
		{name: "future version", payload: `{"format": "storyforge.bundle", "version": 9, "documents": []}`},
		{name: "broken array", payload: `[{"id": 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBundle([]byte(tt.payload), fixedNow)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
		})
	}
}
