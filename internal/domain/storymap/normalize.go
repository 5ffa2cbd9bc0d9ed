package storymap

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/StoryForge/internal/domain"
)

// Defaults substituted by Normalize for missing fields.
const (
	DefaultEpicTitle          = "Untitled Epic"
	DefaultFeatureTitle       = "Untitled Feature"
	DefaultTaskTitle          = "Untitled Task"
	DefaultEffort             = "2 days"
	DefaultAcceptanceCriteria = "Acceptance criteria to be defined"
)

// Draft is the loosely-typed "YAML form" of a story map exchanged with the
// generator. Normalize always returns a Draft where every field is populated.
type Draft struct {
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Epics       []DraftEpic `json:"epics" yaml:"epics"`
}

// DraftEpic is a phase in draft form.
type DraftEpic struct {
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description" yaml:"description"`
	Features    []DraftFeature `json:"features" yaml:"features"`
}

// DraftFeature is an activity in draft form.
type DraftFeature struct {
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Tasks       []DraftTask `json:"tasks" yaml:"tasks"`
}

// DraftTask is a user story in draft form.
type DraftTask struct {
	Title                  string             `json:"title" yaml:"title"`
	Description            string             `json:"description" yaml:"description"`
	Priority               Priority           `json:"priority" yaml:"priority"`
	Effort                 string             `json:"effort" yaml:"effort"`
	AcceptanceCriteria     []string           `json:"acceptance_criteria" yaml:"acceptance_criteria"`
	SupportingRequirements []DraftRequirement `json:"supporting_requirements,omitempty" yaml:"supporting_requirements,omitempty"`
}

// DraftRequirement is a supporting requirement in draft form.
type DraftRequirement struct {
	Title          string          `json:"title" yaml:"title"`
	Description    string          `json:"description" yaml:"description"`
	Type           RequirementType `json:"type" yaml:"type"`
	Priority       Priority        `json:"priority" yaml:"priority"`
	TechnicalSpecs *TechnicalSpecs `json:"technical_specs,omitempty" yaml:"technical_specs,omitempty"`
}

// DecodeRaw parses YAML or JSON bytes into an untyped value suitable for Normalize.
func DecodeRaw(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedGeneration, err)
	}
	return raw, nil
}

// Normalize validates and repairs an untrusted generation result. It fails
// only when the top-level shape is unusable; every nested omission is replaced
// by a default. Normalize is pure and idempotent, and accepts a Draft as input.
func Normalize(raw any) (Draft, error) {
	top, err := topLevel(raw)
	if err != nil {
		return Draft{}, err
	}

	title, ok := stringField(top, "title")
	if !ok || strings.TrimSpace(title) == "" {
		return Draft{}, fmt.Errorf("%w: missing title", domain.ErrMalformedGeneration)
	}
	description, ok := stringField(top, "description")
	if !ok {
		return Draft{}, fmt.Errorf("%w: missing description", domain.ErrMalformedGeneration)
	}
	epics, ok := top["epics"].([]any)
	if !ok {
		return Draft{}, fmt.Errorf("%w: epics is not a sequence", domain.ErrMalformedGeneration)
	}

	d := Draft{
		Title:       title,
		Description: description,
		Epics:       make([]DraftEpic, 0, len(epics)),
	}
	for _, e := range epics {
		d.Epics = append(d.Epics, normalizeEpic(asMap(e)))
	}
	return d, nil
}

func topLevel(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case Draft, *Draft:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedGeneration, err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedGeneration, err)
		}
		return m, nil
	}
	m := asMap(raw)
	if m == nil {
		return nil, fmt.Errorf("%w: top level is not a mapping", domain.ErrMalformedGeneration)
	}
	return m, nil
}

func normalizeEpic(m map[string]any) DraftEpic {
	e := DraftEpic{
		Title:       stringOr(m, "title", DefaultEpicTitle),
		Description: stringOr(m, "description", ""),
		Features:    []DraftFeature{},
	}
	if features, ok := m["features"].([]any); ok {
		for _, f := range features {
			e.Features = append(e.Features, normalizeFeature(asMap(f)))
		}
	}
	return e
}

func normalizeFeature(m map[string]any) DraftFeature {
	f := DraftFeature{
		Title:       stringOr(m, "title", DefaultFeatureTitle),
		Description: stringOr(m, "description", ""),
		Tasks:       []DraftTask{},
	}
	if tasks, ok := m["tasks"].([]any); ok {
		for _, t := range tasks {
			f.Tasks = append(f.Tasks, normalizeTask(asMap(t)))
		}
	}
	return f
}

func normalizeTask(m map[string]any) DraftTask {
	t := DraftTask{
		Title:              stringOr(m, "title", DefaultTaskTitle),
		Description:        stringOr(m, "description", ""),
		Priority:           normalizePriority(m["priority"]),
		Effort:             stringOr(m, "effort", DefaultEffort),
		AcceptanceCriteria: normalizeCriteria(m["acceptance_criteria"]),
	}
	if reqs, ok := m["supporting_requirements"].([]any); ok && len(reqs) > 0 {
		t.SupportingRequirements = make([]DraftRequirement, 0, len(reqs))
		for _, r := range reqs {
			t.SupportingRequirements = append(t.SupportingRequirements, normalizeRequirement(asMap(r)))
		}
	}
	return t
}

func normalizeRequirement(m map[string]any) DraftRequirement {
	r := DraftRequirement{
		Title:       stringOr(m, "title", ""),
		Description: stringOr(m, "description", ""),
		Type:        RequirementSoftwareDependency,
		Priority:    normalizePriority(m["priority"]),
	}
	if s, ok := asString(m["type"]); ok {
		if rt := RequirementType(strings.ToLower(strings.TrimSpace(s))); rt.Valid() {
			r.Type = rt
		}
	}
	if specs := asMap(m["technical_specs"]); specs != nil {
		r.TechnicalSpecs = &TechnicalSpecs{
			Version:          stringOr(specs, "version", ""),
			SDKName:          stringOr(specs, "sdk_name", ""),
			IntegrationType:  stringOr(specs, "integration_type", ""),
			APIEndpoint:      stringOr(specs, "api_endpoint", ""),
			DocumentationURL: stringOr(specs, "documentation_url", ""),
		}
	}
	return r
}

// NormalizePriority maps free-form input to a known priority, defaulting to medium.
func NormalizePriority(s string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

func normalizePriority(v any) Priority {
	s, _ := asString(v)
	return NormalizePriority(s)
}

func normalizeCriteria(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{DefaultAcceptanceCriteria}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := asString(item); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{DefaultAcceptanceCriteria}
	}
	return out
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out
	}
	return nil
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case uint64:
		return strconv.FormatUint(s, 10), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case time.Time:
		return s.Format(time.RFC3339), true
	}
	return "", false
}

func stringField(m map[string]any, key string) (string, bool) {
	return asString(m[key])
}

// stringOr returns the field as a string, or def when it is absent or blank.
func stringOr(m map[string]any, key, def string) string {
	if m == nil {
		return def
	}
	s, ok := asString(m[key])
	if !ok || (def != "" && strings.TrimSpace(s) == "") {
		return def
	}
	return s
}

// ToDocument converts a draft into a document with fresh entity IDs. An empty
// id generates a new document ID.
func (d *Draft) ToDocument(id string, now time.Time) *Document {
	if id == "" {
		id = NewID()
	}
	doc := &Document{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Epics:       make([]Epic, 0, len(d.Epics)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i := range d.Epics {
		de := &d.Epics[i]
		epic := Epic{
			ID:          NewID(),
			Title:       de.Title,
			Description: de.Description,
			Features:    make([]Feature, 0, len(de.Features)),
			Order:       i,
		}
		for j := range de.Features {
			df := &de.Features[j]
			feature := Feature{
				ID:          NewID(),
				Title:       df.Title,
				Description: df.Description,
				Tasks:       make([]UserStory, 0, len(df.Tasks)),
				Order:       j,
			}
			for k := range df.Tasks {
				feature.Tasks = append(feature.Tasks, df.Tasks[k].toStory(now))
			}
			epic.Features = append(epic.Features, feature)
		}
		doc.Epics = append(doc.Epics, epic)
	}
	return doc
}

func (t *DraftTask) toStory(now time.Time) UserStory {
	s := UserStory{
		ID:                 NewID(),
		Title:              t.Title,
		Description:        t.Description,
		Type:               TypeTask,
		Priority:           NormalizePriority(string(t.Priority)),
		Status:             StatusTodo,
		AcceptanceCriteria: append([]string{}, t.AcceptanceCriteria...),
		EstimatedEffort:    t.Effort,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if len(t.SupportingRequirements) > 0 {
		s.SupportingRequirements = make([]SupportingRequirement, len(t.SupportingRequirements))
		for i, r := range t.SupportingRequirements {
			req := SupportingRequirement{
				Title:       r.Title,
				Description: r.Description,
				Type:        r.Type,
				Priority:    r.Priority,
			}
			if r.TechnicalSpecs != nil {
				specs := *r.TechnicalSpecs
				req.TechnicalSpecs = &specs
			}
			s.SupportingRequirements[i] = req
		}
	}
	return s
}

// FromDocument projects a document back into draft form, e.g. to hand the
// current state to the generator as context.
func FromDocument(doc *Document) Draft {
	d := Draft{
		Title:       doc.Title,
		Description: doc.Description,
		Epics:       make([]DraftEpic, 0, len(doc.Epics)),
	}
	for i := range doc.Epics {
		e := &doc.Epics[i]
		de := DraftEpic{Title: e.Title, Description: e.Description, Features: make([]DraftFeature, 0, len(e.Features))}
		for j := range e.Features {
			f := &e.Features[j]
			df := DraftFeature{Title: f.Title, Description: f.Description, Tasks: make([]DraftTask, 0, len(f.Tasks))}
			for k := range f.Tasks {
				df.Tasks = append(df.Tasks, draftTask(&f.Tasks[k]))
			}
			de.Features = append(de.Features, df)
		}
		d.Epics = append(d.Epics, de)
	}
	return d
}

func draftTask(s *UserStory) DraftTask {
	t := DraftTask{
		Title:              s.Title,
		Description:        s.Description,
		Priority:           NormalizePriority(string(s.Priority)),
		Effort:             s.EstimatedEffort,
		AcceptanceCriteria: append([]string{}, s.AcceptanceCriteria...),
	}
	for _, r := range s.SupportingRequirements {
		dr := DraftRequirement{Title: r.Title, Description: r.Description, Type: r.Type, Priority: r.Priority}
		if r.TechnicalSpecs != nil {
			specs := *r.TechnicalSpecs
			dr.TechnicalSpecs = &specs
		}
		t.SupportingRequirements = append(t.SupportingRequirements, dr)
	}
	return t
}
