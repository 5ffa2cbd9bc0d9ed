// Package storymap contains the story map document model: phases (epics),
// activities (features), user stories and their supporting requirements,
// together with the normalizer that turns raw generator output into a document.
package storymap

import (
	"time"

	"github.com/google/uuid"
)

// Priority ranks a user story or supporting requirement.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the ordering weight used for priority sorting (high=3, medium=2, low=1).
// Unknown values rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Status is the lifecycle state of a user story.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// StoryType classifies a story entry.
type StoryType string

const (
	TypeEpic    StoryType = "epic"
	TypeFeature StoryType = "feature"
	TypeTask    StoryType = "task"
)

// RequirementType classifies a supporting requirement.
type RequirementType string

const (
	RequirementSoftwareDependency     RequirementType = "software_dependency"
	RequirementServiceIntegration     RequirementType = "service_integration"
	RequirementSecurityCompliance     RequirementType = "security_compliance"
	RequirementPerformanceRequirement RequirementType = "performance_requirement"
)

// Valid reports whether t is one of the known requirement types.
func (t RequirementType) Valid() bool {
	switch t {
	case RequirementSoftwareDependency, RequirementServiceIntegration,
		RequirementSecurityCompliance, RequirementPerformanceRequirement:
		return true
	}
	return false
}

// Document is a complete story map. It is always replaced as a whole.
type Document struct {
	ID          string    `json:"id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Epics       []Epic    `json:"epics" validate:"dive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Epic is one phase of the user journey.
type Epic struct {
	ID          string    `json:"id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Features    []Feature `json:"features" validate:"dive"`
	Order       int       `json:"order" validate:"gte=0"`
}

// Feature is one activity within a phase.
type Feature struct {
	ID          string      `json:"id" validate:"required"`
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description"`
	Tasks       []UserStory `json:"tasks" validate:"dive"`
	Order       int         `json:"order" validate:"gte=0"`
}

// UserStory is a single user-facing unit of work.
type UserStory struct {
	ID                     string                  `json:"id" validate:"required"`
	Title                  string                  `json:"title" validate:"required"`
	Description            string                  `json:"description"`
	Type                   StoryType               `json:"type" validate:"oneof=epic feature task"`
	Priority               Priority                `json:"priority" validate:"oneof=high medium low"`
	Status                 Status                  `json:"status" validate:"oneof=todo in-progress done"`
	AcceptanceCriteria     []string                `json:"acceptanceCriteria" validate:"min=1"`
	EstimatedEffort        string                  `json:"estimatedEffort" validate:"required"`
	SupportingRequirements []SupportingRequirement `json:"supportingRequirements,omitempty" validate:"dive"`
	Assignee               string                  `json:"assignee,omitempty"`
	Dependencies           []string                `json:"dependencies,omitempty"`
	CreatedAt              time.Time               `json:"createdAt"`
	UpdatedAt              time.Time               `json:"updatedAt"`
}

// SupportingRequirement is a technical dependency needed to deliver a story.
// It has no identity of its own and lives and dies with its story.
type SupportingRequirement struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Type           RequirementType `json:"type" validate:"oneof=software_dependency service_integration security_compliance performance_requirement"`
	Priority       Priority        `json:"priority" validate:"oneof=high medium low"`
	TechnicalSpecs *TechnicalSpecs `json:"technical_specs,omitempty"`
}

// TechnicalSpecs holds optional integration details of a supporting requirement.
type TechnicalSpecs struct {
	Version          string `json:"version" yaml:"version"`
	SDKName          string `json:"sdk_name" yaml:"sdk_name"`
	IntegrationType  string `json:"integration_type" yaml:"integration_type"`
	APIEndpoint      string `json:"api_endpoint" yaml:"api_endpoint"`
	DocumentationURL string `json:"documentation_url" yaml:"documentation_url"`
}

// Counts summarizes the size of a document.
type Counts struct {
	Epics           int `json:"epics"`
	Features        int `json:"features"`
	Stories         int `json:"stories"`
	SupportingNeeds int `json:"supporting_needs"`
}

// New returns an empty document with a fresh ID.
func New(title, description string, now time.Time) *Document {
	return &Document{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Epics:       []Epic{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// Counts returns the number of entities at each level of the tree.
func (d *Document) Counts() Counts {
	var c Counts
	c.Epics = len(d.Epics)
	for i := range d.Epics {
		c.Features += len(d.Epics[i].Features)
		for j := range d.Epics[i].Features {
			tasks := d.Epics[i].Features[j].Tasks
			c.Stories += len(tasks)
			for k := range tasks {
				c.SupportingNeeds += len(tasks[k].SupportingRequirements)
			}
		}
	}
	return c
}

// Renumber rewrites every Order field to match slice position.
func (d *Document) Renumber() {
	for i := range d.Epics {
		d.Epics[i].Order = i
		for j := range d.Epics[i].Features {
			d.Epics[i].Features[j].Order = j
		}
	}
}

// StoryRef locates a story inside a document.
type StoryRef struct {
	EpicIndex    int
	FeatureIndex int
	StoryIndex   int
	Story        *UserStory
}

// FindStory returns the location of the story with the given ID.
func (d *Document) FindStory(id string) (StoryRef, bool) {
	for i := range d.Epics {
		for j := range d.Epics[i].Features {
			tasks := d.Epics[i].Features[j].Tasks
			for k := range tasks {
				if tasks[k].ID == id {
					return StoryRef{EpicIndex: i, FeatureIndex: j, StoryIndex: k, Story: &tasks[k]}, true
				}
			}
		}
	}
	return StoryRef{}, false
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Epics = make([]Epic, len(d.Epics))
	for i := range d.Epics {
		out.Epics[i] = d.Epics[i].clone()
	}
	return &out
}

func (e *Epic) clone() Epic {
	out := *e
	out.Features = make([]Feature, len(e.Features))
	for i := range e.Features {
		out.Features[i] = e.Features[i].clone()
	}
	return out
}

func (f *Feature) clone() Feature {
	out := *f
	out.Tasks = make([]UserStory, len(f.Tasks))
	for i := range f.Tasks {
		out.Tasks[i] = f.Tasks[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the story.
func (s *UserStory) Clone() UserStory {
	out := *s
	out.AcceptanceCriteria = append([]string(nil), s.AcceptanceCriteria...)
	out.Dependencies = cloneStrings(s.Dependencies)
	if s.SupportingRequirements != nil {
		out.SupportingRequirements = make([]SupportingRequirement, len(s.SupportingRequirements))
		for i, r := range s.SupportingRequirements {
			if r.TechnicalSpecs != nil {
				specs := *r.TechnicalSpecs
				r.TechnicalSpecs = &specs
			}
			out.SupportingRequirements[i] = r
		}
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
