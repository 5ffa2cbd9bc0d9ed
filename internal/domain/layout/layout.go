// Package layout projects a story map document into a presentation board:
// phases, activities with their touchpoints, story cards and supporting-need
// cards, each card carrying a lane color.
package layout

import (
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/Strob0t/StoryForge/internal/domain/storymap"
	"github.com/Strob0t/StoryForge/internal/domain/touchpoint"
)

// Palette holds the lane colors.
var Palette = [12]string{
	"#4F86F7", "#F76C5E", "#34C38F", "#F7B731",
	"#8E6CEF", "#1ABC9C", "#E67E22", "#3D9BE9",
	"#E84393", "#27AE60", "#9B59B6", "#F39C12",
}

// Position locates a story card on the board. ActivityIndex counts
// activities across all phases.
type Position struct {
	ActivityIndex int
	StoryIndex    int
}

// ColorFor returns the lane color of a card. With a position the color is
// positional so neighbouring cards differ; otherwise it is derived from the id.
func ColorFor(id string, pos *Position) string {
	if pos != nil {
		return Palette[(pos.ActivityIndex*3+pos.StoryIndex)%len(Palette)]
	}
	return Palette[xxhash.Sum64String(id)%uint64(len(Palette))]
}

// Options control projection.
type Options struct {
	Prioritize bool `json:"prioritize"`
}

// Board is the projected view of one document.
type Board struct {
	DocumentID  string  `json:"documentId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Phases      []Phase `json:"phases"`
}

// Phase is the board column group for one epic.
type Phase struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Order       int        `json:"order"`
	Activities  []Activity `json:"activities"`
}

// Activity is the board column for one feature.
type Activity struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Index       int         `json:"index"`
	Touchpoints []string    `json:"touchpoints"`
	Stories     []StoryCard `json:"stories"`
	Needs       []NeedCard  `json:"needs"`
}

// StoryCard is one user story on the board.
type StoryCard struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Priority           storymap.Priority `json:"priority"`
	Status             storymap.Status   `json:"status"`
	EstimatedEffort    string            `json:"estimatedEffort"`
	AcceptanceCriteria []string          `json:"acceptanceCriteria"`
	Touchpoint         string            `json:"touchpoint"`
	Color              string            `json:"color"`
	NeedCount          int               `json:"needCount"`
}

// NeedCard is one supporting requirement, attached to the story it came from.
type NeedCard struct {
	Title          string                   `json:"title"`
	Description    string                   `json:"description"`
	Type           storymap.RequirementType `json:"type"`
	Priority       storymap.Priority        `json:"priority"`
	TechnicalSpecs *storymap.TechnicalSpecs `json:"technicalSpecs,omitempty"`
	StoryID        string                   `json:"storyId"`
	StoryTitle     string                   `json:"storyTitle"`
	Color          string                   `json:"color"`
}

// Project builds the board for doc. The document is not modified.
func Project(doc *storymap.Document, opts Options) *Board {
	b := &Board{
		DocumentID:  doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Phases:      make([]Phase, 0, len(doc.Epics)),
	}

	activityIndex := 0
	for i := range doc.Epics {
		e := &doc.Epics[i]
		phase := Phase{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Order:       i,
			Activities:  make([]Activity, 0, len(e.Features)),
		}
		for j := range e.Features {
			phase.Activities = append(phase.Activities, projectActivity(&e.Features[j], activityIndex, opts))
			activityIndex++
		}
		b.Phases = append(b.Phases, phase)
	}
	return b
}

func projectActivity(f *storymap.Feature, index int, opts Options) Activity {
	a := Activity{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Index:       index,
		Touchpoints: touchpoint.Unique(f.Tasks),
		Stories:     make([]StoryCard, 0, len(f.Tasks)),
		Needs:       []NeedCard{},
	}

	for k := range f.Tasks {
		s := &f.Tasks[k]
		color := ColorFor(s.ID, &Position{ActivityIndex: index, StoryIndex: k})
		a.Stories = append(a.Stories, StoryCard{
			ID:                 s.ID,
			Title:              s.Title,
			Description:        s.Description,
			Priority:           s.Priority,
			Status:             s.Status,
			EstimatedEffort:    s.EstimatedEffort,
			AcceptanceCriteria: append([]string{}, s.AcceptanceCriteria...),
			Touchpoint:         touchpoint.Infer(s).String(),
			Color:              color,
			NeedCount:          len(s.SupportingRequirements),
		})
		for _, r := range s.SupportingRequirements {
			need := NeedCard{
				Title:       r.Title,
				Description: r.Description,
				Type:        r.Type,
				Priority:    r.Priority,
				StoryID:     s.ID,
				StoryTitle:  s.Title,
				Color:       color,
			}
			if r.TechnicalSpecs != nil {
				specs := *r.TechnicalSpecs
				need.TechnicalSpecs = &specs
			}
			a.Needs = append(a.Needs, need)
		}
	}

	if opts.Prioritize {
		slices.SortStableFunc(a.Stories, func(x, y StoryCard) int {
			return y.Priority.Rank() - x.Priority.Rank()
		})
		slices.SortStableFunc(a.Needs, func(x, y NeedCard) int {
			return y.Priority.Rank() - x.Priority.Rank()
		})
	}
	return a
}

// Touchpoints returns the distinct touchpoint labels of the board in
// first-seen order.
func (b *Board) Touchpoints() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range b.Phases {
		for _, a := range p.Activities {
			for _, tp := range a.Touchpoints {
				if _, dup := seen[tp]; dup {
					continue
				}
				seen[tp] = struct{}{}
				out = append(out, tp)
			}
		}
	}
	return out
}

// FindNeedsForStory returns the need cards originating from the story.
func (b *Board) FindNeedsForStory(id string) []NeedCard {
	var out []NeedCard
	for _, p := range b.Phases {
		for _, a := range p.Activities {
			for _, n := range a.Needs {
				if n.StoryID == id {
					out = append(out, n)
				}
			}
		}
	}
	return out
}

// FindStory returns the card of the story with the given id.
func (b *Board) FindStory(id string) (StoryCard, bool) {
	for _, p := range b.Phases {
		for _, a := range p.Activities {
			for _, s := range a.Stories {
				if s.ID == id {
					return s, true
				}
			}
		}
	}
	return StoryCard{}, false
}
