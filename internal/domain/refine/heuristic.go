package refine

import (
	"strings"
	"time"

	"github.com/Strob0t/StoryForge/internal/domain/keyword"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

// Markers applied by the modify heuristic.
const (
	RevisedPrefix = "[Revised] "
	RevisedSuffix = " (revised per feedback)"
)

var (
	featureNouns = keyword.New("活动", "功能", "activity", "activities", "feature", "features")
	epicNouns    = keyword.New("阶段", "史诗", "phase", "phases", "epic", "epics")
	allNouns     = keyword.New("所有", "全部", "all", "everything")

	revisedFeature = featureSpec{
		title:       "Revised Activity",
		description: "Activity added while revising this phase",
		tasks: []taskSpec{
			{title: "Walk through the revised flow", actor: "user", action: "go through the revised flow", outcome: "the change is usable end to end", priority: storymap.PriorityMedium, effort: "2 days"},
		},
	}
)

type mutation func(d *storymap.Document, folded string, now time.Time)

var mutations = map[Intent]mutation{
	IntentAdd:      applyAdd,
	IntentComplete: applyComplete,
	IntentModify:   applyModify,
	IntentDelete:   applyDelete,
}

// Heuristic applies the local template heuristics. current may be nil, in
// which case the keyword-selected domain template is the starting point.
// current is never modified.
func Heuristic(current *storymap.Document, feedback string, now time.Time) (*storymap.Document, Intent) {
	folded := keyword.Fold(feedback)
	intent := classify(folded)

	mutate, ok := mutations[intent]
	if !ok {
		return unrecognized(current, folded, now), IntentUnrecognized
	}

	var d *storymap.Document
	if current == nil {
		d = Template(selectTemplate(folded), now)
	} else {
		d = current.Clone()
	}
	mutate(d, folded, now)
	d.Renumber()
	d.UpdatedAt = now
	return d, intent
}

func applyAdd(d *storymap.Document, folded string, now time.Time) {
	d.Epics = append(d.Epics, selectModule(folded).epic(now))
}

func applyComplete(d *storymap.Document, folded string, now time.Time) {
	if len(d.Epics) == 0 {
		d.Epics = append(d.Epics, skeletonEpic(now))
	}
	last := &d.Epics[len(d.Epics)-1]

	var requested []category
	for _, c := range categories {
		if c.words.Match(folded) {
			requested = append(requested, c)
		}
	}
	if len(requested) == 0 {
		for _, c := range categories {
			if c.name == categoryUserStories {
				requested = append(requested, c)
			}
		}
	}

	for _, c := range requested {
		if c.name == categoryUserStories && fillEmptyFeatures(last, now) {
			continue
		}
		if represented(last, c.marker) {
			continue
		}
		last.Features = append(last.Features, c.add.feature(now))
	}
}

// fillEmptyFeatures gives every task-less feature of the epic one template
// story and reports whether any feature was filled.
func fillEmptyFeatures(e *storymap.Epic, now time.Time) bool {
	filled := false
	for i := range e.Features {
		f := &e.Features[i]
		if len(f.Tasks) > 0 {
			continue
		}
		s := userStoryTask.story(now)
		s.Title = "Complete " + f.Title
		f.Tasks = append(f.Tasks, s)
		filled = true
	}
	return filled
}

// represented reports whether one of the epic's features already covers the
// category.
func represented(e *storymap.Epic, marker string) bool {
	for _, f := range e.Features {
		if strings.Contains(strings.ToLower(f.Title), marker) {
			return true
		}
	}
	return false
}

func applyModify(d *storymap.Document, _ string, now time.Time) {
	if len(d.Epics) == 0 {
		d.Epics = append(d.Epics, skeletonEpic(now))
	}
	first := &d.Epics[0]
	if !strings.HasPrefix(first.Title, RevisedPrefix) {
		first.Title = RevisedPrefix + first.Title
	}
	if !strings.HasSuffix(first.Description, RevisedSuffix) {
		first.Description += RevisedSuffix
	}
	if len(first.Features) == 0 {
		first.Features = append(first.Features, revisedFeature.feature(now))
	}
}

func applyDelete(d *storymap.Document, folded string, _ time.Time) {
	rest := folded
	if i := deleteWords.Index(folded); i >= 0 {
		rest = folded[i:]
	}

	switch {
	case supportingWords.Match(rest):
		for i := range d.Epics {
			for j := range d.Epics[i].Features {
				d.Epics[i].Features[j].Tasks = []storymap.UserStory{}
			}
		}
	case featureNouns.Match(rest):
		for i := range d.Epics {
			d.Epics[i].Features = []storymap.Feature{}
		}
	case epicNouns.Match(rest), allNouns.Match(rest):
		d.Epics = []storymap.Epic{}
	default:
		if len(d.Epics) > 1 {
			d.Epics = d.Epics[:len(d.Epics)-1]
		}
	}
}

// unrecognized resets an existing document to the generic skeleton, keeping
// its identity, or starts a new document from the matching domain template.
func unrecognized(current *storymap.Document, folded string, now time.Time) *storymap.Document {
	if current == nil {
		return Template(selectTemplate(folded), now)
	}
	d := Template(TemplateGeneric, now)
	d.ID = current.ID
	d.Title = current.Title
	d.Description = current.Description
	d.CreatedAt = current.CreatedAt
	return d
}
