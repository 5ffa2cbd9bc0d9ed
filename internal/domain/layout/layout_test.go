package layout

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

func makeStory(id, title string, p storymap.Priority, reqs ...storymap.SupportingRequirement) storymap.UserStory {
	return storymap.UserStory{
		ID:                     id,
		Title:                  title,
		Type:                   storymap.TypeTask,
		Priority:               p,
		Status:                 storymap.StatusTodo,
		AcceptanceCriteria:     []string{"ok"},
		EstimatedEffort:        "1 day",
		SupportingRequirements: reqs,
	}
}

func req(title string, p storymap.Priority) storymap.SupportingRequirement {
	return storymap.SupportingRequirement{Title: title, Type: storymap.RequirementServiceIntegration, Priority: p}
}

func testDocument() *storymap.Document {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &storymap.Document{
		ID:        "doc",
		Title:     "Charging",
		CreatedAt: now,
		UpdatedAt: now,
		Epics: []storymap.Epic{
			{ID: "e0", Title: "Setup", Features: []storymap.Feature{
				{ID: "f0", Title: "Pairing", Tasks: []storymap.UserStory{
					makeStory("s0", "绑定充电桩", storymap.PriorityLow, req("BLE SDK", storymap.PriorityLow), req("Pairing API", storymap.PriorityHigh)),
					makeStory("s1", "充电桩固件升级", storymap.PriorityHigh, req("OTA service", storymap.PriorityMedium)),
					makeStory("s2", "解绑充电桩", storymap.PriorityMedium),
					makeStory("s3", "充电桩固件升级回滚", storymap.PriorityHigh),
				}},
			}},
			{ID: "e1", Title: "Use", Features: []storymap.Feature{
				{ID: "f1", Title: "Charge", Tasks: []storymap.UserStory{
					makeStory("s4", "Start charging", storymap.PriorityMedium),
				}},
				{ID: "f2", Title: "Empty", Tasks: []storymap.UserStory{}},
			}},
		},
	}
}

func storyIDs(a Activity) []string {
	out := make([]string, 0, len(a.Stories))
	for _, s := range a.Stories {
		out = append(out, s.ID)
	}
	return out
}

func TestProjectStructure(t *testing.T) {
	doc := testDocument()
	before := doc.Clone()

	b := Project(doc, Options{})
	assert.Equal(t, before, doc)

	require.Len(t, b.Phases, 2)
	assert.Equal(t, "doc", b.DocumentID)
	require.Len(t, b.Phases[1].Activities, 2)
	assert.Equal(t, 0, b.Phases[0].Activities[0].Index)
	assert.Equal(t, 1, b.Phases[1].Activities[0].Index)
	assert.Equal(t, 2, b.Phases[1].Activities[1].Index)

	pairing := b.Phases[0].Activities[0]
	assert.Equal(t, []string{"s0", "s1", "s2", "s3"}, storyIDs(pairing))
	assert.Equal(t, []string{
		"Web Platform/End User/Charging Station/Device Pairing",
		"Web Platform/End User/Charging Station/Firmware Upgrade",
		"Web Platform/End User/Charging Station/Device Unbinding",
	}, pairing.Touchpoints)
	assert.Equal(t, "Web Platform/End User/Charging Station/Firmware Upgrade", pairing.Stories[1].Touchpoint)
	assert.Equal(t, 2, pairing.Stories[0].NeedCount)

	empty := b.Phases[1].Activities[1]
	assert.Empty(t, empty.Stories)
	assert.NotNil(t, empty.Needs)
}

func TestNeedCardsCarryStory(t *testing.T) {
	b := Project(testDocument(), Options{})
	needs := b.Phases[0].Activities[0].Needs
	require.Len(t, needs, 3)

	story := b.Phases[0].Activities[0].Stories[0]
	for _, n := range needs[:2] {
		assert.Equal(t, "s0", n.StoryID)
		assert.Equal(t, "绑定充电桩", n.StoryTitle)
		assert.Equal(t, story.Color, n.Color)
	}
	assert.Equal(t, "s1", needs[2].StoryID)

	found := b.FindNeedsForStory("s0")
	require.Len(t, found, 2)
	assert.Equal(t, "BLE SDK", found[0].Title)
	assert.Empty(t, b.FindNeedsForStory("s4"))
}

func TestPositionalColors(t *testing.T) {
	b := Project(testDocument(), Options{})
	stories := b.Phases[0].Activities[0].Stories
	for k, s := range stories {
		assert.Equal(t, Palette[k%len(Palette)], s.Color)
	}
	assert.Equal(t, Palette[3], b.Phases[1].Activities[0].Stories[0].Color)
}

func TestLaneColorsDoNotCollideWithinActivity(t *testing.T) {
	doc := &storymap.Document{ID: "d", Title: "t"}
	for i := 0; i < 3; i++ {
		e := storymap.Epic{ID: fmt.Sprintf("e%d", i), Title: "e"}
		for j := 0; j < 4; j++ {
			f := storymap.Feature{ID: fmt.Sprintf("f%d%d", i, j), Title: "f"}
			for k := 0; k < len(Palette); k++ {
				f.Tasks = append(f.Tasks, makeStory(fmt.Sprintf("s%d%d%d", i, j, k), "story", storymap.PriorityMedium))
			}
			e.Features = append(e.Features, f)
		}
		doc.Epics = append(doc.Epics, e)
	}

	b := Project(doc, Options{})
	for _, p := range b.Phases {
		for _, a := range p.Activities {
			seen := map[string]bool{}
			for _, s := range a.Stories {
				assert.False(t, seen[s.Color], "activity %d reuses color %s", a.Index, s.Color)
				seen[s.Color] = true
			}
		}
	}
}

func TestColorForHashFallback(t *testing.T) {
	c := ColorFor("story-42", nil)
	assert.Contains(t, Palette[:], c)
	assert.Equal(t, c, ColorFor("story-42", nil))
}

func TestPrioritizeIsStableAndKeepsColors(t *testing.T) {
	plain := Project(testDocument(), Options{})
	sorted := Project(testDocument(), Options{Prioritize: true})

	a := sorted.Phases[0].Activities[0]
	assert.Equal(t, []string{"s1", "s3", "s2", "s0"}, storyIDs(a))

	for _, s := range a.Stories {
		orig, ok := plain.FindStory(s.ID)
		require.True(t, ok)
		assert.Equal(t, orig.Color, s.Color)
	}

	var needTitles []string
	for _, n := range a.Needs {
		needTitles = append(needTitles, n.Title)
	}
	assert.Equal(t, []string{"Pairing API", "OTA service", "BLE SDK"}, needTitles)
}

func TestBoardTouchpoints(t *testing.T) {
	b := Project(testDocument(), Options{})
	tps := b.Touchpoints()
	assert.Equal(t, "Web Platform/End User/Charging Station/Device Pairing", tps[0])
	assert.Len(t, tps, 4)
}
