package refine

import (
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/Strob0t/StoryForge/internal/domain/keyword"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// Template names.
const (
	TemplateGeneric         = "generic"
	TemplateChargingStation = "charging-station"
	TemplateCarRental       = "car-rental"
	TemplateECommerce       = "e-commerce"
	TemplateSocialNetwork   = "social-network"
	TemplateTaskManagement  = "task-management"
)

type templateRule struct {
	name  string
	words keyword.Set
}

var templateRules = []templateRule{
	{TemplateChargingStation, keyword.New("充电桩", "充电站", "充电", "charging", "charger", "chargers", "ev")},
	{TemplateCarRental, keyword.New("租车", "汽车租赁", "car rental", "rent a car", "rental car", "car hire")},
	{TemplateECommerce, keyword.New("电商", "商城", "购物", "网店", "e-commerce", "ecommerce", "online store", "shop", "shopping")},
	{TemplateSocialNetwork, keyword.New("社交", "朋友圈", "好友", "social network", "social", "friends")},
	{TemplateTaskManagement, keyword.New("任务管理", "待办", "项目管理", "task management", "todo", "to-do", "project management")},
}

var (
	templatesOnce sync.Once
	templates     map[string]storymap.Draft
	templatesErr  error
)

func loadTemplates() (map[string]storymap.Draft, error) {
	templatesOnce.Do(func() {
		names := []string{TemplateGeneric}
		for _, r := range templateRules {
			names = append(names, r.name)
		}
		templates = make(map[string]storymap.Draft, len(names))
		for _, name := range names {
			data, err := templateFS.ReadFile("templates/" + name + ".yaml")
			if err != nil {
				templatesErr = fmt.Errorf("read template %s: %w", name, err)
				return
			}
			raw, err := storymap.DecodeRaw(data)
			if err != nil {
				templatesErr = fmt.Errorf("decode template %s: %w", name, err)
				return
			}
			draft, err := storymap.Normalize(raw)
			if err != nil {
				templatesErr = fmt.Errorf("normalize template %s: %w", name, err)
				return
			}
			templates[name] = draft
		}
	})
	return templates, templatesErr
}

func mustTemplate(name string) storymap.Draft {
	ts, err := loadTemplates()
	if err != nil {
		panic(err)
	}
	return ts[name]
}

// SelectTemplate returns the name of the domain template matching the text,
// or TemplateGeneric.
func SelectTemplate(text string) string {
	return selectTemplate(keyword.Fold(text))
}

func selectTemplate(folded string) string {
	for _, r := range templateRules {
		if r.words.Match(folded) {
			return r.name
		}
	}
	return TemplateGeneric
}

// Template instantiates the named template as a new document.
func Template(name string, now time.Time) *storymap.Document {
	d := mustTemplate(name)
	return d.ToDocument("", now)
}

// skeletonEpic returns the single epic of the generic template.
func skeletonEpic(now time.Time) storymap.Epic {
	return Template(TemplateGeneric, now).Epics[0]
}
