// Package touchpoint infers where in the product a user story takes place:
// the platform, the acting role, the business domain and the page. Inference
// is deterministic and used for display only.
package touchpoint

import (
	"strings"

	"github.com/Strob0t/StoryForge/internal/domain/keyword"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

// Platforms.
const (
	PlatformWeb         = "Web Platform"
	PlatformMiniProgram = "Mini Program"
	PlatformPC          = "PC Client"
	PlatformAdmin       = "Web Admin Console"
)

// Roles.
const (
	RoleAdministrator = "Administrator"
	RoleSystem        = "System"
	RoleEndUser       = "End User"
)

// Label is an inferred touchpoint.
type Label struct {
	Platform string `json:"platform"`
	Role     string `json:"role"`
	Domain   string `json:"domain,omitempty"`
	Page     string `json:"page"`
}

// String renders platform/role/[domain/]page.
func (l Label) String() string {
	parts := []string{l.Platform, l.Role}
	if l.Domain != "" {
		parts = append(parts, l.Domain)
	}
	parts = append(parts, l.Page)
	return strings.Join(parts, "/")
}

// rule maps a keyword predicate to a result. A rule matches when any of its
// words occurs and none of its except words does.
type rule struct {
	words  keyword.Set
	except keyword.Set
	value  string
}

func (r rule) match(folded string) bool {
	return r.words.Match(folded) && !r.except.Match(folded)
}

func first(rules []rule, folded string) (string, bool) {
	for _, r := range rules {
		if r.match(folded) {
			return r.value, true
		}
	}
	return "", false
}

var (
	platformRules = []rule{
		{words: keyword.New("web端", "网页", "浏览器", "web", "browser", "h5"), value: PlatformWeb},
		{words: keyword.New("小程序", "微信", "mini program", "mini-program", "miniprogram", "wechat"), value: PlatformMiniProgram},
		{words: keyword.New("pc端", "客户端", "桌面", "pc", "desktop", "client"), value: PlatformPC},
		{words: keyword.New("后台", "管理端", "控制台", "admin", "back-office", "backoffice", "console", "dashboard"), value: PlatformAdmin},
	}
	managementWords = keyword.New("管理", "配置", "设置", "审核", "manage", "management", "configure", "configuration", "settings")

	roleRules = []rule{
		{words: keyword.New("管理员", "运营", "运维", "admin", "administrator", "operator"), value: RoleAdministrator},
		{words: keyword.New("系统自动", "自动", "定时", "system", "automatic", "automatically", "scheduled"), value: RoleSystem},
	}

	genericPages = []rule{
		{words: keyword.New("查看", "浏览", "详情", "view", "see", "show", "display"), value: "Detail View"},
		{words: keyword.New("添加", "新增", "创建", "新建", "add", "create", "new"), value: "Create Form"},
		{words: keyword.New("编辑", "修改", "更新", "edit", "update", "modify", "change"), value: "Edit Form"},
		{words: keyword.New("删除", "移除", "delete", "remove"), value: "Delete Confirmation"},
		{words: keyword.New("搜索", "查询", "查找", "search", "find", "query", "filter"), value: "Search"},
		{words: keyword.New("列表", "list", "all"), value: "List"},
	}
)

// GenericPage is the page used when nothing else matches.
const GenericPage = "Home"

// Infer returns the touchpoint of a user story.
func Infer(s *storymap.UserStory) Label {
	return InferText(s.Title, s.Description)
}

// InferText infers a touchpoint from a story title and description. Platform,
// role and domain look at both; the generic page classifier only at the title.
func InferText(title, description string) Label {
	text := keyword.Fold(title + " " + description)

	l := Label{Platform: PlatformWeb, Role: RoleEndUser}
	if p, ok := first(platformRules, text); ok {
		l.Platform = p
	} else if managementWords.Match(text) {
		l.Platform = PlatformAdmin
	}
	if r, ok := first(roleRules, text); ok {
		l.Role = r
	}

	for _, d := range domains {
		if !d.words.Match(text) {
			continue
		}
		l.Domain = d.name
		l.Page = d.defaultPage
		if p, ok := first(d.pages, text); ok {
			l.Page = p
		}
		return l
	}

	l.Page = GenericPage
	if p, ok := first(genericPages, keyword.Fold(title)); ok {
		l.Page = p
	}
	return l
}

// Unique infers the labels of stories and returns their distinct string
// forms in first-seen order.
func Unique(stories []storymap.UserStory) []string {
	seen := make(map[string]struct{}, len(stories))
	out := make([]string, 0, len(stories))
	for i := range stories {
		s := Infer(&stories[i]).String()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
