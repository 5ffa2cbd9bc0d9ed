// Package refine classifies free-text feedback on a story map and applies the
// local mutations: the supporting-needs rule and the template heuristics used
// when the generator is not consulted or fails.
package refine

import (
	"github.com/Strob0t/StoryForge/internal/domain/keyword"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

// Intent is the classified purpose of a feedback text.
type Intent string

const (
	IntentAdd          Intent = "add"
	IntentComplete     Intent = "complete"
	IntentModify       Intent = "modify"
	IntentDelete       Intent = "delete"
	IntentUnrecognized Intent = "unrecognized"
)

// Source records which path produced a refined document.
type Source string

const (
	SourceLocalRule         Source = "local-rule"
	SourceGenerator         Source = "generator"
	SourceHeuristic         Source = "heuristic"
	SourceHeuristicFallback Source = "heuristic-fallback"
)

// Result is the outcome of applying feedback.
type Result struct {
	Document *storymap.Document `json:"document"`
	Source   Source             `json:"source"`
	Intent   Intent             `json:"intent"`
}

var (
	addWords = keyword.New(
		"添加", "增加", "新增", "加入", "加上", "加一个",
		"add", "adds", "adding", "create", "insert", "append", "introduce",
	)
	completeWords = keyword.New(
		"补充", "完善", "补全", "补齐", "缺少", "缺失", "丰富",
		"complete", "completing", "fill", "fill in", "missing", "supplement", "flesh out", "elaborate", "expand",
	)
	modifyWords = keyword.New(
		"修改", "调整", "更改", "改成", "改为", "优化", "改进", "重写", "更新",
		"modify", "change", "update", "adjust", "revise", "improve", "rename", "rewrite", "refine",
	)
	deleteWords = keyword.New(
		"删除", "删掉", "去掉", "去除", "移除", "清空",
		"delete", "remove", "clear", "drop",
	)
	// retainWords phrase a removal as what survives ("最多保留2个").
	retainWords     = keyword.New("保留", "只保留", "keep", "only keep")
	supportingWords = keyword.New(
		"支撑性需求", "支撑需求", "支持性需求",
		"supporting need", "supporting needs", "supporting requirement", "supporting requirements",
	)
)

type classRule struct {
	intent Intent
	words  keyword.Set
}

// classRules is evaluated top-down; the first matching intent wins.
var classRules = []classRule{
	{IntentAdd, addWords},
	{IntentComplete, completeWords},
	{IntentModify, modifyWords},
	{IntentDelete, deleteWords},
}

// Classify returns the intent of a feedback text.
func Classify(feedback string) Intent {
	return classify(keyword.Fold(feedback))
}

func classify(folded string) Intent {
	for _, r := range classRules {
		if r.words.Match(folded) {
			return r.intent
		}
	}
	return IntentUnrecognized
}
