package refine

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Strob0t/StoryForge/internal/domain/keyword"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

const numeral = `([0-9]+|[零〇一二两三四五六七八九十]+|one|two|three|four|five|six|seven|eight|nine|ten)`

// capPatterns are tried in order; the first match gives the cap.
var capPatterns = []*regexp.Regexp{
	regexp.MustCompile(`最多保留\s*` + numeral + `\s*个`),
	regexp.MustCompile(`最多\s*` + numeral + `\s*个`),
	regexp.MustCompile(`保留\s*` + numeral + `\s*个`),
	regexp.MustCompile(`\bkeep\s+at\s+most\s+` + numeral + `\b`),
	regexp.MustCompile(`\bkeep\s+up\s+to\s+` + numeral + `\b`),
	regexp.MustCompile(`\bat\s+most\s+` + numeral + `\b`),
}

var englishNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var chineseDigits = map[rune]int{
	'零': 0, '〇': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// ParseCap extracts the "keep at most N" limit from feedback.
func ParseCap(feedback string) (int, bool) {
	return parseCap(keyword.Fold(feedback))
}

func parseCap(folded string) (int, bool) {
	for _, re := range capPatterns {
		m := re.FindStringSubmatch(folded)
		if m == nil {
			continue
		}
		if n, ok := parseNumber(m[1]); ok {
			return n, true
		}
	}
	return 0, false
}

func parseNumber(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if n, ok := englishNumbers[s]; ok {
		return n, true
	}
	return parseChineseNumber(s)
}

// parseChineseNumber handles 0-99 written with 十 (十二, 二十, 二十五) or as
// plain digit sequences (二五).
func parseChineseNumber(s string) (int, bool) {
	before, after, hasTen := strings.Cut(s, "十")
	if !hasTen {
		return chineseDigitRun(s)
	}
	tens := 1
	if before != "" {
		d, ok := chineseDigitRun(before)
		if !ok || d > 9 {
			return 0, false
		}
		tens = d
	}
	units := 0
	if after != "" {
		d, ok := chineseDigitRun(after)
		if !ok || d > 9 {
			return 0, false
		}
		units = d
	}
	return tens*10 + units, true
}

func chineseDigitRun(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		d, ok := chineseDigits[r]
		if !ok {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}

// LocalRule applies the supporting-needs rule: with a current document and
// feedback naming supporting needs together with a delete or retain token,
// every feature's task list is truncated to the cap, or emptied without one.
// A cap alone never fires the rule. It reports false when the rule does not
// apply.
func LocalRule(current *storymap.Document, feedback string, now time.Time) (*storymap.Document, bool) {
	if current == nil {
		return nil, false
	}
	folded := keyword.Fold(feedback)
	if !supportingWords.Match(folded) {
		return nil, false
	}
	if !deleteWords.Match(folded) && !retainWords.Match(folded) {
		return nil, false
	}
	limit, capped := parseCap(folded)

	out := current.Clone()
	for i := range out.Epics {
		for j := range out.Epics[i].Features {
			f := &out.Epics[i].Features[j]
			if !capped {
				f.Tasks = []storymap.UserStory{}
				continue
			}
			if len(f.Tasks) > limit {
				f.Tasks = f.Tasks[:limit]
			}
			for k := range f.Tasks {
				f.Tasks[k].Repair(now)
			}
		}
	}
	out.UpdatedAt = now
	return out, true
}
