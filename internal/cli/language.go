package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// supportedLanguages 语言选择器里提供的目标语言
var supportedLanguages = []language.Tag{
	language.SimplifiedChinese,
	language.TraditionalChinese,
	language.English,
	language.Japanese,
	language.Korean,
	language.French,
	language.German,
	language.Spanish,
	language.Portuguese,
	language.Italian,
	language.Russian,
	language.Arabic,
	language.Hindi,
	language.Thai,
	language.Vietnamese,
	language.Turkish,
	language.Polish,
	language.Dutch,
	language.Swedish,
	language.Ukrainian,
}

// ResolveLanguage 把用户输入解析成受支持的语言标签。
// 接受 BCP 47 标签（zh-CN、ja）或语言的英文名（"Japanese"、
// "chinese"）；名称匹配不到时做一次模糊匹配，多个候选取排名最高
// 的一个。
func ResolveLanguage(input string) (language.Tag, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return language.Und, fmt.Errorf("empty language")
	}

	// 标准 BCP 47 标签
	if tag, err := language.Parse(trimmed); err == nil {
		for _, supported := range supportedLanguages {
			if tag == supported {
				return supported, nil
			}
		}
		// 形如 zh-Hans 这类等价写法归一到受支持的标签
		matcher := language.NewMatcher(supportedLanguages)
		if _, idx, conf := matcher.Match(tag); conf >= language.High {
			return supportedLanguages[idx], nil
		}
	}

	// 按英文名精确匹配
	namer := display.English.Tags()
	lower := strings.ToLower(trimmed)
	for _, tag := range supportedLanguages {
		if strings.ToLower(namer.Name(tag)) == lower {
			return tag, nil
		}
	}

	// 模糊匹配
	names := make([]string, len(supportedLanguages))
	for i, tag := range supportedLanguages {
		names[i] = namer.Name(tag)
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, names)
	if len(ranks) == 0 {
		return language.Und, fmt.Errorf("unsupported language %q", input)
	}
	sort.Sort(ranks)
	best := ranks[0]
	return supportedLanguages[best.OriginalIndex], nil
}

// LanguageName 返回语言标签的英文显示名
func LanguageName(tag language.Tag) string {
	return display.English.Tags().Name(tag)
}

// SupportedLanguageNames 返回所有受支持语言的显示名与标签
func SupportedLanguageNames() []string {
	out := make([]string, len(supportedLanguages))
	namer := display.English.Tags()
	for i, tag := range supportedLanguages {
		out[i] = fmt.Sprintf("%s (%s)", namer.Name(tag), tag.String())
	}
	return out
}
