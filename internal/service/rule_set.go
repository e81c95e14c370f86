package service

import (
	"cmp"
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"github.com/yuqie6/TimeBudget/internal/schema"
)

// CompilePattern 编译分类规则：包含匹配（非整串匹配），大小写不敏感
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: 正则无法编译: %v", ErrValidation, err)
	}
	return re, nil
}

type compiledRule struct {
	id       int64
	classID  int64
	priority int
	re       *regexp.Regexp
}

// RuleSet 按优先级排好序的已编译规则集合，构建后只读
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet 编译并按优先级降序排序规则；无法编译的规则跳过并告警
// 同优先级规则保持输入顺序，调用方不应依赖同级规则之间的胜出者
func NewRuleSet(rules []schema.ClassificationRule) *RuleSet {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := CompilePattern(r.Pattern)
		if err != nil {
			slog.Warn("分类规则无法编译，已跳过", "rule_id", r.ID, "pattern", r.Pattern, "error", err)
			continue
		}
		compiled = append(compiled, compiledRule{id: r.ID, classID: r.ClassID, priority: r.Priority, re: re})
	}
	slices.SortStableFunc(compiled, func(a, b compiledRule) int {
		return cmp.Compare(b.priority, a.priority)
	})
	return &RuleSet{rules: compiled}
}

// Len 有效规则数
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Classify 返回命中规则中优先级最高者的分类
func (s *RuleSet) Classify(title string) (int64, error) {
	for _, r := range s.rules {
		if r.re.MatchString(title) {
			return r.classID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrClassificationFailed, title)
}
