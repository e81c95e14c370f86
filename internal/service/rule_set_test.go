package service

import (
	"errors"
	"testing"

	"github.com/yuqie6/TimeBudget/internal/schema"
)

func TestRuleSetClassify(t *testing.T) {
	t.Parallel()

	rules := NewRuleSet([]schema.ClassificationRule{
		*schema.DefaultRule(),
		{ID: 2, ClassID: 2, Priority: 0, Pattern: "1$"},
		{ID: 3, ClassID: 3, Priority: 10, Pattern: "2$"},
		{ID: 4, ClassID: 4, Priority: 20, Pattern: "minecraft"},
		{ID: 5, ClassID: 5, Priority: 99, Pattern: "([unclosed"},
	})
	if rules.Len() != 4 {
		t.Fatalf("Len=%d, want 4 (invalid pattern skipped)", rules.Len())
	}

	cases := []struct {
		title string
		want  int64
	}{
		{title: "window 0", want: schema.DefaultClassID},
		{title: "window 1", want: 2},
		{title: "window 2", want: 3},
		{title: "window 12", want: 3},
		{title: "Minecraft 1.20 - window 1", want: 4},
		{title: "", want: schema.DefaultClassID},
	}
	for _, c := range cases {
		got, err := rules.Classify(c.title)
		if err != nil {
			t.Fatalf("Classify(%q) err=%v", c.title, err)
		}
		if got != c.want {
			t.Fatalf("Classify(%q)=%d, want %d", c.title, got, c.want)
		}
	}
}

func TestRuleSetEqualPriorityPicksOneOfTheTied(t *testing.T) {
	t.Parallel()

	rules := NewRuleSet([]schema.ClassificationRule{
		*schema.DefaultRule(),
		{ID: 2, ClassID: 2, Priority: 5, Pattern: "foo"},
		{ID: 3, ClassID: 3, Priority: 5, Pattern: "bar"},
	})
	got, err := rules.Classify("foobar")
	if err != nil {
		t.Fatalf("Classify err=%v", err)
	}
	if got != 2 && got != 3 {
		t.Fatalf("Classify=%d, want one of the tied classes", got)
	}
}

func TestRuleSetWithoutDefaultRuleFails(t *testing.T) {
	t.Parallel()

	rules := NewRuleSet([]schema.ClassificationRule{{ID: 2, ClassID: 2, Pattern: "only"}})
	if _, err := rules.Classify("other"); !errors.Is(err, ErrClassificationFailed) {
		t.Fatalf("err=%v, want ErrClassificationFailed", err)
	}
}

func TestCompilePatternRejectsInvalid(t *testing.T) {
	t.Parallel()

	if _, err := CompilePattern("(a"); !errors.Is(err, ErrValidation) {
		t.Fatalf("err=%v, want ErrValidation", err)
	}
}
