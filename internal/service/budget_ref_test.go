package service

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestBudgetRefOrderPlacesNoBudgetLast(t *testing.T) {
	t.Parallel()

	refs := []BudgetRef{NoBudget, BudgetOf(10), BudgetOf(2), BudgetOf(1)}
	SortBudgetRefs(refs)

	want := []BudgetRef{BudgetOf(1), BudgetOf(2), BudgetOf(10), NoBudget}
	if !slices.Equal(refs, want) {
		t.Fatalf("sorted=%v, want %v", refs, want)
	}
}

func TestParseBudgetRef(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    BudgetRef
		wantErr bool
	}{
		{in: "none", want: NoBudget},
		{in: "7", want: BudgetOf(7)},
		{in: "x", wantErr: true},
	}
	for _, c := range cases {
		got, err := ParseBudgetRef(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("ParseBudgetRef(%q) expected error", c.in)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Fatalf("ParseBudgetRef(%q)=%v,%v want %v", c.in, got, err, c.want)
		}
	}
}

func TestBudgetRefAsJSONKey(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(map[BudgetRef]int{BudgetOf(3): 1, NoBudget: 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"3":1,"none":2}` {
		t.Fatalf("json=%s", b)
	}

	var back map[BudgetRef]int
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[BudgetOf(3)] != 1 || back[NoBudget] != 2 {
		t.Fatalf("round trip=%v", back)
	}
}
