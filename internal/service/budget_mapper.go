package service

import (
	"slices"

	"github.com/yuqie6/TimeBudget/internal/schema"
)

// BudgetMapper 单个用户的 分类 → 预算集合 查找表
type BudgetMapper struct {
	byClass map[int64][]int64
}

// NewBudgetMapper 由某用户的映射行构建查找表（预算 ID 升序、去重）
func NewBudgetMapper(mappings []schema.Mapping) *BudgetMapper {
	byClass := make(map[int64][]int64)
	for _, m := range mappings {
		byClass[m.ClassID] = append(byClass[m.ClassID], m.BudgetID)
	}
	for classID, ids := range byClass {
		slices.Sort(ids)
		byClass[classID] = slices.Compact(ids)
	}
	return &BudgetMapper{byClass: byClass}
}

// BudgetsFor 返回分类映射到的全部预算（可能为空）
func (m *BudgetMapper) BudgetsFor(classID int64) []int64 {
	return slices.Clone(m.byClass[classID])
}

// RefsFor 同 BudgetsFor，但未映射的分类返回 [NoBudget]
func (m *BudgetMapper) RefsFor(classID int64) []BudgetRef {
	ids := m.byClass[classID]
	if len(ids) == 0 {
		return []BudgetRef{NoBudget}
	}
	refs := make([]BudgetRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, BudgetOf(id))
	}
	return refs
}
