package service

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
)

// noBudgetText 无预算桶的文本形式
const noBudgetText = "none"

// BudgetRef 预算引用：具体预算 Some(id) 或无预算桶 NoBudget（零值）
// 全序：具体预算按 ID 升序，NoBudget 排在最后
type BudgetRef struct {
	id    int64
	valid bool
}

// NoBudget 未映射到任何预算的时间归入此桶
var NoBudget = BudgetRef{}

// BudgetOf 引用具体预算
func BudgetOf(id int64) BudgetRef {
	return BudgetRef{id: id, valid: true}
}

// ID 返回预算 ID；NoBudget 返回 (0, false)
func (r BudgetRef) ID() (int64, bool) {
	return r.id, r.valid
}

// IsNoBudget 是否为无预算桶
func (r BudgetRef) IsNoBudget() bool {
	return !r.valid
}

func (r BudgetRef) String() string {
	if !r.valid {
		return noBudgetText
	}
	return strconv.FormatInt(r.id, 10)
}

// MarshalText 实现 encoding.TextMarshaler，便于作为 JSON 对象键
func (r BudgetRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText 解析 "none" 或十进制预算 ID
func (r *BudgetRef) UnmarshalText(b []byte) error {
	ref, err := ParseBudgetRef(string(b))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// ParseBudgetRef 解析 "none" 或十进制预算 ID
func ParseBudgetRef(s string) (BudgetRef, error) {
	if s == noBudgetText {
		return NoBudget, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return NoBudget, fmt.Errorf("%w: 非法预算引用 %q", ErrValidation, s)
	}
	return BudgetOf(id), nil
}

// CompareBudgetRefs 预算引用全序比较
func CompareBudgetRefs(a, b BudgetRef) int {
	switch {
	case a.valid && b.valid:
		return cmp.Compare(a.id, b.id)
	case a.valid:
		return -1
	case b.valid:
		return 1
	default:
		return 0
	}
}

// SortBudgetRefs 原地排序
func SortBudgetRefs(refs []BudgetRef) {
	slices.SortFunc(refs, CompareBudgetRefs)
}
