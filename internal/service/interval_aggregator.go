package service

import (
	"cmp"
	"slices"
	"time"

	"github.com/yuqie6/TimeBudget/internal/repository"
	"github.com/yuqie6/TimeBudget/internal/schema"
)

// DefaultSessionGapSec 相邻两次快照间隔超过该值视为空闲/断线，不计时
const DefaultSessionGapSec = 25

// TimeSpent 按预算、日期（YYYY-MM-DD）累计的秒数
type TimeSpent map[BudgetRef]map[string]int64

// Refs 按全序返回出现过的预算引用
func (t TimeSpent) Refs() []BudgetRef {
	refs := make([]BudgetRef, 0, len(t))
	for ref := range t {
		refs = append(refs, ref)
	}
	SortBudgetRefs(refs)
	return refs
}

// Has 是否存在该预算的桶（即使秒数为 0）
func (t TimeSpent) Has(ref BudgetRef) bool {
	_, ok := t[ref]
	return ok
}

func (t TimeSpent) add(ref BudgetRef, date string, seconds int64) {
	days := t[ref]
	if days == nil {
		days = make(map[string]int64)
		t[ref] = days
	}
	days[date] += seconds
}

// Aggregator 由离散快照重建连续活跃时长
type Aggregator struct {
	// SessionGapSec 计时间隔上限（含）
	SessionGapSec int64
	// FocusOnly 只统计前台窗口
	FocusOnly bool
	// Location 日期归属使用的时区
	Location *time.Location
}

// NewAggregator 创建聚合器，gapSec<=0 时使用默认值
func NewAggregator(gapSec int64, focusOnly bool) Aggregator {
	if gapSec <= 0 {
		gapSec = DefaultSessionGapSec
	}
	return Aggregator{SessionGapSec: gapSec, FocusOnly: focusOnly, Location: time.Local}
}

// gapFold 顺序扫描的折叠状态；时长属于时间戳而非单条快照，
// 同一时间戳下的所有快照共享同一个 gap（当前时间戳 - 上一个不同的时间戳）
type gapFold struct {
	started bool
	curTS   int64
	gap     int64
}

// step 推进到 ts，返回该时间戳的 gap；区间内最早的时间戳 gap 为 0
func (f gapFold) step(ts int64) gapFold {
	if f.started && ts == f.curTS {
		return f
	}
	next := gapFold{started: true, curTS: ts}
	if f.started {
		next.gap = ts - f.curTS
	}
	return next
}

// counts 该 gap 是否计入（0 表示区间起点，只建桶不计时）
func (a Aggregator) counts(gap int64) bool {
	return gap >= 0 && gap <= a.SessionGapSec
}

func (a Aggregator) skip(s schema.Sample) bool {
	return s.IsHeartbeat() || (a.FocusOnly && !s.Focus)
}

func (a Aggregator) dateOf(ts int64) string {
	loc := a.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(ts, 0).In(loc).Format(repository.DateLayout)
}

type budgetSlot struct {
	ts  int64
	ref BudgetRef
}

// ByBudgetAndDate 计算 预算 → 日期 → 秒数
// 同一时间戳内每个预算至多计一次（多窗口属于同一预算时不重复累加）；
// 映射到多个预算的快照对每个预算各计完整时长（扇出而非拆分）
func (a Aggregator) ByBudgetAndDate(samples []schema.Sample, mapper *BudgetMapper) TimeSpent {
	out := make(TimeSpent)
	if len(samples) == 0 {
		return out
	}

	ordered := sortedByTimestamp(samples)
	seen := make(map[budgetSlot]struct{})
	var fold gapFold
	for _, s := range ordered {
		fold = fold.step(s.Timestamp)
		if a.skip(s) || !a.counts(fold.gap) {
			continue
		}
		date := a.dateOf(s.Timestamp)
		for _, ref := range mapper.RefsFor(s.ClassID) {
			slot := budgetSlot{ts: s.Timestamp, ref: ref}
			if _, dup := seen[slot]; dup {
				continue
			}
			seen[slot] = struct{}{}
			out.add(ref, date, fold.gap)
		}
	}
	return out
}

// TitleTime 某标题（及其分类）在一天内的累计时长
type TitleTime struct {
	LastSeen  int64  `json:"last_seen"`
	Seconds   int64  `json:"seconds"`
	ClassID   int64  `json:"class_id"`
	ClassName string `json:"class_name"`
	Title     string `json:"title"`
}

type titleKey struct {
	title   string
	classID int64
}

// ByTitle 按 (标题, 分类) 聚合；每个 gap 记在上一个时间戳的标题上（区间起点决定归属），
// LastSeen 为区间终点。按秒数降序、标题升序
func (a Aggregator) ByTitle(samples []schema.Sample, classNames map[int64]string) []TitleTime {
	groups := make(map[titleKey]*TitleTime)
	credit := func(key titleKey, seconds, end int64) {
		g, ok := groups[key]
		if !ok {
			g = &TitleTime{ClassID: key.classID, ClassName: classNames[key.classID], Title: key.title}
			groups[key] = g
		}
		g.Seconds += seconds
		g.LastSeen = max(g.LastSeen, end)
	}

	// pending 为当前时间戳下参与计时的标题（已去重），在下一个时间戳到来时结算
	var pending []titleKey
	var fold gapFold
	for _, s := range sortedByTimestamp(samples) {
		if !fold.started || s.Timestamp != fold.curTS {
			fold = fold.step(s.Timestamp)
			if fold.gap > 0 && a.counts(fold.gap) {
				for _, key := range pending {
					credit(key, fold.gap, s.Timestamp)
				}
			}
			pending = pending[:0]
		}
		if a.skip(s) {
			continue
		}
		key := titleKey{title: s.Title, classID: s.ClassID}
		if !slices.Contains(pending, key) {
			pending = append(pending, key)
		}
	}

	out := make([]TitleTime, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(x, y TitleTime) int {
		return cmp.Or(
			cmp.Compare(y.Seconds, x.Seconds),
			cmp.Compare(x.Title, y.Title),
			cmp.Compare(x.ClassID, y.ClassID),
		)
	})
	return out
}

func sortedByTimestamp(samples []schema.Sample) []schema.Sample {
	if slices.IsSortedFunc(samples, compareSampleTS) {
		return samples
	}
	ordered := slices.Clone(samples)
	slices.SortStableFunc(ordered, compareSampleTS)
	return ordered
}

func compareSampleTS(a, b schema.Sample) int {
	return cmp.Compare(a.Timestamp, b.Timestamp)
}
