package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/yuqie6/TimeBudget/internal/repository"
	"github.com/yuqie6/TimeBudget/internal/schema"
)

// NoFocus 快照中没有前台窗口
const NoFocus = -1

// Classification 单个标题的分类结果
type Classification struct {
	Title     string  `json:"title"`
	ClassID   int64   `json:"class_id"`
	ClassName string  `json:"class_name"`
	BudgetIDs []int64 `json:"budget_ids"`
}

// BudgetLeft 某预算今天的剩余秒数
type BudgetLeft struct {
	Budget      BudgetRef `json:"budget"`
	BudgetName  string    `json:"budget_name"`
	SecondsLeft int64     `json:"seconds_left"`
}

// SequenceEntry 快照序列中的一行，附带分类名
type SequenceEntry struct {
	schema.Sample
	ClassName string `json:"class_name"`
}

// TimeBudgetService 分类、记录与配额计算
type TimeBudgetService struct {
	classes   ClassRepository
	budgets   BudgetRepository
	mappings  MappingRepository
	samples   SampleRepository
	overrides OverrideRepository
	agg       Aggregator
	now       func() time.Time
}

// NewTimeBudgetService 创建服务
func NewTimeBudgetService(
	classes ClassRepository,
	budgets BudgetRepository,
	mappings MappingRepository,
	samples SampleRepository,
	overrides OverrideRepository,
	agg Aggregator,
) *TimeBudgetService {
	if agg.SessionGapSec <= 0 {
		agg.SessionGapSec = DefaultSessionGapSec
	}
	if agg.Location == nil {
		agg.Location = time.Local
	}
	return &TimeBudgetService{
		classes:   classes,
		budgets:   budgets,
		mappings:  mappings,
		samples:   samples,
		overrides: overrides,
		agg:       agg,
		now:       time.Now,
	}
}

// SetClock 替换时钟（测试用）
func (s *TimeBudgetService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *TimeBudgetService) today() time.Time {
	return s.now().In(s.agg.Location)
}

// Now 服务时钟下的当前时间（已转换到统计时区）
func (s *TimeBudgetService) Now() time.Time {
	return s.today()
}

// Location 日期归属使用的时区
func (s *TimeBudgetService) Location() *time.Location {
	return s.agg.Location
}

// classifier 每次调用现取规则与映射，不做缓存
type classifier struct {
	rules  *RuleSet
	mapper *BudgetMapper
	names  map[int64]string
}

func (s *TimeBudgetService) loadClassifier(ctx context.Context, user string) (*classifier, error) {
	rules, err := s.classes.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	mapper, err := s.loadMapper(ctx, user)
	if err != nil {
		return nil, err
	}
	names, err := s.classNames(ctx)
	if err != nil {
		return nil, err
	}
	return &classifier{rules: NewRuleSet(rules), mapper: mapper, names: names}, nil
}

func (s *TimeBudgetService) loadMapper(ctx context.Context, user string) (*BudgetMapper, error) {
	mappings, err := s.mappings.GetByUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return NewBudgetMapper(mappings), nil
}

func (s *TimeBudgetService) classNames(ctx context.Context) (map[int64]string, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(classes))
	for _, c := range classes {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (c *classifier) classify(title string) (Classification, error) {
	classID, err := c.rules.Classify(title)
	if err != nil {
		return Classification{}, err
	}
	budgetIDs := c.mapper.BudgetsFor(classID)
	if budgetIDs == nil {
		budgetIDs = []int64{}
	}
	return Classification{Title: title, ClassID: classID, ClassName: c.names[classID], BudgetIDs: budgetIDs}, nil
}

// normalizeTitle 空标题替换为占位文本，避免与心跳哨兵冲突
func normalizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return schema.UntitledPlaceholder
	}
	return title
}

func validateUser(user string) error {
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("%w: 用户不能为空", ErrValidation)
	}
	return nil
}

// Classify 对每个标题独立分类，结果与输入一一对应
func (s *TimeBudgetService) Classify(ctx context.Context, user string, titles []string) ([]Classification, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	c, err := s.loadClassifier(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]Classification, 0, len(titles))
	for _, title := range titles {
		res, err := c.classify(normalizeTitle(title))
		if err != nil {
			slog.Error("标题分类失败", "user", user, "title", title, "error", err)
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// RecordSnapshot 记录一次快照：titles 为空时写入心跳；否则每个标题一行，focusIndex 处为前台窗口
// 整个快照在一个事务中写入，重复写入同一快照为空操作
func (s *TimeBudgetService) RecordSnapshot(ctx context.Context, user string, ts int64, titles []string, focusIndex int) ([]Classification, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	// 心跳没有窗口，焦点下标无意义
	if len(titles) == 0 {
		heartbeat := schema.Sample{User: user, Timestamp: ts, ClassID: schema.DefaultClassID, Focus: false, Title: ""}
		if err := s.samples.AppendBatch(ctx, []schema.Sample{heartbeat}); err != nil {
			return nil, err
		}
		return []Classification{}, nil
	}

	if focusIndex != NoFocus && (focusIndex < 0 || focusIndex >= len(titles)) {
		return nil, fmt.Errorf("%w: 焦点下标 %d 超出范围", ErrValidation, focusIndex)
	}

	results, err := s.Classify(ctx, user, titles)
	if err != nil {
		return nil, err
	}
	samples := make([]schema.Sample, 0, len(results))
	for i, res := range results {
		samples = append(samples, schema.Sample{
			User:      user,
			Timestamp: ts,
			ClassID:   res.ClassID,
			Focus:     i == focusIndex,
			Title:     res.Title,
		})
	}
	if err := s.samples.AppendBatch(ctx, samples); err != nil {
		return nil, err
	}
	return results, nil
}

// TimeSpentByBudgetAndDate 统计 [from, to) 内每个预算每天的活跃秒数，to<=0 表示不设上限
func (s *TimeBudgetService) TimeSpentByBudgetAndDate(ctx context.Context, user string, from, to int64) (TimeSpent, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	samples, err := s.samples.GetByTimeRange(ctx, user, from, to)
	if err != nil {
		return nil, err
	}
	mapper, err := s.loadMapper(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.agg.ByBudgetAndDate(samples, mapper), nil
}

// TimeSpentByTitle 统计 [from, from+1天) 内每个标题的活跃秒数
func (s *TimeBudgetService) TimeSpentByTitle(ctx context.Context, user string, from int64) ([]TitleTime, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	to := time.Unix(from, 0).In(s.agg.Location).AddDate(0, 0, 1).Unix()
	samples, err := s.samples.GetByTimeRange(ctx, user, from, to)
	if err != nil {
		return nil, err
	}
	names, err := s.classNames(ctx)
	if err != nil {
		return nil, err
	}
	return s.agg.ByTitle(samples, names), nil
}

// TimeLeftToday 计算用户每个已映射预算今天的剩余秒数（按预算全序）
// 无预算桶仅在本周有记录时出现，没有任何限额，结果为 -今日已用
func (s *TimeBudgetService) TimeLeftToday(ctx context.Context, user string) ([]BudgetLeft, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	now := s.today()
	spent, err := s.TimeSpentByBudgetAndDate(ctx, user, WeekStart(now).Unix(), 0)
	if err != nil {
		return nil, err
	}
	configs, err := s.budgets.GetMappedConfigs(ctx, user)
	if err != nil {
		return nil, err
	}
	overrides, err := s.overrides.GetByDate(ctx, user, now.Format(repository.DateLayout))
	if err != nil {
		return nil, err
	}

	out := make([]BudgetLeft, 0, len(configs)+1)
	for _, mc := range configs {
		var ov *schema.Override
		if row, ok := overrides[mc.Budget.ID]; ok {
			ov = &row
		}
		ref := BudgetOf(mc.Budget.ID)
		out = append(out, BudgetLeft{
			Budget:      ref,
			BudgetName:  mc.Budget.Name,
			SecondsLeft: SecondsLeftToday(mc.Config, now, ov, spent[ref]),
		})
	}
	if spent.Has(NoBudget) {
		out = append(out, BudgetLeft{
			Budget:      NoBudget,
			SecondsLeft: SecondsLeftToday(nil, now, nil, spent[NoBudget]),
		})
	}
	slices.SortFunc(out, func(a, b BudgetLeft) int { return CompareBudgetRefs(a.Budget, b.Budget) })
	return out, nil
}

// TitleSequence 返回某天的原始快照，最新的在前（含心跳）
func (s *TimeBudgetService) TitleSequence(ctx context.Context, user, date string) ([]SequenceEntry, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	from, to, err := repository.DayRange(date, s.agg.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	samples, err := s.samples.GetByTimeRange(ctx, user, from, to)
	if err != nil {
		return nil, err
	}
	names, err := s.classNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SequenceEntry, 0, len(samples))
	for i := len(samples) - 1; i >= 0; i-- {
		out = append(out, SequenceEntry{Sample: samples[i], ClassName: names[samples[i].ClassID]})
	}
	return out, nil
}

// RecentOverrides 返回上周一起至今（含未来日期）的全部例外
func (s *TimeBudgetService) RecentOverrides(ctx context.Context, user string) ([]repository.OverrideWithBudget, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	from := WeekStart(s.today()).AddDate(0, 0, -7).Format(repository.DateLayout)
	return s.overrides.GetSince(ctx, user, from)
}

// Users 返回至少有一条映射的用户
func (s *TimeBudgetService) Users(ctx context.Context) ([]string, error) {
	return s.mappings.ListUsers(ctx)
}
