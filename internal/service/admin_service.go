package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yuqie6/TimeBudget/internal/pkg/config"
	"github.com/yuqie6/TimeBudget/internal/repository"
	"github.com/yuqie6/TimeBudget/internal/schema"
)

// AdminService 管理端的增删改：分类、规则、预算、映射、预算配置、例外与键值配置
type AdminService struct {
	classes   ClassRepository
	budgets   BudgetRepository
	mappings  MappingRepository
	overrides OverrideRepository
	configs   ConfigRepository
}

// NewAdminService 创建管理服务
func NewAdminService(
	classes ClassRepository,
	budgets BudgetRepository,
	mappings MappingRepository,
	overrides OverrideRepository,
	configs ConfigRepository,
) *AdminService {
	return &AdminService{
		classes:   classes,
		budgets:   budgets,
		mappings:  mappings,
		overrides: overrides,
		configs:   configs,
	}
}

func requireName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %s名称不能为空", ErrValidation, kind)
	}
	return name, nil
}

func (s *AdminService) requireClass(ctx context.Context, id int64) error {
	c, err := s.classes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: 分类 %d", ErrNotFound, id)
	}
	return nil
}

func (s *AdminService) requireBudget(ctx context.Context, id int64) error {
	b, err := s.budgets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("%w: 预算 %d", ErrNotFound, id)
	}
	return nil
}

// ===== 分类与规则 =====

func (s *AdminService) AddClass(ctx context.Context, name string) (int64, error) {
	name, err := requireName("分类", name)
	if err != nil {
		return 0, err
	}
	return s.classes.Create(ctx, name)
}

// RemoveClass 删除分类及其规则与映射；兜底分类不可删除
func (s *AdminService) RemoveClass(ctx context.Context, id int64) error {
	if id == schema.DefaultClassID {
		return fmt.Errorf("%w: 兜底分类不可删除", ErrValidation)
	}
	if err := s.requireClass(ctx, id); err != nil {
		return err
	}
	return s.classes.Delete(ctx, id)
}

func (s *AdminService) ListClasses(ctx context.Context) ([]schema.Class, error) {
	return s.classes.List(ctx)
}

// AddRule 新增规则；正则在写入前编译校验
func (s *AdminService) AddRule(ctx context.Context, classID int64, priority int, pattern string) (int64, error) {
	if pattern == "" {
		return 0, fmt.Errorf("%w: 正则不能为空", ErrValidation)
	}
	if _, err := CompilePattern(pattern); err != nil {
		return 0, err
	}
	if err := s.requireClass(ctx, classID); err != nil {
		return 0, err
	}
	return s.classes.CreateRule(ctx, classID, priority, pattern)
}

// RemoveRule 删除规则；兜底规则不可删除
func (s *AdminService) RemoveRule(ctx context.Context, id int64) error {
	if id == schema.DefaultRuleID {
		return fmt.Errorf("%w: 兜底规则不可删除", ErrValidation)
	}
	return s.classes.DeleteRule(ctx, id)
}

func (s *AdminService) ListRules(ctx context.Context) ([]schema.ClassificationRule, error) {
	return s.classes.ListRules(ctx)
}

// ===== 预算与预算配置 =====

func (s *AdminService) AddBudget(ctx context.Context, name string) (int64, error) {
	name, err := requireName("预算", name)
	if err != nil {
		return 0, err
	}
	return s.budgets.Create(ctx, name)
}

// RemoveBudget 删除预算及其映射、配置、例外
func (s *AdminService) RemoveBudget(ctx context.Context, id int64) error {
	if err := s.requireBudget(ctx, id); err != nil {
		return err
	}
	return s.budgets.Delete(ctx, id)
}

func (s *AdminService) ListBudgets(ctx context.Context) ([]schema.Budget, error) {
	return s.budgets.List(ctx)
}

var weekdayKeys = map[string]struct{}{
	"mon": {}, "tue": {}, "wed": {}, "thu": {}, "fri": {}, "sat": {}, "sun": {}, "default": {},
}

// ValidateBudgetConfig 校验预算配置键与值的类型
func ValidateBudgetConfig(key, value string) error {
	value = strings.TrimSpace(value)
	switch {
	case key == schema.ConfigRequireUnlock:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %s 需要布尔值", ErrValidation, key)
		}
		return nil
	case key == schema.ConfigWeeklyLimitMinutes:
	case strings.HasPrefix(key, schema.ConfigDailyLimitMinutesPrefix):
		if _, ok := weekdayKeys[strings.TrimPrefix(key, schema.ConfigDailyLimitMinutesPrefix)]; !ok {
			return fmt.Errorf("%w: 未知配置键 %s", ErrValidation, key)
		}
	default:
		return fmt.Errorf("%w: 未知配置键 %s", ErrValidation, key)
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: %s 需要非负整数分钟", ErrValidation, key)
	}
	return nil
}

func (s *AdminService) SetBudgetConfig(ctx context.Context, budgetID int64, key, value string) error {
	if err := ValidateBudgetConfig(key, value); err != nil {
		return err
	}
	if err := s.requireBudget(ctx, budgetID); err != nil {
		return err
	}
	return s.budgets.SetConfig(ctx, budgetID, key, strings.TrimSpace(value))
}

func (s *AdminService) ClearBudgetConfig(ctx context.Context, budgetID int64, key string) error {
	return s.budgets.ClearConfig(ctx, budgetID, key)
}

func (s *AdminService) GetBudgetConfig(ctx context.Context, budgetID int64) (map[string]string, error) {
	if err := s.requireBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	return s.budgets.GetConfig(ctx, budgetID)
}

func (s *AdminService) ListBudgetConfigs(ctx context.Context) ([]repository.BudgetConfigRow, error) {
	return s.budgets.ListAllConfigs(ctx)
}

// ===== 映射 =====

func (s *AdminService) AddMapping(ctx context.Context, user string, classID, budgetID int64) error {
	if err := validateUser(user); err != nil {
		return err
	}
	if err := s.requireClass(ctx, classID); err != nil {
		return err
	}
	if err := s.requireBudget(ctx, budgetID); err != nil {
		return err
	}
	return s.mappings.Add(ctx, user, classID, budgetID)
}

func (s *AdminService) RemoveMapping(ctx context.Context, user string, classID, budgetID int64) error {
	if err := validateUser(user); err != nil {
		return err
	}
	return s.mappings.Remove(ctx, user, classID, budgetID)
}

func (s *AdminService) ListMappings(ctx context.Context, user string) ([]schema.Mapping, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	return s.mappings.GetByUser(ctx, user)
}

// ===== 例外 =====

func validateDate(date string) error {
	if _, err := time.ParseInLocation(repository.DateLayout, date, time.Local); err != nil {
		return fmt.Errorf("%w: 日期需为 YYYY-MM-DD: %q", ErrValidation, date)
	}
	return nil
}

func (s *AdminService) validateOverrideKey(ctx context.Context, user, date string, budgetID int64) error {
	if err := validateUser(user); err != nil {
		return err
	}
	if err := validateDate(date); err != nil {
		return err
	}
	return s.requireBudget(ctx, budgetID)
}

// OverrideMinutes 设置某日分钟限额，不影响解锁状态
func (s *AdminService) OverrideMinutes(ctx context.Context, user, date string, budgetID int64, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("%w: 分钟数不能为负", ErrValidation)
	}
	if err := s.validateOverrideKey(ctx, user, date, budgetID); err != nil {
		return err
	}
	return s.overrides.SetMinutes(ctx, user, date, budgetID, minutes)
}

// OverrideUnlock 解锁某日预算，不影响分钟限额
func (s *AdminService) OverrideUnlock(ctx context.Context, user, date string, budgetID int64) error {
	if err := s.validateOverrideKey(ctx, user, date, budgetID); err != nil {
		return err
	}
	return s.overrides.SetUnlocked(ctx, user, date, budgetID)
}

// ClearOverride 删除某日某预算的例外行
func (s *AdminService) ClearOverride(ctx context.Context, user, date string, budgetID int64) error {
	if err := validateUser(user); err != nil {
		return err
	}
	if err := validateDate(date); err != nil {
		return err
	}
	return s.overrides.Clear(ctx, user, date, budgetID)
}

// ===== 用户级与全局键值配置 =====

func requireKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: 配置键不能为空", ErrValidation)
	}
	return nil
}

func (s *AdminService) SetUserConfig(ctx context.Context, user, key, value string) error {
	if err := validateUser(user); err != nil {
		return err
	}
	if err := requireKey(key); err != nil {
		return err
	}
	return s.configs.SetUser(ctx, user, key, value)
}

func (s *AdminService) ClearUserConfig(ctx context.Context, user, key string) error {
	if err := validateUser(user); err != nil {
		return err
	}
	return s.configs.ClearUser(ctx, user, key)
}

func (s *AdminService) GetUserConfig(ctx context.Context, user string) (map[string]string, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	return s.configs.GetUser(ctx, user)
}

func (s *AdminService) ListUserConfigs(ctx context.Context) ([]schema.UserConfig, error) {
	return s.configs.GetAllUsers(ctx)
}

func (s *AdminService) SetGlobalConfig(ctx context.Context, key, value string) error {
	if err := requireKey(key); err != nil {
		return err
	}
	if key == schema.GlobalConfigLogLevel {
		if _, ok := config.ParseLevel(value); !ok {
			return fmt.Errorf("%w: log_level 需为 debug|info|warn|error", ErrValidation)
		}
	}
	return s.configs.SetGlobal(ctx, key, value)
}

func (s *AdminService) ClearGlobalConfig(ctx context.Context, key string) error {
	return s.configs.ClearGlobal(ctx, key)
}

func (s *AdminService) GetGlobalConfig(ctx context.Context) (map[string]string, error) {
	return s.configs.GetGlobal(ctx)
}
