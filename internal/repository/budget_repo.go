package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/TimeBudget/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BudgetRepository 预算与预算配置仓储
type BudgetRepository struct {
	db *gorm.DB
}

// NewBudgetRepository 创建预算仓储
func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// Create 新增预算，返回自增 ID
func (r *BudgetRepository) Create(ctx context.Context, name string) (int64, error) {
	budget := &schema.Budget{Name: name}
	if err := r.db.WithContext(ctx).Create(budget).Error; err != nil {
		return 0, fmt.Errorf("创建预算失败: %w", err)
	}
	return budget.ID, nil
}

// Delete 删除预算及其映射、配置、例外（事务包裹）
func (r *BudgetRepository) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&schema.Mapping{}, &schema.BudgetConfig{}, &schema.Override{}} {
			if err := tx.Where("budget_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&schema.Budget{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("删除预算失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 查询预算（不存在返回 nil）
func (r *BudgetRepository) GetByID(ctx context.Context, id int64) (*schema.Budget, error) {
	var budget schema.Budget
	if err := r.db.WithContext(ctx).First(&budget, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询预算失败: %w", err)
	}
	return &budget, nil
}

// List 列出全部预算（按 ID 升序）
func (r *BudgetRepository) List(ctx context.Context) ([]schema.Budget, error) {
	var budgets []schema.Budget
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("查询预算失败: %w", err)
	}
	return budgets, nil
}

// SetConfig 插入或更新预算配置
func (r *BudgetRepository) SetConfig(ctx context.Context, budgetID int64, key, value string) error {
	cfg := &schema.BudgetConfig{BudgetID: budgetID, Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "budget_id"}, {Name: "k"}},
		DoUpdates: clause.AssignmentColumns([]string{"v"}),
	}).Create(cfg).Error
	if err != nil {
		return fmt.Errorf("写入预算配置失败: %w", err)
	}
	return nil
}

// ClearConfig 删除预算配置项
func (r *BudgetRepository) ClearConfig(ctx context.Context, budgetID int64, key string) error {
	err := r.db.WithContext(ctx).
		Where("budget_id = ? AND k = ?", budgetID, key).
		Delete(&schema.BudgetConfig{}).Error
	if err != nil {
		return fmt.Errorf("删除预算配置失败: %w", err)
	}
	return nil
}

// GetConfig 获取单个预算的配置 key→value
func (r *BudgetRepository) GetConfig(ctx context.Context, budgetID int64) (map[string]string, error) {
	var rows []schema.BudgetConfig
	if err := r.db.WithContext(ctx).Where("budget_id = ?", budgetID).Order("k ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询预算配置失败: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// MappedBudgetConfig 某用户已映射预算的名称与配置
type MappedBudgetConfig struct {
	Budget schema.Budget
	Config map[string]string
}

// GetMappedConfigs 获取用户已映射的所有预算及其配置（按预算 ID 升序，未配置的预算给空 map）
func (r *BudgetRepository) GetMappedConfigs(ctx context.Context, user string) ([]MappedBudgetConfig, error) {
	var budgets []schema.Budget
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&schema.Mapping{}).Select("budget_id").Where("user = ?", user)).
		Order("id ASC").
		Find(&budgets).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户预算失败: %w", err)
	}
	if len(budgets) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(budgets))
	for _, b := range budgets {
		ids = append(ids, b.ID)
	}
	var rows []schema.BudgetConfig
	if err := r.db.WithContext(ctx).Where("budget_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询预算配置失败: %w", err)
	}
	byBudget := make(map[int64]map[string]string, len(budgets))
	for _, row := range rows {
		if byBudget[row.BudgetID] == nil {
			byBudget[row.BudgetID] = make(map[string]string)
		}
		byBudget[row.BudgetID][row.Key] = row.Value
	}

	out := make([]MappedBudgetConfig, 0, len(budgets))
	for _, b := range budgets {
		cfg := byBudget[b.ID]
		if cfg == nil {
			cfg = map[string]string{}
		}
		out = append(out, MappedBudgetConfig{Budget: b, Config: cfg})
	}
	return out, nil
}

// BudgetConfigRow 带预算名称的配置行
type BudgetConfigRow struct {
	BudgetID   int64  `json:"budget_id"`
	BudgetName string `json:"budget_name"`
	Key        string `json:"key"`
	Value      string `json:"value"`
}

// ListAllConfigs 列出全部预算配置（按预算 ID、键升序）
func (r *BudgetRepository) ListAllConfigs(ctx context.Context) ([]BudgetConfigRow, error) {
	var rows []BudgetConfigRow
	err := r.db.WithContext(ctx).
		Table("budget_config").
		Select(`budget_config.budget_id AS budget_id, budgets.name AS budget_name, budget_config.k AS "key", budget_config.v AS "value"`).
		Joins("JOIN budgets ON budgets.id = budget_config.budget_id").
		Order("budget_config.budget_id ASC").Order("budget_config.k ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询预算配置失败: %w", err)
	}
	return rows, nil
}
