package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/TimeBudget/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OverrideRepository 每日例外仓储
type OverrideRepository struct {
	db *gorm.DB
}

// NewOverrideRepository 创建例外仓储
func NewOverrideRepository(db *gorm.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

var overrideKeyColumns = []clause.Column{{Name: "user"}, {Name: "date"}, {Name: "budget_id"}}

// SetMinutes 设置某日分钟限额（保留已有的解锁状态）
func (r *OverrideRepository) SetMinutes(ctx context.Context, user, date string, budgetID int64, minutes int) error {
	row := &schema.Override{User: user, Date: date, BudgetID: budgetID, Minutes: &minutes}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   overrideKeyColumns,
		DoUpdates: clause.AssignmentColumns([]string{"minutes"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("设置分钟例外失败: %w", err)
	}
	return nil
}

// SetUnlocked 解锁某日预算（保留已有的分钟限额）
func (r *OverrideRepository) SetUnlocked(ctx context.Context, user, date string, budgetID int64) error {
	unlocked := true
	row := &schema.Override{User: user, Date: date, BudgetID: budgetID, Unlocked: &unlocked}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   overrideKeyColumns,
		DoUpdates: clause.AssignmentColumns([]string{"unlocked"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("设置解锁例外失败: %w", err)
	}
	return nil
}

// Clear 清除某日某预算的全部例外
func (r *OverrideRepository) Clear(ctx context.Context, user, date string, budgetID int64) error {
	err := r.db.WithContext(ctx).
		Where("user = ? AND date = ? AND budget_id = ?", user, date, budgetID).
		Delete(&schema.Override{}).Error
	if err != nil {
		return fmt.Errorf("清除例外失败: %w", err)
	}
	return nil
}

// Get 查询单行例外（不存在返回 nil）
func (r *OverrideRepository) Get(ctx context.Context, user, date string, budgetID int64) (*schema.Override, error) {
	var row schema.Override
	err := r.db.WithContext(ctx).
		Where("user = ? AND date = ? AND budget_id = ?", user, date, budgetID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询例外失败: %w", err)
	}
	return &row, nil
}

// GetByDate 查询某日全部例外，按预算 ID 索引（主键保证每个预算至多一行）
func (r *OverrideRepository) GetByDate(ctx context.Context, user, date string) (map[int64]schema.Override, error) {
	var rows []schema.Override
	if err := r.db.WithContext(ctx).Where("user = ? AND date = ?", user, date).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询例外失败: %w", err)
	}
	out := make(map[int64]schema.Override, len(rows))
	for _, row := range rows {
		out[row.BudgetID] = row
	}
	return out, nil
}

// OverrideWithBudget 带预算名称的例外（用于列表展示）
type OverrideWithBudget struct {
	schema.Override
	BudgetName string `json:"budget_name"`
}

// GetSince 查询 fromDate（含）之后的全部例外，按日期升序；预算已删除的行不返回
func (r *OverrideRepository) GetSince(ctx context.Context, user, fromDate string) ([]OverrideWithBudget, error) {
	var rows []OverrideWithBudget
	err := r.db.WithContext(ctx).
		Table("overrides").
		Select("overrides.*, budgets.name AS budget_name").
		Joins("JOIN budgets ON budgets.id = overrides.budget_id").
		Where("overrides.user = ? AND overrides.date >= ?", user, fromDate).
		Order("overrides.date ASC").Order("overrides.budget_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询近期例外失败: %w", err)
	}
	return rows, nil
}
