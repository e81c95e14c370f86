package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/TimeBudget/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MappingRepository 用户 分类→预算 映射仓储
type MappingRepository struct {
	db *gorm.DB
}

// NewMappingRepository 创建映射仓储
func NewMappingRepository(db *gorm.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// Add 新增映射（已存在则忽略）
func (r *MappingRepository) Add(ctx context.Context, user string, classID, budgetID int64) error {
	m := &schema.Mapping{User: user, ClassID: classID, BudgetID: budgetID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error; err != nil {
		return fmt.Errorf("创建映射失败: %w", err)
	}
	return nil
}

// Remove 删除映射
func (r *MappingRepository) Remove(ctx context.Context, user string, classID, budgetID int64) error {
	err := r.db.WithContext(ctx).
		Where("user = ? AND class_id = ? AND budget_id = ?", user, classID, budgetID).
		Delete(&schema.Mapping{}).Error
	if err != nil {
		return fmt.Errorf("删除映射失败: %w", err)
	}
	return nil
}

// GetByUser 获取用户的全部映射（按 class_id, budget_id 升序）
func (r *MappingRepository) GetByUser(ctx context.Context, user string) ([]schema.Mapping, error) {
	var mappings []schema.Mapping
	err := r.db.WithContext(ctx).
		Where("user = ?", user).
		Order("class_id ASC").Order("budget_id ASC").
		Find(&mappings).Error
	if err != nil {
		return nil, fmt.Errorf("查询映射失败: %w", err)
	}
	return mappings, nil
}

// ListUsers 返回至少有一条映射的全部用户
func (r *MappingRepository) ListUsers(ctx context.Context) ([]string, error) {
	var users []string
	err := r.db.WithContext(ctx).
		Model(&schema.Mapping{}).
		Distinct("user").
		Order("user ASC").
		Pluck("user", &users).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return users, nil
}
