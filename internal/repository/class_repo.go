package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/TimeBudget/internal/schema"
	"gorm.io/gorm"
)

// ClassRepository 分类与分类规则仓储
type ClassRepository struct {
	db *gorm.DB
}

// NewClassRepository 创建分类仓储
func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create 新增分类，返回自增 ID
func (r *ClassRepository) Create(ctx context.Context, name string) (int64, error) {
	class := &schema.Class{Name: name}
	if err := r.db.WithContext(ctx).Create(class).Error; err != nil {
		return 0, fmt.Errorf("创建分类失败: %w", err)
	}
	return class.ID, nil
}

// Delete 删除分类及其规则、映射（事务包裹）；历史活动记录保留原 class_id
func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_id = ?", id).Delete(&schema.ClassificationRule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", id).Delete(&schema.Mapping{}).Error; err != nil {
			return err
		}
		return tx.Delete(&schema.Class{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("删除分类失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 查询分类（不存在返回 nil）
func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*schema.Class, error) {
	var class schema.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询分类失败: %w", err)
	}
	return &class, nil
}

// List 列出全部分类（按 ID 升序）
func (r *ClassRepository) List(ctx context.Context) ([]schema.Class, error) {
	var classes []schema.Class
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("查询分类失败: %w", err)
	}
	return classes, nil
}

// CreateRule 新增分类规则，返回自增 ID
func (r *ClassRepository) CreateRule(ctx context.Context, classID int64, priority int, pattern string) (int64, error) {
	rule := &schema.ClassificationRule{ClassID: classID, Priority: priority, Pattern: pattern}
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return 0, fmt.Errorf("创建分类规则失败: %w", err)
	}
	return rule.ID, nil
}

// DeleteRule 删除分类规则
func (r *ClassRepository) DeleteRule(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&schema.ClassificationRule{}, id).Error; err != nil {
		return fmt.Errorf("删除分类规则失败: %w", err)
	}
	return nil
}

// ListRules 列出全部规则（优先级降序；同优先级的先后不作保证）
func (r *ClassRepository) ListRules(ctx context.Context) ([]schema.ClassificationRule, error) {
	var rules []schema.ClassificationRule
	if err := r.db.WithContext(ctx).Order("priority DESC").Order("id ASC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("查询分类规则失败: %w", err)
	}
	return rules, nil
}
