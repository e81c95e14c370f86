package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/TimeBudget/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConfigRepository 用户级与全局键值配置仓储
type ConfigRepository struct {
	db *gorm.DB
}

// NewConfigRepository 创建键值配置仓储
func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// SetUser 插入或更新用户配置
func (r *ConfigRepository) SetUser(ctx context.Context, user, key, value string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user"}, {Name: "k"}},
		DoUpdates: clause.AssignmentColumns([]string{"v"}),
	}).Create(&schema.UserConfig{User: user, Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("写入用户配置失败: %w", err)
	}
	return nil
}

// ClearUser 删除用户配置项
func (r *ConfigRepository) ClearUser(ctx context.Context, user, key string) error {
	if err := r.db.WithContext(ctx).Where("user = ? AND k = ?", user, key).Delete(&schema.UserConfig{}).Error; err != nil {
		return fmt.Errorf("删除用户配置失败: %w", err)
	}
	return nil
}

// GetUser 获取用户配置 key→value
func (r *ConfigRepository) GetUser(ctx context.Context, user string) (map[string]string, error) {
	var rows []schema.UserConfig
	if err := r.db.WithContext(ctx).Where("user = ?", user).Order("k ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询用户配置失败: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// GetAllUsers 获取所有用户的配置（按 user, k 升序）
func (r *ConfigRepository) GetAllUsers(ctx context.Context) ([]schema.UserConfig, error) {
	var rows []schema.UserConfig
	if err := r.db.WithContext(ctx).Order("user ASC").Order("k ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询用户配置失败: %w", err)
	}
	return rows, nil
}

// SetGlobal 插入或更新全局配置
func (r *ConfigRepository) SetGlobal(ctx context.Context, key, value string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "k"}},
		DoUpdates: clause.AssignmentColumns([]string{"v"}),
	}).Create(&schema.GlobalConfig{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("写入全局配置失败: %w", err)
	}
	return nil
}

// ClearGlobal 删除全局配置项
func (r *ConfigRepository) ClearGlobal(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("k = ?", key).Delete(&schema.GlobalConfig{}).Error; err != nil {
		return fmt.Errorf("删除全局配置失败: %w", err)
	}
	return nil
}

// GetGlobal 获取全局配置 key→value
func (r *ConfigRepository) GetGlobal(ctx context.Context) (map[string]string, error) {
	var rows []schema.GlobalConfig
	if err := r.db.WithContext(ctx).Order("k ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询全局配置失败: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}
