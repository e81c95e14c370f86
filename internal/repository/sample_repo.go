package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuqie6/TimeBudget/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SampleRepository 活动快照仓储（只追加）
type SampleRepository struct {
	db *gorm.DB
}

// NewSampleRepository 创建活动快照仓储
func NewSampleRepository(db *gorm.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// AppendBatch 批量追加快照（事务包裹，整批成功或整批失败；完整元组重复的行忽略）
func (r *SampleRepository) AppendBatch(ctx context.Context, samples []schema.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(samples, 100).Error
	})

	if err != nil {
		slog.Error("批量写入活动失败", "count", len(samples), "error", err)
		return fmt.Errorf("批量写入活动失败: %w", err)
	}

	slog.Debug("批量写入活动成功", "count", len(samples), "duration", time.Since(start))
	return nil
}

// GetByTimeRange 按时间范围 [from, to) 查询用户快照，to<=0 表示不设上限；按时间戳升序
func (r *SampleRepository) GetByTimeRange(ctx context.Context, user string, from, to int64) ([]schema.Sample, error) {
	query := r.db.WithContext(ctx).Where("user = ? AND ts >= ?", user, from)
	if to > 0 {
		query = query.Where("ts < ?", to)
	}

	var samples []schema.Sample
	if err := query.Order("ts ASC").Order("class_id ASC").Order("title ASC").Find(&samples).Error; err != nil {
		return nil, fmt.Errorf("查询活动失败: %w", err)
	}
	return samples, nil
}

// Count 统计用户快照总数
func (r *SampleRepository) Count(ctx context.Context, user string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&schema.Sample{}).Where("user = ?", user).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计活动失败: %w", err)
	}
	return count, nil
}
