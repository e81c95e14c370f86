package schema

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels 返回需要迁移的全部表模型（schema_meta 单独处理）
func AllModels() []any {
	return []any{
		&Class{},
		&ClassificationRule{},
		&Budget{},
		&Mapping{},
		&BudgetConfig{},
		&Sample{},
		&Override{},
		&UserConfig{},
		&GlobalConfig{},
	}
}

// DefaultClass 保留的兜底分类行
func DefaultClass() *Class {
	return &Class{ID: DefaultClassID, Name: DefaultClassName}
}

// DefaultRule 保留的兜底规则行：空匹配 + 最低优先级，保证任何标题都能被分类
func DefaultRule() *ClassificationRule {
	return &ClassificationRule{
		ID:       DefaultRuleID,
		ClassID:  DefaultClassID,
		Priority: DefaultRulePriority,
		Pattern:  DefaultRulePattern,
	}
}

// SeedDefaults 在一个事务里写入兜底分类与兜底规则（已存在则忽略）
// 每行各自 Clauses().Create()，链式 *gorm.DB 会沿用上一次的 Statement
func SeedDefaults(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(DefaultClass()).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(DefaultRule()).Error
	})
}
