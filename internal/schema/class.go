package schema

import "math"

const (
	// DefaultClassID 保留的兜底分类，匹配所有标题
	DefaultClassID int64 = 1
	// DefaultClassName 兜底分类名称
	DefaultClassName = "default_class"

	// DefaultRuleID 兜底规则 ID
	DefaultRuleID int64 = 1
	// DefaultRulePattern 空匹配正则（正则不能为空串）
	DefaultRulePattern = "()"
	// DefaultRulePriority 兜底规则优先级最低
	DefaultRulePriority = math.MinInt32
)

// Class 窗口标题分类
// 数据量级：十级
type Class struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:256;not null" json:"name"`
}

// TableName 指定表名
func (Class) TableName() string {
	return "classes"
}

// ClassificationRule 分类规则：标题命中正则即归入 ClassID，优先级全局比较（大者优先）
type ClassificationRule struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ClassID  int64  `gorm:"not null;index" json:"class_id"`
	Priority int    `gorm:"not null" json:"priority"`
	Pattern  string `gorm:"column:re;size:1024;not null" json:"pattern"`
}

// TableName 指定表名
func (ClassificationRule) TableName() string {
	return "classification"
}
