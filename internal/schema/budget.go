package schema

const (
	// 预算配置键
	ConfigRequireUnlock            = "require_unlock"
	ConfigDailyLimitMinutesPrefix  = "daily_limit_minutes_"
	ConfigDailyLimitMinutesDefault = ConfigDailyLimitMinutesPrefix + "default"
	ConfigWeeklyLimitMinutes       = "weekly_limit_minutes"
)

// Budget 预算（配额桶），本身不带限额，限额在 BudgetConfig 中
type Budget struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:256;not null" json:"name"`
}

// TableName 指定表名
func (Budget) TableName() string {
	return "budgets"
}

// Mapping 用户维度的 分类 → 预算 映射，同一分类可映射到多个预算
type Mapping struct {
	User     string `gorm:"primaryKey;size:32" json:"user"`
	ClassID  int64  `gorm:"primaryKey;autoIncrement:false" json:"class_id"`
	BudgetID int64  `gorm:"primaryKey;autoIncrement:false;index" json:"budget_id"`
}

// TableName 指定表名
func (Mapping) TableName() string {
	return "mappings"
}

// BudgetConfig 预算配置键值对（全局，不区分用户）
type BudgetConfig struct {
	BudgetID int64  `gorm:"primaryKey;autoIncrement:false" json:"budget_id"`
	Key      string `gorm:"column:k;primaryKey;size:100" json:"key"`
	Value    string `gorm:"column:v;size:200;not null" json:"value"`
}

// TableName 指定表名
func (BudgetConfig) TableName() string {
	return "budget_config"
}
