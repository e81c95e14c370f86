package schema

// Override 管理员为某用户某日某预算设置的例外：解锁和/或分钟数限额
// 主键 (user, date, budget_id)，每个键至多一行，两个字段可分别设置
type Override struct {
	User     string `gorm:"primaryKey;size:32" json:"user"`
	Date     string `gorm:"primaryKey;size:10" json:"date"` // YYYY-MM-DD（服务器本地时区）
	BudgetID int64  `gorm:"primaryKey;autoIncrement:false" json:"budget_id"`
	Minutes  *int   `json:"minutes,omitempty"`
	Unlocked *bool  `json:"unlocked,omitempty"`
}

// TableName 指定表名
func (Override) TableName() string {
	return "overrides"
}
