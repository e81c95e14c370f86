package schema

// UntitledPlaceholder 空标题窗口的占位文本，避免与心跳哨兵（空标题）冲突
const UntitledPlaceholder = "(untitled)"

// Sample 活动快照：某一时刻某个打开窗口的标题/分类/焦点状态
// 数据量级：百万级/年；只追加，完整元组唯一（重复写入为空操作）
type Sample struct {
	User      string `gorm:"primaryKey;size:32" json:"user"`
	Timestamp int64  `gorm:"column:ts;primaryKey;autoIncrement:false;index" json:"ts"` // Unix 时间戳（秒）
	ClassID   int64  `gorm:"primaryKey;autoIncrement:false" json:"class_id"`
	Focus     bool   `gorm:"primaryKey" json:"focus"`
	Title     string `gorm:"primaryKey;size:256" json:"title"` // 空串表示心跳（无窗口）
}

// TableName 指定表名
func (Sample) TableName() string {
	return "activity"
}

// IsHeartbeat 空标题记录只用于闭合上一个区间，不计时
func (s Sample) IsHeartbeat() bool {
	return s.Title == ""
}
