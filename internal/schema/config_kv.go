package schema

// GlobalConfigLogLevel 全局配置中覆盖日志级别的键
const GlobalConfigLogLevel = "log_level"

// UserConfig 用户级键值配置
type UserConfig struct {
	User  string `gorm:"primaryKey;size:32" json:"user"`
	Key   string `gorm:"column:k;primaryKey;size:100" json:"key"`
	Value string `gorm:"column:v;size:200;not null" json:"value"`
}

// TableName 指定表名
func (UserConfig) TableName() string {
	return "user_config"
}

// GlobalConfig 全局键值配置
type GlobalConfig struct {
	Key   string `gorm:"column:k;primaryKey;size:100" json:"key"`
	Value string `gorm:"column:v;size:200;not null" json:"value"`
}

// TableName 指定表名
func (GlobalConfig) TableName() string {
	return "global_config"
}
