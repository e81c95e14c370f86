package dto

// 注意：本包用于承载“对外契约”的 DTO（与管理端/HTTP API 保持稳定）。
// 不要在这里放 GORM/持久化细节；内部持久化 schema 请见 internal/schema；业务逻辑收敛在 internal/service。

// ===== 请求 =====

type ClassifyRequestDTO struct {
	Titles []string `json:"titles"`
}

type RecordActivityRequestDTO struct {
	Titles     []string `json:"titles"`
	FocusIndex *int     `json:"focus_index,omitempty"` // 缺省表示没有前台窗口
}

type NameRequestDTO struct {
	Name string `json:"name"`
}

type CreateRuleRequestDTO struct {
	ClassID  int64  `json:"class_id"`
	Priority int    `json:"priority"`
	Pattern  string `json:"pattern"`
}

type CreateMappingRequestDTO struct {
	ClassID  int64 `json:"class_id"`
	BudgetID int64 `json:"budget_id"`
}

type ValueRequestDTO struct {
	Value string `json:"value"`
}

type MinutesRequestDTO struct {
	Minutes int `json:"minutes"`
}

// ===== 响应 =====

type IDResponseDTO struct {
	ID int64 `json:"id"`
}

type ClassificationDTO struct {
	Title     string  `json:"title"`
	ClassID   int64   `json:"class_id"`
	ClassName string  `json:"class_name"`
	BudgetIDs []int64 `json:"budget_ids"`
}

// BudgetTimeSpentDTO budget_id 为 null 表示无预算桶
type BudgetTimeSpentDTO struct {
	BudgetID *int64           `json:"budget_id"`
	Days     map[string]int64 `json:"days"`
}

type TitleTimeDTO struct {
	LastSeen   int64  `json:"last_seen"`
	LastSeenAt string `json:"last_seen_at"`
	Seconds    int64  `json:"seconds"`
	ClassName  string `json:"class_name"`
	Title      string `json:"title"`
}

type BudgetLeftDTO struct {
	BudgetID    *int64 `json:"budget_id"`
	BudgetName  string `json:"budget_name,omitempty"`
	SecondsLeft int64  `json:"seconds_left"`
}

type SampleDTO struct {
	Timestamp int64  `json:"ts"`
	Time      string `json:"time"`
	ClassID   int64  `json:"class_id"`
	ClassName string `json:"class_name"`
	Focus     bool   `json:"focus"`
	Title     string `json:"title"`
}

// OverrideDTO minutes/unlocked 未设置时为 "default"
type OverrideDTO struct {
	Date       string `json:"date"`
	BudgetID   int64  `json:"budget_id"`
	BudgetName string `json:"budget_name"`
	Minutes    string `json:"minutes"`
	Unlocked   string `json:"unlocked"`
}

type ClassDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type RuleDTO struct {
	ID       int64  `json:"id"`
	ClassID  int64  `json:"class_id"`
	Priority int    `json:"priority"`
	Pattern  string `json:"pattern"`
}

type BudgetDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type BudgetConfigDTO struct {
	BudgetID   int64  `json:"budget_id"`
	BudgetName string `json:"budget_name"`
	Key        string `json:"key"`
	Value      string `json:"value"`
}

type MappingDTO struct {
	ClassID  int64 `json:"class_id"`
	BudgetID int64 `json:"budget_id"`
}
