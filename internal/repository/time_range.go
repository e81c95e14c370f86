package repository

import (
	"fmt"
	"time"
)

// DateLayout 日期格式（服务器本地时区）
const DateLayout = "2006-01-02"

// DayRange 将 YYYY-MM-DD 解析为 loc 时区下日区间的秒级时间戳 [start, end)（左闭右开）。
// loc 为 nil 时使用服务器本地时区
func DayRange(date string, loc *time.Location) (startSec int64, endSec int64, err error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return 0, 0, fmt.Errorf("解析日期失败: %w", err)
	}
	// AddDate 而非 24h：夏令时切换日不是 24 小时
	return t.Unix(), t.AddDate(0, 0, 1).Unix(), nil
}
