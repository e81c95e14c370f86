package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/yuqie6/TimeBudget/internal/repository"
	"github.com/yuqie6/TimeBudget/internal/schema"
)

// WeekStart 返回 now 所在周的周一 00:00（now 所在时区）
func WeekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	offset := (int(midnight.Weekday()) + 6) % 7 // 周一=0 ... 周日=6
	return midnight.AddDate(0, 0, -offset)
}

// DailyLimitKey 返回当天星期对应的配置键，如 daily_limit_minutes_mon
func DailyLimitKey(weekday time.Weekday) string {
	return schema.ConfigDailyLimitMinutesPrefix + strings.ToLower(weekday.String()[:3])
}

func configBool(cfg map[string]string, key string) bool {
	v, ok := cfg[key]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// configMinutes 读取分钟配置；缺失或非整数视为未配置
func configMinutes(cfg map[string]string, key string) (int64, bool) {
	v, ok := cfg[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SecondsLeftToday 计算某预算今天剩余秒数（负数表示超额），纯函数
// override 为 nil 表示今天没有例外行；spentByDate 为本周（周一起）每日已用秒数
//
// 优先级：
//  1. 有例外行、require_unlock 且未解锁 → 0
//  2. 例外设置了分钟数 → minutes*60 - 今日已用
//  3. require_unlock 且没有例外行 → 0
//  4. 星期专属限额，否则默认限额（都没有则 0）减去今日已用
//  5. 配置了周限额时取 min(今日剩余, 本周剩余)
func SecondsLeftToday(cfg map[string]string, now time.Time, override *schema.Override, spentByDate map[string]int64) int64 {
	today := now.Format(repository.DateLayout)
	spentToday := spentByDate[today]
	requireUnlock := configBool(cfg, schema.ConfigRequireUnlock)

	if override != nil {
		unlocked := override.Unlocked != nil && *override.Unlocked
		if requireUnlock && !unlocked {
			return 0
		}
		if override.Minutes != nil {
			return int64(*override.Minutes)*60 - spentToday
		}
	} else if requireUnlock {
		return 0
	}

	limit, ok := configMinutes(cfg, DailyLimitKey(now.Weekday()))
	if !ok {
		limit, _ = configMinutes(cfg, schema.ConfigDailyLimitMinutesDefault)
	}
	left := limit*60 - spentToday

	if weekly, ok := configMinutes(cfg, schema.ConfigWeeklyLimitMinutes); ok {
		weekFrom := WeekStart(now).Format(repository.DateLayout)
		var spentWeek int64
		for date, sec := range spentByDate {
			if date >= weekFrom && date <= today {
				spentWeek += sec
			}
		}
		left = min(left, weekly*60-spentWeek)
	}
	return left
}
