package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/yuqie6/TimeBudget/internal/service"
)

// BudgetDayRow 预算×日期的一行
type BudgetDayRow struct {
	Budget     string `json:"budget"`
	BudgetName string `json:"budget_name"`
	Date       string `json:"date"`
	Seconds    int64  `json:"seconds"`
	Duration   string `json:"duration"`
}

// BudgetDayRows 展开为按预算全序、日期升序的行
func BudgetDayRows(spent service.TimeSpent, names map[int64]string) []BudgetDayRow {
	out := make([]BudgetDayRow, 0, len(spent))
	for _, ref := range spent.Refs() {
		name := ""
		if id, ok := ref.ID(); ok {
			name = names[id]
		}
		days := spent[ref]
		dates := make([]string, 0, len(days))
		for d := range days {
			dates = append(dates, d)
		}
		slices.Sort(dates)
		for _, d := range dates {
			out = append(out, BudgetDayRow{
				Budget:     ref.String(),
				BudgetName: name,
				Date:       d,
				Seconds:    days[d],
				Duration:   FormatDuration(days[d]),
			})
		}
	}
	return out
}

func BudgetDaysCSV(w io.Writer, rows []BudgetDayRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Budget", "Name", "Date", "Seconds", "Duration"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Budget, r.BudgetName, r.Date, strconv.FormatInt(r.Seconds, 10), r.Duration}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TitlesCSV 按标题统计的结果，顺序与输入一致
func TitlesCSV(w io.Writer, rows []service.TitleTime, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Title", "Class", "Seconds", "Duration", "Last Seen"}); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			r.Title,
			r.ClassName,
			strconv.FormatInt(r.Seconds, 10),
			FormatDuration(r.Seconds),
			time.Unix(r.LastSeen, 0).In(loc).Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSON 缩进输出任意结果
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("序列化 JSON 失败: %w", err)
	}
	return nil
}

// FormatDuration 秒数格式化为 HH:MM:SS，负数带前导减号
func FormatDuration(secs int64) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}
