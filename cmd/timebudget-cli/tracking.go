package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuqie6/TimeBudget/internal/export"
	"github.com/yuqie6/TimeBudget/internal/repository"
	"github.com/yuqie6/TimeBudget/internal/service"
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func budgetIDs(ids []int64) string {
	if len(ids) == 0 {
		return service.NoBudget.String()
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return strings.Join(parts, ",")
}

func printClassifications(res []service.Classification) {
	w := newTable()
	fmt.Fprintln(w, "TITLE\tCLASS\tBUDGETS")
	for _, c := range res {
		fmt.Fprintf(w, "%s\t%s(%d)\t%s\n", c.Title, c.ClassName, c.ClassID, budgetIDs(c.BudgetIDs))
	}
	_ = w.Flush()
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <title>...",
		Short: "按当前规则对窗口标题分类（不记录）",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			res, err := core.Services.TimeBudget.Classify(cmd.Context(), u, args)
			if err != nil {
				return err
			}
			printClassifications(res)
			return nil
		},
	}
}

func recordCmd() *cobra.Command {
	var ts int64
	var focus int

	cmd := &cobra.Command{
		Use:   "record [title]...",
		Short: "记录一次窗口快照（不带标题时记录心跳）",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			if ts <= 0 {
				ts = core.Services.TimeBudget.Now().Unix()
			}
			res, err := core.Services.TimeBudget.RecordSnapshot(cmd.Context(), u, ts, args, focus)
			if err != nil {
				return err
			}
			if len(res) == 0 {
				printMuted("✅ 已记录心跳 ts=%d", ts)
				return nil
			}
			printClassifications(res)
			return nil
		},
	}

	cmd.Flags().Int64Var(&ts, "ts", 0, "Unix 时间戳（秒），默认当前时间")
	cmd.Flags().IntVar(&focus, "focus", service.NoFocus, "前台窗口在标题列表中的下标，-1 表示没有")
	return cmd
}

// dayBounds 把可选的 YYYY-MM-DD 转成 [from, to) 的秒级边界
func dayBounds(fromDate, toDate string) (from, to int64, err error) {
	loc := core.Services.TimeBudget.Location()
	from = service.WeekStart(core.Services.TimeBudget.Now()).Unix()
	if fromDate != "" {
		if from, _, err = repository.DayRange(fromDate, loc); err != nil {
			return 0, 0, err
		}
	}
	if toDate != "" {
		if _, to, err = repository.DayRange(toDate, loc); err != nil {
			return 0, 0, err
		}
	}
	return from, to, nil
}

func spentCmd() *cobra.Command {
	var fromDate, toDate, format string

	cmd := &cobra.Command{
		Use:   "spent",
		Short: "按预算与日期统计已用时长（默认本周）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			from, to, err := dayBounds(fromDate, toDate)
			if err != nil {
				return err
			}
			spent, err := core.Services.TimeBudget.TimeSpentByBudgetAndDate(cmd.Context(), u, from, to)
			if err != nil {
				return err
			}
			names, err := budgetNames(cmd)
			if err != nil {
				return err
			}
			rows := export.BudgetDayRows(spent, names)
			switch format {
			case "csv":
				return export.BudgetDaysCSV(os.Stdout, rows)
			case "json":
				return export.JSON(os.Stdout, rows)
			}
			if len(rows) == 0 {
				printMuted("📚 区间内没有记录")
				return nil
			}
			printTitle("📊 %s 按预算统计", u)
			w := newTable()
			fmt.Fprintln(w, "BUDGET\tNAME\tDATE\tSPENT")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Budget, r.BudgetName, r.Date, r.Duration)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&fromDate, "from", "", "起始日期 (YYYY-MM-DD)，默认本周一")
	cmd.Flags().StringVar(&toDate, "to", "", "结束日期 (YYYY-MM-DD，含)，默认不限")
	addFormatFlag(cmd, &format)
	return cmd
}

func todayOr(date string) string {
	if date != "" {
		return date
	}
	return core.Services.TimeBudget.Now().Format(repository.DateLayout)
}

func titlesCmd() *cobra.Command {
	var date, format string

	cmd := &cobra.Command{
		Use:   "titles",
		Short: "某天每个窗口标题的活跃时长",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			from, _, err := repository.DayRange(todayOr(date), core.Services.TimeBudget.Location())
			if err != nil {
				return err
			}
			rows, err := core.Services.TimeBudget.TimeSpentByTitle(cmd.Context(), u, from)
			if err != nil {
				return err
			}
			switch format {
			case "csv":
				return export.TitlesCSV(os.Stdout, rows, core.Services.TimeBudget.Location())
			case "json":
				return export.JSON(os.Stdout, rows)
			}
			w := newTable()
			fmt.Fprintln(w, "SPENT\tLAST SEEN\tCLASS\tTITLE")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					export.FormatDuration(r.Seconds),
					time.Unix(r.LastSeen, 0).Format("15:04:05"),
					r.ClassName, r.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "日期 (YYYY-MM-DD)，默认今天")
	addFormatFlag(cmd, &format)
	return cmd
}

func leftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "left",
		Short: "今日各预算剩余时长",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			rows, err := core.Services.TimeBudget.TimeLeftToday(cmd.Context(), u)
			if err != nil {
				return err
			}
			w := newTable()
			fmt.Fprintln(w, "BUDGET\tNAME\tLEFT")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Budget, r.BudgetName, renderLeft(r.SecondsLeft, export.FormatDuration(r.SecondsLeft)))
			}
			return w.Flush()
		},
	}
}

func sequenceCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "某天的原始快照序列（最新在前）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			rows, err := core.Services.TimeBudget.TitleSequence(cmd.Context(), u, todayOr(date))
			if err != nil {
				return err
			}
			w := newTable()
			fmt.Fprintln(w, "TIME\tFOCUS\tCLASS\tTITLE")
			for _, s := range rows {
				focus := ""
				if s.Focus {
					focus = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", time.Unix(s.Timestamp, 0).Format("15:04:05"), focus, s.ClassName, s.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "日期 (YYYY-MM-DD)，默认今天")
	return cmd
}

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "列出有映射的用户",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := core.Services.TimeBudget.Users(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Println(u)
			}
			return nil
		},
	}
}

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVar(format, "format", "table", "输出格式: table|csv|json")
}

func budgetNames(cmd *cobra.Command) (map[int64]string, error) {
	budgets, err := core.Services.Admin.ListBudgets(cmd.Context())
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(budgets))
	for _, b := range budgets {
		names[b.ID] = b.Name
	}
	return names, nil
}
