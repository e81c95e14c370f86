package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yuqie6/TimeBudget/internal/client"
	"github.com/yuqie6/TimeBudget/internal/export"
	"github.com/yuqie6/TimeBudget/internal/service"
)

func remoteCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:         "remote",
		Short:       "通过 HTTP 访问正在运行的 timebudget-server",
		Annotations: map[string]string{annotationNoCore: "1"},
	}
	cmd.PersistentFlags().StringVar(&server, "server", "http://127.0.0.1:8491", "服务地址")

	newClient := func() *client.Client { return client.New(server, 0) }

	var focus int
	record := &cobra.Command{
		Use:         "record [title]...",
		Short:       "上报一次窗口快照（时间戳取服务端时钟）",
		Annotations: map[string]string{annotationNoCore: "1"},
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			res, err := newClient().Record(cmd.Context(), u, args, focus)
			if err != nil {
				return err
			}
			w := newTable()
			fmt.Fprintln(w, "TITLE\tCLASS\tBUDGETS")
			for _, c := range res {
				fmt.Fprintf(w, "%s\t%s(%d)\t%s\n", c.Title, c.ClassName, c.ClassID, budgetIDs(c.BudgetIDs))
			}
			return w.Flush()
		},
	}
	record.Flags().IntVar(&focus, "focus", service.NoFocus, "前台窗口在标题列表中的下标，-1 表示没有")
	cmd.AddCommand(record)

	cmd.AddCommand(&cobra.Command{
		Use:         "left",
		Short:       "查询今日剩余时长",
		Annotations: map[string]string{annotationNoCore: "1"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			rows, err := newClient().TimeLeft(cmd.Context(), u)
			if err != nil {
				return err
			}
			w := newTable()
			fmt.Fprintln(w, "BUDGET\tNAME\tLEFT")
			for _, r := range rows {
				budget := service.NoBudget.String()
				if r.BudgetID != nil {
					budget = fmt.Sprint(*r.BudgetID)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", budget, r.BudgetName, renderLeft(r.SecondsLeft, export.FormatDuration(r.SecondsLeft)))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "status",
		Short:       "查看服务状态",
		Annotations: map[string]string{annotationNoCore: "1"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newClient().Status(cmd.Context())
			if err != nil {
				return err
			}
			printTitle("%s %s (%s)", st.App.Name, st.App.Version, st.App.Commit)
			fmt.Printf("  启动于 %s，已运行 %s\n", st.App.StartedAt, export.FormatDuration(st.App.UptimeSec))
			fmt.Printf("  数据库 %s（schema v%d）\n", st.Storage.DBPath, st.Storage.SchemaVersion)
			if st.App.SafeMode {
				fmt.Println(errorStyle.Render("  安全模式: " + st.Storage.SafeModeReason))
			}
			printMuted("  session_gap_sec=%d focus_only=%v log_level=%s", st.Tracking.SessionGapSec, st.Tracking.FocusOnly, st.App.LogLevel)
			return nil
		},
	})
	return cmd
}
