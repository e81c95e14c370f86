package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/yuqie6/TimeBudget/internal/pkg/config"
)

func classCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "class", Short: "管理分类"}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "新增分类",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.Services.Admin.AddClass(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("✅ 已新增分类 %d\n", id)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "删除分类（连同其规则与映射）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "分类 ID")
			if err != nil {
				return err
			}
			return core.Services.Admin.RemoveClass(cmd.Context(), id)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "列出分类",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := core.Services.Admin.ListClasses(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable()
			fmt.Fprintln(w, "ID\tNAME")
			for _, c := range rows {
				fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name)
			}
			return w.Flush()
		},
	})
	return cmd
}

func ruleCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "rule", Short: "管理分类规则"}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <class_id> <priority> <pattern>",
		Short: "新增规则（正则，不区分大小写）",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			classID, err := parseID(args[0], "分类 ID")
			if err != nil {
				return err
			}
			priority, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("优先级需为整数: %q", args[1])
			}
			id, err := core.Services.Admin.AddRule(cmd.Context(), classID, priority, args[2])
			if err != nil {
				return err
			}
			fmt.Printf("✅ 已新增规则 %d\n", id)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "删除规则",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "规则 ID")
			if err != nil {
				return err
			}
			return core.Services.Admin.RemoveRule(cmd.Context(), id)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "按优先级列出规则",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := core.Services.Admin.ListRules(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable()
			fmt.Fprintln(w, "ID\tCLASS\tPRIORITY\tPATTERN")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", r.ID, r.ClassID, r.Priority, r.Pattern)
			}
			return w.Flush()
		},
	})
	return cmd
}

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "budget", Short: "管理预算"}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "新增预算",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.Services.Admin.AddBudget(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("✅ 已新增预算 %d\n", id)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "删除预算（连同映射、配置与例外）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "预算 ID")
			if err != nil {
				return err
			}
			return core.Services.Admin.RemoveBudget(cmd.Context(), id)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "列出预算",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := core.Services.Admin.ListBudgets(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable()
			fmt.Fprintln(w, "ID\tNAME")
			for _, b := range rows {
				fmt.Fprintf(w, "%d\t%s\n", b.ID, b.Name)
			}
			return w.Flush()
		},
	})
	return cmd
}

func mapCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "map", Short: "管理用户的分类→预算映射（需 --user）"}

	ids := func(args []string) (int64, int64, error) {
		classID, err := parseID(args[0], "分类 ID")
		if err != nil {
			return 0, 0, err
		}
		budgetID, err := parseID(args[1], "预算 ID")
		return classID, budgetID, err
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <class_id> <budget_id>",
		Short: "新增映射",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			classID, budgetID, err := ids(args)
			if err != nil {
				return err
			}
			return core.Services.Admin.AddMapping(cmd.Context(), u, classID, budgetID)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <class_id> <budget_id>",
		Short: "删除映射",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			classID, budgetID, err := ids(args)
			if err != nil {
				return err
			}
			return core.Services.Admin.RemoveMapping(cmd.Context(), u, classID, budgetID)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "列出映射",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			rows, err := core.Services.Admin.ListMappings(cmd.Context(), u)
			if err != nil {
				return err
			}
			w := newTable()
			fmt.Fprintln(w, "CLASS\tBUDGET")
			for _, m := range rows {
				fmt.Fprintf(w, "%d\t%d\n", m.ClassID, m.BudgetID)
			}
			return w.Flush()
		},
	})
	return cmd
}

func budgetConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "budget-config", Short: "管理预算限额配置"}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <budget_id> <key> <value>",
		Short: "设置配置项（require_unlock / daily_limit_minutes_<mon..sun|default> / weekly_limit_minutes）",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "预算 ID")
			if err != nil {
				return err
			}
			return core.Services.Admin.SetBudgetConfig(cmd.Context(), id, args[1], args[2])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear <budget_id> <key>",
		Short: "清除配置项",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "预算 ID")
			if err != nil {
				return err
			}
			return core.Services.Admin.ClearBudgetConfig(cmd.Context(), id, args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "列出全部预算配置",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := core.Services.Admin.ListBudgetConfigs(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable()
			fmt.Fprintln(w, "BUDGET\tNAME\tKEY\tVALUE")
			for _, c := range rows {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.BudgetID, c.BudgetName, c.Key, c.Value)
			}
			return w.Flush()
		},
	})
	return cmd
}

func overrideCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "override", Short: "管理某日的例外（需 --user）"}

	cmd.AddCommand(&cobra.Command{
		Use:   "minutes <date> <budget_id> <minutes>",
		Short: "设置当天分钟限额",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			id, err := parseID(args[1], "预算 ID")
			if err != nil {
				return err
			}
			minutes, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("分钟数需为整数: %q", args[2])
			}
			return core.Services.Admin.OverrideMinutes(cmd.Context(), u, args[0], id, minutes)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "unlock <date> <budget_id>",
		Short: "解锁当天预算",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			id, err := parseID(args[1], "预算 ID")
			if err != nil {
				return err
			}
			return core.Services.Admin.OverrideUnlock(cmd.Context(), u, args[0], id)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear <date> <budget_id>",
		Short: "清除当天例外",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			id, err := parseID(args[1], "预算 ID")
			if err != nil {
				return err
			}
			return core.Services.Admin.ClearOverride(cmd.Context(), u, args[0], id)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "列出上周一以来的例外",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := requireUser()
			if err != nil {
				return err
			}
			rows, err := core.Services.TimeBudget.RecentOverrides(cmd.Context(), u)
			if err != nil {
				return err
			}
			w := newTable()
			fmt.Fprintln(w, "DATE\tBUDGET\tMINUTES\tUNLOCKED")
			for _, o := range rows {
				minutes, unlocked := "default", "default"
				if o.Minutes != nil {
					minutes = strconv.Itoa(*o.Minutes)
				}
				if o.Unlocked != nil {
					unlocked = strconv.FormatBool(*o.Unlocked)
				}
				fmt.Fprintf(w, "%s\t%s(%d)\t%s\t%s\n", o.Date, o.BudgetName, o.BudgetID, minutes, unlocked)
			}
			return w.Flush()
		},
	})
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "配置文件与键值配置（带 --user 时为用户级，否则为全局）"}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "写出默认配置文件",
		Annotations: map[string]string{annotationNoCore: "1"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if !force && fileExists(path) {
				return fmt.Errorf("配置文件已存在: %s（使用 --force 覆盖）", path)
			}
			if err := config.WriteFile(path, config.Default()); err != nil {
				return err
			}
			fmt.Printf("✅ 已写入 %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "覆盖已有文件")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "设置配置项",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user != "" {
				return core.Services.Admin.SetUserConfig(cmd.Context(), user, args[0], args[1])
			}
			return core.Services.Admin.SetGlobalConfig(cmd.Context(), args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear <key>",
		Short: "清除配置项",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user != "" {
				return core.Services.Admin.ClearUserConfig(cmd.Context(), user, args[0])
			}
			return core.Services.Admin.ClearGlobalConfig(cmd.Context(), args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "列出配置项",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kv map[string]string
			var err error
			if user != "" {
				kv, err = core.Services.Admin.GetUserConfig(cmd.Context(), user)
			} else {
				kv, err = core.Services.Admin.GetGlobalConfig(cmd.Context())
			}
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(kv))
			for k := range kv {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			w := newTable()
			fmt.Fprintln(w, "KEY\tVALUE")
			for _, k := range keys {
				fmt.Fprintf(w, "%s\t%s\n", k, kv[k])
			}
			return w.Flush()
		},
	})
	return cmd
}
