package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/yuqie6/TimeBudget/internal/bootstrap"
	"github.com/yuqie6/TimeBudget/internal/pkg/buildinfo"
)

var (
	cfgFile string
	user    string
	core    *bootstrap.Core
)

// 不需要打开数据库的命令
const annotationNoCore = "no-core"

func main() {
	rootCmd := &cobra.Command{
		Use:           "timebudget",
		Short:         "TimeBudget - 屏幕时间分类与预算统计",
		Long:          `TimeBudget 按窗口标题把活动归类到预算，统计每天已用时长并计算今日剩余额度。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoCore] != "" {
				return nil
			}
			var err error
			core, err = bootstrap.NewCore(cfgFile)
			if err != nil {
				return fmt.Errorf("初始化失败: %w", err)
			}
			core.ApplyGlobalLogLevel(cmd.Context())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				_ = core.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", "", "用户名")

	// 统计与记录
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(recordCmd())
	rootCmd.AddCommand(spentCmd())
	rootCmd.AddCommand(titlesCmd())
	rootCmd.AddCommand(leftCmd())
	rootCmd.AddCommand(sequenceCmd())
	rootCmd.AddCommand(usersCmd())

	// 管理
	rootCmd.AddCommand(classCmd())
	rootCmd.AddCommand(ruleCmd())
	rootCmd.AddCommand(budgetCmd())
	rootCmd.AddCommand(mapCmd())
	rootCmd.AddCommand(budgetConfigCmd())
	rootCmd.AddCommand(overrideCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(remoteCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "显示版本信息",
		Annotations: map[string]string{annotationNoCore: "1"},
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildinfo.String())
		},
	}
}

// requireUser 需要 --user 的命令调用
func requireUser() (string, error) {
	if user == "" {
		return "", errors.New("需要通过 --user 指定用户")
	}
	return user, nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s 需为整数: %q", what, s)
	}
	return id, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
