package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorMuted   = lipgloss.Color("#666666")
	colorSuccess = lipgloss.Color("#2ECC71")
	colorWarning = lipgloss.Color("#F39C12")
	colorError   = lipgloss.Color("#E74C3C")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
)

// 剩余不足 10 分钟时提示
const lowBudgetSec = 10 * 60

func printTitle(format string, args ...any) {
	fmt.Println(titleStyle.Render(fmt.Sprintf(format, args...)))
}

func printMuted(format string, args ...any) {
	fmt.Println(mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// renderLeft 按剩余额度着色；只用于表格最后一列，避免转义序列打乱对齐
func renderLeft(sec int64, text string) string {
	switch {
	case sec <= 0:
		return errorStyle.Render(text)
	case sec < lowBudgetSec:
		return warningStyle.Render(text)
	default:
		return successStyle.Render(text)
	}
}
