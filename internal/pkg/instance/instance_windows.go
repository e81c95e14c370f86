//go:build windows

package instance

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// Acquire 以命名互斥量实现单实例；Local\ 将范围限制在当前会话
func Acquire(path string) (*Lock, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("获取绝对路径失败: %w", err)
	}
	name := `Local\TimeBudget_` + strings.NewReplacer(`\`, "_", ":", "_", "/", "_").Replace(abs)
	mutex, err := windows.CreateMutex(nil, false, windows.StringToUTF16Ptr(name))
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		if mutex != 0 {
			_ = windows.CloseHandle(mutex)
		}
		return nil, ErrAlreadyRunning
	}
	if err != nil {
		return nil, fmt.Errorf("创建互斥量失败: %w", err)
	}
	return &Lock{release: func() error { return windows.CloseHandle(mutex) }}, nil
}
