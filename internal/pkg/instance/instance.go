// Package instance 保证同一数据目录下只运行一个服务进程
package instance

import "errors"

// ErrAlreadyRunning 已有进程持有锁
var ErrAlreadyRunning = errors.New("已有实例在运行")

// Lock 进程级单实例锁，Release 后可重新获取
type Lock struct {
	release func() error
}

// Release 释放锁
func (l *Lock) Release() error {
	if l == nil || l.release == nil {
		return nil
	}
	err := l.release()
	l.release = nil
	return err
}
