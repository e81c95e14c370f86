package service

import "errors"

var (
	// ErrNotFound 引用的分类/预算/规则不存在
	ErrNotFound = errors.New("资源不存在")
	// ErrValidation 调用参数不合法（空名称、非法正则、非法日期等）
	ErrValidation = errors.New("参数不合法")
	// ErrClassificationFailed 没有任何规则命中标题；兜底规则存在时不可能发生，属于数据一致性故障
	ErrClassificationFailed = errors.New("分类失败：没有规则命中")
)
