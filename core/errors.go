package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）、模块（Module）和操作（Op）
//   - 支持错误检查函数（IsXXX），兼容 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - Feature 错误：USAGE_ERROR（未 Fit 即 Transform）、EMPTY_INPUT（空目录）
//   - Rank 错误：USAGE_ERROR（未 Fit 即 Rank）、SHAPE_MISMATCH（向量维度不一致）
//   - Catalog 错误：INVALID_INPUT（CSV 格式错误、ID 冲突）
//   - Store 错误：NOT_FOUND
type DomainError struct {
	Code    string // 错误代码（如 "USAGE_ERROR", "SHAPE_MISMATCH"）
	Message string // 错误消息
	Module  string // 模块名称（如 "feature", "rank"）
	Op      string // 出错的操作（如 "transform", "rank"），可为空
}

func (e *DomainError) Error() string {
	if e.Op == "" {
		return e.Module + ": " + e.Message
	}
	return e.Module + "." + e.Op + ": " + e.Message
}

// Is 让 errors.Is 按 Module + Code 匹配哨兵错误。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Module == "" || e.Module == t.Module)
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取 DomainError（支持包装链），如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// NewUsageError 操作调用顺序错误，例如 Fit 之前调用 Transform。
func NewUsageError(module, op, message string) *DomainError {
	return &DomainError{Module: module, Op: op, Code: ErrorCodeUsage, Message: message}
}

// NewShapeMismatch 向量维度与已拟合的特征空间不一致。
func NewShapeMismatch(module, op string, want, got int) *DomainError {
	return &DomainError{
		Module:  module,
		Op:      op,
		Code:    ErrorCodeShapeMismatch,
		Message: fmt.Sprintf("vector length %d does not match fitted width %d", got, want),
	}
}

// NewEmptyInput 拟合输入为空（0 行或 0 个可用类别列）。
func NewEmptyInput(module, op, message string) *DomainError {
	return &DomainError{Module: module, Op: op, Code: ErrorCodeEmptyInput, Message: message}
}

// NewInvalidInput 输入数据格式错误。
func NewInvalidInput(module, op, message string) *DomainError {
	return &DomainError{Module: module, Op: op, Code: ErrorCodeInvalidInput, Message: message}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeUsage         = "USAGE_ERROR"    // 调用顺序错误
	ErrorCodeShapeMismatch = "SHAPE_MISMATCH" // 向量维度不一致
	ErrorCodeEmptyInput    = "EMPTY_INPUT"    // 空输入
)

// 模块名称常量
const (
	ModuleStore       = "store"
	ModuleCatalog     = "catalog"
	ModuleFeature     = "feature"
	ModuleRank        = "rank"
	ModuleExplain     = "explain"
	ModuleRecommender = "recommender"
	ModuleConfig      = "config"
	ModuleFilter      = "filter"
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsUsageError 检查错误是否为 USAGE_ERROR
func IsUsageError(err error) bool { return hasCode(err, ErrorCodeUsage) }

// IsShapeMismatch 检查错误是否为 SHAPE_MISMATCH
func IsShapeMismatch(err error) bool { return hasCode(err, ErrorCodeShapeMismatch) }

// IsEmptyInput 检查错误是否为 EMPTY_INPUT
func IsEmptyInput(err error) bool { return hasCode(err, ErrorCodeEmptyInput) }
