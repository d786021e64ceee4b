package models

import (
	"errors"
	"fmt"
)

var (
	// 配置错误,任务不会启动
	ErrUnsupportedVenue  = errors.New("unsupported venue")
	ErrUnsupportedParams = errors.New("unsupported year or volume for venue")
	ErrMissingYear       = errors.New("Year is a required field.")
	ErrMissingVolume     = errors.New("Volume is a required field.")

	// 抽取失败,只影响当前论文或列表
	ErrNoFileFound   = errors.New("no paper file found on detail page")
	ErrSelectorDrift = errors.New("title and url counts differ")
	ErrListingShape  = errors.New("listing page does not have the expected shape")

	// ErrNothingToDo 列表为空
	ErrNothingToDo = errors.New("The paper list is empty!")
)

// ConfigError 配置错误
// 在任何网络请求之前返回给调用方
type ConfigError struct {
	// Field 出错的字段 (venue/year/volume/keyword...)
	Field string

	// Value 用户提供的值 (可选)
	Value string

	// Cause 底层错误
	Cause error

	// FilePath 出错的配置文件 (可选)
	FilePath string
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	switch {
	case e.FilePath != "":
		return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
	case e.Value != "":
		return fmt.Sprintf("配置错误 [%s=%s]: %v", e.Field, e.Value, e.Cause)
	default:
		return fmt.Sprintf("配置错误 [%s]: %v", e.Field, e.Cause)
	}
}

// Unwrap 支持errors.Is/As
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// IsConfigError 判断是否为配置错误
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// FetchError 网络请求失败
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("请求失败 [%s] 状态码%d: %v", e.URL, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("请求失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Is/As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Retryable 是否值得重试: 传输错误, 429, 5xx
func (e *FetchError) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == 429 || e.StatusCode >= 500
}
