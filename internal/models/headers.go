package models

import (
	"fmt"
	"net/http"
	"strings"
)

// HeaderProfile 请求伪装配置: 附加头部和User-Agent轮换池
// 由 headers.yaml 加载,加载后 UserAgents 一定非空
type HeaderProfile struct {
	Headers    map[string]string `mapstructure:"headers" yaml:"headers"`
	UserAgents []string          `mapstructure:"user_agents" yaml:"user_agents"`
}

// HasCustomPool 配置文件是否给出了自己的User-Agent池
func (p HeaderProfile) HasCustomPool() bool {
	return len(p.UserAgents) > 0
}

// ParseHeaderFlags 解析命令行 -H "Name: Value" 参数
func ParseHeaderFlags(flags []string) (http.Header, error) {
	result := make(http.Header, len(flags))
	for i, flag := range flags {
		name, value, ok := strings.Cut(flag, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("参数 --header 第%d项格式错误,应为 'Name: Value': %q", i+1, flag)
		}
		result.Set(name, strings.TrimSpace(value))
	}
	return result, nil
}

// HeaderProvider 每次请求前提供头部,多次调用的User-Agent可能不同
type HeaderProvider interface {
	GetHeaders() (http.Header, error)
}

// HeaderError 头部不能用于请求
type HeaderError struct {
	Header string
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("头部 [%s] 不可用: %s", e.Header, e.Reason)
}
