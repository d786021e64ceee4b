package utils

import (
	"net/http"
	"net/url"
	"strings"
)

// secretMarkers 头部名称包含这些片段时不在日志中输出原值
var secretMarkers = []string{"authorization", "token", "key", "secret", "cookie"}

func isSecretHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range secretMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// RedactHeaders 生成用于日志的头部快照,凭据类头部只保留认证方案
func RedactHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name := range headers {
		value := headers.Get(name)
		if isSecretHeader(name) {
			value = redactSecret(value)
		}
		result[name] = value
	}
	return result
}

// redactSecret "Bearer xxx" 保留为 "Bearer ***"
func redactSecret(value string) string {
	if scheme, _, ok := strings.Cut(value, " "); ok && scheme != "" {
		return scheme + " ***"
	}
	return "***"
}

// RedactURL 隐藏代理地址中的密码
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.User == nil {
		return raw
	}
	if _, ok := parsed.User.Password(); ok {
		parsed.User = url.UserPassword(parsed.User.Username(), "***")
	}
	return parsed.String()
}
