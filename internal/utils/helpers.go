package utils

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// extPattern 合理的扩展名: 点号加字母
var extPattern = regexp.MustCompile(`^\.[a-zA-Z]+$`)

// AbsoluteURL 将页面中的链接解析为绝对URL
//   - 已是http(s)绝对地址: 原样返回
//   - 以 / 开头: 拼接到基地址的根(协议+主机)
//   - 其他相对路径: 替换基地址的最后一段
func AbsoluteURL(base, link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "https://") || strings.HasPrefix(link, "http://") {
		return link
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return joinURL(base, link)
	}
	ref, err := url.Parse(link)
	if err != nil {
		// 链接含非法转义(如 100%_x.pdf)时按字符串拼接
		return joinURL(base, link)
	}
	return baseURL.ResolveReference(ref).String()
}

// joinURL 不经解析直接拼接基地址与相对链接
func joinURL(base, link string) string {
	if strings.HasPrefix(link, "/") {
		return urlRoot(base) + link
	}
	if j := strings.IndexAny(base, "?#"); j >= 0 {
		base = base[:j]
	}
	if i := strings.LastIndex(base, "/"); i >= 0 && i >= len(urlRoot(base)) {
		return base[:i+1] + link
	}
	return urlRoot(base) + "/" + link
}

// urlRoot 协议加主机部分,不含结尾斜杠
func urlRoot(base string) string {
	start := 0
	if i := strings.Index(base, "://"); i >= 0 {
		start = i + len("://")
	}
	if j := strings.IndexAny(base[start:], "/?#"); j >= 0 {
		return base[:start+j]
	}
	return base
}

// FileExtensionOrDefault 从URL路径中取扩展名(小写),不合理时返回默认值
func FileExtensionOrDefault(rawURL, defaultExt string) string {
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		p = parsed.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if extPattern.MatchString(ext) {
		return ext
	}
	return defaultExt
}

// HasFileExtension URL路径是否以指定扩展名结尾(忽略大小写与查询串)
func HasFileExtension(rawURL, ext string) bool {
	if strings.HasSuffix(strings.ToLower(rawURL), ext) {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(parsed.Path), ext)
}

// ValidateURL 验证URL格式
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("URL缺少协议(http/https)")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL协议必须是http或https")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL缺少主机名")
	}

	return nil
}

// HostOf 返回URL的主机名,解析失败返回空串
func HostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}
