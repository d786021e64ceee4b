package models

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// VenueKind 会议或期刊
type VenueKind string

const (
	KindConference VenueKind = "conference" // 按年份检索
	KindJournal    VenueKind = "journal"    // 按卷号检索
)

// ProxyConfig 代理配置,按目标URL协议选择
type ProxyConfig struct {
	HTTP  string `json:"http,omitempty" mapstructure:"http"`
	HTTPS string `json:"https,omitempty" mapstructure:"https"`
}

// IsEmpty 是否未配置任何代理
func (p ProxyConfig) IsEmpty() bool {
	return p.HTTP == "" && p.HTTPS == ""
}

// ForScheme 返回目标协议对应的代理地址,未配置时返回空串
func (p ProxyConfig) ForScheme(scheme string) string {
	switch strings.ToLower(scheme) {
	case "http":
		return p.HTTP
	case "https":
		return p.HTTPS
	}
	return ""
}

// Validate 验证代理地址格式
func (p ProxyConfig) Validate() error {
	for name, raw := range map[string]string{"http-proxy": p.HTTP, "https-proxy": p.HTTPS} {
		if raw == "" {
			continue
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return &ConfigError{Field: name, Value: raw, Cause: err}
		}
		switch parsed.Scheme {
		case "http", "https", "socks5":
		default:
			return &ConfigError{Field: name, Value: raw, Cause: fmt.Errorf("不支持的代理协议: %q", parsed.Scheme)}
		}
		if parsed.Host == "" {
			return &ConfigError{Field: name, Value: raw, Cause: fmt.Errorf("代理地址缺少主机名")}
		}
	}
	return nil
}

// ListingRequest 一次下载任务的输入
// 会议只使用Year,期刊只使用Volume
type ListingRequest struct {
	VenueKey     string      `json:"venue_key"`
	Year         int         `json:"year,omitempty"`
	Volume       int         `json:"volume,omitempty"`
	SaveDir      string      `json:"save_dir"`
	SleepSeconds float64     `json:"sleep_seconds"`
	Keyword      string      `json:"keyword,omitempty"`
	Proxy        ProxyConfig `json:"proxy"`
	Parallel     bool        `json:"parallel"`

	keywordPattern *regexp.Regexp
}

// Validate 根据场馆类型验证年份/卷号
// 缺失必填字段返回ConfigError;多余字段只产生警告,不阻止任务
func (r *ListingRequest) Validate(kind VenueKind) (warnings []string, err error) {
	switch kind {
	case KindConference:
		if r.Year <= 0 {
			return nil, &ConfigError{Field: "year", Cause: ErrMissingYear}
		}
		if r.Volume != 0 {
			warnings = append(warnings, fmt.Sprintf(
				"The conference %q does not require the volume field, but it is currently set to \"%d\".", r.VenueKey, r.Volume))
		}
	case KindJournal:
		if r.Volume <= 0 {
			return nil, &ConfigError{Field: "volume", Cause: ErrMissingVolume}
		}
		if r.Year != 0 {
			warnings = append(warnings, fmt.Sprintf(
				"The journal %q does not require the year field, but it is currently set to \"%d\".", r.VenueKey, r.Year))
		}
	default:
		return nil, &ConfigError{Field: "venue", Value: r.VenueKey, Cause: ErrUnsupportedVenue}
	}

	if r.SleepSeconds < 0 {
		return nil, &ConfigError{Field: "sleep", Value: fmt.Sprint(r.SleepSeconds), Cause: fmt.Errorf("间隔时间不能为负数")}
	}
	if strings.TrimSpace(r.SaveDir) == "" {
		return nil, &ConfigError{Field: "save-dir", Cause: fmt.Errorf("保存目录不能为空")}
	}
	if err := r.Proxy.Validate(); err != nil {
		return nil, err
	}
	if _, err := r.KeywordPattern(); err != nil {
		return nil, err
	}
	return warnings, nil
}

// KeywordPattern 返回编译后的关键词正则(忽略大小写),未设置关键词时返回nil
func (r *ListingRequest) KeywordPattern() (*regexp.Regexp, error) {
	if r.Keyword == "" {
		return nil, nil
	}
	if r.keywordPattern != nil {
		return r.keywordPattern, nil
	}
	re, err := regexp.Compile("(?i)" + r.Keyword)
	if err != nil {
		return nil, &ConfigError{Field: "keyword", Value: r.Keyword, Cause: err}
	}
	r.keywordPattern = re
	return re, nil
}
