package main

import (
	"fmt"
	"strings"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/venue"
)

// ResolveVenueKey 接受键(忽略大小写)或显示名,返回注册表中的键
func ResolveVenueKey(registry *venue.Registry, input string) (string, error) {
	input = strings.TrimSpace(input)
	if d, ok := registry.Lookup(input); ok {
		return d.Key, nil
	}
	if key, ok := registry.KeyForDisplayName(input); ok {
		return key, nil
	}
	return "", fmt.Errorf("Unsupported venue: %s (可选: %s): %w",
		input, strings.Join(registry.Keys(), ", "), models.ErrUnsupportedVenue)
}

// ValidateFlags 验证命令行标志
// 年份/卷号是否必填由场馆类型决定,在下载前检查
func ValidateFlags(year, volume int, keyword string) error {
	if year < 0 {
		return fmt.Errorf("年份不能为负数,当前值: %d", year)
	}
	if volume < 0 {
		return fmt.Errorf("卷号不能为负数,当前值: %d", volume)
	}

	req := models.ListingRequest{Keyword: keyword}
	if _, err := req.KeywordPattern(); err != nil {
		return err
	}
	return nil
}
