// Package fetchertest 提供内存中的 models.ResourceFetcher 实现,供测试使用
package fetchertest

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
)

// Stub 按URL返回预设内容,未登记的URL返回404
type Stub struct {
	mu        sync.Mutex
	texts     map[string]string
	bytes     map[string][]byte
	redirects map[string]string
	calls     map[string]int
	total     int
}

// New 创建空的Stub
func New() *Stub {
	return &Stub{
		texts:     make(map[string]string),
		bytes:     make(map[string][]byte),
		redirects: make(map[string]string),
		calls:     make(map[string]int),
	}
}

// Text 登记文本内容
func (s *Stub) Text(rawURL, content string) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[rawURL] = content
	return s
}

// Bytes 登记二进制内容
func (s *Stub) Bytes(rawURL string, content []byte) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bytes[rawURL] = content
	return s
}

// Redirect 登记HEAD重定向
func (s *Stub) Redirect(from, to string) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redirects[from] = to
	return s
}

// Calls 某个URL被请求的次数
func (s *Stub) Calls(rawURL string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[rawURL]
}

// Total 全部请求次数
func (s *Stub) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Stub) record(rawURL string) {
	s.calls[rawURL]++
	s.total++
}

func notFound(rawURL string) error {
	return &models.FetchError{URL: rawURL, StatusCode: http.StatusNotFound, Cause: fmt.Errorf("Not Found")}
}

// FetchText 实现 models.ResourceFetcher
func (s *Stub) FetchText(ctx context.Context, rawURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(rawURL)
	if content, ok := s.texts[rawURL]; ok {
		return content, nil
	}
	if content, ok := s.bytes[rawURL]; ok {
		return string(content), nil
	}
	return "", notFound(rawURL)
}

// FetchBytes 实现 models.ResourceFetcher
func (s *Stub) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(rawURL)
	if content, ok := s.bytes[rawURL]; ok {
		return append([]byte(nil), content...), nil
	}
	if content, ok := s.texts[rawURL]; ok {
		return []byte(content), nil
	}
	return nil, notFound(rawURL)
}

// ResolveFinalURL 实现 models.ResourceFetcher,未登记重定向时返回原地址
func (s *Stub) ResolveFinalURL(ctx context.Context, rawURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(rawURL)
	if to, ok := s.redirects[rawURL]; ok {
		return to, nil
	}
	return rawURL, nil
}
