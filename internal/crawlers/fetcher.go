package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
	"github.com/gocolly/colly/v2"
)

// maxRedirects 与net/http默认值一致
const maxRedirects = 10

// FetcherConfig 资源获取器配置
type FetcherConfig struct {
	Timeout        time.Duration      // 整个请求(含正文)的超时,0表示不限制
	MaxBodySize    int                // 响应体上限(字节),0表示不限制
	Proxy          models.ProxyConfig // 按协议选择的代理
	Retries        int                // 可重试错误的最大重试次数
	RetryBaseDelay time.Duration      // 首次重试前的等待时间
}

// DefaultFetcherConfig 默认配置
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

// FetchObserver 每次请求结束后的回调,用于指标统计
type FetchObserver func(method string, statusCode int, size int, err error)

// Fetcher 基于Colly的资源获取器,实现 models.ResourceFetcher
// 每个请求使用独立的collector,共享同一个传输层
type Fetcher struct {
	config    FetcherConfig
	transport http.RoundTripper
	headers   models.HeaderProvider
	retry     RetryPolicy
	observer  FetchObserver
}

// NewFetcher 创建资源获取器
func NewFetcher(config FetcherConfig, headers models.HeaderProvider) (*Fetcher, error) {
	if err := config.Proxy.Validate(); err != nil {
		return nil, err
	}
	if config.Retries < 0 {
		config.Retries = 0
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = RetryBaseDelay
	}

	if !config.Proxy.IsEmpty() {
		utils.Infof("使用代理: http=%s https=%s",
			utils.RedactURL(config.Proxy.HTTP), utils.RedactURL(config.Proxy.HTTPS))
	}

	return &Fetcher{
		config:    config,
		transport: &decodingTransport{base: newHTTPTransport(config.Proxy)},
		headers:   headers,
		retry:     RetryPolicy{MaxRetries: config.Retries, BaseDelay: config.RetryBaseDelay},
	}, nil
}

// SetObserver 设置请求回调
func (f *Fetcher) SetObserver(observer FetchObserver) {
	f.observer = observer
}

// FetchText 获取文本内容,按声明或探测到的字符集转为UTF-8
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	resp, err := f.do(ctx, http.MethodGet, rawURL, true)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// FetchBytes 获取二进制内容,不做字符集转换
func (f *Fetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.do(ctx, http.MethodGet, rawURL, false)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// ResolveFinalURL 发送HEAD请求并跟随重定向,返回最终地址
// 服务器返回错误状态码时仍返回已到达的地址,只有传输失败才报错
func (f *Fetcher) ResolveFinalURL(ctx context.Context, rawURL string) (string, error) {
	resp, err := f.do(ctx, http.MethodHead, rawURL, false)

	var fe *models.FetchError
	if errors.As(err, &fe) && fe.StatusCode != 0 && resp != nil && resp.Request != nil {
		utils.Debugf("HEAD请求返回状态码%d [%s],使用已到达的地址", fe.StatusCode, rawURL)
		return resp.Request.URL.String(), nil
	}
	if err != nil {
		return "", err
	}
	return resp.Request.URL.String(), nil
}

// do 执行一次请求(含重试)
func (f *Fetcher) do(ctx context.Context, method, rawURL string, text bool) (*colly.Response, error) {
	if err := utils.ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("无效的URL [%s]: %w", rawURL, err)
	}

	var resp *colly.Response
	err := f.retry.do(ctx, rawURL, func() error {
		var err error
		resp, err = f.attempt(ctx, method, rawURL, text)
		return err
	})
	return resp, err
}

// attempt 单次请求
func (f *Fetcher) attempt(ctx context.Context, method, rawURL string, text bool) (*colly.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := f.newCollector(ctx, text)

	var (
		resp     *colly.Response
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		resp = r
	})
	c.OnError(func(r *colly.Response, err error) {
		resp = r
		fetchErr = &models.FetchError{URL: rawURL, StatusCode: r.StatusCode, Cause: err}
	})

	var err error
	if method == http.MethodHead {
		err = c.Head(rawURL)
	} else {
		err = c.Visit(rawURL)
	}

	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case fetchErr != nil:
		err = fetchErr
	case err != nil:
		err = &models.FetchError{URL: rawURL, Cause: err}
	case resp == nil:
		err = &models.FetchError{URL: rawURL, Cause: fmt.Errorf("请求被中止")}
	}

	if f.observer != nil {
		status, size := 0, 0
		if resp != nil {
			status, size = resp.StatusCode, len(resp.Body)
		}
		f.observer(method, status, size, err)
	}

	if err != nil {
		return resp, err
	}
	utils.Debugf("%s %s -> %d (%d bytes)", method, rawURL, resp.StatusCode, len(resp.Body))
	return resp, nil
}

// newCollector 为单个请求创建collector
func (f *Fetcher) newCollector(ctx context.Context, text bool) *colly.Collector {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.MaxBodySize(f.config.MaxBodySize),
	)
	c.WithTransport(f.transport)
	c.SetRequestTimeout(f.config.Timeout)
	// 字符集探测只适用于HTML,二进制内容会被破坏
	c.DetectCharset = text

	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("重定向次数超过%d次", maxRedirects)
		}
		return nil
	})

	c.OnRequest(func(r *colly.Request) {
		if f.headers == nil {
			return
		}
		headers, err := f.headers.GetHeaders()
		if err != nil {
			utils.Warnf("获取请求头失败,使用默认请求头: %v", err)
			return
		}
		for name, values := range headers {
			if len(values) == 0 {
				continue
			}
			r.Headers.Set(name, strings.Join(values, ", "))
		}
	})

	return c
}
