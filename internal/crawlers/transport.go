package crawlers

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
	"github.com/andybalholm/brotli"
)

// responseHeaderTimeout 等待响应头的上限,正文读取不受限制
const responseHeaderTimeout = 60 * time.Second

// newHTTPTransport 基础传输层,代理按目标协议选择
func newHTTPTransport(proxy models.ProxyConfig) *http.Transport {
	return &http.Transport{
		Proxy: proxyFunc(proxy),
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
}

// proxyFunc 未配置代理时沿用环境变量
func proxyFunc(proxy models.ProxyConfig) func(*http.Request) (*url.URL, error) {
	if proxy.IsEmpty() {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		raw := proxy.ForScheme(req.URL.Scheme)
		if raw == "" {
			return nil, nil
		}
		return url.Parse(raw)
	}
}

// decodingTransport 在colly读取正文前解压 br/gzip/deflate 响应
// 请求头声明了 Accept-Encoding 时Go不会自动解压
type decodingTransport struct {
	base http.RoundTripper
}

func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp == nil || resp.Body == nil {
		return resp, err
	}
	if req.Method == http.MethodHead || resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotModified {
		return resp, nil
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	if encoding == "" || encoding == "identity" {
		return resp, nil
	}

	decoded, ok := decompressBody(encoding, resp.Body)
	if !ok {
		return resp, nil
	}

	resp.Body = decoded
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

// readCloser 解压后的读取器,关闭时关闭原始连接
type readCloser struct {
	io.Reader
	closer io.Closer
}

func (rc *readCloser) Close() error {
	if c, ok := rc.Reader.(io.Closer); ok {
		c.Close()
	}
	return rc.closer.Close()
}

// decompressBody 根据Content-Encoding包装响应体
// 实际内容与声明不符(如服务器声明gzip却返回明文)时原样返回
func decompressBody(encoding string, body io.ReadCloser) (io.ReadCloser, bool) {
	buffered := bufio.NewReader(body)

	switch encoding {
	case "gzip", "x-gzip":
		magic, err := buffered.Peek(2)
		if err != nil || magic[0] != 0x1f || magic[1] != 0x8b {
			return &readCloser{Reader: buffered, closer: body}, true
		}
		reader, err := gzip.NewReader(buffered)
		if err != nil {
			utils.Warnf("gzip解压失败,使用原始内容: %v", err)
			return &readCloser{Reader: buffered, closer: body}, true
		}
		return &readCloser{Reader: reader, closer: body}, true

	case "deflate":
		// 多数服务器发送zlib封装的deflate,少数发送裸deflate
		header, err := buffered.Peek(2)
		if err == nil && header[0]&0x0f == 0x08 && (uint16(header[0])<<8|uint16(header[1]))%31 == 0 {
			if reader, err := zlib.NewReader(buffered); err == nil {
				return &readCloser{Reader: reader, closer: body}, true
			}
		}
		return &readCloser{Reader: flate.NewReader(buffered), closer: body}, true

	case "br":
		return &readCloser{Reader: brotli.NewReader(buffered), closer: body}, true

	default:
		utils.Warnf("未知的Content-Encoding: %s", encoding)
		return body, false
	}
}
