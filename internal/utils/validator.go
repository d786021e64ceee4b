package utils

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"golang.org/x/net/http/httpguts"
)

// managedHeaders 由传输层或下载逻辑设置的头部
// Range 会让服务器只返回部分PDF,写入的文件将不完整
var managedHeaders = map[string]string{
	"Host":              "由请求地址决定",
	"Content-Length":    "由传输层计算",
	"Transfer-Encoding": "由传输层管理",
	"Connection":        "由连接池管理",
	"Range":             "会导致下载不完整的文件",
}

// CheckHeader 头部能否附加到论文请求上
func CheckHeader(name, value string) error {
	if reason, ok := managedHeaders[http.CanonicalHeaderKey(name)]; ok {
		return &models.HeaderError{Header: name, Reason: reason}
	}
	if !httpguts.ValidHeaderFieldName(name) {
		return &models.HeaderError{Header: name, Reason: "名称包含非法字符"}
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return &models.HeaderError{Header: name, Reason: "值包含控制字符"}
	}
	return nil
}

// CheckHeaders 逐个检查,返回第一个错误
func CheckHeaders(headers http.Header) error {
	for name, values := range headers {
		for _, value := range values {
			if err := CheckHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckAgentPool 池中每一项都必须是可发送的User-Agent
func CheckAgentPool(agents []string) error {
	for i, ua := range agents {
		if strings.TrimSpace(ua) == "" {
			return &models.HeaderError{Header: "User-Agent", Reason: fmt.Sprintf("池中第%d项为空", i+1)}
		}
		if !httpguts.ValidHeaderFieldValue(ua) {
			return &models.HeaderError{Header: "User-Agent", Reason: fmt.Sprintf("池中第%d项包含控制字符", i+1)}
		}
	}
	return nil
}
