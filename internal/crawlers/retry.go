package crawlers

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/RecoveryAshes/PaperDownloader/internal/models"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
)

// RetryBaseDelay 未配置时的首次重试等待时间,测试中可调小
var RetryBaseDelay = 500 * time.Millisecond

// RetryPolicy 指数退避重试策略
// MaxRetries为0时不重试
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Backoff 第attempt次重试前的等待时间: base, 2*base, 4*base...
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * p.BaseDelay
}

// shouldRetry 只重试传输错误、429和5xx
func shouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var fe *models.FetchError
	if errors.As(err, &fe) {
		return fe.Retryable()
	}
	return false
}

// do 执行fn,按策略重试,等待期间可被ctx取消
func (p RetryPolicy) do(ctx context.Context, rawURL string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || attempt >= p.MaxRetries || !shouldRetry(err) {
			return err
		}

		backoff := p.Backoff(attempt)
		utils.Debugf("请求失败,%v后重试 (%d/%d) [%s]: %v", backoff, attempt+1, p.MaxRetries, rawURL, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
