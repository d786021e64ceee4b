//go:build !unix

package main

import "github.com/RecoveryAshes/PaperDownloader/internal/pipeline"

// notifyControl 非Unix平台没有暂停/恢复信号
func notifyControl(*pipeline.Token) func() {
	return func() {}
}
