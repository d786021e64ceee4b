package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/PaperDownloader/internal/pipeline"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
)

// withSignals 第一次中断请求停止(进行中的论文继续完成),第二次中断取消上下文
func withSignals(parent context.Context) (context.Context, *pipeline.Token, func()) {
	ctx, cancel := context.WithCancel(parent)
	token := pipeline.NewToken()

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	stopControl := notifyControl(token)

	done := make(chan struct{})
	go func() {
		interrupts := 0
		for {
			select {
			case <-done:
				return
			case sig := <-sigChan:
				interrupts++
				if interrupts == 1 {
					utils.Warnf("收到中断信号: %v, 等待进行中的论文完成后退出 (再次中断立即退出)...", sig)
					token.Stop()
					continue
				}
				utils.Warnf("收到第二次中断信号: %v, 立即退出", sig)
				cancel()
				return
			}
		}
	}()

	return ctx, token, func() {
		signal.Stop(sigChan)
		stopControl()
		close(done)
		cancel()
	}
}
