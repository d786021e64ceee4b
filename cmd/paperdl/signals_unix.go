//go:build unix

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/PaperDownloader/internal/pipeline"
	"github.com/RecoveryAshes/PaperDownloader/internal/utils"
)

// notifyControl SIGUSR1暂停,SIGUSR2恢复
func notifyControl(token *pipeline.Token) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-ch:
				switch sig {
				case syscall.SIGUSR1:
					token.Pause()
					utils.Infof("⏸️  已请求暂停 (kill -USR2 %d 恢复)", os.Getpid())
				case syscall.SIGUSR2:
					token.Resume()
					utils.Info("▶️  已恢复")
				}
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
