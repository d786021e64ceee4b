package pipeline

import (
	"context"
	"sync"
)

// State 取消令牌的状态
type State int

const (
	Running        State = iota // 正常执行
	PauseRequested              // 已请求暂停,worker在下一篇论文前停下
	Paused                      // 至少一个worker已停在边界处
	StopRequested               // 已请求停止,不再开始新论文
	Stopped                     // 所有worker已退出
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case PauseRequested:
		return "pause-requested"
	case Paused:
		return "paused"
	case StopRequested:
		return "stop-requested"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Token 协作式的暂停/恢复/停止控制
// worker只在开始新论文之前检查,正在处理的论文总会完成
type Token struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state State
}

// NewToken 创建处于Running状态的令牌
func NewToken() *Token {
	t := &Token{state: Running}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// State 当前状态
func (t *Token) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Pause 请求暂停,已停止时无效
func (t *Token) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Running {
		t.state = PauseRequested
	}
}

// Resume 从暂停中恢复
func (t *Token) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == PauseRequested || t.state == Paused {
		t.state = Running
		t.cond.Broadcast()
	}
}

// Stop 请求停止,同时唤醒暂停中的worker
func (t *Token) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Stopped {
		t.state = StopRequested
		t.cond.Broadcast()
	}
}

// Checkpoint worker在开始下一篇论文前调用
// 暂停时阻塞;返回false表示应当停止(已请求停止或ctx已取消)
func (t *Token) Checkpoint(ctx context.Context) bool {
	release := context.AfterFunc(ctx, func() {
		t.mu.Lock()
		t.cond.Broadcast()
		t.mu.Unlock()
	})
	defer release()

	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		if ctx.Err() != nil {
			return false
		}
		switch t.state {
		case Running:
			return true
		case StopRequested, Stopped:
			return false
		case PauseRequested:
			t.state = Paused
		}
		t.cond.Wait()
	}
}

// finish 所有worker退出后调用
func (t *Token) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StopRequested {
		t.state = Stopped
		t.cond.Broadcast()
	}
}
