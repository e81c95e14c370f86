package eventbus

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// 事件类型
const (
	TypeActivityRecorded = "activity_recorded"
	TypeOverrideChanged  = "override_changed"
	TypeBudgetsChanged   = "budgets_changed"
	TypeRulesChanged     = "rules_changed"
	TypeConfigChanged    = "config_changed"
)

type Event struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// subscription 一个订阅者；types 为空表示接收全部类型
type subscription struct {
	ch    chan Event
	types []string
}

func (s *subscription) wants(evtType string) bool {
	return len(s.types) == 0 || slices.Contains(s.types, evtType)
}

// Hub 进程内广播，供 SSE 推送给管理端
type Hub struct {
	mu      sync.RWMutex
	subs    map[*subscription]struct{}
	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscription]struct{})}
}

// Publish 非阻塞投递；订阅者缓冲区满时丢弃并计数，记录请求不等待管理端
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if !sub.wants(evt.Type) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribe 订阅事件，可按类型过滤；ctx 结束后自动退订并关闭通道
func (h *Hub) Subscribe(ctx context.Context, buffer int, types ...string) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscription{ch: make(chan Event, buffer), types: slices.Clone(types)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch
}

// Subscribers 当前订阅者数量
func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped 因慢消费者累计丢弃的事件数
func (h *Hub) Dropped() uint64 {
	if h == nil {
		return 0
	}
	return h.dropped.Load()
}
