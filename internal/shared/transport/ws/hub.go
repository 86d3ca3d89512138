package ws

import (
	"sync"
)

// Hub 按主题（这里是城市 id）管理订阅，连接关闭后自动退订。
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[WSConn]struct{}
	conns  map[WSConn]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[WSConn]struct{}),
		conns:  make(map[WSConn]map[string]struct{}),
	}
}

func (h *Hub) Subscribe(topic string, c WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.topics[topic]
	if subs == nil {
		subs = make(map[WSConn]struct{})
		h.topics[topic] = subs
	}
	subs[c] = struct{}{}

	owned, known := h.conns[c]
	if !known {
		owned = make(map[string]struct{})
		h.conns[c] = owned
		go func() {
			<-c.Done()
			h.drop(c)
		}()
	}
	owned[topic] = struct{}{}
}

func (h *Hub) Unsubscribe(topic string, c WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(topic, c)
	if owned := h.conns[c]; owned != nil {
		delete(owned, topic)
	}
}

// Publish 推给主题下的所有连接，返回成功入队的连接数。
func (h *Hub) Publish(topic, name string, data any) int {
	h.mu.RLock()
	subs := make([]WSConn, 0, len(h.topics[topic]))
	for c := range h.topics[topic] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	n := 0
	for _, c := range subs {
		if c.Push(name, data) {
			n++
		}
	}
	return n
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) drop(c WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic := range h.conns[c] {
		h.remove(topic, c)
	}
	delete(h.conns, c)
}

func (h *Hub) remove(topic string, c WSConn) {
	subs := h.topics[topic]
	if subs == nil {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}
