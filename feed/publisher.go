package feed

import "sync"

// Publisher 一个轻量行情分发器，慢订阅者直接丢帧。
type Publisher struct {
	mu   sync.RWMutex
	subs []chan Ticker
}

func NewPublisher() *Publisher {
	return &Publisher{subs: make([]chan Ticker, 0)}
}

// Subscribe 返回一个缓冲为 1 的订阅通道。
func (p *Publisher) Subscribe() <-chan Ticker {
	ch := make(chan Ticker, 1)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

// Publish 非阻塞广播。
func (p *Publisher) Publish(t Ticker) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subs {
		select {
		case ch <- t:
		default:
		}
	}
}
