package feed

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

// SimConfig 模拟行情源参数
type SimConfig struct {
	Symbol     string
	StartPrice float64
	StepPct    float64       // 单步最大涨跌幅（比例）
	Interval   time.Duration // 更新周期
	Seed       int64         // 0 时退化为时间种子
}

// SimSource synthesizes a bounded random-walk price stream. It is the
// stand-in for the upstream exchange ticker: same shape, locally driven.
// Single writer (its own loop), readers take the latest value slot.
type SimSource struct {
	cfg SimConfig
	rng *rand.Rand
	pub *Publisher

	mu      sync.RWMutex
	last    Ticker
	has     bool
	open24h float64

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewSimSource 创建模拟源。
func NewSimSource(cfg SimConfig, pub *Publisher) (*SimSource, error) {
	if cfg.Symbol == "" {
		return nil, errors.New("symbol is required")
	}
	if cfg.StartPrice <= 0 {
		return nil, errors.New("startPrice must be > 0")
	}
	if cfg.StepPct <= 0 {
		cfg.StepPct = 0.0008
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &SimSource{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
		pub:      pub,
		open24h:  cfg.StartPrice,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	s.last = Ticker{
		Symbol:  cfg.Symbol,
		Price:   cfg.StartPrice,
		High24h: cfg.StartPrice,
		Low24h:  cfg.StartPrice,
		Ts:      time.Now(),
		State:   StateConnected,
	}
	return s, nil
}

// Start 启动更新循环。
func (s *SimSource) Start(ctx context.Context) {
	go func() {
		defer close(s.doneChan)
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case now := <-ticker.C:
				s.Step(now)
			}
		}
	}()
}

// Stop 停止更新循环并等待退出。
func (s *SimSource) Stop() {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	<-s.doneChan
}

// Step advances the walk by one update. Exported so tests and synchronous
// harnesses can drive the source without the timer loop.
func (s *SimSource) Step(now time.Time) Ticker {
	s.mu.Lock()
	t := s.last
	move := (s.rng.Float64() - 0.5) * 2 * s.cfg.StepPct
	t.Price *= 1 + move
	if t.Price > t.High24h {
		t.High24h = t.Price
	}
	if t.Price < t.Low24h {
		t.Low24h = t.Price
	}
	t.Change = t.Price - s.open24h
	t.ChangePercent = t.Change / s.open24h * 100
	t.Volume += s.rng.Float64() * 10
	t.Ts = now
	t.State = StateConnected
	s.last = t
	s.has = true
	s.mu.Unlock()

	if s.pub != nil {
		s.pub.Publish(t)
	}
	return t
}

// Latest 返回最近一次更新；首个更新前 ok 为 false。
func (s *SimSource) Latest() (Ticker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.has
}
