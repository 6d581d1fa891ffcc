package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"orderflow-viz-go/book"
	"orderflow-viz-go/feed"
	"orderflow-viz-go/flow"
	"orderflow-viz-go/history"
	"orderflow-viz-go/infrastructure/logger"
	"orderflow-viz-go/infrastructure/monitor"
	"orderflow-viz-go/render"
)

// State 引擎状态
type State int

const (
	// StateIdle 空闲状态
	StateIdle State = iota
	// StateRunning 运行状态
	StateRunning
	// StatePaused 暂停状态
	StatePaused
	// StateStopped 停止状态
	StateStopped
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Config 引擎配置
type Config struct {
	Symbol        string        // 展示的交易对
	FrameInterval time.Duration // 帧间隔（1/targetFrameRate）
	VisibleVolume float64       // 快照保留的最小档位量
}

// Components 引擎依赖组件
type Components struct {
	Feed      feed.Source
	Ladder    *book.Ladder
	Synth     *book.Synthesizer
	Tape      *book.Tape
	Flow      *flow.Tracker
	Footprint *flow.Footprint
	History   *history.Buffer
	Mapper    *render.Mapper
	Pipeline  *render.Pipeline
	Logger    *logger.Logger

	// 可选
	Monitor *monitor.Monitor
	Main    *render.Recorder // 主画面（热力+叠加层）
	CVD     *render.Recorder // 累计 delta 面板
	Delta   *render.Recorder // 每 tick delta 面板
	Sink    FrameSink        // 帧批次消费方（ws 服务等）
}

// Frame 一帧的输出：绘制指令批次加当轮统计。
type Frame struct {
	Ts        time.Time   `json:"ts"`
	Symbol    string      `json:"symbol"`
	Price     float64     `json:"price"`
	TickDelta float64     `json:"tickDelta"`
	CumDelta  float64     `json:"cumDelta"`
	Paused    bool        `json:"paused"`
	Main      []render.Op `json:"main,omitempty"`
	CVD       []render.Op `json:"cvd,omitempty"`
	Delta     []render.Op `json:"delta,omitempty"`
}

// FrameSink 接收渲染完成的帧批次。
type FrameSink interface {
	PushFrame(Frame)
}

// Engine 可视化引擎：每帧拉取行情、推进合成状态、绘制全部图面。
// 所有内部缓冲只在帧循环内读写；行情源的最新值槽是唯一异步边界。
type Engine struct {
	config Config

	feed      feed.Source
	ladder    *book.Ladder
	synth     *book.Synthesizer
	tape      *book.Tape
	flow      *flow.Tracker
	footprint *flow.Footprint
	history   *history.Buffer
	mapper    *render.Mapper
	pipeline  *render.Pipeline
	logger    *logger.Logger
	mon       *monitor.Monitor
	main      *render.Recorder
	cvd       *render.Recorder
	delta     *render.Recorder
	sink      FrameSink

	lastPrice float64
	lastDelta float64

	state State
	mu    sync.Mutex

	stopChan     chan struct{}
	doneChan     chan struct{}
	intervalChan chan time.Duration

	stats Statistics
}

// Statistics 引擎统计信息
type Statistics struct {
	StartTime     time.Time
	TotalFrames   int64
	TotalTicks    int64 // 实际执行 update 的帧数
	TotalTrades   int64
	TotalRebuilds int64
	LastFrameTime time.Time
	mu            sync.RWMutex
}

// New 创建引擎
func New(cfg Config, components Components) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := validateComponents(components); err != nil {
		return nil, fmt.Errorf("invalid components: %w", err)
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 33 * time.Millisecond
	}
	if components.Monitor != nil {
		components.Pipeline.SetPassTimer(components.Monitor.RecordPass)
	}

	return &Engine{
		config:       cfg,
		feed:         components.Feed,
		ladder:       components.Ladder,
		synth:        components.Synth,
		tape:         components.Tape,
		flow:         components.Flow,
		footprint:    components.Footprint,
		history:      components.History,
		mapper:       components.Mapper,
		pipeline:     components.Pipeline,
		logger:       components.Logger,
		mon:          components.Monitor,
		main:         components.Main,
		cvd:          components.CVD,
		delta:        components.Delta,
		sink:         components.Sink,
		state:        StateIdle,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
		intervalChan: make(chan time.Duration, 1),
	}, nil
}

// SetSink 注入帧批次消费方；须在 Start 之前调用。
func (e *Engine) SetSink(s FrameSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = s
}

// Start 启动帧循环
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateIdle && e.state != StateStopped {
		e.mu.Unlock()
		return fmt.Errorf("engine already started (state: %s)", e.state)
	}
	if e.state == StateStopped {
		e.stopChan = make(chan struct{})
		e.doneChan = make(chan struct{})
	}
	e.state = StateRunning
	e.stats.StartTime = time.Now()
	e.mu.Unlock()

	e.logger.Info("Viz engine starting",
		zap.String("symbol", e.config.Symbol),
		zap.Duration("frame_interval", e.config.FrameInterval))

	go e.run(ctx)

	return nil
}

// Stop 停止帧循环
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state != StateRunning && e.state != StatePaused {
		e.mu.Unlock()
		return fmt.Errorf("engine not running (state: %s)", e.state)
	}
	e.mu.Unlock()

	select {
	case <-e.stopChan:
	default:
		close(e.stopChan)
	}

	select {
	case <-e.doneChan:
	case <-time.After(5 * time.Second):
		e.logger.Warn("Timeout waiting for engine to stop")
	}

	e.mu.Lock()
	e.state = StateStopped
	e.mu.Unlock()

	e.logger.Info("Viz engine stopped")
	return nil
}

// Pause 暂停：冻结 update，render 继续，最后一帧保留在屏上。
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRunning {
		return fmt.Errorf("engine not running (state: %s)", e.state)
	}
	e.state = StatePaused
	e.logger.Info("Viz engine paused")
	return nil
}

// Resume 恢复更新
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePaused {
		return fmt.Errorf("engine not paused (state: %s)", e.state)
	}
	e.state = StateRunning
	e.logger.Info("Viz engine resumed")
	return nil
}

// SetFrameInterval 热更新帧间隔，重置帧循环定时器。
func (e *Engine) SetFrameInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("frame interval must be positive, got %v", d)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config.FrameInterval = d
	// 缓冲为 1，覆盖未消费的旧值
	select {
	case <-e.intervalChan:
	default:
	}
	e.intervalChan <- d
	return nil
}

// FrameInterval 返回当前帧间隔。
func (e *Engine) FrameInterval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config.FrameInterval
}

// run 主帧循环：宿主定时器驱动，每帧调用一次 Tick。
func (e *Engine) run(ctx context.Context) {
	defer close(e.doneChan)

	e.mu.Lock()
	interval := e.config.FrameInterval
	e.mu.Unlock()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Context done, stopping engine")
			return
		case <-e.stopChan:
			return
		case d := <-e.intervalChan:
			ticker.Reset(d)
		case now := <-ticker.C:
			e.Tick(now)
		}
	}
}

// Tick 执行一帧：update（暂停时跳过）+ render（总是执行）。
// 导出给测试与无定时器宿主同步驱动。
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateStopped || e.state == StateIdle {
		return
	}
	start := time.Now()
	paused := e.state == StatePaused

	if !paused {
		e.update(now)
	} else if e.mon != nil {
		e.mon.RecordSkippedFrame()
	}
	e.render(now, paused)

	e.stats.mu.Lock()
	e.stats.TotalFrames++
	e.stats.LastFrameTime = now
	frames := e.stats.TotalFrames
	e.stats.mu.Unlock()

	if e.mon != nil {
		e.mon.RecordFrame(time.Since(start).Seconds())
	}
	if frames%600 == 0 {
		e.logger.LogFrame("progress", map[string]interface{}{
			"frames":  frames,
			"history": e.history.Len(),
			"price":   e.lastPrice,
		})
	}
}

// update 推进合成状态：行情 -> 梯子 -> 成交 -> delta -> 足迹 -> 历史。
func (e *Engine) update(now time.Time) {
	if t, ok := e.feed.Latest(); ok {
		e.lastPrice = t.Price
		if e.mon != nil {
			e.mon.SetLastPrice(t.Price)
		}
	}
	// 行情缺口：沿用上一个已知价；首个价到达前无事可做
	if e.lastPrice <= 0 {
		return
	}
	price := e.lastPrice

	prevCenter := e.ladder.Center()
	e.ladder.Refresh(price)
	// 首次播种不算重建
	if prevCenter != 0 && e.ladder.Center() != prevCenter {
		e.stats.mu.Lock()
		e.stats.TotalRebuilds++
		e.stats.mu.Unlock()
		if e.mon != nil {
			e.mon.RecordRecenter()
		}
	}

	e.flow.BeginTick()
	markersBefore := len(e.tape.Markers())
	trades := e.synth.Touch(e.ladder, e.tape, price, now)
	for _, tr := range trades {
		e.flow.OnTrade(tr)
		e.footprint.OnTrade(tr)
	}
	tickDelta, cumDelta := e.flow.EndTick()
	e.lastDelta = tickDelta

	e.mapper.SetCenter(price)
	e.history.Append(history.Sample{
		Ts:        now,
		Levels:    e.ladder.Visible(e.config.VisibleVolume),
		CumDelta:  cumDelta,
		TickDelta: tickDelta,
	})

	e.stats.mu.Lock()
	e.stats.TotalTicks++
	e.stats.TotalTrades += int64(len(trades))
	e.stats.mu.Unlock()

	if e.mon != nil {
		e.mon.RecordTrades(len(trades))
		for i := markersBefore; i < len(e.tape.Markers()); i++ {
			e.mon.RecordMarker()
		}
		e.mon.SetHistoryLen(e.history.Len())
		e.mon.SetCumDelta(cumDelta)
	}
}

// render 绘制全部图面并下发帧批次。
func (e *Engine) render(now time.Time, paused bool) {
	e.pipeline.Render(now, e.history, e.tape, e.footprint)

	if e.sink == nil {
		return
	}
	f := Frame{
		Ts:        now,
		Symbol:    e.config.Symbol,
		Price:     e.lastPrice,
		TickDelta: e.lastDelta,
		CumDelta:  e.flow.CumDelta(),
		Paused:    paused,
	}
	if e.main != nil {
		f.Main = e.main.Flush()
	}
	if e.cvd != nil {
		f.CVD = e.cvd.Flush()
	}
	if e.delta != nil {
		f.Delta = e.delta.Flush()
	}
	e.sink.PushFrame(f)
}

// Resize 更新视口尺寸；不重置梯子/历史状态。
func (e *Engine) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", w, h)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mapper.SetViewport(w, h)
	if e.main != nil {
		e.main.W, e.main.H = w, h
	}
	// 辅助面板宽度跟随主画面，高度保持
	if e.cvd != nil {
		e.cvd.W = w
	}
	if e.delta != nil {
		e.delta.W = w
	}
	return nil
}

// SetZoom 更新缩放
func (e *Engine) SetZoom(z float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mapper.SetZoom(z)
}

// SetContrast 更新热力对比度
func (e *Engine) SetContrast(c float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pipeline.SetContrast(c)
}

// SetLayers 更新图层开关
func (e *Engine) SetLayers(l render.Layers) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pipeline.SetLayers(l)
}

// GetState 获取引擎状态
func (e *Engine) GetState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// GetStatistics 获取统计信息
func (e *Engine) GetStatistics() Statistics {
	e.stats.mu.RLock()
	defer e.stats.mu.RUnlock()
	return Statistics{
		StartTime:     e.stats.StartTime,
		TotalFrames:   e.stats.TotalFrames,
		TotalTicks:    e.stats.TotalTicks,
		TotalTrades:   e.stats.TotalTrades,
		TotalRebuilds: e.stats.TotalRebuilds,
		LastFrameTime: e.stats.LastFrameTime,
	}
}

// validateConfig 验证配置
func validateConfig(cfg Config) error {
	if cfg.Symbol == "" {
		return errors.New("symbol is required")
	}
	if cfg.FrameInterval < 0 {
		return errors.New("frame_interval must be >= 0")
	}
	if cfg.VisibleVolume < 0 {
		return errors.New("visible_volume must be >= 0")
	}
	return nil
}

// validateComponents 验证组件
func validateComponents(comp Components) error {
	if comp.Feed == nil {
		return errors.New("feed is required")
	}
	if comp.Ladder == nil {
		return errors.New("ladder is required")
	}
	if comp.Synth == nil {
		return errors.New("synthesizer is required")
	}
	if comp.Tape == nil {
		return errors.New("tape is required")
	}
	if comp.Flow == nil {
		return errors.New("flow tracker is required")
	}
	if comp.Footprint == nil {
		return errors.New("footprint is required")
	}
	if comp.History == nil {
		return errors.New("history is required")
	}
	if comp.Mapper == nil {
		return errors.New("mapper is required")
	}
	if comp.Pipeline == nil {
		return errors.New("pipeline is required")
	}
	if comp.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}
