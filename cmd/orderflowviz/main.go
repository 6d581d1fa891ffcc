package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"orderflow-viz-go/book"
	"orderflow-viz-go/config"
	"orderflow-viz-go/feed"
	"orderflow-viz-go/flow"
	"orderflow-viz-go/history"
	"orderflow-viz-go/infrastructure/logger"
	"orderflow-viz-go/infrastructure/monitor"
	"orderflow-viz-go/internal/engine"
	"orderflow-viz-go/internal/server"
	"orderflow-viz-go/render"
)

func main() {
	cfgPath := flag.String("config", "", "配置文件路径，留空使用内置默认")
	symbol := flag.String("symbol", "", "覆盖展示交易对")
	seed := flag.Int64("seed", 0, "随机种子，0 为时间种子")
	addr := flag.String("addr", "", "覆盖服务监听地址")
	watch := flag.Bool("watch", false, "监听配置文件变更，热更新显示参数")
	flag.Parse()

	var cfg config.AppConfig
	var err error
	if *cfgPath != "" {
		cfg, err = config.LoadWithEnvOverrides(*cfgPath)
		if err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
	} else {
		cfg = config.Default()
	}
	if *symbol != "" {
		cfg.Feed.Symbol = *symbol
	}
	if *seed != 0 {
		cfg.Feed.Seed = *seed
		cfg.Engine.Seed = *seed
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	zlog, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Outputs:    cfg.Log.Outputs,
		OutputFile: cfg.Log.OutputFile,
		Format:     cfg.Log.Format,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Close()

	mon := monitor.New(monitor.DefaultConfig())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 行情源
	pub := feed.NewPublisher()
	src, err := feed.NewSimSource(feed.SimConfig{
		Symbol:     cfg.Feed.Symbol,
		StartPrice: cfg.Feed.StartPrice,
		StepPct:    cfg.Feed.StepPct,
		Interval:   time.Duration(cfg.Feed.UpdateIntervalMs) * time.Millisecond,
		Seed:       cfg.Feed.Seed,
	}, pub)
	if err != nil {
		zlog.Fatal("初始化行情源失败", zap.Error(err))
	}

	// 合成状态
	engSeed := cfg.Engine.Seed
	if engSeed == 0 {
		engSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(engSeed))
	ladder, err := book.NewLadder(book.LadderConfig{
		TickSize:          cfg.Engine.TickSize,
		HalfWindow:        cfg.Engine.VisiblePriceLevels,
		RecenterThreshold: float64(cfg.Engine.RecenterTicks) * cfg.Engine.TickSize,
		VolumeFloor:       cfg.Engine.VolumeFloor,
		BaseVolume:        cfg.Engine.BaseVolume,
		PerturbMagnitude:  cfg.Engine.PerturbMagnitude,
		WallStep:          cfg.Engine.WallStep,
		WallBoost:         cfg.Engine.WallBoost,
	}, rng)
	if err != nil {
		zlog.Fatal("初始化梯子失败", zap.Error(err))
	}
	synth, err := book.NewSynthesizer(book.SynthConfig{
		TickSize:        cfg.Engine.TickSize,
		ShrinkFactor:    cfg.Engine.ShrinkFactor,
		MinQty:          cfg.Engine.MinTradeQty,
		MaxQty:          cfg.Engine.MaxTradeQty,
		MarkerThreshold: cfg.Engine.MarkerThreshold,
	}, rng)
	if err != nil {
		zlog.Fatal("初始化合成器失败", zap.Error(err))
	}
	tape := book.NewTape(cfg.Engine.TapeCapacity, cfg.Engine.TapeCapacity/4)
	footprint := flow.NewFootprint(
		time.Duration(cfg.Engine.BucketSeconds)*time.Second,
		cfg.Engine.TickSize,
		cfg.Engine.BarCapacity,
	)
	hist := history.NewBuffer(cfg.Engine.HistoryCapacity)

	// 渲染面
	d := cfg.Display
	mapper := render.NewMapper(d.Width, d.Height,
		float64(d.HalfRangeTicks)*cfg.Engine.TickSize,
		time.Duration(d.LookbackSeconds)*time.Second)
	mapper.SetZoom(d.Zoom)
	mainSurf := render.NewRecorder(d.Width, d.Height)
	cvdSurf := render.NewRecorder(d.Width, d.CVDHeight)
	deltaSurf := render.NewRecorder(d.Width, d.DeltaHeight)
	frameInterval := time.Second / time.Duration(cfg.Engine.TargetFrameRate)
	pipeline := render.NewPipeline(render.PipelineConfig{
		RefVolume:       d.RefVolume,
		Contrast:        d.Contrast,
		MinSamples:      d.MinSamples,
		BubbleScale:     d.BubbleScale,
		MaxBubbleRadius: d.MaxBubbleRadius,
		ZoomLabelMin:    d.ZoomLabelMin,
		GridTicks:       d.GridTicks,
		TickSize:        cfg.Engine.TickSize,
		FrameInterval:   frameInterval,
	}, mapper, mainSurf, cvdSurf, deltaSurf)

	eng, err := engine.New(engine.Config{
		Symbol:        cfg.Feed.Symbol,
		FrameInterval: frameInterval,
		VisibleVolume: cfg.Engine.VisibleVolume,
	}, engine.Components{
		Feed:      src,
		Ladder:    ladder,
		Synth:     synth,
		Tape:      tape,
		Flow:      &flow.Tracker{},
		Footprint: footprint,
		History:   hist,
		Mapper:    mapper,
		Pipeline:  pipeline,
		Logger:    zlog,
		Monitor:   mon,
		Main:      mainSurf,
		CVD:       cvdSurf,
		Delta:     deltaSurf,
	})
	if err != nil {
		zlog.Fatal("初始化引擎失败", zap.Error(err))
	}

	srv := server.New(cfg.Server.Addr, cfg.Server.MetricsAddr, eng, pub,
		zlog.WithFields(map[string]interface{}{"component": "server"}), mon)
	eng.SetSink(srv)

	if cfg.Feed.Enabled {
		src.Start(ctx)
		zlog.LogFeed("started", cfg.Feed.Symbol, map[string]interface{}{
			"intervalMs": cfg.Feed.UpdateIntervalMs,
			"startPrice": cfg.Feed.StartPrice,
		})
	}
	if err := eng.Start(ctx); err != nil {
		zlog.Fatal("启动引擎失败", zap.Error(err))
	}
	if err := srv.Start(ctx); err != nil {
		zlog.Fatal("启动服务失败", zap.Error(err))
	}

	// 配置热更新：只接收显示调优参数与帧率
	if *watch && *cfgPath != "" {
		go func() {
			w := config.Watcher{Path: *cfgPath}
			err := w.Start(ctx, func(next config.AppConfig) {
				eng.SetZoom(next.Display.Zoom)
				eng.SetContrast(next.Display.Contrast)
				if err := eng.SetFrameInterval(time.Second / time.Duration(next.Engine.TargetFrameRate)); err != nil {
					zlog.Warn("帧率热更新被拒绝", zap.Error(err))
				}
				zlog.Info("显示参数已热更新",
					zap.Float64("zoom", next.Display.Zoom),
					zap.Float64("contrast", next.Display.Contrast),
					zap.Int("frame_rate", next.Engine.TargetFrameRate))
			})
			if err != nil && ctx.Err() == nil {
				zlog.Warn("配置监听退出", zap.Error(err))
			}
		}()
	}

	zlog.Info("orderflowviz 已启动",
		zap.String("symbol", cfg.Feed.Symbol),
		zap.String("addr", cfg.Server.Addr),
		zap.Int64("seed", engSeed))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("服务关闭失败", zap.Error(err))
	}
	if err := eng.Stop(); err != nil {
		zlog.Warn("引擎停止失败", zap.Error(err))
	}
	if cfg.Feed.Enabled {
		src.Stop()
	}
}
