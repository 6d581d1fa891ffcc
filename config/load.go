package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env     string        `yaml:"env"`
	Feed    FeedConfig    `yaml:"feed"`
	Engine  EngineConfig  `yaml:"engine"`
	Display DisplayConfig `yaml:"display"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// FeedConfig 上游行情源参数
type FeedConfig struct {
	Symbol           string  `yaml:"symbol"`
	Enabled          bool    `yaml:"enabled"`
	UpdateIntervalMs int     `yaml:"updateIntervalMs"`
	StartPrice       float64 `yaml:"startPrice"`
	StepPct          float64 `yaml:"stepPct"`
	Seed             int64   `yaml:"seed"` // 0 表示时间种子
}

// EngineConfig 引擎核心参数（梯子/合成/聚合/缓冲）
type EngineConfig struct {
	TargetFrameRate    int     `yaml:"targetFrameRate"`    // 帧率
	HistoryCapacity    int     `yaml:"historyCapacity"`    // 历史环形缓冲容量
	TickSize           float64 `yaml:"tickSize"`           // 价格最小变动
	VisiblePriceLevels int     `yaml:"visiblePriceLevels"` // 梯子半窗口档数
	RecenterTicks      int     `yaml:"recenterTicks"`      // 偏离多少 tick 后重建梯子
	VolumeFloor        float64 `yaml:"volumeFloor"`
	BaseVolume         float64 `yaml:"baseVolume"`
	PerturbMagnitude   float64 `yaml:"perturbMagnitude"`
	WallStep           int     `yaml:"wallStep"`
	WallBoost          float64 `yaml:"wallBoost"`
	ShrinkFactor       float64 `yaml:"shrinkFactor"`
	MinTradeQty        float64 `yaml:"minTradeQty"`
	MaxTradeQty        float64 `yaml:"maxTradeQty"`
	MarkerThreshold    float64 `yaml:"markerThreshold"`
	TapeCapacity       int     `yaml:"tapeCapacity"`
	BucketSeconds      int     `yaml:"bucketSeconds"` // 足迹K线时间桶
	BarCapacity        int     `yaml:"barCapacity"`
	VisibleVolume      float64 `yaml:"visibleVolume"` // 快照保留的最小档位量
	Seed               int64   `yaml:"seed"`          // 梯子/合成的随机种子，0 表示时间种子
}

// DisplayConfig 显示/渲染调优参数（可热更新）
type DisplayConfig struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	CVDHeight       int     `yaml:"cvdHeight"`
	DeltaHeight     int     `yaml:"deltaHeight"`
	LookbackSeconds int     `yaml:"lookbackSeconds"`
	HalfRangeTicks  int     `yaml:"halfRangeTicks"` // 价格半窗口 = halfRangeTicks * tickSize
	Zoom            float64 `yaml:"zoom"`
	Contrast        float64 `yaml:"contrast"`
	RefVolume       float64 `yaml:"refVolume"`
	BubbleScale     float64 `yaml:"bubbleScale"`
	MaxBubbleRadius float64 `yaml:"maxBubbleRadius"`
	ZoomLabelMin    float64 `yaml:"zoomLabelMin"`
	MinSamples      int     `yaml:"minSamples"`
	GridTicks       int     `yaml:"gridTicks"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metricsAddr"`
}

type LogConfig struct {
	Level      string   `yaml:"level"`
	Outputs    []string `yaml:"outputs"`
	OutputFile string   `yaml:"output_file"`
	Format     string   `yaml:"format"`
}

// Default returns the tuned defaults. The perturbation/shrink magnitudes
// are display tuning, not market truths; override freely.
func Default() AppConfig {
	return AppConfig{
		Env: "dev",
		Feed: FeedConfig{
			Symbol:           "BTCUSDT",
			Enabled:          true,
			UpdateIntervalMs: 500,
			StartPrice:       64000,
			StepPct:          0.0008,
		},
		Engine: EngineConfig{
			TargetFrameRate:    30,
			HistoryCapacity:    600,
			TickSize:           0.5,
			VisiblePriceLevels: 120,
			RecenterTicks:      40,
			VolumeFloor:        0.4,
			BaseVolume:         8,
			PerturbMagnitude:   0.6,
			WallStep:           10,
			WallBoost:          3,
			ShrinkFactor:       0.65,
			MinTradeQty:        0.5,
			MaxTradeQty:        9,
			MarkerThreshold:    7.5,
			TapeCapacity:       300,
			BucketSeconds:      5,
			BarCapacity:        60,
			VisibleVolume:      1.0,
		},
		Display: DisplayConfig{
			Width:           1280,
			Height:          640,
			CVDHeight:       120,
			DeltaHeight:     100,
			LookbackSeconds: 60,
			HalfRangeTicks:  60,
			Zoom:            1,
			Contrast:        1,
			RefVolume:       12,
			BubbleScale:     2,
			MaxBubbleRadius: 14,
			ZoomLabelMin:    1.5,
			MinSamples:      10,
			GridTicks:       10,
		},
		Server: ServerConfig{
			Addr:        ":8090",
			MetricsAddr: ":9100",
		},
		Log: LogConfig{
			Level:   "info",
			Outputs: []string{"stdout"},
			Format:  "json",
		},
	}
}

// Load reads YAML config from path on top of defaults and validates.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides select fields from env
// vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("OFV_SYMBOL"); v != "" {
		cfg.Feed.Symbol = v
	}
	if v := os.Getenv("OFV_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present and sane.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Feed.Symbol == "" {
		return errors.New("feed.symbol is required")
	}
	if cfg.Feed.UpdateIntervalMs <= 0 {
		return errors.New("feed.updateIntervalMs must be > 0")
	}
	if cfg.Feed.StartPrice <= 0 {
		return errors.New("feed.startPrice must be > 0")
	}
	e := cfg.Engine
	if e.TargetFrameRate <= 0 || e.TargetFrameRate > 240 {
		return fmt.Errorf("engine.targetFrameRate must be in (0,240], got %d", e.TargetFrameRate)
	}
	if e.HistoryCapacity <= 0 {
		return errors.New("engine.historyCapacity must be > 0")
	}
	if e.TickSize <= 0 {
		return errors.New("engine.tickSize must be > 0")
	}
	if e.VisiblePriceLevels <= 0 {
		return errors.New("engine.visiblePriceLevels must be > 0")
	}
	if e.RecenterTicks <= 0 {
		return errors.New("engine.recenterTicks must be > 0")
	}
	if e.VolumeFloor < 0 {
		return errors.New("engine.volumeFloor must be >= 0")
	}
	if e.ShrinkFactor <= 0 || e.ShrinkFactor >= 1 {
		return errors.New("engine.shrinkFactor must be in (0,1)")
	}
	if e.MinTradeQty <= 0 || e.MaxTradeQty < e.MinTradeQty {
		return errors.New("engine trade qty bounds invalid")
	}
	if e.BucketSeconds <= 0 {
		return errors.New("engine.bucketSeconds must be > 0")
	}
	if e.BarCapacity <= 0 {
		return errors.New("engine.barCapacity must be > 0")
	}
	d := cfg.Display
	if d.Width <= 0 || d.Height <= 0 {
		return errors.New("display.width/height must be > 0")
	}
	if d.LookbackSeconds <= 0 {
		return errors.New("display.lookbackSeconds must be > 0")
	}
	if d.HalfRangeTicks <= 0 {
		return errors.New("display.halfRangeTicks must be > 0")
	}
	if d.Zoom <= 0 {
		return errors.New("display.zoom must be > 0")
	}
	if d.Contrast <= 0 {
		return errors.New("display.contrast must be > 0")
	}
	if d.RefVolume <= 0 {
		return errors.New("display.refVolume must be > 0")
	}
	if d.MinSamples < 0 {
		return errors.New("display.minSamples must be >= 0")
	}
	return nil
}
