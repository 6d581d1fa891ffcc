package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"orderflow-viz-go/feed"
	"orderflow-viz-go/infrastructure/logger"
	"orderflow-viz-go/infrastructure/monitor"
	"orderflow-viz-go/internal/engine"
	"orderflow-viz-go/render"
)

// Controller 服务端可触达的引擎控制面。
type Controller interface {
	Pause() error
	Resume() error
	SetZoom(z float64)
	SetContrast(c float64)
	SetLayers(l render.Layers)
	Resize(w, h int) error
	GetState() engine.State
	GetStatistics() engine.Statistics
}

// Server 托管视口：把每帧的绘制指令批次推给 websocket 客户端，
// 并接收 pause/zoom/resize 等控制消息。
type Server struct {
	addr        string
	metricsAddr string
	logger      *logger.Logger
	mon         *monitor.Monitor
	eng         Controller
	pub         *feed.Publisher
	upgrader    websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	mux        *http.ServeMux
	httpSrv    *http.Server
	metricsSrv *http.Server
}

type client struct {
	conn *websocket.Conn
	send chan outMsg
}

type outMsg struct {
	Type   string        `json:"type"` // frame | ticker
	Frame  *engine.Frame `json:"frame,omitempty"`
	Ticker *feed.Ticker  `json:"ticker,omitempty"`
}

// New 创建服务。pub 可为 nil（不转发行情状态）；
// metricsAddr 非空时 /metrics 在独立端口暴露。
func New(addr, metricsAddr string, eng Controller, pub *feed.Publisher, log *logger.Logger, mon *monitor.Monitor) *Server {
	s := &Server{
		addr:        addr,
		metricsAddr: metricsAddr,
		logger:      log,
		mon:         mon,
		eng:         eng,
		pub:         pub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 32 * 1024,
			// 展示页与服务同机部署，放开跨域
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if mon != nil && metricsAddr == "" {
		s.mux.Handle("/metrics", mon.Handler())
	}
	return s
}

// Start 启动 HTTP 服务与行情转发循环。
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if s.pub != nil {
		go s.forwardTickers(ctx)
	}
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server exited", zap.Error(err))
		}
	}()
	if s.mon != nil && s.metricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", s.mon.Handler())
		s.metricsSrv = &http.Server{
			Addr:              s.metricsAddr,
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Error("metrics server exited", zap.Error(err))
			}
		}()
		s.logger.Info("Metrics listening", zap.String("addr", s.metricsAddr))
	}
	s.logger.Info("Viz server listening", zap.String("addr", s.addr))
	return nil
}

// Shutdown 优雅关闭。
func (s *Server) Shutdown(ctx context.Context) error {
	if s.metricsSrv != nil {
		if err := s.metricsSrv.Shutdown(ctx); err != nil {
			s.logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// PushFrame 实现 engine.FrameSink：把帧批次广播给全部客户端。
// 慢客户端直接丢帧，绝不阻塞帧循环。
func (s *Server) PushFrame(f engine.Frame) {
	s.broadcast(outMsg{Type: "frame", Frame: &f})
	if s.mon != nil {
		s.mon.RecordWSFrame()
	}
}

func (s *Server) forwardTickers(ctx context.Context) {
	ch := s.pub.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ch:
			s.broadcast(outMsg{Type: "ticker", Ticker: &t})
		}
	}
}

func (s *Server) broadcast(msg outMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan outMsg, 8)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	if s.mon != nil {
		s.mon.SetWSClients(n)
	}
	s.logger.Info("ws client connected", zap.String("remote", conn.RemoteAddr().String()))

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (s *Server) readLoop(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		n := len(s.clients)
		s.mu.Unlock()
		if s.mon != nil {
			s.mon.SetWSClients(n)
		}
		close(c.send)
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ControlMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Warn("bad control message", zap.Error(err))
			continue
		}
		if err := ApplyControl(s.eng, msg); err != nil {
			s.logger.LogError(err, map[string]interface{}{"op": msg.Op, "source": "control"})
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	stats := s.eng.GetStatistics()
	json.NewEncoder(w).Encode(map[string]any{
		"state":       s.eng.GetState().String(),
		"totalFrames": stats.TotalFrames,
		"totalTicks":  stats.TotalTicks,
		"time":        time.Now().UTC(),
	})
}
