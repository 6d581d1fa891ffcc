package server

import (
	"fmt"

	"orderflow-viz-go/render"
)

// ControlMsg 客户端控制消息
type ControlMsg struct {
	Op     string         `json:"op"` // pause|resume|zoom|contrast|resize|layers
	Value  float64        `json:"value,omitempty"`
	W      int            `json:"w,omitempty"`
	H      int            `json:"h,omitempty"`
	Layers *render.Layers `json:"layers,omitempty"`
}

// ApplyControl 把控制消息映射到引擎控制面。
func ApplyControl(eng Controller, msg ControlMsg) error {
	switch msg.Op {
	case "pause":
		return eng.Pause()
	case "resume":
		return eng.Resume()
	case "zoom":
		if msg.Value <= 0 {
			return fmt.Errorf("zoom must be > 0, got %f", msg.Value)
		}
		eng.SetZoom(msg.Value)
		return nil
	case "contrast":
		if msg.Value <= 0 {
			return fmt.Errorf("contrast must be > 0, got %f", msg.Value)
		}
		eng.SetContrast(msg.Value)
		return nil
	case "resize":
		return eng.Resize(msg.W, msg.H)
	case "layers":
		if msg.Layers == nil {
			return fmt.Errorf("layers payload is required")
		}
		eng.SetLayers(*msg.Layers)
		return nil
	default:
		return fmt.Errorf("unknown op %q", msg.Op)
	}
}
