package wled

import "github.com/dokzlo13/ringclock/internal/frame"

// Info is the subset of the /json/info response the clock needs.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"ver"`
	Leds    struct {
		Count  int `json:"count"`
		MaxSeg int `json:"maxseg"`
	} `json:"leds"`
	FxCount int `json:"fxcount"`
}

// State is the subset of the /json/state request the clock sends.
type State struct {
	On         *bool     `json:"on,omitempty"`
	Bri        *int      `json:"bri,omitempty"`
	Seg        []Segment `json:"seg,omitempty"`
	Transition *int      `json:"transition,omitempty"`
}

// Segment is a WLED segment. Start and Stop are always sent so that a zero
// length segment deletes the slot on the device.
type Segment struct {
	On    *bool      `json:"on,omitempty"`
	Start int        `json:"start"`
	Stop  int        `json:"stop"`
	Fx    *int       `json:"fx,omitempty"`
	Sx    *int       `json:"sx,omitempty"`
	Ix    *int       `json:"ix,omitempty"`
	Col   [][3]uint8 `json:"col,omitempty"`
	Bri   *int       `json:"bri,omitempty"`
}

// FromFrame converts compositor segments into WLED segments.
func FromFrame(segments []frame.Segment) []Segment {
	out := make([]Segment, len(segments))
	for i, s := range segments {
		if s.IsEmpty() {
			continue
		}
		on := s.On
		seg := Segment{
			On:    &on,
			Start: s.Start,
			Stop:  s.Stop,
			Fx:    s.EffectID,
			Sx:    s.Speed,
			Ix:    s.Intensity,
			Bri:   s.Brightness,
		}
		for _, c := range s.Colors {
			seg.Col = append(seg.Col, [3]uint8(c))
		}
		out[i] = seg
	}
	return out
}

// NewState builds a state update from compositor segments.
func NewState(segments []frame.Segment, transition int) State {
	return State{
		Seg:        FromFrame(segments),
		Transition: &transition,
	}
}
