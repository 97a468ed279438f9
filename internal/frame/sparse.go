package frame

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dokzlo13/ringclock/internal/ring"
)

// OverflowPolicy decides what happens when more LEDs are lit than a device has
// segment slots.
type OverflowPolicy string

const (
	// OverflowTruncate keeps the brightest LEDs and drops the rest.
	OverflowTruncate OverflowPolicy = "truncate"
	// OverflowMerge coalesces adjacent LEDs of equal brightness into one
	// segment, then truncates if still over.
	OverflowMerge OverflowPolicy = "merge"
	// OverflowError fails the frame with ErrSegmentOverflow.
	OverflowError OverflowPolicy = "error"
)

// ParseOverflowPolicy parses a policy name. An empty string yields OverflowTruncate.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch OverflowPolicy(s) {
	case "":
		return OverflowTruncate, nil
	case OverflowTruncate, OverflowMerge, OverflowError:
		return OverflowPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown overflow policy %q", s)
	}
}

// Segment is a contiguous LED range with shared rendering parameters. Stop is
// exclusive. Optional fields are nil when the receiver should keep its value.
type Segment struct {
	On         bool
	Start      int
	Stop       int
	EffectID   *int
	Speed      *int
	Intensity  *int
	Colors     []RGB
	Brightness *int
}

// Empty returns the placeholder that tells a receiver to delete a slot.
func Empty() Segment {
	return Segment{}
}

// IsEmpty reports whether s is the deletion placeholder.
func (s Segment) IsEmpty() bool {
	return !s.On && s.Start == 0 && s.Stop == 0
}

// SparseOptions controls segment rendering.
type SparseOptions struct {
	Color    RGB
	Overflow OverflowPolicy
}

// span is a lit LED range with one brightness.
type span struct {
	start, stop int
	bri         int
}

// Sparse renders the sources into exactly maxSegments segments: one per lit LED
// in ring order, followed by empty placeholders.
func Sparse(size, maxSegments int, sources []ring.LightSource, opts SparseOptions) ([]Segment, error) {
	if maxSegments <= 0 {
		return nil, ErrNoSegments
	}
	levels, err := Level(size, sources)
	if err != nil {
		return nil, err
	}

	var lit []span
	for i, level := range levels {
		bri := to8(level)
		if bri <= 0 {
			continue
		}
		lit = append(lit, span{start: i, stop: i + 1, bri: bri})
	}

	if len(lit) > maxSegments {
		switch opts.Overflow {
		case OverflowError:
			return nil, fmt.Errorf("%w: %d lit, %d slots", ErrSegmentOverflow, len(lit), maxSegments)
		case OverflowMerge:
			lit = truncate(merge(lit), maxSegments)
		default:
			lit = truncate(lit, maxSegments)
		}
	}

	segments := make([]Segment, maxSegments)
	for i, sp := range lit {
		segments[i] = handSegment(sp, opts.Color)
	}
	return segments, nil
}

// Pad places seg in the first slot of a maxSegments long list of placeholders.
func Pad(seg Segment, maxSegments int) ([]Segment, error) {
	if maxSegments <= 0 {
		return nil, ErrNoSegments
	}
	segments := make([]Segment, maxSegments)
	segments[0] = seg
	return segments, nil
}

// CountLit returns the number of non-placeholder segments.
func CountLit(segments []Segment) int {
	n := 0
	for _, s := range segments {
		if !s.IsEmpty() {
			n++
		}
	}
	return n
}

func handSegment(sp span, color RGB) Segment {
	fx := 0
	bri := sp.bri
	return Segment{
		On:         true,
		Start:      sp.start,
		Stop:       sp.stop,
		EffectID:   &fx,
		Colors:     []RGB{color},
		Brightness: &bri,
	}
}

// merge coalesces runs of adjacent spans with equal brightness. Runs never
// wrap past the end of the ring.
func merge(spans []span) []span {
	if len(spans) == 0 {
		return spans
	}
	out := []span{spans[0]}
	for _, sp := range spans[1:] {
		last := &out[len(out)-1]
		if sp.start == last.stop && sp.bri == last.bri {
			last.stop = sp.stop
			continue
		}
		out = append(out, sp)
	}
	return out
}

// truncate keeps the n brightest spans (earlier ring position wins ties) and
// returns them in ring order.
func truncate(spans []span, n int) []span {
	if len(spans) <= n {
		return spans
	}
	kept := slices.Clone(spans)
	slices.SortStableFunc(kept, func(a, b span) int {
		return cmp.Compare(b.bri, a.bri)
	})
	kept = kept[:n]
	slices.SortFunc(kept, func(a, b span) int {
		return cmp.Compare(a.start, b.start)
	})
	return kept
}
