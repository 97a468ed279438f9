package ring

// LightSource is a point of light on the ring. Position is a fractional LED index,
// Brightness the output at the source itself and Radius the distance at which the
// contribution falls to zero.
type LightSource struct {
	Position   float64
	Brightness float64
	Radius     float64
}

// Contribution returns how much of src reaches the LED at index led.
//
// The falloff is linear from Brightness at distance 0 to zero at Radius. A
// non-positive radius lights only an LED sitting exactly on the source.
func Contribution(led int, src LightSource, size int) (float64, error) {
	d, err := Distance(float64(led), src.Position, size)
	if err != nil {
		return 0, err
	}
	if src.Brightness <= 0 {
		return 0, nil
	}

	if src.Radius <= 0 {
		if d == 0 {
			return src.Brightness, nil
		}
		return 0, nil
	}

	return Map(d, src.Radius, 0, 0, src.Brightness), nil
}

// Brightest returns the strongest contribution of any source at led. Sources do
// not add up.
func Brightest(led int, sources []LightSource, size int) (float64, error) {
	var best float64
	for _, src := range sources {
		c, err := Contribution(led, src, size)
		if err != nil {
			return 0, err
		}
		if c > best {
			best = c
		}
	}
	return best, nil
}
