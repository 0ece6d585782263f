// Package animation turns wall-clock time into orbit angle increments.
package animation

// DegreesPerTenSeconds is the orbit speed: 90 degrees every 10000 ms.
const DegreesPerTenSeconds = 90.0

// Clock integrates frame timestamps. The zero value is ready to use.
type Clock struct {
	lastMs  float64
	started bool
}

// Tick records nowMs and returns the angle delta in degrees since the
// previous tick. The first tick only stores the baseline and returns 0.
func (c *Clock) Tick(nowMs float64) float64 {
	if !c.started {
		c.lastMs = nowMs
		c.started = true
		return 0
	}

	elapsed := nowMs - c.lastMs
	c.lastMs = nowMs
	return DegreesPerTenSeconds * elapsed / 10000.0
}
