package izzi

import (
	"math"

	"github.com/asecurityteam/rolling"
	"github.com/victorjacobs/go-izzi/ui"
	"golang.org/x/exp/constraints"
)

const (
	cfParamsLength      = 5
	cfCorrectionsLength = 5

	CFMaxParamLimit = 500.0
)

type Duct int

const (
	Supply Duct = iota
	Extract
)

func (d Duct) String() string {
	if d == Supply {
		return "supply"
	}
	return "extract"
}

// ring is a bounded window of the most recent samples.
type ring struct {
	size   int
	count  int
	policy *rolling.PointPolicy
}

func newRing(size int) *ring {
	r := &ring{size: size}
	r.Clear()
	return r
}

func (r *ring) Append(value float64) {
	r.policy.Append(value)
	if r.count < r.size {
		r.count++
	}
}

func (r *ring) Len() int {
	return r.count
}

// Mean of the samples currently held. Unused slots of the window are zero,
// so summing the whole window is exact.
func (r *ring) Mean() float64 {
	if r.count == 0 {
		return 0
	}
	return r.policy.Reduce(rolling.Sum) / float64(r.count)
}

func (r *ring) Clear() {
	r.policy = rolling.NewPointPolicy(rolling.NewWindow(r.size))
	r.count = 0
}

type cfDuct struct {
	duct        Duct
	tracking    bool
	speed       int
	expected    float64
	params      *ring
	corrections *ring
	fast        int
	slow        int
}

func newCFDuct(duct Duct) *cfDuct {
	return &cfDuct{
		duct:        duct,
		params:      newRing(cfParamsLength),
		corrections: newRing(cfCorrectionsLength),
	}
}

// retarget restarts the short term estimate at a new operating point. The slow
// correction models a structural balancing bias and survives speed changes.
func (d *cfDuct) retarget(speed int, maxParam float64) {
	d.tracking = true
	d.speed = speed
	d.expected = expectedParam(speed, maxParam)
	d.params.Clear()
	d.corrections.Clear()
	d.fast = 0

	ui.Debug("Expected %s CF param %f at %d%%", d.duct, d.expected, speed)
}

// CFEngine keeps the measured airflow parameter of each duct near the value
// expected for the commanded speed. It is disabled until a max parameter
// calibration is supplied.
type CFEngine struct {
	enabled  bool
	maxParam float64
	ducts    [2]*cfDuct
}

func NewCFEngine() *CFEngine {
	return &CFEngine{
		ducts: [2]*cfDuct{newCFDuct(Supply), newCFDuct(Extract)},
	}
}

// expectedParam is the calibration curve of the measured parameter over speed.
func expectedParam(speed int, maxParam float64) float64 {
	norm := float64(speed) / 100.0
	return math.Max(0, maxParam*norm*norm*norm+40.0*norm-6.0)
}

// SetMaxParam sets the calibration constant. A positive value enables the
// engine, zero disables it.
func (e *CFEngine) SetMaxParam(maxParam float64) {
	e.maxParam = maxParam
	e.enabled = maxParam > 0
	for _, d := range e.ducts {
		d.tracking = false
	}
	ui.Debug("CF params max %f", maxParam)
}

func (e *CFEngine) Enabled() bool {
	return e.enabled
}

// Feed appends one measured parameter per duct.
func (e *CFEngine) Feed(supply float64, extract float64) {
	if !e.enabled {
		return
	}
	e.ducts[Supply].params.Append(supply)
	e.ducts[Extract].params.Append(extract)
}

// Speed returns the speed to command to the fan of the duct so that its measured
// parameter tracks the expected one for the commanded speed.
func (e *CFEngine) Speed(duct Duct, commanded int) int {
	if !e.enabled {
		return commanded
	}

	d := e.ducts[duct]
	if !d.tracking || d.speed != commanded {
		d.retarget(commanded, e.maxParam)
	}

	limit := commanded / 4
	d.slow = clamp(d.slow, -limit, limit)

	if d.params.Len() >= cfParamsLength-1 {
		avg := d.params.Mean()
		diff := avg - d.expected

		// difference in percent of the calibrated range, sign flipped
		diffPerc := (diff / e.maxParam) * -100.0
		// feedback at low speeds is noisier, damp it harder
		norm := float64(commanded) / 100.0
		diffPerc *= 0.4*(1.0-norm*norm*norm) + 0.6

		fast := int(diffPerc)
		if abs(fast) > limit {
			fast = limit * sign(diffPerc)
		}
		d.fast = fast

		d.corrections.Append(float64(fast))
		if d.corrections.Len() >= cfCorrectionsLength {
			avgCorrection := d.corrections.Mean()
			if math.Abs(avgCorrection) > 1 {
				d.slow = clamp(d.slow+sign(avgCorrection), -limit, limit)
			}
			d.corrections.Clear()
		}

		ui.Debug("CF %s diff %f, correction %d, avg %f, base %d", duct, diff, d.fast, avg, d.slow)
	}

	target := float64(commanded + d.fast + d.slow)
	return int(clamp(target, float64(commanded)/2, 100))
}

func (e *CFEngine) FastCorrection(duct Duct) int {
	return e.ducts[duct].fast
}

func (e *CFEngine) SlowCorrection(duct Duct) int {
	return e.ducts[duct].slow
}

// RestoreSlowCorrection seeds the bias, e.g. from persistence. It is clamped
// against the commanded speed on the next cycle.
func (e *CFEngine) RestoreSlowCorrection(duct Duct, value int) {
	e.ducts[duct].slow = value
}

// ResetBias clears the slow corrections of both ducts.
func (e *CFEngine) ResetBias() {
	for _, d := range e.ducts {
		d.slow = 0
	}
}

func clamp[T constraints.Ordered](value, low, high T) T {
	if value > high {
		return high
	}
	if value < low {
		return low
	}
	return value
}

func sign(value float64) int {
	switch {
	case value > 0:
		return 1
	case value < 0:
		return -1
	}
	return 0
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
