package izzi

import (
	"math"
)

const (
	MinBypassTemp = 18
	MaxBypassTemp = 26

	MinSpeed = 20
	MaxSpeed = 100

	MinCorrection = -50
	MaxCorrection = 50
)

// The setters below validate their input and return false without touching
// any state if it is out of range. Accepted values are applied by the loop
// before it handles the next frame.

func (c *Controller) enqueue(fn func(*Controller)) {
	c.pending <- fn
}

func (c *Controller) SetBypassMode(mode int) bool {
	if mode < BypassModeAuto || mode > BypassModeClosed {
		return false
	}
	c.enqueue(func(c *Controller) {
		c.command(SensorBypassMode).target = mode
	})
	return true
}

func (c *Controller) SetBypassTemp(temp int) bool {
	if temp < MinBypassTemp || temp > MaxBypassTemp {
		return false
	}
	c.enqueue(func(c *Controller) {
		c.command(SensorBypassTemp).target = temp
	})
	return true
}

// SetFanSpeedRaw commands both fans directly, bypassing the extract correction.
func (c *Controller) SetFanSpeedRaw(supply int, extract int) bool {
	if supply < 0 || supply > 100 || extract < 0 || extract > 100 {
		return false
	}
	c.enqueue(func(c *Controller) {
		c.setFanTargets(supply, extract)
	})
	return true
}

// SetSpeed commands a combined speed. Unless CF is enabled, the extract
// correction is applied by slowing down one of the ducts.
func (c *Controller) SetSpeed(speed int) bool {
	if speed < MinSpeed || speed > MaxSpeed {
		return false
	}
	c.enqueue(func(c *Controller) {
		c.speed = speed
		c.virtual(SensorFanSpeed).value = Known(speed)
		c.applySpeed()
	})
	return true
}

// SetCorrection sets the extract correction in percent. Positive values slow
// down supply, negative values slow down extract.
func (c *Controller) SetCorrection(correction int) bool {
	if correction < MinCorrection || correction > MaxCorrection {
		return false
	}
	c.enqueue(func(c *Controller) {
		c.correction = correction
		c.virtual(SensorExtractCorrection).value = Known(correction)
		c.applySpeed()
	})
	return true
}

func (c *Controller) applySpeed() {
	if c.speed == 0 {
		return
	}
	supply, extract := c.speed, c.speed
	if !c.cf.Enabled() {
		reduction := int(math.RoundToEven(math.Abs(float64(c.correction)) / 100.0 * float64(c.speed)))
		if c.correction > 0 {
			supply -= reduction
		} else {
			extract -= reduction
		}
	}
	c.setFanTargets(supply, extract)
}

func (c *Controller) setFanTargets(supply int, extract int) {
	c.command(SensorFanSupplySpeed).target = supply
	c.command(SensorFanExtractSpeed).target = extract
}

// SetVentMode applies a vent override by scaling one of the ducts.
func (c *Controller) SetVentMode(mode int) bool {
	if mode < VentModeNone || mode > VentModeCookerHood {
		return false
	}
	c.enqueue(func(c *Controller) {
		supply, extract := NoScale, NoScale
		switch mode {
		case VentModeFireplace:
			extract = ScaleBy(0.8)
		case VentModeOpenWindow:
			supply = ScaleBy(0)
		case VentModeCookerHood:
			extract = ScaleBy(0.3)
		}
		c.command(SensorFanSupplySpeed).scale = supply
		c.command(SensorFanExtractSpeed).scale = extract
		c.virtual(SensorVentMode).value = Known(mode)
	})
	return true
}

func (c *Controller) SetVentPreset(preset int) bool {
	if preset < VentPresetOff || preset > VentPresetAuto {
		return false
	}
	c.enqueue(func(c *Controller) {
		c.command(SensorVentPreset).target = preset
	})
	return true
}

func (c *Controller) SetUnitOn(on bool) bool {
	state := UnitOff
	if on {
		state = UnitOn
	}
	c.enqueue(func(c *Controller) {
		c.command(SensorUnitState).target = state
	})
	return true
}

// SetCFMaxParam calibrates the CF engine. Any positive value enables it,
// zero disables it again.
func (c *Controller) SetCFMaxParam(maxParam float64) bool {
	if math.IsNaN(maxParam) || maxParam < 0 || maxParam > CFMaxParamLimit {
		return false
	}
	c.enqueue(func(c *Controller) {
		c.cf.SetMaxParam(maxParam)
		c.applySpeed()
	})
	return true
}

// FeedCFParams hands the current measured parameters of both ducts to the
// CF engine.
func (c *Controller) FeedCFParams(supply float64, extract float64) bool {
	if !isFinite(supply) || !isFinite(extract) {
		return false
	}
	c.enqueue(func(c *Controller) {
		c.cf.Feed(supply, extract)
	})
	return true
}

// ResetCFBias clears the learned slow corrections, including the stored ones.
func (c *Controller) ResetCFBias() bool {
	c.enqueue(func(c *Controller) {
		c.cf.ResetBias()
		c.deleteBias()
	})
	return true
}

// ForceUpdate makes the loop publish id again on its next cycle, even if the
// value did not change.
func (c *Controller) ForceUpdate(id SensorID) bool {
	if !isKnownSensor(id) {
		return false
	}
	c.enqueue(func(c *Controller) {
		for _, s := range c.sensors {
			if s.id == id {
				s.last = nil
			}
		}
		for _, e := range c.commands {
			if e.id == id {
				e.forced = true
			}
		}
		for _, v := range c.virtuals {
			if v.id == id {
				v.published = nil
			}
		}
	})
	return true
}

func isKnownSensor(id SensorID) bool {
	for _, known := range SensorIDs() {
		if known == id {
			return true
		}
	}
	return false
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
