package hal

import "sync/atomic"

// Single-cell LiPo range used to turn a voltage into a percentage.
const (
	cellEmptyVolts = 3.3
	cellFullVolts  = 4.2
)

// PercentFromVolts maps a cell voltage linearly onto 0-100.
func PercentFromVolts(v float64) int {
	if v <= cellEmptyVolts {
		return 0
	}
	if v >= cellFullVolts {
		return 100
	}
	return int((v-cellEmptyVolts)/(cellFullVolts-cellEmptyVolts)*100 + 0.5)
}

// SimBattery is a battery with a settable charge, for hosts without one.
type SimBattery struct {
	pct atomic.Int32
}

// NewSimBattery returns a battery at pct percent.
func NewSimBattery(pct int) *SimBattery {
	b := &SimBattery{}
	b.Set(pct)
	return b
}

// Set changes the simulated charge.
func (b *SimBattery) Set(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	b.pct.Store(int32(pct))
}

func (b *SimBattery) Percentage() int { return int(b.pct.Load()) }

func (b *SimBattery) Voltage() (float64, error) {
	return cellEmptyVolts + float64(b.Percentage())/100*(cellFullVolts-cellEmptyVolts), nil
}
