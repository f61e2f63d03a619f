package indicators

import (
	"encoding/json"
	"math"
	"time"

	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/types"
)

// Value is a single indicator reading that may be undefined.
type Value struct {
	V  float64
	OK bool
}

// Or returns the reading, or def when undefined.
func (v Value) Or(def float64) float64 {
	if !v.OK {
		return def
	}
	return v.V
}

// MarshalJSON encodes undefined readings as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.OK {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	if err := json.Unmarshal(data, &v.V); err != nil {
		return err
	}
	v.OK = true
	return nil
}

// Last returns the final element of series as a Value.
func Last(series []float64) Value {
	if len(series) == 0 {
		return Value{}
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{V: v, OK: true}
}

// Snapshot is the set of indicator readings produced by the last bar of a
// window.
type Snapshot struct {
	Index int       `json:"index"`
	Bars  int       `json:"bars"`
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`

	RSI       Value `json:"rsi"`
	MACD      Value `json:"macd"`
	Signal    Value `json:"signal"`
	Histogram Value `json:"histogram"`
	MAShort   Value `json:"ma_short"`
	MALong    Value `json:"ma_long"`
	BBUpper   Value `json:"bb_upper"`
	BBMiddle  Value `json:"bb_middle"`
	BBLower   Value `json:"bb_lower"`

	VolumeMA    Value `json:"volume_ma"`
	VolumeRatio Value `json:"volume_ratio"`
	MFI         Value `json:"mfi"`
}

// Compute recomputes every indicator from the full bar window. An empty
// window yields a zero snapshot with Index -1.
func Compute(bars []types.Bar, p config.Periods) Snapshot {
	snap := Snapshot{Index: len(bars) - 1, Bars: len(bars)}
	if len(bars) == 0 {
		return snap
	}
	last := bars[len(bars)-1]
	snap.Time = last.Time
	snap.Close = last.Close

	closes := types.Closes(bars)
	snap.RSI = Last(RSI(closes, p.RSI))

	m := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	snap.MACD = Last(m.MACD)
	snap.Signal = Last(m.Signal)
	snap.Histogram = Last(m.Histogram)

	snap.MAShort = Last(SMA(closes, p.MAShort))
	snap.MALong = Last(SMA(closes, p.MALong))

	bb := Bollinger(closes, p.BBPeriod, p.BBStdDev)
	snap.BBUpper = Last(bb.Upper)
	snap.BBMiddle = Last(bb.Middle)
	snap.BBLower = Last(bb.Lower)

	vma, vr := VolumeRatio(types.Volumes(bars), p.Volume)
	snap.VolumeMA = Last(vma)
	snap.VolumeRatio = Last(vr)

	snap.MFI = MoneyFlow(bars)
	return snap
}
