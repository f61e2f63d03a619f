package indicators

import (
	"math"

	"github.com/evdnx/goti"
	"github.com/evdnx/signalbot/types"
)

// MoneyFlow feeds the window through a goti indicator suite and returns
// the Money Flow Index of the last bar. It is reported alongside the
// snapshot and does not take part in the trend vote.
func MoneyFlow(bars []types.Bar) Value {
	suite, err := goti.NewIndicatorSuiteWithConfig(goti.DefaultConfig())
	if err != nil {
		return Value{}
	}
	for _, b := range bars {
		if err := suite.Add(b.High, b.Low, b.Close, b.Volume); err != nil {
			return Value{}
		}
	}
	mfi, err := suite.GetMFI().Calculate()
	if err != nil || math.IsNaN(mfi) || math.IsInf(mfi, 0) {
		return Value{}
	}
	return Value{V: mfi, OK: true}
}
