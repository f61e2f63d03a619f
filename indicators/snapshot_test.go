package indicators

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barsFromCloses(closes []float64) []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Time: start.Add(time.Duration(i) * time.Hour),
			Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 500,
		}
	}
	return bars
}

func TestCompute_FlatWindow(t *testing.T) {
	snap := Compute(barsFromCloses(constant(50, 100)), config.DefaultPeriods())

	assert.Equal(t, 49, snap.Index)
	assert.Equal(t, 50, snap.Bars)
	assert.Equal(t, 100.0, snap.Close)
	assert.Equal(t, 50.0, snap.RSI.V)
	assert.InDelta(t, 0, snap.MACD.V, 1e-9)
	assert.Equal(t, 100.0, snap.MAShort.V)
	assert.Equal(t, 100.0, snap.MALong.V)
	assert.InDelta(t, 100.0, snap.BBUpper.V, 1e-9)
	assert.InDelta(t, 1.0, snap.VolumeRatio.V, 1e-12)
	if snap.MFI.OK {
		assert.GreaterOrEqual(t, snap.MFI.V, 0.0)
		assert.LessOrEqual(t, snap.MFI.V, 100.0)
	}
}

func TestCompute_ShortWindowIsUndefinedNotFatal(t *testing.T) {
	snap := Compute(barsFromCloses(constant(10, 100)), config.DefaultPeriods())

	assert.False(t, snap.RSI.OK)
	assert.False(t, snap.MACD.OK)
	assert.False(t, snap.MAShort.OK)
	assert.False(t, snap.MALong.OK)
	assert.False(t, snap.BBMiddle.OK)
	assert.Equal(t, 50.0, snap.RSI.Or(50))
	assert.Equal(t, 0.0, snap.MACD.Or(0))
}

func TestCompute_EmptyWindow(t *testing.T) {
	snap := Compute(nil, config.DefaultPeriods())
	assert.Equal(t, -1, snap.Index)
	assert.False(t, snap.RSI.OK)
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}{A: Value{V: 1.5, OK: true}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(data))
}
