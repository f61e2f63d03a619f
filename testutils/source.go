package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/evdnx/signalbot/types"
)

// StubSource serves fixed bars and a fixed ticker. Set Err to make every
// call fail.
type StubSource struct {
	mu     sync.Mutex
	bars   []types.Bar
	ticker types.Ticker
	err    error
	calls  int
}

func NewStubSource(bars []types.Bar, price float64) *StubSource {
	return &StubSource{bars: bars, ticker: types.Ticker{Price: price, Bid: price, Ask: price}}
}

func (s *StubSource) SetBars(bars []types.Bar) {
	s.mu.Lock()
	s.bars = bars
	s.mu.Unlock()
}

func (s *StubSource) SetPrice(price float64) {
	s.mu.Lock()
	s.ticker.Price, s.ticker.Bid, s.ticker.Ask = price, price, price
	s.mu.Unlock()
}

func (s *StubSource) SetErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Calls is the number of Bars and Ticker calls served.
func (s *StubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *StubSource) Bars(_ context.Context, _ string, _ string, limit int) ([]types.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	bars := s.bars
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return append([]types.Bar(nil), bars...), nil
}

func (s *StubSource) Ticker(_ context.Context, symbol string) (types.Ticker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return types.Ticker{}, s.err
	}
	t := s.ticker
	t.Symbol = symbol
	return t, nil
}

// BarsFromCloses builds hourly bars whose open, high and low equal the
// close, starting at start.
func BarsFromCloses(start time.Time, closes []float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 100,
		}
	}
	return bars
}
