package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/evdnx/signalbot/bot"
	"github.com/evdnx/signalbot/ledger"
	"github.com/evdnx/signalbot/risk"
	"github.com/evdnx/signalbot/strategy"
	"github.com/evdnx/signalbot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu     sync.Mutex
	status bot.Status
	report *strategy.Report
}

func (f *fakeController) Status() bot.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeController) LastReport() (strategy.Report, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.report == nil {
		return strategy.Report{}, false
	}
	return *f.report, true
}

func (f *fakeController) SetAutoTrade(on bool) {
	f.mu.Lock()
	f.status.AutoTrade = on
	f.mu.Unlock()
}

type fakeAccount struct {
	positions []ledger.Position
}

func (f *fakeAccount) AccountSummary() strategy.AccountSummary {
	return strategy.AccountSummary{
		Symbol:      "BTC/USDT",
		Balance:     9_900,
		AccountPeak: 10_000,
		Daily:       risk.DailyStats{Date: "2024-12-01", TradesCount: 2},
	}
}

func (f *fakeAccount) Performance() ledger.Performance {
	return ledger.Performance{TotalTrades: 2, WinRate: 50}
}

func (f *fakeAccount) RiskMetrics() risk.Metrics {
	return risk.Metrics{TotalTrades: 2, ProfitFactor: 1.5}
}

func (f *fakeAccount) Positions() []ledger.Position { return f.positions }

func newTestServer(ctrl *fakeController, acct *fakeAccount) http.Handler {
	return NewServer(Config{Host: "127.0.0.1", Port: 8050}, ctrl, acct, nil, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeController{}, &fakeAccount{}), http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusAndTradingToggle(t *testing.T) {
	ctrl := &fakeController{status: bot.Status{Symbol: "BTC/USDT", Running: true}}
	h := newTestServer(ctrl, &fakeAccount{})

	st := decode[bot.Status](t, do(t, h, http.MethodGet, "/api/status"))
	assert.Equal(t, "BTC/USDT", st.Symbol)
	assert.False(t, st.AutoTrade)

	st = decode[bot.Status](t, do(t, h, http.MethodPost, "/api/trading/start"))
	assert.True(t, st.AutoTrade)
	assert.True(t, ctrl.Status().AutoTrade)

	st = decode[bot.Status](t, do(t, h, http.MethodPost, "/api/trading/stop"))
	assert.False(t, st.AutoTrade)

	rec := do(t, h, http.MethodGet, "/api/trading/start")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReport(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestServer(ctrl, &fakeAccount{})
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/report").Code)

	ctrl.report = &strategy.Report{Status: strategy.StatusSuccess, Symbol: "BTC/USDT", Price: 43000, Buy: true}
	rec := do(t, h, http.MethodGet, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["buy_signal"])
	assert.Equal(t, 43000.0, body["price"])
	assert.Equal(t, false, body["trade_executed"])
}

func TestPositionsNeverNull(t *testing.T) {
	acct := &fakeAccount{}
	h := newTestServer(&fakeController{}, acct)
	assert.JSONEq(t, `[]`, do(t, h, http.MethodGet, "/api/positions").Body.String())

	acct.positions = []ledger.Position{{ID: "p1", Symbol: "BTC/USDT", Side: types.Buy, Status: ledger.Open}}
	got := decode[[]ledger.Position](t, do(t, h, http.MethodGet, "/api/positions"))
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
}

func TestPerformanceRiskAccount(t *testing.T) {
	h := newTestServer(&fakeController{}, &fakeAccount{})

	perf := decode[ledger.Performance](t, do(t, h, http.MethodGet, "/api/performance"))
	assert.Equal(t, 50.0, perf.WinRate)

	rv := decode[riskView](t, do(t, h, http.MethodGet, "/api/risk"))
	assert.Equal(t, 1.5, rv.Metrics.ProfitFactor)
	assert.Equal(t, 2, rv.Daily.TradesCount)
	assert.Equal(t, 10_000.0, rv.AccountPeak)

	sum := decode[strategy.AccountSummary](t, do(t, h, http.MethodGet, "/api/account"))
	assert.Equal(t, 9_900.0, sum.Balance)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(&fakeController{}, &fakeAccount{}), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "signalbot_"))
}

func TestAddr(t *testing.T) {
	s := NewServer(Config{Host: "127.0.0.1", Port: 8050}, &fakeController{}, &fakeAccount{}, nil, nil)
	assert.Equal(t, "127.0.0.1:8050", s.Addr())
}
