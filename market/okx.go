package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/evdnx/signalbot/types"
)

// OKX is a client for the public OKX v5 market endpoints. No credentials
// are needed.
type OKX struct {
	baseURL    string
	httpClient *http.Client
}

// NewOKX creates a client rooted at baseURL, e.g. "https://www.okx.com".
func NewOKX(baseURL string) *OKX {
	return &OKX{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// InstID converts "BTC/USDT" to the exchange instrument id "BTC-USDT".
func InstID(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", "-"))
}

// okxCodeUnknownInstrument is returned for an instId the exchange does not list.
const okxCodeUnknownInstrument = "51001"

var okxBars = map[string]string{
	"1m": "1m", "5m": "5m", "15m": "15m", "30m": "30m",
	"1h": "1H", "4h": "4H", "1d": "1D",
}

// okxEnvelope is the common response wrapper. Code "0" means success.
type okxEnvelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type okxTicker struct {
	InstID  string `json:"instId"`
	Last    string `json:"last"`
	BidPx   string `json:"bidPx"`
	AskPx   string `json:"askPx"`
	Open24h string `json:"open24h"`
	Vol24h  string `json:"vol24h"`
	Ts      string `json:"ts"`
}

// Bars fetches the most recent limit candles, oldest first.
func (o *OKX) Bars(ctx context.Context, symbol, timeframe string, limit int) ([]types.Bar, error) {
	bar, ok := okxBars[timeframe]
	if !ok {
		return nil, fmt.Errorf("okx: unsupported timeframe %q", timeframe)
	}
	params := url.Values{}
	params.Set("instId", InstID(symbol))
	params.Set("bar", bar)
	params.Set("limit", strconv.Itoa(limit))

	var rows [][]string
	if err := o.get(ctx, "/api/v5/market/candles?"+params.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("okx: candles %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("okx: candles %s: no data: %w", symbol, types.ErrDataUnavailable)
	}

	bars := make([]types.Bar, 0, len(rows))
	for _, row := range rows {
		b, err := parseCandle(row)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// Ticker fetches the latest quote.
func (o *OKX) Ticker(ctx context.Context, symbol string) (types.Ticker, error) {
	params := url.Values{}
	params.Set("instId", InstID(symbol))

	var rows []okxTicker
	if err := o.get(ctx, "/api/v5/market/ticker?"+params.Encode(), &rows); err != nil {
		return types.Ticker{}, fmt.Errorf("okx: ticker %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return types.Ticker{}, fmt.Errorf("okx: ticker %s: no data: %w", symbol, types.ErrDataUnavailable)
	}
	r := rows[0]

	last, err := requireFloat("okx ticker", "last", r.Last)
	if err != nil {
		return types.Ticker{}, err
	}
	t := types.Ticker{
		Symbol: symbol,
		Price:  last,
		Bid:    optionalFloat(r.BidPx, last),
		Ask:    optionalFloat(r.AskPx, last),
		Volume: optionalFloat(r.Vol24h, 0),
	}
	if open := optionalFloat(r.Open24h, 0); open > 0 {
		t.Change = last - open
		t.Percentage = t.Change / open * 100
	}
	if ms, err := strconv.ParseInt(r.Ts, 10, 64); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
	}
	return t, nil
}

func (o *OKX) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", types.ErrDataUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", types.ErrDataUnavailable, resp.StatusCode)
	}

	var env okxEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: decode: %v", types.ErrDataUnavailable, err)
	}
	if env.Code == "" {
		return &types.FieldError{Source: "okx", Field: "code"}
	}
	if env.Code == okxCodeUnknownInstrument {
		return fmt.Errorf("%w: %w: code %s: %s", types.ErrDataUnavailable, types.ErrUnknownSymbol, env.Code, env.Msg)
	}
	if env.Code != "0" {
		return fmt.Errorf("%w: code %s: %s", types.ErrDataUnavailable, env.Code, env.Msg)
	}
	if len(env.Data) == 0 {
		return &types.FieldError{Source: "okx", Field: "data"}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", types.ErrDataUnavailable, err)
	}
	return nil
}

var candleFields = []string{"ts", "o", "h", "l", "c", "vol"}

func parseCandle(row []string) (types.Bar, error) {
	if len(row) < len(candleFields) {
		return types.Bar{}, &types.FieldError{Source: "okx candle", Field: candleFields[len(row)]}
	}
	var vals [6]float64
	for i, name := range candleFields {
		v, err := requireFloat("okx candle", name, row[i])
		if err != nil {
			return types.Bar{}, err
		}
		vals[i] = v
	}
	return types.Bar{
		Time:   time.UnixMilli(int64(vals[0])).UTC(),
		Open:   vals[1],
		High:   vals[2],
		Low:    vals[3],
		Close:  vals[4],
		Volume: vals[5],
	}, nil
}

func requireFloat(source, field, raw string) (float64, error) {
	if raw == "" {
		return 0, &types.FieldError{Source: source, Field: field}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(v) {
		return 0, fmt.Errorf("%s: field %q: %w", source, field, types.ErrDataUnavailable)
	}
	return v, nil
}

func optionalFloat(raw string, def float64) float64 {
	if v, err := strconv.ParseFloat(raw, 64); err == nil && finite(v) {
		return v
	}
	return def
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
