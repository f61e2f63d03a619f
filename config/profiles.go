package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// VolatilityTier is the coarse volatility class of a symbol.
type VolatilityTier string

const (
	Low     VolatilityTier = "low"
	Medium  VolatilityTier = "medium"
	High    VolatilityTier = "high"
	Extreme VolatilityTier = "extreme"
)

// strengthThresholds maps a tier to the minimum trend strength that
// qualifies for a trend-following signal.
var strengthThresholds = map[VolatilityTier]float64{
	Low:     0.7,
	Medium:  0.6,
	High:    0.5,
	Extreme: 0.4,
}

// StrengthThreshold returns the trend strength a signal must exceed.
// Unknown tiers use the medium threshold.
func (v VolatilityTier) StrengthThreshold() float64 {
	if t, ok := strengthThresholds[v]; ok {
		return t
	}
	return strengthThresholds[Medium]
}

// Valid reports whether v is a known tier.
func (v VolatilityTier) Valid() bool {
	_, ok := strengthThresholds[v]
	return ok
}

// SymbolProfile is the static per-symbol tuning.
type SymbolProfile struct {
	RSIOversold   float64        `toml:"rsi_oversold" json:"rsi_oversold"`
	RSIOverbought float64        `toml:"rsi_overbought" json:"rsi_overbought"`
	StopLoss      float64        `toml:"stop_loss" json:"stop_loss"`
	TakeProfit    float64        `toml:"take_profit" json:"take_profit"`
	Volatility    VolatilityTier `toml:"volatility" json:"volatility"`
}

// Validate checks the profile against the schema.
func (p SymbolProfile) Validate() error {
	if p.RSIOversold <= 0 || p.RSIOverbought >= 100 {
		return fmt.Errorf("rsi thresholds (%v, %v) must lie within (0, 100)", p.RSIOversold, p.RSIOverbought)
	}
	if p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%v) must be below rsi_overbought (%v)", p.RSIOversold, p.RSIOverbought)
	}
	if p.StopLoss <= 0 || p.StopLoss >= 1 {
		return fmt.Errorf("stop_loss (%v) must be >0 and <1", p.StopLoss)
	}
	if p.TakeProfit <= 0 {
		return fmt.Errorf("take_profit (%v) must be positive", p.TakeProfit)
	}
	if !p.Volatility.Valid() {
		return fmt.Errorf("unknown volatility tier %q", p.Volatility)
	}
	return nil
}

//go:embed profiles.toml
var defaultProfilesTOML string

// Profiles is the immutable per-symbol table with a fallback profile.
type Profiles struct {
	symbols  map[string]SymbolProfile
	fallback SymbolProfile
}

type profileFile struct {
	Symbols map[string]SymbolProfile `toml:"symbols"`
}

// NewProfiles builds a table from already-validated entries.
func NewProfiles(symbols map[string]SymbolProfile, fallback SymbolProfile) *Profiles {
	cp := make(map[string]SymbolProfile, len(symbols))
	for k, v := range symbols {
		cp[k] = v
	}
	return &Profiles{symbols: cp, fallback: fallback}
}

// DefaultProfiles decodes the embedded symbol table.
func DefaultProfiles(fallback SymbolProfile) (*Profiles, error) {
	return ParseProfiles(defaultProfilesTOML, fallback)
}

// LoadProfiles reads a TOML profile table from path. An empty path loads
// the embedded default table.
func LoadProfiles(path string, fallback SymbolProfile) (*Profiles, error) {
	if path == "" {
		return DefaultProfiles(fallback)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profiles: %w", err)
	}
	return ParseProfiles(string(data), fallback)
}

// ParseProfiles decodes and validates a TOML profile table. Keys outside
// the schema are rejected.
func ParseProfiles(data string, fallback SymbolProfile) (*Profiles, error) {
	var f profileFile
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("profiles: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("profiles: unknown keys %s", strings.Join(keys, ", "))
	}
	for sym, p := range f.Symbols {
		for _, field := range []string{"rsi_oversold", "rsi_overbought", "stop_loss", "take_profit", "volatility"} {
			if !md.IsDefined("symbols", sym, field) {
				return nil, fmt.Errorf("profiles: %s: missing %s", sym, field)
			}
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profiles: %s: %w", sym, err)
		}
	}
	if err := fallback.Validate(); err != nil {
		return nil, fmt.Errorf("profiles: fallback: %w", err)
	}
	return NewProfiles(f.Symbols, fallback), nil
}

// Lookup returns the profile for symbol and whether it was configured
// explicitly.
func (p *Profiles) Lookup(symbol string) (SymbolProfile, bool) {
	if sp, ok := p.symbols[symbol]; ok {
		return sp, true
	}
	return p.fallback, false
}

// Get is Lookup without the presence flag.
func (p *Profiles) Get(symbol string) SymbolProfile {
	sp, _ := p.Lookup(symbol)
	return sp
}

// Symbols lists configured symbols in lexical order.
func (p *Profiles) Symbols() []string {
	out := make([]string, 0, len(p.symbols))
	for s := range p.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
