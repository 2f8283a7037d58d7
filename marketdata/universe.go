package marketdata

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Instrument is one universe entry. Market cap is in crore rupees, the unit
// NSE publishes.
type Instrument struct {
	Symbol         string  `yaml:"symbol"`
	Name           string  `yaml:"name,omitempty"`
	MarketCapCrore float64 `yaml:"market_cap_crore"`
}

// Universe is the set of instruments a run screens, with the market cap
// figures the screen needs.
type Universe struct {
	Name        string       `yaml:"name"`
	Instruments []Instrument `yaml:"instruments"`

	bySymbol map[string]Instrument
}

// LoadUniverse reads a universe YAML file.
func LoadUniverse(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	u.index()
	return &u, nil
}

func (u *Universe) Validate() error {
	if len(u.Instruments) == 0 {
		return fmt.Errorf("universe has no instruments")
	}
	seen := map[string]bool{}
	for i, inst := range u.Instruments {
		if inst.Symbol == "" {
			return fmt.Errorf("instrument %d: empty symbol", i)
		}
		if seen[inst.Symbol] {
			return fmt.Errorf("duplicate symbol %s", inst.Symbol)
		}
		if inst.MarketCapCrore < 0 {
			return fmt.Errorf("%s: negative market cap", inst.Symbol)
		}
		seen[inst.Symbol] = true
	}
	return nil
}

func (u *Universe) index() {
	u.bySymbol = make(map[string]Instrument, len(u.Instruments))
	for _, inst := range u.Instruments {
		u.bySymbol[inst.Symbol] = inst
	}
}

// MarketCap returns the instrument's market cap in crore, false when the
// symbol is not in the universe.
func (u *Universe) MarketCap(symbol string) (float64, bool) {
	if u.bySymbol == nil {
		u.index()
	}
	inst, ok := u.bySymbol[symbol]
	return inst.MarketCapCrore, ok
}

// Symbols returns the universe's symbols, sorted.
func (u *Universe) Symbols() []string {
	out := make([]string, 0, len(u.Instruments))
	for _, inst := range u.Instruments {
		out = append(out, inst.Symbol)
	}
	sort.Strings(out)
	return out
}

// DefaultUniverse is a curated large-cap NSE fallback used when no universe
// file is configured. Caps are approximate and meant for offline runs.
func DefaultUniverse() *Universe {
	u := &Universe{
		Name: "nifty-fallback",
		Instruments: []Instrument{
			{Symbol: "RELIANCE", MarketCapCrore: 1700000},
			{Symbol: "TCS", MarketCapCrore: 1300000},
			{Symbol: "HDFCBANK", MarketCapCrore: 1150000},
			{Symbol: "INFY", MarketCapCrore: 600000},
			{Symbol: "ICICIBANK", MarketCapCrore: 700000},
			{Symbol: "SBIN", MarketCapCrore: 550000},
			{Symbol: "BHARTIARTL", MarketCapCrore: 650000},
			{Symbol: "ITC", MarketCapCrore: 550000},
			{Symbol: "LT", MarketCapCrore: 480000},
			{Symbol: "TATASTEEL", MarketCapCrore: 170000},
			{Symbol: "TATAMOTORS", MarketCapCrore: 250000},
			{Symbol: "SUNPHARMA", MarketCapCrore: 290000},
			{Symbol: "MARUTI", MarketCapCrore: 340000},
			{Symbol: "AXISBANK", MarketCapCrore: 330000},
			{Symbol: "WIPRO", MarketCapCrore: 260000},
		},
	}
	u.index()
	return u
}
