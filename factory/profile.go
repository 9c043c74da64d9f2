/*
Package factory provides JSON to Go profile conversion.

PURPOSE:
  Converts JSON profile definitions into synth.Profile values. A profile holds
  every constant of a synthesis run (margin rate, impulse policy, display
  tiers, fee ranges, store geometry, essential keywords), so analysts can
  define new store scenarios without code changes.

JSON SCHEMA (every section is optional; absent values take the defaults):
  {
    "name": "grocery-baseline",
    "categories": [{"category": "Dairy", "unit_width": 10, "storage": "R"}],
    "params": {
      "margin_rate": "0.30",
      "default_unit_width": 10,
      "workers": 4,
      "impulse": {"policy": "flat", "high": 0.7, "low": 0.1, "products": ["Soda"]},
      "display": {"high_units": 12, "low_units": 6, "high_facings": 2, "low_facings": 1,
                  "min_policy": "reorder_ceil", "min_choices": [1,2,3], "min_weights": [0.6,0.3,0.1]}
    },
    "fees": {"base_min": 100, "base_max": 200, "quality": ["0.6","0.9","1.5","1.1","0.8"],
             "traffic": "1.30", "no_brand_suppliers": ["No Brand"]},
    "environment": {
      "layout": {"aisles": 3, "depths": 4, "aisle_spacing": 25, "pair_offset": 3, "depth_spacing": 10,
                 "fridges": {"count": 9, "start": 10, "step": 10, "along": 60},
                 "freezers": {"count": 2, "start": 10, "step": 10, "along": 100},
                 "shelf_width": 400, "levels": 5},
      "daily_customers": 500,
      "traffic": "1.30",
      "level_impulse": ["0.6","0.9","1.5","1.1","0.8"]
    },
    "link": {"essential_keywords": ["Milk", "Bread"]}
  }

DEFAULTING RULES:
  - A nil list takes the default list; an explicit [] means "none"
  - Pointer fields (margin_rate, impulse high/low, traffic, daily_customers)
    distinguish "absent" from zero
  - environment.traffic defaults to fees.traffic and level_impulse to
    fees.quality, as in the grocery baseline
  - An absent layout is the 35-shelf baseline store; a present layout is
    taken as written

USAGE:
  f := NewProfileFactory()
  profile, err := f.ParseProfile(profiles.GroceryBaselineJSON())
  canonical, err := f.EncodeProfile(profile)

SEE ALSO:
  - synth/config.go: Profile type definition
  - profiles/presets.go: Named preset profiles
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/shelf-engine/catalog"
	"github.com/warp/shelf-engine/fees"
	"github.com/warp/shelf-engine/layout"
	"github.com/warp/shelf-engine/params"
	"github.com/warp/shelf-engine/synth"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ProfileJSON is the JSON representation of a profile.
type ProfileJSON struct {
	Name        string           `json:"name"`
	Categories  []CategoryJSON   `json:"categories,omitempty"`
	Params      *ParamsJSON      `json:"params,omitempty"`
	Fees        *FeesJSON        `json:"fees,omitempty"`
	Environment *EnvironmentJSON `json:"environment,omitempty"`
	Link        *LinkJSON        `json:"link,omitempty"`
}

// CategoryJSON is one entry of the category table.
type CategoryJSON struct {
	Category  string  `json:"category"`
	UnitWidth float64 `json:"unit_width"`
	Storage   string  `json:"storage"` // S, R, F or standard, fridge, freezer
}

// ParamsJSON configures the parameter engine.
type ParamsJSON struct {
	MarginRate       *decimal.Decimal `json:"margin_rate,omitempty"`
	DefaultUnitWidth float64          `json:"default_unit_width,omitempty"`
	Workers          int              `json:"workers,omitempty"`
	Impulse          *ImpulseJSON     `json:"impulse,omitempty"`
	Display          *DisplayJSON     `json:"display,omitempty"`
}

// ImpulseJSON selects the impulse formula and the high-impulse set.
type ImpulseJSON struct {
	Policy     string   `json:"policy,omitempty"` // flat, demand_scaled
	High       *float64 `json:"high,omitempty"`
	Low        *float64 `json:"low,omitempty"`
	Categories []string `json:"categories"`
	Products   []string `json:"products"`
}

// DisplayJSON configures display tiers and minimum displays.
type DisplayJSON struct {
	HighUnits   int       `json:"high_units,omitempty"`
	LowUnits    int       `json:"low_units,omitempty"`
	HighFacings int       `json:"high_facings,omitempty"`
	LowFacings  int       `json:"low_facings,omitempty"`
	MinPolicy   string    `json:"min_policy,omitempty"` // reorder_ceil, skewed_draw
	MinChoices  []int     `json:"min_choices"`
	MinWeights  []float64 `json:"min_weights"`
}

// FeesJSON configures slotting fees.
type FeesJSON struct {
	BaseMin          *float64          `json:"base_min,omitempty"`
	BaseMax          *float64          `json:"base_max,omitempty"`
	Quality          []decimal.Decimal `json:"quality,omitempty"` // index 0 is level 1
	Traffic          *decimal.Decimal  `json:"traffic,omitempty"`
	NoBrandSuppliers []string          `json:"no_brand_suppliers"`
}

// EnvironmentJSON configures the store layout and global scalars.
type EnvironmentJSON struct {
	Layout         *LayoutJSON       `json:"layout,omitempty"`
	DailyCustomers *int              `json:"daily_customers,omitempty"`
	Traffic        *decimal.Decimal  `json:"traffic,omitempty"`
	LevelImpulse   []decimal.Decimal `json:"level_impulse,omitempty"`
}

// LayoutJSON is the store geometry.
type LayoutJSON struct {
	Aisles       int         `json:"aisles"`
	Depths       int         `json:"depths"`
	AisleSpacing float64     `json:"aisle_spacing"`
	PairOffset   float64     `json:"pair_offset"`
	DepthSpacing float64     `json:"depth_spacing"`
	Fridges      WallRunJSON `json:"fridges"`
	Freezers     WallRunJSON `json:"freezers"`
	ShelfWidth   float64     `json:"shelf_width"`
	Levels       int         `json:"levels"`
}

// WallRunJSON is a straight run of perimeter units.
type WallRunJSON struct {
	Count int     `json:"count"`
	Start float64 `json:"start"`
	Step  float64 `json:"step"`
	Along float64 `json:"along"`
}

// LinkJSON configures the linker.
type LinkJSON struct {
	EssentialKeywords []string `json:"essential_keywords"`
}

// =============================================================================
// DEFAULTS - The grocery baseline
// =============================================================================

const (
	defaultName             = "custom"
	defaultUnitWidth        = 10.0
	defaultImpulseHigh      = 0.7
	defaultImpulseLow       = 0.1
	defaultHighUnits        = 12
	defaultLowUnits         = 6
	defaultHighFacings      = 2
	defaultLowFacings       = 1
	defaultBaseMin          = 100.0
	defaultBaseMax          = 200.0
	defaultDailyCustomers   = 500
	defaultMarginRateString = "0.30"
	defaultTrafficString    = "1.30"
)

// DefaultCategories is the baseline category table.
func DefaultCategories() []synth.CategoryEntry {
	return []synth.CategoryEntry{
		{Category: "Dairy", UnitWidth: 10, Storage: synth.StorageFridge},
		{Category: "Seafood", UnitWidth: 20, Storage: synth.StorageFreezer},
		{Category: "Fruits & Vegetables", UnitWidth: 7, Storage: synth.StorageStandard},
		{Category: "Grains & Pulses", UnitWidth: 9, Storage: synth.StorageStandard},
		{Category: "Bakery", UnitWidth: 15, Storage: synth.StorageStandard},
		{Category: "Snacks", UnitWidth: 12, Storage: synth.StorageStandard},
		{Category: "Beverages", UnitWidth: 8, Storage: synth.StorageStandard},
		{Category: "Oils & Fats", UnitWidth: 9, Storage: synth.StorageStandard},
	}
}

// DefaultImpulseProducts is the baseline high-impulse product list.
func DefaultImpulseProducts() []string {
	return []string{
		"Butter Biscuit", "Chocolate Biscuit", "Icecream", "Vanilla Biscuit",
		"Soda", "Pretzels", "Popcorn", "Potato Chips",
	}
}

// DefaultEssentialKeywords is the baseline essential-item keyword list.
func DefaultEssentialKeywords() []string {
	return []string{"Milk", "Cheese", "Eggs", "Bread", "Banana", "Potato", "Rice", "Water", "Soda", "Fish"}
}

// DefaultLevelQuality is the baseline shelf-quality multiplier of levels 1..5.
func DefaultLevelQuality() synth.LevelMultipliers {
	return levelsFromStrings("0.6", "0.9", "1.5", "1.1", "0.8")
}

// DefaultLayout is the baseline 35-shelf store.
func DefaultLayout() synth.LayoutConfig {
	return synth.LayoutConfig{
		Aisles:       3,
		Depths:       4,
		AisleSpacing: 25,
		PairOffset:   3,
		DepthSpacing: 10,
		Fridges:      synth.WallRun{Count: 9, Start: 10, Step: 10, Along: 60},
		Freezers:     synth.WallRun{Count: 2, Start: 10, Step: 10, Along: 100},
		ShelfWidth:   400,
		Levels:       5,
	}
}

func levelsFromStrings(values ...string) synth.LevelMultipliers {
	out := make(synth.LevelMultipliers, len(values))
	for i, v := range values {
		out[i] = synth.LevelMultiplier{Level: i + 1, Value: decimal.RequireFromString(v)}
	}
	return out
}

// =============================================================================
// PROFILE FACTORY
// =============================================================================

// ProfileFactory converts JSON profiles to synth.Profile.
type ProfileFactory struct{}

// NewProfileFactory creates a new profile factory.
func NewProfileFactory() *ProfileFactory {
	return &ProfileFactory{}
}

// ParseProfile parses a JSON document into a validated Profile.
func (f *ProfileFactory) ParseProfile(data []byte) (*synth.Profile, error) {
	var pj ProfileJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %v: %w", err, synth.ErrInvalidConfig)
	}
	return f.FromJSON(pj)
}

// FromJSON applies the defaults to pj and validates the result.
func (f *ProfileFactory) FromJSON(pj ProfileJSON) (*synth.Profile, error) {
	p := &synth.Profile{Name: pj.Name}
	if p.Name == "" {
		p.Name = defaultName
	}

	categories, err := parseCategories(pj.Categories)
	if err != nil {
		return nil, err
	}
	p.Categories = categories

	p.Params = parseParams(pj.Params)
	p.Fees = parseFees(pj.Fees)
	p.Environment = parseEnvironment(pj.Environment, p.Fees)
	p.Link = parseLink(pj.Link)

	if err := Validate(p); err != nil {
		return nil, fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return p, nil
}

// Validate checks every stage configuration of p and their agreement.
func Validate(p *synth.Profile) error {
	if _, err := catalog.NewTable(p.Categories); err != nil {
		return err
	}
	if err := params.ValidateConfig(p.Params); err != nil {
		return err
	}
	if err := fees.NewGenerator(p.Fees).Validate(); err != nil {
		return err
	}
	if err := layout.NewGenerator(p.Environment).Validate(); err != nil {
		return err
	}
	if p.Fees.Quality.Len() != p.Environment.Layout.Levels {
		return fmt.Errorf("%d fee quality levels for %d shelf levels: %w",
			p.Fees.Quality.Len(), p.Environment.Layout.Levels, synth.ErrInvalidConfig)
	}
	return nil
}

// ToJSON converts a Profile to its fully explicit JSON form.
func (f *ProfileFactory) ToJSON(p *synth.Profile) ProfileJSON {
	pj := ProfileJSON{Name: p.Name}

	pj.Categories = make([]CategoryJSON, len(p.Categories))
	for i, c := range p.Categories {
		pj.Categories[i] = CategoryJSON{Category: c.Category, UnitWidth: c.UnitWidth, Storage: string(c.Storage)}
	}

	margin := p.Params.MarginRate
	high, low := p.Params.Impulse.High, p.Params.Impulse.Low
	pj.Params = &ParamsJSON{
		MarginRate:       &margin,
		DefaultUnitWidth: p.Params.DefaultUnitWidth,
		Workers:          p.Params.Workers,
		Impulse: &ImpulseJSON{
			Policy:     string(p.Params.Impulse.Policy),
			High:       &high,
			Low:        &low,
			Categories: nonNil(p.Params.Impulse.Categories),
			Products:   nonNil(p.Params.Impulse.Products),
		},
		Display: &DisplayJSON{
			HighUnits:   p.Params.Display.HighUnits,
			LowUnits:    p.Params.Display.LowUnits,
			HighFacings: p.Params.Display.HighFacings,
			LowFacings:  p.Params.Display.LowFacings,
			MinPolicy:   string(p.Params.Display.MinPolicy),
			MinChoices:  append([]int{}, p.Params.Display.MinChoices...),
			MinWeights:  append([]float64{}, p.Params.Display.MinWeights...),
		},
	}

	traffic := p.Fees.Traffic
	baseMin, baseMax := p.Fees.BaseMin, p.Fees.BaseMax
	pj.Fees = &FeesJSON{
		BaseMin:          &baseMin,
		BaseMax:          &baseMax,
		Quality:          levelValues(p.Fees.Quality),
		Traffic:          &traffic,
		NoBrandSuppliers: nonNil(p.Fees.NoBrandSuppliers),
	}

	l := p.Environment.Layout
	customers := p.Environment.DailyCustomers
	envTraffic := p.Environment.Traffic
	pj.Environment = &EnvironmentJSON{
		Layout: &LayoutJSON{
			Aisles:       l.Aisles,
			Depths:       l.Depths,
			AisleSpacing: l.AisleSpacing,
			PairOffset:   l.PairOffset,
			DepthSpacing: l.DepthSpacing,
			Fridges:      WallRunJSON(l.Fridges),
			Freezers:     WallRunJSON(l.Freezers),
			ShelfWidth:   l.ShelfWidth,
			Levels:       l.Levels,
		},
		DailyCustomers: &customers,
		Traffic:        &envTraffic,
		LevelImpulse:   levelValues(p.Environment.LevelImpulse),
	}

	pj.Link = &LinkJSON{EssentialKeywords: nonNil(p.Link.EssentialKeywords)}
	return pj
}

// EncodeProfile returns the canonical JSON of p. Every default is written
// out, so parsing and re-encoding the result yields the same bytes.
func (f *ProfileFactory) EncodeProfile(p *synth.Profile) ([]byte, error) {
	b, err := json.MarshalIndent(f.ToJSON(p), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	return b, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseCategories(cj []CategoryJSON) ([]synth.CategoryEntry, error) {
	if cj == nil {
		return DefaultCategories(), nil
	}
	out := make([]synth.CategoryEntry, len(cj))
	for i, c := range cj {
		storage, err := synth.ParseStorageType(c.Storage)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Category, err)
		}
		out[i] = synth.CategoryEntry{Category: c.Category, UnitWidth: c.UnitWidth, Storage: storage}
	}
	return out, nil
}

func parseParams(pj *ParamsJSON) synth.ParamConfig {
	if pj == nil {
		pj = &ParamsJSON{}
	}
	cfg := synth.ParamConfig{
		MarginRate:       decimal.RequireFromString(defaultMarginRateString),
		DefaultUnitWidth: orFloat(pj.DefaultUnitWidth, defaultUnitWidth),
		Workers:          pj.Workers,
	}
	if pj.MarginRate != nil {
		cfg.MarginRate = *pj.MarginRate
	}

	ij := pj.Impulse
	if ij == nil {
		ij = &ImpulseJSON{}
	}
	cfg.Impulse = synth.ImpulseConfig{
		Policy:     synth.ImpulsePolicy(orString(ij.Policy, string(synth.ImpulseFlat))),
		High:       orFloatPtr(ij.High, defaultImpulseHigh),
		Low:        orFloatPtr(ij.Low, defaultImpulseLow),
		Categories: ij.Categories,
		Products:   ij.Products,
	}
	if cfg.Impulse.Products == nil {
		cfg.Impulse.Products = DefaultImpulseProducts()
	}

	dj := pj.Display
	if dj == nil {
		dj = &DisplayJSON{}
	}
	cfg.Display = synth.DisplayConfig{
		HighUnits:   orInt(dj.HighUnits, defaultHighUnits),
		LowUnits:    orInt(dj.LowUnits, defaultLowUnits),
		HighFacings: orInt(dj.HighFacings, defaultHighFacings),
		LowFacings:  orInt(dj.LowFacings, defaultLowFacings),
		MinPolicy:   synth.MinDisplayPolicy(orString(dj.MinPolicy, string(synth.MinReorderCeil))),
		MinChoices:  dj.MinChoices,
		MinWeights:  dj.MinWeights,
	}
	if cfg.Display.MinChoices == nil {
		cfg.Display.MinChoices = []int{1, 2, 3}
	}
	if cfg.Display.MinWeights == nil {
		cfg.Display.MinWeights = []float64{0.6, 0.3, 0.1}
	}
	return cfg
}

func parseFees(fj *FeesJSON) synth.FeeConfig {
	if fj == nil {
		fj = &FeesJSON{}
	}
	cfg := synth.FeeConfig{
		BaseMin:          orFloatPtr(fj.BaseMin, defaultBaseMin),
		BaseMax:          orFloatPtr(fj.BaseMax, defaultBaseMax),
		Quality:          DefaultLevelQuality(),
		Traffic:          decimal.RequireFromString(defaultTrafficString),
		NoBrandSuppliers: fj.NoBrandSuppliers,
	}
	if fj.Quality != nil {
		cfg.Quality = levelsFromValues(fj.Quality)
	}
	if fj.Traffic != nil {
		cfg.Traffic = *fj.Traffic
	}
	return cfg
}

func parseEnvironment(ej *EnvironmentJSON, feeCfg synth.FeeConfig) synth.EnvironmentConfig {
	if ej == nil {
		ej = &EnvironmentJSON{}
	}
	cfg := synth.EnvironmentConfig{
		Layout:         DefaultLayout(),
		DailyCustomers: defaultDailyCustomers,
		Traffic:        feeCfg.Traffic,
		LevelImpulse:   feeCfg.Quality.Clone(),
	}
	if lj := ej.Layout; lj != nil {
		cfg.Layout = synth.LayoutConfig{
			Aisles:       lj.Aisles,
			Depths:       lj.Depths,
			AisleSpacing: lj.AisleSpacing,
			PairOffset:   lj.PairOffset,
			DepthSpacing: lj.DepthSpacing,
			Fridges:      synth.WallRun(lj.Fridges),
			Freezers:     synth.WallRun(lj.Freezers),
			ShelfWidth:   lj.ShelfWidth,
			Levels:       lj.Levels,
		}
	}
	if ej.DailyCustomers != nil {
		cfg.DailyCustomers = *ej.DailyCustomers
	}
	if ej.Traffic != nil {
		cfg.Traffic = *ej.Traffic
	}
	if ej.LevelImpulse != nil {
		cfg.LevelImpulse = levelsFromValues(ej.LevelImpulse)
	}
	return cfg
}

func parseLink(lj *LinkJSON) synth.LinkConfig {
	if lj == nil || lj.EssentialKeywords == nil {
		return synth.LinkConfig{EssentialKeywords: DefaultEssentialKeywords()}
	}
	return synth.LinkConfig{EssentialKeywords: lj.EssentialKeywords}
}

func levelsFromValues(values []decimal.Decimal) synth.LevelMultipliers {
	out := make(synth.LevelMultipliers, len(values))
	for i, v := range values {
		out[i] = synth.LevelMultiplier{Level: i + 1, Value: v}
	}
	return out
}

func levelValues(m synth.LevelMultipliers) []decimal.Decimal {
	out := make([]decimal.Decimal, len(m))
	for i, lm := range m {
		out[i] = lm.Value
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orFloatPtr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
