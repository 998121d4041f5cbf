package model

// AssetClass is the outcome of classifying an asset from its metadata.
type AssetClass string

const (
	// ClassVolatile marks continuously traded assets (crypto) which trade on
	// every calendar day.
	ClassVolatile AssetClass = "VOLATILE"
	// ClassTraditional marks exchange-session assets (equities, ETFs, funds).
	ClassTraditional AssetClass = "TRADITIONAL"
	// ClassUnknown means the metadata did not carry enough to decide.
	ClassUnknown AssetClass = "UNKNOWN"
)

// ParseAssetClass maps user input to an AssetClass. The empty string yields
// ClassUnknown and ok=false.
func ParseAssetClass(s string) (AssetClass, bool) {
	switch s {
	case "volatile", "VOLATILE", "crypto", "CRYPTO":
		return ClassVolatile, true
	case "traditional", "TRADITIONAL", "equity", "EQUITY":
		return ClassTraditional, true
	case "unknown", "UNKNOWN":
		return ClassUnknown, true
	}
	return ClassUnknown, false
}

// AssetMeta is the raw metadata returned by the market-data provider.
// Empty strings mean the provider omitted the field.
type AssetMeta struct {
	Symbol         string `json:"symbol"`
	ShortName      string `json:"short_name,omitempty"`
	LongName       string `json:"long_name,omitempty"`
	InstrumentType string `json:"instrument_type,omitempty"`
	Currency       string `json:"currency,omitempty"`
	Exchange       string `json:"exchange,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
}

// Asset is a ticker with its resolved display name and classification.
type Asset struct {
	Ticker   string     `json:"ticker"`
	Name     string     `json:"name"`
	Class    AssetClass `json:"class"`
	Currency string     `json:"currency,omitempty"`
	Exchange string     `json:"exchange,omitempty"`
}

// IsVolatile reports whether the asset was classified as crypto-like.
func (a Asset) IsVolatile() bool { return a.Class == ClassVolatile }
