package collector

import (
	"strings"

	"TickerCast/internal/model"
)

// Classify decides the asset class from provider metadata.
//
// An explicit override always wins. Otherwise an instrument type, when the
// provider reports one, is authoritative. Without it the legacy signal is
// used: a short-form name marks a crypto-like asset and a record that only
// carries a long-form name marks a traditional one. A record with neither is
// Unknown rather than silently Traditional.
func Classify(meta *model.AssetMeta, override model.AssetClass) model.AssetClass {
	if override != "" {
		return override
	}
	if meta == nil {
		return model.ClassUnknown
	}
	switch it := strings.ToUpper(strings.TrimSpace(meta.InstrumentType)); {
	case it == "CRYPTOCURRENCY":
		return model.ClassVolatile
	case it != "":
		return model.ClassTraditional
	}
	switch {
	case meta.ShortName != "":
		return model.ClassVolatile
	case meta.LongName != "":
		return model.ClassTraditional
	default:
		return model.ClassUnknown
	}
}

// DisplayName picks the most readable name the metadata offers.
func DisplayName(meta *model.AssetMeta, ticker string) string {
	if meta == nil {
		return ticker
	}
	if meta.ShortName != "" {
		return meta.ShortName
	}
	if meta.LongName != "" {
		return meta.LongName
	}
	return ticker
}

// ResolveAsset combines classification and naming into an Asset.
func ResolveAsset(ticker string, meta *model.AssetMeta, override model.AssetClass) model.Asset {
	a := model.Asset{
		Ticker: ticker,
		Name:   DisplayName(meta, ticker),
		Class:  Classify(meta, override),
	}
	if meta != nil {
		a.Currency = meta.Currency
		a.Exchange = meta.Exchange
	}
	return a
}
