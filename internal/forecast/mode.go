package forecast

import "TickerCast/internal/model"

// SelectMode picks multiplicative seasonality for volatile assets and additive
// otherwise. A non-empty override wins. Unclassified assets are additive.
func SelectMode(asset model.Asset, override model.SeasonalityMode) model.SeasonalityMode {
	if override != "" {
		return override
	}
	if asset.IsVolatile() {
		return model.ModeMultiplicative
	}
	return model.ModeAdditive
}

// ConfigFor derives the model configuration for one run. Holiday effects are
// only attached to assets that trade on an exchange calendar.
func ConfigFor(asset model.Asset, opts model.ForecastOptions) Config {
	cfg := Config{
		Mode:               SelectMode(asset, opts.SeasonalityOverride),
		UncertaintySamples: opts.UncertaintySamples,
		IntervalWidth:      opts.IntervalWidth,
		Seed:               opts.Seed,
	}
	if !asset.IsVolatile() {
		cfg.HolidayCountry = opts.HolidayCountry
	}
	return cfg
}
