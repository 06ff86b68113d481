package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// MaxChosenChars is the largest allowed character selection. Betting the full
// 16-symbol alphabet would be a guaranteed win and is rejected.
const MaxChosenChars = 15

// defaultLeverage is the payout multiplier per number of chosen characters.
// Fewer characters means a lower win probability and a higher multiplier.
var defaultLeverage = map[int]float64{
	1: 15.2, 2: 7.6, 3: 5.06, 4: 3.8, 5: 3.04,
	6: 2.53, 7: 2.17, 8: 1.9, 9: 1.68, 10: 1.52,
	11: 1.38, 12: 1.26, 13: 1.16, 14: 1.08, 15: 1.01,
}

// Settings exposes the live-reloadable betting parameters. Every accessor
// reads from viper at the point of use, so edits to the settings file take
// effect without a restart.
type Settings struct {
	v *viper.Viper
}

// LoadSettings reads the betting settings from the given file. An empty path
// runs on defaults only, which is the common case in tests.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TRXBETBOT")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
		v.WatchConfig()
	}

	return &Settings{v: v}, nil
}

// setDefaults configures default values for all settings
func setDefaults(v *viper.Viper) {
	v.SetDefault("poll_interval", "30s")
	v.SetDefault("poll_initial_delay", "30s")
	v.SetDefault("poll_timeout", "30m")
	v.SetDefault("recurring_interval", "1h")

	v.SetDefault("min_stake", 10.0)
	v.SetDefault("max_stake", 1000.0)
	v.SetDefault("house_fee", 0.1)
	v.SetDefault("fee_limit", 2.0)

	for k, lev := range defaultLeverage {
		v.SetDefault(fmt.Sprintf("leverage_table.%d", k), lev)
	}
}

// PollInterval is the delay between balance probes for a pending bet.
func (s *Settings) PollInterval() time.Duration {
	return s.v.GetDuration("poll_interval")
}

// PollInitialDelay is how long to wait before the first balance probe.
func (s *Settings) PollInitialDelay() time.Duration {
	return s.v.GetDuration("poll_initial_delay")
}

// PollTimeout is the total time window for a deposit to arrive.
func (s *Settings) PollTimeout() time.Duration {
	return s.v.GetDuration("poll_timeout")
}

// RecurringInterval is the cadence of automatic bet re-placement.
func (s *Settings) RecurringInterval() time.Duration {
	return s.v.GetDuration("recurring_interval")
}

// MinStakeTRX is the smallest stake the house will gamble.
func (s *Settings) MinStakeTRX() decimal.Decimal {
	return decimal.NewFromFloat(s.v.GetFloat64("min_stake"))
}

// MaxStakeTRX is the largest stake the house will gamble.
func (s *Settings) MaxStakeTRX() decimal.Decimal {
	return decimal.NewFromFloat(s.v.GetFloat64("max_stake"))
}

// HouseFeeTRX is the expected network fee per transfer, surfaced to users.
func (s *Settings) HouseFeeTRX() decimal.Decimal {
	return decimal.NewFromFloat(s.v.GetFloat64("house_fee"))
}

// FeeLimitTRX is the cap on fees the house accepts for a single transfer.
func (s *Settings) FeeLimitTRX() decimal.Decimal {
	return decimal.NewFromFloat(s.v.GetFloat64("fee_limit"))
}

// Leverage returns the payout multiplier for a bet on k characters.
// The second return value is false when k is outside [1, MaxChosenChars].
func (s *Settings) Leverage(k int) (decimal.Decimal, bool) {
	if k < 1 || k > MaxChosenChars {
		return decimal.Zero, false
	}
	lev := s.v.GetFloat64(fmt.Sprintf("leverage_table.%d", k))
	if lev <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(lev), true
}

// Set overrides a single settings value. Intended for tests.
func (s *Settings) Set(key string, value interface{}) {
	s.v.Set(key, value)
}
