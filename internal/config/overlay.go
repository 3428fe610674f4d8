package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Overlay is the optional YAML file named by PAYEGO_CONFIG. Amounts are
// written as strings in major units so they parse exactly.
type Overlay struct {
	Limits struct {
		Min              string            `yaml:"min"`
		Max              string            `yaml:"max"`
		WithdrawDefault  string            `yaml:"withdraw_default"`
		WithdrawCeilings map[string]string `yaml:"withdraw_ceilings"`
	} `yaml:"limits"`
	Currencies []string `yaml:"currencies"`
	API        struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"api"`
}

// ApplyOverlay reads path and overrides the matching fields of cfg.
func ApplyOverlay(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config overlay: %w", err)
	}

	var o Overlay
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return fmt.Errorf("failed to parse config overlay %s: %w", path, err)
	}

	limits := cfg.Limits
	if err := setAmount(&limits.Min, "limits.min", o.Limits.Min); err != nil {
		return err
	}
	if err := setAmount(&limits.Max, "limits.max", o.Limits.Max); err != nil {
		return err
	}
	if err := setAmount(&limits.WithdrawDefault, "limits.withdraw_default", o.Limits.WithdrawDefault); err != nil {
		return err
	}
	if len(o.Limits.WithdrawCeilings) > 0 {
		ceilings := make(map[string]decimal.Decimal, len(o.Limits.WithdrawCeilings))
		for cur, v := range o.Limits.WithdrawCeilings {
			var d decimal.Decimal
			if err := setAmount(&d, "limits.withdraw_ceilings."+cur, v); err != nil {
				return err
			}
			ceilings[strings.ToUpper(cur)] = d
		}
		limits.WithdrawCeilings = ceilings
	}
	if limits.Min.GreaterThan(limits.Max) {
		return fmt.Errorf("config overlay: limits.min %s exceeds limits.max %s", limits.Min, limits.Max)
	}

	if len(o.Currencies) > 0 {
		limits.Currencies = limits.Currencies[:0:0]
		for _, c := range o.Currencies {
			limits.Currencies = append(limits.Currencies, strings.ToUpper(strings.TrimSpace(c)))
		}
	}
	cfg.Limits = limits

	if o.API.BaseURL != "" {
		cfg.API.BaseURL = strings.TrimRight(o.API.BaseURL, "/")
	}
	return nil
}

func setAmount(dst *decimal.Decimal, field, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("config overlay: %s: %q is not a number", field, raw)
	}
	if !d.IsPositive() {
		return fmt.Errorf("config overlay: %s must be positive", field)
	}
	*dst = d
	return nil
}
