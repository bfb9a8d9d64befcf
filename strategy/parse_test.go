package strategy

import (
	"errors"
	"testing"
)

func TestParseConfig_EMAScalping(t *testing.T) {
	data := []byte(`{
		"family": "ema_scalping",
		"config": {
			"fast_period": 5,
			"slow_period": 20,
			"atr_period": 14,
			"stop_loss_atr_mult": 2,
			"take_profit_atr_mult": 3,
			"allow_shorts": true
		}
	}`)

	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig returned error: %v", err)
	}
	scalp, ok := cfg.(EMAScalpingConfig)
	if !ok {
		t.Fatalf("Expected EMAScalpingConfig, got %T", cfg)
	}
	if scalp.FastPeriod != 5 || scalp.SlowPeriod != 20 {
		t.Errorf("Unexpected periods: fast=%d slow=%d", scalp.FastPeriod, scalp.SlowPeriod)
	}
	if cfg.Family() != FamilyEMAScalping {
		t.Errorf("Expected family %s, got %s", FamilyEMAScalping, cfg.Family())
	}
}

func TestParseConfig_UnknownFamily(t *testing.T) {
	_, err := ParseConfig([]byte(`{"family": "martingale", "config": {}}`))
	if !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("Expected ErrUnknownFamily, got %v", err)
	}
}

func TestParseConfig_InvalidConfigRejected(t *testing.T) {
	data := []byte(`{
		"family": "ema_scalping",
		"config": {"fast_period": 20, "slow_period": 5, "atr_period": 14,
			"stop_loss_atr_mult": 2, "take_profit_atr_mult": 3}
	}`)
	_, err := ParseConfig(data)
	if !errors.Is(err, ErrConfig) {
		t.Errorf("Expected ErrConfig for fast >= slow, got %v", err)
	}
}

func TestParseConfig_BadJSON(t *testing.T) {
	if _, err := ParseConfig([]byte(`{`)); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}
