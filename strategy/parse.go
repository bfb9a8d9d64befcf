package strategy

import (
	"encoding/json"
	"fmt"
)

// configEnvelope is the wire form of a strategy config: the family tag
// selects the concrete type the payload decodes into
type configEnvelope struct {
	Family Family          `json:"family"`
	Config json.RawMessage `json:"config"`
}

// ParseConfig decodes a JSON strategy definition of the form
// {"family": "...", "config": {...}} into its concrete config type. The
// returned config is validated.
func ParseConfig(data []byte) (Config, error) {
	var env configEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: parsing strategy definition: %v", ErrConfig, err)
	}

	var cfg Config
	switch env.Family {
	case FamilyEMAScalping:
		var c EMAScalpingConfig
		if err := json.Unmarshal(env.Config, &c); err != nil {
			return nil, fmt.Errorf("%w: parsing %s config: %v", ErrConfig, env.Family, err)
		}
		cfg = c
	case FamilyCompositeSentiment:
		var c CompositeSentimentConfig
		if err := json.Unmarshal(env.Config, &c); err != nil {
			return nil, fmt.Errorf("%w: parsing %s config: %v", ErrConfig, env.Family, err)
		}
		cfg = c
	case FamilyRangeReentry:
		var c RangeReentryConfig
		if err := json.Unmarshal(env.Config, &c); err != nil {
			return nil, fmt.Errorf("%w: parsing %s config: %v", ErrConfig, env.Family, err)
		}
		cfg = c
	case FamilyConditionTree:
		var c ConditionTreeConfig
		if err := json.Unmarshal(env.Config, &c); err != nil {
			return nil, fmt.Errorf("%w: parsing %s config: %v", ErrConfig, env.Family, err)
		}
		cfg = c
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, env.Family)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
