package models

import (
	"errors"
	"fmt"
)

// ErrInvalidLLMConfig is returned when sampling parameters fall outside
// the ranges offered by the UI.
var ErrInvalidLLMConfig = errors.New("invalid llm config")

const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinTopP        = 0.0
	MaxTopP        = 1.0
	MinMaxTokens   = 100
	MaxMaxTokens   = 5000

	DefaultTemperature = 1.0
	DefaultTopP        = 0.94
	DefaultMaxTokens   = 2000
)

// LLMConfig is the flat set of sampling parameters chosen per session.
type LLMConfig struct {
	Model       string  `yaml:"model" json:"model"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	TopP        float64 `yaml:"top_p" json:"top_p"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
}

// DefaultLLMConfig returns the slider defaults for the given model.
func DefaultLLMConfig(model string) LLMConfig {
	return LLMConfig{
		Model:       model,
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   DefaultMaxTokens,
	}
}

func (c LLMConfig) Validate() error {
	if c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature %.2f not in [%.0f, %.0f]", ErrInvalidLLMConfig, c.Temperature, MinTemperature, MaxTemperature)
	}
	if c.TopP < MinTopP || c.TopP > MaxTopP {
		return fmt.Errorf("%w: top_p %.2f not in [%.0f, %.0f]", ErrInvalidLLMConfig, c.TopP, MinTopP, MaxTopP)
	}
	if c.MaxTokens < MinMaxTokens || c.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w: max_tokens %d not in [%d, %d]", ErrInvalidLLMConfig, c.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}
	return nil
}
