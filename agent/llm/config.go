// Package llm holds the model settings and graph helpers shared by the
// LLM-backed pipeline modules.
package llm

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Pipeline-Agent/pkg/openrouter"
)

// Config is the default OpenRouter model plus optional per-slot overrides.
// A negative slot temperature falls back to the default temperature.
type Config struct {
	openrouterx.Config

	NLUModel       string  `envconfig:"NLU_MODEL" split_words:"true"`
	NLGModel       string  `envconfig:"NLG_MODEL" split_words:"true"`
	NLUTemperature float32 `envconfig:"NLU_TEMPERATURE" split_words:"true" default:"-1"`
	NLGTemperature float32 `envconfig:"NLG_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

type slotOverride struct {
	model       string
	temperature float32
}

func (c Config) override(kind contractx.ModuleKind) (slotOverride, bool) {
	switch kind {
	case contractx.ModuleNLU:
		return slotOverride{model: c.NLUModel, temperature: c.NLUTemperature}, true
	case contractx.ModuleNLG:
		return slotOverride{model: c.NLGModel, temperature: c.NLGTemperature}, true
	default:
		return slotOverride{}, false
	}
}

// OpenRouterFor resolves the model settings for one pipeline slot.
func (c Config) OpenRouterFor(kind contractx.ModuleKind) openrouterx.Config {
	out := openrouterx.Config{
		BaseURL:     strings.TrimSpace(c.BaseURL),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       strings.TrimSpace(c.Model),
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
		SiteURL:     strings.TrimSpace(c.SiteURL),
		SiteName:    strings.TrimSpace(c.SiteName),
	}
	if c.MaxCompletionToken != nil {
		maxTokens := *c.MaxCompletionToken
		out.MaxCompletionToken = &maxTokens
	}

	if o, ok := c.override(kind); ok {
		if m := strings.TrimSpace(o.model); m != "" {
			out.Model = m
		}
		if o.temperature >= 0 {
			out.Temperature = o.temperature
		}
	}
	return out
}
