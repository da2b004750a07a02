package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/krzycho/dbagent/agent/contract"
	openrouterx "github.com/krzycho/dbagent/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	ReviserModel         string  `envconfig:"REVISER_MODEL" split_words:"true"`
	DeciderModel         string  `envconfig:"DECIDER_MODEL" split_words:"true"`
	DescriberModel       string  `envconfig:"DESCRIBER_MODEL" split_words:"true"`
	ReviserTemperature   float32 `envconfig:"REVISER_TEMPERATURE" split_words:"true" default:"-1"`
	DeciderTemperature   float32 `envconfig:"DECIDER_TEMPERATURE" split_words:"true" default:"-1"`
	DescriberTemperature float32 `envconfig:"DESCRIBER_TEMPERATURE" split_words:"true" default:"-1"`
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

// OpenRouterFor resolves the model settings for one reasoning role,
// falling back to the shared defaults.
func (c Config) OpenRouterFor(role contractx.Role) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch role {
	case contractx.RoleReviser:
		if v := strings.TrimSpace(c.ReviserModel); v != "" {
			modelName = v
		}
		if c.ReviserTemperature >= 0 {
			temp = c.ReviserTemperature
		}
	case contractx.RoleDecider:
		if v := strings.TrimSpace(c.DeciderModel); v != "" {
			modelName = v
		}
		if c.DeciderTemperature >= 0 {
			temp = c.DeciderTemperature
		}
	case contractx.RoleDescriber:
		if v := strings.TrimSpace(c.DescriberModel); v != "" {
			modelName = v
		}
		if c.DescriberTemperature >= 0 {
			temp = c.DescriberTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
