// Package config loads service configuration from YAML with environment
// variable expansion, so secrets stay in the environment.
package config

import (
	"os"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"
)

type Config struct {
	rest.RestConf

	Agent struct {
		// ClarificationLimit bounds consecutive clarifying questions per
		// conversation before the service gives up on the thread.
		ClarificationLimit int `json:",default=2"`
		// ProviderTimeoutSeconds bounds each language-model provider call.
		ProviderTimeoutSeconds int `json:",default=15"`
	}

	Providers struct {
		OpenAI struct {
			APIKey string `json:",optional"`
			Model  string `json:",default=gpt-4o-mini"`
		}
		Anthropic struct {
			APIKey string `json:",optional"`
			Model  string `json:",default=claude-sonnet-4-20250514"`
		}
		Ollama struct {
			Enabled bool   `json:",default=false"`
			BaseURL string `json:",default=http://localhost:11434"`
			Model   string `json:",default=llama3.2"`
		}
	}
}

// LoadFromBytes loads configuration from YAML bytes, expanding ${VAR}
// references against the environment first.
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := conf.LoadFromYamlBytes([]byte(expanded), &c); err != nil {
		return c, err
	}
	return c, nil
}

// LoadFile loads configuration from a YAML file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return LoadFromBytes(data)
}
