package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/cpap-support-agent/server/internal/agent/model"
	"github.com/cpap-support-agent/server/internal/core"
	"github.com/cpap-support-agent/server/internal/devices"
	"github.com/cpap-support-agent/server/internal/server"
	pkgredis "github.com/cpap-support-agent/server/pkg/redis"
)

// AppConfig defines every configurable parameter of the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis  pkgredis.Config
	Server server.Config

	// Agent
	LLM          model.LLMConfig
	Conversation model.ConversationConfig
	Compliance   devices.Thresholds

	Evaluation EvaluationConfig
}

type EvaluationConfig struct {
	ScenariosPath string `envconfig:"EVAL_SCENARIOS_PATH" default:"evaluation/eval_scenarios.json"`
}

// ConversationTTL parses CONVERSATION_TTL.
func (c AppConfig) ConversationTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.Conversation.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid CONVERSATION_TTL '%s': %w", c.Conversation.TTL, err)
	}
	return ttl, nil
}

// Load reads envFile when it exists and then processes the environment.
// A missing file is not an error.
func Load(envFile string) (AppConfig, error) {
	var cfg AppConfig
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process environment config: %w", err)
	}
	if _, err := cfg.ConversationTTL(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
