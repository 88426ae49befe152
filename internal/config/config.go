// Package config reads the companion's environment configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/todak-labs/todak/pkg/companion/session"
)

// DialogueProvider selects the dialogue collaborator backend.
type DialogueProvider string

const (
	DialogueOpenAI DialogueProvider = "openai"
	DialogueGemini DialogueProvider = "gemini"
)

// Config is the process configuration. The remote bridge is optional:
// without a bot token the companion runs in local-only mode.
type Config struct {
	OpenAIAPIKey string
	GeminiAPIKey string

	Dialogue      DialogueProvider
	DialogueModel string

	TelegramBotToken string
	ParentChatID     int64

	DailyCapMinutes int

	// TimedRecording selects the fixed-window recording strategy for
	// environments without a toggle signal source.
	TimedRecording bool
	RecordWindow   time.Duration

	ArchivePath string
}

// FromEnv builds a Config from the environment, applying defaults and
// validating cross-field requirements.
func FromEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Config{
		OpenAIAPIKey:     strings.TrimSpace(getenv("OPENAI_API_KEY")),
		GeminiAPIKey:     strings.TrimSpace(getenv("GEMINI_API_KEY")),
		TelegramBotToken: strings.TrimSpace(getenv("TELEGRAM_BOT_TOKEN")),
		DialogueModel:    strings.TrimSpace(getenv("TODAK_DIALOGUE_MODEL")),
		ArchivePath:      strings.TrimSpace(getenv("TODAK_ARCHIVE_PATH")),
		DailyCapMinutes:  session.DefaultDailyCapMinutes,
		RecordWindow:     5 * time.Second,
		Dialogue:         DialogueOpenAI,
	}

	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY is required (transcription and synthesis)")
	}

	switch provider := strings.ToLower(strings.TrimSpace(getenv("TODAK_DIALOGUE_PROVIDER"))); provider {
	case "", string(DialogueOpenAI):
	case string(DialogueGemini):
		if cfg.GeminiAPIKey == "" {
			return Config{}, fmt.Errorf("GEMINI_API_KEY is required when TODAK_DIALOGUE_PROVIDER=gemini")
		}
		cfg.Dialogue = DialogueGemini
	default:
		return Config{}, fmt.Errorf("TODAK_DIALOGUE_PROVIDER must be openai or gemini, got %q", provider)
	}

	if raw := strings.TrimSpace(getenv("TODAK_DAILY_LIMIT_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("TODAK_DAILY_LIMIT_MINUTES must be an integer, got %q", raw)
		}
		if minutes < session.MinDailyCapMinutes || minutes > session.MaxDailyCapMinutes {
			return Config{}, fmt.Errorf("TODAK_DAILY_LIMIT_MINUTES must be between %d and %d",
				session.MinDailyCapMinutes, session.MaxDailyCapMinutes)
		}
		cfg.DailyCapMinutes = minutes
	}

	switch mode := strings.ToLower(strings.TrimSpace(getenv("TODAK_RECORD_MODE"))); mode {
	case "", "toggle":
	case "timed":
		cfg.TimedRecording = true
	default:
		return Config{}, fmt.Errorf("TODAK_RECORD_MODE must be toggle or timed, got %q", mode)
	}

	if raw := strings.TrimSpace(getenv("PARENT_CHAT_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("PARENT_CHAT_ID must be a chat ID, got %q", raw)
		}
		cfg.ParentChatID = id
	}

	if cfg.TelegramBotToken != "" && cfg.ParentChatID == 0 {
		return Config{}, fmt.Errorf("PARENT_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	return cfg, nil
}

// BridgeEnabled reports whether the remote parent bridge is configured.
func (c Config) BridgeEnabled() bool {
	return c.TelegramBotToken != "" && c.ParentChatID != 0
}
