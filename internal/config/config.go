// Package config loads CrossExamine configuration from an optional YAML file
// and environment variables. Environment always wins over the file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider identifies the chat model backend.
type Provider string

const (
	ProviderOpenAI  Provider = "openai"
	ProviderOllama  Provider = "ollama"
	ProviderBedrock Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// Chat model
	LLMProvider  Provider
	LLMModel     string
	SummaryModel string
	OpenAIAPIKey string
	OllamaHost   string

	// Speech services (OpenAI audio endpoints)
	SpeechBaseURL string
	WhisperModel  string
	TTSModel      string

	// Data layout
	DataDir string // collection .txt/.pdf files
	WorkDir string // per-request scratch audio files

	// Retrieval and history
	TopK              int
	HistoryTokenLimit int
	KeepExchanges     int

	// Server
	ServerPort string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Optional SurrealDB session archive. Disabled when URL is empty.
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
}

// fileConfig mirrors the YAML config file layout.
type fileConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	SummaryModel string `yaml:"summary_model"`
	OllamaHost   string `yaml:"ollama_host"`

	SpeechBaseURL string `yaml:"speech_base_url"`
	WhisperModel  string `yaml:"whisper_model"`
	TTSModel      string `yaml:"tts_model"`

	DataDir string `yaml:"data_dir"`
	WorkDir string `yaml:"work_dir"`

	TopK              int `yaml:"top_k"`
	HistoryTokenLimit int `yaml:"history_token_limit"`
	KeepExchanges     int `yaml:"keep_exchanges"`

	ServerPort string `yaml:"server_port"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	SurrealDB struct {
		URL       string `yaml:"url"`
		Namespace string `yaml:"namespace"`
		Database  string `yaml:"database"`
		User      string `yaml:"user"`
		Pass      string `yaml:"pass"`
	} `yaml:"surrealdb"`
}

// Load reads configuration from the default config file (if present) and
// environment variables.
func Load() Config {
	cfg, _ := LoadFrom(configFilePath())
	return cfg
}

// LoadFrom reads configuration, layering environment variables over the YAML
// file at path. A missing file is not an error; a malformed one is.
func LoadFrom(path string) (Config, error) {
	var fc fileConfig
	var fileErr error
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &fc); err != nil {
				fileErr = fmt.Errorf("parse config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			fileErr = fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		LLMProvider:  Provider(getEnv("CROSSEXAMINE_PROVIDER", orDefault(fc.Provider, string(ProviderOpenAI)))),
		LLMModel:     getEnv("CROSSEXAMINE_MODEL", orDefault(fc.Model, "gpt-4o")),
		SummaryModel: getEnv("CROSSEXAMINE_SUMMARY_MODEL", orDefault(fc.SummaryModel, "gpt-3.5-turbo")),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OllamaHost:   getEnv("OLLAMA_HOST", orDefault(fc.OllamaHost, "http://localhost:11434")),

		SpeechBaseURL: getEnv("CROSSEXAMINE_SPEECH_BASE_URL", orDefault(fc.SpeechBaseURL, "https://api.openai.com/v1")),
		WhisperModel:  getEnv("CROSSEXAMINE_WHISPER_MODEL", orDefault(fc.WhisperModel, "whisper-1")),
		TTSModel:      getEnv("CROSSEXAMINE_TTS_MODEL", orDefault(fc.TTSModel, "tts-1")),

		DataDir: getEnv("CROSSEXAMINE_DATA_DIR", orDefault(fc.DataDir, "data")),
		WorkDir: getEnv("CROSSEXAMINE_WORK_DIR", orDefault(fc.WorkDir, os.TempDir())),

		TopK:              getEnvInt("CROSSEXAMINE_TOP_K", orDefaultInt(fc.TopK, 4)),
		HistoryTokenLimit: getEnvInt("CROSSEXAMINE_HISTORY_TOKEN_LIMIT", orDefaultInt(fc.HistoryTokenLimit, 2000)),
		KeepExchanges:     getEnvInt("CROSSEXAMINE_KEEP_EXCHANGES", orDefaultInt(fc.KeepExchanges, 4)),

		ServerPort: getEnv("CROSSEXAMINE_SERVER_PORT", orDefault(fc.ServerPort, "8485")),

		LogFile:  getEnv("CROSSEXAMINE_LOG_FILE", orDefault(fc.LogFile, filepath.Join(os.TempDir(), "crossexamine.log"))),
		LogLevel: parseLogLevel(getEnv("CROSSEXAMINE_LOG_LEVEL", orDefault(fc.LogLevel, "INFO"))),

		SurrealDBURL:       getEnv("CROSSEXAMINE_SURREALDB_URL", fc.SurrealDB.URL),
		SurrealDBNamespace: getEnv("CROSSEXAMINE_SURREALDB_NAMESPACE", orDefault(fc.SurrealDB.Namespace, "crossexamine")),
		SurrealDBDatabase:  getEnv("CROSSEXAMINE_SURREALDB_DATABASE", orDefault(fc.SurrealDB.Database, "practice")),
		SurrealDBUser:      getEnv("CROSSEXAMINE_SURREALDB_USER", orDefault(fc.SurrealDB.User, "root")),
		SurrealDBPass:      getEnv("CROSSEXAMINE_SURREALDB_PASS", orDefault(fc.SurrealDB.Pass, "root")),
	}

	return cfg, fileErr
}

// ArchiveEnabled reports whether the SurrealDB session archive is configured.
func (c Config) ArchiveEnabled() bool {
	return c.SurrealDBURL != ""
}

// configFilePath returns the config file location: CROSSEXAMINE_CONFIG or
// ~/.crossexamine.yaml.
func configFilePath() string {
	if p := os.Getenv("CROSSEXAMINE_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".crossexamine.yaml")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func orDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

func orDefaultInt(val, defaultVal int) int {
	if val != 0 {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
