package config

import (
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv        = "REPUTATION_SCANNER_CONFIG"
	logLevelEnv          = "LOG_LEVEL"
	databaseDSNEnv       = "DATABASE_DSN"
	storageDriverEnv     = "STORAGE_DRIVER"
	yandexAPIKeyEnv      = "YANDEX_API_KEY"
	yandexFolderIDEnv    = "YANDEX_FOLDER_ID"
	googleAPIKeyEnv      = "GOOGLE_API_KEY"
	googleCXEnv          = "GOOGLE_CX"
	classifierBackendEnv = "CLASSIFIER_BACKEND"
	openAIAPIKeyEnv      = "OPENAI_API_KEY"
	geminiAPIKeyEnv      = "GEMINI_API_KEY"
	telegramTokenEnv     = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv    = "TELEGRAM_CHAT_ID"
)

// Classifier backends.
const (
	BackendLocal     = "local"
	BackendOpenAI    = "openai"
	BackendGemini    = "gemini"
	BackendInference = "inference"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Server        ServerConfig       `yaml:"server"`
	Storage       StorageConfig      `yaml:"storage"`
	Engines       EnginesConfig      `yaml:"engines"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	Scoring       ScoringConfig      `yaml:"scoring"`
	Jobs          JobsConfig         `yaml:"jobs"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects slog level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig selects the graph store. Driver is sqlite, postgres or file.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// EnginesConfig groups search engine credentials and retrieval pacing.
type EnginesConfig struct {
	Yandex    YandexConfig       `yaml:"yandex"`
	Google    GoogleConfig       `yaml:"google"`
	HTML      []HTMLEngineConfig `yaml:"html"`
	Retrieval RetrievalConfig    `yaml:"retrieval"`
}

// YandexConfig holds Yandex Search API credentials.
type YandexConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	FolderID string `yaml:"folderId"`
	PageSize int    `yaml:"pageSize"`
}

// GoogleConfig holds Google Custom Search credentials.
type GoogleConfig struct {
	APIKey   string `yaml:"apiKey"`
	CX       string `yaml:"cx"`
	Endpoint string `yaml:"endpoint"`
}

// HTMLEngineConfig describes a selector-driven HTML results page.
type HTMLEngineConfig struct {
	Name        string `yaml:"name"`
	URLTemplate string `yaml:"urlTemplate"`
	ResultItem  string `yaml:"resultItem"`
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Snippet     string `yaml:"snippet"`
	PageSize    int    `yaml:"pageSize"`
}

// RetrievalConfig paces paginated retrieval.
type RetrievalConfig struct {
	PageDelay time.Duration `yaml:"pageDelay"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxPages  int           `yaml:"maxPages"`
}

// ClassifierConfig selects the optional model-backed classifier.
type ClassifierConfig struct {
	Backend      string        `yaml:"backend"`
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
	Delay        time.Duration `yaml:"delay"`
	LexiconPath  string        `yaml:"lexiconPath"`
}

// ScoringConfig points at tuning data for the aggregator and classifier.
type ScoringConfig struct {
	WeightsPath string `yaml:"weightsPath"`
	// Threshold overrides the lexicon threshold when set; zero is a valid value.
	Threshold *float64 `yaml:"threshold"`
}

// JobsConfig controls job retention and persistence bounds.
type JobsConfig struct {
	Retention      time.Duration `yaml:"retention"`
	PersistTimeout time.Duration `yaml:"persistTimeout"`
}

// SchedulerConfig enables periodic refresh of every entity when Interval > 0.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if parsed, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = parsed
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg
}

// Parse decodes YAML on top of the defaults.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	setIfPresent(&c.Logging.Level, logLevelEnv)
	setIfPresent(&c.Storage.DSN, databaseDSNEnv)
	setIfPresent(&c.Storage.Driver, storageDriverEnv)
	setIfPresent(&c.Engines.Yandex.APIKey, yandexAPIKeyEnv)
	setIfPresent(&c.Engines.Yandex.FolderID, yandexFolderIDEnv)
	setIfPresent(&c.Engines.Google.APIKey, googleAPIKeyEnv)
	setIfPresent(&c.Engines.Google.CX, googleCXEnv)
	setIfPresent(&c.Classifier.Backend, classifierBackendEnv)
	setIfPresent(&c.Notifications.Telegram.BotToken, telegramTokenEnv)
	setIfPresent(&c.Notifications.Telegram.ChatID, telegramChatIDEnv)

	if c.Classifier.APIKey == "" {
		switch c.Classifier.Backend {
		case BackendOpenAI:
			setIfPresent(&c.Classifier.APIKey, openAIAPIKeyEnv)
		case BackendGemini:
			setIfPresent(&c.Classifier.APIKey, geminiAPIKeyEnv)
		}
	}
}

func setIfPresent(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func (c *Config) normalize() {
	def := Default()
	c.Classifier.Backend = strings.ToLower(strings.TrimSpace(c.Classifier.Backend))
	if c.Classifier.Backend == "" {
		c.Classifier.Backend = BackendLocal
	}
	if c.Classifier.Backend == BackendOpenAI {
		if c.Classifier.Endpoint == "" {
			c.Classifier.Endpoint = "https://api.openai.com/v1/chat/completions"
		}
		if c.Classifier.Model == "" {
			c.Classifier.Model = "gpt-4o-mini"
		}
	}
	if c.Storage.Driver == "" {
		c.Storage = def.Storage
	}
	if c.Engines.Yandex.PageSize <= 0 {
		c.Engines.Yandex.PageSize = def.Engines.Yandex.PageSize
	}
	if c.Engines.Retrieval.Timeout <= 0 {
		c.Engines.Retrieval.Timeout = def.Engines.Retrieval.Timeout
	}
	if c.Engines.Retrieval.MaxPages <= 0 {
		c.Engines.Retrieval.MaxPages = def.Engines.Retrieval.MaxPages
	}
	if c.Jobs.Retention <= 0 {
		c.Jobs.Retention = def.Jobs.Retention
	}
	if c.Jobs.PersistTimeout <= 0 {
		c.Jobs.PersistTimeout = def.Jobs.PersistTimeout
	}
}

// Default returns a runnable configuration without any credentials.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Server:  ServerConfig{Addr: ":8080"},
		Storage: StorageConfig{Driver: "sqlite", DSN: "reputation.db"},
		Engines: EnginesConfig{
			Yandex: YandexConfig{
				Endpoint: "https://yandex.ru/search/xml",
				PageSize: 10,
			},
			Google: GoogleConfig{},
			HTML: []HTMLEngineConfig{
				{
					Name:        "duckduckgo",
					URLTemplate: "https://html.duckduckgo.com/html/?q={query}&s={offset}&kl={region}",
					ResultItem:  ".result",
					Title:       ".result__a",
					Link:        ".result__a",
					Snippet:     ".result__snippet",
					PageSize:    10,
				},
			},
			Retrieval: RetrievalConfig{
				PageDelay: time.Second,
				Timeout:   15 * time.Second,
				MaxPages:  10,
			},
		},
		Classifier: ClassifierConfig{
			Backend: BackendLocal,
			Timeout: 20 * time.Second,
			Delay:   500 * time.Millisecond,
		},
		Jobs: JobsConfig{
			Retention:      5 * time.Minute,
			PersistTimeout: 10 * time.Second,
		},
	}
}

// Holder keeps the current configuration so factories can read it per call.
type Holder struct {
	current atomic.Pointer[Config]
}

// NewHolder stores the initial configuration.
func NewHolder(cfg Config) *Holder {
	h := &Holder{}
	h.Set(cfg)
	return h
}

// Get returns a copy of the current configuration.
func (h *Holder) Get() Config {
	return *h.current.Load()
}

// Set replaces the configuration for subsequent reads.
func (h *Holder) Set(cfg Config) {
	h.current.Store(&cfg)
}
