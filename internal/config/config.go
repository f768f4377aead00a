// Package config resolves rfn settings from the config file, RFN_ environment
// variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/refine-cli/internal/application"
	"github.com/bnema/refine-cli/internal/history"
	"github.com/bnema/refine-cli/internal/scoring"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = "rfn"
	envPrefix  = "RFN"
)

const (
	BackendTOML     = "toml"
	BackendInMemory = "inmem"
	BackendMongo    = "mongo"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	NotifyLog   = "log"
	NotifyRedis = "redis"
)

type Config struct {
	Refine         RefineConfig
	Convergence    scoring.Thresholds
	History        history.Options
	Jobs           application.JobTrackerConfig
	Records        RecordsConfig
	Notify         NotifyConfig
	Generation     GenerationConfig
	Evaluation     EvaluationConfig
	Reconstruction ReconstructionConfig
	HTTPAddr       string
	// SecretsDir holds file secrets for "secret:" references that pass
	// cannot resolve.
	SecretsDir     string
}

type RefineConfig struct {
	Controller    application.ControllerConfig
	AwaitFeedback bool
}

type RecordsConfig struct {
	Backend       string
	TOMLPath      string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	PostgresDSN   string
}

type NotifyConfig struct {
	Backend      string
	RedisChannel string
}

type GenerationConfig struct {
	OpenAIAPIKey      string
	Model             string
	Size              string
	RequestsPerMinute int
	// OutputDir receives images the API returns inline (base64).
	OutputDir         string
}

type EvaluationConfig struct {
	AnthropicAPIKey string
	Model           string
	MaxTokens       int64
}

type ReconstructionConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

// Load reads path when set, otherwise $HOME/.config/rfn/config.toml if it
// exists. A missing default file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	setDefaults(v, homeDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(filepath.Join(homeDir, ".config", configDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Refine: RefineConfig{
			Controller: application.ControllerConfig{
				QuickIterations:      v.GetInt("refine.quick_iterations"),
				DeepIterations:       v.GetInt("refine.deep_iterations"),
				EvaluationAttempts:   v.GetInt("evaluation.max_attempts"),
				EvaluationRetryDelay: v.GetDuration("evaluation.retry_delay"),
				FeedbackPollInterval: v.GetDuration("refine.feedback_poll_interval"),
			},
			AwaitFeedback: v.GetBool("refine.await_feedback"),
		},
		Convergence: scoring.Thresholds{
			Overall:         v.GetFloat64("convergence.overall"),
			Critical:        v.GetFloat64("convergence.critical"),
			Floor:           v.GetFloat64("convergence.floor"),
			CriticalMetrics: v.GetStringSlice("convergence.critical_metrics"),
		}.WithDefaults(),
		History: history.Options{
			TopN:               v.GetInt("history.top_n"),
			FocusN:             v.GetInt("history.focus_n"),
			RecurringThreshold: v.GetInt("history.recurring_threshold"),
		},
		Jobs: application.JobTrackerConfig{
			PollInterval: v.GetDuration("jobs.poll_interval"),
			MaxAttempts:  v.GetInt("jobs.max_attempts"),
		},
		Records: RecordsConfig{
			Backend:       strings.ToLower(v.GetString("records.backend")),
			TOMLPath:      v.GetString("records.toml_path"),
			MongoURI:      v.GetString("records.mongo_uri"),
			MongoDatabase: v.GetString("records.mongo_database"),
			RedisAddr:     v.GetString("records.redis_addr"),
			PostgresDSN:   v.GetString("records.postgres_dsn"),
		},
		Notify: NotifyConfig{
			Backend:      strings.ToLower(v.GetString("notify.backend")),
			RedisChannel: v.GetString("notify.redis_channel"),
		},
		Generation: GenerationConfig{
			OpenAIAPIKey:      v.GetString("generation.openai_api_key"),
			Model:             v.GetString("generation.model"),
			Size:              v.GetString("generation.size"),
			RequestsPerMinute: v.GetInt("generation.requests_per_minute"),
			OutputDir:         v.GetString("generation.output_dir"),
		},
		Evaluation: EvaluationConfig{
			AnthropicAPIKey: v.GetString("evaluation.anthropic_api_key"),
			Model:           v.GetString("evaluation.model"),
			MaxTokens:       v.GetInt64("evaluation.max_tokens"),
		},
		Reconstruction: ReconstructionConfig{
			BaseURL:        v.GetString("reconstruction.base_url"),
			APIKey:         v.GetString("reconstruction.api_key"),
			RequestTimeout: v.GetDuration("reconstruction.request_timeout"),
		},
		HTTPAddr:   v.GetString("http.addr"),
		SecretsDir: v.GetString("secrets.dir"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, homeDir string) {
	controller := application.DefaultControllerConfig()
	thresholds := scoring.DefaultThresholds()
	jobs := application.DefaultJobTrackerConfig()

	v.SetDefault("refine.quick_iterations", controller.QuickIterations)
	v.SetDefault("refine.deep_iterations", controller.DeepIterations)
	v.SetDefault("refine.await_feedback", true)
	v.SetDefault("refine.feedback_poll_interval", controller.FeedbackPollInterval)

	v.SetDefault("evaluation.max_attempts", controller.EvaluationAttempts)
	v.SetDefault("evaluation.retry_delay", controller.EvaluationRetryDelay)
	v.SetDefault("evaluation.model", "claude-sonnet-4-5")
	v.SetDefault("evaluation.max_tokens", 1024)

	v.SetDefault("convergence.overall", thresholds.Overall)
	v.SetDefault("convergence.critical", thresholds.Critical)
	v.SetDefault("convergence.floor", thresholds.Floor)
	v.SetDefault("convergence.critical_metrics", thresholds.CriticalMetrics)

	v.SetDefault("history.top_n", history.DefaultTopN)
	v.SetDefault("history.focus_n", history.DefaultFocusN)
	v.SetDefault("history.recurring_threshold", history.DefaultRecurringThreshold)

	v.SetDefault("jobs.poll_interval", jobs.PollInterval)
	v.SetDefault("jobs.max_attempts", jobs.MaxAttempts)

	v.SetDefault("records.backend", BackendTOML)
	v.SetDefault("records.toml_path", filepath.Join(homeDir, ".local", "share", configDir, "records.toml"))
	v.SetDefault("records.mongo_database", "rfn")
	v.SetDefault("records.redis_addr", "127.0.0.1:6379")

	v.SetDefault("notify.backend", NotifyLog)
	v.SetDefault("notify.redis_channel", "rfn:feedback")

	v.SetDefault("generation.model", "gpt-image-1")
	v.SetDefault("generation.size", "1024x1024")
	v.SetDefault("generation.requests_per_minute", 5)
	v.SetDefault("generation.output_dir", filepath.Join(homeDir, ".local", "share", configDir, "artifacts"))

	v.SetDefault("reconstruction.request_timeout", 30*time.Second)

	v.SetDefault("http.addr", "127.0.0.1:8088")

	v.SetDefault("secrets.dir", filepath.Join(homeDir, ".config", configDir, "secrets"))
}

func (c Config) validate() error {
	switch c.Records.Backend {
	case BackendTOML, BackendInMemory, BackendMongo, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unsupported records backend %q", c.Records.Backend)
	}
	switch c.Notify.Backend {
	case NotifyLog, NotifyRedis:
	default:
		return fmt.Errorf("unsupported notify backend %q", c.Notify.Backend)
	}
	if c.Records.Backend == BackendMongo && c.Records.MongoURI == "" {
		return errors.New("records.mongo_uri is required for the mongo backend")
	}
	if c.Records.Backend == BackendPostgres && c.Records.PostgresDSN == "" {
		return errors.New("records.postgres_dsn is required for the postgres backend")
	}
	return nil
}
