package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	anthropiceval "github.com/bnema/refine-cli/internal/adapters/evaluation/anthropic"
	openaigen "github.com/bnema/refine-cli/internal/adapters/generation/openai"
	"github.com/bnema/refine-cli/internal/adapters/jobs/httpjobs"
	"github.com/bnema/refine-cli/internal/adapters/notify/lognotify"
	"github.com/bnema/refine-cli/internal/adapters/notify/redisnotify"
	"github.com/bnema/refine-cli/internal/adapters/records/inmem"
	mongostore "github.com/bnema/refine-cli/internal/adapters/records/mongo"
	pgstore "github.com/bnema/refine-cli/internal/adapters/records/postgres"
	redisstore "github.com/bnema/refine-cli/internal/adapters/records/redis"
	tomlstore "github.com/bnema/refine-cli/internal/adapters/records/toml"
	chainstore "github.com/bnema/refine-cli/internal/adapters/secrets/chain"
	"github.com/bnema/refine-cli/internal/application"
	"github.com/bnema/refine-cli/internal/config"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/history"
	"github.com/bnema/refine-cli/internal/ports"
	"github.com/bnema/refine-cli/internal/scoring"
	"github.com/bnema/refine-cli/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"goa.design/clue/health"
	"goa.design/clue/log"
)

type app struct {
	cfg      config.Config
	service  *application.Service
	records  ports.RecordStore
	pingers  []health.Pinger
	missing  []string
	closers  []func(context.Context) error
	recorder *telemetry.Recorder
}

// collaborators are the remote services a session or job talks to. Missing
// lists the settings that were absent when they were built.
type collaborators struct {
	Generator ports.Generator
	Evaluator ports.Evaluator
	Jobs      ports.JobService
	Missing   []string
}

type collaboratorFactory func(cfg config.Config) (collaborators, error)

type cliState struct {
	factory collaboratorFactory
	app     *app
}

func (s *cliState) wire(ctx context.Context, configPath string) error {
	if s.app != nil {
		return nil
	}
	cfg, err := config.Load(viper.New(), configPath)
	if err != nil {
		return err
	}
	secrets, err := chainstore.NewPassFirstWithFileFallback(cfg.SecretsDir)
	if err != nil {
		return err
	}
	if cfg, err = resolveSecrets(ctx, cfg, secrets); err != nil {
		return err
	}
	a, err := wireApp(ctx, cfg, s.factory)
	if err != nil {
		return err
	}
	s.app = a
	return nil
}

func (s *cliState) close(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	a := s.app
	s.app = nil
	return a.close(ctx)
}

type secretResolver interface {
	Resolve(ctx context.Context, raw string) (string, error)
}

// resolveSecrets replaces "secret:" references in the credential settings
// with the values they point to.
func resolveSecrets(ctx context.Context, cfg config.Config, secrets secretResolver) (config.Config, error) {
	fields := map[string]*string{
		keyOpenAI:                &cfg.Generation.OpenAIAPIKey,
		keyAnthropic:             &cfg.Evaluation.AnthropicAPIKey,
		"reconstruction.api_key": &cfg.Reconstruction.APIKey,
	}
	for key, field := range fields {
		value, err := secrets.Resolve(ctx, *field)
		if err != nil {
			return config.Config{}, fmt.Errorf("resolve %s: %w", key, err)
		}
		*field = value
	}
	return cfg, nil
}

func wireApp(ctx context.Context, cfg config.Config, factory collaboratorFactory) (_ *app, err error) {
	a := &app{cfg: cfg, recorder: telemetry.New()}
	defer func() {
		if err != nil {
			_ = a.close(ctx)
		}
	}()

	rdb, err := a.wireRecords(ctx, cfg)
	if err != nil {
		return nil, err
	}
	notifier, err := a.wireNotifier(cfg, rdb)
	if err != nil {
		return nil, err
	}

	collab, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire collaborators: %w", err)
	}
	a.missing = collab.Missing

	controller := application.NewController(application.ControllerDeps{
		Generator: collab.Generator,
		Evaluator: collab.Evaluator,
		Parser:    scoring.NewParser(),
		Policy:    scoring.NewPolicy(cfg.Convergence),
		Analyzer:  history.NewAnalyzer(cfg.History),
		Snapshots: a.records,
		Notifier:  notifier,
		Clock:     ports.SystemClock{},
		Telemetry: a.recorder,
	}, cfg.Refine.Controller)
	tracker := application.NewJobTracker(collab.Jobs, a.records, ports.SystemClock{}, a.recorder, cfg.Jobs)
	a.service = application.NewService(controller, tracker, a.records)

	log.Debug(ctx, log.KV{K: "msg", V: "wired"}, log.KV{K: "records", V: cfg.Records.Backend}, log.KV{K: "notify", V: cfg.Notify.Backend})
	return a, nil
}

// wireRecords returns the Redis client when one was dialed so the notifier
// can share it.
func (a *app) wireRecords(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	var rdb *redis.Client
	if cfg.Records.Backend == config.BackendRedis || cfg.Notify.Backend == config.NotifyRedis {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Records.RedisAddr})
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	}

	switch cfg.Records.Backend {
	case config.BackendInMemory:
		a.records = inmem.New()
	case config.BackendMongo:
		store, disconnect, err := mongostore.Connect(ctx, cfg.Records.MongoURI, cfg.Records.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("wire record store: %w", err)
		}
		a.records = store
		a.pingers = append(a.pingers, store)
		a.closers = append(a.closers, disconnect)
	case config.BackendRedis:
		store, err := redisstore.New(rdb, "")
		if err != nil {
			return nil, fmt.Errorf("wire record store: %w", err)
		}
		a.records = store
		a.pingers = append(a.pingers, store)
	case config.BackendPostgres:
		store, err := pgstore.Open(ctx, cfg.Records.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("wire record store: %w", err)
		}
		a.records = store
		a.pingers = append(a.pingers, store)
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
	default:
		store, err := tomlstore.NewStore(cfg.Records.TOMLPath)
		if err != nil {
			return nil, fmt.Errorf("wire record store: %w", err)
		}
		a.records = store
	}
	return rdb, nil
}

func (a *app) wireNotifier(cfg config.Config, rdb *redis.Client) (ports.FeedbackNotifier, error) {
	if cfg.Notify.Backend != config.NotifyRedis {
		return lognotify.New(), nil
	}
	notifier, err := redisnotify.New(rdb, cfg.Notify.RedisChannel)
	if err != nil {
		return nil, fmt.Errorf("wire notifier: %w", err)
	}
	return notifier, nil
}

// require fails when any of keys was missing at wiring time.
func (a *app) require(keys ...string) error {
	var absent []string
	for _, key := range keys {
		if slices.Contains(a.missing, key) {
			absent = append(absent, key)
		}
	}
	if len(absent) == 0 {
		return nil
	}
	return fmt.Errorf("missing configuration: %s (set it in the config file or as RFN_%s)",
		strings.Join(absent, ", "), envName(absent[0]))
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (a *app) close(ctx context.Context) error {
	if a.service != nil {
		a.service.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

const (
	keyOpenAI         = "generation.openai_api_key"
	keyAnthropic      = "evaluation.anthropic_api_key"
	keyReconstruction = "reconstruction.base_url"
)

// buildCollaborators builds the SDK-backed generator and evaluator and the
// reconstruction client. Absent keys yield stand-ins that fail on use.
func buildCollaborators(cfg config.Config) (collaborators, error) {
	var collab collaborators

	if cfg.Generation.OpenAIAPIKey == "" {
		collab.Generator = unconfigured(keyOpenAI)
		collab.Missing = append(collab.Missing, keyOpenAI)
	} else {
		gen, err := openaigen.NewFromAPIKey(cfg.Generation.OpenAIAPIKey, openaigen.Options{
			Model:             cfg.Generation.Model,
			Size:              cfg.Generation.Size,
			OutputDir:         cfg.Generation.OutputDir,
			RequestsPerMinute: cfg.Generation.RequestsPerMinute,
		})
		if err != nil {
			return collaborators{}, err
		}
		collab.Generator = gen
	}

	if cfg.Evaluation.AnthropicAPIKey == "" {
		collab.Evaluator = unconfigured(keyAnthropic)
		collab.Missing = append(collab.Missing, keyAnthropic)
	} else {
		eval, err := anthropiceval.NewFromAPIKey(cfg.Evaluation.AnthropicAPIKey, anthropiceval.Options{
			Model:     cfg.Evaluation.Model,
			MaxTokens: cfg.Evaluation.MaxTokens,
		})
		if err != nil {
			return collaborators{}, err
		}
		collab.Evaluator = eval
	}

	if cfg.Reconstruction.BaseURL == "" {
		collab.Jobs = unconfigured(keyReconstruction)
		collab.Missing = append(collab.Missing, keyReconstruction)
	} else {
		collab.Jobs = httpjobs.Client{
			API:            httpjobs.API{BaseURL: cfg.Reconstruction.BaseURL},
			APIKey:         cfg.Reconstruction.APIKey,
			HTTPClient:     http.DefaultClient,
			RequestTimeout: cfg.Reconstruction.RequestTimeout,
		}
	}

	return collab, nil
}

// unconfigured stands in for a collaborator whose setting is missing.
type unconfigured string

func (u unconfigured) err() error {
	return fmt.Errorf("%s is not configured", string(u))
}

func (u unconfigured) Generate(context.Context, ports.GenerationRequest) (string, error) {
	return "", u.err()
}

func (u unconfigured) Evaluate(context.Context, string, string) (string, error) {
	return "", u.err()
}

func (u unconfigured) Submit(context.Context, domain.JobInput) (string, error) {
	return "", u.err()
}

func (u unconfigured) Poll(context.Context, string) (ports.PollResult, error) {
	return ports.PollResult{}, u.err()
}

func (u unconfigured) FetchResult(context.Context, string) (string, error) {
	return "", u.err()
}
