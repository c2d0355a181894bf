package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kerim47/quantdesk/internal/api"
	"github.com/kerim47/quantdesk/internal/binance"
	"github.com/kerim47/quantdesk/internal/config"
	"github.com/kerim47/quantdesk/internal/httpx"
	"github.com/kerim47/quantdesk/internal/logger"
	"github.com/kerim47/quantdesk/internal/models"
	"github.com/kerim47/quantdesk/internal/monitor"
	"github.com/kerim47/quantdesk/internal/quiz"
	"github.com/kerim47/quantdesk/internal/rates"
	"github.com/kerim47/quantdesk/internal/scheduler"
	"github.com/kerim47/quantdesk/internal/snapshot"
	"github.com/kerim47/quantdesk/internal/storage"
	"github.com/kerim47/quantdesk/internal/telegram"
	"github.com/kerim47/quantdesk/internal/telemetry"
	"github.com/kerim47/quantdesk/internal/tmdb"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

// app holds the running services of one process.
type app struct {
	cfg       *config.Config
	store     *storage.Storage
	metrics   *telemetry.Metrics
	currency  *monitor.Currency
	klines    *monitor.Monitor
	telegram  *telegram.Client
	publisher *snapshot.Publisher
	hub       *api.Hub
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("%v", err)
	}
	logger.Info("Service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := storage.New(cfg.Storage.MaxPerSymbol, cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	a := &app{cfg: cfg, store: store, metrics: telemetry.New()}

	if cfg.Rates.Enabled {
		source := rates.NewClient(cfg.Rates.APIURL, cfg.Rates.APIKey, httpConfig(cfg.Rates.HTTP))
		a.currency = monitor.NewCurrency(source, store, monitor.CurrencyConfig{
			Base:       cfg.Rates.Base,
			Quote:      cfg.Rates.Quote,
			Currencies: cfg.Rates.Currencies,
			History:    cfg.Rates.History,
			Trend:      cfg.Rates.Trend,
		})
	}
	if cfg.Binance.Enabled {
		source := binance.NewClient(cfg.Binance.SpotURL, cfg.Binance.FuturesURL, httpConfig(cfg.Binance.HTTP))
		a.klines = monitor.New(source, store, monitor.Config{
			Analysis: cfg.Analysis,
			Limit:    cfg.Binance.Limit,
			Cooldown: cfg.Alerts.Cooldown,
		})
	}

	if cfg.Telegram.Enabled {
		a.telegram, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	if cfg.Redis.Enabled {
		a.publisher, err = snapshot.New(ctx, snapshot.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer a.publisher.Close() //nolint:errcheck
		logger.Info("Publishing snapshots to redis at %s", cfg.Redis.Addr)
		if a.currency != nil {
			a.primeCurrencies(ctx)
		}
	}

	var server *api.Server
	if cfg.Server.Enabled {
		server, err = a.newServer(ctx)
		if err != nil {
			return err
		}
		a.hub = server.Hub()
		if a.publisher != nil {
			go a.relayUpdates(ctx)
		}
	}

	tasks, err := a.tasks()
	if err != nil {
		return err
	}
	opts := []scheduler.Option{scheduler.WithRecorder(a.metrics)}
	if a.telegram != nil {
		opts = append(opts, scheduler.WithNotifier(a.telegram))
	}
	sched, err := scheduler.New(tasks, opts...)
	if err != nil {
		return fmt.Errorf("failed to build scheduler: %w", err)
	}

	if a.telegram != nil {
		var reporter telegram.RateReporter
		if a.currency != nil {
			reporter = a.currency
		}
		a.telegram.ListenForCommands(ctx, reporter)
	}

	logger.Info("Starting %d periodic tasks", len(tasks))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	if server == nil {
		<-ctx.Done()
		return nil
	}
	return server.Run(ctx, cfg.Server.Addr)
}

func (a *app) newServer(ctx context.Context) (*api.Server, error) {
	cfg := a.cfg
	deps := api.Deps{Alerts: a.store, Metrics: a.metrics}
	if a.currency != nil {
		deps.Currencies = a.currency
	}
	if a.klines != nil {
		deps.Analyses = a.klines
	}
	if cfg.TMDB.Enabled {
		client := tmdb.NewClient(cfg.TMDB.APIURL, cfg.TMDB.APIKey, cfg.TMDB.Language, httpConfig(cfg.TMDB.HTTP))
		deps.Movies = tmdb.NewBrowser(client, func(r tmdb.Result) {
			a.publish(ctx, "movies", r)
		})
	}
	if cfg.Quiz.Enabled {
		repo, err := prepareQuiz(ctx, a.store, cfg.Quiz)
		if err != nil {
			return nil, err
		}
		deps.Questions = repo
	}

	return api.NewServer(deps, api.Options{
		RateLimit:     cfg.Server.RateLimit,
		Burst:         cfg.Server.Burst,
		TestQuestions: cfg.Quiz.TestQuestions,
		OpenQuestions: cfg.Quiz.OpenQuestions,
		Exam: quiz.ExamConfig{
			TotalTime:    cfg.Quiz.TotalTime,
			QuestionTime: cfg.Quiz.QuestionTime,
		},
	}), nil
}

// prepareQuiz migrates the question tables and seeds them when they are
// empty or a reset is requested.
func prepareQuiz(ctx context.Context, store *storage.Storage, cfg config.QuizConfig) (*quiz.Repository, error) {
	repo := quiz.NewRepository(store.DB())
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate quiz tables: %w", err)
	}
	if cfg.ResetOnStartup {
		if err := repo.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset quiz tables: %w", err)
		}
	}

	n, err := repo.Count(ctx, quiz.Test)
	if err != nil {
		return nil, err
	}
	if n > 0 || cfg.SeedFile == "" {
		logger.Info("Quiz ready with %d test questions", n)
		return repo, nil
	}
	seed, err := quiz.LoadSeed(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	if err := repo.SeedAll(ctx, seed); err != nil {
		return nil, err
	}
	logger.Info("Seeded quiz questions from %s", cfg.SeedFile)
	return repo, nil
}

func (a *app) tasks() ([]scheduler.Task, error) {
	var tasks []scheduler.Task
	if a.currency != nil {
		tasks = append(tasks, scheduler.Task{
			Name:     "rates",
			Interval: a.cfg.Rates.PollInterval,
			Run:      a.pollRates,
		})
	}
	if a.klines != nil {
		for _, sc := range a.cfg.Binance.Streams {
			market, err := binance.ParseMarket(sc.Market)
			if err != nil {
				return nil, err
			}
			stream := monitor.Stream{Symbol: sc.Symbol, Market: market, Interval: sc.Interval}
			interval := sc.PollInterval
			if interval == 0 {
				interval = binance.PollInterval(sc.Interval)
			}
			tasks = append(tasks, scheduler.Task{
				Name:     "klines " + stream.String(),
				Interval: interval,
				Run: func(ctx context.Context) error {
					return a.pollStream(ctx, stream)
				},
			})
		}
	}
	tasks = append(tasks, scheduler.Task{
		Name:     "rotate",
		Interval: a.cfg.Storage.RotateInterval,
		Run: func(context.Context) error {
			cutoff := time.Now().Add(-a.cfg.Storage.Retention)
			n, err := a.store.RotateObservations(cutoff)
			if err != nil {
				return fmt.Errorf("failed to rotate observations: %w", err)
			}
			m, err := a.store.RotateAlerts(cutoff)
			if err != nil {
				return fmt.Errorf("failed to rotate alerts: %w", err)
			}
			if n > 0 || m > 0 {
				logger.Info("Rotated %d observations and %d alerts older than %v", n, m, a.cfg.Storage.Retention)
			}
			return nil
		},
	})
	return tasks, nil
}

func (a *app) pollRates(ctx context.Context) error {
	report, err := a.currency.Poll(ctx)
	if err != nil {
		return err
	}
	a.metrics.ObserveCurrencies(report)
	logger.Info("Tracked %d currencies against %s", len(report.Quotes), report.Quote)
	a.publish(ctx, "currencies", report)
	return nil
}

func (a *app) pollStream(ctx context.Context, stream monitor.Stream) error {
	report, alerts, err := a.klines.Poll(ctx, stream)
	if err != nil {
		return err
	}
	a.metrics.ObserveAnalysis(report)
	a.publish(ctx, "analysis", report)
	if len(alerts) == 0 {
		logger.Debug("No new signals for %s", stream)
		return nil
	}

	a.metrics.ObserveAlerts(alerts)
	a.publish(ctx, "alerts", alerts)
	var sender monitor.Sender
	if a.telegram != nil {
		sender = a.telegram
	}
	if err := a.klines.Deliver(alerts, sender); err != nil {
		logger.Error("Failed to send Telegram notification: %v", err)
		return nil
	}
	if sender != nil {
		logger.Info("Sent Telegram notification with %d alerts for %s", len(alerts), stream)
	}
	return nil
}

// primeCurrencies serves the last published currency report until the first
// rates poll completes.
func (a *app) primeCurrencies(ctx context.Context) {
	var cached models.CurrencyReport
	ok, err := a.publisher.Get(ctx, "currencies", &cached)
	if err != nil {
		logger.Warn("Failed to load cached currencies: %v", err)
		return
	}
	if ok && a.currency.Prime(&cached) {
		logger.Info("Serving cached currencies from %s until the first poll", cached.FetchedAt.Format(time.RFC3339))
	}
}

// publish hands a refresh to redis when configured, whose subscription feeds
// the websocket hub, and to the hub directly otherwise.
func (a *app) publish(ctx context.Context, name string, v any) {
	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, name, v); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Failed to publish %s snapshot: %v", name, err)
		}
		return
	}
	if a.hub != nil {
		a.hub.Broadcast(name, v)
	}
}

func (a *app) relayUpdates(ctx context.Context) {
	for u := range a.publisher.Subscribe(ctx) {
		a.hub.Broadcast(u.Name, u.Data)
	}
}

func httpConfig(h config.HTTPConfig) httpx.Config {
	return httpx.Config{
		Timeout:        h.Timeout,
		MaxRetries:     h.MaxRetries,
		RetryDelayBase: h.RetryDelayBase,
		RateLimit:      h.RateLimit,
	}
}
