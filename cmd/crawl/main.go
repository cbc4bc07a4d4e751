package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"broker-scout/common"
	"broker-scout/internal/browser"
	"broker-scout/internal/config"
	"broker-scout/internal/crawler"
	"broker-scout/internal/ibba"
	"broker-scout/internal/kafka"
	"broker-scout/internal/logger"
	"broker-scout/internal/metrics"
	"broker-scout/internal/navigation"
	"broker-scout/internal/sink"
	"broker-scout/internal/store"
)

func main() {
	if err := common.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("crawl failed", logger.Err(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(ctx context.Context, cfg config.Crawl, log logger.Logger) error {
	runID := crawler.NewRunID(time.Now())
	log = log.With(logger.String("run_id", runID))

	m := metrics.New(prometheus.NewRegistry())
	if cfg.MetricsAddr != "" {
		metrics.Serve(ctx, cfg.MetricsAddr, m.Handler(), log)
	}

	proxies, err := proxyProvider(cfg, hostname())
	if err != nil {
		return err
	}
	session, err := browser.NewChromeSession(ctx, browser.ChromeOptions{
		Headless: cfg.Headless,
		ExecPath: cfg.ChromePath,
		Timeout:  cfg.NavTimeout,
		SlowMo:   cfg.SlowMo,
	}, proxies)
	if err != nil {
		return err
	}
	defer session.Close()
	if p, ok := session.Proxy(); ok {
		log.Info("browser using proxy", logger.String("proxy", p.Server()), logger.Bool("auth", p.HasCredentials()))
	}

	statusStore, closeStatus := newStatusStore(cfg, log)
	defer closeStatus()

	out, err := buildOutputs(ctx, cfg, runID, log, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Warn("sink close error", logger.Err(err))
		}
	}()

	var robots *ibba.RobotsRules
	if cfg.RespectRobots {
		robots = loadRobots(ctx, &http.Client{Timeout: 10 * time.Second}, cfg.BaseURL, log)
	}

	guard := navigation.NewGuard(session, navigation.Config{MaxAttempts: cfg.MaxAttempts, Timeout: cfg.NavTimeout}, log, m)
	c := crawler.New(crawler.Deps{
		Guard:      guard,
		Discoverer: ibba.NewDiscoverer(guard, cfg.BaseURL, ibba.DefaultSelectors(), cfg.ListingCondition, log),
		Extractor:  ibba.NewExtractor(ibba.DefaultSelectors()),
		Collector:  out.collector,
		Failures:   out.failures,
		Status:     statusStore,
		Metrics:    m,
		Log:        log,
	})

	opts := crawler.Options{
		Place:            cfg.Place,
		RunID:            runID,
		ProfileCondition: cfg.ProfileCondition,
		Robots:           robots,
	}
	if cfg.WarmUp {
		opts.WarmUpURL = cfg.BaseURL
	}

	summary, err := c.Run(ctx, opts)
	if err != nil {
		return err
	}
	log.Info("run summary",
		logger.String("place", summary.Place),
		logger.Int("advertised", summary.Advertised),
		logger.Int("emitted", summary.Emitted),
		logger.Int("failed", summary.Failed),
		logger.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return nil
}

// proxyProvider builds the browser proxy source from the configured pool.
func proxyProvider(cfg config.Crawl, host string) (browser.ProxyProvider, error) {
	pool, err := cfg.Proxies()
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}
	if cfg.ProxyStrategy == config.ProxyByHost {
		p, _ := browser.SelectProxyFromPool(pool, host)
		return browser.NewRotatingProxies([]browser.ProxyConfig{p}, true), nil
	}
	return browser.NewRotatingProxies(pool, true), nil
}

func hostname() string {
	if h := os.Getenv("HOSTNAME"); h != "" {
		return h
	}
	h, _ := os.Hostname()
	return h
}

func newStatusStore(cfg config.Crawl, log logger.Logger) (store.StatusStore, func()) {
	if cfg.RedisAddr == "" {
		return store.NewMemoryStatusStore(), func() {}
	}
	s := store.NewRedisStatusStore(cfg.RedisAddr, store.DefaultPrefix, cfg.StatusTTL)
	return s, func() {
		if err := s.Close(); err != nil {
			log.Warn("status store close error", logger.Err(err))
		}
	}
}

// outputs are the record sinks and failure hooks of one run.
type outputs struct {
	collector *sink.Multi
	failures  crawler.FailureHooks
	closers   []io.Closer
}

// Close closes the sinks and any dead-letter producer.
func (o *outputs) Close() error {
	errs := []error{o.collector.Close()}
	for _, c := range o.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// buildOutputs opens the selected sinks. The Kafka sink also routes skipped
// profiles to the dead-letter topic.
func buildOutputs(ctx context.Context, cfg config.Crawl, runID string, log logger.Logger, m *metrics.Metrics) (*outputs, error) {
	out := &outputs{failures: crawler.FailureHooks{crawler.LogFailures{Log: log}}}
	var sinks []sink.Sink

	fail := func(err error) (*outputs, error) {
		out.collector = sink.NewMulti(nil, sinks...)
		return nil, errors.Join(err, out.Close())
	}

	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, sink.NewLogSink(log))
		case config.SinkJSONL:
			s, err := sink.NewJSONLinesSink(cfg.OutputPath)
			if err != nil {
				return fail(err)
			}
			sinks = append(sinks, s)
		case config.SinkMongo:
			connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			s, err := sink.NewMongoSink(connectCtx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, cfg.Place)
			cancel()
			if err != nil {
				return fail(err)
			}
			sinks = append(sinks, s)
		case config.SinkKafka:
			records := kafka.NewProducer(cfg.KafkaBroker, cfg.RecordsTopic).ForRun(runID)
			sinks = append(sinks, kafka.NewRecordSink(records, cfg.Place))
			dlq := kafka.NewProducer(cfg.KafkaBroker, cfg.DLQTopic).ForRun(runID)
			out.failures = append(out.failures, dlq)
			out.closers = append(out.closers, dlq)
		default:
			return fail(fmt.Errorf("unknown sink %q", name))
		}
	}
	out.collector = sink.NewMulti(m, sinks...)
	log.Info("sinks ready", logger.Int("count", out.collector.Len()))
	return out, nil
}

func loadRobots(ctx context.Context, client *http.Client, baseURL string, log logger.Logger) *ibba.RobotsRules {
	body, err := ibba.FetchRobots(ctx, client, baseURL)
	if err != nil {
		log.Warn("robots.txt unavailable, crawling without it", logger.Err(err))
		return nil
	}
	return ibba.ParseRobots(body, ibba.UserAgent)
}
