// Package config reads crawl settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"broker-scout/common"
	"broker-scout/internal/browser"
	"broker-scout/internal/ibba"
	"broker-scout/internal/navigation"
)

// Sink names accepted in SINKS.
const (
	SinkLog   = "log"
	SinkJSONL = "jsonl"
	SinkMongo = "mongo"
	SinkKafka = "kafka"
)

var knownSinks = []string{SinkLog, SinkJSONL, SinkMongo, SinkKafka}

// Proxy strategies accepted in PROXY_STRATEGY.
const (
	// ProxyRotate hands out pool entries in order, wrapping around.
	ProxyRotate = "rotate"
	// ProxyByHost pins each host to one pool entry by hash.
	ProxyByHost = "host"
)

// Crawl is everything the crawl binary needs.
type Crawl struct {
	BaseURL          string
	Place            string
	MaxAttempts      int
	NavTimeout       time.Duration
	ListingCondition browser.LoadCondition
	ProfileCondition browser.LoadCondition
	WarmUp           bool
	RespectRobots    bool

	Headless   bool
	SlowMo     time.Duration
	ChromePath string
	ProxyURL   string
	ProxyPool  []string

	// ProxyStrategy is ProxyRotate or ProxyByHost.
	ProxyStrategy string

	Sinks           []string
	OutputPath      string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	KafkaBroker     string
	RecordsTopic    string
	DLQTopic        string

	RedisAddr   string
	StatusTTL   time.Duration
	MetricsAddr string
	LogLevel    string
}

// Load reads the environment and validates the result.
func Load() (Crawl, error) {
	listing, err := browser.ParseLoadCondition(common.GetEnv("LISTING_LOAD_CONDITION", string(browser.LoadConditionDOMContentLoaded)))
	if err != nil {
		return Crawl{}, fmt.Errorf("LISTING_LOAD_CONDITION: %w", err)
	}
	profile, err := browser.ParseLoadCondition(common.GetEnv("PROFILE_LOAD_CONDITION", string(browser.LoadConditionNetworkIdle)))
	if err != nil {
		return Crawl{}, fmt.Errorf("PROFILE_LOAD_CONDITION: %w", err)
	}

	cfg := Crawl{
		BaseURL:          common.GetEnv("IBBA_BASE_URL", ibba.DefaultBaseURL),
		Place:            strings.TrimSpace(common.GetEnv("PLACE", "")),
		MaxAttempts:      common.ParseInt(common.GetEnv("NAV_MAX_ATTEMPTS", ""), navigation.DefaultMaxAttempts),
		NavTimeout:       common.ParseDuration(common.GetEnv("NAV_TIMEOUT", ""), navigation.DefaultTimeout),
		ListingCondition: listing,
		ProfileCondition: profile,
		WarmUp:           common.ParseBool(common.GetEnv("WARM_UP", ""), true),
		RespectRobots:    common.ParseBool(common.GetEnv("RESPECT_ROBOTS_TXT", ""), false),

		Headless:   common.ParseBool(common.GetEnv("HEADLESS", ""), true),
		SlowMo:     common.ParseDuration(common.GetEnv("SLOW_MO", ""), 0),
		ChromePath: common.GetEnv("CHROME_PATH", ""),
		ProxyURL:   common.GetEnv("PROXY_URL", ""),
		ProxyPool:  common.SplitList(common.GetEnv("PROXY_POOL", "")),

		ProxyStrategy: strings.ToLower(common.GetEnv("PROXY_STRATEGY", ProxyRotate)),

		Sinks:           common.SplitList(strings.ToLower(common.GetEnv("SINKS", SinkLog))),
		OutputPath:      common.GetEnv("OUTPUT_PATH", "brokers.jsonl"),
		MongoURI:        common.GetEnv("URI", ""),
		MongoDatabase:   common.GetEnv("MONGO_DATABASE", "ibba"),
		MongoCollection: common.GetEnv("MONGO_COLLECTION", "brokers"),
		KafkaBroker:     common.GetEnv("KAFKA_BROKER", ""),
		RecordsTopic:    common.GetEnv("KAFKA_RECORDS_TOPIC", "broker-scout.records"),
		DLQTopic:        common.GetEnv("KAFKA_DLQ_TOPIC", "broker-scout.dlq"),

		RedisAddr:   common.GetEnv("REDIS_ADDR", ""),
		StatusTTL:   common.ParseDuration(common.GetEnv("STATUS_TTL", ""), 24*time.Hour),
		MetricsAddr: common.GetEnv("METRICS_ADDR", ""),
		LogLevel:    common.GetEnv("LOG_LEVEL", "info"),
	}
	if err := cfg.Validate(); err != nil {
		return Crawl{}, err
	}
	return cfg, nil
}

// Validate returns the first invalid setting.
func (c Crawl) Validate() error {
	if c.Place == "" {
		return errors.New("PLACE is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("IBBA_BASE_URL %q is not an absolute URL", c.BaseURL)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("NAV_MAX_ATTEMPTS must be at least 1, got %d", c.MaxAttempts)
	}
	if c.NavTimeout <= 0 || c.NavTimeout > navigation.MaxTimeout {
		return fmt.Errorf("NAV_TIMEOUT must be in (0, %s], got %s", navigation.MaxTimeout, c.NavTimeout)
	}
	if len(c.Sinks) == 0 {
		return errors.New("SINKS must name at least one sink")
	}
	for _, s := range c.Sinks {
		if !slices.Contains(knownSinks, s) {
			return fmt.Errorf("SINKS: unknown sink %q", s)
		}
	}
	if c.HasSink(SinkMongo) && c.MongoURI == "" {
		return errors.New("URI is required for the mongo sink")
	}
	if c.HasSink(SinkKafka) && c.KafkaBroker == "" {
		return errors.New("KAFKA_BROKER is required for the kafka sink")
	}
	if c.ProxyStrategy != ProxyRotate && c.ProxyStrategy != ProxyByHost {
		return fmt.Errorf("PROXY_STRATEGY must be %q or %q, got %q", ProxyRotate, ProxyByHost, c.ProxyStrategy)
	}
	if _, err := c.Proxies(); err != nil {
		return err
	}
	return nil
}

// HasSink reports whether name is selected.
func (c Crawl) HasSink(name string) bool {
	return slices.Contains(c.Sinks, name)
}

// Proxies parses PROXY_URL followed by the PROXY_POOL entries.
func (c Crawl) Proxies() ([]browser.ProxyConfig, error) {
	var entries []string
	if c.ProxyURL != "" {
		entries = append(entries, c.ProxyURL)
	}
	entries = append(entries, c.ProxyPool...)
	proxies, err := browser.ParseProxyPool(entries)
	if err != nil {
		return nil, fmt.Errorf("proxy settings: %w", err)
	}
	return proxies, nil
}
