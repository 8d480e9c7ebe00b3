package config

import (
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Source is one remote order-management API. Empty BaseURL disables it.
type Source struct {
	BaseURL string
	APIKey  string
}

type Postgres struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
	SSLMode  string
}

type Kafka struct {
	Brokers []string
	Topic   string
	Group   string
	Workers int
}

type Retention struct {
	// Horizon is the age past which archived records become eligible for
	// deletion.
	Horizon time.Duration
	// TriggerCount is the store size past which archiving opportunistically
	// re-runs cleanup.
	TriggerCount int
}

type Breaker struct {
	Threshold   uint32
	OpenTimeout time.Duration
	MaxHalfOpen uint32
}

type Retry struct {
	Attempts     int
	Base         time.Duration
	Max          time.Duration
	JitterFactor float64
}

type Config struct {
	HTTPAddr        string
	StoreDriver     string
	ResolveCacheCap int

	// SenderPostcodes is the warehouse's own outgoing addresses. Postcodes
	// extracted from scanner payloads that collide with these are never
	// treated as the buyer's address.
	SenderPostcodes []string

	// TagMatchFields controls which loosely related remote fields the fuzzy
	// tag filter consults, in order.
	TagMatchFields []string

	Pg        Postgres
	Kafka     Kafka
	Retention Retention
	Breaker   Breaker
	Retry     Retry
	Selro     Source
	Veeqo     Source
}

// Load keeps the original API and fatals on error for simplicity in main().
func Load() Config {
	cfg, err := load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	return cfg
}

func load() (Config, error) {
	_ = godotenv.Load("env/.env")

	cfg := Config{
		HTTPAddr:        envDefault("HTTP_ADDR", ":8081"),
		StoreDriver:     envDefault("STORE_DRIVER", DriverPostgres),
		ResolveCacheCap: envInt("RESOLVE_CACHE_CAP", 512),
		SenderPostcodes: splitCSV(os.Getenv("SENDER_POSTCODES")),
		TagMatchFields:  splitCSV(envDefault("TAG_MATCH_FIELDS", "tags,folder,notes,status")),

		Pg: Postgres{
			Host:     strings.TrimSpace(os.Getenv("PG_HOST")),
			Port:     strings.TrimSpace(envDefault("PG_PORT", "5432")),
			DB:       strings.TrimSpace(os.Getenv("PG_DB")),
			User:     strings.TrimSpace(os.Getenv("PG_USER")),
			Password: strings.TrimSpace(os.Getenv("PG_PASSWORD")),
			SSLMode:  strings.TrimSpace(envDefault("PG_SSLMODE", "disable")),
		},

		Kafka: Kafka{
			Brokers: splitCSV(strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))),
			Topic:   strings.TrimSpace(os.Getenv("KAFKA_TOPIC")),
			Group:   strings.TrimSpace(os.Getenv("KAFKA_GROUP")),
			Workers: envInt("KAFKA_WORKERS", 4),
		},

		Retention: Retention{
			Horizon:      time.Duration(envInt("RETENTION_DAYS", 90)) * 24 * time.Hour,
			TriggerCount: envInt("RETENTION_TRIGGER_COUNT", 5000),
		},

		Breaker: Breaker{
			Threshold:   envUint32("BREAKER_THRESHOLD", 5),
			OpenTimeout: envDurationMS("BREAKER_OPENTIMEOUT", 10*time.Second),
			MaxHalfOpen: envUint32("BREAKER_MAXHALFOPEN", 3),
		},

		Retry: Retry{
			Attempts:     envInt("RETRY_ATTEMPTS", 3),
			Base:         envDurationMS("RETRY_BASE", 100*time.Millisecond),
			Max:          envDurationMS("RETRY_MAX", 5*time.Second),
			JitterFactor: envFloat64("RETRY_JITTERFACTOR", 0.3),
		},

		Selro: Source{
			BaseURL: strings.TrimSpace(os.Getenv("SELRO_URL")),
			APIKey:  strings.TrimSpace(os.Getenv("SELRO_API_KEY")),
		},
		Veeqo: Source{
			BaseURL: strings.TrimSpace(os.Getenv("VEEQO_URL")),
			APIKey:  strings.TrimSpace(os.Getenv("VEEQO_API_KEY")),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.clamp()
	return cfg, nil
}

func (c Config) validate() error {
	if c.StoreDriver != DriverPostgres && c.StoreDriver != DriverMemory {
		return &missingEnvError{Keys: []string{"STORE_DRIVER (postgres|memory)"}}
	}

	var missing []string
	if c.StoreDriver == DriverPostgres {
		req := map[string]string{
			"PG_HOST":     c.Pg.Host,
			"PG_DB":       c.Pg.DB,
			"PG_USER":     c.Pg.User,
			"PG_PASSWORD": c.Pg.Password,
		}
		for k, v := range req {
			if strings.TrimSpace(v) == "" {
				missing = append(missing, k)
			}
		}
	}

	// The order feed is optional, but when any of its knobs is set the rest
	// must be too.
	if len(c.Kafka.Brokers) > 0 || c.Kafka.Topic != "" || c.Kafka.Group != "" {
		if len(c.Kafka.Brokers) == 0 {
			missing = append(missing, "KAFKA_BROKERS")
		}
		if c.Kafka.Topic == "" {
			missing = append(missing, "KAFKA_TOPIC")
		}
		if c.Kafka.Group == "" {
			missing = append(missing, "KAFKA_GROUP")
		}
	}
	if len(missing) > 0 {
		return &missingEnvError{Keys: missing}
	}

	return nil
}

// clamp pulls out-of-range numeric knobs back to their minimums instead of
// failing startup over them.
func (c *Config) clamp() {
	if c.Retention.Horizon <= 0 {
		log.Printf("RETENTION_DAYS is %v, adjusting to 1 day", c.Retention.Horizon)
		c.Retention.Horizon = 24 * time.Hour
	}
	if c.ResolveCacheCap <= 0 {
		log.Printf("RESOLVE_CACHE_CAP is %d, adjusting to 1", c.ResolveCacheCap)
		c.ResolveCacheCap = 1
	}
	if c.Retry.Attempts < 1 {
		log.Printf("RETRY_ATTEMPTS is %d, adjusting to 1", c.Retry.Attempts)
		c.Retry.Attempts = 1
	}
	if c.Retry.Max < c.Retry.Base {
		log.Printf("RETRY_MAX (%v) < RETRY_BASE (%v), adjusting max to base", c.Retry.Max, c.Retry.Base)
		c.Retry.Max = c.Retry.Base
	}
}

// IngestEnabled reports whether the Kafka order feed is configured.
func (c Config) IngestEnabled() bool {
	return len(c.Kafka.Brokers) > 0 && c.Kafka.Topic != "" && c.Kafka.Group != ""
}

type missingEnvError struct{ Keys []string }

func (e *missingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

// DSN builds a proper Postgres URL, safely escaping user/pass and query.
func (c Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Pg.User, c.Pg.Password),
		Host:   net.JoinHostPort(c.Pg.Host, c.Pg.Port),
		Path:   "/" + c.Pg.DB,
	}
	q := url.Values{}
	if c.Pg.SSLMode != "" {
		q.Set("sslmode", c.Pg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return n
}

func envUint32(k string, def uint32) uint32 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	u, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return uint32(u)
}

func envFloat64(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %.3f: %v", k, v, def, err)
		return def
	}
	return f
}

// envDurationMS supports either plain integer milliseconds ("1500") or
// Go duration strings ("1.5s", "250ms", "2m").
func envDurationMS(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
			return def
		}
		return d
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
