package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	QuoteBox QuoteBoxConfig `yaml:"quotebox"`
	Pricing  PricingConfig  `yaml:"pricing"`
	ETA      ETAConfig      `yaml:"eta"`
	Audit    AuditConfig    `yaml:"audit"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	ssl := d.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.Username, d.Password, d.Host, d.Port, d.DBName, ssl)
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	QuoteComputedTopicName string `yaml:"quote_computed_topic_name"`
	ZoneChangedTopicName   string `yaml:"zone_changed_topic_name"`
	ZoneImportTopicName    string `yaml:"zone_import_topic_name"`
	BreakerFailures        uint32 `yaml:"breaker_failures"`
	BreakerOpenTimeoutSecs int    `yaml:"breaker_open_timeout_seconds"`
}

func (k KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type QuoteBoxConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	LogEnv   string `yaml:"log_env"`
	LogLevel string `yaml:"log_level"`

	PreviewRateLimitPerMinute int `yaml:"preview_rate_limit_per_minute"`
	RequestTimeoutSeconds     int `yaml:"request_timeout_seconds"`

	RiderSource           string `yaml:"rider_source"` // "redis" | "dispatch" | "fake"
	DispatchBaseURL       string `yaml:"dispatch_base_url"`
	DispatchAPIKey        string `yaml:"dispatch_api_key"`
	DispatchTimeoutMillis int    `yaml:"dispatch_timeout_millis"`
}

type PricingConfig struct {
	FreeWeightAllowanceKg float64 `yaml:"free_weight_allowance_kg"`
	WeightRatePerKg       int64   `yaml:"weight_rate_per_kg"`
	InsuranceThreshold    int64   `yaml:"insurance_threshold"`
	InsuranceRate         float64 `yaml:"insurance_rate"`
	CODRate               float64 `yaml:"cod_rate"`
	FreeShippingThreshold int64   `yaml:"free_shipping_threshold"`
	LegacyFlatFee         int64   `yaml:"legacy_flat_fee"`
	DefaultCrossZoneFee   int64   `yaml:"default_cross_zone_fee"`

	DenseMultipliers    map[string]float64 `yaml:"dense_multipliers"`
	RegionalMultipliers map[string]float64 `yaml:"regional_multipliers"`
}

type ETAConfig struct {
	// "HH:MM-HH:MM", UTC.
	PeakWindows         []string           `yaml:"peak_windows"`
	CongestionFactor    float64            `yaml:"congestion_factor"`
	DeliveryTypeFactors map[string]float64 `yaml:"delivery_type_factors"`
	BaseDispatchMinutes int                `yaml:"base_dispatch_minutes"`
	PerExcessJobMinutes int                `yaml:"per_excess_job_minutes"`
	SpreadMinutes       float64            `yaml:"spread_minutes"`
	HoursThresholdMins  int                `yaml:"hours_threshold_minutes"`
}

type AuditConfig struct {
	// RFC3339
	FreeDistanceCutover string  `yaml:"free_distance_cutover"`
	BatchSize           int     `yaml:"batch_size"`
	BatchesPerSecond    float64 `yaml:"batches_per_second"`
}

func (a AuditConfig) Cutover() (time.Time, error) {
	if a.FreeDistanceCutover == "" {
		return time.Time{}, fmt.Errorf("audit.free_distance_cutover is not set")
	}
	t, err := time.Parse(time.RFC3339, a.FreeDistanceCutover)
	if err != nil {
		return time.Time{}, fmt.Errorf("audit.free_distance_cutover: %w", err)
	}
	return t.UTC(), nil
}

// LoadConfig reads a .env next to the process (if any), expands ${VAR}
// references in the YAML file and applies defaults.
func LoadConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Kafka.QuoteComputedTopicName == "" {
		c.Kafka.QuoteComputedTopicName = "quote.computed"
	}
	if c.Kafka.ZoneChangedTopicName == "" {
		c.Kafka.ZoneChangedTopicName = "zone.changed"
	}
	if c.Kafka.ZoneImportTopicName == "" {
		c.Kafka.ZoneImportTopicName = "zone.import"
	}
	if c.QuoteBox.HTTPAddr == "" {
		c.QuoteBox.HTTPAddr = ":8080"
	}
	if c.QuoteBox.KafkaConsumerGroup == "" {
		c.QuoteBox.KafkaConsumerGroup = "quote-api"
	}
	if c.QuoteBox.PreviewRateLimitPerMinute <= 0 {
		c.QuoteBox.PreviewRateLimitPerMinute = 30
	}
	if c.QuoteBox.RequestTimeoutSeconds <= 0 {
		c.QuoteBox.RequestTimeoutSeconds = 5
	}
	if c.QuoteBox.RiderSource == "" {
		c.QuoteBox.RiderSource = "redis"
	}
	if c.Audit.BatchSize <= 0 {
		c.Audit.BatchSize = 500
	}
}
