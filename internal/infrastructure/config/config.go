package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	HTTPPort  int
	GRPCPort  int
	DB        DBConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	Providers ProvidersConfig
	Telemetry TelemetryConfig
	LogLevel  string
	LogFormat string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	EventsTopic   string
	OrphanTopic   string
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// ProvidersConfig carries one credential block per processor, plus the
// set of processors temporarily pulled out of routing.
type ProvidersConfig struct {
	Disabled []string

	CCBill  GatewayCredentials
	Segpay  GatewayCredentials
	Epoch   GatewayCredentials
	Vendo   GatewayCredentials
	Verotel GatewayCredentials
	Paxum   GatewayCredentials
}

// GatewayCredentials is the common shape of processor credentials. The
// meaning of MerchantID varies per processor (client accnum, package
// ID, shop ID, account ID).
type GatewayCredentials struct {
	BaseURL       string
	MerchantID    string
	APIKey        string
	WebhookSecret string
}

type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// Validate checks required configuration values.
func (c Config) Validate() {
	if c.DB.Password == "" {
		panic("DB_PASSWORD environment variable is required")
	}
	if c.JWT.Secret == "" {
		panic("JWT_SECRET environment variable is required")
	}
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		HTTPPort: getEnvInt("HTTP_PORT", 8080),
		GRPCPort: getEnvInt("GRPC_PORT", 9090),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "fanora"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "fanora_payments"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 5)),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS", "localhost:9092"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "payment-service"),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "payment.events"),
			OrphanTopic:   getEnv("KAFKA_ORPHAN_TOPIC", "payment.webhooks.orphaned"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Issuer: getEnv("JWT_ISSUER", "fanora"),
		},
		Providers: ProvidersConfig{
			Disabled: getEnvList("PROVIDERS_DISABLED", ""),
			CCBill: GatewayCredentials{
				BaseURL:       getEnv("CCBILL_BASE_URL", "https://api.ccbill.com"),
				MerchantID:    getEnv("CCBILL_CLIENT_ACCNUM", ""),
				APIKey:        getEnv("CCBILL_API_KEY", ""),
				WebhookSecret: getEnv("CCBILL_WEBHOOK_SECRET", ""),
			},
			Segpay: GatewayCredentials{
				BaseURL:       getEnv("SEGPAY_BASE_URL", "https://api.segpay.com"),
				MerchantID:    getEnv("SEGPAY_PACKAGE_ID", ""),
				APIKey:        getEnv("SEGPAY_API_KEY", ""),
				WebhookSecret: getEnv("SEGPAY_WEBHOOK_SECRET", ""),
			},
			Epoch: GatewayCredentials{
				BaseURL:       getEnv("EPOCH_BASE_URL", "https://api.epoch.com"),
				MerchantID:    getEnv("EPOCH_MEMBER_ID", ""),
				APIKey:        getEnv("EPOCH_API_KEY", ""),
				WebhookSecret: getEnv("EPOCH_WEBHOOK_TOKEN", ""),
			},
			Vendo: GatewayCredentials{
				BaseURL:       getEnv("VENDO_BASE_URL", "https://api.vendoservices.com"),
				MerchantID:    getEnv("VENDO_MERCHANT_ID", ""),
				APIKey:        getEnv("VENDO_SHARED_SECRET", ""),
				WebhookSecret: getEnv("VENDO_WEBHOOK_SECRET", ""),
			},
			Verotel: GatewayCredentials{
				BaseURL:       getEnv("VEROTEL_BASE_URL", "https://api.verotel.com"),
				MerchantID:    getEnv("VEROTEL_SHOP_ID", ""),
				APIKey:        getEnv("VEROTEL_API_KEY", ""),
				WebhookSecret: getEnv("VEROTEL_WEBHOOK_SECRET", ""),
			},
			Paxum: GatewayCredentials{
				BaseURL:       getEnv("PAXUM_BASE_URL", "https://api.paxum.com"),
				MerchantID:    getEnv("PAXUM_ACCOUNT_ID", ""),
				APIKey:        getEnv("PAXUM_API_KEY", ""),
				WebhookSecret: getEnv("PAXUM_WEBHOOK_SECRET", ""),
			},
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  "payment-service",
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvList(key, defaultVal string) []string {
	raw := getEnv(key, defaultVal)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
