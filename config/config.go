package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort    int
	SessionSecret string
	JWTSecret     string
	Database      DatabaseConfig
	Broker        BrokerConfig
	Storage       StorageConfig
}

type DatabaseConfig struct {
	// URL, when set, wins over the discrete fields below. Test suites
	// point it at an isolated database.
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// BrokerConfig selects the event broker backend ("rabbitmq", "pubsub" or
// "none") and holds per-backend settings.
type BrokerConfig struct {
	Backend  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// StorageConfig selects the avatar storage backend ("minio", "gcs" or
// "none") and holds per-backend settings.
type StorageConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "warbler"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "warbler_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	brokerConfig := BrokerConfig{
		Backend: getEnv("BROKER_BACKEND", "none"),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTODELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 8),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
	}

	storageConfig := StorageConfig{
		Backend: getEnv("STORAGE_BACKEND", "none"),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "warbler-avatars"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}

	return Config{
		ServerPort:    getEnvInt("SERVER_PORT", 8080),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		Database:      dbConfig,
		Broker:        brokerConfig,
		Storage:       storageConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "1" || valueStr == "true" || valueStr == "yes"
	}
	return defaultValue
}
