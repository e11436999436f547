package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Mode string
	Addr string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// LocalDBPath is the SQLite file backing the offline mirror.
	LocalDBPath string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaGroupID string

	ESAddress  string
	ESUser     string
	ESPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string

	JWTSecret   string
	CORSOrigins []string

	SMTPAddr    string
	SMTPHost    string
	EmailFrom   string
	EmailPass   string
	TemplateDir string

	PageSize int
}

// Load reads .env when present and then the process environment.
// It reports whether a .env file was found.
func Load() (Config, bool) {
	found := godotenv.Load() == nil
	return Config{
		Mode: str("APP_MODE", "dev"),
		Addr: str("HTTP_ADDR", ":8080"),

		DBHost:     str("DB_HOST", "localhost"),
		DBUser:     str("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     str("DB_NAME", "sowp"),
		DBPort:     str("DB_PORT", "5432"),

		LocalDBPath: str("LOCAL_DB_PATH", "offline.db"),

		RedisAddr:     str("REDIS_URL", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers: list("KAFKA_ADDRESS", "localhost:9092"),
		KafkaGroupID: str("KAFKA_GROUP_ID", "notifications-consumer-group"),

		ESAddress:  str("ES", "http://localhost:9200"),
		ESUser:     str("ES_USER", "elastic"),
		ESPassword: os.Getenv("PASS_ES"),

		MinioEndpoint:  str("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: str("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: str("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    str("MINIO_BUCKET", "profile-photos"),

		JWTSecret:   os.Getenv("SECRET"),
		CORSOrigins: list("CORS_ORIGINS", "http://localhost:5176"),

		SMTPAddr:    os.Getenv("SMTP_ADDR"),
		SMTPHost:    os.Getenv("SMTP"),
		EmailFrom:   os.Getenv("EMAIL"),
		EmailPass:   os.Getenv("EMAILPASS"),
		TemplateDir: str("PATH_TO_HTML", "templates"),

		PageSize: integer("PAGE_SIZE", 10),
	}, found
}

func str(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func integer(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return def
	}
	return i
}

func list(name, def string) []string {
	var out []string
	for _, part := range strings.Split(str(name, def), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
