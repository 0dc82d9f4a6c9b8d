package config

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Archive  ArchiveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AppConfig covers the replenishment run itself: where report extracts are
// dropped, where generated order files go, and the business parameters the
// engine takes as explicit inputs.
type AppConfig struct {
	UploadDir         string
	OutputDir         string
	Locations         []string // warehouse regions, e.g. NC, CA
	SafetyBufferDays  float64
	SalesPeriods      int    // months covered by the sales history window
	TierTablePath     string // optional JSON override for the velocity tier table
	ExcludedFile      string // flat file of excluded supplier names
	DonorLocation     string // transfer donor, e.g. "NC - Armory"
	PrimaryLocation   string // transfer recipient, e.g. "NC - Main"
	AssemblyLocations []string
	LogLevel          string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RunTTLSeconds int
}

// ArchiveConfig configures the optional S3-compatible archive for generated
// order files.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "replenishment")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
		viper.SetDefault("APP_OUTPUT_DIR", "./data/output")
		viper.SetDefault("APP_LOCATIONS", "NC,CA")
		viper.SetDefault("APP_SAFETY_BUFFER_DAYS", 3.0)
		viper.SetDefault("APP_SALES_PERIODS", 6)
		viper.SetDefault("APP_TIER_TABLE_PATH", "")
		viper.SetDefault("APP_EXCLUDED_SUPPLIERS_FILE", "./data/excluded_suppliers.txt")
		viper.SetDefault("APP_DONOR_LOCATION", "NC - Armory")
		viper.SetDefault("APP_PRIMARY_LOCATION", "NC - Main")
		viper.SetDefault("APP_ASSEMBLY_LOCATIONS", "NC - Main,NC - Armory,NC - FFL")
		viper.SetDefault("APP_LOG_LEVEL", "info")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_RUN_TTL_SECONDS", 300)
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "")
		viper.SetDefault("ARCHIVE_REGION", "us-east-1")
		viper.SetDefault("ARCHIVE_USE_SSL", true)

		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_UPLOAD_DIR"))
		ensureDir(viper.GetString("APP_OUTPUT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			App: AppConfig{
				UploadDir:         viper.GetString("APP_UPLOAD_DIR"),
				OutputDir:         viper.GetString("APP_OUTPUT_DIR"),
				Locations:         splitList(viper.GetString("APP_LOCATIONS")),
				SafetyBufferDays:  viper.GetFloat64("APP_SAFETY_BUFFER_DAYS"),
				SalesPeriods:      viper.GetInt("APP_SALES_PERIODS"),
				TierTablePath:     viper.GetString("APP_TIER_TABLE_PATH"),
				ExcludedFile:      viper.GetString("APP_EXCLUDED_SUPPLIERS_FILE"),
				DonorLocation:     viper.GetString("APP_DONOR_LOCATION"),
				PrimaryLocation:   viper.GetString("APP_PRIMARY_LOCATION"),
				AssemblyLocations: splitList(viper.GetString("APP_ASSEMBLY_LOCATIONS")),
				LogLevel:          viper.GetString("APP_LOG_LEVEL"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("CACHE_ENABLED"),
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
				RunTTLSeconds: viper.GetInt("CACHE_RUN_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				Region:    viper.GetString("ARCHIVE_REGION"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
		}
	})

	return instance
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
