package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/envutil"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type Config struct {
	Env     string
	Version string
	Port    string

	DBDriver   string
	SQLitePath string

	JWTSecretKey   string
	AccessTokenTTL time.Duration
	BcryptCost     int
	CookieSecure   bool

	ObjectStorageMode         string
	StorageEmulatorHost       string
	LocalStorageDir           string
	StorageModeCompatFallback bool
	PublicBaseURL             string
	VideoBucket               string
	ThumbnailBucket           string
	AvatarBucket              string
	VideoCDNDomain            string
	ThumbnailCDNDomain        string
	AvatarCDNDomain           string

	MaxVideoUploadBytes int64
	DefaultThumbnailURL string
	AvatarFont          string
	AvatarColorsPath    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	MetricsEnabled     bool
	MetricsAddr        string
	CORSAllowedOrigins []string
}

const devJWTSecret = "dev-insecure-secret"

// LoadConfig layers .env and CONFIG_FILE under the process environment;
// variables already set always win.
func LoadConfig(log *logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("Could not load .env", "error", err)
	}
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		if err := loadYAMLEnv(path); err != nil {
			return Config{}, err
		}
		log.Info("Loaded config file", "path", path)
	}

	cfg := Config{
		Env:     envutil.String("APP_ENV", "development"),
		Version: envutil.String("APP_VERSION", "dev"),
		Port:    envutil.String("PORT", "8080"),

		DBDriver:   strings.ToLower(envutil.String("DB_DRIVER", "postgres")),
		SQLitePath: envutil.String("SQLITE_PATH", "lms.db"),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", ""),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", 24*time.Hour),
		BcryptCost:     envutil.Int("BCRYPT_COST", 0),
		CookieSecure:   envutil.Bool("COOKIE_SECURE", false),

		ObjectStorageMode:   envutil.String("OBJECT_STORAGE_MODE", ""),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		LocalStorageDir:     envutil.String("LOCAL_STORAGE_DIR", "./uploads"),
		PublicBaseURL:       envutil.String("PUBLIC_BASE_URL", ""),
		VideoBucket:         envutil.String("VIDEO_GCS_BUCKET_NAME", ""),
		ThumbnailBucket:     envutil.String("THUMBNAIL_GCS_BUCKET_NAME", ""),
		AvatarBucket:        envutil.String("AVATAR_GCS_BUCKET_NAME", ""),
		VideoCDNDomain:      envutil.String("VIDEO_CDN_DOMAIN", ""),
		ThumbnailCDNDomain:  envutil.String("THUMBNAIL_CDN_DOMAIN", ""),
		AvatarCDNDomain:     envutil.String("AVATAR_CDN_DOMAIN", ""),

		MaxVideoUploadBytes: envutil.Int64("MAX_VIDEO_UPLOAD_BYTES", 500<<20),
		DefaultThumbnailURL: envutil.String("DEFAULT_THUMBNAIL_URL", types.DefaultThumbnail),
		AvatarFont:          envutil.String("AVATAR_FONT", ""),
		AvatarColorsPath:    envutil.String("AVATAR_COLORS_JSON_PATH", ""),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),
		RedisChannel:  envutil.String("REDIS_CHANNEL", "lms-events"),

		MetricsEnabled:     envutil.Bool("METRICS_ENABLED", false),
		MetricsAddr:        envutil.String("METRICS_ADDR", ":9090"),
		CORSAllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
	}
	if cfg.ObjectStorageMode == "" {
		if cfg.StorageEmulatorHost != "" {
			cfg.ObjectStorageMode = "gcs_emulator"
			cfg.StorageModeCompatFallback = true
		} else {
			cfg.ObjectStorageMode = "local"
		}
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.Port
	}

	if cfg.JWTSecretKey == "" {
		if cfg.IsProduction() {
			return Config{}, fmt.Errorf("JWT_SECRET_KEY is required when APP_ENV=production")
		}
		log.Warn("JWT_SECRET_KEY not set; using an insecure development secret")
		cfg.JWTSecretKey = devJWTSecret
	}
	if cfg.MaxVideoUploadBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_VIDEO_UPLOAD_BYTES must be positive")
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// loadYAMLEnv reads a flat YAML map and exports each key that is not
// already present in the environment. Lists become comma separated values.
func loadYAMLEnv(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	for k, v := range values {
		key := strings.ToUpper(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, yamlScalar(v)); err != nil {
			return fmt.Errorf("export %s: %w", key, err)
		}
	}
	return nil
}

func yamlScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, yamlScalar(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
