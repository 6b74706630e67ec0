package service

import (
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	ProviderSupabase = "supabase"
	ProviderLocal    = "local"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Config struct {
	Environment string
	Port        string
	BaseURL     string
	// Provider selects the identity and data backend: supabase or local.
	Provider string

	Supabase struct {
		URL     string
		AnonKey string
	}

	Session struct {
		Secret        string
		Store         string
		RedisAddr     string
		RedisPassword string
	}

	Recommender struct {
		URL     string
		Timeout time.Duration
	}

	Upload struct {
		MaxSize int64
		// Dir is served read-only under /uploads
		Dir string
	}

	Local struct {
		DBPath    string
		BlobURL   string
		JWTSecret string
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig reads an optional .env file and then the process environment.
// Values already present in the environment win over .env.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "load %s", f)
		}
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(key), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	config := &Config{
		Environment: getString(k, "environment", "development"),
		Port:        k.String("port"),
		Provider:    strings.ToLower(getString(k, "provider", ProviderSupabase)),
	}
	config.BaseURL = getString(k, "base_url", "http://localhost:"+config.Port)

	// Supabase
	config.Supabase.URL = k.String("supabase_url")
	config.Supabase.AnonKey = k.String("supabase_anon_key")

	// Sessions
	config.Session.Secret = k.String("session_secret")
	config.Session.Store = strings.ToLower(getString(k, "session_store", SessionStoreMemory))
	config.Session.RedisAddr = k.String("redis_addr")
	config.Session.RedisPassword = k.String("redis_password")

	// Recommendation service
	config.Recommender.URL = k.String("flask_server_url")
	config.Recommender.Timeout = 7 * time.Second
	if v := k.String("recommender_timeout"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid RECOMMENDER_TIMEOUT %q", v)
		}
		config.Recommender.Timeout = d
	}

	// Upload
	config.Upload.MaxSize = 10 << 20 // 10MB default
	if size := k.Int64("upload_max_size"); size > 0 {
		config.Upload.MaxSize = size
	}
	config.Upload.Dir = getString(k, "upload_dir", "./uploads")

	// Local backend
	config.Local.DBPath = getString(k, "local_db_path", "./data/snapgram.db")
	config.Local.BlobURL = getString(k, "local_blob_url", "file://./data/blobs")
	config.Local.JWTSecret = k.String("local_jwt_secret")
	if config.Local.JWTSecret == "" && !config.IsProduction() {
		config.Local.JWTSecret = "development-secret"
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	var missing []string
	require := func(key, value string) {
		if value == "" {
			missing = append(missing, key)
		}
	}

	require("PORT", c.Port)
	require("SESSION_SECRET", c.Session.Secret)
	require("FLASK_SERVER_URL", c.Recommender.URL)

	switch c.Provider {
	case ProviderSupabase:
		require("SUPABASE_URL", c.Supabase.URL)
		require("SUPABASE_ANON_KEY", c.Supabase.AnonKey)
	case ProviderLocal:
		require("LOCAL_JWT_SECRET", c.Local.JWTSecret)
	default:
		return fmt.Errorf("unknown PROVIDER %q (want %s or %s)", c.Provider, ProviderSupabase, ProviderLocal)
	}

	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		require("REDIS_ADDR", c.Session.RedisAddr)
	default:
		return fmt.Errorf("unknown SESSION_STORE %q (want %s or %s)", c.Session.Store, SessionStoreMemory, SessionStoreRedis)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getString(k *koanf.Koanf, key, defaultValue string) string {
	if value := k.String(key); value != "" {
		return value
	}
	return defaultValue
}
