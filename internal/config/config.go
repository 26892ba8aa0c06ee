package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Log struct {
		Level string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret          string
		SessionTTLMinutes  int
		CookieName         string
		CookieSecure       bool
		LoginRatePerMinute int
		LoginBurst         int
	}
	Admin struct {
		Username string
		Password string
		Name     string
	}
	Storage struct {
		Driver string
		Local  struct {
			Dir string
		}
		Bucket      string
		KeyPrefix   string
		Region      string
		Endpoint    string
		MaxUploadMB int64
	}
	AWS struct {
		Profile string
	}
}

// SessionTTL is the idle lifetime of an admin session.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Auth.SessionTTLMinutes) * time.Minute
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.path", "data/portal.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.sessionttlminutes", 30)
	v.SetDefault("auth.cookiename", "ADMIN_SESSION")
	v.SetDefault("auth.cookiesecure", false)
	v.SetDefault("auth.loginrateperminute", 10)
	v.SetDefault("auth.loginburst", 5)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.name", "Administrator")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.dir", "data/uploads")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "portal")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.maxuploadmb", 100)
	v.SetDefault("aws.profile", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth jwt secret is required (PORTAL_AUTH_JWTSECRET)")
	}
	if c.Auth.SessionTTLMinutes <= 0 {
		return fmt.Errorf("auth session ttl must be positive")
	}
	switch c.Storage.Driver {
	case "local":
		if c.Storage.Local.Dir == "" {
			return fmt.Errorf("storage local dir is required")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func loadDotEnv(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
