package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/parisxmas/OxiDB/OxiWL/internal/form"
)

// PathEnv names the config file when no --config flag is given.
const PathEnv = "OXIWL_CONFIG"

type Config struct {
	GelfAddr string        `toml:"gelf_addr" yaml:"gelf_addr"`
	API      APIConfig     `toml:"api" yaml:"api"`
	OxiDB    OxiDBConfig   `toml:"oxidb" yaml:"oxidb"`
	Console  ConsoleConfig `toml:"console" yaml:"console"`
}

type APIConfig struct {
	Addr        string        `toml:"addr" yaml:"addr" validate:"required"`
	JWTSecret   string        `toml:"jwt_secret" yaml:"jwt_secret" validate:"required,min=8"`
	TokenTTL    time.Duration `toml:"token_ttl" yaml:"token_ttl" validate:"gt=0"`
	AdminEmail  string        `toml:"admin_email" yaml:"admin_email" validate:"required,email"`
	AdminPass   string        `toml:"admin_pass" yaml:"admin_pass" validate:"required,min=6"`
	CORSOrigins []string      `toml:"cors_origins" yaml:"cors_origins"`
}

type OxiDBConfig struct {
	Host     string        `toml:"host" yaml:"host" validate:"required"`
	Port     int           `toml:"port" yaml:"port" validate:"min=1,max=65535"`
	PoolSize int           `toml:"pool_size" yaml:"pool_size" validate:"min=1"`
	Timeout  time.Duration `toml:"timeout" yaml:"timeout" validate:"gt=0"`
}

type ConsoleConfig struct {
	Addr          string        `toml:"addr" yaml:"addr" validate:"required"`
	APIURL        string        `toml:"api_url" yaml:"api_url" validate:"required,url"`
	APITimeout    time.Duration `toml:"api_timeout" yaml:"api_timeout" validate:"gt=0"`
	SessionTTL    time.Duration `toml:"session_ttl" yaml:"session_ttl" validate:"gt=0"`
	SecureCookies bool          `toml:"secure_cookies" yaml:"secure_cookies"`
	PageLimit     int           `toml:"page_limit" yaml:"page_limit" validate:"min=1"`
	Dashboard     PageConfig    `toml:"dashboard" yaml:"dashboard"`
	AuditLog      PageConfig    `toml:"audit_log" yaml:"audit_log"`
}

// PageConfig controls one paginated console page.
type PageConfig struct {
	PageSize int  `toml:"page_size" yaml:"page_size" validate:"min=1,max=100"`
	Loader   bool `toml:"loader" yaml:"loader"`
	Toasts   bool `toml:"toasts" yaml:"toasts"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		API: APIConfig{
			Addr:        ":8080",
			JWTSecret:   "oxiwl-dev-secret-change-me",
			TokenTTL:    24 * time.Hour,
			AdminEmail:  "admin@oxiwl.dev",
			AdminPass:   "admin123",
			CORSOrigins: []string{"*"},
		},
		OxiDB: OxiDBConfig{
			Host:     "127.0.0.1",
			Port:     4444,
			PoolSize: 3,
			Timeout:  5 * time.Second,
		},
		Console: ConsoleConfig{
			Addr:       ":8081",
			APIURL:     "http://127.0.0.1:8080",
			APITimeout: 15 * time.Second,
			SessionTTL: 12 * time.Hour,
			PageLimit:  3,
			Dashboard:  PageConfig{PageSize: 2},
			AuditLog:   PageConfig{PageSize: 10, Loader: true, Toasts: true},
		},
	}
}

// Load builds the configuration from the defaults, then the file at path
// (or $OXIWL_CONFIG), then the environment. Later sources win.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays a TOML or YAML file, chosen by extension. Keys missing
// from the file keep their current value.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml", "":
		_, err = toml.Decode(string(data), c)
	default:
		return fmt.Errorf("config: %s: unsupported format %q", path, filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.GelfAddr = getEnv("OXIWL_GELF_ADDR", c.GelfAddr)

	c.API.Addr = getEnv("OXIWL_ADDR", c.API.Addr)
	c.API.JWTSecret = getEnv("OXIWL_JWT_SECRET", c.API.JWTSecret)
	c.API.TokenTTL = getEnvDuration("OXIWL_TOKEN_TTL", c.API.TokenTTL)
	c.API.AdminEmail = getEnv("OXIWL_ADMIN_EMAIL", c.API.AdminEmail)
	c.API.AdminPass = getEnv("OXIWL_ADMIN_PASS", c.API.AdminPass)
	c.API.CORSOrigins = getEnvList("OXIWL_CORS_ORIGINS", c.API.CORSOrigins)

	c.OxiDB.Host = getEnv("OXIDB_HOST", c.OxiDB.Host)
	c.OxiDB.Port = getEnvInt("OXIDB_PORT", c.OxiDB.Port)
	c.OxiDB.PoolSize = getEnvInt("OXIWL_POOL_SIZE", c.OxiDB.PoolSize)
	c.OxiDB.Timeout = getEnvDuration("OXIWL_OXIDB_TIMEOUT", c.OxiDB.Timeout)

	c.Console.Addr = getEnv("OXIWL_CONSOLE_ADDR", c.Console.Addr)
	c.Console.APIURL = getEnv("OXIWL_API_URL", c.Console.APIURL)
	c.Console.APITimeout = getEnvDuration("OXIWL_API_TIMEOUT", c.Console.APITimeout)
	c.Console.SessionTTL = getEnvDuration("OXIWL_SESSION_TTL", c.Console.SessionTTL)
	c.Console.SecureCookies = getEnvBool("OXIWL_SECURE_COOKIES", c.Console.SecureCookies)
	c.Console.PageLimit = getEnvInt("OXIWL_PAGE_LIMIT", c.Console.PageLimit)
	c.Console.Dashboard = getEnvPage("OXIWL_DASHBOARD", c.Console.Dashboard)
	c.Console.AuditLog = getEnvPage("OXIWL_AUDIT", c.Console.AuditLog)
}

var validate = validator.New()

// Validate rejects configurations the servers cannot start with.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	// The admin signs in through the same form rules as every operator.
	if err := form.Validate(form.EmailRule(), c.API.AdminEmail); err != nil {
		return fmt.Errorf("config: admin_email %q: %w", c.API.AdminEmail, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvPage(prefix string, p PageConfig) PageConfig {
	p.PageSize = getEnvInt(prefix+"_PAGE_SIZE", p.PageSize)
	p.Loader = getEnvBool(prefix+"_LOADER", p.Loader)
	p.Toasts = getEnvBool(prefix+"_TOASTS", p.Toasts)
	return p
}
