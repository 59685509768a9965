package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends accepted by Storage.Backend.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		WSToken string `yaml:"ws_token"`
	} `yaml:"server"`
	Telegram struct {
		Token   string `yaml:"token"`
		Debug   bool   `yaml:"debug"`
		Timeout int    `yaml:"timeout"`
		Workers int    `yaml:"workers"`
	} `yaml:"telegram"`
	Admin struct {
		ID int64 `yaml:"id"`
	} `yaml:"admin"`
	Subjects []Subject `yaml:"subjects"`
	Storage  struct {
		Backend  string `yaml:"backend"`
		Dir      string `yaml:"dir"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Media struct {
		Dir string `yaml:"dir"`
	} `yaml:"media"`
}

// Subject is a subject offered in the menus; Title is optional.
type Subject struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title"`
}

var defaultSubjects = []Subject{
	{Name: "ingliz_tili", Title: "🇬🇧 Ingliz tili"},
	{Name: "koreys_tili", Title: "🇰🇷 Koreys tili"},
	{Name: "avto_test", Title: "🚗 Avto test"},
}

// Load reads YAML config from path. A missing file yields the defaults; environment
// variables TELEGRAM_BOT_TOKEN, ADMIN_ID, PORT and WS_TOKEN override the file.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse ADMIN_ID: %w", err)
		}
		cfg.Admin.ID = id
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("WS_TOKEN"); v != "" {
		cfg.Server.WSToken = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if len(cfg.Subjects) == 0 {
		cfg.Subjects = append([]Subject(nil), defaultSubjects...)
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFile
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "bot_data"
	}
	if cfg.Media.Dir == "" {
		cfg.Media.Dir = cfg.Storage.Dir
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "exambot"
	}
}

// SubjectNames lists the configured subject names in order.
func (c Config) SubjectNames() []string {
	names := make([]string, 0, len(c.Subjects))
	for _, s := range c.Subjects {
		names = append(names, s.Name)
	}
	return names
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
