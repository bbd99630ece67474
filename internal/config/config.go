package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Http               Http       `yaml:"http"`
	Mongo              Mongo      `yaml:"mongo"`
	Pagination         Pagination `yaml:"pagination"`
	Auth               Auth       `yaml:"auth"`
	Upload             Upload     `yaml:"upload"`
	Log                Log        `yaml:"log"`
	Validation         Validation `yaml:"validation"`
	RateLimit          RateLimit  `yaml:"rate_limit"`
	SecureCookies      bool       `yaml:"secure_cookies"`
	CORSAllowedOrigins []string   `yaml:"cors_allowed_origins"`
}

type Http struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Mongo struct {
	Database         string        `yaml:"database" validate:"required"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	OperationTimeout time.Duration `yaml:"operation_timeout"`
	UseTransactions  bool          `yaml:"use_transactions"` // needs a replica set
}

type Pagination struct {
	ThreadsPerPage     int `yaml:"threads_per_page"`
	UsersPerPage       int `yaml:"users_per_page"`
	CommunitiesPerPage int `yaml:"communities_per_page"`
	ActivityLimit      int `yaml:"activity_limit"`
}

type Auth struct {
	SignInURL     string `yaml:"sign_in_url" validate:"required"`
	SessionCookie string `yaml:"session_cookie"`
	Algorithm     string `yaml:"algorithm" validate:"oneof=RS256 HS256"`
}

type Upload struct {
	Backend          string   `yaml:"backend" validate:"oneof=fs hosted"`
	Endpoint         string   `yaml:"endpoint" validate:"required_if=Backend hosted"`
	MediaPath        string   `yaml:"media_path" validate:"required_if=Backend fs"`
	MediaURLPrefix   string   `yaml:"media_url_prefix"`
	MaxFileSize      int64    `yaml:"max_file_size" validate:"gt=0"`
	AllowedMimeTypes []string `yaml:"allowed_mime_types" validate:"required,min=1"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Validation holds length bounds shared by the action layer and the templates.
type Validation struct {
	ThreadTextMinLen int `yaml:"thread_text_min_len"`
	ThreadTextMaxLen int `yaml:"thread_text_max_len"`
	NameMinLen       int `yaml:"name_min_len"`
	NameMaxLen       int `yaml:"name_max_len"`
	BioMaxLen        int `yaml:"bio_max_len"`
}

// RateLimit bounds writes (posts, comments, profile updates, uploads) per visitor.
type RateLimit struct {
	Rate           float64       `yaml:"rate"` // tokens per second
	Burst          int           `yaml:"burst"`
	IdleExpiration time.Duration `yaml:"idle_expiration"`
}

type Private struct {
	MongoURI      string `yaml:"mongo_uri" validate:"required"`
	SessionKey    string `yaml:"session_key" validate:"required"` // PEM public key for RS256, shared secret for HS256
	WebhookSecret string `yaml:"webhook_secret"`
	UploadAPIKey  string `yaml:"upload_api_key"`
}

func mustLoadPath(configPath string, output interface{}) {
	if err := loadPath(configPath, output); err != nil {
		panic(err.Error())
	}
}

func loadPath(configPath string, output interface{}) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("can't read config file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		return fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	return nil
}

// Load reads public.yaml and private.yaml from configFolder, applies .env and
// environment overrides, fills defaults and validates the result.
func Load(configFolder string) (*Config, error) {
	// .env is optional, real environment wins over it
	if err := godotenv.Load(path.Join(configFolder, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("can't load .env: %w", err)
	}

	var public Public
	if err := loadPath(path.Join(configFolder, "public.yaml"), &public); err != nil {
		return nil, err
	}

	// private.yaml may be absent when every secret comes from the environment
	var private Private
	privatePath := path.Join(configFolder, "private.yaml")
	if _, err := os.Stat(privatePath); err == nil {
		if err := loadPath(privatePath, &private); err != nil {
			return nil, err
		}
	}

	cfg := &Config{Public: public, Private: private}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad(configFolder string) *Config {
	cfg, err := Load(configFolder)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Private.MongoURI, "MONGODB_URL")
	setFromEnv(&c.Private.SessionKey, "SESSION_KEY")
	setFromEnv(&c.Private.WebhookSecret, "WEBHOOK_SECRET")
	setFromEnv(&c.Private.UploadAPIKey, "UPLOAD_API_KEY")
	setFromEnv(&c.Public.Log.Level, "LOG_LEVEL")
	if port := os.Getenv("PORT"); port != "" {
		c.Public.Http.Addr = ":" + port
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	p := &c.Public
	if p.Http.ReadTimeout == 0 {
		p.Http.ReadTimeout = 15 * time.Second
	}
	if p.Http.WriteTimeout == 0 {
		p.Http.WriteTimeout = 30 * time.Second
	}
	if p.Http.ShutdownTimeout == 0 {
		p.Http.ShutdownTimeout = 10 * time.Second
	}
	if p.Mongo.ConnectTimeout == 0 {
		p.Mongo.ConnectTimeout = 10 * time.Second
	}
	if p.Mongo.OperationTimeout == 0 {
		p.Mongo.OperationTimeout = 5 * time.Second
	}
	if p.Pagination.ThreadsPerPage == 0 {
		p.Pagination.ThreadsPerPage = 30
	}
	if p.Pagination.UsersPerPage == 0 {
		p.Pagination.UsersPerPage = 25
	}
	if p.Pagination.CommunitiesPerPage == 0 {
		p.Pagination.CommunitiesPerPage = 25
	}
	if p.Pagination.ActivityLimit == 0 {
		p.Pagination.ActivityLimit = 50
	}
	if p.Auth.SessionCookie == "" {
		p.Auth.SessionCookie = "__session"
	}
	if p.Auth.Algorithm == "" {
		p.Auth.Algorithm = "RS256"
	}
	if p.Upload.Backend == "" {
		p.Upload.Backend = "fs"
	}
	if p.Upload.MediaURLPrefix == "" {
		p.Upload.MediaURLPrefix = "/media/"
	}
	if p.Upload.MaxFileSize == 0 {
		p.Upload.MaxFileSize = 4 << 20 // 4MB, same as the hosted uploader's image route
	}
	v := &p.Validation
	if v.ThreadTextMinLen == 0 {
		v.ThreadTextMinLen = 3
	}
	if v.ThreadTextMaxLen == 0 {
		v.ThreadTextMaxLen = 10_000
	}
	if v.NameMinLen == 0 {
		v.NameMinLen = 3
	}
	if v.NameMaxLen == 0 {
		v.NameMaxLen = 30
	}
	if v.BioMaxLen == 0 {
		v.BioMaxLen = 1000
	}
	rl := &p.RateLimit
	if rl.Rate == 0 {
		rl.Rate = 1
	}
	if rl.Burst == 0 {
		rl.Burst = 10
	}
	if rl.IdleExpiration == 0 {
		rl.IdleExpiration = 10 * time.Minute
	}
}

func (c *Config) validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	var fields []string
	for _, s := range []any{c.Public, c.Private} {
		err := validate.Struct(s)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config validation: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
	}
	if c.Public.Upload.Backend == "hosted" && c.Private.UploadAPIKey == "" {
		fields = append(fields, "Private.UploadAPIKey (required for hosted uploads)")
	}
	if len(fields) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
	}
	return nil
}
