// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gator-social/internal/engine"
	"gator-social/internal/scoring"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int           `env:"PORT" envDefault:"8080"`
	Host           string        `env:"HOST" envDefault:"0.0.0.0"`
	MetricsEnabled bool          `env:"METRICS_ENABLED" envDefault:"true"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	JWTSecret      string        `env:"JWT_SECRET"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	Backend   string `env:"STORE_BACKEND" envDefault:"memory"`
	DSN       string `env:"STORE_DSN"`
	Namespace string `env:"STORE_NAMESPACE" envDefault:"social"`
}

// ChainConfig holds validation limits and scoring weights.
type ChainConfig struct {
	HandleMinLen   int  `env:"HANDLE_MIN_LEN" envDefault:"5"`
	HandleMaxLen   int  `env:"HANDLE_MAX_LEN" envDefault:"50"`
	ContentHashLen int  `env:"CONTENT_HASH_LEN" envDefault:"46"`
	StrictCID      bool `env:"CONTENT_HASH_STRICT_CID" envDefault:"false"`
	UsernameMinLen int  `env:"USERNAME_MIN_LEN" envDefault:"3"`
	UsernameMaxLen int  `env:"USERNAME_MAX_LEN" envDefault:"50"`

	UpvotePostWeight      int16 `env:"WEIGHT_UPVOTE_POST" envDefault:"5"`
	DownvotePostWeight    int16 `env:"WEIGHT_DOWNVOTE_POST" envDefault:"-3"`
	SharePostWeight       int16 `env:"WEIGHT_SHARE_POST" envDefault:"5"`
	CreateCommentWeight   int16 `env:"WEIGHT_CREATE_COMMENT" envDefault:"5"`
	UpvoteCommentWeight   int16 `env:"WEIGHT_UPVOTE_COMMENT" envDefault:"4"`
	DownvoteCommentWeight int16 `env:"WEIGHT_DOWNVOTE_COMMENT" envDefault:"-2"`
	ShareCommentWeight    int16 `env:"WEIGHT_SHARE_COMMENT" envDefault:"3"`
	FollowSpaceWeight     int16 `env:"WEIGHT_FOLLOW_SPACE" envDefault:"7"`
	FollowAccountWeight   int16 `env:"WEIGHT_FOLLOW_ACCOUNT" envDefault:"3"`
}

// Params converts the chain settings into engine parameters.
func (c ChainConfig) Params() engine.Params {
	return engine.Params{
		HandleMinLen:   c.HandleMinLen,
		HandleMaxLen:   c.HandleMaxLen,
		ContentHashLen: c.ContentHashLen,
		StrictCID:      c.StrictCID,
		UsernameMinLen: c.UsernameMinLen,
		UsernameMaxLen: c.UsernameMaxLen,
		Weights: scoring.Weights{
			UpvotePost:      c.UpvotePostWeight,
			DownvotePost:    c.DownvotePostWeight,
			SharePost:       c.SharePostWeight,
			CreateComment:   c.CreateCommentWeight,
			UpvoteComment:   c.UpvoteCommentWeight,
			DownvoteComment: c.DownvoteCommentWeight,
			ShareComment:    c.ShareCommentWeight,
			FollowSpace:     c.FollowSpaceWeight,
			FollowAccount:   c.FollowAccountWeight,
		},
	}
}

type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"LOG_DEV" envDefault:"false"`
}

// Config holds the complete application configuration
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Chain  ChainConfig
	Log    LogConfig
}

// LoadConfig loads a .env file if one can be found, then parses the
// environment and applies defaults.
func LoadConfig() (*Config, error) {
	envLocations := []string{
		".env",
		"../../.env", // project root when running from cmd/engine
		filepath.Join(os.Getenv("GOPATH"), "src/gator-social/.env"),
	}
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			break
		}
	}
	return Parse(env.Options{})
}

// Parse builds a Config from the process environment, or from
// opts.Environment when it is set.
func Parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "memory":
	case "sqlite", "postgres", "mongo", "redis":
		if c.Store.DSN == "" {
			return fmt.Errorf("STORE_DSN is required when STORE_BACKEND is %s", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Chain.HandleMinLen < 1 || c.Chain.HandleMinLen > c.Chain.HandleMaxLen {
		return fmt.Errorf("invalid handle length bounds %d..%d", c.Chain.HandleMinLen, c.Chain.HandleMaxLen)
	}
	if c.Chain.UsernameMinLen < 1 || c.Chain.UsernameMinLen > c.Chain.UsernameMaxLen {
		return fmt.Errorf("invalid username length bounds %d..%d", c.Chain.UsernameMinLen, c.Chain.UsernameMaxLen)
	}
	if c.Chain.ContentHashLen < 1 {
		return fmt.Errorf("CONTENT_HASH_LEN must be positive")
	}
	return nil
}
