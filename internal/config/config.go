// Package config loads the settings shared by the natded binaries: which rule
// sets to serve, search limits, logging and server options.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gitrdm/natded/pkg/calculi"
	"github.com/gitrdm/natded/pkg/natded"
)

// Config is the top-level configuration document.
//
//	rules: [rules/stlc.yaml]
//	builtin: [booleans, lambda]
//	relation_name: [⊢, ":"]
//	limits:
//	  max_depth: 512
//	  max_steps: 10000
//	log:
//	  level: info
//	  format: text
//	server:
//	  addr: ":8080"
//	batch:
//	  workers: 4
//	watch: true
type Config struct {
	// Rules lists rule-set files. Each is served under its file name
	// without extension.
	Rules []string `yaml:"rules" validate:"dive,required"`
	// Builtin lists bundled calculi to serve, by name.
	Builtin []string `yaml:"builtin" validate:"dive,calculus"`
	// RelationName names the relation of rule files that do not name one,
	// such as a bare list of rules.
	RelationName natded.Name `yaml:"relation_name" validate:"dive,required"`
	Limits  Limits   `yaml:"limits"`
	Log     Log      `yaml:"log"`
	Server  Server   `yaml:"server"`
	Batch   Batch    `yaml:"batch"`
	// Watch reloads rule files when they change on disk.
	Watch bool `yaml:"watch"`
}

// Limits bound every query. Zero means unlimited.
type Limits struct {
	MaxDepth int `yaml:"max_depth" validate:"gte=0"`
	MaxSteps int `yaml:"max_steps" validate:"gte=0"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Server configures the HTTP API.
type Server struct {
	Addr  string `yaml:"addr" validate:"required,hostname_port"`
	Debug bool   `yaml:"debug"`
}

// Batch configures batch query evaluation.
type Batch struct {
	// Workers is the pool size; zero means one per CPU.
	Workers int `yaml:"workers" validate:"gte=0"`
}

// ErrInvalid is wrapped by validation failures.
var ErrInvalid = errors.New("config: invalid")

var validate *validator.Validate

func init() {
	validate = validator.New()
	err := validate.RegisterValidation("calculus", func(fl validator.FieldLevel) bool {
		_, ok := calculi.Lookup(fl.Field().String())
		return ok
	})
	if err != nil {
		panic(fmt.Sprintf("config: registering calculus validation: %v", err))
	}
}

// Default returns the configuration used when no file is given: every
// bundled calculus, generous limits, info logging as text.
func Default() *Config {
	return &Config{
		Builtin: calculi.Names(),
		Limits:  Limits{MaxDepth: 512, MaxSteps: 10000},
		Log:     Log{Level: "info", Format: "text"},
		Server:  Server{Addr: ":8080"},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Options returns the relation options implied by the limits.
func (c *Config) Options() []natded.Option {
	return []natded.Option{
		natded.WithMaxDepth(c.Limits.MaxDepth),
		natded.WithMaxSteps(c.Limits.MaxSteps),
	}
}

// SlogLevel returns the configured slog level.
func (l Log) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a logger writing to w in the configured format.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
