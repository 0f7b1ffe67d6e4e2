package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/alnah/go-lecturequiz/internal/lang"
)

// EnvPrefix prefixes environment variables mapped onto configuration keys:
// pipeline.mcq_count is read from LECTUREQUIZ_PIPELINE_MCQ_COUNT.
const EnvPrefix = "LECTUREQUIZ"

// appName names the per-user configuration directory.
const appName = "lecturequiz"

// ErrFileNotFound indicates an explicitly requested config file is missing.
var ErrFileNotFound = errors.New("config file not found")

// Loader resolves and reads configuration sources.
type Loader struct {
	lookupEnv   func(string) (string, bool)
	envFile     string
	searchPaths []string
	exists      func(string) bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLookupEnv sets the environment lookup (for testing).
func WithLookupEnv(fn func(string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		l.lookupEnv = fn
	}
}

// WithEnvFile sets the .env file. Default: ".env" in the working directory.
// An empty path disables .env loading.
func WithEnvFile(path string) LoaderOption {
	return func(l *Loader) {
		l.envFile = path
	}
}

// WithSearchPaths replaces the config file search list used when no
// explicit file is given.
func WithSearchPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.searchPaths = paths
	}
}

// NewLoader creates a Loader reading the process environment.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		lookupEnv:   os.LookupEnv,
		envFile:     ".env",
		searchPaths: defaultSearchPaths(),
		exists:      fileExists,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load builds the configuration: defaults, then the YAML file (path, or the
// first existing search path), then .env values, then the environment. A
// missing explicit path is an error; a missing searched file is not.
func (l *Loader) Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	file, err := l.resolveFile(path)
	if err != nil {
		return Config{}, err
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	dotenv, err := l.readEnvFile()
	if err != nil {
		return Config{}, err
	}
	l.applyEnv(v, dotenv)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// File reports which config file Load would read for path, or "".
func (l *Loader) File(path string) (string, error) {
	return l.resolveFile(path)
}

func (l *Loader) resolveFile(path string) (string, error) {
	if path != "" {
		if !l.exists(path) {
			return "", fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return path, nil
	}
	for _, p := range l.searchPaths {
		if l.exists(p) {
			return p, nil
		}
	}
	return "", nil
}

func (l *Loader) readEnvFile() (map[string]string, error) {
	if l.envFile == "" || !l.exists(l.envFile) {
		return nil, nil
	}
	vals, err := godotenv.Read(l.envFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.envFile, err)
	}
	return vals, nil
}

// applyEnv overrides keys from the environment, falling back to .env
// values. Aliases apply first so prefixed variables win.
func (l *Loader) applyEnv(v *viper.Viper, dotenv map[string]string) {
	lookup := func(name string) (string, bool) {
		if val, ok := l.lookupEnv(name); ok {
			return val, true
		}
		val, ok := dotenv[name]
		return val, ok
	}

	aliases := make([]string, 0, len(envAliases))
	for name := range envAliases {
		aliases = append(aliases, name)
	}
	sort.Strings(aliases)
	for _, name := range aliases {
		if val, ok := lookup(name); ok && val != "" {
			v.Set(envAliases[name], val)
		}
	}

	for key := range defaults {
		if val, ok := lookup(EnvVar(key)); ok {
			v.Set(key, val)
		}
	}
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate checks struct constraints and cross-field rules.
func Validate(cfg Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})

	var problems []string
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}
	if _, err := lang.Parse(cfg.Language); err != nil {
		problems = append(problems, fmt.Sprintf("language: %v", err))
	}
	if p := cfg.Pipeline; p.ChunkOverlap >= p.ChunkDuration && p.ChunkDuration > 0 {
		problems = append(problems, "pipeline.chunk_overlap: must be shorter than chunk_duration")
	}
	if p := cfg.Pipeline; p.SegmentMin > p.SegmentMax && p.SegmentMax > 0 {
		problems = append(problems, "pipeline.segment_min: must not exceed segment_max")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// describe renders a field error with its dotted key.
func describe(fe validator.FieldError) string {
	// Namespace is "Config.pipeline.parallel"; drop the root type.
	_, key, _ := strings.Cut(fe.Namespace(), ".")
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s: must be one of %s", key, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required":
		return key + ": is required"
	case "url":
		return key + ": must be a URL"
	default:
		return fmt.Sprintf("%s: must be %s %s", key, fe.Tag(), fe.Param())
	}
}

// defaultSearchPaths returns ./lecturequiz.yml, ./lecturequiz.yaml and the
// per-user config file.
func defaultSearchPaths() []string {
	paths := []string{appName + ".yml", appName + ".yaml"}
	if d, err := dir(); err == nil {
		paths = append(paths, filepath.Join(d, "config.yml"))
	}
	return paths
}

// dir returns the per-user configuration directory. Uses XDG_CONFIG_HOME
// if set, otherwise ~/.config/lecturequiz.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
