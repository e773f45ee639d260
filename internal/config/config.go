package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/stepviz/internal/animation"
	"github.com/san-kum/stepviz/internal/logging"
	"github.com/san-kum/stepviz/internal/playback"
)

const (
	DefaultDataDir         = ".stepviz"
	DefaultLogLevel        = logging.LevelInfo
	DefaultBaseDelayMs     = 1000
	DefaultInitialSpeed    = 1
	DefaultDurationMs      = 300
	DefaultEasing          = "easeInOutCubic"
	DefaultMaxFrameDeltaMs = 100
	DefaultFPS             = 60
	DefaultAddr            = ":8080"
	DefaultOutputDir       = "precomputed"
	DefaultWorkers         = 4

	EnvPrefix = "STEPVIZ"
	FileName  = "stepviz.yaml"
)

type Config struct {
	DataDir    string           `yaml:"data_dir" mapstructure:"data_dir"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Playback   PlaybackConfig   `yaml:"playback" mapstructure:"playback"`
	Animation  AnimationConfig  `yaml:"animation" mapstructure:"animation"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Precompute PrecomputeConfig `yaml:"precompute" mapstructure:"precompute"`
	// Presets holds user input sets keyed by algorithm id, then preset name.
	Presets map[string]map[string]map[string]any `yaml:"presets,omitempty" mapstructure:"-"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// Dir is where stepviz.log goes. Empty logs to stderr.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

type PlaybackConfig struct {
	BaseDelayMs  int       `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	Speeds       []float64 `yaml:"speeds" mapstructure:"speeds"`
	InitialSpeed int       `yaml:"initial_speed" mapstructure:"initial_speed"`
}

type AnimationConfig struct {
	DurationMs      int    `yaml:"duration_ms" mapstructure:"duration_ms"`
	Easing          string `yaml:"easing" mapstructure:"easing"`
	MaxFrameDeltaMs int    `yaml:"max_frame_delta_ms" mapstructure:"max_frame_delta_ms"`
	FPS             int    `yaml:"fps" mapstructure:"fps"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type PrecomputeConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	Workers   int    `yaml:"workers" mapstructure:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Log:     LogConfig{Level: DefaultLogLevel},
		Playback: PlaybackConfig{
			BaseDelayMs:  DefaultBaseDelayMs,
			Speeds:       slices.Clone(playback.DefaultMultipliers),
			InitialSpeed: DefaultInitialSpeed,
		},
		Animation: AnimationConfig{
			DurationMs:      DefaultDurationMs,
			Easing:          DefaultEasing,
			MaxFrameDeltaMs: DefaultMaxFrameDeltaMs,
			FPS:             DefaultFPS,
		},
		Server:     ServerConfig{Addr: DefaultAddr},
		Precompute: PrecomputeConfig{OutputDir: DefaultOutputDir, Workers: DefaultWorkers},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("playback.base_delay_ms", d.Playback.BaseDelayMs)
	v.SetDefault("playback.speeds", d.Playback.Speeds)
	v.SetDefault("playback.initial_speed", d.Playback.InitialSpeed)
	v.SetDefault("animation.duration_ms", d.Animation.DurationMs)
	v.SetDefault("animation.easing", d.Animation.Easing)
	v.SetDefault("animation.max_frame_delta_ms", d.Animation.MaxFrameDeltaMs)
	v.SetDefault("animation.fps", d.Animation.FPS)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("precompute.output_dir", d.Precompute.OutputDir)
	v.SetDefault("precompute.workers", d.Precompute.Workers)
}

// Load layers defaults, the YAML file at path (optional; "" skips it) and
// STEPVIZ_* environment variables, then validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	// viper folds map keys to lower case, which would break camelCase input
	// names, so presets are read straight from the file.
	if path != "" {
		presets, err := readPresets(path)
		if err != nil {
			return nil, err
		}
		cfg.Presets = presets
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

func readPresets(path string) (map[string]map[string]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc struct {
		Presets map[string]map[string]map[string]any `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse presets in %s: %w", path, err)
	}
	return doc.Presets, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ValidationError is one rejected field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

var ErrInvalid = errors.New("config: invalid")

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return "config: " + e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "config: %d validation errors:", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Error())
	}
	return sb.String()
}

func (e ValidationErrors) Unwrap() error { return ErrInvalid }

func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	switch strings.ToUpper(c.Log.Level) {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		add("log.level", c.Log.Level, "must be one of DEBUG, INFO, WARN, ERROR")
	}

	if c.Playback.BaseDelayMs <= 0 {
		add("playback.base_delay_ms", c.Playback.BaseDelayMs, "must be positive")
	}
	if len(c.Playback.Speeds) == 0 {
		add("playback.speeds", c.Playback.Speeds, "must not be empty")
	}
	for i, s := range c.Playback.Speeds {
		if s <= 0 {
			add(fmt.Sprintf("playback.speeds[%d]", i), s, "must be positive")
		}
	}
	if c.Playback.InitialSpeed < 0 || c.Playback.InitialSpeed >= max(len(c.Playback.Speeds), 1) {
		add("playback.initial_speed", c.Playback.InitialSpeed, "must index into playback.speeds")
	}

	if c.Animation.DurationMs < 0 {
		add("animation.duration_ms", c.Animation.DurationMs, "must not be negative")
	}
	if _, err := animation.EasingByName(c.Animation.Easing); err != nil {
		add("animation.easing", c.Animation.Easing, "must be one of "+strings.Join(animation.EasingNames(), ", "))
	}
	if c.Animation.MaxFrameDeltaMs <= 0 {
		add("animation.max_frame_delta_ms", c.Animation.MaxFrameDeltaMs, "must be positive")
	}
	if c.Animation.FPS < 1 || c.Animation.FPS > 240 {
		add("animation.fps", c.Animation.FPS, "must be between 1 and 240")
	}

	if c.Precompute.Workers < 1 {
		add("precompute.workers", c.Precompute.Workers, "must be at least 1")
	}
	return errs
}

// PlaybackSpeeds converts the playback section into controller speed tiers.
func (c *Config) PlaybackSpeeds() ([]playback.SpeedTier, error) {
	return playback.Tiers(time.Duration(c.Playback.BaseDelayMs)*time.Millisecond, c.Playback.Speeds...)
}

func (c *Config) AnimationConfig() (animation.Config, error) {
	easing, err := animation.EasingByName(c.Animation.Easing)
	if err != nil {
		return animation.Config{}, err
	}
	return animation.Config{
		Duration:      time.Duration(c.Animation.DurationMs) * time.Millisecond,
		Easing:        easing,
		MaxFrameDelta: time.Duration(c.Animation.MaxFrameDeltaMs) * time.Millisecond,
	}, nil
}

func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Animation.FPS)
}
