package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/san-kum/stepviz/internal/generator"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %s, want %s", cfg.DataDir, DefaultDataDir)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}

	speeds, err := cfg.PlaybackSpeeds()
	if err != nil {
		t.Fatalf("PlaybackSpeeds() error = %v", err)
	}
	if len(speeds) != 4 || speeds[1].Delay != time.Second {
		t.Errorf("PlaybackSpeeds() = %+v, want four tiers with 1x at 1s", speeds)
	}

	anim, err := cfg.AnimationConfig()
	if err != nil {
		t.Fatalf("AnimationConfig() error = %v", err)
	}
	if anim.Duration != 300*time.Millisecond || anim.MaxFrameDelta != 100*time.Millisecond {
		t.Errorf("AnimationConfig() = %+v", anim)
	}
	if got := cfg.FrameInterval(); got != time.Second/60 {
		t.Errorf("FrameInterval() = %v, want %v", got, time.Second/60)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	body := `
data_dir: runs
animation:
  easing: linear
  duration_ms: 500
playback:
  speeds: [1, 3]
  initial_speed: 0
presets:
  self-attention:
    fourTokens:
      tokens: [a, b, c, d]
      embeddingDim: 8
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STEPVIZ_SERVER_ADDR", ":9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "runs" {
		t.Errorf("DataDir = %s, want runs", cfg.DataDir)
	}
	if cfg.Animation.Easing != "linear" || cfg.Animation.DurationMs != 500 {
		t.Errorf("Animation = %+v", cfg.Animation)
	}
	if cfg.Animation.FPS != DefaultFPS {
		t.Errorf("FPS = %d, want default %d", cfg.Animation.FPS, DefaultFPS)
	}
	if !reflect.DeepEqual(cfg.Playback.Speeds, []float64{1, 3}) {
		t.Errorf("Speeds = %v, want [1 3]", cfg.Playback.Speeds)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %s, want :9999 from env", cfg.Server.Addr)
	}
	if _, ok := cfg.Presets["self-attention"]["fourTokens"]["embeddingDim"]; !ok {
		t.Errorf("Presets = %v, want camelCase keys preserved", cfg.Presets)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	body := "animation:\n  easing: bouncy\nplayback:\n  initial_speed: 9\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Load() error = %v, want ErrInvalid", err)
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Errorf("Load() error = %v, want 2 validation errors", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil, want error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := DefaultConfig()
	cfg.Server.Addr = ":7000"
	cfg.Presets = map[string]map[string]map[string]any{
		"bubble-sort": {"short": {"array": []any{3, 1, 2}}},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %s, want :7000", got.Server.Addr)
	}
	if len(got.Presets["bubble-sort"]["short"]["array"].([]any)) != 3 {
		t.Errorf("Presets = %v", got.Presets)
	}
}

var meta = generator.Metadata{
	ID:       "bubble-sort",
	Defaults: generator.Inputs{"array": []int{5, 1, 4}},
	Examples: []generator.Example{
		{Name: "sorted", Inputs: generator.Inputs{"array": []int{1, 2, 3}}},
	},
}

func TestPreset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Presets = map[string]map[string]map[string]any{
		"bubble-sort": {
			"mine":   {"array": []any{9, 8}},
			"sorted": {"array": []any{0}},
		},
	}

	tests := []struct {
		name string
		want []any
	}{
		{"", []any{5, 1, 4}},
		{"default", []any{5, 1, 4}},
		{"sorted", []any{1, 2, 3}},
		{"mine", []any{9, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := cfg.Preset(meta, tt.name)
			if err != nil {
				t.Fatalf("Preset() error = %v", err)
			}
			if !reflect.DeepEqual(in["array"], tt.want) {
				t.Errorf("Preset(%q) array = %v, want %v", tt.name, in["array"], tt.want)
			}
		})
	}

	if _, err := cfg.Preset(meta, "missing"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("Preset() error = %v, want ErrUnknownPreset", err)
	}
}

func TestListPresets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Presets = map[string]map[string]map[string]any{"bubble-sort": {"mine": {}, "sorted": {}}}

	want := []string{"default", "mine", "sorted"}
	if got := cfg.ListPresets(meta); !reflect.DeepEqual(got, want) {
		t.Errorf("ListPresets() = %v, want %v", got, want)
	}

	var none *Config
	if got := none.ListPresets(meta); !reflect.DeepEqual(got, []string{"default", "sorted"}) {
		t.Errorf("nil ListPresets() = %v", got)
	}
}
