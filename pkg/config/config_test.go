package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Fepozopo/dithr/pkg/stdimg"
)

var allKeys = []string{EnvScale, EnvZoom, EnvBlack, EnvMid, EnvWhite, EnvPalette,
	EnvAlgorithm, EnvDebounce, EnvPreset, EnvLogLevel}

// clearEnv unsets keys for the duration of the test and restores them afterwards.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
		t.Setenv(k+"_FILE", "")
		os.Unsetenv(k + "_FILE")
	}
}

func TestDefaultsAreValid(t *testing.T) {
	s := Defaults()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	p, err := s.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.Scale != 10 || !p.Levels.IsIdentity() || len(p.Palette) != 2 || p.Algorithm != stdimg.DefaultAlgorithm {
		t.Fatalf("unexpected default params %+v", p)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"scale low", func(s *Settings) { s.Scale = 4 }, "scale"},
		{"scale high", func(s *Settings) { s.Scale = 51 }, "scale"},
		{"zoom", func(s *Settings) { s.Zoom = 250 }, "zoom"},
		{"black", func(s *Settings) { s.Levels.Black = 300 }, "black point"},
		{"mid", func(s *Settings) { s.Levels.Mid = 0.05 }, "midtone"},
		{"empty palette", func(s *Settings) { s.Palette = nil }, "at least one"},
		{"bad color", func(s *Settings) { s.Palette = []string{"#000000", "#12345"} }, "#12345"},
		{"algorithm", func(s *Settings) { s.Algorithm = "atkinson" }, "unknown algorithm"},
		{"debounce", func(s *Settings) { s.Debounce = 10 * time.Second }, "debounce"},
	}
	for _, c := range cases {
		s := Defaults()
		c.mutate(&s)
		err := s.Validate()
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: Validate() = %v; want error containing %q", c.name, err, c.want)
		}
	}
}

func TestGetFileIndirection(t *testing.T) {
	clearEnv(t, EnvScale)
	path := filepath.Join(t.TempDir(), "scale")
	if err := os.WriteFile(path, []byte(" 25\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvScale+"_FILE", path)
	if got := GetInt(EnvScale, 10); got != 25 {
		t.Fatalf("GetInt via _FILE = %d; want 25", got)
	}
	t.Setenv(EnvScale, "30")
	if got := GetInt(EnvScale, 10); got != 30 {
		t.Fatalf("direct value should win, got %d", got)
	}
}

func TestEnvReaders(t *testing.T) {
	clearEnv(t, "DITHR_TEST_X")
	if GetFloat("DITHR_TEST_X", 1.5) != 1.5 || GetBool("DITHR_TEST_X", true) != true {
		t.Fatalf("unset keys should return defaults")
	}
	t.Setenv("DITHR_TEST_X", "nope")
	if GetInt("DITHR_TEST_X", 7) != 7 || GetDuration("DITHR_TEST_X", time.Second) != time.Second {
		t.Fatalf("unparsable values should return defaults")
	}
	t.Setenv("DITHR_TEST_X", "250")
	if GetDuration("DITHR_TEST_X", 0) != 250*time.Millisecond {
		t.Fatalf("bare integers are milliseconds")
	}
	t.Setenv("DITHR_TEST_X", "2s")
	if GetDuration("DITHR_TEST_X", 0) != 2*time.Second {
		t.Fatalf("duration strings should parse")
	}
	t.Setenv("DITHR_TEST_X", " #000000, ,#ffffff ")
	if got := GetList("DITHR_TEST_X", nil); len(got) != 2 || got[1] != "#ffffff" {
		t.Fatalf("GetList = %v", got)
	}
	t.Setenv("DITHR_TEST_X", "YES")
	if !GetBool("DITHR_TEST_X", false) {
		t.Fatalf("GetBool should accept YES")
	}
}

func TestLoadFromDotEnv(t *testing.T) {
	clearEnv(t, allKeys...)
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	content := "DITHR_SCALE=20\nDITHR_MID=2.5\nDITHR_PALETTE=\"#000000,#ff0000,#ffffff\"\nDITHR_DEBOUNCE=50ms\n"
	if err := os.WriteFile(env, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	s, err := Load(env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Scale != 20 || s.Levels.Mid != 2.5 || len(s.Palette) != 3 || s.Debounce != 50*time.Millisecond {
		t.Fatalf("unexpected settings %+v", s)
	}
	if s.Zoom != 100 {
		t.Fatalf("unset keys keep defaults, zoom=%d", s.Zoom)
	}
}

func TestLoadMissingDotEnvIsFine(t *testing.T) {
	clearEnv(t, allKeys...)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	clearEnv(t, allKeys...)
	t.Setenv(EnvScale, "70")
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Fatalf("scale 70 should fail validation")
	}
}

func TestPresetSaveLoad(t *testing.T) {
	clearEnv(t, allKeys...)
	path := filepath.Join(t.TempDir(), "warm.yaml")
	s := Defaults()
	s.Scale = 35
	s.Levels = LevelSettings{Black: 10, Mid: 1.8, White: 240}
	s.Palette = []string{"#1a1a1a", "#f0e0c0"}
	if err := SavePreset(path, s); err != nil {
		t.Fatalf("SavePreset: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "debounce: 150ms") {
		t.Fatalf("durations should be written as strings:\n%s", data)
	}

	t.Setenv(EnvPreset, path)
	t.Setenv(EnvWhite, "250")
	got, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	if err != nil {
		t.Fatalf("Load with preset: %v", err)
	}
	if got.Scale != 35 || got.Levels.Black != 10 || got.Levels.White != 250 || got.Palette[1] != "#f0e0c0" {
		t.Fatalf("preset not applied or env did not override: %+v", got)
	}
}

func TestLoadPresetPartialAndInvalid(t *testing.T) {
	dir := t.TempDir()
	partial := filepath.Join(dir, "partial.yaml")
	_ = os.WriteFile(partial, []byte("scale: 15\n"), 0o600)
	s, err := LoadPreset(partial)
	if err != nil || s.Scale != 15 || s.Zoom != 100 || len(s.Palette) != 2 {
		t.Fatalf("partial preset = %+v, %v", s, err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("palette: []\n"), 0o600)
	if _, err := LoadPreset(bad); err == nil {
		t.Fatalf("empty palette preset should fail")
	}
	if _, err := LoadPreset(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("missing preset should fail")
	}
}

func TestWithParamsRoundTrip(t *testing.T) {
	s := Defaults()
	p, _ := s.Params()
	p.Scale = 40
	p.Levels.Mid = 3
	s2 := s.WithParams(p)
	if s2.Scale != 40 || s2.Levels.Mid != 3 || s2.Zoom != s.Zoom {
		t.Fatalf("WithParams = %+v", s2)
	}
}
