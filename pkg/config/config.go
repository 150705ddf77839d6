// Package config loads dithr settings from the environment, an optional .env
// file and YAML presets.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Fepozopo/dithr/pkg/logging"
	"github.com/Fepozopo/dithr/pkg/pipeline"
	"github.com/Fepozopo/dithr/pkg/preview"
	"github.com/Fepozopo/dithr/pkg/stdimg"
)

// Environment keys.
const (
	EnvScale     = "DITHR_SCALE"
	EnvZoom      = "DITHR_ZOOM"
	EnvBlack     = "DITHR_BLACK"
	EnvMid       = "DITHR_MID"
	EnvWhite     = "DITHR_WHITE"
	EnvPalette   = "DITHR_PALETTE"
	EnvAlgorithm = "DITHR_ALGORITHM"
	EnvDebounce  = "DITHR_DEBOUNCE"
	EnvPreset    = "DITHR_PRESET"
	EnvLogLevel  = "DITHR_LOG_LEVEL"
)

// DefaultDebounce is the quiet time before a reprocess after a parameter change.
const DefaultDebounce = 150 * time.Millisecond

// LevelSettings mirrors stdimg.Levels with wider integer fields so out-of-range
// input is reported instead of wrapping.
type LevelSettings struct {
	Black int     `yaml:"black" validate:"gte=0,lte=255"`
	Mid   float64 `yaml:"mid" validate:"gte=0.1,lte=10"`
	White int     `yaml:"white" validate:"gte=0,lte=255"`
}

// Settings is everything a session or preset can configure.
type Settings struct {
	Scale     int           `yaml:"scale" validate:"gte=5,lte=50"`
	Zoom      int           `yaml:"zoom" validate:"gte=50,lte=200"`
	Levels    LevelSettings `yaml:"levels"`
	Palette   []string      `yaml:"palette" validate:"min=1,dive,rgbhex"`
	Algorithm string        `yaml:"algorithm" validate:"required,algorithm"`
	Debounce  time.Duration `yaml:"debounce" validate:"gte=0,lte=5s"`
	LogLevel  string        `yaml:"-"`
}

// Defaults returns scale 10%, zoom 100%, identity levels, black/white, Floyd-Steinberg.
func Defaults() Settings {
	return Settings{
		Scale:     preview.DefaultScale,
		Zoom:      preview.DefaultZoom,
		Levels:    LevelSettings{Black: 0, Mid: 1.0, White: 255},
		Palette:   stdimg.DefaultPalette().Hex(),
		Algorithm: stdimg.DefaultAlgorithm,
		Debounce:  DefaultDebounce,
		LogLevel:  "info",
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func settingsValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
			_, err := stdimg.ParseHexRGB(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("algorithm", func(fl validator.FieldLevel) bool {
			_, err := stdimg.LookupAlgorithm(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// Validate checks every field and returns a readable error for the first bad one.
func (s Settings) Validate() error {
	err := settingsValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	return fmt.Errorf("invalid settings: %s", validationMessage(verrs[0]))
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	switch field {
	case "Scale":
		return fmt.Sprintf("scale must be between %d and %d percent", preview.MinScale, preview.MaxScale)
	case "Zoom":
		return fmt.Sprintf("zoom must be between %d and %d percent", preview.MinZoom, preview.MaxZoom)
	case "Black", "White":
		return fmt.Sprintf("%s point must be between 0 and 255", strings.ToLower(field))
	case "Mid":
		return fmt.Sprintf("midtone must be between %g and %g", stdimg.MinMid, stdimg.MaxMid)
	case "Palette":
		if fe.Tag() == "min" {
			return "palette needs at least one color"
		}
		return fmt.Sprintf("palette entry %v is not a #RRGGBB color", fe.Value())
	case "Algorithm":
		return fmt.Sprintf("unknown algorithm %q (have %s)", fe.Value(), strings.Join(stdimg.Algorithms(), ", "))
	case "Debounce":
		return "debounce must be between 0 and 5s"
	}
	return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
}

// Params converts validated settings into pipeline parameters.
func (s Settings) Params() (pipeline.Params, error) {
	if err := s.Validate(); err != nil {
		return pipeline.Params{}, err
	}
	pal, err := stdimg.ParsePalette(s.Palette)
	if err != nil {
		return pipeline.Params{}, err
	}
	return pipeline.Params{
		Scale: s.Scale,
		Levels: stdimg.Levels{
			Black: uint8(s.Levels.Black),
			Mid:   s.Levels.Mid,
			White: uint8(s.Levels.White),
		},
		Palette:   pal,
		Algorithm: s.Algorithm,
	}, nil
}

// WithParams returns s with the pipeline fields replaced by p.
func (s Settings) WithParams(p pipeline.Params) Settings {
	s.Scale = p.Scale
	s.Levels = LevelSettings{Black: int(p.Levels.Black), Mid: p.Levels.Mid, White: int(p.Levels.White)}
	s.Palette = p.Palette.Hex()
	s.Algorithm = p.Algorithm
	return s
}

// Load reads envFiles (or ./.env when none are given) into the process
// environment, then layers DITHR_PRESET and the DITHR_* variables over Defaults.
// A missing .env file is not an error.
func Load(envFiles ...string) (Settings, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("load env: %w", err)
	}
	s := Defaults()
	if path := Get(EnvPreset, ""); path != "" {
		p, err := LoadPreset(path)
		if err != nil {
			return Settings{}, err
		}
		s = p
	}
	s = FromEnv(s)
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// FromEnv overrides fields of base with any DITHR_* variables that are set.
func FromEnv(base Settings) Settings {
	s := base
	s.Scale = GetInt(EnvScale, s.Scale)
	s.Zoom = GetInt(EnvZoom, s.Zoom)
	s.Levels.Black = GetInt(EnvBlack, s.Levels.Black)
	s.Levels.Mid = GetFloat(EnvMid, s.Levels.Mid)
	s.Levels.White = GetInt(EnvWhite, s.Levels.White)
	s.Palette = GetList(EnvPalette, s.Palette)
	s.Algorithm = Get(EnvAlgorithm, s.Algorithm)
	s.Debounce = GetDuration(EnvDebounce, s.Debounce)
	s.LogLevel = Get(EnvLogLevel, s.LogLevel)
	return s
}

// LoadPreset reads a YAML preset. Fields missing from the file keep their defaults.
func LoadPreset(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read preset: %w", err)
	}
	s := Defaults()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse preset %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("preset %s: %w", path, err)
	}
	logging.DebugWithComponent(logging.ComponentConfig, "preset loaded", "path", path, "scale", s.Scale, "algorithm", s.Algorithm)
	return s, nil
}

// SavePreset validates s and writes it as YAML.
func SavePreset(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}
	logging.InfoWithComponent(logging.ComponentConfig, "preset written", "path", path)
	return nil
}
