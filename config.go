package texcache

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the file form of the device options.
//
// Example file:
//
//	[device]
//	backend = "software"
//	width = 640
//	height = 480
//	no_filtering = true
//	min_tex_size = 8
//
//	[log]
//	level = "debug"
//	format = "text"
type Config struct {
	Device DeviceConfig `toml:"device"`
	Log    LogConfig    `toml:"log"`
}

// DeviceConfig maps onto DeviceOptions. Pointer fields are optional; nil
// keeps the backend's capability.
type DeviceConfig struct {
	Backend             string `toml:"backend"`
	Width               int    `toml:"width"`
	Height              int    `toml:"height"`
	NoFiltering         bool   `toml:"no_filtering"`
	MinTexSize          *int   `toml:"min_tex_size"`
	MaxMipLevel         *int   `toml:"max_mip_level"`
	ReleaseSourcePixels bool   `toml:"release_source_pixels"`
	MaxResidentTextures int    `toml:"max_resident_textures"`
	DumpDir             string `toml:"dump_dir"`
}

// LogConfig selects the log level ("debug", "info", "warn", "error") and
// format ("text", "json"). An empty level disables logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns a 640x480 configuration on the default backend.
func DefaultConfig() Config {
	return Config{
		Device: DeviceConfig{Width: 640, Height: 480},
		Log:    LogConfig{Format: "text"},
	}
}

// LoadConfig reads a TOML file over DefaultConfig. Unknown keys are an
// error.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("texcache: load config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, fmt.Errorf("texcache: load config %s: %w", path, err)
	}
	return c, c.validate()
}

// ParseConfig parses TOML text over DefaultConfig.
func ParseConfig(text string) (Config, error) {
	c := DefaultConfig()
	md, err := toml.Decode(text, &c)
	if err != nil {
		return Config{}, fmt.Errorf("texcache: parse config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, fmt.Errorf("texcache: parse config: %w", err)
	}
	return c, c.validate()
}

func checkUndecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return fmt.Errorf("unknown keys: %s", strings.Join(names, ", "))
}

func (c Config) validate() error {
	if c.Device.Width <= 0 || c.Device.Height <= 0 {
		return fmt.Errorf("texcache: invalid window size %dx%d", c.Device.Width, c.Device.Height)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("texcache: unknown log format %q", c.Log.Format)
	}
	return nil
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Options returns the device options described by c. The logger is not
// included; see NewLogger.
func (c Config) Options() []DeviceOption {
	d := c.Device
	opts := []DeviceOption{
		WithBackend(d.Backend),
		WithNoFiltering(d.NoFiltering),
		WithReleaseSourcePixels(d.ReleaseSourcePixels),
		WithMaxResidentTextures(d.MaxResidentTextures),
		WithDumpDir(d.DumpDir),
	}
	if d.MinTexSize != nil {
		opts = append(opts, WithMinTexSize(*d.MinTexSize))
	}
	if d.MaxMipLevel != nil {
		opts = append(opts, WithMaxMipLevel(*d.MaxMipLevel))
	}
	return opts
}

// NewLogger builds the logger described by c.Log writing to w, or a silent
// logger when no level is set.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		return newNopLogger()
	}
	hopts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("texcache: unknown log level %q", s)
	}
	return l, nil
}
