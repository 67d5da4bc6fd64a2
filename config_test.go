package texcache

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/texcache/backend/software"
)

func TestParseConfig(t *testing.T) {
	c, err := ParseConfig(`
[device]
backend = "software"
width = 320
height = 200
no_filtering = true
min_tex_size = 16
max_resident_textures = 64

[log]
level = "debug"
format = "json"
`)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if c.Device.Backend != "software" || c.Device.Width != 320 || c.Device.Height != 200 {
		t.Errorf("device = %+v", c.Device)
	}
	if c.Device.MinTexSize == nil || *c.Device.MinTexSize != 16 {
		t.Errorf("MinTexSize = %v, want 16", c.Device.MinTexSize)
	}
	if c.Device.MaxMipLevel != nil {
		t.Errorf("MaxMipLevel = %v, want unset", *c.Device.MaxMipLevel)
	}

	o := defaultOptions()
	for _, opt := range c.Options() {
		opt(&o)
	}
	if o.backendName != "software" || !o.noFiltering || o.minTexSize != 16 || o.maxMipLevel != -1 || o.maxResident != 64 {
		t.Errorf("Options() = %+v", o)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	c, err := ParseConfig("")
	if err != nil {
		t.Fatalf("ParseConfig(\"\") error = %v", err)
	}
	if c.Device.Width != 640 || c.Device.Height != 480 {
		t.Errorf("default size = %dx%d, want 640x480", c.Device.Width, c.Device.Height)
	}
	if l := c.NewLogger(&bytes.Buffer{}); l.Enabled(context.Background(), slog.LevelError) {
		t.Error("NewLogger() without a level should be silent")
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"unknown key", "[device]\nfilter = 1\n", "unknown keys: device.filter"},
		{"bad size", "[device]\nwidth = 0\n", "invalid window size"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "unknown log level"},
		{"bad format", "[log]\nformat = \"xml\"\n", "unknown log format"},
		{"bad toml", "[device\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.text)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseConfig() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texcache.toml")
	want := DefaultConfig()
	want.Device.Backend = "software"
	want.Device.DumpDir = "dump"
	mip := 2
	want.Device.MaxMipLevel = &mip
	want.Log.Level = "info"

	var buf bytes.Buffer
	if err := want.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if got.Device.Backend != "software" || got.Device.DumpDir != "dump" || got.Log.Level != "info" {
		t.Errorf("LoadConfig() = %+v", got)
	}
	if got.Device.MaxMipLevel == nil || *got.Device.MaxMipLevel != 2 {
		t.Errorf("MaxMipLevel = %v, want 2", got.Device.MaxMipLevel)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadConfig() of a missing file should fail")
	}
}

func TestConfigNewLogger(t *testing.T) {
	var buf bytes.Buffer
	c := DefaultConfig()
	c.Log = LogConfig{Level: "warn", Format: "json"}
	l := c.NewLogger(&buf)

	if l.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("warn logger enabled for info")
	}
	l.Warn("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json logger output = %q", buf.String())
	}
}

func TestConfigOptionsBuildDevice(t *testing.T) {
	c, err := ParseConfig("[device]\nmin_tex_size = 0\nmax_mip_level = 3\n")
	if err != nil {
		t.Fatal(err)
	}
	opts := append(c.Options(), WithDevice(software.New()))
	d, err := NewDevice(opts...)
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	if err := d.Init(c.Device.Width, c.Device.Height); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(d.Exit)

	if caps := d.Caps(); caps.MinTexSize != 0 || caps.MaxMipLevel != 3 {
		t.Errorf("Caps() = %+v, want min 0, max mip 3", caps)
	}
}
