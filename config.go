package voxtree

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Volume  VolumeConfig     `yaml:"volume"`
	Remote  RemoteConfig     `yaml:"remote"`
	Log     LogConfig        `yaml:"log"`
	Palette []MaterialConfig `yaml:"palette"`
}

type VolumeConfig struct {
	Depth        int     `yaml:"depth"`
	SubMeshLevel int     `yaml:"sub_mesh_level"`
	Scale        float32 `yaml:"scale"`
	MaxVertices  int     `yaml:"max_vertices"`
	// Seed is a MagicaVoxel .vox file placed at the origin on startup.
	Seed string `yaml:"seed"`
}

type RemoteConfig struct {
	Addr         string        `yaml:"addr"`
	InboxSize    int           `yaml:"inbox_size"`
	TickInterval time.Duration `yaml:"tick_interval"`
	BuildBudget  int           `yaml:"build_budget"`
}

type LogConfig struct {
	Prefix     string `yaml:"prefix"`
	Debug      bool   `yaml:"debug"`
	Format     string `yaml:"format"` // "text" or "json"
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type MaterialConfig struct {
	ID    uint8  `yaml:"id"`
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

func DefaultConfig() Config {
	return Config{
		Volume: VolumeConfig{
			Depth:        9,
			SubMeshLevel: DefaultSubMeshLevel,
		},
		Remote: RemoteConfig{
			Addr:         ":8080",
			InboxSize:    256,
			TickInterval: 50 * time.Millisecond,
			BuildBudget:  16,
		},
		Log: LogConfig{
			Prefix:     "voxhost",
			Format:     "text",
			MaxSizeMB:  64,
			MaxBackups: 2,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig, so omitted keys keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Volume.Depth < 0 || c.Volume.Depth > MaxDepth {
		return fmt.Errorf("volume.depth %d out of range [0, %d]", c.Volume.Depth, MaxDepth)
	}
	if c.Volume.SubMeshLevel < 0 {
		return fmt.Errorf("volume.sub_mesh_level must not be negative")
	}
	if c.Volume.Scale < 0 || c.Volume.MaxVertices < 0 {
		return fmt.Errorf("volume.scale and volume.max_vertices must not be negative")
	}
	if c.Remote.InboxSize <= 0 {
		return fmt.Errorf("remote.inbox_size must be positive")
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q: want text or json", c.Log.Format)
	}
	if _, err := c.BuildPalette(); err != nil {
		return err
	}
	return nil
}

// VoxelConfig returns the editor settings of the volume section.
func (c Config) VoxelConfig() VoxelConfig {
	return VoxelConfig{
		Depth:        c.Volume.Depth,
		SubMeshLevel: c.Volume.SubMeshLevel,
		Scale:        c.Volume.Scale,
		MaxVertices:  c.Volume.MaxVertices,
	}
}

// BuildPalette overlays the configured materials on DefaultPalette.
func (c Config) BuildPalette() (Palette, error) {
	return c.OverlayPalette(DefaultPalette())
}

// OverlayPalette replaces the entries of base named by the palette section.
func (c Config) OverlayPalette(base Palette) (Palette, error) {
	p := base
	for _, m := range c.Palette {
		mat, err := ParseMaterial(m.Name, m.Color)
		if err != nil {
			return nil, fmt.Errorf("palette[%d]: %w", m.ID, err)
		}
		p = p.With(m.ID, mat)
	}
	return p, nil
}
