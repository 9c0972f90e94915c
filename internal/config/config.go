// Copyright (c) 2026 Canonical Ltd
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config loads cachectl's YAML configuration: which cache directory
// to operate on, the file extension it uses, and its two size ceilings.
package config

import (
	"fmt"
	"math"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"maas.io/core/src/filecache/atomicfile"
	"maas.io/core/src/filecache/pathutil"
)

// Config is cachectl's on-disk configuration.
type Config struct {
	// Dir is the cache directory. cachectl passes it to cache.New unchanged;
	// it is not resolved through pathutil.CachePath, so a relative Dir is
	// taken relative to the working directory.
	Dir string `yaml:"dir"`
	// Ext is the filename extension (without leading dot) cached files
	// carry on disk.
	Ext string `yaml:"ext"`
	// UnusedMaxSize bounds the continuously-enforced unused pool.
	UnusedMaxSize ByteSize `yaml:"unused_max_size"`
	// OfflineMaxSize bounds the subset persisted across restarts.
	OfflineMaxSize ByteSize `yaml:"offline_max_size"`
}

// Default returns the configuration cachectl falls back to when no config
// file is present.
func Default() *Config {
	return &Config{
		Dir: pathutil.CacheDir(),
		Ext: "bin",
		UnusedMaxSize: ByteSize{
			Bytes: 512 * 1 << 20,
			Raw:   "512MiB",
		},
		OfflineMaxSize: ByteSize{
			Bytes: 512 * 1 << 20,
			Raw:   "512MiB",
		},
	}
}

// Load reads and parses a YAML config file through fs.
func Load(fs afero.Fs, file string) (*Config, error) {
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Write serializes cfg and atomically writes it to file through fs.
func Write(fs afero.Fs, file string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	if err := atomicfile.WriteFile(fs, file, data, 0640); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ByteSize represents a size in bytes, as an int64 (the only width
// unused_max_size/offline_max_size ever need), with human-readable YAML
// (de)serialization, e.g. "512MB".
type ByteSize struct {
	Bytes int64
	Raw   string
}

// String returns the byte size formatted as a human-readable string with no
// spaces (e.g., "20GB", "512MB").
func (x ByteSize) String() string {
	return strings.ReplaceAll(humanize.Bytes(uint64(x.Bytes)), " ", "")
}

// UnmarshalYAML implements yaml.Unmarshaler: it parses a human-readable
// byte size string (e.g., "20GB", "512MB") into the receiver.
func (x *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	x.Raw = value.Value

	parsed, err := humanize.ParseBytes(value.Value)
	if err != nil {
		return err
	}

	if parsed > math.MaxInt64 {
		return fmt.Errorf("value %d exceeds int64 capacity", parsed)
	}

	x.Bytes = int64(parsed)

	return nil
}

// MarshalYAML implements yaml.Marshaler, round-tripping through the
// human-readable form.
func (x ByteSize) MarshalYAML() (any, error) {
	return x.String(), nil
}
