// Package config loads the VM's tunable limits from an optional TOML file,
// layered under command-line flags: flags override the file, the file
// overrides the built-in defaults.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds every value spec.md's memory-layout contract otherwise
// hard-codes, so a deployment can grow the address space without a
// recompile.
type Config struct {
	HeapStart        int32  `toml:"heap_start"`
	StaticCapacity   int32  `toml:"static_capacity"`
	HeapCapacity     int32  `toml:"heap_capacity"`
	FPURegisterSlots int    `toml:"fpu_register_slots"`
	HistoryPath      string `toml:"history_path"`
}

// Default returns the built-in values matching spec.md's fixed constants.
func Default() Config {
	return Config{
		HeapStart:        10000,
		StaticCapacity:   10000,
		HeapCapacity:     1 << 16,
		FPURegisterSlots: 8,
	}
}

// Load reads path and overlays it onto Default(). A missing file is not an
// error: it just means the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "loading config %s", path)
	}
	return cfg, nil
}
