// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memo

import (
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the cache options.
//
//	max_size: 128
//	ttl: 5m
//	singleflight: true
//
// A missing max_size means unbounded; a zero ttl means entries never expire.
type Config struct {
	MaxSize      *int          `yaml:"max_size"`
	TTL          time.Duration `yaml:"ttl"`
	Singleflight bool          `yaml:"singleflight"`
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (Config, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	log.Debugf("memo: loaded config from %s", path)
	return cfg, nil
}

// Options converts the Config into Options. Validation happens when the
// options are applied by New.
func (c Config) Options() []Option {
	var opts []Option
	if c.MaxSize != nil {
		opts = append(opts, WithMaxSize(*c.MaxSize))
	}
	if c.TTL != 0 {
		opts = append(opts, WithTTL(c.TTL))
	}
	if c.Singleflight {
		opts = append(opts, WithSingleflight())
	}
	return opts
}
