// Copyright 2025 Rowkit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tqe

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rowkit/go-tuple-query/query"
)

// Config for the Compiler.
type Config struct {
	// CNFBudget bounds the clause count of filter normalization; past it
	// the planner keeps the original filter shape.
	CNFBudget int `toml:"cnf_budget"`
	// LogLevel sets the compiler logger level: debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() *Config {
	return &Config{
		CNFBudget: query.DefaultCNFBudget,
		LogLevel:  "info",
	}
}

// LoadConfig reads a TOML config file, filling unset fields with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrap(err, "loading compiler config")
	}
	if cfg.CNFBudget <= 0 {
		cfg.CNFBudget = query.DefaultCNFBudget
	}
	return cfg, nil
}

func (c *Config) logLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
