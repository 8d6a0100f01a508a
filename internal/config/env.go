// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// parseEnv populates cfg from environ ("KEY=value" pairs, as returned by
// os.Environ) using the caarlos0/env library. Fields are mapped via the
// `env` and `envPrefix` tags on [StructuredConfig] and its nested types.
func parseEnv(cfg any, environ []string) error {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		vars[key] = value
	}

	err := env.ParseWithOptions(cfg, env.Options{Environment: vars})
	if err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}
