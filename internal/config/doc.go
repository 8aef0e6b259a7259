// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for scmlite.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file location (in order of precedence):
//   - ~/.scmlite/config.toml
//   - Built-in defaults
package config
