// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads simlink connection profiles.
//
// Configuration is loaded from a single file specified by either the
// SIMLINK_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no fallback search.
//
// YAML files are parsed with gopkg.in/yaml.v3. Files ending in .json or
// .jsonc are parsed as JSON after github.com/tidwall/jsonc strips
// comments and trailing commas, so a profile can sit next to an
// editor's launch.json.
//
// ${HOME} and ${VAR:-default} patterns are expanded in addresses,
// device paths, the trace path, and startup commands. Durations are
// Go duration strings ("5s", "250ms") checked by [Config.Validate].
//
// This package depends on no other simlink packages.
package config
