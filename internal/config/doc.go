// SPDX-License-Identifier: EPL-2.0

// Package config provides YAML configuration loading and validation for the
// audconv CLI and HTTP service. Files are read on top of Default, so a file
// only needs the keys it changes.
package config
