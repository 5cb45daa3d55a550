// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates modkit configuration from the
// platform config directory, the working directory, and MODKIT_*
// environment variables.
package config
