// SPDX-License-Identifier: MPL-2.0

// Package config loads dudley configuration from CUE files, layering
// built-in defaults, the system config under /etc/dudley, and the user
// config under $XDG_CONFIG_HOME/dudley. Files are validated against an
// embedded CUE schema before being merged into Viper.
package config
