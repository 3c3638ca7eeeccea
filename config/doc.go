// Package config resolves scrumsim settings from layered sources.
//
// Precedence, highest first:
//  1. Command-line flags
//  2. Environment variables (SCRUMSIM_ prefix)
//  3. Local .scrumsim.yaml in the git root
//  4. Global ~/.config/scrumsim/config.yaml
//  5. Built-in defaults
//
// Typical use:
//
//	resolved := config.NewAppResolver(os.Stderr).ResolveWithFlags(flags)
//	settings, err := config.ParseSettings(resolved)
//
// Each resolved value records its Source so `scrumsim doctor` can report
// where a setting came from. SaveConfig writes keys back for
// `scrumsim config set`; secrets are only written to the global file.
package config
