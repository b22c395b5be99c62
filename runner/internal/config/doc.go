// Package config loads and watches the runner configuration file.
//
// Top-level types:
//   - Config — scenarios_dir, format (text|json|prom), thresholds
//     {calm_max, noticeable_max}, pool {gamma, eps}
//
// Load(path) reads the YAML file, applies defaults (scenarios/, text, 0.20 /
// 0.40, gamma 1, eps 1e-12), then validates. The file is optional for the CLI;
// Default() is used when no path is given.
//
// Watch(ctx, path, onChange) reloads the file on change and calls onChange
// with the new Config. A reload that fails validation is logged and skipped.
package config
