// Package config loads, normalizes, and validates gavel configuration data.
//
// Defaults cover every section, so a missing file is not an error. Loading
// expands tilde shortcuts in workspace paths, decodes TOML, and honours
// environment fallbacks such as OPENROUTER_API_KEY. The Config type
// centralizes every knob the pipeline and CLI need, from workspace
// directories and evaluator credentials to the numeric synthesis thresholds
// that govern scoring.
//
// Downstream code should always go through Load so it sees absolute paths,
// canonical log formats, and validation errors raised before any run starts.
package config
