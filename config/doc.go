// Package config loads and validates the configuration of an analysis run.
//
// Configuration comes from defaults, an optional YAML file and environment
// variables prefixed with GOACM_ (GOACM_MODEL_CUTOFF overrides model.cutoff).
// Validate turns the raw configuration into a Run: one set of parsed dates
// and component configs shared by every stage, so the trend and the seasonal
// fit cannot disagree about the fitting window.
package config
