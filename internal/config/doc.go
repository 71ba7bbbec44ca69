// Package config loads the settings of the mviflow demo and its binder.
//
// Settings come from three places, later ones overriding earlier ones:
//
//  1. Built-in defaults (Default).
//  2. An optional file, TOML (.toml) or YAML (.yaml, .yml) by extension.
//     A missing file is not an error.
//  3. Environment variables prefixed with MVIFLOW_, for example
//     MVIFLOW_BINDER_LOG_LEVEL=debug or MVIFLOW_COUNTER_STEP=5.
//
// Example TOML file:
//
//	[binder]
//	sequential_actions = false
//	log_level = "info"
//	log_file = "/tmp/mviflow.log"
//
//	[counter]
//	initial = 0
//	step = 1
//	refresh_latency = "300ms"
//	fail_every = 3
//	step_script = "step.lua"
package config
