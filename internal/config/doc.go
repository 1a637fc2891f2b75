// Package config provides conscreen's settings.
//
// Settings come from four layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority (applied by cmd)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← CONSCREEN_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← ~/.config/conscreen/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// A config file looks like:
//
//	[console]
//	size_mode = "strict"      # or "truncate"
//
//	[runner]
//	frame_interval = "50ms"
//	max_frames = 0            # 0 runs until interrupted
//	execution_timeout = "5s"
//
//	[logging]
//	level = "info"
//	file = "/tmp/conscreen.log"
//
// Durations are Go duration strings; bare numbers are milliseconds.
//
// # Sub-packages
//
//   - loader: TOML file and environment variable loading into nested maps
package config
