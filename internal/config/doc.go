// Package config provides centralized configuration management for the
// ICU observation dashboard service. Configuration is loaded from an
// optional YAML file and from ICUBOARD_* environment variables, with the
// environment taking precedence:
//
//	ICUBOARD_SERVER_PORT=8080
//	ICUBOARD_DATASET_CHART_EVENTS_FILE=/data/CHARTEVENTS.csv
//	ICUBOARD_DATASET_MAX_EVENT_ROWS=500000
//	ICUBOARD_LOGGING_LEVEL=debug
//
// The package also owns path resolution through the Paths type: all
// relative file paths resolve against the executable directory so the
// service works identically from a dev tree or an installed layout.
package config
