// Package preferences provides store.PreferenceStore implementations that
// live inside the process: an in-memory map and a YAML file watched with
// viper. The PostgreSQL implementation lives in platform/postgres.
package preferences
