// Package config defines Ganymede's configuration model and loading.
//
// Configuration is read from a YAML file, filled in with defaults,
// optionally overridden by GANYMEDE_* environment variables, and
// validated. A separate module list file can be watched for changes with
// ModulesWatcher so backend modules can be added or removed without a
// restart.
package config
