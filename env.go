package factory

import (
	"os"
)

// Keys consulted through an Environment.
const (
	EnvDriver             = "SELENIUM_DRIVER"
	EnvDefaultDriver      = "DEFAULT_SELENIUM_DRIVER"
	EnvStartingURL        = "SELENIUM_STARTING_URL"
	EnvDefaultStartingURL = "DEFAULT_SELENIUM_STARTING_URL"
	EnvHost               = "SELENIUM_HOST"
	EnvPort               = "SELENIUM_PORT"
	EnvSauceBrowsers      = "SAUCE_ONDEMAND_BROWSERS"
	EnvSeleniumServerJar  = "SELENIUM_SERVER_JAR"
	DefaultDriverURI      = "embedded-rc:"
)

// Environment looks up configuration values. Overrides take precedence over
// the process environment.
type Environment struct {
	Overrides map[string]string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// Lookup returns the value for key and whether it was set anywhere.
func (e *Environment) Lookup(key string) (string, bool) {
	if e == nil {
		return os.LookupEnv(key)
	}
	if v, ok := e.Overrides[key]; ok {
		return v, true
	}
	if e.LookupEnv != nil {
		return e.LookupEnv(key)
	}
	return os.LookupEnv(key)
}

// Get returns the value for key, or def if it is unset or empty.
func (e *Environment) Get(key, def string) string {
	if v, ok := e.Lookup(key); ok && v != "" {
		return v
	}
	return def
}

// Set records an override for key, allocating the override map if needed.
func (e *Environment) Set(key, value string) {
	if e.Overrides == nil {
		e.Overrides = make(map[string]string)
	}
	e.Overrides[key] = value
}

// DriverURI returns the driver URI configured through SELENIUM_DRIVER, then
// DEFAULT_SELENIUM_DRIVER, falling back to "embedded-rc:".
func (e *Environment) DriverURI() string {
	return e.Get(EnvDriver, e.Get(EnvDefaultDriver, DefaultDriverURI))
}

// StartingURL returns the browser starting URL configured through
// SELENIUM_STARTING_URL, then DEFAULT_SELENIUM_STARTING_URL.
func (e *Environment) StartingURL() (string, error) {
	if v := e.Get(EnvStartingURL, e.Get(EnvDefaultStartingURL, "")); v != "" {
		return v, nil
	}
	return "", &MissingTargetError{Keys: []string{EnvStartingURL, EnvDefaultStartingURL}}
}
