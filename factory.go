package factory

import (
	"time"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"

	"github.com/wanmail/selenium-client-factory/rc"
)

// API families a resolution can produce.
const (
	FamilySelenium  = "selenium"
	FamilyWebDriver = "webdriver"
)

// Factory holds the configuration used to turn a driver URI into a driver:
// the URI itself, the registry searched for providers, and a property bag
// passed to whichever provider claims the URI.
//
// A Factory is not safe for concurrent mutation. Use WithURI or Clone to hand
// a copy to another goroutine.
type Factory struct {
	uri        string
	registry   *Registry
	properties map[string]interface{}
	env        *Environment
	metrics    *Metrics
}

// Option configures a Factory.
type Option func(*Factory)

// WithRegistry makes the factory search r instead of DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(f *Factory) { f.registry = r }
}

// WithEnvironment sets where environment-derived defaults are read from.
func WithEnvironment(e *Environment) Option {
	return func(f *Factory) { f.env = e }
}

// WithMetrics records every resolution in m.
func WithMetrics(m *Metrics) Option {
	return func(f *Factory) { f.metrics = m }
}

// WithProperties copies props into the factory's property bag.
func WithProperties(props map[string]interface{}) Option {
	return func(f *Factory) {
		for k, v := range props {
			f.properties[k] = v
		}
	}
}

// WithDriverURI sets the driver URI instead of reading it from the
// environment.
func WithDriverURI(uri string) Option {
	return func(f *Factory) { f.uri = uri }
}

// New returns a Factory. Unless WithDriverURI is given, the URI comes from
// SELENIUM_DRIVER, then DEFAULT_SELENIUM_DRIVER, then "embedded-rc:".
func New(opts ...Option) *Factory {
	f := &Factory{
		registry:   DefaultRegistry,
		properties: make(map[string]interface{}),
		env:        &Environment{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.uri == "" {
		f.uri = f.env.DriverURI()
	}
	return f
}

// URI returns the driver URI.
func (f *Factory) URI() string { return f.uri }

// SetURI replaces the driver URI and returns f.
func (f *Factory) SetURI(uri string) *Factory {
	f.uri = uri
	return f
}

// Registry returns the registry searched for providers.
func (f *Factory) Registry() *Registry { return f.registry }

// SetRegistry replaces the registry searched for providers and returns f.
func (f *Factory) SetRegistry(r *Registry) *Factory {
	f.registry = r
	return f
}

// Env returns the environment used for defaults.
func (f *Factory) Env() *Environment { return f.env }

// Metrics returns the metrics sink, which may be nil.
func (f *Factory) Metrics() *Metrics { return f.metrics }

// Property returns the named property, or nil.
func (f *Factory) Property(name string) interface{} { return f.properties[name] }

// SetProperty sets a property and returns f.
func (f *Factory) SetProperty(name string, value interface{}) *Factory {
	f.properties[name] = value
	return f
}

// Properties returns the live property map.
func (f *Factory) Properties() map[string]interface{} { return f.properties }

// StringProperty returns the named property if it is a non-empty string.
func (f *Factory) StringProperty(name string) (string, bool) {
	s, ok := f.properties[name].(string)
	return s, ok && s != ""
}

// Clone returns a copy of f. The property map is copied, the values are
// shared.
func (f *Factory) Clone() *Factory {
	props := make(map[string]interface{}, len(f.properties))
	for k, v := range f.properties {
		props[k] = v
	}
	return &Factory{
		uri:        f.uri,
		registry:   f.registry,
		properties: props,
		env:        f.env,
		metrics:    f.metrics,
	}
}

// WithURI returns a clone of f with the URI replaced. Providers use it to
// resolve an inner URI while keeping the caller's properties. The clone
// records no metrics: the outer resolution already counts the driver.
func (f *Factory) WithURI(uri string) *Factory {
	inner := f.Clone().SetURI(uri)
	inner.metrics = nil
	return inner
}

// CreateSelenium resolves the factory's URI to a classic RC driver that will
// open browserURL.
func (f *Factory) CreateSelenium(browserURL string) (rc.Selenium, error) {
	return resolve(f, FamilySelenium, func(p Provider, snapshot *Factory) (rc.Selenium, error) {
		return p.CreateSelenium(snapshot, browserURL)
	})
}

// CreateWebDriver resolves the factory's URI to a WebDriver. caps may be nil.
func (f *Factory) CreateWebDriver(browserURL string, caps selenium.Capabilities) (selenium.WebDriver, error) {
	return resolve(f, FamilyWebDriver, func(p Provider, snapshot *Factory) (selenium.WebDriver, error) {
		return p.CreateWebDriver(snapshot, browserURL, caps)
	})
}

// CreateWebDrivers resolves the factory's URI with a provider that builds
// several WebDrivers at once.
func (f *Factory) CreateWebDrivers(browserURL string) ([]selenium.WebDriver, error) {
	return resolve(f, FamilyWebDriver, func(p Provider, snapshot *Factory) ([]selenium.WebDriver, error) {
		bp, ok := p.(BatchProvider)
		if !ok {
			return nil, Constructionf("", snapshot.URI(), "provider does not support batch construction")
		}
		wds, err := bp.CreateWebDrivers(snapshot, browserURL)
		if err == nil && wds == nil {
			wds = []selenium.WebDriver{}
		}
		return wds, err
	})
}

// CreateSeleniumFromEnv is CreateSelenium with the starting URL taken from
// SELENIUM_STARTING_URL or DEFAULT_SELENIUM_STARTING_URL.
func (f *Factory) CreateSeleniumFromEnv() (rc.Selenium, error) {
	u, err := f.env.StartingURL()
	if err != nil {
		return nil, err
	}
	return f.CreateSelenium(u)
}

// CreateWebDriverFromEnv is CreateWebDriver with the starting URL taken from
// SELENIUM_STARTING_URL or DEFAULT_SELENIUM_STARTING_URL.
func (f *Factory) CreateWebDriverFromEnv(caps selenium.Capabilities) (selenium.WebDriver, error) {
	u, err := f.env.StartingURL()
	if err != nil {
		return nil, err
	}
	return f.CreateWebDriver(u, caps)
}

// resolve offers f's URI to each provider in registration order. The first
// provider that claims it builds the driver; its result, error included, is
// final.
func resolve[D any](f *Factory, family string, build func(Provider, *Factory) (D, error)) (D, error) {
	var zero D
	start := time.Now()
	uri := f.uri
	if uri == "" {
		err := &MalformedURIError{URI: uri, Reason: "empty driver URI"}
		f.metrics.observe("", family, err, start)
		return zero, err
	}

	for _, p := range f.registry.providers() {
		if !p.CanHandle(uri) {
			continue
		}
		glog.V(1).Infof("driver URI %q claimed by provider %q (%s)", uri, p.name, family)
		d, err := build(p.Provider, f.Clone())
		if err == nil && any(d) == nil {
			err = &ConstructionFailedError{URI: uri, Provider: p.name, Err: errNoDriver}
		}
		f.metrics.observe(p.name, family, err, start)
		if err != nil {
			return zero, err
		}
		return d, nil
	}

	err := &UnrecognizedURIError{URI: uri}
	f.metrics.observe("", family, err, start)
	return zero, err
}

// Create resolves driverURI against DefaultRegistry to a classic RC driver.
func Create(driverURI, browserURL string) (rc.Selenium, error) {
	return New(WithDriverURI(driverURI)).CreateSelenium(browserURL)
}

// CreateWebDriver resolves driverURI against DefaultRegistry to a WebDriver.
func CreateWebDriver(driverURI, browserURL string) (selenium.WebDriver, error) {
	return New(WithDriverURI(driverURI)).CreateWebDriver(browserURL, nil)
}
