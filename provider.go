package factory

import (
	"github.com/tebeka/selenium"

	"github.com/wanmail/selenium-client-factory/rc"
)

// Provider builds drivers for the URIs it claims.
//
// A provider that returns true from CanHandle owns the resolution: any error
// it returns from a Create method ends the resolution and is handed to the
// caller unchanged.
type Provider interface {
	// CanHandle reports whether the provider claims uri.
	CanHandle(uri string) bool
	// CreateSelenium builds a classic RC driver for f.URI() that will start
	// the browser at browserURL.
	CreateSelenium(f *Factory, browserURL string) (rc.Selenium, error)
	// CreateWebDriver builds a WebDriver for f.URI(). caps may be nil.
	CreateWebDriver(f *Factory, browserURL string, caps selenium.Capabilities) (selenium.WebDriver, error)
}

// BatchProvider is implemented by providers that can build several
// WebDrivers in one call.
type BatchProvider interface {
	Provider
	CreateWebDrivers(f *Factory, browserURL string) ([]selenium.WebDriver, error)
}

// SchemeProvider is embedded by providers that claim every URI starting with
// a fixed scheme.
type SchemeProvider struct {
	Scheme string
}

// CanHandle reports whether uri starts with the provider's scheme.
func (p SchemeProvider) CanHandle(uri string) bool {
	return len(uri) >= len(p.Scheme) && uri[:len(p.Scheme)] == p.Scheme
}
