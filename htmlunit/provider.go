// Package htmlunit is an in-process headless browser. It fetches pages over
// HTTP, parses them into a DOM and answers selector queries, without running
// scripts. It registers the provider for htmlunit: URIs:
//
//	htmlunit:
//	htmlunit:?page-load-timeout=10s
package htmlunit

import (
	"net/http"
	"time"

	"github.com/tebeka/selenium"

	factory "github.com/wanmail/selenium-client-factory"
	"github.com/wanmail/selenium-client-factory/rc"
)

// Scheme prefixes URIs served by the in-process browser.
const Scheme = "htmlunit:"

// ParamPageLoadTimeout bounds each page load, e.g. "10s".
const ParamPageLoadTimeout = "page-load-timeout"

const providerName = "htmlunit"

// Provider builds drivers backed by a fresh Browser each.
type Provider struct {
	factory.SchemeProvider

	// Client is shared by every Browser when set. By default each Browser
	// gets a client with its own cookie jar.
	Client *http.Client
}

// NewProvider returns a provider for htmlunit: URIs.
func NewProvider() *Provider {
	return &Provider{SchemeProvider: factory.SchemeProvider{Scheme: Scheme}}
}

func init() {
	factory.Register(providerName, func() (factory.Provider, error) { return NewProvider(), nil })
}

func (p *Provider) browser(f *factory.Factory) (*Browser, error) {
	params := factory.Params{}
	if f.URI() != Scheme {
		var err error
		if params, err = factory.ParseQuery(f.URI(), Scheme); err != nil {
			return nil, err
		}
	}
	b, err := NewBrowser(p.Client)
	if err != nil {
		return nil, &factory.ConstructionFailedError{URI: f.URI(), Provider: providerName, Err: err}
	}
	if params.Has(ParamPageLoadTimeout) {
		d, err := time.ParseDuration(params.Get(ParamPageLoadTimeout))
		if err != nil {
			return nil, factory.Constructionf(providerName, f.URI(), "bad %s: %v", ParamPageLoadTimeout, err)
		}
		b.SetPageLoadTimeout(d)
	}
	return b, nil
}

// CreateSelenium returns an RC driver that resolves relative Open targets
// against browserURL.
func (p *Provider) CreateSelenium(f *factory.Factory, browserURL string) (rc.Selenium, error) {
	b, err := p.browser(f)
	if err != nil {
		return nil, err
	}
	return NewSelenium(b, browserURL), nil
}

// CreateWebDriver returns a WebDriver already showing browserURL, unless it
// is empty.
func (p *Provider) CreateWebDriver(f *factory.Factory, browserURL string, caps selenium.Capabilities) (selenium.WebDriver, error) {
	b, err := p.browser(f)
	if err != nil {
		return nil, err
	}
	wd := NewWebDriver(b, caps)
	if err := factory.OpenStartingURL(wd, browserURL); err != nil {
		return nil, &factory.ConstructionFailedError{URI: f.URI(), Provider: providerName, Err: err}
	}
	return wd, nil
}
