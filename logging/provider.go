package logging

import (
	"strings"

	"github.com/tebeka/selenium"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	factory "github.com/wanmail/selenium-client-factory"
	"github.com/wanmail/selenium-client-factory/rc"
)

// Scheme prefixes URIs whose drivers are logged.
const Scheme = "log:"

// PropLevel names the factory property holding the level calls are logged
// at, e.g. "debug". It defaults to "info".
const PropLevel = "log_level"

const providerName = "log"

// Provider resolves the rest of a log: URI with the same factory and wraps
// the result.
type Provider struct {
	factory.SchemeProvider

	// Logger defaults to zap.L().
	Logger *zap.Logger
}

// NewProvider returns a provider for log: URIs.
func NewProvider(logger *zap.Logger) *Provider {
	return &Provider{SchemeProvider: factory.SchemeProvider{Scheme: Scheme}, Logger: logger}
}

func init() {
	factory.Register(providerName, func() (factory.Provider, error) { return NewProvider(nil), nil })
}

var _ factory.BatchProvider = (*Provider)(nil)

func (p *Provider) inner(f *factory.Factory) *factory.Factory {
	return f.WithURI(strings.TrimPrefix(f.URI(), Scheme))
}

func (p *Provider) level(f *factory.Factory) (zapcore.Level, error) {
	s, ok := f.StringProperty(PropLevel)
	if !ok {
		return zapcore.InfoLevel, nil
	}
	l, err := zapcore.ParseLevel(s)
	if err != nil {
		return l, factory.Constructionf(providerName, f.URI(), "bad %s property: %v", PropLevel, err)
	}
	return l, nil
}

// CreateSelenium wraps the RC driver the inner URI resolves to.
func (p *Provider) CreateSelenium(f *factory.Factory, browserURL string) (rc.Selenium, error) {
	level, err := p.level(f)
	if err != nil {
		return nil, err
	}
	s, err := p.inner(f).CreateSelenium(browserURL)
	if err != nil {
		return nil, err
	}
	w := WrapSelenium(s, p.Logger)
	w.SetLevel(level)
	return w, nil
}

// CreateWebDriver wraps the WebDriver the inner URI resolves to.
func (p *Provider) CreateWebDriver(f *factory.Factory, browserURL string, caps selenium.Capabilities) (selenium.WebDriver, error) {
	level, err := p.level(f)
	if err != nil {
		return nil, err
	}
	wd, err := p.inner(f).CreateWebDriver(browserURL, caps)
	if err != nil {
		return nil, err
	}
	w := WrapWebDriver(wd, p.Logger)
	w.SetLevel(level)
	return w, nil
}

// CreateWebDrivers wraps every WebDriver of the inner batch.
func (p *Provider) CreateWebDrivers(f *factory.Factory, browserURL string) ([]selenium.WebDriver, error) {
	level, err := p.level(f)
	if err != nil {
		return nil, err
	}
	wds, err := p.inner(f).CreateWebDrivers(browserURL)
	if err != nil {
		return nil, err
	}
	wrapped := make([]selenium.WebDriver, len(wds))
	for i, wd := range wds {
		w := WrapWebDriver(wd, p.Logger)
		w.SetLevel(level)
		wrapped[i] = w
	}
	return wrapped, nil
}
