// Package factorytest provides test doubles for drivers and providers. The
// doubles record their calls so tests can check how a resolution used them.
package factorytest

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tebeka/selenium"

	factory "github.com/wanmail/selenium-client-factory"
	"github.com/wanmail/selenium-client-factory/rc"
)

// WebDriver is a selenium.WebDriver that records session calls. Methods not
// overridden here panic through the nil embedded interface.
type WebDriver struct {
	selenium.WebDriver

	// Name identifies the driver, usually the URI it was built for.
	Name string
	// Caps are the capabilities it was built with.
	Caps selenium.Capabilities
	// Executor is the URL prefix it was built for, if any.
	Executor string

	// QuitErr and GetErr are returned by Quit and Get.
	QuitErr error
	GetErr  error

	mu      sync.Mutex
	visited []string
	quits   int
}

// NewWebDriver returns a WebDriver named name.
func NewWebDriver(name string) *WebDriver {
	return &WebDriver{Name: name}
}

// NewRemote has the signature of selenium.NewRemote and returns a WebDriver
// recording caps and urlPrefix.
func NewRemote(caps selenium.Capabilities, urlPrefix string) (selenium.WebDriver, error) {
	return &WebDriver{Name: urlPrefix, Caps: caps, Executor: urlPrefix}, nil
}

func (w *WebDriver) Get(url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visited = append(w.visited, url)
	return w.GetErr
}

func (w *WebDriver) CurrentURL() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.visited) == 0 {
		return "about:blank", nil
	}
	return w.visited[len(w.visited)-1], nil
}

func (w *WebDriver) Title() (string, error) { return w.Name, nil }

func (w *WebDriver) SessionID() string { return "session-" + w.Name }

func (w *WebDriver) Quit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.quits++
	return w.QuitErr
}

// Visited returns the URLs passed to Get.
func (w *WebDriver) Visited() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.visited...)
}

// Quits returns how many times Quit was called.
func (w *WebDriver) Quits() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.quits
}

// Selenium is an rc.Selenium that records session calls. Methods not
// overridden here panic through the nil embedded interface.
type Selenium struct {
	rc.Selenium

	Name       string
	BrowserURL string
	StopErr    error

	mu      sync.Mutex
	started bool
	stops   int
}

// NewSelenium returns a Selenium named name.
func NewSelenium(name, browserURL string) *Selenium {
	return &Selenium{Name: name, BrowserURL: browserURL}
}

func (s *Selenium) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

func (s *Selenium) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.stops++
	return s.StopErr
}

func (s *Selenium) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ""
	}
	return "session-" + s.Name
}

func (s *Selenium) Open(url string) error     { return nil }
func (s *Selenium) GetTitle() (string, error) { return s.Name, nil }

// Stops returns how many times Stop was called.
func (s *Selenium) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

// ErrConstruction is returned by a Provider configured to fail.
var ErrConstruction = errors.New("construction failed")

// Provider claims URIs with a fixed prefix and counts how it is used.
type Provider struct {
	Prefix string
	// Fail makes construction fail for URIs containing it. An empty Fail
	// never matches.
	Fail string

	canHandle atomic.Int32
	creates   atomic.Int32
}

// NewProvider returns a Provider claiming URIs that start with prefix.
func NewProvider(prefix string) *Provider {
	return &Provider{Prefix: prefix}
}

func (p *Provider) CanHandle(uri string) bool {
	p.canHandle.Add(1)
	return strings.HasPrefix(uri, p.Prefix)
}

func (p *Provider) fails(uri string) bool {
	return p.Fail != "" && strings.Contains(uri, p.Fail)
}

func (p *Provider) CreateSelenium(f *factory.Factory, browserURL string) (rc.Selenium, error) {
	p.creates.Add(1)
	if p.fails(f.URI()) {
		return nil, &factory.ConstructionFailedError{URI: f.URI(), Provider: p.Prefix, Err: ErrConstruction}
	}
	return NewSelenium(f.URI(), browserURL), nil
}

func (p *Provider) CreateWebDriver(f *factory.Factory, browserURL string, caps selenium.Capabilities) (selenium.WebDriver, error) {
	p.creates.Add(1)
	if p.fails(f.URI()) {
		return nil, &factory.ConstructionFailedError{URI: f.URI(), Provider: p.Prefix, Err: ErrConstruction}
	}
	wd := &WebDriver{Name: f.URI(), Caps: caps}
	if browserURL != "" {
		wd.Get(browserURL)
	}
	return wd, nil
}

// CanHandleCalls returns how many times CanHandle was called.
func (p *Provider) CanHandleCalls() int { return int(p.canHandle.Load()) }

// CreateCalls returns how many times a Create method was called.
func (p *Provider) CreateCalls() int { return int(p.creates.Load()) }

// Registry returns a registry holding ps in order, named by their prefixes.
func Registry(ps ...factory.Provider) *factory.Registry {
	r := factory.NewRegistry()
	for i, p := range ps {
		name := "provider" + strconv.Itoa(i)
		if fp, ok := p.(*Provider); ok {
			name = fp.Prefix
		}
		r.RegisterProvider(name, p)
	}
	return r
}
