package factory

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"

	"github.com/wanmail/selenium-client-factory/rc"
)

// SchemeHTTP is claimed by the provider that talks to an existing Selenium
// server.
const SchemeHTTP = "http:"

// PropBrowserStartCommand, when set to a string, overrides the browser start
// command an http: URI would otherwise carry in its path.
const PropBrowserStartCommand = "browserStartCommand"

// RemoteFunc opens a WebDriver session against a server at urlPrefix. It has
// the signature of selenium.NewRemote.
type RemoteFunc func(caps selenium.Capabilities, urlPrefix string) (selenium.WebDriver, error)

// HTTPProvider connects to a Selenium server given by an http: URI such as
// http://localhost:4444/*firefox. Host defaults to localhost and port to 4444.
type HTTPProvider struct {
	SchemeProvider
	// NewRemote defaults to selenium.NewRemote.
	NewRemote RemoteFunc
}

// NewHTTPProvider returns a provider for http: URIs.
func NewHTTPProvider() *HTTPProvider {
	return &HTTPProvider{SchemeProvider: SchemeProvider{Scheme: SchemeHTTP}}
}

func init() {
	Register("http", func() (Provider, error) { return NewHTTPProvider(), nil })
}

type serverAddr struct {
	u    *url.URL
	host string
	port int
}

func parseServerAddr(uri string) (*serverAddr, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, Constructionf("http", uri, "parse URI: %v", err)
	}
	a := &serverAddr{u: u, host: u.Hostname(), port: rc.DefaultPort}
	if a.host == "" {
		a.host = "localhost"
	}
	if p := u.Port(); p != "" {
		if a.port, err = strconv.Atoi(p); err != nil {
			return nil, Constructionf("http", uri, "invalid port %q", p)
		}
	}
	return a, nil
}

// CreateSelenium returns an RC client bound to the URI's host and port. The
// browser start command is the browserStartCommand property, or else the
// URI path with its leading '/' removed and percent-decoded.
func (p *HTTPProvider) CreateSelenium(f *Factory, browserURL string) (rc.Selenium, error) {
	a, err := parseServerAddr(f.URI())
	if err != nil {
		return nil, err
	}
	cmd, ok := f.StringProperty(PropBrowserStartCommand)
	if !ok {
		cmd, err = url.QueryUnescape(strings.TrimPrefix(a.u.EscapedPath(), "/"))
		if err != nil {
			return nil, Constructionf("http", f.URI(), "decode browser start command: %v", err)
		}
	}
	return rc.NewClient(a.host, a.port, cmd, browserURL), nil
}

// CreateWebDriver opens a session with the server at the URI's host and
// port, using the URI path as the endpoint prefix (/wd/hub if empty), then
// loads browserURL if it is not empty.
func (p *HTTPProvider) CreateWebDriver(f *Factory, browserURL string, caps selenium.Capabilities) (selenium.WebDriver, error) {
	a, err := parseServerAddr(f.URI())
	if err != nil {
		return nil, err
	}
	executor := url.URL{
		Scheme: "http",
		User:   a.u.User,
		Host:   net.JoinHostPort(a.host, strconv.Itoa(a.port)),
		Path:   a.u.Path,
	}
	if executor.Path == "" || executor.Path == "/" {
		executor.Path = "/wd/hub"
	}

	newRemote := p.NewRemote
	if newRemote == nil {
		newRemote = selenium.NewRemote
	}
	if caps == nil {
		caps = selenium.Capabilities{}
	}
	wd, err := newRemote(caps, executor.String())
	if err != nil {
		return nil, &ConstructionFailedError{URI: f.URI(), Provider: "http", Err: err}
	}
	if err := OpenStartingURL(wd, browserURL); err != nil {
		return nil, &ConstructionFailedError{URI: f.URI(), Provider: "http", Err: err}
	}
	return wd, nil
}

// OpenStartingURL loads browserURL in wd unless it is empty. If the load
// fails the session is ended.
func OpenStartingURL(wd selenium.WebDriver, browserURL string) error {
	if browserURL == "" {
		return nil
	}
	if err := wd.Get(browserURL); err != nil {
		if qerr := wd.Quit(); qerr != nil {
			glog.Warningf("ending session after failed load of %s: %v", browserURL, qerr)
		}
		return err
	}
	return nil
}
