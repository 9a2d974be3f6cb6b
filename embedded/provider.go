// Package embedded starts a Selenium server for each driver it builds. It
// registers the provider for embedded-rc: URIs:
//
//	embedded-rc:*firefox
//
// The server listens on a free local port and is stopped when the driver's
// session ends. An empty browser selects the platform's default browser.
package embedded

import (
	"fmt"
	"net/url"
	"runtime"
	"strconv"
	"strings"

	"github.com/blang/semver"
	"github.com/golang/glog"
	"github.com/tebeka/selenium"

	factory "github.com/wanmail/selenium-client-factory"
	"github.com/wanmail/selenium-client-factory/rc"
)

// Scheme is the URI scheme claimed by this package's provider.
const Scheme = "embedded-rc:"

// Factory properties read by the provider.
const (
	// PropArgs holds extra server arguments, as a space-separated string or a
	// []string.
	PropArgs = "embedded_args"
	// PropJar is the server JAR. It defaults to SELENIUM_SERVER_JAR, then
	// DefaultJar.
	PropJar = "embedded_jar"
	// PropJava is the java binary.
	PropJava = "embedded_java"
	// PropFrameBuffer, when true, runs the server's browsers in Xvfb.
	PropFrameBuffer = "embedded_frame_buffer"
	// PropVersion is the server JAR's version, e.g. "3.141.59".
	PropVersion = "embedded_version"
)

// DefaultJar is where the fetch command saves the server JAR.
const DefaultJar = "vendor/selenium-server.jar"

const providerName = "embedded-rc"

// ServerConfig describes the server to launch for one driver.
type ServerConfig struct {
	Jar         string
	Java        string
	Port        int
	Args        []string
	FrameBuffer bool
	Version     *semver.Version
}

// Instance is a running server.
type Instance interface {
	Stop() error
}

// LaunchFunc starts a server and returns once it accepts connections.
type LaunchFunc func(cfg ServerConfig) (Instance, error)

// Launch starts cfg as a child process with StartServer.
func Launch(cfg ServerConfig) (Instance, error) {
	opts := []ServerOption{Args(cfg.Args...)}
	if cfg.Java != "" {
		opts = append(opts, JavaPath(cfg.Java))
	}
	if cfg.FrameBuffer {
		opts = append(opts, StartFrameBuffer())
	}
	if cfg.Version != nil {
		opts = append(opts, Version(*cfg.Version))
	}
	return StartServer(cfg.Jar, cfg.Port, opts...)
}

// Provider builds drivers backed by a server started for them.
type Provider struct {
	factory.SchemeProvider
	// Launch defaults to the package-level Launch.
	Launch LaunchFunc
	// GOOS selects the default browser. It defaults to runtime.GOOS.
	GOOS string
}

// NewProvider returns a provider for embedded-rc: URIs.
func NewProvider() *Provider {
	return &Provider{SchemeProvider: factory.SchemeProvider{Scheme: Scheme}}
}

func init() {
	factory.Register(providerName, func() (factory.Provider, error) { return NewProvider(), nil })
}

// DefaultBrowser returns the browser start command used when the URI names
// none.
func DefaultBrowser(goos string) string {
	switch goos {
	case "windows":
		return "*iexplore"
	case "darwin":
		return "*safari"
	}
	return "*firefox"
}

func (p *Provider) browser(uri string) string {
	if b := strings.TrimPrefix(uri, Scheme); b != "" {
		return b
	}
	goos := p.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	return DefaultBrowser(goos)
}

// serverArgs accepts the forms PropArgs may take.
func serverArgs(v interface{}) ([]string, error) {
	switch a := v.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.Fields(a), nil
	case []string:
		return a, nil
	case []interface{}:
		args := make([]string, len(a))
		for i, x := range a {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] is %T, want string", PropArgs, i, x)
			}
			args[i] = s
		}
		return args, nil
	}
	return nil, fmt.Errorf("%s is %T, want string or []string", PropArgs, v)
}

// frameBuffer accepts a bool or a string such as "true" for PropFrameBuffer.
func frameBuffer(v interface{}) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case string:
		on, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("invalid %s %q: %v", PropFrameBuffer, b, err)
		}
		return on, nil
	}
	return false, fmt.Errorf("%s is %T, want bool or string", PropFrameBuffer, v)
}

func (p *Provider) config(f *factory.Factory) (ServerConfig, error) {
	args, err := serverArgs(f.Property(PropArgs))
	if err != nil {
		return ServerConfig{}, err
	}
	cfg := ServerConfig{Args: args}
	if cfg.Jar, _ = f.StringProperty(PropJar); cfg.Jar == "" {
		cfg.Jar = f.Env().Get(factory.EnvSeleniumServerJar, DefaultJar)
	}
	cfg.Java, _ = f.StringProperty(PropJava)
	if cfg.FrameBuffer, err = frameBuffer(f.Property(PropFrameBuffer)); err != nil {
		return ServerConfig{}, err
	}
	if v, ok := f.StringProperty(PropVersion); ok {
		sv, err := semver.ParseTolerant(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("invalid %s %q: %v", PropVersion, v, err)
		}
		cfg.Version = &sv
	}
	if cfg.Port, err = factory.PickUnusedPort(); err != nil {
		return ServerConfig{}, fmt.Errorf("pick server port: %v", err)
	}
	return cfg, nil
}

func (p *Provider) start(f *factory.Factory) (ServerConfig, Instance, error) {
	cfg, err := p.config(f)
	if err != nil {
		return cfg, nil, &factory.ConstructionFailedError{URI: f.URI(), Provider: providerName, Err: err}
	}
	launch := p.Launch
	if launch == nil {
		launch = Launch
	}
	inst, err := launch(cfg)
	if err != nil {
		return cfg, nil, &factory.ConstructionFailedError{URI: f.URI(), Provider: providerName, Err: err}
	}
	return cfg, inst, nil
}

func stopAfterFailure(inst Instance) {
	if err := inst.Stop(); err != nil {
		glog.Warningf("stopping embedded Selenium server: %v", err)
	}
}

// CreateSelenium starts a server and resolves
// http://localhost:<port>/<browser> against it. The server is stopped when
// the driver is.
func (p *Provider) CreateSelenium(f *factory.Factory, browserURL string) (rc.Selenium, error) {
	browser := p.browser(f.URI())
	cfg, inst, err := p.start(f)
	if err != nil {
		return nil, err
	}
	inner := fmt.Sprintf("http://localhost:%d/%s", cfg.Port, url.QueryEscape(browser))
	s, err := f.WithURI(inner).CreateSelenium(browserURL)
	if err != nil {
		stopAfterFailure(inst)
		return nil, err
	}
	return &factory.SeleniumFilter{Selenium: s, AfterStop: inst.Stop}, nil
}

// CreateWebDriver starts a server and resolves
// http://localhost:<port>/wd/hub against it. The server is stopped when the
// driver quits. The URI's browser sets browserName unless caps has one.
func (p *Provider) CreateWebDriver(f *factory.Factory, browserURL string, caps selenium.Capabilities) (selenium.WebDriver, error) {
	browser := p.browser(f.URI())
	cfg, inst, err := p.start(f)
	if err != nil {
		return nil, err
	}
	merged := selenium.Capabilities{}
	for k, v := range caps {
		merged[k] = v
	}
	if _, ok := merged["browserName"]; !ok {
		merged["browserName"] = BrowserName(browser)
	}

	inner := fmt.Sprintf("http://localhost:%d/wd/hub", cfg.Port)
	wd, err := f.WithURI(inner).CreateWebDriver(browserURL, merged)
	if err != nil {
		stopAfterFailure(inst)
		return nil, err
	}
	return &factory.WebDriverFilter{WebDriver: wd, AfterQuit: inst.Stop}, nil
}

// BrowserName converts an RC browser start command such as "*iexplore" to a
// WebDriver browser name.
func BrowserName(startCommand string) string {
	fields := strings.Fields(startCommand)
	if len(fields) == 0 {
		return ""
	}
	name := strings.TrimPrefix(fields[0], "*")
	switch name {
	case "iexplore", "iehta", "iexploreproxy":
		return "internet explorer"
	case "googlechrome":
		return "chrome"
	case "chrome", "firefox", "firefoxproxy", "firefoxchrome":
		// *chrome is RC's name for Firefox in chrome mode.
		return "firefox"
	}
	return name
}
