package sauce

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/tebeka/selenium"

	factory "github.com/wanmail/selenium-client-factory"
	"github.com/wanmail/selenium-client-factory/rc"
)

// PropConnectPath names the factory property holding the path of a Sauce
// Connect binary. When set, WebDriver sessions are routed through a tunnel
// started for that driver.
const PropConnectPath = "sauce_connect_path"

// PropJobName names the factory property holding the job name used when the
// URI has no job-name parameter. Without it the name of the calling function
// is used.
const PropJobName = "sauce_job_name"

const providerName = "sauce-ondemand"

// Provider builds drivers for sauce-ondemand: URIs.
type Provider struct {
	factory.SchemeProvider

	// NewRemote defaults to selenium.NewRemote.
	NewRemote factory.RemoteFunc
	// CredentialFile defaults to ~/.sauce-ondemand.
	CredentialFile string
	// Out receives the "SauceOnDemandSessionID=" line of every session.
	// It defaults to os.Stdout.
	Out io.Writer
	// RESTURL defaults to DefaultRESTURL.
	RESTURL    string
	HTTPClient *http.Client
}

// NewProvider returns a provider for sauce-ondemand: URIs.
func NewProvider() *Provider {
	return &Provider{SchemeProvider: factory.SchemeProvider{Scheme: Scheme}}
}

func init() {
	factory.Register(providerName, func() (factory.Provider, error) { return NewProvider(), nil })
}

var _ factory.BatchProvider = (*Provider)(nil)

// configure parses the URI and fills in the credential and job name.
func (p *Provider) configure(f *factory.Factory) (factory.Params, *Job, error) {
	params, err := factory.ParseQuery(f.URI(), Scheme)
	if err != nil {
		return nil, nil, err
	}
	cred, err := ResolveCredential(params, p.CredentialFile)
	if err != nil {
		var cerr *factory.CredentialFileError
		if errors.As(err, &cerr) {
			return nil, nil, err
		}
		return nil, nil, &factory.ConstructionFailedError{URI: f.URI(), Provider: providerName, Err: err}
	}
	if !params.Has(ParamJobName) {
		params.Set(ParamJobName, defaultJobName(f))
	}

	client := NewClient(cred)
	client.BaseURL = p.RESTURL
	client.HTTPClient = p.HTTPClient
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	return params, newJob(client, params.Get(ParamJobName), out), nil
}

func defaultJobName(f *factory.Factory) string {
	if name, ok := f.StringProperty(PropJobName); ok && name != "" {
		return name
	}
	return factory.CallerName()
}

// upstream returns the host and port given by SELENIUM_HOST and
// SELENIUM_PORT, or the defaults.
func upstream(f *factory.Factory, defHost string, defPort int) (string, int, error) {
	host := f.Env().Get(factory.EnvHost, defHost)
	portStr := f.Env().Get(factory.EnvPort, "")
	if portStr == "" {
		return host, defPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, &factory.ConstructionFailedError{
			URI:      f.URI(),
			Provider: providerName,
			Err:      errors.New("invalid " + factory.EnvPort + " " + strconv.Quote(portStr)),
		}
	}
	return host, port, nil
}

// CreateSelenium returns an RC client for the Sauce RC endpoint. The browser
// start command is the JSON form of the URI parameters.
func (p *Provider) CreateSelenium(f *factory.Factory, browserURL string) (rc.Selenium, error) {
	params, job, err := p.configure(f)
	if err != nil {
		return nil, err
	}
	host, port, err := upstream(f, DefaultRCHost, DefaultRCPort)
	if err != nil {
		return nil, err
	}
	cmd, err := browserStartCommand(params)
	if err != nil {
		return nil, factory.Constructionf(providerName, f.URI(), "encode browser start command: %v", err)
	}
	return &Selenium{Selenium: rc.NewClient(host, port, cmd, browserURL), Job: job}, nil
}

// browserStartCommand encodes params as a JSON object. Parameters given once
// are strings, repeated ones arrays.
func browserStartCommand(params factory.Params) (string, error) {
	m := make(map[string]interface{}, len(params))
	for k, vs := range params {
		if len(vs) == 1 {
			m[k] = vs[0]
		} else {
			m[k] = vs
		}
	}
	buf, err := json.Marshal(m)
	return string(buf), err
}

// CreateWebDriver opens a session on the Sauce WebDriver endpoint, then loads
// browserURL if it is not empty.
func (p *Provider) CreateWebDriver(f *factory.Factory, browserURL string, caps selenium.Capabilities) (selenium.WebDriver, error) {
	params, job, err := p.configure(f)
	if err != nil {
		return nil, err
	}
	caps, err = desiredCapabilities(params, caps)
	if err != nil {
		return nil, &factory.ConstructionFailedError{URI: f.URI(), Provider: providerName, Err: err}
	}
	host, port, err := upstream(f, DefaultWebDriverHost, DefaultWebDriverPort)
	if err != nil {
		return nil, err
	}
	executor := Addr(host, port, job.Credential())

	var tunnel *Connect
	if path, ok := f.StringProperty(PropConnectPath); ok {
		if tunnel, err = startTunnel(path, job.Credential()); err != nil {
			return nil, &factory.ConstructionFailedError{URI: f.URI(), Provider: providerName, Err: err}
		}
		executor = tunnel.Addr()
	}

	newRemote := p.NewRemote
	if newRemote == nil {
		newRemote = selenium.NewRemote
	}
	wd, err := newRemote(caps, executor)
	if err != nil {
		if tunnel != nil {
			tunnel.Stop() // ignore error.
		}
		return nil, &factory.ConstructionFailedError{URI: f.URI(), Provider: providerName, Err: err}
	}
	sd := &WebDriver{WebDriver: wd, Job: job, tunnel: tunnel}
	job.record(wd.SessionID())

	if err := factory.OpenStartingURL(sd, browserURL); err != nil {
		return nil, &factory.ConstructionFailedError{URI: f.URI(), Provider: providerName, Err: err}
	}
	return sd, nil
}

func startTunnel(path string, cred Credential) (*Connect, error) {
	port, err := factory.PickUnusedPort()
	if err != nil {
		return nil, err
	}
	c := &Connect{Path: path, Credential: cred, SeleniumPort: port}
	if err := c.Start(); err != nil {
		return nil, err
	}
	return c, nil
}
