// Package sauce builds drivers that run on the Sauce Labs hosted browser
// service. It registers the provider for sauce-ondemand: URIs:
//
//	sauce-ondemand:?os=Windows 2003&browser=firefox&browser-version=3.&job-name=login
//
// When neither username nor access-key is given, they are read from the
// username and key entries of ~/.sauce-ondemand.
package sauce

import (
	"encoding/json"
	"net"
	"net/url"
	"strconv"
)

// Scheme is the URI scheme claimed by this package's provider.
const Scheme = "sauce-ondemand:"

// URI parameters with a fixed meaning.
const (
	ParamUsername          = "username"
	ParamAccessKey         = "access-key"
	ParamOS                = "os"
	ParamBrowser           = "browser"
	ParamBrowserVersion    = "browser-version"
	ParamJobName           = "job-name"
	ParamBuild             = "build"
	ParamTags              = "tags"
	ParamSeleniumVersion   = "selenium-version"
	ParamMaxDuration       = "max-duration"
	ParamCommandTimeout    = "command-timeout"
	ParamIdleTimeout       = "idle-timeout"
	ParamScreenResolution  = "screen-resolution"
	ParamPublic            = "public"
	ParamRecordVideo       = "record-video"
	ParamRecordScreenshots = "record-screenshots"
)

// Upstream endpoints used unless SELENIUM_HOST and SELENIUM_PORT say
// otherwise.
const (
	DefaultRCHost        = "saucelabs.com"
	DefaultRCPort        = 4444
	DefaultWebDriverHost = "ondemand.saucelabs.com"
	DefaultWebDriverPort = 80
)

// Addr returns the WebDriver endpoint at host:port with cred as user info.
func Addr(host string, port int, cred Credential) string {
	u := url.URL{
		Scheme: "http",
		User:   url.UserPassword(cred.Username, cred.AccessKey),
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/wd/hub",
	}
	return u.String()
}

// Capabilities are the Sauce-specific options sent with a new session. Only
// the options settable from a URI parameter are listed.
//
// See https://wiki.saucelabs.com/display/DOCS/Test+Configuration+Options
type Capabilities struct {
	// Version of the Selenium server the job runs.
	SeleniumVersion string `json:"seleniumVersion,omitempty"`

	// Job name shown in the Sauce dashboard.
	TestName string `json:"name,omitempty"`
	// Build the job belongs to.
	BuildNumber string `json:"build,omitempty"`
	// Tags for grouping and filtering jobs.
	Tags []string `json:"tags,omitempty"`

	// Limits, in seconds.
	MaximumDuration int `json:"maxDuration,omitempty"`
	CommandTimeout  int `json:"commandTimeout,omitempty"`
	IdleTimeout     int `json:"idleTimeout,omitempty"`

	ScreenResolution string     `json:"screenResolution,omitempty"`
	Visibility       Visibility `json:"public,omitempty"`

	RecordVideo       *bool `json:"recordVideo,omitempty"`
	RecordScreenshots *bool `json:"recordScreenshots,omitempty"`
}

// Visibility is who may see a job's results.
type Visibility string

const (
	Public           Visibility = "public"
	PublicRestricted Visibility = "public restricted"
	Team             Visibility = "team"
	Private          Visibility = "private"
)

func (v Visibility) valid() bool {
	switch v {
	case Public, PublicRestricted, Team, Private:
		return true
	}
	return false
}

// ToMap returns the capabilities as a key/value structure.
func (c *Capabilities) ToMap() (map[string]interface{}, error) {
	buf, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	m := make(map[string]interface{})
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, err
	}
	return m, nil
}
