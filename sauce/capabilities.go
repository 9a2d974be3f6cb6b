package sauce

import (
	"fmt"
	"strconv"

	"github.com/blang/semver"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/firefox"

	factory "github.com/wanmail/selenium-client-factory"
)

// capabilityParams are consumed by desiredCapabilities itself and are never
// copied verbatim into the capabilities or the Firefox profile.
var capabilityParams = map[string]bool{
	ParamUsername:          true,
	ParamAccessKey:         true,
	ParamOS:                true,
	ParamBrowser:           true,
	ParamBrowserVersion:    true,
	ParamJobName:           true,
	ParamBuild:             true,
	ParamTags:              true,
	ParamSeleniumVersion:   true,
	ParamMaxDuration:       true,
	ParamCommandTimeout:    true,
	ParamIdleTimeout:       true,
	ParamScreenResolution:  true,
	ParamPublic:            true,
	ParamRecordVideo:       true,
	ParamRecordScreenshots: true,
}

// capabilitiesFromParams maps the parameters with a Sauce meaning onto
// Capabilities.
func capabilitiesFromParams(p factory.Params) (*Capabilities, error) {
	c := &Capabilities{
		TestName:         p.Get(ParamJobName),
		BuildNumber:      p.Get(ParamBuild),
		Tags:             p[ParamTags],
		ScreenResolution: p.Get(ParamScreenResolution),
	}

	if v := p.Get(ParamSeleniumVersion); v != "" {
		if _, err := semver.ParseTolerant(v); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %v", ParamSeleniumVersion, v, err)
		}
		c.SeleniumVersion = v
	}

	for _, f := range []struct {
		name string
		dst  *int
	}{
		{ParamMaxDuration, &c.MaximumDuration},
		{ParamCommandTimeout, &c.CommandTimeout},
		{ParamIdleTimeout, &c.IdleTimeout},
	} {
		if !p.Has(f.name) {
			continue
		}
		n, err := strconv.Atoi(p.Get(f.name))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid %s %q: want a number of seconds", f.name, p.Get(f.name))
		}
		*f.dst = n
	}

	for _, f := range []struct {
		name string
		dst  **bool
	}{
		{ParamRecordVideo, &c.RecordVideo},
		{ParamRecordScreenshots, &c.RecordScreenshots},
	} {
		if !p.Has(f.name) {
			continue
		}
		b, err := strconv.ParseBool(p.Get(f.name))
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %v", f.name, p.Get(f.name), err)
		}
		*f.dst = &b
	}

	if p.Has(ParamPublic) {
		v := Visibility(p.Get(ParamPublic))
		if !v.valid() {
			return nil, fmt.Errorf("invalid %s %q", ParamPublic, v)
		}
		c.Visibility = v
	}
	return c, nil
}

// desiredCapabilities combines base with the URI parameters. When os, browser
// and browser-version are all given they select the browser and every other
// unrecognized parameter is sent as a capability; otherwise the browser
// defaults to Firefox. For Firefox, unrecognized parameters become profile
// preferences.
func desiredCapabilities(p factory.Params, base selenium.Capabilities) (selenium.Capabilities, error) {
	caps := selenium.Capabilities{}
	for k, v := range base {
		caps[k] = v
	}

	sc, err := capabilitiesFromParams(p)
	if err != nil {
		return nil, err
	}
	m, err := sc.ToMap()
	if err != nil {
		return nil, err
	}
	for k, v := range m {
		caps[k] = v
	}

	if p.Has(ParamOS) && p.Has(ParamBrowser) && p.Has(ParamBrowserVersion) {
		caps["browserName"] = p.Get(ParamBrowser)
		caps["version"] = p.Get(ParamBrowserVersion)
		caps["platform"] = p.Get(ParamOS)
		for k := range p {
			if !capabilityParams[k] {
				caps[k] = p.Get(k)
			}
		}
	} else if _, ok := caps["browserName"]; !ok {
		caps["browserName"] = "firefox"
	}

	if caps["browserName"] == "firefox" {
		prefs := make(map[string]interface{})
		for k := range p {
			if !capabilityParams[k] {
				prefs[k] = p.Get(k)
			}
		}
		if len(prefs) > 0 {
			caps.AddFirefox(firefox.Capabilities{Prefs: prefs})
		}
	}
	return caps, nil
}
