package sauce

import (
	"encoding/json"

	"github.com/tebeka/selenium"
	"golang.org/x/sync/errgroup"

	factory "github.com/wanmail/selenium-client-factory"
)

// browserTarget is one entry of the SAUCE_ONDEMAND_BROWSERS matrix. Other
// fields the CI plugin writes are ignored.
type browserTarget struct {
	URL string `json:"url"`
}

// CreateWebDrivers builds one WebDriver per entry of the JSON array in
// SAUCE_ONDEMAND_BROWSERS, in that order. Each entry's url is resolved
// independently through the factory, all of them concurrently.
//
// The first failure is returned as soon as it happens. Resolutions still in
// flight are not cancelled, and sessions they open are not closed.
func (p *Provider) CreateWebDrivers(f *factory.Factory, browserURL string) ([]selenium.WebDriver, error) {
	raw, ok := f.Env().Lookup(factory.EnvSauceBrowsers)
	if !ok || raw == "" {
		return nil, factory.Constructionf(providerName, f.URI(), "%s is not set", factory.EnvSauceBrowsers)
	}
	var targets []browserTarget
	if err := json.Unmarshal([]byte(raw), &targets); err != nil {
		return nil, factory.Constructionf(providerName, f.URI(), "parse %s: %v", factory.EnvSauceBrowsers, err)
	}
	uris := make([]string, len(targets))
	for i, t := range targets {
		uris[i] = t.URL
	}
	// Workers cannot see the caller's stack, so name their jobs here.
	f.SetProperty(PropJobName, defaultJobName(f))
	return createAll(f, browserURL, uris)
}

// createAll resolves every URI on its own goroutine and returns the drivers
// in the order of uris, or the first error.
func createAll(f *factory.Factory, browserURL string, uris []string) ([]selenium.WebDriver, error) {
	wds := make([]selenium.WebDriver, len(uris))
	if len(uris) == 0 {
		return wds, nil
	}

	var g errgroup.Group
	g.SetLimit(len(uris))
	errc := make(chan error, 1)
	for i, uri := range uris {
		i, uri := i, uri
		g.Go(func() error {
			wd, err := f.WithURI(uri).CreateWebDriver(browserURL, nil)
			if err != nil {
				select {
				case errc <- err:
				default:
				}
				return err
			}
			wds[i] = wd
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()

	select {
	case err := <-errc:
		return nil, err
	case <-done:
	}
	// An error sent before the group finished may lose the race with done.
	select {
	case err := <-errc:
		return nil, err
	default:
		return wds, nil
	}
}
