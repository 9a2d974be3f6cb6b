package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	socks5 "github.com/armon/go-socks5"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/tebeka/selenium"

	factory "github.com/wanmail/selenium-client-factory"
)

type resolveOptions struct {
	uri        string
	url        string
	config     string
	webdriver  bool
	properties []string
	socksProxy bool
}

func newCmdResolve() *cobra.Command {
	var o resolveOptions
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a driver URI, open the starting URL and report the page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&o.uri, "uri", "", "Driver URI (default from SELENIUM_DRIVER, then DEFAULT_SELENIUM_DRIVER)")
	cmd.Flags().StringVar(&o.url, "url", "", "Starting URL (default from SELENIUM_STARTING_URL, then DEFAULT_SELENIUM_STARTING_URL)")
	cmd.Flags().StringVar(&o.config, "config", "", "YAML factory configuration file")
	cmd.Flags().BoolVar(&o.webdriver, "webdriver", false, "Create a WebDriver instead of a classic Selenium RC driver")
	cmd.Flags().StringArrayVar(&o.properties, "property", nil, "Factory property as key=value (repeatable)")
	cmd.Flags().BoolVar(&o.socksProxy, "socks-proxy", false, "Route the WebDriver browser through a local SOCKS5 proxy")
	return cmd
}

func (o *resolveOptions) factory() (*factory.Factory, error) {
	props, err := parseProperties(o.properties)
	if err != nil {
		return nil, err
	}
	opts := []factory.Option{factory.WithProperties(props)}
	if o.uri != "" {
		opts = append(opts, factory.WithDriverURI(o.uri))
	}
	if o.config == "" {
		return factory.New(opts...), nil
	}
	cfg, err := factory.LoadConfig(o.config)
	if err != nil {
		return nil, err
	}
	return factory.NewFromConfig(cfg, opts...), nil
}

func (o *resolveOptions) run(out io.Writer) error {
	f, err := o.factory()
	if err != nil {
		return err
	}
	browserURL := o.url
	if browserURL == "" {
		browserURL, err = f.Env().StartingURL()
		// A WebDriver session can start without a page.
		var missing *factory.MissingTargetError
		if err != nil && !(o.webdriver && errors.As(err, &missing)) {
			return err
		}
	}
	glog.V(1).Infof("Resolving %q for %q", f.URI(), browserURL)
	if o.webdriver {
		return o.runWebDriver(out, f, browserURL)
	}
	if o.socksProxy {
		return fmt.Errorf("--socks-proxy requires --webdriver")
	}
	return runSelenium(out, f, browserURL)
}

func (o *resolveOptions) runWebDriver(out io.Writer, f *factory.Factory, browserURL string) (err error) {
	caps := selenium.Capabilities{}
	if o.socksProxy {
		addr, stop, err := startSOCKS()
		if err != nil {
			return err
		}
		defer stop()
		caps.AddProxy(selenium.Proxy{
			Type:         selenium.Manual,
			SOCKS:        addr,
			SOCKSVersion: 5,
		})
	}

	wd, err := f.CreateWebDriver(browserURL, caps)
	if err != nil {
		return err
	}
	defer func() {
		if qerr := wd.Quit(); qerr != nil && err == nil {
			err = qerr
		}
	}()

	title, err := wd.Title()
	if err != nil {
		return err
	}
	location, err := wd.CurrentURL()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "session: %s\ntitle: %s\nlocation: %s\n", wd.SessionID(), title, location)
	return nil
}

func runSelenium(out io.Writer, f *factory.Factory, browserURL string) (err error) {
	sel, err := f.CreateSelenium(browserURL)
	if err != nil {
		return err
	}
	if err := sel.Start(); err != nil {
		return err
	}
	defer func() {
		if serr := sel.Stop(); serr != nil && err == nil {
			err = serr
		}
	}()

	if err := sel.Open(browserURL); err != nil {
		return err
	}
	title, err := sel.GetTitle()
	if err != nil {
		return err
	}
	location, err := sel.GetLocation()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "session: %s\ntitle: %s\nlocation: %s\n", sel.SessionID(), title, location)
	return nil
}

// parseProperties turns key=value pairs into a property bag. Values stay
// strings; providers convert them as needed.
func parseProperties(pairs []string) (map[string]interface{}, error) {
	props := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid property %q, want key=value", p)
		}
		props[k] = v
	}
	return props, nil
}

// startSOCKS serves SOCKS5 on an ephemeral loopback port until stop is
// called.
func startSOCKS() (addr string, stop func(), err error) {
	server, err := socks5.New(&socks5.Config{})
	if err != nil {
		return "", nil, fmt.Errorf("socks5.New(_) returned error: %v", err)
	}
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	done := make(chan struct{})
	go func() {
		err := server.Serve(l)
		select {
		case <-done:
			return
		default:
		}
		if err != nil {
			glog.Warningf("SOCKS proxy on %s stopped: %v", l.Addr(), err)
		}
	}()
	glog.Infof("SOCKS5 proxy listening on %s", l.Addr())
	return l.Addr().String(), func() {
		close(done)
		l.Close()
	}, nil
}
