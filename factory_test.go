package factory_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tebeka/selenium"

	factory "github.com/wanmail/selenium-client-factory"
	"github.com/wanmail/selenium-client-factory/internal/factorytest"
	"github.com/wanmail/selenium-client-factory/rc"
)

func TestResolveConstructsOnlyOnClaimingProvider(t *testing.T) {
	a := factorytest.NewProvider("a:")
	b := factorytest.NewProvider("b:")
	c := factorytest.NewProvider("c:")
	f := factory.New(factory.WithRegistry(factorytest.Registry(a, b, c)), factory.WithDriverURI("b:x"))

	wd, err := f.CreateWebDriver("http://example.com/", nil)
	if err != nil {
		t.Fatalf("f.CreateWebDriver() returned error: %v", err)
	}
	if got := wd.(*factorytest.WebDriver).Name; got != "b:x" {
		t.Errorf("driver built for %q, want %q", got, "b:x")
	}

	for _, tc := range []struct {
		p                        *factorytest.Provider
		wantCanHandle, wantBuild int
	}{
		{a, 1, 0},
		{b, 1, 1},
		{c, 0, 0},
	} {
		if got := tc.p.CanHandleCalls(); got != tc.wantCanHandle {
			t.Errorf("provider %s: CanHandle calls = %d, want %d", tc.p.Prefix, got, tc.wantCanHandle)
		}
		if got := tc.p.CreateCalls(); got != tc.wantBuild {
			t.Errorf("provider %s: Create calls = %d, want %d", tc.p.Prefix, got, tc.wantBuild)
		}
	}
}

func TestResolveUnrecognized(t *testing.T) {
	ps := []*factorytest.Provider{
		factorytest.NewProvider("a:"),
		factorytest.NewProvider("b:"),
		factorytest.NewProvider("c:"),
	}
	f := factory.New(
		factory.WithRegistry(factorytest.Registry(ps[0], ps[1], ps[2])),
		factory.WithDriverURI("zzz:"),
	)

	_, err := f.CreateSelenium("http://example.com/")
	var uerr *factory.UnrecognizedURIError
	if !errors.As(err, &uerr) {
		t.Fatalf("f.CreateSelenium() returned error %v, want *UnrecognizedURIError", err)
	}
	if uerr.URI != "zzz:" {
		t.Errorf("UnrecognizedURIError.URI = %q, want %q", uerr.URI, "zzz:")
	}
	for _, p := range ps {
		if got := p.CanHandleCalls(); got != 1 {
			t.Errorf("provider %s: CanHandle calls = %d, want 1", p.Prefix, got)
		}
		if got := p.CreateCalls(); got != 0 {
			t.Errorf("provider %s: Create calls = %d, want 0", p.Prefix, got)
		}
	}
}

func TestResolveConstructionErrorIsFinal(t *testing.T) {
	first := factorytest.NewProvider("x:")
	first.Fail = "x:"
	second := factorytest.NewProvider("x:")
	f := factory.New(factory.WithRegistry(factorytest.Registry(first, second)), factory.WithDriverURI("x:bad"))

	_, err := f.CreateWebDriver("", nil)
	var cerr *factory.ConstructionFailedError
	if !errors.As(err, &cerr) {
		t.Fatalf("f.CreateWebDriver() returned error %v, want *ConstructionFailedError", err)
	}
	if !errors.Is(err, factorytest.ErrConstruction) {
		t.Errorf("f.CreateWebDriver() error %v does not wrap the provider's cause", err)
	}
	if got := second.CanHandleCalls() + second.CreateCalls(); got != 0 {
		t.Errorf("second provider was consulted %d times after the first claimed the URI", got)
	}
}

// nilProvider claims every URI and returns no driver.
type nilProvider struct{}

func (nilProvider) CanHandle(string) bool { return true }
func (nilProvider) CreateSelenium(*factory.Factory, string) (rc.Selenium, error) {
	return nil, nil
}
func (nilProvider) CreateWebDriver(*factory.Factory, string, selenium.Capabilities) (selenium.WebDriver, error) {
	return nil, nil
}

func TestResolveNilDriver(t *testing.T) {
	f := factory.New(factory.WithRegistry(factorytest.Registry(nilProvider{})), factory.WithDriverURI("any:"))
	_, err := f.CreateSelenium("")
	var cerr *factory.ConstructionFailedError
	if !errors.As(err, &cerr) {
		t.Fatalf("f.CreateSelenium() returned error %v, want *ConstructionFailedError", err)
	}
}

func TestRegistrySkipsBrokenEntries(t *testing.T) {
	r := factory.NewRegistry()
	r.Register("broken", func() (factory.Provider, error) { return nil, errors.New("no jar") })
	r.Register("nil", nil)
	r.Register("panics", func() (factory.Provider, error) { panic("boom") })
	good := factorytest.NewProvider("a:")
	r.RegisterProvider("good", good)

	if diff := cmp.Diff([]string{"broken", "nil", "panics", "good"}, r.Names()); diff != "" {
		t.Errorf("r.Names() returned diff (-want/+got):\n%s", diff)
	}

	f := factory.New(factory.WithRegistry(r), factory.WithDriverURI("a:"))
	if _, err := f.CreateSelenium(""); err != nil {
		t.Fatalf("f.CreateSelenium() returned error: %v", err)
	}
	if got := good.CreateCalls(); got != 1 {
		t.Errorf("good provider Create calls = %d, want 1", got)
	}
}

func TestRegistrationOrderDecides(t *testing.T) {
	first := factorytest.NewProvider("a:")
	second := factorytest.NewProvider("a:")
	f := factory.New(factory.WithRegistry(factorytest.Registry(first, second)), factory.WithDriverURI("a:"))
	for i := 0; i < 3; i++ {
		if _, err := f.CreateSelenium(""); err != nil {
			t.Fatalf("f.CreateSelenium() returned error: %v", err)
		}
	}
	if got := first.CreateCalls(); got != 3 {
		t.Errorf("first provider Create calls = %d, want 3", got)
	}
	if got := second.CreateCalls(); got != 0 {
		t.Errorf("second provider Create calls = %d, want 0", got)
	}
}

func TestClaimantBuildsNothing(t *testing.T) {
	a := factorytest.NewProvider("a:")
	b := factorytest.NewProvider("b:")
	reg := factorytest.Registry(a, b)

	if got, ok := reg.Claimant("b:x"); !ok || got != "b:" {
		t.Errorf("Claimant(b:x) = %q, %v; want %q, true", got, ok, "b:")
	}
	if _, ok := reg.Claimant("c:x"); ok {
		t.Error("Claimant(c:x) reported a claimant")
	}
	if a.CreateCalls()+b.CreateCalls() != 0 {
		t.Error("Claimant built a driver")
	}
}

func TestWithURIDoesNotLeakProperties(t *testing.T) {
	shared := []string{"-debug"}
	f := factory.New(factory.WithDriverURI("log:htmlunit:"), factory.WithRegistry(factory.NewRegistry()))
	f.SetProperty("embedded_args", shared)

	inner := f.WithURI("htmlunit:")
	inner.SetProperty("inner_only", true)
	inner.SetProperty("embedded_args", "replaced")

	if got := f.URI(); got != "log:htmlunit:" {
		t.Errorf("f.URI() = %q after WithURI, want %q", got, "log:htmlunit:")
	}
	if got := inner.URI(); got != "htmlunit:" {
		t.Errorf("inner.URI() = %q, want %q", got, "htmlunit:")
	}
	if got := f.Property("inner_only"); got != nil {
		t.Errorf("f.Property(\"inner_only\") = %v, want nil", got)
	}
	if diff := cmp.Diff(shared, f.Property("embedded_args")); diff != "" {
		t.Errorf("f.Property(\"embedded_args\") returned diff (-want/+got):\n%s", diff)
	}
	if inner.Registry() != f.Registry() {
		t.Error("inner.Registry() differs from f.Registry()")
	}
}

func TestDefaultURIFromEnvironment(t *testing.T) {
	noEnv := func(string) (string, bool) { return "", false }
	tests := []struct {
		desc      string
		overrides map[string]string
		want      string
	}{
		{"fallback", nil, "embedded-rc:"},
		{"default driver", map[string]string{factory.EnvDefaultDriver: "htmlunit:"}, "htmlunit:"},
		{
			desc: "driver wins over default",
			overrides: map[string]string{
				factory.EnvDefaultDriver: "htmlunit:",
				factory.EnvDriver:        "log:htmlunit:",
			},
			want: "log:htmlunit:",
		},
	}
	for _, tc := range tests {
		env := &factory.Environment{Overrides: tc.overrides, LookupEnv: noEnv}
		f := factory.New(factory.WithEnvironment(env))
		if got := f.URI(); got != tc.want {
			t.Errorf("%s: f.URI() = %q, want %q", tc.desc, got, tc.want)
		}
	}
}

func TestEnvironmentOverridesProcessEnv(t *testing.T) {
	env := &factory.Environment{
		Overrides: map[string]string{factory.EnvHost: "override"},
		LookupEnv: func(key string) (string, bool) { return "process-" + key, true },
	}
	if got := env.Get(factory.EnvHost, "default"); got != "override" {
		t.Errorf("env.Get(%q) = %q, want %q", factory.EnvHost, got, "override")
	}
	if got := env.Get(factory.EnvPort, "default"); got != "process-"+factory.EnvPort {
		t.Errorf("env.Get(%q) = %q, want %q", factory.EnvPort, got, "process-"+factory.EnvPort)
	}
}

func TestCreateFromEnvMissingTarget(t *testing.T) {
	a := factorytest.NewProvider("a:")
	env := &factory.Environment{LookupEnv: func(string) (string, bool) { return "", false }}
	f := factory.New(
		factory.WithRegistry(factorytest.Registry(a)),
		factory.WithEnvironment(env),
		factory.WithDriverURI("a:"),
	)

	_, err := f.CreateWebDriverFromEnv(nil)
	var merr *factory.MissingTargetError
	if !errors.As(err, &merr) {
		t.Fatalf("f.CreateWebDriverFromEnv() returned error %v, want *MissingTargetError", err)
	}
	if got := a.CanHandleCalls(); got != 0 {
		t.Errorf("providers consulted %d times without a target", got)
	}

	env.Set(factory.EnvDefaultStartingURL, "http://default.example/")
	wd, err := f.CreateWebDriverFromEnv(nil)
	if err != nil {
		t.Fatalf("f.CreateWebDriverFromEnv() returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"http://default.example/"}, wd.(*factorytest.WebDriver).Visited()); diff != "" {
		t.Errorf("visited URLs returned diff (-want/+got):\n%s", diff)
	}

	env.Set(factory.EnvStartingURL, "http://override.example/")
	s, err := f.CreateSeleniumFromEnv()
	if err != nil {
		t.Fatalf("f.CreateSeleniumFromEnv() returned error: %v", err)
	}
	if got := s.(*factorytest.Selenium).BrowserURL; got != "http://override.example/" {
		t.Errorf("browser URL = %q, want %q", got, "http://override.example/")
	}
}

// batchProvider builds one driver per entry of names.
type batchProvider struct {
	*factorytest.Provider
	names []string
}

func (b *batchProvider) CreateWebDrivers(f *factory.Factory, browserURL string) ([]selenium.WebDriver, error) {
	var wds []selenium.WebDriver
	for _, n := range b.names {
		wds = append(wds, factorytest.NewWebDriver(n))
	}
	return wds, nil
}

func TestCreateWebDrivers(t *testing.T) {
	bp := &batchProvider{Provider: factorytest.NewProvider("batch:"), names: []string{"one", "two"}}
	plain := factorytest.NewProvider("plain:")
	r := factorytest.Registry(bp, plain)

	wds, err := factory.New(factory.WithRegistry(r), factory.WithDriverURI("batch:")).CreateWebDrivers("")
	if err != nil {
		t.Fatalf("CreateWebDrivers() returned error: %v", err)
	}
	var got []string
	for _, wd := range wds {
		got = append(got, wd.(*factorytest.WebDriver).Name)
	}
	if diff := cmp.Diff(bp.names, got); diff != "" {
		t.Errorf("CreateWebDrivers() returned diff (-want/+got):\n%s", diff)
	}

	_, err = factory.New(factory.WithRegistry(r), factory.WithDriverURI("plain:")).CreateWebDrivers("")
	var cerr *factory.ConstructionFailedError
	if !errors.As(err, &cerr) {
		t.Errorf("CreateWebDrivers() on a single-driver provider returned error %v, want *ConstructionFailedError", err)
	}
}
