package htmlunit

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tebeka/selenium"

	factory "github.com/wanmail/selenium-client-factory"
	"github.com/wanmail/selenium-client-factory/internal/factorytest"
)

const homePage = `<html><head><title>Home</title></head><body>
<h1>Welcome</h1>
<p id="greeting" class="intro">Hello from the test server</p>
<a id="next" href="/next">Next page</a>
<form id="search" action="/search" method="get">
  <input id="q" name="q" type="text" value="">
  <select id="lang" name="lang">
    <option value="en" selected>English</option>
    <option value="fr">French</option>
  </select>
  <input id="exact" name="exact" type="checkbox">
  <input type="radio" name="size" id="small" value="s" checked>
  <input type="radio" name="size" id="large" value="l">
  <input id="go" type="submit" name="go" value="Search">
</form>
<form id="comment" action="/post" method="post">
  <textarea id="body" name="body"></textarea>
  <button id="send">Send</button>
</form>
</body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, homePage)
	})
	mux.HandleFunc("/next", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Next</title></head><body><a href="/">Back home</a></body></html>`)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		fmt.Fprintf(w, `<html><head><title>Results for %s</title></head><body><p id="query">%s</p></body></html>`,
			html.EscapeString(q.Get("q")), html.EscapeString(q.Encode()))
	})
	mux.HandleFunc("/post", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "want POST", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `<html><head><title>Posted</title></head><body><p id="form">%s</p></body></html>`,
			html.EscapeString(r.PostForm.Encode()))
	})
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "flavor", Value: "oat", Path: "/"})
		fmt.Fprint(w, `<html><head><title>Cookie</title></head><body></body></html>`)
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "line one\nline two")
	})
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newWebDriver(t *testing.T) *WebDriver {
	t.Helper()
	b, err := NewBrowser(nil)
	if err != nil {
		t.Fatalf("NewBrowser() returned error: %v", err)
	}
	return NewWebDriver(b, nil)
}

func mustFind(t *testing.T, wd selenium.WebDriver, by, value string) selenium.WebElement {
	t.Helper()
	e, err := wd.FindElement(by, value)
	if err != nil {
		t.Fatalf("FindElement(%q, %q) returned error: %v", by, value, err)
	}
	return e
}

func wantTitle(t *testing.T, wd selenium.WebDriver, want string) {
	t.Helper()
	got, err := wd.Title()
	if err != nil {
		t.Fatalf("Title() returned error: %v", err)
	}
	if got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}
}

func TestWebDriverNavigation(t *testing.T) {
	s := newTestServer(t)
	wd := newWebDriver(t)

	if err := wd.Get(s.URL + "/"); err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	wantTitle(t, wd, "Home")

	if err := mustFind(t, wd, selenium.ByLinkText, "Next page").Click(); err != nil {
		t.Fatalf("Click() returned error: %v", err)
	}
	wantTitle(t, wd, "Next")
	if got, _ := wd.CurrentURL(); got != s.URL+"/next" {
		t.Errorf("CurrentURL() = %q, want %q", got, s.URL+"/next")
	}

	if err := wd.Back(); err != nil {
		t.Fatalf("Back() returned error: %v", err)
	}
	wantTitle(t, wd, "Home")
	if err := wd.Forward(); err != nil {
		t.Fatalf("Forward() returned error: %v", err)
	}
	wantTitle(t, wd, "Next")
	if err := wd.Refresh(); err != nil {
		t.Fatalf("Refresh() returned error: %v", err)
	}
	wantTitle(t, wd, "Next")

	if err := wd.Get("/plain"); err != nil {
		t.Fatalf("Get(relative) returned error: %v", err)
	}
	src, err := wd.PageSource()
	if err != nil {
		t.Fatalf("PageSource() returned error: %v", err)
	}
	if !strings.Contains(src, "<pre>line one\nline two</pre>") {
		t.Errorf("PageSource() = %q, want the text in a <pre>", src)
	}
}

func TestWebDriverElements(t *testing.T) {
	s := newTestServer(t)
	wd := newWebDriver(t)
	if err := wd.Get(s.URL); err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}

	greeting := mustFind(t, wd, selenium.ByCSSSelector, "body > p.intro")
	if got, _ := greeting.Text(); got != "Hello from the test server" {
		t.Errorf("Text() = %q", got)
	}
	if got, _ := greeting.TagName(); got != "p" {
		t.Errorf("TagName() = %q, want p", got)
	}
	if got, err := greeting.GetAttribute("class"); err != nil || got != "intro" {
		t.Errorf("GetAttribute(class) = %q, %v; want intro, nil", got, err)
	}
	if _, err := greeting.GetAttribute("missing"); err == nil {
		t.Error("GetAttribute(missing) returned nil error")
	}

	form := mustFind(t, wd, selenium.ByID, "search")
	inputs, err := form.FindElements(selenium.ByTagName, "input")
	if err != nil {
		t.Fatalf("FindElements() returned error: %v", err)
	}
	if len(inputs) != 5 {
		t.Errorf("form has %d inputs, want 5", len(inputs))
	}

	if _, err := wd.FindElement(selenium.ByID, "missing"); err == nil {
		t.Error("FindElement(missing) returned nil error")
	}

	exact := mustFind(t, wd, selenium.ByID, "exact")
	if err := exact.Click(); err != nil {
		t.Fatalf("Click(checkbox) returned error: %v", err)
	}
	if sel, _ := exact.IsSelected(); !sel {
		t.Error("checkbox not selected after Click")
	}
	large := mustFind(t, wd, selenium.ByID, "large")
	if err := large.Click(); err != nil {
		t.Fatalf("Click(radio) returned error: %v", err)
	}
	if sel, _ := mustFind(t, wd, selenium.ByID, "small").IsSelected(); sel {
		t.Error("other radio button still selected")
	}
	if err := mustFind(t, wd, selenium.ByCSSSelector, "#lang option[value=fr]").Click(); err != nil {
		t.Fatalf("Click(option) returned error: %v", err)
	}

	q := mustFind(t, wd, selenium.ByName, "q")
	if err := q.SendKeys("gophers" + selenium.EnterKey); err != nil {
		t.Fatalf("SendKeys() returned error: %v", err)
	}
	wantTitle(t, wd, "Results for gophers")
	got, _ := mustFind(t, wd, selenium.ByID, "query").Text()
	if want := "exact=on&lang=fr&q=gophers&size=l"; got != want {
		t.Errorf("submitted query = %q, want %q", got, want)
	}
}

func TestWebDriverPostForm(t *testing.T) {
	s := newTestServer(t)
	wd := newWebDriver(t)
	if err := wd.Get(s.URL); err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if err := mustFind(t, wd, selenium.ByID, "body").SendKeys("hi there"); err != nil {
		t.Fatalf("SendKeys() returned error: %v", err)
	}
	if err := mustFind(t, wd, selenium.ByID, "send").Click(); err != nil {
		t.Fatalf("Click() returned error: %v", err)
	}
	wantTitle(t, wd, "Posted")
	got, _ := mustFind(t, wd, selenium.ByID, "form").Text()
	if want := "body=hi+there"; got != want {
		t.Errorf("posted form = %q, want %q", got, want)
	}
}

func TestWebDriverCookies(t *testing.T) {
	s := newTestServer(t)
	wd := newWebDriver(t)
	if err := wd.Get(s.URL + "/cookie"); err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	c, err := wd.GetCookie("flavor")
	if err != nil {
		t.Fatalf("GetCookie() returned error: %v", err)
	}
	if c.Value != "oat" {
		t.Errorf("cookie value = %q, want oat", c.Value)
	}
	if err := wd.AddCookie(&selenium.Cookie{Name: "size", Value: "large", Path: "/"}); err != nil {
		t.Fatalf("AddCookie() returned error: %v", err)
	}
	cookies, err := wd.GetCookies()
	if err != nil {
		t.Fatalf("GetCookies() returned error: %v", err)
	}
	if len(cookies) != 2 {
		t.Errorf("GetCookies() = %v, want 2 cookies", cookies)
	}
	if err := wd.DeleteAllCookies(); err != nil {
		t.Fatalf("DeleteAllCookies() returned error: %v", err)
	}
	if cookies, _ := wd.GetCookies(); len(cookies) != 0 {
		t.Errorf("GetCookies() after delete = %v, want none", cookies)
	}
}

func TestWebDriverUnsupported(t *testing.T) {
	wd := newWebDriver(t)
	_, err := wd.ExecuteScript("return 1", nil)
	var uerr *UnsupportedError
	if !errors.As(err, &uerr) {
		t.Fatalf("ExecuteScript() = %v, want *UnsupportedError", err)
	}
	if uerr.Op != "ExecuteScript" {
		t.Errorf("UnsupportedError.Op = %q, want ExecuteScript", uerr.Op)
	}
	if _, err := wd.Title(); err == nil {
		t.Error("Title() with no page returned nil error")
	}
	if got, _ := wd.CurrentURL(); got != "about:blank" {
		t.Errorf("CurrentURL() = %q, want about:blank", got)
	}
}

func TestWebDriverQuit(t *testing.T) {
	s := newTestServer(t)
	wd := newWebDriver(t)
	if wd.SessionID() == "" {
		t.Fatal("SessionID() is empty before Quit")
	}
	if err := wd.Get(s.URL); err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if err := wd.Quit(); err != nil {
		t.Fatalf("Quit() returned error: %v", err)
	}
	if wd.SessionID() != "" {
		t.Errorf("SessionID() = %q after Quit, want empty", wd.SessionID())
	}
	if _, err := wd.Title(); err == nil {
		t.Error("Title() after Quit returned nil error")
	}
}

func newSelenium(t *testing.T, browserURL string) *Selenium {
	t.Helper()
	b, err := NewBrowser(nil)
	if err != nil {
		t.Fatalf("NewBrowser() returned error: %v", err)
	}
	s := NewSelenium(b, browserURL)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s
}

func TestSeleniumCommands(t *testing.T) {
	srv := newTestServer(t)
	s := newSelenium(t, srv.URL+"/")

	if err := s.Open("/"); err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	if got, _ := s.GetTitle(); got != "Home" {
		t.Errorf("GetTitle() = %q, want Home", got)
	}
	if got, _ := s.GetText("greeting"); got != "Hello from the test server" {
		t.Errorf("GetText() = %q", got)
	}
	if got, err := s.GetAttribute("css=#next@href"); err != nil || got != "/next" {
		t.Errorf("GetAttribute() = %q, %v; want /next, nil", got, err)
	}

	presence := []struct {
		locator string
		want    bool
	}{
		{"q", true},
		{"id=q", true},
		{"name=lang", true},
		{"css=form#search select", true},
		{"link=Next page", true},
		{"//input[@name='q']", true},
		{"xpath=//form[@id='search']//select", true},
		{"//table", false},
		{"missing", false},
	}
	for _, tc := range presence {
		got, err := s.IsElementPresent(tc.locator)
		if err != nil {
			t.Errorf("IsElementPresent(%q) returned error: %v", tc.locator, err)
			continue
		}
		if got != tc.want {
			t.Errorf("IsElementPresent(%q) = %v, want %v", tc.locator, got, tc.want)
		}
	}
	if _, err := s.IsElementPresent("dom=document.forms[0]"); err == nil {
		t.Error("IsElementPresent(dom locator) returned nil error")
	}

	texts := []struct {
		pattern string
		want    bool
	}{
		{"Welcome", true},
		{"glob:Hello*server", true},
		{"regexp:^Welcome", true},
		{"exact:test server", true},
		{"Goodbye", false},
	}
	for _, tc := range texts {
		if got, err := s.IsTextPresent(tc.pattern); err != nil || got != tc.want {
			t.Errorf("IsTextPresent(%q) = %v, %v; want %v, nil", tc.pattern, got, err, tc.want)
		}
	}

	if err := s.Type("q", "rc"); err != nil {
		t.Fatalf("Type() returned error: %v", err)
	}
	if err := s.Select("lang", "label=French"); err != nil {
		t.Fatalf("Select() returned error: %v", err)
	}
	if got, _ := s.GetValue("lang"); got != "fr" {
		t.Errorf("GetValue(lang) = %q, want fr", got)
	}
	if err := s.Check("exact"); err != nil {
		t.Fatalf("Check() returned error: %v", err)
	}
	if got, _ := s.IsChecked("exact"); !got {
		t.Error("IsChecked(exact) = false after Check")
	}
	if got, _ := s.GetValue("exact"); got != "on" {
		t.Errorf("GetValue(exact) = %q, want on", got)
	}
	if err := s.Uncheck("exact"); err != nil {
		t.Fatalf("Uncheck() returned error: %v", err)
	}
	if err := s.Submit("search"); err != nil {
		t.Fatalf("Submit() returned error: %v", err)
	}
	if got, _ := s.GetTitle(); got != "Results for rc" {
		t.Errorf("GetTitle() after Submit = %q", got)
	}
	if got, _ := s.GetLocation(); !strings.HasPrefix(got, srv.URL+"/search?") {
		t.Errorf("GetLocation() = %q, want the search page", got)
	}
	if err := s.GoBack(); err != nil {
		t.Fatalf("GoBack() returned error: %v", err)
	}
	if got, _ := s.GetTitle(); got != "Home" {
		t.Errorf("GetTitle() after GoBack = %q, want Home", got)
	}
}

func TestSeleniumDo(t *testing.T) {
	srv := newTestServer(t)
	s := newSelenium(t, srv.URL)

	steps := []struct {
		cmd  string
		args []string
		want string
	}{
		{cmd: "open", args: []string{"/next"}, want: ""},
		{cmd: "getTitle", want: "Next"},
		{cmd: "isTextPresent", args: []string{"Back home"}, want: "true"},
		{cmd: "click", args: []string{"link=Back home"}, want: ""},
		{cmd: "getTitle", want: "Home"},
		{cmd: "isElementPresent", args: []string{"nothing"}, want: "false"},
		{cmd: "createCookie", args: []string{"a=1", "path=/"}, want: ""},
		{cmd: "getCookie", want: "a=1"},
		{cmd: "deleteAllVisibleCookies", want: ""},
		{cmd: "getCookie", want: ""},
	}
	for _, st := range steps {
		got, err := s.Do(st.cmd, st.args...)
		if err != nil {
			t.Fatalf("Do(%q, %q) returned error: %v", st.cmd, st.args, err)
		}
		if got != st.want {
			t.Errorf("Do(%q, %q) = %q, want %q", st.cmd, st.args, got, st.want)
		}
	}

	_, err := s.Do("getEval", "1+1")
	var uerr *UnsupportedError
	if !errors.As(err, &uerr) {
		t.Errorf("Do(getEval) = %v, want *UnsupportedError", err)
	}
	_, err = s.Do("dragAndDrop", "a", "b")
	if !errors.As(err, &uerr) || uerr.Op != "dragAndDrop" {
		t.Errorf("Do(dragAndDrop) = %v, want *UnsupportedError naming the command", err)
	}
}

func newHTMLUnitFactory(uri string) *factory.Factory {
	return factory.New(factory.WithRegistry(factorytest.Registry(NewProvider())), factory.WithDriverURI(uri))
}

func TestProviderWebDriver(t *testing.T) {
	srv := newTestServer(t)
	f := newHTMLUnitFactory("htmlunit:")
	wd, err := f.CreateWebDriver(srv.URL+"/next", selenium.Capabilities{"acceptInsecureCerts": true})
	if err != nil {
		t.Fatalf("CreateWebDriver() returned error: %v", err)
	}
	defer wd.Quit()
	wantTitle(t, wd, "Next")

	caps, err := wd.Capabilities()
	if err != nil {
		t.Fatalf("Capabilities() returned error: %v", err)
	}
	want := selenium.Capabilities{"acceptInsecureCerts": true, "browserName": "htmlunit", "javascriptEnabled": false}
	if diff := cmp.Diff(want, caps); diff != "" {
		t.Errorf("Capabilities() mismatch (-want +got):\n%s", diff)
	}
}

func TestProviderWebDriverWithoutURL(t *testing.T) {
	wd, err := newHTMLUnitFactory("htmlunit:?page-load-timeout=5s").CreateWebDriver("", nil)
	if err != nil {
		t.Fatalf("CreateWebDriver() returned error: %v", err)
	}
	if got, _ := wd.CurrentURL(); got != "about:blank" {
		t.Errorf("CurrentURL() = %q, want about:blank", got)
	}
}

func TestProviderSelenium(t *testing.T) {
	srv := newTestServer(t)
	s, err := newHTMLUnitFactory("htmlunit:").CreateSelenium(srv.URL + "/")
	if err != nil {
		t.Fatalf("CreateSelenium() returned error: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	defer s.Stop()
	if err := s.Open("next"); err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	if got, _ := s.GetTitle(); got != "Next" {
		t.Errorf("GetTitle() = %q, want Next", got)
	}
}

func isMalformed(err error) bool {
	var e *factory.MalformedURIError
	return errors.As(err, &e)
}

func isConstructionFailure(err error) bool {
	var e *factory.ConstructionFailedError
	return errors.As(err, &e)
}

func TestProviderErrors(t *testing.T) {
	tests := []struct {
		desc       string
		uri        string
		browserURL string
		check      func(error) bool
	}{
		{
			desc:  "malformed parameters",
			uri:   "htmlunit:?timeout",
			check: isMalformed,
		},
		{
			desc:  "bad timeout",
			uri:   "htmlunit:?page-load-timeout=soon",
			check: isConstructionFailure,
		},
		{
			desc:       "unreachable starting URL",
			uri:        "htmlunit:",
			browserURL: "http://127.0.0.1:1/",
			check:      isConstructionFailure,
		},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := newHTMLUnitFactory(tc.uri).CreateWebDriver(tc.browserURL, nil)
			if err == nil || !tc.check(err) {
				t.Errorf("CreateWebDriver() = %v, want a different error", err)
			}
		})
	}
}
