package htmlunit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tebeka/selenium"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wanmail/selenium-client-factory/rc"
)

// Selenium drives a Browser through the classic RC command set. Locators
// take the forms id=, name=, identifier=, css=, xpath=, class= and link=. A
// locator starting with "//" is XPath and one without a prefix is an
// identifier. DOM locators are not supported.
type Selenium struct {
	browser    *Browser
	browserURL string

	mu        sync.Mutex
	sessionID string
}

var _ rc.Selenium = (*Selenium)(nil)

// NewSelenium returns an RC driver on b. Relative URLs given to Open are
// resolved against browserURL until a page is loaded.
func NewSelenium(b *Browser, browserURL string) *Selenium {
	return &Selenium{browser: b, browserURL: browserURL}
}

// Browser returns the engine behind the driver.
func (s *Selenium) Browser() *Browser { return s.browser }

func (s *Selenium) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = strings.ReplaceAll(uuid.NewString(), "-", "")
	return nil
}

func (s *Selenium) Stop() error {
	s.mu.Lock()
	s.sessionID = ""
	s.mu.Unlock()
	s.browser.Close()
	return nil
}

func (s *Selenium) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Do runs a command by its wire name. Boolean results are "true" or
// "false", commands without a result return "".
func (s *Selenium) Do(command string, args ...string) (string, error) {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	void := func(err error) (string, error) { return "", err }
	boolean := func(b bool, err error) (string, error) { return strconv.FormatBool(b), err }

	switch command {
	case rc.CmdGetNewBrowserSession:
		if err := s.Start(); err != nil {
			return "", err
		}
		return s.SessionID(), nil
	case rc.CmdTestComplete:
		return void(s.Stop())
	case rc.CmdOpen:
		return void(s.Open(arg(0)))
	case rc.CmdClick:
		return void(s.Click(arg(0)))
	case rc.CmdDoubleClick:
		return void(s.DoubleClick(arg(0)))
	case rc.CmdType:
		return void(s.Type(arg(0), arg(1)))
	case rc.CmdSelect:
		return void(s.Select(arg(0), arg(1)))
	case rc.CmdCheck:
		return void(s.Check(arg(0)))
	case rc.CmdUncheck:
		return void(s.Uncheck(arg(0)))
	case rc.CmdSubmit:
		return void(s.Submit(arg(0)))
	case rc.CmdGoBack:
		return void(s.GoBack())
	case rc.CmdRefresh:
		return void(s.Refresh())
	case rc.CmdGetTitle:
		return s.GetTitle()
	case rc.CmdGetLocation:
		return s.GetLocation()
	case rc.CmdGetBodyText:
		return s.GetBodyText()
	case rc.CmdGetHTMLSource:
		return s.GetHTMLSource()
	case rc.CmdGetText:
		return s.GetText(arg(0))
	case rc.CmdGetValue:
		return s.GetValue(arg(0))
	case rc.CmdGetAttribute:
		return s.GetAttribute(arg(0))
	case rc.CmdIsElementPresent:
		return boolean(s.IsElementPresent(arg(0)))
	case rc.CmdIsTextPresent:
		return boolean(s.IsTextPresent(arg(0)))
	case rc.CmdIsChecked:
		return boolean(s.IsChecked(arg(0)))
	case rc.CmdWaitForPageToLoad, rc.CmdSetContext:
		return "", nil
	case rc.CmdSetTimeout:
		ms, err := strconv.Atoi(arg(0))
		if err != nil {
			return "", fmt.Errorf("bad timeout %q", arg(0))
		}
		return void(s.SetTimeout(time.Duration(ms) * time.Millisecond))
	case rc.CmdCreateCookie:
		return void(s.CreateCookie(arg(0), arg(1)))
	case rc.CmdGetCookie:
		return s.GetCookie()
	case rc.CmdDeleteAllVisibleCookies:
		return void(s.DeleteAllVisibleCookies())
	}
	return "", unsupported(command)
}

// Open loads url. Relative URLs are resolved against the current page, or
// against the browser URL the driver was created with.
func (s *Selenium) Open(url string) error {
	u, err := s.browser.Resolve(url, s.browserURL)
	if err != nil {
		return err
	}
	return s.browser.Open(context.Background(), u.String())
}

func (s *Selenium) Click(locator string) error {
	n, err := s.locate(locator)
	if err != nil {
		return err
	}
	return s.browser.Click(context.Background(), n)
}

func (s *Selenium) DoubleClick(locator string) error { return s.Click(locator) }

func (s *Selenium) Type(locator, value string) error {
	n, err := s.locate(locator)
	if err != nil {
		return err
	}
	if disabled(n) {
		return fmt.Errorf("element %s is disabled", locator)
	}
	setValue(n, value)
	return nil
}

// Select picks an option by label=, value=, id= or index=. An option locator
// without a prefix is a label.
func (s *Selenium) Select(selectLocator, optionLocator string) error {
	sel, err := s.locate(selectLocator)
	if err != nil {
		return err
	}
	if !isElement(sel, atom.Select) {
		return fmt.Errorf("element %s is not a select", selectLocator)
	}
	var opts []*html.Node
	walk(sel, func(n *html.Node) bool {
		if n.DataAtom == atom.Option {
			opts = append(opts, n)
		}
		return true
	})

	kind, want, ok := strings.Cut(optionLocator, "=")
	if !ok {
		kind, want = "label", optionLocator
	}
	var match func(int, *html.Node) bool
	switch kind {
	case "label":
		match = func(_ int, o *html.Node) bool { return text(o) == want }
	case "value":
		match = func(_ int, o *html.Node) bool { return value(o) == want }
	case "id":
		match = func(_ int, o *html.Node) bool { return attrValue(o, "id") == want }
	case "index":
		idx, err := strconv.Atoi(want)
		if err != nil {
			return fmt.Errorf("bad option index %q", want)
		}
		match = func(i int, _ *html.Node) bool { return i == idx }
	default:
		match = func(_ int, o *html.Node) bool { return text(o) == optionLocator }
	}
	for i, o := range opts {
		if match(i, o) {
			selectOption(o)
			return nil
		}
	}
	return fmt.Errorf("option %s not found in %s", optionLocator, selectLocator)
}

func (s *Selenium) Check(locator string) error {
	n, err := s.locateCheckable(locator)
	if err != nil {
		return err
	}
	if strings.EqualFold(attrValue(n, "type"), "radio") {
		checkRadio(n)
	} else {
		setAttr(n, "checked", "checked")
	}
	return nil
}

func (s *Selenium) Uncheck(locator string) error {
	n, err := s.locateCheckable(locator)
	if err != nil {
		return err
	}
	removeAttr(n, "checked")
	return nil
}

func (s *Selenium) locateCheckable(locator string) (*html.Node, error) {
	n, err := s.locate(locator)
	if err != nil {
		return nil, err
	}
	if !checkable(n) {
		return nil, fmt.Errorf("element %s is not a checkbox or radio button", locator)
	}
	return n, nil
}

func (s *Selenium) Submit(formLocator string) error {
	n, err := s.locate(formLocator)
	if err != nil {
		return err
	}
	return s.browser.Submit(context.Background(), n)
}

func (s *Selenium) GoBack() error { return s.browser.Back() }

func (s *Selenium) Refresh() error { return s.browser.Refresh(context.Background()) }

func (s *Selenium) GetTitle() (string, error) {
	doc, err := s.browser.Document()
	if err != nil {
		return "", err
	}
	return title(doc), nil
}

func (s *Selenium) GetLocation() (string, error) {
	if _, err := s.browser.Document(); err != nil {
		return "", err
	}
	return s.browser.URL(), nil
}

func (s *Selenium) GetBodyText() (string, error) {
	doc, err := s.browser.Document()
	if err != nil {
		return "", err
	}
	return text(body(doc)), nil
}

func (s *Selenium) GetHTMLSource() (string, error) {
	doc, err := s.browser.Document()
	if err != nil {
		return "", err
	}
	return render(doc)
}

func (s *Selenium) GetText(locator string) (string, error) {
	n, err := s.locate(locator)
	if err != nil {
		return "", err
	}
	return text(n), nil
}

// GetValue returns "on" or "off" for checkboxes and radio buttons.
func (s *Selenium) GetValue(locator string) (string, error) {
	n, err := s.locate(locator)
	if err != nil {
		return "", err
	}
	if checkable(n) {
		if selected(n) {
			return "on", nil
		}
		return "off", nil
	}
	return value(n), nil
}

func (s *Selenium) GetAttribute(attributeLocator string) (string, error) {
	i := strings.LastIndexByte(attributeLocator, '@')
	if i < 0 {
		return "", fmt.Errorf("attribute locator %q has no @", attributeLocator)
	}
	n, err := s.locate(attributeLocator[:i])
	if err != nil {
		return "", err
	}
	name := attributeLocator[i+1:]
	v, ok := attr(n, name)
	if !ok {
		return "", fmt.Errorf("attribute %q not found on %s", name, attributeLocator[:i])
	}
	return v, nil
}

func (s *Selenium) IsElementPresent(locator string) (bool, error) {
	_, err := s.locate(locator)
	var nf *notFoundError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &nf):
		return false, nil
	}
	return false, err
}

// IsTextPresent matches pattern against the body text. Patterns take the
// prefixes glob:, regexp: and exact:, glob being the default; glob and
// exact patterns match anywhere in the text.
func (s *Selenium) IsTextPresent(pattern string) (bool, error) {
	bodyText, err := s.GetBodyText()
	if err != nil {
		return false, err
	}
	switch {
	case strings.HasPrefix(pattern, "regexp:"):
		re, err := regexp.Compile(strings.TrimPrefix(pattern, "regexp:"))
		if err != nil {
			return false, err
		}
		return re.MatchString(bodyText), nil
	case strings.HasPrefix(pattern, "exact:"):
		return strings.Contains(bodyText, strings.TrimPrefix(pattern, "exact:")), nil
	}
	return globRegexp(strings.TrimPrefix(pattern, "glob:")).MatchString(bodyText), nil
}

func globRegexp(glob string) *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString("(?s)")
	for _, r := range glob {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return regexp.MustCompile(sb.String())
}

func (s *Selenium) IsChecked(locator string) (bool, error) {
	n, err := s.locateCheckable(locator)
	if err != nil {
		return false, err
	}
	return selected(n), nil
}

// WaitForPageToLoad returns at once: pages are loaded before the command
// that navigates returns.
func (s *Selenium) WaitForPageToLoad(timeout time.Duration) error { return nil }

func (s *Selenium) SetTimeout(timeout time.Duration) error {
	s.browser.SetPageLoadTimeout(timeout)
	return nil
}

func (s *Selenium) GetEval(script string) (string, error) { return "", unsupported("GetEval") }

func (s *Selenium) CaptureScreenshotToString() (string, error) {
	return "", unsupported("CaptureScreenshotToString")
}

// CreateCookie takes "name=value" and options such as "path=/, max_age=60".
func (s *Selenium) CreateCookie(nameValuePair, options string) error {
	name, val, ok := strings.Cut(nameValuePair, "=")
	if !ok || name == "" {
		return fmt.Errorf("bad cookie %q", nameValuePair)
	}
	c := &http.Cookie{Name: strings.TrimSpace(name), Value: val}
	for _, opt := range strings.Split(options, ",") {
		k, v, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch strings.TrimSpace(k) {
		case "path":
			c.Path = v
		case "domain":
			c.Domain = v
		case "max_age":
			secs, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("bad cookie max_age %q", v)
			}
			c.Expires = time.Now().Add(time.Duration(secs) * time.Second)
		}
	}
	return s.browser.SetCookie(c)
}

// GetCookie returns the cookies of the current page as "a=1; b=2".
func (s *Selenium) GetCookie() (string, error) {
	cs, err := s.browser.Cookies()
	if err != nil {
		return "", err
	}
	pairs := make([]string, len(cs))
	for i, c := range cs {
		pairs[i] = c.Name + "=" + c.Value
	}
	return strings.Join(pairs, "; "), nil
}

func (s *Selenium) DeleteAllVisibleCookies() error {
	cs, err := s.browser.Cookies()
	if err != nil {
		return err
	}
	for _, c := range cs {
		if err := s.browser.DeleteCookie(c.Name); err != nil {
			return err
		}
	}
	return nil
}

// SetContext is accepted and ignored.
func (s *Selenium) SetContext(context string) error { return nil }

type notFoundError struct {
	locator string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("element %s not found", e.locator)
}

// locate returns the first element matched by an RC locator.
func (s *Selenium) locate(locator string) (*html.Node, error) {
	doc, err := s.browser.Document()
	if err != nil {
		return nil, err
	}
	strategy, value := "identifier", locator
	switch {
	case strings.HasPrefix(locator, "//"):
		strategy = "xpath"
	case strings.HasPrefix(locator, "document."):
		return nil, unsupported("locator " + locator)
	default:
		if k, v, ok := strings.Cut(locator, "="); ok && isStrategy(k) {
			strategy, value = k, v
		}
	}

	var bys []string
	switch strategy {
	case "identifier":
		bys = []string{selenium.ByID, selenium.ByName}
	case "id":
		bys = []string{selenium.ByID}
	case "name":
		bys = []string{selenium.ByName}
	case "css":
		bys = []string{selenium.ByCSSSelector}
	case "link":
		bys = []string{selenium.ByLinkText}
	case "class":
		bys = []string{selenium.ByClassName}
	case "xpath":
		bys = []string{selenium.ByXPATH}
	case "dom":
		return nil, unsupported("locator " + locator)
	default:
		// An unknown prefix is part of an identifier such as "a=b".
		bys, value = []string{selenium.ByID, selenium.ByName}, locator
	}
	for _, by := range bys {
		nodes, err := findAll(doc, by, value)
		if err != nil {
			return nil, err
		}
		if len(nodes) > 0 {
			return nodes[0], nil
		}
	}
	return nil, &notFoundError{locator: locator}
}

// isStrategy reports whether k can name a locator strategy.
func isStrategy(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
