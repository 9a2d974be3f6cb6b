package htmlunit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BrowserName is reported in the capabilities of every session.
const BrowserName = "htmlunit"

const (
	defaultWaitTimeout  = 60 * time.Second
	defaultWaitInterval = 100 * time.Millisecond

	mainWindow = "main"
)

// UnsupportedError is returned by operations the engine cannot perform, such
// as running scripts or taking screenshots.
type UnsupportedError struct {
	Op string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("htmlunit: %s is not supported", e.Op)
}

func unsupported(op string) error { return &UnsupportedError{Op: op} }

var errNoAlert = errors.New("no alert is open")

// WebDriver drives a Browser through the selenium.WebDriver interface.
type WebDriver struct {
	browser *Browser
	caps    selenium.Capabilities

	mu           sync.Mutex
	sessionID    string
	implicitWait time.Duration
	active       *html.Node
}

var _ selenium.WebDriver = (*WebDriver)(nil)

// NewWebDriver starts a session on b. caps are reported back unchanged by
// Capabilities, with browserName set.
func NewWebDriver(b *Browser, caps selenium.Capabilities) *WebDriver {
	c := selenium.Capabilities{}
	for k, v := range caps {
		c[k] = v
	}
	c["browserName"] = BrowserName
	c["javascriptEnabled"] = false
	return &WebDriver{browser: b, caps: c, sessionID: uuid.NewString()}
}

// Browser returns the engine behind the driver.
func (wd *WebDriver) Browser() *Browser { return wd.browser }

func (wd *WebDriver) Status() (*selenium.Status, error) {
	return &selenium.Status{Ready: true, Message: BrowserName + " ready"}, nil
}

func (wd *WebDriver) NewSession() (string, error) {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	wd.sessionID = uuid.NewString()
	return wd.sessionID, nil
}

// SessionId is the deprecated spelling of SessionID.
func (wd *WebDriver) SessionId() string { return wd.SessionID() }

func (wd *WebDriver) SessionID() string {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	return wd.sessionID
}

func (wd *WebDriver) SwitchSession(sessionID string) error {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	if sessionID != wd.sessionID {
		return fmt.Errorf("unknown session %q", sessionID)
	}
	return nil
}

func (wd *WebDriver) Capabilities() (selenium.Capabilities, error) {
	c := selenium.Capabilities{}
	for k, v := range wd.caps {
		c[k] = v
	}
	return c, nil
}

func (wd *WebDriver) SetAsyncScriptTimeout(timeout time.Duration) error {
	return nil
}

func (wd *WebDriver) SetImplicitWaitTimeout(timeout time.Duration) error {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	wd.implicitWait = timeout
	return nil
}

func (wd *WebDriver) SetPageLoadTimeout(timeout time.Duration) error {
	wd.browser.SetPageLoadTimeout(timeout)
	return nil
}

// Quit ends the session. The browser forgets its history.
func (wd *WebDriver) Quit() error {
	wd.mu.Lock()
	wd.sessionID = ""
	wd.active = nil
	wd.mu.Unlock()
	wd.browser.Close()
	return nil
}

func (wd *WebDriver) CurrentWindowHandle() (string, error) { return mainWindow, nil }

func (wd *WebDriver) WindowHandles() ([]string, error) { return []string{mainWindow}, nil }

func (wd *WebDriver) CurrentURL() (string, error) { return wd.browser.URL(), nil }

func (wd *WebDriver) Title() (string, error) {
	doc, err := wd.browser.Document()
	if err != nil {
		return "", err
	}
	return title(doc), nil
}

func (wd *WebDriver) PageSource() (string, error) {
	doc, err := wd.browser.Document()
	if err != nil {
		return "", err
	}
	return render(doc)
}

func (wd *WebDriver) Close() error {
	wd.browser.Close()
	return nil
}

// SwitchFrame only accepts nil, the top-level document.
func (wd *WebDriver) SwitchFrame(frame interface{}) error {
	if frame == nil {
		return nil
	}
	return unsupported("SwitchFrame")
}

func (wd *WebDriver) SwitchWindow(name string) error {
	if name != mainWindow {
		return fmt.Errorf("no such window %q", name)
	}
	return nil
}

func (wd *WebDriver) CloseWindow(name string) error {
	if err := wd.SwitchWindow(name); err != nil {
		return err
	}
	return wd.Close()
}

func (wd *WebDriver) MaximizeWindow(name string) error { return wd.SwitchWindow(name) }

func (wd *WebDriver) ResizeWindow(name string, width, height int) error {
	return wd.SwitchWindow(name)
}

func (wd *WebDriver) Get(url string) error {
	return wd.browser.Open(context.Background(), url)
}

func (wd *WebDriver) Forward() error { return wd.browser.Forward() }

func (wd *WebDriver) Back() error { return wd.browser.Back() }

func (wd *WebDriver) Refresh() error { return wd.browser.Refresh(context.Background()) }

func (wd *WebDriver) FindElement(by, value string) (selenium.WebElement, error) {
	doc, err := wd.browser.Document()
	if err != nil {
		return nil, err
	}
	return wd.findElement(doc, by, value)
}

func (wd *WebDriver) FindElements(by, value string) ([]selenium.WebElement, error) {
	doc, err := wd.browser.Document()
	if err != nil {
		return nil, err
	}
	return wd.findElements(doc, by, value)
}

// findElements polls for the implicit wait timeout while nothing matches.
func (wd *WebDriver) findElements(root *html.Node, by, value string) ([]selenium.WebElement, error) {
	wd.mu.Lock()
	wait := wd.implicitWait
	wd.mu.Unlock()

	deadline := time.Now().Add(wait)
	for {
		nodes, err := findAll(root, by, value)
		if err != nil {
			return nil, err
		}
		if len(nodes) > 0 || !time.Now().Before(deadline) {
			elems := make([]selenium.WebElement, len(nodes))
			for i, n := range nodes {
				elems[i] = &Element{wd: wd, node: n}
			}
			return elems, nil
		}
		time.Sleep(defaultWaitInterval)
	}
}

func (wd *WebDriver) findElement(root *html.Node, by, value string) (selenium.WebElement, error) {
	elems, err := wd.findElements(root, by, value)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("no such element: %s %q", by, value)
	}
	return elems[0], nil
}

// ActiveElement returns the last element typed into or clicked, or the body.
func (wd *WebDriver) ActiveElement() (selenium.WebElement, error) {
	doc, err := wd.browser.Document()
	if err != nil {
		return nil, err
	}
	wd.mu.Lock()
	active := wd.active
	wd.mu.Unlock()
	if active == nil {
		active = body(doc)
	}
	return &Element{wd: wd, node: active}, nil
}

func (wd *WebDriver) focus(n *html.Node) {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	wd.active = n
}

func (wd *WebDriver) DecodeElement(data []byte) (selenium.WebElement, error) {
	return nil, unsupported("DecodeElement")
}

func (wd *WebDriver) DecodeElements(data []byte) ([]selenium.WebElement, error) {
	return nil, unsupported("DecodeElements")
}

func (wd *WebDriver) GetCookies() ([]selenium.Cookie, error) {
	cs, err := wd.browser.Cookies()
	if err != nil {
		return nil, err
	}
	cookies := make([]selenium.Cookie, len(cs))
	for i, c := range cs {
		cookies[i] = selenium.Cookie{Name: c.Name, Value: c.Value}
	}
	return cookies, nil
}

func (wd *WebDriver) GetCookie(name string) (selenium.Cookie, error) {
	cs, err := wd.GetCookies()
	if err != nil {
		return selenium.Cookie{}, err
	}
	for _, c := range cs {
		if c.Name == name {
			return c, nil
		}
	}
	return selenium.Cookie{}, fmt.Errorf("no such cookie %q", name)
}

func (wd *WebDriver) AddCookie(cookie *selenium.Cookie) error {
	c := &http.Cookie{
		Name:   cookie.Name,
		Value:  cookie.Value,
		Path:   cookie.Path,
		Domain: cookie.Domain,
		Secure: cookie.Secure,
	}
	if cookie.Expiry > 0 {
		c.Expires = time.Unix(int64(cookie.Expiry), 0)
	}
	return wd.browser.SetCookie(c)
}

func (wd *WebDriver) DeleteAllCookies() error {
	cs, err := wd.browser.Cookies()
	if err != nil {
		return err
	}
	for _, c := range cs {
		if err := wd.browser.DeleteCookie(c.Name); err != nil {
			return err
		}
	}
	return nil
}

func (wd *WebDriver) DeleteCookie(name string) error { return wd.browser.DeleteCookie(name) }

func (wd *WebDriver) Click(button int) error { return unsupported("Click") }

func (wd *WebDriver) DoubleClick() error { return unsupported("DoubleClick") }

func (wd *WebDriver) ButtonDown() error { return unsupported("ButtonDown") }

func (wd *WebDriver) ButtonUp() error { return unsupported("ButtonUp") }

func (wd *WebDriver) SendModifier(modifier string, isDown bool) error {
	return unsupported("SendModifier")
}

func (wd *WebDriver) KeyDown(keys string) error { return unsupported("KeyDown") }

func (wd *WebDriver) KeyUp(keys string) error { return unsupported("KeyUp") }

func (wd *WebDriver) Screenshot() ([]byte, error) { return nil, unsupported("Screenshot") }

func (wd *WebDriver) Log(typ log.Type) ([]log.Message, error) { return nil, unsupported("Log") }

func (wd *WebDriver) DismissAlert() error { return errNoAlert }

func (wd *WebDriver) AcceptAlert() error { return errNoAlert }

func (wd *WebDriver) AlertText() (string, error) { return "", errNoAlert }

func (wd *WebDriver) SetAlertText(text string) error { return errNoAlert }

func (wd *WebDriver) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	return nil, unsupported("ExecuteScript")
}

func (wd *WebDriver) ExecuteScriptAsync(script string, args []interface{}) (interface{}, error) {
	return nil, unsupported("ExecuteScriptAsync")
}

func (wd *WebDriver) ExecuteScriptRaw(script string, args []interface{}) ([]byte, error) {
	return nil, unsupported("ExecuteScriptRaw")
}

func (wd *WebDriver) ExecuteScriptAsyncRaw(script string, args []interface{}) ([]byte, error) {
	return nil, unsupported("ExecuteScriptAsyncRaw")
}

func (wd *WebDriver) WaitWithTimeoutAndInterval(condition selenium.Condition, timeout, interval time.Duration) error {
	start := time.Now()
	for {
		done, err := condition(wd)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if elapsed := time.Since(start); elapsed > timeout {
			return fmt.Errorf("timeout after %v", elapsed)
		}
		time.Sleep(interval)
	}
}

func (wd *WebDriver) WaitWithTimeout(condition selenium.Condition, timeout time.Duration) error {
	return wd.WaitWithTimeoutAndInterval(condition, timeout, defaultWaitInterval)
}

func (wd *WebDriver) Wait(condition selenium.Condition) error {
	return wd.WaitWithTimeoutAndInterval(condition, defaultWaitTimeout, defaultWaitInterval)
}

// Element is a node of the current page.
type Element struct {
	wd   *WebDriver
	node *html.Node
}

var _ selenium.WebElement = (*Element)(nil)

func (e *Element) Click() error {
	e.wd.focus(e.node)
	return e.wd.browser.Click(context.Background(), e.node)
}

// SendKeys appends keys to the value of a text control. A trailing Enter or
// Return key submits the enclosing form.
func (e *Element) SendKeys(keys string) error {
	if disabled(e.node) {
		return fmt.Errorf("element <%s> is disabled", e.node.Data)
	}
	e.wd.focus(e.node)
	submit := false
	for _, k := range []string{selenium.EnterKey, selenium.ReturnKey} {
		if strings.HasSuffix(keys, k) {
			keys, submit = strings.TrimSuffix(keys, k), true
		}
	}
	if keys != "" {
		setValue(e.node, value(e.node)+keys)
	}
	if submit {
		return e.Submit()
	}
	return nil
}

func (e *Element) Submit() error {
	return e.wd.browser.Submit(context.Background(), e.node)
}

func (e *Element) Clear() error {
	setValue(e.node, "")
	return nil
}

func (e *Element) MoveTo(xOffset, yOffset int) error { return unsupported("MoveTo") }

func (e *Element) FindElement(by, value string) (selenium.WebElement, error) {
	return e.wd.findElement(e.node, by, value)
}

func (e *Element) FindElements(by, value string) ([]selenium.WebElement, error) {
	return e.wd.findElements(e.node, by, value)
}

func (e *Element) TagName() (string, error) { return strings.ToLower(e.node.Data), nil }

func (e *Element) Text() (string, error) { return text(e.node), nil }

func (e *Element) IsSelected() (bool, error) { return selected(e.node), nil }

func (e *Element) IsEnabled() (bool, error) { return !disabled(e.node), nil }

// IsDisplayed reports false for elements inside head, script or style, and
// for hidden inputs and elements with a hidden attribute.
func (e *Element) IsDisplayed() (bool, error) {
	for n := e.node; n != nil; n = parentElement(n) {
		if hidden(n) {
			return false, nil
		}
	}
	return true, nil
}

// GetAttribute returns the live value for "value" and an error if the
// attribute is absent.
func (e *Element) GetAttribute(name string) (string, error) {
	if name == "value" {
		return value(e.node), nil
	}
	v, ok := attr(e.node, name)
	if !ok {
		return "", fmt.Errorf("element <%s> has no attribute %q", e.node.Data, name)
	}
	return v, nil
}

func (e *Element) Location() (*selenium.Point, error) { return nil, unsupported("Location") }

func (e *Element) LocationInView() (*selenium.Point, error) {
	return nil, unsupported("LocationInView")
}

func (e *Element) Size() (*selenium.Size, error) { return nil, unsupported("Size") }

func (e *Element) CSSProperty(name string) (string, error) { return "", unsupported("CSSProperty") }

func (e *Element) Screenshot(scroll bool) ([]byte, error) { return nil, unsupported("Screenshot") }

func setValue(n *html.Node, v string) {
	if isElement(n, atom.Textarea) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		return
	}
	setAttr(n, "value", v)
}
