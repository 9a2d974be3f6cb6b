// Package rc implements the classic Selenium Remote Control command set and a
// client for the /selenium-server/driver/ HTTP protocol.
package rc

import (
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultPort is the port a Selenium server listens on unless told otherwise.
const DefaultPort = 4444

// Selenium is the classic RC capability set. Locators use the RC syntax
// ("id=x", "name=y", "css=z", "link=text" or a bare identifier).
type Selenium interface {
	// Start opens a browser session.
	Start() error
	// Stop ends the browser session.
	Stop() error
	// SessionID returns the identifier of the current session, or "" if none
	// is open.
	SessionID() string
	// Do sends an arbitrary command and returns its result.
	Do(command string, args ...string) (string, error)

	Open(url string) error
	Click(locator string) error
	DoubleClick(locator string) error
	Type(locator, value string) error
	Select(selectLocator, optionLocator string) error
	Check(locator string) error
	Uncheck(locator string) error
	Submit(formLocator string) error
	GoBack() error
	Refresh() error

	GetTitle() (string, error)
	GetLocation() (string, error)
	GetBodyText() (string, error)
	GetHTMLSource() (string, error)
	GetText(locator string) (string, error)
	GetValue(locator string) (string, error)
	// GetAttribute takes an "elementLocator@attributeName" locator.
	GetAttribute(attributeLocator string) (string, error)
	IsElementPresent(locator string) (bool, error)
	IsTextPresent(pattern string) (bool, error)
	IsChecked(locator string) (bool, error)

	WaitForPageToLoad(timeout time.Duration) error
	SetTimeout(timeout time.Duration) error
	GetEval(script string) (string, error)
	CaptureScreenshotToString() (string, error)

	CreateCookie(nameValuePair, options string) error
	GetCookie() (string, error)
	DeleteAllVisibleCookies() error
	SetContext(context string) error
}

// Error is returned when the server answers a command with anything other
// than "OK".
type Error struct {
	Command string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("selenium command %s failed: %s", e.Command, e.Message)
}

var _ Selenium = (*Client)(nil)

// Client drives a Selenium server over HTTP.
type Client struct {
	Host                string
	Port                int
	BrowserStartCommand string
	BrowserURL          string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	mu        sync.Mutex
	sessionID string
}

// NewClient returns a Client for the server at host:port. No request is made
// until Start.
func NewClient(host string, port int, browserStartCommand, browserURL string) *Client {
	return &Client{
		Host:                host,
		Port:                port,
		BrowserStartCommand: browserStartCommand,
		BrowserURL:          browserURL,
	}
}

// Endpoint returns the URL commands are posted to.
func (c *Client) Endpoint() string {
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) + "/selenium-server/driver/"
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Do posts command with its positional arguments and returns the value that
// followed "OK," in the reply.
func (c *Client) Do(command string, args ...string) (string, error) {
	values := url.Values{}
	values.Set("cmd", command)
	for i, arg := range args {
		values.Set(strconv.Itoa(i+1), arg)
	}
	if id := c.SessionID(); id != "" {
		values.Set("sessionId", id)
	}

	response, err := c.httpClient().PostForm(c.Endpoint(), values)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	buf, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return "", err
	}

	msg := string(buf)
	if !strings.HasPrefix(msg, "OK") {
		return "", &Error{Command: command, Message: msg}
	}
	return strings.TrimPrefix(msg[2:], ","), nil
}

func (c *Client) doBool(command string, args ...string) (bool, error) {
	v, err := c.Do(command, args...)
	if err != nil {
		return false, err
	}
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("selenium command %s: result %q is not a boolean", command, v)
}

func (c *Client) doVoid(command string, args ...string) error {
	_, err := c.Do(command, args...)
	return err
}

// Start opens a new browser session.
func (c *Client) Start() error {
	id, err := c.Do(CmdGetNewBrowserSession, c.BrowserStartCommand, c.BrowserURL, "")
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
	return nil
}

// Stop ends the session. It is a no-op when no session is open.
func (c *Client) Stop() error {
	if c.SessionID() == "" {
		return nil
	}
	err := c.doVoid(CmdTestComplete)
	c.mu.Lock()
	c.sessionID = ""
	c.mu.Unlock()
	return err
}

// SessionID returns the current session, or "".
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) Open(url string) error { return c.doVoid(CmdOpen, url) }
func (c *Client) Click(locator string) error { return c.doVoid(CmdClick, locator) }
func (c *Client) DoubleClick(locator string) error { return c.doVoid(CmdDoubleClick, locator) }
func (c *Client) Type(locator, value string) error { return c.doVoid(CmdType, locator, value) }
func (c *Client) Check(locator string) error { return c.doVoid(CmdCheck, locator) }
func (c *Client) Uncheck(locator string) error { return c.doVoid(CmdUncheck, locator) }
func (c *Client) Submit(formLocator string) error { return c.doVoid(CmdSubmit, formLocator) }
func (c *Client) GoBack() error { return c.doVoid(CmdGoBack) }
func (c *Client) Refresh() error { return c.doVoid(CmdRefresh) }
func (c *Client) GetTitle() (string, error) { return c.Do(CmdGetTitle) }
func (c *Client) GetLocation() (string, error) { return c.Do(CmdGetLocation) }
func (c *Client) GetBodyText() (string, error) { return c.Do(CmdGetBodyText) }
func (c *Client) GetHTMLSource() (string, error) { return c.Do(CmdGetHTMLSource) }
func (c *Client) GetText(locator string) (string, error) { return c.Do(CmdGetText, locator) }
func (c *Client) GetValue(locator string) (string, error) { return c.Do(CmdGetValue, locator) }
func (c *Client) GetEval(script string) (string, error) { return c.Do(CmdGetEval, script) }
func (c *Client) GetCookie() (string, error) { return c.Do(CmdGetCookie) }
func (c *Client) DeleteAllVisibleCookies() error { return c.doVoid(CmdDeleteAllVisibleCookies) }
func (c *Client) SetContext(context string) error { return c.doVoid(CmdSetContext, context) }

func (c *Client) Select(selectLocator, optionLocator string) error {
	return c.doVoid(CmdSelect, selectLocator, optionLocator)
}

func (c *Client) GetAttribute(attributeLocator string) (string, error) {
	return c.Do(CmdGetAttribute, attributeLocator)
}

func (c *Client) IsElementPresent(locator string) (bool, error) {
	return c.doBool(CmdIsElementPresent, locator)
}

func (c *Client) IsTextPresent(pattern string) (bool, error) {
	return c.doBool(CmdIsTextPresent, pattern)
}

func (c *Client) IsChecked(locator string) (bool, error) {
	return c.doBool(CmdIsChecked, locator)
}

func (c *Client) WaitForPageToLoad(timeout time.Duration) error {
	return c.doVoid(CmdWaitForPageToLoad, millis(timeout))
}

func (c *Client) SetTimeout(timeout time.Duration) error {
	return c.doVoid(CmdSetTimeout, millis(timeout))
}

func (c *Client) CaptureScreenshotToString() (string, error) {
	return c.Do(CmdCaptureScreenshotToStr)
}

func (c *Client) CreateCookie(nameValuePair, options string) error {
	return c.doVoid(CmdCreateCookie, nameValuePair, options)
}

func millis(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Millisecond), 10)
}
