package logging

import (
	"sync"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/log"
	"go.uber.org/zap"
)

var _ selenium.WebDriver = (*WebDriver)(nil)

// WebDriver logs every call and forwards it to the wrapped WebDriver
// unchanged.
type WebDriver struct {
	*Recorder

	mu   sync.RWMutex
	base selenium.WebDriver
}

// WrapWebDriver returns wd wrapped to log to logger, or to zap.L() if logger
// is nil.
func WrapWebDriver(wd selenium.WebDriver, logger *zap.Logger) *WebDriver {
	return &WebDriver{Recorder: newRecorder(logger), base: wd}
}

// Base returns the wrapped driver.
func (w *WebDriver) Base() selenium.WebDriver {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.base
}

// SetBase replaces the wrapped driver.
func (w *WebDriver) SetBase(wd selenium.WebDriver) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base = wd
}

func (w *WebDriver) Status() (*selenium.Status, error) {
	v, err := w.Base().Status()
	w.record("Status", nil, v, err)
	return v, err
}

func (w *WebDriver) NewSession() (string, error) {
	v, err := w.Base().NewSession()
	w.record("NewSession", nil, v, err)
	return v, err
}

func (w *WebDriver) SessionId() string {
	v := w.Base().SessionId()
	w.record("SessionId", nil, v, nil)
	return v
}

func (w *WebDriver) SessionID() string {
	v := w.Base().SessionID()
	w.record("SessionID", nil, v, nil)
	return v
}

func (w *WebDriver) SwitchSession(sessionID string) error {
	err := w.Base().SwitchSession(sessionID)
	w.record("SwitchSession", []interface{}{sessionID}, noResult{}, err)
	return err
}

func (w *WebDriver) Capabilities() (selenium.Capabilities, error) {
	v, err := w.Base().Capabilities()
	w.record("Capabilities", nil, v, err)
	return v, err
}

func (w *WebDriver) SetAsyncScriptTimeout(timeout time.Duration) error {
	err := w.Base().SetAsyncScriptTimeout(timeout)
	w.record("SetAsyncScriptTimeout", []interface{}{timeout}, noResult{}, err)
	return err
}

func (w *WebDriver) SetImplicitWaitTimeout(timeout time.Duration) error {
	err := w.Base().SetImplicitWaitTimeout(timeout)
	w.record("SetImplicitWaitTimeout", []interface{}{timeout}, noResult{}, err)
	return err
}

func (w *WebDriver) SetPageLoadTimeout(timeout time.Duration) error {
	err := w.Base().SetPageLoadTimeout(timeout)
	w.record("SetPageLoadTimeout", []interface{}{timeout}, noResult{}, err)
	return err
}

func (w *WebDriver) Quit() error {
	err := w.Base().Quit()
	w.record("Quit", nil, noResult{}, err)
	return err
}

func (w *WebDriver) CurrentWindowHandle() (string, error) {
	v, err := w.Base().CurrentWindowHandle()
	w.record("CurrentWindowHandle", nil, v, err)
	return v, err
}

func (w *WebDriver) WindowHandles() ([]string, error) {
	v, err := w.Base().WindowHandles()
	w.record("WindowHandles", nil, v, err)
	return v, err
}

func (w *WebDriver) CurrentURL() (string, error) {
	v, err := w.Base().CurrentURL()
	w.record("CurrentURL", nil, v, err)
	return v, err
}

func (w *WebDriver) Title() (string, error) {
	v, err := w.Base().Title()
	w.record("Title", nil, v, err)
	return v, err
}

func (w *WebDriver) PageSource() (string, error) {
	v, err := w.Base().PageSource()
	w.record("PageSource", nil, v, err)
	return v, err
}

func (w *WebDriver) Close() error {
	err := w.Base().Close()
	w.record("Close", nil, noResult{}, err)
	return err
}

func (w *WebDriver) SwitchFrame(frame interface{}) error {
	err := w.Base().SwitchFrame(frame)
	w.record("SwitchFrame", []interface{}{frame}, noResult{}, err)
	return err
}

func (w *WebDriver) SwitchWindow(name string) error {
	err := w.Base().SwitchWindow(name)
	w.record("SwitchWindow", []interface{}{name}, noResult{}, err)
	return err
}

func (w *WebDriver) CloseWindow(name string) error {
	err := w.Base().CloseWindow(name)
	w.record("CloseWindow", []interface{}{name}, noResult{}, err)
	return err
}

func (w *WebDriver) MaximizeWindow(name string) error {
	err := w.Base().MaximizeWindow(name)
	w.record("MaximizeWindow", []interface{}{name}, noResult{}, err)
	return err
}

func (w *WebDriver) ResizeWindow(name string, width, height int) error {
	err := w.Base().ResizeWindow(name, width, height)
	w.record("ResizeWindow", []interface{}{name, width, height}, noResult{}, err)
	return err
}

func (w *WebDriver) Get(url string) error {
	err := w.Base().Get(url)
	w.record("Get", []interface{}{url}, noResult{}, err)
	return err
}

func (w *WebDriver) Forward() error {
	err := w.Base().Forward()
	w.record("Forward", nil, noResult{}, err)
	return err
}

func (w *WebDriver) Back() error {
	err := w.Base().Back()
	w.record("Back", nil, noResult{}, err)
	return err
}

func (w *WebDriver) Refresh() error {
	err := w.Base().Refresh()
	w.record("Refresh", nil, noResult{}, err)
	return err
}

func (w *WebDriver) FindElement(by, value string) (selenium.WebElement, error) {
	v, err := w.Base().FindElement(by, value)
	w.record("FindElement", []interface{}{by, value}, v, err)
	return v, err
}

func (w *WebDriver) FindElements(by, value string) ([]selenium.WebElement, error) {
	v, err := w.Base().FindElements(by, value)
	w.record("FindElements", []interface{}{by, value}, v, err)
	return v, err
}

func (w *WebDriver) ActiveElement() (selenium.WebElement, error) {
	v, err := w.Base().ActiveElement()
	w.record("ActiveElement", nil, v, err)
	return v, err
}

func (w *WebDriver) DecodeElement(data []byte) (selenium.WebElement, error) {
	v, err := w.Base().DecodeElement(data)
	w.record("DecodeElement", []interface{}{data}, v, err)
	return v, err
}

func (w *WebDriver) DecodeElements(data []byte) ([]selenium.WebElement, error) {
	v, err := w.Base().DecodeElements(data)
	w.record("DecodeElements", []interface{}{data}, v, err)
	return v, err
}

func (w *WebDriver) GetCookies() ([]selenium.Cookie, error) {
	v, err := w.Base().GetCookies()
	w.record("GetCookies", nil, v, err)
	return v, err
}

func (w *WebDriver) GetCookie(name string) (selenium.Cookie, error) {
	v, err := w.Base().GetCookie(name)
	w.record("GetCookie", []interface{}{name}, v, err)
	return v, err
}

func (w *WebDriver) AddCookie(cookie *selenium.Cookie) error {
	err := w.Base().AddCookie(cookie)
	w.record("AddCookie", []interface{}{cookie}, noResult{}, err)
	return err
}

func (w *WebDriver) DeleteAllCookies() error {
	err := w.Base().DeleteAllCookies()
	w.record("DeleteAllCookies", nil, noResult{}, err)
	return err
}

func (w *WebDriver) DeleteCookie(name string) error {
	err := w.Base().DeleteCookie(name)
	w.record("DeleteCookie", []interface{}{name}, noResult{}, err)
	return err
}

func (w *WebDriver) Click(button int) error {
	err := w.Base().Click(button)
	w.record("Click", []interface{}{button}, noResult{}, err)
	return err
}

func (w *WebDriver) DoubleClick() error {
	err := w.Base().DoubleClick()
	w.record("DoubleClick", nil, noResult{}, err)
	return err
}

func (w *WebDriver) ButtonDown() error {
	err := w.Base().ButtonDown()
	w.record("ButtonDown", nil, noResult{}, err)
	return err
}

func (w *WebDriver) ButtonUp() error {
	err := w.Base().ButtonUp()
	w.record("ButtonUp", nil, noResult{}, err)
	return err
}

func (w *WebDriver) SendModifier(modifier string, isDown bool) error {
	err := w.Base().SendModifier(modifier, isDown)
	w.record("SendModifier", []interface{}{modifier, isDown}, noResult{}, err)
	return err
}

func (w *WebDriver) KeyDown(keys string) error {
	err := w.Base().KeyDown(keys)
	w.record("KeyDown", []interface{}{keys}, noResult{}, err)
	return err
}

func (w *WebDriver) KeyUp(keys string) error {
	err := w.Base().KeyUp(keys)
	w.record("KeyUp", []interface{}{keys}, noResult{}, err)
	return err
}

func (w *WebDriver) Screenshot() ([]byte, error) {
	v, err := w.Base().Screenshot()
	w.record("Screenshot", nil, v, err)
	return v, err
}

func (w *WebDriver) Log(typ log.Type) ([]log.Message, error) {
	v, err := w.Base().Log(typ)
	w.record("Log", []interface{}{typ}, v, err)
	return v, err
}

func (w *WebDriver) DismissAlert() error {
	err := w.Base().DismissAlert()
	w.record("DismissAlert", nil, noResult{}, err)
	return err
}

func (w *WebDriver) AcceptAlert() error {
	err := w.Base().AcceptAlert()
	w.record("AcceptAlert", nil, noResult{}, err)
	return err
}

func (w *WebDriver) AlertText() (string, error) {
	v, err := w.Base().AlertText()
	w.record("AlertText", nil, v, err)
	return v, err
}

func (w *WebDriver) SetAlertText(text string) error {
	err := w.Base().SetAlertText(text)
	w.record("SetAlertText", []interface{}{text}, noResult{}, err)
	return err
}

func (w *WebDriver) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	v, err := w.Base().ExecuteScript(script, args)
	w.record("ExecuteScript", []interface{}{script, args}, v, err)
	return v, err
}

func (w *WebDriver) ExecuteScriptAsync(script string, args []interface{}) (interface{}, error) {
	v, err := w.Base().ExecuteScriptAsync(script, args)
	w.record("ExecuteScriptAsync", []interface{}{script, args}, v, err)
	return v, err
}

func (w *WebDriver) ExecuteScriptRaw(script string, args []interface{}) ([]byte, error) {
	v, err := w.Base().ExecuteScriptRaw(script, args)
	w.record("ExecuteScriptRaw", []interface{}{script, args}, v, err)
	return v, err
}

func (w *WebDriver) ExecuteScriptAsyncRaw(script string, args []interface{}) ([]byte, error) {
	v, err := w.Base().ExecuteScriptAsyncRaw(script, args)
	w.record("ExecuteScriptAsyncRaw", []interface{}{script, args}, v, err)
	return v, err
}

func (w *WebDriver) WaitWithTimeoutAndInterval(condition selenium.Condition, timeout, interval time.Duration) error {
	err := w.Base().WaitWithTimeoutAndInterval(condition, timeout, interval)
	w.record("WaitWithTimeoutAndInterval", []interface{}{condition, timeout, interval}, noResult{}, err)
	return err
}

func (w *WebDriver) WaitWithTimeout(condition selenium.Condition, timeout time.Duration) error {
	err := w.Base().WaitWithTimeout(condition, timeout)
	w.record("WaitWithTimeout", []interface{}{condition, timeout}, noResult{}, err)
	return err
}

func (w *WebDriver) Wait(condition selenium.Condition) error {
	err := w.Base().Wait(condition)
	w.record("Wait", []interface{}{condition}, noResult{}, err)
	return err
}
