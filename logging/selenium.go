package logging

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wanmail/selenium-client-factory/rc"
)

var _ rc.Selenium = (*Selenium)(nil)

// Selenium logs every call and forwards it to the wrapped RC driver
// unchanged.
type Selenium struct {
	*Recorder

	mu   sync.RWMutex
	base rc.Selenium
}

// WrapSelenium returns s wrapped to log to logger, or to zap.L() if logger is
// nil.
func WrapSelenium(s rc.Selenium, logger *zap.Logger) *Selenium {
	return &Selenium{Recorder: newRecorder(logger), base: s}
}

// Base returns the wrapped driver.
func (s *Selenium) Base() rc.Selenium {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

// SetBase replaces the wrapped driver.
func (s *Selenium) SetBase(base rc.Selenium) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = base
}

// Do forwards an arbitrary command.
func (s *Selenium) Do(command string, args ...string) (string, error) {
	v, err := s.Base().Do(command, args...)
	s.record("Do", []interface{}{command, args}, v, err)
	return v, err
}

func (s *Selenium) Start() error {
	err := s.Base().Start()
	s.record("Start", nil, noResult{}, err)
	return err
}

func (s *Selenium) Stop() error {
	err := s.Base().Stop()
	s.record("Stop", nil, noResult{}, err)
	return err
}

func (s *Selenium) SessionID() string {
	v := s.Base().SessionID()
	s.record("SessionID", nil, v, nil)
	return v
}

func (s *Selenium) Open(url string) error {
	err := s.Base().Open(url)
	s.record("Open", []interface{}{url}, noResult{}, err)
	return err
}

func (s *Selenium) Click(locator string) error {
	err := s.Base().Click(locator)
	s.record("Click", []interface{}{locator}, noResult{}, err)
	return err
}

func (s *Selenium) DoubleClick(locator string) error {
	err := s.Base().DoubleClick(locator)
	s.record("DoubleClick", []interface{}{locator}, noResult{}, err)
	return err
}

func (s *Selenium) Type(locator, value string) error {
	err := s.Base().Type(locator, value)
	s.record("Type", []interface{}{locator, value}, noResult{}, err)
	return err
}

func (s *Selenium) Select(selectLocator, optionLocator string) error {
	err := s.Base().Select(selectLocator, optionLocator)
	s.record("Select", []interface{}{selectLocator, optionLocator}, noResult{}, err)
	return err
}

func (s *Selenium) Check(locator string) error {
	err := s.Base().Check(locator)
	s.record("Check", []interface{}{locator}, noResult{}, err)
	return err
}

func (s *Selenium) Uncheck(locator string) error {
	err := s.Base().Uncheck(locator)
	s.record("Uncheck", []interface{}{locator}, noResult{}, err)
	return err
}

func (s *Selenium) Submit(formLocator string) error {
	err := s.Base().Submit(formLocator)
	s.record("Submit", []interface{}{formLocator}, noResult{}, err)
	return err
}

func (s *Selenium) GoBack() error {
	err := s.Base().GoBack()
	s.record("GoBack", nil, noResult{}, err)
	return err
}

func (s *Selenium) Refresh() error {
	err := s.Base().Refresh()
	s.record("Refresh", nil, noResult{}, err)
	return err
}

func (s *Selenium) GetTitle() (string, error) {
	v, err := s.Base().GetTitle()
	s.record("GetTitle", nil, v, err)
	return v, err
}

func (s *Selenium) GetLocation() (string, error) {
	v, err := s.Base().GetLocation()
	s.record("GetLocation", nil, v, err)
	return v, err
}

func (s *Selenium) GetBodyText() (string, error) {
	v, err := s.Base().GetBodyText()
	s.record("GetBodyText", nil, v, err)
	return v, err
}

func (s *Selenium) GetHTMLSource() (string, error) {
	v, err := s.Base().GetHTMLSource()
	s.record("GetHTMLSource", nil, v, err)
	return v, err
}

func (s *Selenium) GetText(locator string) (string, error) {
	v, err := s.Base().GetText(locator)
	s.record("GetText", []interface{}{locator}, v, err)
	return v, err
}

func (s *Selenium) GetValue(locator string) (string, error) {
	v, err := s.Base().GetValue(locator)
	s.record("GetValue", []interface{}{locator}, v, err)
	return v, err
}

func (s *Selenium) GetAttribute(attributeLocator string) (string, error) {
	v, err := s.Base().GetAttribute(attributeLocator)
	s.record("GetAttribute", []interface{}{attributeLocator}, v, err)
	return v, err
}

func (s *Selenium) IsElementPresent(locator string) (bool, error) {
	v, err := s.Base().IsElementPresent(locator)
	s.record("IsElementPresent", []interface{}{locator}, v, err)
	return v, err
}

func (s *Selenium) IsTextPresent(pattern string) (bool, error) {
	v, err := s.Base().IsTextPresent(pattern)
	s.record("IsTextPresent", []interface{}{pattern}, v, err)
	return v, err
}

func (s *Selenium) IsChecked(locator string) (bool, error) {
	v, err := s.Base().IsChecked(locator)
	s.record("IsChecked", []interface{}{locator}, v, err)
	return v, err
}

func (s *Selenium) WaitForPageToLoad(timeout time.Duration) error {
	err := s.Base().WaitForPageToLoad(timeout)
	s.record("WaitForPageToLoad", []interface{}{timeout}, noResult{}, err)
	return err
}

func (s *Selenium) SetTimeout(timeout time.Duration) error {
	err := s.Base().SetTimeout(timeout)
	s.record("SetTimeout", []interface{}{timeout}, noResult{}, err)
	return err
}

func (s *Selenium) GetEval(script string) (string, error) {
	v, err := s.Base().GetEval(script)
	s.record("GetEval", []interface{}{script}, v, err)
	return v, err
}

func (s *Selenium) CaptureScreenshotToString() (string, error) {
	v, err := s.Base().CaptureScreenshotToString()
	s.record("CaptureScreenshotToString", nil, v, err)
	return v, err
}

func (s *Selenium) CreateCookie(nameValuePair, options string) error {
	err := s.Base().CreateCookie(nameValuePair, options)
	s.record("CreateCookie", []interface{}{nameValuePair, options}, noResult{}, err)
	return err
}

func (s *Selenium) GetCookie() (string, error) {
	v, err := s.Base().GetCookie()
	s.record("GetCookie", nil, v, err)
	return v, err
}

func (s *Selenium) DeleteAllVisibleCookies() error {
	err := s.Base().DeleteAllVisibleCookies()
	s.record("DeleteAllVisibleCookies", nil, noResult{}, err)
	return err
}

func (s *Selenium) SetContext(context string) error {
	err := s.Base().SetContext(context)
	s.record("SetContext", []interface{}{context}, noResult{}, err)
	return err
}
