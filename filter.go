package factory

import (
	"sync"

	"github.com/tebeka/selenium"

	"github.com/wanmail/selenium-client-factory/rc"
)

// SeleniumFilter forwards every call to the embedded driver and runs AfterStop
// once the session has been stopped.
type SeleniumFilter struct {
	rc.Selenium
	// AfterStop runs after the first call to Stop, whether or not the inner
	// Stop failed or panicked.
	AfterStop func() error

	once sync.Once
}

// Stop stops the inner session, then runs AfterStop. The inner error takes
// precedence over the hook's.
func (s *SeleniumFilter) Stop() (err error) {
	defer func() {
		if herr := s.runHook(); err == nil {
			err = herr
		}
	}()
	return s.Selenium.Stop()
}

func (s *SeleniumFilter) runHook() (err error) {
	s.once.Do(func() {
		if s.AfterStop != nil {
			err = s.AfterStop()
		}
	})
	return err
}

// Unwrap returns the inner driver.
func (s *SeleniumFilter) Unwrap() rc.Selenium { return s.Selenium }

// WebDriverFilter forwards every call to the embedded driver and runs
// AfterQuit once the session has ended.
type WebDriverFilter struct {
	selenium.WebDriver
	// AfterQuit runs after the first call to Quit, whether or not the inner
	// Quit failed or panicked.
	AfterQuit func() error

	once sync.Once
}

// Quit ends the inner session, then runs AfterQuit. The inner error takes
// precedence over the hook's.
func (w *WebDriverFilter) Quit() (err error) {
	defer func() {
		if herr := w.runHook(); err == nil {
			err = herr
		}
	}()
	return w.WebDriver.Quit()
}

func (w *WebDriverFilter) runHook() (err error) {
	w.once.Do(func() {
		if w.AfterQuit != nil {
			err = w.AfterQuit()
		}
	})
	return err
}

// Unwrap returns the inner driver.
func (w *WebDriverFilter) Unwrap() selenium.WebDriver { return w.WebDriver }
