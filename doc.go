/*
Package factory creates Selenium drivers from a driver URI.

A driver URI names where and how a browser should be driven:

	http://localhost:4444/*firefox     an existing Selenium server
	embedded-rc:*firefox               a server started for this driver only
	sauce-ondemand:?os=Linux&browser=firefox&browser-version=3.
	htmlunit:                          an in-process headless browser
	log:htmlunit:                      any of the above, with every call logged

Providers register themselves with DefaultRegistry from their package init
functions. Importing github.com/wanmail/selenium-client-factory/all registers
every bundled provider; the http: provider is always registered.

Example usage:

	package main

	import (
		"fmt"

		"github.com/wanmail/selenium-client-factory"
		_ "github.com/wanmail/selenium-client-factory/all"
	)

	func main() {
		// The URI comes from SELENIUM_DRIVER, or DEFAULT_SELENIUM_DRIVER, or
		// defaults to "embedded-rc:".
		f := factory.New()
		wd, err := f.CreateWebDriver("http://play.golang.org/?simple=1", nil)
		if err != nil {
			panic(err)
		}
		defer wd.Quit()

		title, _ := wd.Title()
		fmt.Println(title)
	}

The first registered provider whose CanHandle reports true builds the driver.
Its errors are returned as they are; no other provider is tried. When no
provider claims the URI the error is an *UnrecognizedURIError.

URI parameters ("?k=v&k=v2") are not percent-decoded. Only the browser start
command an http: URI carries in its path is decoded.
*/
package factory
