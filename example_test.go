package factory_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/tebeka/selenium"

	factory "github.com/wanmail/selenium-client-factory"
	_ "github.com/wanmail/selenium-client-factory/htmlunit"
	_ "github.com/wanmail/selenium-client-factory/sauce"
)

// This example drives the in-process htmlunit: browser against a local page,
// fills in a form and reads the result.
func Example() {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "" {
			fmt.Fprintf(w, `<html><head><title>Results</title></head><body><p id="result">You searched for %s</p></body></html>`, q)
			return
		}
		fmt.Fprint(w, `<html><head><title>Search</title></head><body>
<form action="/search"><input name="q"><input type="submit" value="Go"></form>
</body></html>`)
	}))
	defer s.Close()

	f := factory.New(factory.WithDriverURI("htmlunit:"))
	wd, err := f.CreateWebDriver(s.URL+"/", nil)
	if err != nil {
		panic(err) // panic is used only as an example and is not otherwise recommended.
	}
	defer wd.Quit()

	elem, err := wd.FindElement(selenium.ByName, "q")
	if err != nil {
		panic(err)
	}
	if err := elem.SendKeys("gophers" + selenium.EnterKey); err != nil {
		panic(err)
	}

	title, err := wd.Title()
	if err != nil {
		panic(err)
	}
	result, err := wd.FindElement(selenium.ByID, "result")
	if err != nil {
		panic(err)
	}
	text, err := result.Text()
	if err != nil {
		panic(err)
	}
	fmt.Println(title)
	fmt.Println(text)

	// Output:
	// Results
	// You searched for gophers
}

// This example starts a Sauce OnDemand session. Credentials come from
// ~/.sauce-ondemand when the URI does not carry them.
func ExampleCreateWebDriver() {
	wd, err := factory.CreateWebDriver("sauce-ondemand:?os=Linux&browser=firefox&browser-version=3.&job-name=smoke", "http://example.com/")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer wd.Quit()

	title, err := wd.Title()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(title)
}

// A Factory picks its driver URI up from SELENIUM_DRIVER when none is given.
func ExampleFactory_CreateSeleniumFromEnv() {
	env := &factory.Environment{}
	env.Set(factory.EnvDriver, "htmlunit:")
	env.Set(factory.EnvStartingURL, "http://localhost:8080/")

	f := factory.New(factory.WithEnvironment(env))
	sel, err := f.CreateSeleniumFromEnv()
	if err != nil {
		panic(err)
	}
	fmt.Println(f.URI(), sel != nil)

	// Output:
	// htmlunit: true
}
