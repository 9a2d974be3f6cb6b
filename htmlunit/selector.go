package htmlunit

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/tebeka/selenium"
	"golang.org/x/net/html"
)

// findAll returns the elements below root matched by the WebDriver locator
// strategy by, in document order.
func findAll(root *html.Node, by, value string) ([]*html.Node, error) {
	var match func(*html.Node) bool
	switch by {
	case selenium.ByID:
		match = func(n *html.Node) bool { return attrValue(n, "id") == value }
	case selenium.ByName:
		match = func(n *html.Node) bool { return attrValue(n, "name") == value }
	case selenium.ByTagName:
		match = func(n *html.Node) bool { return strings.EqualFold(n.Data, value) }
	case selenium.ByClassName:
		match = func(n *html.Node) bool { return hasClass(n, value) }
	case selenium.ByLinkText:
		match = func(n *html.Node) bool { return isLink(n) && text(n) == strings.TrimSpace(value) }
	case selenium.ByPartialLinkText:
		match = func(n *html.Node) bool { return isLink(n) && strings.Contains(text(n), value) }
	case selenium.ByCSSSelector:
		sel, err := cascadia.Compile(value)
		if err != nil {
			return nil, fmt.Errorf("invalid CSS selector %q: %v", value, err)
		}
		match = sel.Match
	case selenium.ByXPATH:
		return findXPath(root, value)
	default:
		return nil, fmt.Errorf("unsupported locator strategy %q", by)
	}

	var found []*html.Node
	walk(root, func(n *html.Node) bool {
		if match(n) {
			found = append(found, n)
		}
		return true
	})
	return found, nil
}

// findXPath evaluates expr with root as the context node. Only element
// results are returned.
func findXPath(root *html.Node, expr string) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(root, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid XPath %q: %v", expr, err)
	}
	found := nodes[:0]
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			found = append(found, n)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found, nil
}

func isLink(n *html.Node) bool {
	_, ok := attr(n, "href")
	return n.Data == "a" && ok
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
