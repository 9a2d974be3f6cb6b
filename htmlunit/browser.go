package htmlunit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/publicsuffix"
)

// DefaultPageLoadTimeout bounds a single page load.
const DefaultPageLoadTimeout = 30 * time.Second

// UserAgent is sent with every request.
const UserAgent = "selenium-client-factory-htmlunit/1.0"

var errNoPage = errors.New("no page loaded")

// page is one entry of the browser history.
type page struct {
	url    *url.URL
	status int
	doc    *html.Node
	// method and form are kept so that Refresh repeats a form submission.
	method string
	form   url.Values
}

// Browser is a headless browser that fetches pages over HTTP and keeps their
// parsed DOM. It runs no scripts. A Browser is safe for concurrent use; the
// DOM it returns is not.
type Browser struct {
	client *http.Client

	mu          sync.Mutex
	history     []*page
	pos         int
	loadTimeout time.Duration
	closed      bool
}

// NewBrowser returns a Browser that fetches with client. If client is nil, a
// client with its own cookie jar is used.
func NewBrowser(client *http.Client) (*Browser, error) {
	if client == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
		client = &http.Client{Jar: jar}
	}
	return &Browser{client: client, pos: -1, loadTimeout: DefaultPageLoadTimeout}, nil
}

// SetPageLoadTimeout bounds the time a single page load may take.
func (b *Browser) SetPageLoadTimeout(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadTimeout = d
}

func (b *Browser) current() (*page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("browser is closed")
	}
	if b.pos < 0 {
		return nil, errNoPage
	}
	return b.history[b.pos], nil
}

// Document returns the DOM of the current page.
func (b *Browser) Document() (*html.Node, error) {
	p, err := b.current()
	if err != nil {
		return nil, err
	}
	return p.doc, nil
}

// URL returns the address of the current page, or "about:blank".
func (b *Browser) URL() string {
	p, err := b.current()
	if err != nil {
		return "about:blank"
	}
	return p.url.String()
}

// StatusCode returns the HTTP status of the current page.
func (b *Browser) StatusCode() int {
	p, err := b.current()
	if err != nil {
		return 0
	}
	return p.status
}

// Resolve makes ref absolute against the current page, or against base if
// no page is loaded.
func (b *Browser) Resolve(ref, base string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	if p, err := b.current(); err == nil {
		return p.url.ResolveReference(u), nil
	}
	if base != "" {
		bu, err := url.Parse(base)
		if err != nil {
			return nil, err
		}
		u = bu.ResolveReference(u)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("cannot resolve relative URL %q without a page", ref)
	}
	return u, nil
}

// Open loads rawURL, resolved against the current page, and makes it the
// current page.
func (b *Browser) Open(ctx context.Context, rawURL string) error {
	u, err := b.Resolve(rawURL, "")
	if err != nil {
		return err
	}
	p, err := b.load(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	b.push(p)
	return nil
}

func (b *Browser) push(p *page) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = false
	b.history = append(b.history[:b.pos+1], p)
	b.pos = len(b.history) - 1
}

// Back moves one page back in the history. It does nothing on the first
// page.
func (b *Browser) Back() error {
	return b.move(-1)
}

// Forward moves one page forward in the history. It does nothing on the last
// page.
func (b *Browser) Forward() error {
	return b.move(1)
}

func (b *Browser) move(delta int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos < 0 {
		return errNoPage
	}
	if next := b.pos + delta; next >= 0 && next < len(b.history) {
		b.pos = next
	}
	return nil
}

// Refresh reloads the current page in place.
func (b *Browser) Refresh(ctx context.Context) error {
	cur, err := b.current()
	if err != nil {
		return err
	}
	p, err := b.load(ctx, cur.method, cur.url, cur.form)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos >= 0 && b.history[b.pos] == cur {
		b.history[b.pos] = p
	}
	return nil
}

// Close forgets the history. Cookies are kept.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
	b.pos = -1
	b.closed = true
}

// Click follows a link, toggles a checkbox, selects a radio button or an
// option, or submits the form of a submit button.
func (b *Browser) Click(ctx context.Context, n *html.Node) error {
	switch {
	case isLink(n):
		return b.Open(ctx, attrValue(n, "href"))
	case checkable(n):
		if strings.EqualFold(attrValue(n, "type"), "radio") {
			checkRadio(n)
		} else if selected(n) {
			removeAttr(n, "checked")
		} else {
			setAttr(n, "checked", "checked")
		}
		return nil
	case isElement(n, atom.Option):
		selectOption(n)
		return nil
	case submitter(n):
		form := ancestor(n, atom.Form)
		if form == nil {
			return nil
		}
		return b.submit(ctx, form, n)
	}
	return nil
}

func submitter(n *html.Node) bool {
	switch {
	case isElement(n, atom.Button):
		t := strings.ToLower(attrValue(n, "type"))
		return t == "" || t == "submit"
	case isElement(n, atom.Input):
		t := strings.ToLower(attrValue(n, "type"))
		return t == "submit" || t == "image"
	}
	return false
}

func checkRadio(n *html.Node) {
	name := attrValue(n, "name")
	scope := ancestor(n, atom.Form)
	if scope == nil {
		for scope = n; scope.Parent != nil; scope = scope.Parent {
		}
	}
	walk(scope, func(o *html.Node) bool {
		if checkable(o) && strings.EqualFold(attrValue(o, "type"), "radio") && attrValue(o, "name") == name {
			removeAttr(o, "checked")
		}
		return true
	})
	setAttr(n, "checked", "checked")
}

func selectOption(opt *html.Node) {
	sel := ancestor(opt, atom.Select)
	if sel != nil {
		if _, multiple := attr(sel, "multiple"); !multiple {
			walk(sel, func(o *html.Node) bool {
				if o.DataAtom == atom.Option {
					removeAttr(o, "selected")
				}
				return true
			})
		}
	}
	setAttr(opt, "selected", "selected")
}

// Submit submits the form n belongs to, or n itself if it is a form.
func (b *Browser) Submit(ctx context.Context, n *html.Node) error {
	form := n
	if !isElement(n, atom.Form) {
		form = ancestor(n, atom.Form)
	}
	if form == nil {
		return errors.New("element is not in a form")
	}
	return b.submit(ctx, form, nil)
}

func (b *Browser) submit(ctx context.Context, form, button *html.Node) error {
	action := attrValue(form, "action")
	u, err := b.Resolve(action, "")
	if err != nil {
		return err
	}
	values := formValues(form, button)
	method := strings.ToUpper(attrValue(form, "method"))
	if method != http.MethodPost {
		method = http.MethodGet
		u.RawQuery = values.Encode()
		values = nil
	}
	p, err := b.load(ctx, method, u, values)
	if err != nil {
		return err
	}
	b.push(p)
	return nil
}

// formValues collects the successful controls of form, including button if
// it is the submitter.
func formValues(form, button *html.Node) url.Values {
	values := url.Values{}
	walk(form, func(n *html.Node) bool {
		name := attrValue(n, "name")
		if name == "" || disabled(n) {
			return true
		}
		switch n.DataAtom {
		case atom.Input:
			switch strings.ToLower(attrValue(n, "type")) {
			case "checkbox", "radio":
				if selected(n) {
					values.Add(name, value(n))
				}
			case "submit", "image", "button", "reset", "file":
				if n == button {
					values.Add(name, value(n))
				}
			default:
				values.Add(name, value(n))
			}
		case atom.Button:
			if n == button {
				values.Add(name, value(n))
			}
		case atom.Textarea:
			values.Add(name, value(n))
		case atom.Select:
			if _, multiple := attr(n, "multiple"); multiple {
				walk(n, func(o *html.Node) bool {
					if o.DataAtom == atom.Option && selected(o) {
						values.Add(name, value(o))
					}
					return true
				})
			} else {
				values.Add(name, value(n))
			}
			return true
		}
		return true
	})
	return values
}

func (b *Browser) load(ctx context.Context, method string, u *url.URL, form url.Values) (*page, error) {
	b.mu.Lock()
	timeout := b.loadTimeout
	b.mu.Unlock()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc *html.Node
	if isHTML(resp.Header.Get("Content-Type")) {
		doc, err = html.Parse(resp.Body)
	} else {
		doc, err = textDocument(resp.Body)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %v", u, err)
	}
	return &page{url: resp.Request.URL, status: resp.StatusCode, doc: doc, method: method, form: form}, nil
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// textDocument wraps a non-HTML body in a <pre> the way browsers display it.
func textDocument(r io.Reader) (*html.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader("<html><head></head><body><pre></pre></body></html>"))
	if err != nil {
		return nil, err
	}
	pre := first(doc, func(n *html.Node) bool { return n.DataAtom == atom.Pre })
	pre.AppendChild(&html.Node{Type: html.TextNode, Data: string(data)})
	return doc, nil
}

// Cookies returns the cookies sent to the current page.
func (b *Browser) Cookies() ([]*http.Cookie, error) {
	p, err := b.current()
	if err != nil {
		return nil, err
	}
	if b.client.Jar == nil {
		return nil, nil
	}
	return b.client.Jar.Cookies(p.url), nil
}

// SetCookie stores c for the current page.
func (b *Browser) SetCookie(c *http.Cookie) error {
	p, err := b.current()
	if err != nil {
		return err
	}
	if b.client.Jar == nil {
		return errors.New("browser has no cookie jar")
	}
	b.client.Jar.SetCookies(p.url, []*http.Cookie{c})
	return nil
}

// DeleteCookie expires the named cookie for the current page.
func (b *Browser) DeleteCookie(name string) error {
	return b.SetCookie(&http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
}
