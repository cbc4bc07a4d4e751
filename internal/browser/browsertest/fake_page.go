// Package browsertest provides an in-memory browser.Page serving static HTML.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"broker-scout/internal/browser"
)

// Visit records one Goto call.
type Visit struct {
	URL       string
	Condition browser.LoadCondition
}

// FakePage serves registered HTML by URL. Errors queued with FailNext are
// returned by Goto before the page is served, one per call.
type FakePage struct {
	mu       sync.Mutex
	pages    map[string]string
	statuses map[string]int
	failures map[string][]error
	current  string
	visits   []Visit
}

// NewFakePage returns an empty fake.
func NewFakePage() *FakePage {
	return &FakePage{
		pages:    make(map[string]string),
		statuses: make(map[string]int),
		failures: make(map[string][]error),
	}
}

// Serve registers html for url with a 200 status.
func (p *FakePage) Serve(url, html string) *FakePage {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages[url] = html
	p.statuses[url] = 200
	return p
}

// ServeStatus registers html for url with the given status.
func (p *FakePage) ServeStatus(url, html string, status int) *FakePage {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages[url] = html
	p.statuses[url] = status
	return p
}

// FailNext queues errors returned by the next Goto calls for url.
func (p *FakePage) FailNext(url string, errs ...error) *FakePage {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[url] = append(p.failures[url], errs...)
	return p
}

// Visits returns every Goto call in order.
func (p *FakePage) Visits() []Visit {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Visit, len(p.visits))
	copy(out, p.visits)
	return out
}

// Goto implements browser.Page.
func (p *FakePage) Goto(ctx context.Context, url string, cond browser.LoadCondition) (browser.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visits = append(p.visits, Visit{URL: url, Condition: cond})
	p.current = ""
	if err := ctx.Err(); err != nil {
		return browser.Response{URL: url}, err
	}
	if queued := p.failures[url]; len(queued) > 0 {
		p.failures[url] = queued[1:]
		return browser.Response{URL: url}, queued[0]
	}
	html, ok := p.pages[url]
	if !ok {
		return browser.Response{URL: url}, fmt.Errorf("net::ERR_NAME_NOT_RESOLVED at %s", url)
	}
	resp := browser.Response{URL: url, Status: p.statuses[url]}
	if !resp.OK() {
		return resp, fmt.Errorf("%w: %d for %s", browser.ErrBadStatus, resp.Status, url)
	}
	p.current = html
	return resp, nil
}

// Document implements browser.Page.
func (p *FakePage) Document(ctx context.Context) (*browser.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == "" {
		return nil, errors.New("no page loaded")
	}
	return browser.ParseDocument(p.current)
}
