package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/notebooksync/internal/browser"
)

// fakeSession is a scripted single-page browser.
type fakeSession struct {
	mu sync.Mutex

	present   map[string]bool
	redirects map[string]string // control selector -> url after click
	details   map[string]string // "selector#index" -> detail markup
	clickErr  map[string]error
	inputs    []browser.InputInfo

	library string
	html    string
	url     string

	navigated []string
	typed     map[string]string
	clicks    []string
	backs     int
	closed    int
}

func newFakeSession(library string) *fakeSession {
	return &fakeSession{
		present:   map[string]bool{},
		redirects: map[string]string{},
		details:   map[string]string{},
		clickErr:  map[string]error{},
		typed:     map[string]string{},
		library:   library,
		html:      library,
	}
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, url)
	f.url = url
	return nil
}

func (f *fakeSession) Back(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backs++
	f.html = f.library
	return nil
}

func (f *fakeSession) URL(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *fakeSession) HTML(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.html, nil
}

func (f *fakeSession) WaitFor(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.present[selector] {
		return nil
	}
	return fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
}

func (f *fakeSession) Exists(_ context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.present[selector], nil
}

func (f *fakeSession) TypeSlowly(_ context.Context, selector, text string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[selector] += text
	return nil
}

func (f *fakeSession) Click(_ context.Context, selector string, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s#%d", selector, index)
	f.clicks = append(f.clicks, key)
	if err, ok := f.clickErr[key]; ok {
		return err
	}
	if u, ok := f.redirects[selector]; ok {
		f.url = u
		return nil
	}
	if markup, ok := f.details[key]; ok {
		f.html = markup
	}
	return nil
}

func (f *fakeSession) WaitStable(context.Context, time.Duration) error {
	return nil
}

func (f *fakeSession) Inputs(context.Context) ([]browser.InputInfo, error) {
	return f.inputs, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeSession) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeOpener struct {
	session *fakeSession
	err     error
	opened  int
}

func (o *fakeOpener) Open(context.Context) (browser.Session, error) {
	o.opened++
	if o.err != nil {
		return nil, o.err
	}
	return o.session, nil
}

// highlightsMarkup renders a detail view with n highlights.
func highlightsMarkup(n int) string {
	var b strings.Builder
	b.WriteString(`<div id="annotations">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<div class="kp-notebook-highlight"><span class="kp-notebook-highlight-text">highlight %d</span><span class="kp-notebook-metadata">Location %d</span></div>`, i, i*10)
	}
	b.WriteString(`</div>`)
	return b.String()
}
