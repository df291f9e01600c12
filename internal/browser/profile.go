package browser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Viewport is the emulated window size.
type Viewport struct {
	Width  int
	Height int
}

// LaunchFlag is a Chrome command line switch.
type LaunchFlag struct {
	Name   string
	Values []string
}

// Profile is the browsing-context configuration applied before the first
// navigation to make the automated browser look like a regular desktop one.
// It holds no state and applying it never changes it.
type Profile struct {
	UserAgent string
	Platform  string
	Viewport  Viewport
	Locale    string
	Timezone  string
	Languages []string
	Plugins   int
	Headers   map[string]string

	GrantGeolocation bool
}

// DefaultProfile mirrors a current desktop Chrome on macOS in New York.
func DefaultProfile() Profile {
	return Profile{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Platform:  "MacIntel",
		Viewport:  Viewport{Width: 1920, Height: 1080},
		Locale:    "en-US",
		Timezone:  "America/New_York",
		Languages: []string{"en-US", "en"},
		Plugins:   5,
		Headers: map[string]string{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"DNT":                       "1",
			"Upgrade-Insecure-Requests": "1",
		},
		GrantGeolocation: true,
	}
}

// LaunchFlags are the switches that remove the most obvious automation traces.
func (p Profile) LaunchFlags() []LaunchFlag {
	return []LaunchFlag{
		{Name: "no-sandbox"},
		{Name: "disable-setuid-sandbox"},
		{Name: "disable-blink-features", Values: []string{"AutomationControlled"}},
		{Name: "disable-dev-shm-usage"},
		{Name: "disable-web-security"},
		{Name: "window-size", Values: []string{fmt.Sprintf("%d,%d", p.Viewport.Width, p.Viewport.Height)}},
		{Name: "lang", Values: []string{p.Locale}},
	}
}

// AcceptLanguage is the Accept-Language value matching the profile.
func (p Profile) AcceptLanguage() string {
	if v, ok := p.Headers["Accept-Language"]; ok {
		return v
	}
	return strings.Join(p.Languages, ",")
}

// HeaderPairs flattens Headers into the key, value, key, value form rod
// expects. Keys are sorted so the result is deterministic.
func (p Profile) HeaderPairs() []string {
	keys := make([]string, 0, len(p.Headers))
	for k := range p.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, p.Headers[k])
	}
	return pairs
}

// InitScript returns the script evaluated before any page script on every
// navigation. Each override is guarded so one failure does not stop the rest.
func (p Profile) InitScript() string {
	languages, _ := json.Marshal(p.Languages)
	if p.Languages == nil {
		languages = []byte("[]")
	}

	plugins := make([]int, p.Plugins)
	for i := range plugins {
		plugins[i] = i + 1
	}
	pluginList, _ := json.Marshal(plugins)

	return fmt.Sprintf(`(() => {
  const define = (target, prop, value) => {
    try {
      Object.defineProperty(target, prop, { get: () => value, configurable: true });
    } catch (e) {}
  };
  define(Navigator.prototype, 'webdriver', false);
  define(Navigator.prototype, 'plugins', %s);
  define(Navigator.prototype, 'languages', %s);
  try {
    window.chrome = window.chrome || {};
    window.chrome.runtime = window.chrome.runtime || {};
  } catch (e) {}
})();`, pluginList, languages)
}
