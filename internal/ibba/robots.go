package ibba

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// UserAgent identifies the crawler when matching robots.txt groups.
const UserAgent = "BrokerScout/1.0"

// RobotsRules holds the Disallow prefixes that apply to UserAgent.
// A nil *RobotsRules allows everything.
type RobotsRules struct {
	disallow []string
}

// Allowed reports whether rawURL (absolute or a bare path) may be visited.
// Matching is by path prefix: "Disallow: /broker" blocks /broker and /brokers/x.
func (r *RobotsRules) Allowed(rawURL string) bool {
	if r == nil || len(r.disallow) == 0 {
		return true
	}
	path := PathFromURL(rawURL)
	for _, prefix := range r.disallow {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// FetchRobots downloads robots.txt from the site root of baseURL.
func FetchRobots(ctx context.Context, client *http.Client, baseURL string) ([]byte, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = "/robots.txt"
	u.RawQuery = ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("robots.txt fetch %s: status %d", u, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ParseRobots collects Disallow rules from groups naming "*" or userAgent.
// Consecutive User-agent lines share one group.
func ParseRobots(body []byte, userAgent string) *RobotsRules {
	r := &RobotsRules{}
	product := strings.ToLower(strings.SplitN(userAgent, "/", 2)[0])
	scanner := bufio.NewScanner(strings.NewReader(string(body)))

	matching := false
	inAgents := false
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if !inAgents {
				matching = false
			}
			inAgents = true
			agent := strings.ToLower(value)
			if agent == "*" || agent == product {
				matching = true
			}
		case "disallow":
			inAgents = false
			if matching && value != "" {
				r.disallow = append(r.disallow, normalizePath(value))
			}
		default:
			inAgents = false
		}
	}
	return r
}

// PathFromURL returns the path component of rawURL, "/" when empty or unparsable.
func PathFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "/"
	}
	return normalizePath(u.Path)
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}
