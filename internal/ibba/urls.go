// Package ibba discovers and extracts broker profiles from the IBBA
// "find a business broker" directory.
package ibba

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is the directory site root.
const DefaultBaseURL = "https://www.ibba.org"

const listingPath = "/find-a-business-broker/"

// ListingURL builds the place-filtered listing URL. The place is lower-cased
// and query-escaped.
func ListingURL(baseURL, place string) string {
	return strings.TrimRight(baseURL, "/") + listingPath + "?place=" + url.QueryEscape(strings.ToLower(strings.TrimSpace(place)))
}

// ResolveURL makes href absolute against baseURL. Absolute hrefs are returned
// unchanged; unparsable ones are returned as given.
func ResolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
