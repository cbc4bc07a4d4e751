// Package browser is the page capability the crawler drives: navigation with a
// load-state wait, and DOM snapshots queried through element handles.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrBadStatus is returned when the main document response is not 2xx.
var ErrBadStatus = errors.New("unsuccessful response status")

// LoadCondition is the readiness state a navigation waits for.
type LoadCondition string

const (
	LoadConditionLoad             LoadCondition = "load"
	LoadConditionDOMContentLoaded LoadCondition = "domcontentloaded"
	LoadConditionNetworkIdle      LoadCondition = "networkidle"
)

// ParseLoadCondition accepts the condition names case-insensitively.
func ParseLoadCondition(value string) (LoadCondition, error) {
	switch c := LoadCondition(strings.ToLower(strings.TrimSpace(value))); c {
	case LoadConditionLoad, LoadConditionDOMContentLoaded, LoadConditionNetworkIdle:
		return c, nil
	default:
		return "", fmt.Errorf("unknown load condition %q", value)
	}
}

// Response describes the main document response of a navigation.
type Response struct {
	URL    string
	Status int
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Page is a single reusable browser tab. Documents returned by Document are
// snapshots tied to the current navigation and must not be used after the
// next Goto.
type Page interface {
	Goto(ctx context.Context, url string, cond LoadCondition) (Response, error)
	Document(ctx context.Context) (*Document, error)
}
