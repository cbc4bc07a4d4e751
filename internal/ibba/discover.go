package ibba

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"broker-scout/internal/browser"
	"broker-scout/internal/logger"
	"broker-scout/internal/models"
	"broker-scout/internal/navigation"
)

var (
	// ErrStructuralMismatch means the listing page no longer has the shape the
	// extraction rules expect. The run must abort.
	ErrStructuralMismatch = errors.New("listing structure mismatch")
	// ErrMissingElement is a required listing element that was not found.
	ErrMissingElement = errors.New("required element missing")
	// ErrListingUnreachable means the listing page could not be loaded.
	ErrListingUnreachable = errors.New("listing page unreachable")
)

var firstInteger = regexp.MustCompile(`\d+`)

// Discoverer turns a place filter into a work queue of profile URLs.
type Discoverer struct {
	guard     *navigation.Guard
	baseURL   string
	selectors Selectors
	cond      browser.LoadCondition
	log       logger.Logger
}

// NewDiscoverer builds a discoverer. The listing is loaded with the
// DOM-content-loaded condition unless cond is set.
func NewDiscoverer(guard *navigation.Guard, baseURL string, selectors Selectors, cond browser.LoadCondition, log logger.Logger) *Discoverer {
	if cond == "" {
		cond = browser.LoadConditionDOMContentLoaded
	}
	return &Discoverer{guard: guard, baseURL: baseURL, selectors: selectors, cond: cond, log: log}
}

// Discover loads the listing for place and queues one job per broker block.
// The queue size always equals the advertised broker count.
func (d *Discoverer) Discover(ctx context.Context, place string) (*models.WorkQueue, error) {
	listingURL := ListingURL(d.baseURL, place)
	outcome := d.guard.Navigate(ctx, listingURL, d.cond)
	if !outcome.OK() {
		return nil, fmt.Errorf("%w: %w", ErrListingUnreachable, outcome.Err)
	}

	doc, err := outcome.Page.Document(ctx)
	if err != nil {
		return nil, fmt.Errorf("read listing %s: %w", listingURL, err)
	}

	content, ok := doc.First(d.selectors.ListingContent)
	if !ok {
		return nil, fmt.Errorf("%w: content container %q", ErrMissingElement, d.selectors.ListingContent)
	}
	listings, ok := content.First(d.selectors.Listings)
	if !ok {
		return nil, fmt.Errorf("%w: listings container %q", ErrMissingElement, d.selectors.Listings)
	}
	heading, ok := content.First(d.selectors.ListingHeading)
	if !ok {
		return nil, fmt.Errorf("%w: listing heading %q", ErrMissingElement, d.selectors.ListingHeading)
	}
	advertised, err := AdvertisedCount(heading.Text())
	if err != nil {
		return nil, err
	}

	blocks := listings.All(d.selectors.BrokerBlock)
	if len(blocks) != advertised {
		return nil, fmt.Errorf("%w: heading advertises %d brokers, found %d blocks", ErrStructuralMismatch, advertised, len(blocks))
	}
	d.log.Info("listing loaded", logger.String("place", place), logger.Int("advertised", advertised))

	jobs := make([]models.ProfileJob, 0, len(blocks))
	for i, block := range blocks {
		link, ok := block.First(d.selectors.BlockLink)
		if !ok {
			return nil, fmt.Errorf("%w: broker block %d has no link", ErrStructuralMismatch, i)
		}
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return nil, fmt.Errorf("%w: broker block %d has no href", ErrStructuralMismatch, i)
		}
		var name string
		if h, ok := block.First(d.selectors.BlockName); ok {
			name = strings.TrimSpace(h.Text())
		}
		profileURL := ResolveURL(d.baseURL, href)
		d.log.Debug("queued broker", logger.String("name", name), logger.String("url", profileURL))
		jobs = append(jobs, models.ProfileJob{
			Place:      place,
			URL:        profileURL,
			BrokerName: name,
			Position:   i,
		})
	}

	queue := models.NewWorkQueue(jobs)
	if queue.Size() != advertised {
		return nil, fmt.Errorf("%w: queued %d of %d advertised", ErrStructuralMismatch, queue.Size(), advertised)
	}
	return queue, nil
}

// AdvertisedCount reads the first integer in a listing heading such as
// "12 Business Brokers".
func AdvertisedCount(heading string) (int, error) {
	match := firstInteger.FindString(heading)
	if match == "" {
		return 0, fmt.Errorf("%w: no broker count in heading %q", ErrStructuralMismatch, strings.TrimSpace(heading))
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("%w: broker count %q: %w", ErrStructuralMismatch, match, err)
	}
	return n, nil
}
