package ibba

import (
	"context"
	"fmt"
	"strings"

	"broker-scout/internal/browser"
	"broker-scout/internal/models"
)

const (
	cbiMarker     = "CBI"
	addressPrefix = "apartment "
)

// rule fills one or more record fields from a profile document. A rule never
// fails: a missing element leaves its fields empty.
type rule func(doc *browser.Document, rec *models.Record)

// Extractor runs the profile field rules against a loaded profile page.
type Extractor struct {
	sel   Selectors
	rules []rule
}

// NewExtractor builds an extractor for the given selectors.
func NewExtractor(sel Selectors) *Extractor {
	e := &Extractor{sel: sel}
	e.rules = []rule{
		e.imageLink,
		e.nameAndCBI,
		e.memberDate,
		e.contact,
		e.city,
		e.address,
		e.website,
		e.speciality,
	}
	return e
}

// ExtractPage snapshots the page DOM and extracts a record seeded with url.
func (e *Extractor) ExtractPage(ctx context.Context, page browser.Page, url string) (models.Record, error) {
	doc, err := page.Document(ctx)
	if err != nil {
		return models.Record{}, fmt.Errorf("read profile %s: %w", url, err)
	}
	return e.Extract(doc, url), nil
}

// Extract runs every rule against doc. The record is complete once all rules
// ran, however many fields came back empty.
func (e *Extractor) Extract(doc *browser.Document, url string) models.Record {
	rec := models.Record{URL: url, IsCBI: models.CBINo}
	for _, r := range e.rules {
		r(doc, &rec)
	}
	return rec
}

func (e *Extractor) imageLink(doc *browser.Document, rec *models.Record) {
	if img, ok := doc.First(e.sel.ProfileImage); ok {
		rec.ImageLink, _ = img.Attr("src")
	}
}

func (e *Extractor) nameAndCBI(doc *browser.Document, rec *models.Record) {
	info, ok := doc.First(e.sel.ProfileInfo)
	if !ok {
		return
	}
	if h, ok := info.First(e.sel.ProfileName); ok {
		rec.Name = strings.TrimSpace(h.Text())
	}
	var badges []string
	for _, badge := range info.All(e.sel.CBIBadge) {
		badges = append(badges, badge.Text())
	}
	rec.IsCBI = CBIFlag(badges)
}

func (e *Extractor) memberDate(doc *browser.Document, rec *models.Record) {
	rec.MemberDate = trimmedText(doc, e.sel.MemberDate)
}

func (e *Extractor) contact(doc *browser.Document, rec *models.Record) {
	block, ok := doc.First(e.sel.PhoneBlock)
	if !ok {
		return
	}
	var texts []string
	for _, a := range block.All("a") {
		texts = append(texts, a.Text())
	}
	rec.Email, rec.Phone = ClassifyContact(texts)
}

func (e *Extractor) city(doc *browser.Document, rec *models.Record) {
	rec.City = CleanCity(trimmedText(doc, e.sel.City))
}

func (e *Extractor) address(doc *browser.Document, rec *models.Record) {
	rec.Address = StripAddressPrefix(trimmedText(doc, e.sel.Address))
}

func (e *Extractor) website(doc *browser.Document, rec *models.Record) {
	for _, a := range doc.All(e.sel.WebsiteLinks) {
		if target, _ := a.Attr("target"); target == "" {
			continue
		}
		rec.Website, _ = a.Attr("href")
		return
	}
}

func (e *Extractor) speciality(doc *browser.Document, rec *models.Record) {
	list, ok := doc.First(e.sel.SpecialityList)
	if !ok {
		return
	}
	items := list.All("li")
	parts := make([]string, 0, len(items))
	for _, li := range items {
		parts = append(parts, strings.TrimSpace(li.Text()))
	}
	rec.Speciality = strings.Join(parts, ", ")
}

// CBIFlag is "Yes" iff any badge's trimmed text is exactly "CBI".
func CBIFlag(badges []string) string {
	for _, b := range badges {
		if strings.TrimSpace(b) == cbiMarker {
			return models.CBIYes
		}
	}
	return models.CBINo
}

// ClassifyContact splits phone-block anchor texts by content: the first text
// containing "@" is the email, the first without it is the phone. Order in the
// DOM does not matter.
func ClassifyContact(texts []string) (email, phone string) {
	for _, raw := range texts {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		if strings.Contains(text, "@") {
			if email == "" {
				email = text
			}
			continue
		}
		if phone == "" {
			phone = text
		}
	}
	return email, phone
}

// CleanCity removes embedded line breaks from a trimmed city string.
func CleanCity(city string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(city)
}

// StripAddressPrefix drops a literal leading "apartment " prefix.
func StripAddressPrefix(address string) string {
	return strings.TrimPrefix(address, addressPrefix)
}

func trimmedText(doc *browser.Document, selector string) string {
	el, ok := doc.First(selector)
	if !ok {
		return ""
	}
	return strings.TrimSpace(el.Text())
}
