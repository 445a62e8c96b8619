package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/estatewatch/internal/model"
)

// Selectors locate the parts of a results fragment.
// Each selector field is a CSS selector evaluated with goquery.
type Selectors struct {
	// Card matches one listing card.
	Card string

	// Address, Description and Price match descendants of a card
	// whose text becomes the corresponding Listing field.
	Address     string
	Description string
	Price       string

	// DetailLink matches the card's link to the listing detail page.
	DetailLink string

	// IDParam is the literal text after which the listing ID starts
	// in the detail link's href.
	IDParam string

	// Pager matches the pager element of the first page.
	Pager string

	// PagerLast matches the descendant of Pager carrying the page count.
	PagerLast string

	// PageCountAttr is the attribute of PagerLast holding the last page index.
	PageCountAttr string
}

// DefaultSelectors returns the selectors of the listing source markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:          ".faqItem",
		Address:       ".map-adres",
		Description:   ".summary",
		Price:         ".price",
		DetailLink:    ".offerButton",
		IDParam:       "id=",
		Pager:         "#ctl00_pgrEstatesBottom",
		PagerLast:     ".pager-last",
		PageCountAttr: "data-page",
	}
}

// Extractor decodes results payloads into listings.
// An Extractor holds no mutable state and is safe for concurrent use.
type Extractor struct {
	selectors Selectors
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSelectors replaces the default selectors.
// Empty fields of s keep their default value.
func WithSelectors(s Selectors) Option {
	return func(e *Extractor) {
		e.selectors = mergeSelectors(e.selectors, s)
	}
}

// New creates an Extractor using DefaultSelectors unless overridden.
func New(opts ...Option) *Extractor {
	e := &Extractor{selectors: DefaultSelectors()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Selectors returns the selectors in use.
func (e *Extractor) Selectors() Selectors {
	return e.selectors
}

// Page is one decoded and parsed results page.
type Page struct {
	doc       *goquery.Document
	selectors Selectors
}

// ParsePage decodes the envelope of payload and parses its HTML fragment.
func (e *Extractor) ParsePage(payload []byte) (*Page, error) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(strings.NewReader(env.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse fragment: %w", model.ErrParse, err)
	}

	return &Page{
		doc:       goquery.NewDocumentFromNode(root),
		selectors: e.selectors,
	}, nil
}

// ExtractListings returns the listings of payload in document order.
func (e *Extractor) ExtractListings(payload []byte) ([]model.Listing, error) {
	page, err := e.ParsePage(payload)
	if err != nil {
		return nil, err
	}
	return page.Listings()
}

// ExtractPageCount returns the last page index announced by a first-page payload.
func (e *Extractor) ExtractPageCount(payload []byte) (int, error) {
	page, err := e.ParsePage(payload)
	if err != nil {
		return 0, err
	}
	return page.PageCount()
}

// Listings returns one Listing per card, in document order, without
// deduplication. A card without a usable detail link fails the whole page.
func (p *Page) Listings() ([]model.Listing, error) {
	cards := p.doc.Find(p.selectors.Card)
	listings := make([]model.Listing, 0, cards.Length())

	var cardErr error
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		id, err := extractID(firstAttr(card.Find(p.selectors.DetailLink), "href"), p.selectors.IDParam)
		if err != nil {
			cardErr = fmt.Errorf("listing card %d: %w", i+1, err)
			return false
		}

		listings = append(listings, model.Listing{
			ID:          id,
			Address:     selectionText(card.Find(p.selectors.Address)),
			Description: selectionText(card.Find(p.selectors.Description)),
			Price:       selectionText(card.Find(p.selectors.Price)),
		})
		return true
	})
	if cardErr != nil {
		return nil, cardErr
	}

	return listings, nil
}

// PageCount returns the last page index read from the pager element.
func (p *Page) PageCount() (int, error) {
	pager := p.doc.Find(p.selectors.Pager).First()
	if pager.Length() == 0 {
		return 0, fmt.Errorf("%w: pager element %q not found", model.ErrParse, p.selectors.Pager)
	}

	var (
		value string
		found bool
	)
	pager.Find(p.selectors.PagerLast).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		value, found = s.Attr(p.selectors.PageCountAttr)
		return !found
	})
	if !found {
		return 0, fmt.Errorf("%w: pager has no %q attribute on %q",
			model.ErrParse, p.selectors.PageCountAttr, p.selectors.PagerLast)
	}

	count, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: page count %q is not a number", model.ErrParse, value)
	}

	return count, nil
}

// firstAttr returns the attribute of the first element in sel that has it,
// or "" when none does.
func firstAttr(sel *goquery.Selection, name string) string {
	var value string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(name)
		if ok {
			value = v
		}
		return !ok
	})
	return value
}

// extractID returns the text after the first occurrence of param in href,
// up to the next occurrence of param. Query delimiters such as & and #
// are deliberately not trimmed.
func extractID(href, param string) (string, error) {
	if href == "" {
		return "", fmt.Errorf("%w: detail link not found", model.ErrParse)
	}

	_, rest, found := strings.Cut(href, param)
	if !found {
		return "", fmt.Errorf("%w: detail link %q has no %q parameter", model.ErrParse, href, param)
	}

	id, _, _ := strings.Cut(rest, param)
	if id == "" {
		return "", fmt.Errorf("%w: detail link %q has an empty id", model.ErrParse, href)
	}

	return id, nil
}

// selectionText returns the whitespace-collapsed text of every element in s,
// joined by single spaces. It returns "" for an empty selection.
func selectionText(s *goquery.Selection) string {
	parts := make([]string, 0, s.Length())
	s.Each(func(_ int, el *goquery.Selection) {
		if text := collapseSpace(el.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// collapseSpace trims s and replaces each run of whitespace with one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// mergeSelectors overlays the non-empty fields of override onto base.
func mergeSelectors(base, override Selectors) Selectors {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	return Selectors{
		Card:          pick(base.Card, override.Card),
		Address:       pick(base.Address, override.Address),
		Description:   pick(base.Description, override.Description),
		Price:         pick(base.Price, override.Price),
		DetailLink:    pick(base.DetailLink, override.DetailLink),
		IDParam:       pick(base.IDParam, override.IDParam),
		Pager:         pick(base.Pager, override.Pager),
		PagerLast:     pick(base.PagerLast, override.PagerLast),
		PageCountAttr: pick(base.PageCountAttr, override.PageCountAttr),
	}
}
