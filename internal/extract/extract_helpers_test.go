package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

// testCard is the markup of one listing card used by the tests.
type testCard struct {
	id          string
	href        string
	address     string
	description string
	price       string
}

// cardHTML renders a listing card. When href is empty the link points at
// a detail URL carrying id.
func cardHTML(c testCard) string {
	href := c.href
	if href == "" {
		href = "/ilan/detay?x=1&id=" + c.id
	}
	return fmt.Sprintf(`<div class="faqItem">
  <span class="map-adres">%s</span>
  <p class="summary">%s</p>
  <strong class="price">%s</strong>
  <a class="offerButton" href="%s">Teklif Ver</a>
</div>`, c.address, c.description, c.price, href)
}

// pagerHTML renders the bottom pager announcing last as the final page.
func pagerHTML(last string) string {
	return fmt.Sprintf(`<div id="ctl00_pgrEstatesBottom" class="pager">
  <a class="pager-page" data-page="1">1</a>
  <a class="pager-last" data-page="%s">&raquo;</a>
</div>`, last)
}

// envelopePayload wraps fragment in a JSON envelope the way the listing
// source does, with HTML metacharacters escaped as \u003c style sequences.
func envelopePayload(t *testing.T, fragment string) []byte {
	t.Helper()

	body := map[string]any{
		"Data":      fragment,
		"Exception": nil,
		"Success":   true,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal envelope: %v", err)
	}
	if !strings.Contains(string(payload), `\u003c`) && strings.Contains(fragment, "<") {
		t.Fatal("expected encoding/json to escape angle brackets")
	}
	return payload
}
