package portal

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Form field names reissued by the portal on every state-changing page.
// Tokens are single-use; each submission must carry the values captured
// from the immediately preceding response.
const (
	csrfField   = "_csrf"
	legacyField = "org.apache.struts.taglib.html.TOKEN"
	weekField   = "week"
)

// PageTokens holds the anti-CSRF values scraped from one portal response.
type PageTokens struct {
	CSRF   string
	Legacy string // legacy struts token; optional, some deployments omit it
	Week   string // current week selector value; only the listing page has one
}

// ExtractTokens pulls the session tokens out of a portal page. The CSRF
// input is always required; the week selector is required only on the
// initial listing page (needWeek). Either missing is ErrProtocolShape.
func ExtractTokens(html []byte, needWeek bool) (PageTokens, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return PageTokens{}, fmt.Errorf("parse token page: %w", err)
	}

	csrf, ok := doc.Find(`input[name="` + csrfField + `"]`).First().Attr("value")
	if !ok || csrf == "" {
		return PageTokens{}, fmt.Errorf("%w: no %s input", ErrProtocolShape, csrfField)
	}

	tokens := PageTokens{CSRF: csrf}
	tokens.Legacy, _ = doc.Find(`input[name="` + legacyField + `"]`).First().Attr("value")

	if needWeek {
		week, ok := doc.Find(`select[name="` + weekField + `"] option`).First().Attr("value")
		if !ok || week == "" {
			return PageTokens{}, fmt.Errorf("%w: no week selector option", ErrProtocolShape)
		}
		tokens.Week = week
	}
	return tokens, nil
}

// formValues seeds a submission with the token fields every portal form
// expects.
func (t PageTokens) formValues() map[string]string {
	form := map[string]string{csrfField: t.CSRF}
	if t.Legacy != "" {
		form[legacyField] = t.Legacy
	}
	return form
}
