package portal

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/civicgrid/planportal-crawler/internal/planning"
)

const (
	referenceSelector = "div.addressCrumb > span.caseNumber"
	docNameSelector   = "td:nth-child(3)"
	docDescSelector   = "td:nth-child(5)"
	docLinkSelector   = "td:nth-child(6) > a"
)

// DocumentLinks maps a document classification to the absolute URL of the
// file to upload. At most one URL is held per classification; when several
// rows classify the same way the later row wins (the portal lists revisions
// last).
type DocumentLinks map[planning.DocKind]string

// FetchCaseDocuments loads a case's documents listing and returns the case
// reference id together with the classified document links. A page without
// a reference id yields ErrMissingReference.
//
// A row qualifies when its name or description contains "decision" or
// "application form" (case-insensitively) and it links to a file; rows
// mentioning "decision" classify as decision notices, the rest as
// application forms. Everything else is dropped silently.
func (s *Session) FetchCaseDocuments(ctx context.Context, link planning.CaseLink) (string, DocumentLinks, error) {
	docsURL := s.AbsoluteURL(link.DocumentsURL())
	html, err := s.get(ctx, docsURL)
	if err != nil {
		return "", nil, fmt.Errorf("fetch documents page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", nil, fmt.Errorf("parse documents page: %w", err)
	}

	reference := strings.TrimSpace(doc.Find(referenceSelector).First().Text())
	if reference == "" {
		return "", nil, fmt.Errorf("%w: %s", ErrMissingReference, docsURL)
	}

	links := DocumentLinks{}
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(tr.Find(docNameSelector).First().Text()))
		desc := strings.ToLower(strings.TrimSpace(tr.Find(docDescSelector).First().Text()))
		href, _ := tr.Find(docLinkSelector).First().Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		var kind planning.DocKind
		switch {
		case strings.Contains(name, "decision") || strings.Contains(desc, "decision"):
			kind = planning.DocDecisionNotice
		case strings.Contains(name, "application form") || strings.Contains(desc, "application form"):
			kind = planning.DocApplicationForm
		default:
			return
		}

		if _, taken := links[kind]; taken {
			s.logger.Debug("document slot overwritten by later row",
				zap.String("reference", reference),
				zap.String("doc_type", string(kind)))
		}
		links[kind] = s.AbsoluteURL(href)
	})
	return reference, links, nil
}
