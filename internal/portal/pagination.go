package portal

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/civicgrid/planportal-crawler/internal/planning"
)

// Portal protocol endpoints, relative to the base URL.
const (
	firstPagePath   = "/online-applications/weeklyListResults.do?action=firstPage"
	pagedSearchPath = "/online-applications/pagedSearchResults.do"
)

const (
	summaryLinkSelector = "ul#searchresults > li.searchresult > a.summaryLink"
	nextPageSelector    = "a.next"
)

// ListCaseLinks walks the search-submission and paged-results protocol for
// one date-filter keyword ("validated" or "decided" category) and returns
// every case summary link in result order.
//
// The walk has three phases: fetch the weekly listing page and capture the
// week value plus tokens; submit the search form to the first-page endpoint,
// which reissues tokens; then request page one with the reissued tokens and
// follow "next" links until none remains. Any transport or parse failure
// aborts the whole walk, since a partial listing cannot be reconciled.
func (s *Session) ListCaseLinks(ctx context.Context, dateType string) ([]planning.CaseLink, error) {
	html, err := s.get(ctx, s.AbsoluteURL(s.cfg.ListingPath))
	if err != nil {
		return nil, fmt.Errorf("fetch weekly listing: %w", err)
	}
	tokens, err := ExtractTokens(html, true)
	if err != nil {
		return nil, fmt.Errorf("weekly listing: %w", err)
	}

	form := tokens.formValues()
	form["searchCriteria.parish"] = ""
	form["searchCriteria.ward"] = ""
	form[weekField] = tokens.Week
	form["dateType"] = dateType
	form["searchType"] = "Application"
	html, err = s.postForm(ctx, s.AbsoluteURL(firstPagePath), form)
	if err != nil {
		return nil, fmt.Errorf("submit search: %w", err)
	}

	// The submission response reissues the tokens but has no week selector.
	tokens, err = ExtractTokens(html, false)
	if err != nil {
		return nil, fmt.Errorf("search results: %w", err)
	}

	form = tokens.formValues()
	form["searchCriteria.page"] = "1"
	form["action"] = "page"
	form["orderBy"] = "DateReceived"
	form["orderByDirection"] = "Descending"
	form["searchCriteria.resultsPerPage"] = strconv.Itoa(s.cfg.ResultsPerPage)
	html, err = s.postForm(ctx, s.AbsoluteURL(pagedSearchPath), form)
	if err != nil {
		return nil, fmt.Errorf("request first result page: %w", err)
	}

	links, next, err := parseResultsPage(html)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("parsed result page",
		zap.String("date_type", dateType),
		zap.Int("links", len(links)))

	visited := map[string]struct{}{}
	for next != "" {
		if _, seen := visited[next]; seen {
			return nil, fmt.Errorf("%w: %s", ErrPaginationLoop, next)
		}
		visited[next] = struct{}{}

		html, err = s.get(ctx, s.AbsoluteURL(next))
		if err != nil {
			return nil, fmt.Errorf("fetch result page: %w", err)
		}
		var more []planning.CaseLink
		more, next, err = parseResultsPage(html)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("parsed result page",
			zap.String("date_type", dateType),
			zap.Int("links", len(more)))
		links = append(links, more...)
	}
	return links, nil
}

// parseResultsPage extracts case summary links and the optional "next" href
// from one results page.
func parseResultsPage(html []byte) ([]planning.CaseLink, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, "", fmt.Errorf("parse results page: %w", err)
	}
	var links []planning.CaseLink
	doc.Find(summaryLinkSelector).Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && href != "" {
			links = append(links, planning.CaseLink(href))
		}
	})
	next, _ := doc.Find(nextPageSelector).First().Attr("href")
	return links, next, nil
}
