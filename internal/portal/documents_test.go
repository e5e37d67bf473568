package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicgrid/planportal-crawler/internal/planning"
)

func documentsPage(reference string, rows string) string {
	crumb := ""
	if reference != "" {
		crumb = fmt.Sprintf(`<div class="addressCrumb"><span class="caseNumber">%s</span></div>`, reference)
	}
	return fmt.Sprintf(`<html><body>
%s
<table>
<tr><th>Date</th><th>Category</th><th>Document Type</th><th>Drawing</th><th>Description</th><th>View</th></tr>
%s
</table>
</body></html>`, crumb, rows)
}

func docRow(name, desc, href string) string {
	link := ""
	if href != "" {
		link = fmt.Sprintf(`<a href="%s">View</a>`, href)
	}
	return fmt.Sprintf(`<tr><td>01 Jun 2024</td><td>Public</td><td>%s</td><td>-</td><td>%s</td><td>%s</td></tr>`, name, desc, link)
}

func serveDocuments(t *testing.T, page string) *Session {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/case", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return newTestSession(t, srv.URL)
}

func TestFetchCaseDocuments_Classification(t *testing.T) {
	page := documentsPage("24/01234/FU",
		docRow("Decision Notice", "", "/files/decision.pdf")+
			docRow("Full Application Form", "", "/files/form.pdf")+
			docRow("Site Plan", "Location drawing", "/files/plan.pdf"))
	s := serveDocuments(t, page)

	ref, links, err := s.FetchCaseDocuments(context.Background(), "/case?activeTab=summary")
	require.NoError(t, err)
	assert.Equal(t, "24/01234/FU", ref)
	require.Len(t, links, 2)
	assert.Contains(t, links[planning.DocDecisionNotice], "/files/decision.pdf")
	assert.Contains(t, links[planning.DocApplicationForm], "/files/form.pdf")
}

func TestFetchCaseDocuments_DescriptionMatchesToo(t *testing.T) {
	page := documentsPage("24/09999/HH",
		docRow("Correspondence", "Notice of DECISION issued", "/files/d.pdf"))
	s := serveDocuments(t, page)

	_, links, err := s.FetchCaseDocuments(context.Background(), "/case?activeTab=summary")
	require.NoError(t, err)
	assert.Len(t, links, 1)
	assert.Contains(t, links[planning.DocDecisionNotice], "/files/d.pdf")
}

func TestFetchCaseDocuments_EmptyLinkRowsDropped(t *testing.T) {
	page := documentsPage("24/05555/FU",
		docRow("Decision Notice", "", ""))
	s := serveDocuments(t, page)

	_, links, err := s.FetchCaseDocuments(context.Background(), "/case?activeTab=summary")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestFetchCaseDocuments_LaterRowWinsSlot(t *testing.T) {
	page := documentsPage("24/07777/FU",
		docRow("Application Form", "", "/files/form-v1.pdf")+
			docRow("Application Form Revised", "", "/files/form-v2.pdf"))
	s := serveDocuments(t, page)

	_, links, err := s.FetchCaseDocuments(context.Background(), "/case?activeTab=summary")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Contains(t, links[planning.DocApplicationForm], "/files/form-v2.pdf")
}

func TestFetchCaseDocuments_MissingReference(t *testing.T) {
	page := documentsPage("", docRow("Decision Notice", "", "/files/d.pdf"))
	s := serveDocuments(t, page)

	_, _, err := s.FetchCaseDocuments(context.Background(), "/case?activeTab=summary")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingReference))
}
