package portal

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/civicgrid/planportal-crawler/internal/planning"
)

const (
	summaryTableSelector = "table#simpleDetailsTable"
	furtherTableSelector = "table#applicationDetails"
	agentsTableSelector  = "table.agents"
)

// FetchCaseRecord loads the print-preview variant of a case summary page and
// assembles the normalized record. Missing tables yield empty sub-records;
// only transport or HTML parse failures are errors. Audit fields are stamped
// at extraction time and the documents slot starts empty.
func (s *Session) FetchCaseRecord(ctx context.Context, link planning.CaseLink) (*planning.CaseRecord, error) {
	previewURL := s.AbsoluteURL(link.PrintPreviewURL())
	html, err := s.get(ctx, previewURL)
	if err != nil {
		return nil, fmt.Errorf("fetch print preview: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse print preview: %w", err)
	}

	// The primary details table is sometimes split into two fragments with
	// the same id; merge both into one map.
	summary := map[string]string{}
	doc.Find(summaryTableSelector).EachWithBreak(func(i int, table *goquery.Selection) bool {
		scrapeRows(table, summary)
		return i < 1
	})
	further := map[string]string{}
	scrapeRows(doc.Find(furtherTableSelector).First(), further)
	agents := map[string]string{}
	scrapeRows(doc.Find(agentsTableSelector).First(), agents)

	now := time.Now().UTC()
	rec := &planning.CaseRecord{
		Council:      s.cfg.Council,
		Link:         s.AbsoluteURL(string(link)),
		DetailsURL:   s.AbsoluteURL(link.DetailsURL()),
		DocumentsURL: s.AbsoluteURL(link.DocumentsURL()),
		Summary: planning.Summary{
			Reference:                summary["reference"],
			ApplicationValidated:     summary["application_validated"],
			Address:                  summary["address"],
			Proposal:                 summary["proposal"],
			Status:                   summary["status"],
			Decision:                 summary["decision"],
			DecisionIssuedDate:       planning.ParseDate(summary["decision_issued_date"]),
			AppealStatus:             summary["appeal_status"],
			AppealDecision:           summary["appeal_decision"],
			ApplicationValidatedDate: planning.ParseDate(summary["application_validated_date"]),
			AgreedExpiryDate:         planning.ParseDate(summary["agreed_expiry_date"]),
			DeterminationDeadline:    planning.ParseDate(summary["determination_deadline"]),
		},
		FurtherInformation: planning.FurtherInformation{
			ApplicationType:                  further["application_type"],
			ActualDecisionLevel:              further["actual_decision_level"],
			ExpectedDecisionLevel:            further["expected_decision_level"],
			Parish:                           further["parish"],
			Ward:                             further["ward"],
			ApplicantName:                    further["applicant_name"],
			AgentName:                        further["agent_name"],
			AgentCompanyName:                 further["agent_company_name"],
			AgentAddress:                     further["agent_address"],
			EnvironmentalAssessmentRequested: further["environmental_assessment_requested"],
		},
		AgentDetails: planning.AgentDetails{
			AgentEmail: agents["email"],
			AgentPhone: agents["mobile_phone"],
		},
		Documents: []planning.DocumentRef{},
		CreatedAt: now,
		CreatedBy: s.cfg.ActorID,
		UpdatedAt: now,
		UpdatedBy: s.cfg.ActorID,
	}
	return rec, nil
}

// scrapeRows reads a key/value table: each row's th is the label, its first
// td the value. Labels are normalized into field-name form.
func scrapeRows(table *goquery.Selection, into map[string]string) {
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		th := tr.Find("th").First()
		td := tr.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			return
		}
		key := planning.NormalizeLabel(th.Text())
		if key == "" {
			return
		}
		into[key] = strings.TrimSpace(td.Text())
	})
}
