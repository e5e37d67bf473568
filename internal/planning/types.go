// Package planning defines the core record types persisted for each
// planning application case.
package planning

import (
	"strings"
	"time"
)

// DocKind is the closed set of document classifications the crawler uploads.
type DocKind string

// Document classifications recognised on a case's documents listing.
const (
	DocApplicationForm DocKind = "application_form"
	DocDecisionNotice  DocKind = "decision_notice"
)

// CaseLink is a portal-relative URL identifying one case's summary page.
// Links arrive in result order from pagination and must be processed in
// that order.
type CaseLink string

// DocumentsURL derives the documents-listing variant of the link.
func (l CaseLink) DocumentsURL() string {
	return strings.ReplaceAll(string(l), "=summary", "=documents")
}

// DetailsURL derives the details variant of the link.
func (l CaseLink) DetailsURL() string {
	return strings.ReplaceAll(string(l), "=summary", "=details")
}

// PrintPreviewURL derives the print-preview variant of the link.
func (l CaseLink) PrintPreviewURL() string {
	return strings.ReplaceAll(string(l), "=summary", "=printPreview")
}

// BlobLocation records where an uploaded document landed in blob storage.
type BlobLocation struct {
	Bucket   string `bson:"bucket" json:"bucket"`
	Key      string `bson:"key" json:"key"`
	Location string `bson:"location" json:"location"`
}

// DocumentRef describes one uploaded file attached to a case. Entries are
// appended to CaseRecord.Documents and never removed.
type DocumentRef struct {
	Type        string       `bson:"type" json:"type"`
	Name        string       `bson:"name" json:"name"`
	Size        int64        `bson:"size" json:"size"`
	DocType     DocKind      `bson:"doc_type" json:"doc_type"`
	ContentType string       `bson:"content_type" json:"content_type"`
	Blob        BlobLocation `bson:"blob" json:"blob"`
}

// Summary holds the primary details table of a case. Date fields are ISO
// calendar dates; nil means the source value was absent or unparsable, and
// the key is still persisted (as null), never omitted.
type Summary struct {
	Reference                string  `bson:"reference" json:"reference"`
	ApplicationValidated     string  `bson:"application_validated" json:"application_validated"`
	Address                  string  `bson:"address" json:"address"`
	Proposal                 string  `bson:"proposal" json:"proposal"`
	Status                   string  `bson:"status" json:"status"`
	Decision                 string  `bson:"decision" json:"decision"`
	DecisionIssuedDate       *string `bson:"decision_issued_date" json:"decision_issued_date"`
	AppealStatus             string  `bson:"appeal_status" json:"appeal_status"`
	AppealDecision           string  `bson:"appeal_decision" json:"appeal_decision"`
	ApplicationValidatedDate *string `bson:"application_validated_date" json:"application_validated_date"`
	AgreedExpiryDate         *string `bson:"agreed_expiry_date" json:"agreed_expiry_date"`
	DeterminationDeadline    *string `bson:"determination_deadline" json:"determination_deadline"`
}

// FurtherInformation holds the secondary details table of a case.
type FurtherInformation struct {
	ApplicationType                  string `bson:"application_type" json:"application_type"`
	ActualDecisionLevel              string `bson:"actual_decision_level" json:"actual_decision_level"`
	ExpectedDecisionLevel            string `bson:"expected_decision_level" json:"expected_decision_level"`
	Parish                           string `bson:"parish" json:"parish"`
	Ward                             string `bson:"ward" json:"ward"`
	ApplicantName                    string `bson:"applicant_name" json:"applicant_name"`
	AgentName                        string `bson:"agent_name" json:"agent_name"`
	AgentCompanyName                 string `bson:"agent_company_name" json:"agent_company_name"`
	AgentAddress                     string `bson:"agent_address" json:"agent_address"`
	EnvironmentalAssessmentRequested string `bson:"environmental_assessment_requested" json:"environmental_assessment_requested"`
}

// AgentDetails holds the contact rows scraped from the agents table.
type AgentDetails struct {
	AgentEmail string `bson:"agent_email" json:"agent_email"`
	AgentPhone string `bson:"agent_phone" json:"agent_phone"`
}

// CaseRecord is the unit persisted in the document store. The natural key
// is (Council, Summary.Reference); the reconciliation passes guarantee the
// store never holds two active records for the same pair.
type CaseRecord struct {
	Council            string             `bson:"council" json:"council"`
	Link               string             `bson:"link" json:"link"`
	DetailsURL         string             `bson:"details_url" json:"details_url"`
	DocumentsURL       string             `bson:"documents_url" json:"documents_url"`
	Summary            Summary            `bson:"summary" json:"summary"`
	FurtherInformation FurtherInformation `bson:"further_information" json:"further_information"`
	AgentDetails       AgentDetails       `bson:"agent_details" json:"agent_details"`
	Documents          []DocumentRef      `bson:"documents" json:"documents"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	CreatedBy          string             `bson:"created_by" json:"created_by"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
	UpdatedBy          string             `bson:"updated_by" json:"updated_by"`
}

// HasDocument reports whether the record already carries a document of the
// given kind.
func (r *CaseRecord) HasDocument(kind DocKind) bool {
	for _, d := range r.Documents {
		if d.DocType == kind {
			return true
		}
	}
	return false
}
