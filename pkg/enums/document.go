package enums

// DocumentType maps to the document_type enum in Postgres.
type DocumentType string

const (
	DocumentTypeKhasra DocumentType = "khasra"
	DocumentTypeDeed   DocumentType = "deed"
	DocumentTypeTax    DocumentType = "tax"
	DocumentTypeSurvey DocumentType = "survey"
	DocumentTypeOther  DocumentType = "other"
)

var documentTypes = values[DocumentType]{
	DocumentTypeKhasra,
	DocumentTypeDeed,
	DocumentTypeTax,
	DocumentTypeSurvey,
	DocumentTypeOther,
}

func (t DocumentType) IsValid() bool { return documentTypes.has(t) }

func ParseDocumentType(value string) (DocumentType, error) {
	return documentTypes.parse("document type", value)
}

// DocumentStatus maps to the document_status enum in Postgres.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending_verification"
	DocumentStatusVerified DocumentStatus = "verified"
	DocumentStatusRejected DocumentStatus = "rejected"
)

var documentStatuses = values[DocumentStatus]{
	DocumentStatusPending,
	DocumentStatusVerified,
	DocumentStatusRejected,
}

// Only pending documents are reviewed; a rejected file is replaced by a new
// upload.
var documentTransitions = transitions[DocumentStatus]{
	DocumentStatusPending: {DocumentStatusVerified, DocumentStatusRejected},
}

func (s DocumentStatus) String() string { return string(s) }

func (s DocumentStatus) IsValid() bool { return documentStatuses.has(s) }

// CanTransitionTo reports whether the review state machine allows s -> next.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	return documentTransitions.allows(s, next)
}

func ParseDocumentStatus(value string) (DocumentStatus, error) {
	return documentStatuses.parse("document status", value)
}
