package leads

import (
	"fmt"
	"strings"
	"time"
)

// Status is the triage state of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusReviewed  Status = "reviewed"
	StatusContacted Status = "contacted"
	StatusArchived  Status = "archived"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusNew, StatusReviewed, StatusContacted, StatusArchived}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Valid reports whether s is one of the four defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusReviewed, StatusContacted, StatusArchived:
		return true
	}
	return false
}

// Label is the operator-facing name of the status.
func (s Status) Label() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusReviewed:
		return "Reviewed"
	case StatusContacted:
		return "Contacted"
	case StatusArchived:
		return "Archived"
	}
	return string(s)
}

// CompanyType is the self-reported kind of business. Empty means unset.
type CompanyType string

const (
	CompanyTypeUnset               CompanyType = ""
	CompanyTypeDistributor         CompanyType = "distributor"
	CompanyTypeGeneralContractor   CompanyType = "general-contractor"
	CompanyTypeSpecialtyContractor CompanyType = "specialty-contractor"
	CompanyTypeSupplier            CompanyType = "supplier"
	CompanyTypeOther               CompanyType = "other"
)

// CompanyTypes lists the selectable company types in form order.
var CompanyTypes = []CompanyType{
	CompanyTypeDistributor,
	CompanyTypeGeneralContractor,
	CompanyTypeSpecialtyContractor,
	CompanyTypeSupplier,
	CompanyTypeOther,
}

// legacy option values posted by the first version of the partner form
var companyTypeAliases = map[string]CompanyType{
	"contractor": CompanyTypeGeneralContractor,
	"specialty":  CompanyTypeSpecialtyContractor,
}

// ParseCompanyType validates a raw company type, accepting legacy aliases.
func ParseCompanyType(raw string) (CompanyType, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := companyTypeAliases[v]; ok {
		return alias, nil
	}
	ct := CompanyType(v)
	if !ct.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCompanyType, raw)
	}
	return ct, nil
}

// Valid reports whether ct is unset or one of the defined types.
func (ct CompanyType) Valid() bool {
	if ct == CompanyTypeUnset {
		return true
	}
	for _, known := range CompanyTypes {
		if ct == known {
			return true
		}
	}
	return false
}

// Label is the display name used in notifications and the console.
func (ct CompanyType) Label() string {
	switch ct {
	case CompanyTypeDistributor:
		return "Distributor"
	case CompanyTypeGeneralContractor:
		return "General Contractor"
	case CompanyTypeSpecialtyContractor:
		return "Specialty Contractor"
	case CompanyTypeSupplier:
		return "Supplier"
	case CompanyTypeOther:
		return "Other"
	}
	return ""
}

// Lead is a persisted partner/contact form submission.
type Lead struct {
	ID          string      `json:"id" dynamodbav:"id"`
	FirstName   string      `json:"first_name" dynamodbav:"first_name"`
	LastName    string      `json:"last_name" dynamodbav:"last_name"`
	Company     string      `json:"company" dynamodbav:"company"`
	Email       string      `json:"email" dynamodbav:"email"`
	Phone       string      `json:"phone" dynamodbav:"phone"`
	CompanyType CompanyType `json:"company_type" dynamodbav:"company_type"`
	Message     string      `json:"message" dynamodbav:"message"`
	Status      Status      `json:"status" dynamodbav:"status"`
	CreatedAt   time.Time   `json:"created_at" dynamodbav:"created_at"`
}

// FullName joins first and last name.
func (l *Lead) FullName() string {
	return joinName(l.FirstName, l.LastName)
}

// Fields is the validated input a lead is created from.
type Fields struct {
	FirstName   string
	LastName    string
	Company     string
	Email       string
	Phone       string
	CompanyType CompanyType
	Message     string
}

// ListFilter narrows and bounds a lead listing.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

const (
	// DefaultPageSize is the bounded page the admin console loads.
	DefaultPageSize = 50
	maxPageSize     = 100
)

// Normalize applies the default page size and clamps limit/offset.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Matches reports whether l passes the status predicate.
func (f ListFilter) Matches(l *Lead) bool {
	return f.Status == nil || l.Status == *f.Status
}

// ListResult is one page of leads plus the total matching the filter.
type ListResult struct {
	Items []*Lead `json:"items"`
	Total int     `json:"total"`
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
