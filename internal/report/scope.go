package report

import "fmt"

type Kind int

const (
	KindInspection Kind = iota
	KindZone
	KindSite
)

func (k Kind) String() string {
	switch k {
	case KindInspection:
		return "inspection"
	case KindZone:
		return "zone"
	case KindSite:
		return "site"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Audience decides which inspections a scope may include.
type Audience int

const (
	// AudienceTechnician may report on any completed inspection.
	AudienceTechnician Audience = iota
	// AudienceCustomer only sees released work of its own sites.
	AudienceCustomer
)

// Scope selects what a report covers. ID is an inspection, zone or site id
// depending on Kind. For the customer audience ClientID must own the site.
type Scope struct {
	Kind     Kind
	ID       int64
	Audience Audience
	ClientID int64
}

// Document is a rendered report.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
	Pages       int
	Kind        Kind
	// Unavailable counts photos rendered as placeholders.
	Unavailable int
}
