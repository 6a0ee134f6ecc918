package domain

import "time"

type Client struct {
	ID                 int64
	Name               string
	Email              string
	Phone              string
	Address            string
	PasswordHash       string
	MustChangePassword bool
	PasswordChangedAt  *time.Time
	CreatedAt          time.Time
}

// Site is a physical location belonging to a client. The acknowledgment
// fields stay empty until the customer signs off.
type Site struct {
	ID            int64
	ClientID      int64
	Name          string
	Address       string
	Description   string
	SignatureKey  string
	ClientComment string
	SignedAt      *time.Time
	CreatedAt     time.Time
}

// HasAcknowledgment reports whether the customer left a signature or a comment.
func (s *Site) HasAcknowledgment() bool {
	return s.SignatureKey != "" || s.ClientComment != ""
}

type Zone struct {
	ID        int64
	SiteID    int64
	Name      string
	CreatedAt time.Time
}

type InspectionStatus string

const (
	StatusInProgress InspectionStatus = "in_progress"
	StatusCompleted  InspectionStatus = "completed"
)

type Inspection struct {
	ID             int64
	SiteID         int64
	ZoneID         int64
	TechnicianID   int64
	Status         InspectionStatus
	Released       bool
	InspectionDate time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Section struct {
	ID           int64
	InspectionID int64
	Type         SectionType
	Notes        string
}

// IsEmpty reports whether the section carries nothing worth reporting.
func (s *Section) IsEmpty(photoCount int) bool {
	return s.Notes == "" && photoCount == 0
}

type Photo struct {
	ID         int64
	SectionID  int64
	StorageKey string
	MimeType   string
	CreatedAt  time.Time
}

type Technician struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// SectionDetail bundles a section with its photos in creation order.
type SectionDetail struct {
	*Section
	Photos []*Photo
}
