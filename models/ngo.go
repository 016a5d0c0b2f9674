package models

import "strings"

type Address struct {
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// NGOProfile is keyed by the owning account id.
type NGOProfile struct {
	ID                  string     `bson:"_id,omitempty" json:"id"`
	OrganizationName    string     `bson:"organizationName,omitempty" json:"organizationName,omitempty"`
	Email               string     `bson:"email,omitempty" json:"email,omitempty"`
	PhoneNumber         string     `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Description         string     `bson:"description,omitempty" json:"description,omitempty"`
	Website             string     `bson:"website,omitempty" json:"website,omitempty"`
	Location            *Address   `bson:"location,omitempty" json:"location,omitempty"`
	OfficeLocation      *Address   `bson:"officeLocation,omitempty" json:"officeLocation,omitempty"`
	AreasOfOperation    StringList `bson:"areasOfOperation,omitempty" json:"areasOfOperation,omitempty"`
	TargetBeneficiaries StringList `bson:"targetBeneficiaries,omitempty" json:"targetBeneficiaries,omitempty"`
	VerificationStatus  string     `bson:"verificationStatus,omitempty" json:"verificationStatus,omitempty"`
	RejectionReason     *string    `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	VerifiedAt          *Timestamp `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	VerifiedBy          string     `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
	RejectedAt          *Timestamp `bson:"rejectedAt,omitempty" json:"rejectedAt,omitempty"`
	RejectedBy          string     `bson:"rejectedBy,omitempty" json:"rejectedBy,omitempty"`
}

// Status returns the lower-cased verification status, treating an empty
// value as pending.
func (p NGOProfile) Status() string {
	status := strings.ToLower(strings.TrimSpace(p.VerificationStatus))
	if status == "" {
		return StatusPending
	}
	return status
}

// ResolvedAddress prefers location over the legacy officeLocation.
func (p NGOProfile) ResolvedAddress() string {
	if p.Location != nil && p.Location.Address != "" {
		return p.Location.Address
	}
	if p.OfficeLocation != nil && p.OfficeLocation.Address != "" {
		return p.OfficeLocation.Address
	}
	return NotAvailable
}
