package models

import (
	"strconv"
	"time"
)

// NGOAccount is an account joined with its NGO profile.
type NGOAccount struct {
	ID                  string   `json:"id"`
	Email               string   `json:"email"`
	Role                string   `json:"role"`
	OrganizationName    string   `json:"organizationName"`
	Address             string   `json:"address"`
	PhoneNumber         string   `json:"phoneNumber"`
	AreasOfOperation    []string `json:"areasOfOperation"`
	TargetBeneficiaries []string `json:"targetBeneficiaries"`
	VerificationStatus  string   `json:"verificationStatus"`
	RejectionReason     string   `json:"rejectionReason,omitempty"`
	HasProfile          bool     `json:"hasProfile"`
}

// VolunteerAccount is an account joined with its volunteer profile.
type VolunteerAccount struct {
	ID            string              `json:"id"`
	Email         string              `json:"email"`
	Role          string              `json:"role"`
	FullName      string              `json:"fullName"`
	DateOfBirth   string              `json:"dateOfBirth"`
	Age           string              `json:"age"`
	Address       string              `json:"address"`
	Interests     []string            `json:"interests"`
	Skills        map[string][]string `json:"skills"`
	FieldOfStudy  string              `json:"fieldOfStudy"`
	HighestDegree string              `json:"highestDegree"`
	HasProfile    bool                `json:"hasProfile"`
}

// MergeNGO joins an account with its profile. Identity fields (id, email,
// role) come from the account; display fields come from the profile. A nil
// profile yields defaults.
func MergeNGO(acc Account, p *NGOProfile) NGOAccount {
	out := NGOAccount{
		ID:                  acc.ID,
		Role:                acc.Role,
		OrganizationName:    NotAvailable,
		Address:             NotAvailable,
		PhoneNumber:         NotAvailable,
		AreasOfOperation:    []string{},
		TargetBeneficiaries: []string{},
		VerificationStatus:  StatusPending,
	}
	var profileEmail string
	if p != nil {
		out.HasProfile = true
		out.OrganizationName = orDefault(p.OrganizationName)
		out.Address = p.ResolvedAddress()
		out.PhoneNumber = orDefault(p.PhoneNumber)
		out.AreasOfOperation = nonNil(p.AreasOfOperation)
		out.TargetBeneficiaries = nonNil(p.TargetBeneficiaries)
		out.VerificationStatus = p.Status()
		if p.RejectionReason != nil {
			out.RejectionReason = *p.RejectionReason
		}
		profileEmail = p.Email
	}
	out.Email = ResolveEmail(acc.Email, profileEmail)
	return out
}

// MergeVolunteer joins an account with its volunteer profile. Age is the
// difference of calendar years between now and the date of birth.
func MergeVolunteer(acc Account, p *VolunteerProfile, now time.Time) VolunteerAccount {
	out := VolunteerAccount{
		ID:            acc.ID,
		Role:          acc.Role,
		FullName:      NotAvailable,
		DateOfBirth:   NotAvailable,
		Age:           NotAvailable,
		Address:       NotAvailable,
		Interests:     []string{},
		Skills:        map[string][]string{},
		FieldOfStudy:  NotAvailable,
		HighestDegree: NotAvailable,
	}
	var profileEmail string
	if p != nil {
		out.HasProfile = true
		out.FullName = orDefault(p.FullName)
		if p.DateOfBirth != nil && !p.DateOfBirth.IsZero() {
			out.DateOfBirth = p.DateOfBirth.Format("2006-01-02")
			out.Age = AgeInYears(p.DateOfBirth.Time, now)
		}
		out.Address = orDefault(p.Location)
		out.Interests = nonNil(p.Interests)
		for category, skills := range p.Skills {
			out.Skills[category] = nonNil(skills)
		}
		out.FieldOfStudy = orDefault(p.FieldOfStudy)
		out.HighestDegree = orDefault(p.HighestDegree)
		profileEmail = p.Email
	}
	out.Email = ResolveEmail(acc.Email, profileEmail)
	return out
}

// AgeInYears subtracts birth year from the current year. Month and day are
// ignored.
func AgeInYears(dob, now time.Time) string {
	if dob.IsZero() {
		return NotAvailable
	}
	return strconv.Itoa(now.Year() - dob.Year())
}

// ResolveEmail returns the first non-empty address, never blank.
func ResolveEmail(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return NoEmailAvailable
}

func orDefault(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func nonNil(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}
