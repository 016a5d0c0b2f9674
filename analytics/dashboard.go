package analytics

import (
	"github.com/phillip/ngo-admin-console/models"
)

// TopSkills is how many skills the dashboard charts.
const TopSkills = 10

// Dashboard is the payload of the admin dashboard.
type Dashboard struct {
	Events     EventStats     `json:"events"`
	Volunteers VolunteerStats `json:"volunteers"`
	NGOs       NGOStats       `json:"ngos"`
	Charts     Charts         `json:"charts"`
}

type Charts struct {
	Categories    []LabelCount `json:"categories"`
	TopSkills     []LabelCount `json:"topSkills"`
	FieldsOfStudy []LabelCount `json:"fieldsOfStudy"`
	Degrees       []LabelCount `json:"degrees"`
	Areas         []LabelCount `json:"areas"`
	Beneficiaries []LabelCount `json:"beneficiaries"`
}

// BuildDashboard aggregates the three snapshots and prepares chart series.
func BuildDashboard(events []models.Event, volunteers []models.VolunteerProfile, ngos []models.NGOProfile, opts EventOptions, norm Normalizer) Dashboard {
	d := Dashboard{
		Events:     Events(events, opts),
		Volunteers: Volunteers(volunteers, norm),
		NGOs:       NGOs(ngos),
	}
	d.Charts = Charts{
		Categories:    Series(d.Events.Categories),
		TopSkills:     TopN(d.Volunteers.Skills, TopSkills),
		FieldsOfStudy: Series(d.Volunteers.FieldsOfStudy),
		Degrees:       Series(d.Volunteers.Degrees),
		Areas:         Ordered(d.NGOs.Areas, Areas),
		Beneficiaries: Ordered(d.NGOs.Beneficiaries, Beneficiaries),
	}
	return d
}
