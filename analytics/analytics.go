// Package analytics computes the dashboard aggregates. Every function here is
// pure: the same input always yields the same output and nothing is stored.
package analytics

import (
	"sort"
	"time"

	"github.com/phillip/ngo-admin-console/models"
)

var MonthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var (
	Areas         = []string{"Local", "National", "International"}
	Beneficiaries = []string{
		"Children", "Environment", "Education", "Healthcare",
		"Elderly", "Disaster Relief", "Poverty Alleviation", "Animal Welfare",
	}
	VerificationStatuses = []string{models.StatusPending, models.StatusVerified, models.StatusRejected}
)

type MonthCount struct {
	Month  string `json:"month"`
	Events int    `json:"events"`
	Joined int    `json:"joined"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type EventStats struct {
	TotalEvents int            `json:"totalEvents"`
	TotalJoined int            `json:"totalJoined"`
	Categories  map[string]int `json:"categories"`
	Monthly     []MonthCount   `json:"monthly"`
}

type VolunteerStats struct {
	Total         int            `json:"total"`
	Skills        map[string]int `json:"skills"`
	FieldsOfStudy map[string]int `json:"fieldsOfStudy"`
	Degrees       map[string]int `json:"degrees"`
}

type NGOStats struct {
	Total         int            `json:"total"`
	Areas         map[string]int `json:"areas"`
	Beneficiaries map[string]int `json:"beneficiaries"`
	Verification  map[string]int `json:"verification"`
}

type EventOptions struct {
	// Location decides which calendar month an event falls in. UTC when nil.
	Location *time.Location
}

// Events counts events, joined participants, categories and the per-month
// distribution. Events without a creation time are ignored entirely.
func Events(events []models.Event, opts EventOptions) EventStats {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	var monthEvents, monthJoined [12]int
	stats := EventStats{Categories: map[string]int{}}

	for _, ev := range events {
		if ev.CreatedAt == nil || ev.CreatedAt.IsZero() {
			continue
		}
		joined := ev.Joined()
		stats.TotalEvents++
		stats.TotalJoined += joined
		for _, cat := range ev.CategorySet() {
			stats.Categories[cat]++
		}
		m := ev.CreatedAt.In(loc).Month() - 1
		monthEvents[m]++
		monthJoined[m] += joined
	}

	stats.Monthly = make([]MonthCount, 12)
	for i, label := range MonthLabels {
		stats.Monthly[i] = MonthCount{Month: label, Events: monthEvents[i], Joined: monthJoined[i]}
	}
	return stats
}

// Volunteers counts skills across every category, fields of study and
// highest degrees. Empty labels are not counted.
func Volunteers(volunteers []models.VolunteerProfile, norm Normalizer) VolunteerStats {
	stats := VolunteerStats{
		Total:         len(volunteers),
		Skills:        map[string]int{},
		FieldsOfStudy: map[string]int{},
		Degrees:       map[string]int{},
	}
	count := func(m map[string]int, raw string) {
		if label := norm.Apply(raw); label != "" {
			m[label]++
		}
	}
	for _, v := range volunteers {
		for _, skills := range v.Skills {
			for _, s := range skills {
				count(stats.Skills, s)
			}
		}
		count(stats.FieldsOfStudy, v.FieldOfStudy)
		count(stats.Degrees, v.HighestDegree)
	}
	return stats
}

// NGOs counts profiles by area of operation, beneficiary group and
// verification status. Every known key is present; unknown values are
// ignored.
func NGOs(profiles []models.NGOProfile) NGOStats {
	stats := NGOStats{
		Total:         len(profiles),
		Areas:         zeroed(Areas),
		Beneficiaries: zeroed(Beneficiaries),
		Verification:  zeroed(VerificationStatuses),
	}
	for _, p := range profiles {
		for _, a := range p.AreasOfOperation {
			if _, ok := stats.Areas[a]; ok {
				stats.Areas[a]++
			}
		}
		for _, b := range p.TargetBeneficiaries {
			if _, ok := stats.Beneficiaries[b]; ok {
				stats.Beneficiaries[b]++
			}
		}
		if _, ok := stats.Verification[p.Status()]; ok {
			stats.Verification[p.Status()]++
		}
	}
	return stats
}

// TopN orders counts by descending count then label, keeping at most n
// entries. n <= 0 keeps everything.
func TopN(counts map[string]int, n int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, c := range counts {
		out = append(out, LabelCount{Label: label, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Series is TopN without truncation.
func Series(counts map[string]int) []LabelCount {
	return TopN(counts, 0)
}

// Ordered lists counts in the order of keys, used for the fixed NGO sets.
func Ordered(counts map[string]int, keys []string) []LabelCount {
	out := make([]LabelCount, len(keys))
	for i, k := range keys {
		out[i] = LabelCount{Label: k, Count: counts[k]}
	}
	return out
}

func zeroed(keys []string) map[string]int {
	m := make(map[string]int, len(keys))
	for _, k := range keys {
		m[k] = 0
	}
	return m
}
