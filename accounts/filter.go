package accounts

import (
	"strings"

	"github.com/phillip/ngo-admin-console/models"
)

// Filter keeps the items where any of fields(item) contains term, ignoring
// case. An empty term keeps everything.
func Filter[T any](items []T, term string, fields func(T) []string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(strings.ToLower(f), term) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

func NGOSearchFields(a models.NGOAccount) []string {
	return []string{a.OrganizationName, a.Email, a.ID}
}

func VolunteerSearchFields(a models.VolunteerAccount) []string {
	return []string{a.FullName, a.Email, a.ID}
}
