package models

import "time"

const (
	EventActive    = "active"
	EventCancelled = "cancelled"
	EventCompleted = "completed"
)

type Event struct {
	ID                  string     `bson:"_id,omitempty" json:"id"`
	Title               string     `bson:"title" json:"title"`
	Description         string     `bson:"description,omitempty" json:"description,omitempty"`
	Location            string     `bson:"location,omitempty" json:"location,omitempty"`
	Date                string     `bson:"date,omitempty" json:"date,omitempty"`
	Time                string     `bson:"time,omitempty" json:"time,omitempty"`
	Category            string     `bson:"category,omitempty" json:"category,omitempty"`
	Categories          StringList `bson:"categories,omitempty" json:"categories,omitempty"`
	MaxParticipants     int        `bson:"maxParticipants" json:"maxParticipants"`
	CurrentParticipants int        `bson:"currentParticipants" json:"currentParticipants"`
	AcceptedCount       *int       `bson:"acceptedCount,omitempty" json:"acceptedCount,omitempty"`
	NgoID               string     `bson:"ngoId,omitempty" json:"ngoId,omitempty"`
	NgoName             string     `bson:"ngoName,omitempty" json:"ngoName,omitempty"`
	CreatedBy           string     `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	Status              string     `bson:"status,omitempty" json:"status,omitempty"` // active, cancelled, completed
	Images              []string   `bson:"images,omitempty" json:"images,omitempty"`
	CreatedAt           *Timestamp `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt           *Timestamp `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// CategorySet returns the event's categories, falling back to the singular category.
func (e Event) CategorySet() []string {
	if len(e.Categories) > 0 {
		return e.Categories
	}
	if e.Category != "" {
		return []string{e.Category}
	}
	return nil
}

// Joined is the accepted participant count, zero when absent.
func (e Event) Joined() int {
	if e.AcceptedCount == nil || *e.AcceptedCount < 0 {
		return 0
	}
	return *e.AcceptedCount
}

// LastModified is the most recent of updatedAt and createdAt.
func (e Event) LastModified() time.Time {
	if e.UpdatedAt != nil && !e.UpdatedAt.IsZero() {
		return e.UpdatedAt.Time
	}
	if e.CreatedAt != nil {
		return e.CreatedAt.Time
	}
	return time.Time{}
}
