package models

type VolunteerProfile struct {
	ID            string                `bson:"_id,omitempty" json:"id"`
	FullName      string                `bson:"fullName,omitempty" json:"fullName,omitempty"`
	Email         string                `bson:"email,omitempty" json:"email,omitempty"`
	DateOfBirth   *Timestamp            `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Location      string                `bson:"location,omitempty" json:"location,omitempty"`
	Interests     StringList            `bson:"interests,omitempty" json:"interests,omitempty"`
	Skills        map[string]StringList `bson:"skills,omitempty" json:"skills,omitempty"`
	FieldOfStudy  string                `bson:"fieldOfStudy,omitempty" json:"fieldOfStudy,omitempty"`
	HighestDegree string                `bson:"highestDegree,omitempty" json:"highestDegree,omitempty"`
}
