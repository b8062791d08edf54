package domain

import "time"

// Job groups every resume analyzed against one job description. The
// description is immutable after creation. DescriptionHash is the storage
// backstop that keeps one Job per distinct description even when two
// uploads race: a unique index over a TEXT column is not portable across
// drivers, a 64-char hash column is.
type Job struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Description     string    `gorm:"type:text;not null" json:"description"`
	DescriptionHash string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	CreatedAt       time.Time `json:"-"`
	Resumes         []Resume  `gorm:"foreignKey:JobID" json:"resumes,omitempty"`
}
