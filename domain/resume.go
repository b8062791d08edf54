package domain

import "time"

// Resume is created once by the orchestrator after a successful evaluation
// and never mutated afterwards. Deduplication is scoped per job, by both
// filename and content hash.
type Resume struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	JobID         uint      `gorm:"not null;uniqueIndex:uq_resume_job_filename,priority:1;uniqueIndex:uq_resume_job_hash,priority:1" json:"-"`
	Filename      string    `gorm:"size:255;not null;uniqueIndex:uq_resume_job_filename,priority:2" json:"filename"`
	CandidateName string    `gorm:"size:255" json:"candidate_name"`
	Content       string    `gorm:"type:longtext;not null" json:"-"`
	ContentHash   string    `gorm:"size:64;not null;uniqueIndex:uq_resume_job_hash,priority:2" json:"-"`
	Analysis      *string   `gorm:"type:json" json:"-"` // pointer so it can be NULL until evaluation lands
	CreatedAt     time.Time `json:"-"`
}
