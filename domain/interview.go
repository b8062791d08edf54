package domain

import "time"

// Interview is scheduled against an analyzed resume. It references the
// resume but never alters its stored content or analysis.
type Interview struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	ResumeID               uint       `gorm:"not null;index" json:"resume_id"`
	Title                  string     `gorm:"size:255;not null" json:"title"`
	InterviewType          string     `gorm:"size:50;default:'video'" json:"interview_type"`
	DurationMinutes        int        `gorm:"default:60" json:"duration_minutes"`
	ScheduledAt            *time.Time `json:"scheduled_at"`
	Timezone               string     `gorm:"size:64;default:'UTC'" json:"timezone"`
	Location               string     `gorm:"size:255" json:"location"`
	VideoLink              string     `gorm:"size:512" json:"video_link"`
	PrimaryInterviewer     string     `gorm:"size:255" json:"primary_interviewer"`
	AdditionalInterviewers string     `gorm:"type:json" json:"additional_interviewers"`
	PreInterviewNotes      string     `gorm:"type:text" json:"pre_interview_notes"`
	Status                 string     `gorm:"size:50;default:'scheduled'" json:"status"`
	CreatedAt              time.Time  `json:"created_at"`
}
