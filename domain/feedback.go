package domain

import "time"

// Feedback records reviewer reactions to an analysis.
type Feedback struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ResumeID        uint      `gorm:"not null;index" json:"resume_id"`
	FeedbackType    string    `gorm:"size:50;not null" json:"feedback_type"`
	FeedbackText    string    `gorm:"type:text" json:"feedback_text"`
	SuggestedBucket *string   `gorm:"size:100" json:"suggested_bucket"`
	CreatedAt       time.Time `json:"created_at"`
}

// BucketOverride is a reviewer's manual reassignment of a resume's bucket.
// The stored analysis stays untouched; the override sits alongside it.
type BucketOverride struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ResumeID       uint      `gorm:"not null;index" json:"resume_id"`
	OriginalBucket string    `gorm:"size:100" json:"original_bucket"`
	NewBucket      string    `gorm:"size:100;not null" json:"new_bucket"`
	Reason         string    `gorm:"type:text" json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}
