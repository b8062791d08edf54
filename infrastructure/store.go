package infrastructure

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"talentvibe/domain"
	"talentvibe/logger"
)

// JobStore is the persistence layer for jobs, resumes and the records
// hanging off them.
type JobStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobStore(db *gorm.DB, log *logger.Logger) *JobStore {
	return &JobStore{db: db, log: log.With("component", "JobStore")}
}

// FindOrCreateJob returns the job with the given description, creating it
// on first sight. Safe under concurrent callers: if two uploads race past
// the lookup, the unique index on the description hash rejects the second
// insert and we fetch the winner's row instead.
func (s *JobStore) FindOrCreateJob(description string) (*domain.Job, error) {
	hash := domain.Fingerprint(description)

	var job domain.Job
	err := s.db.Where("description_hash = ?", hash).First(&job).Error
	if err == nil {
		return &job, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find job: %w", err)
	}

	job = domain.Job{Description: description, DescriptionHash: hash}
	if err := s.db.Create(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := s.db.Where("description_hash = ?", hash).First(&job).Error; err != nil {
				return nil, fmt.Errorf("refetch job after duplicate: %w", err)
			}
			return &job, nil
		}
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.log.Info("job created", "job_id", job.ID)
	return &job, nil
}

func (s *JobStore) ExistsByHash(jobID uint, hash string) (bool, error) {
	var n int64
	err := s.db.Model(&domain.Resume{}).
		Where("job_id = ? AND content_hash = ?", jobID, hash).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("count by hash: %w", err)
	}
	return n > 0, nil
}

func (s *JobStore) ExistsByFilename(jobID uint, filename string) (bool, error) {
	var n int64
	err := s.db.Model(&domain.Resume{}).
		Where("job_id = ? AND filename = ?", jobID, filename).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("count by filename: %w", err)
	}
	return n > 0, nil
}

// SaveResumes writes the whole batch in one transaction and returns the
// number of rows actually inserted. Rows colliding with the per-job
// uniqueness constraints are dropped by the database rather than failing
// the batch; any other failure rolls the entire batch back.
func (s *JobStore) SaveResumes(jobID uint, resumes []domain.Resume) (int64, error) {
	if len(resumes) == 0 {
		return 0, nil
	}
	for i := range resumes {
		resumes[i].JobID = jobID
	}

	var inserted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&resumes)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("save resumes: %w", err)
	}
	return inserted, nil
}

// JobSummary is one row of the jobs listing.
type JobSummary struct {
	ID          uint   `json:"id"`
	Description string `json:"description"`
	ResumeCount int    `json:"resume_count"`
}

func (s *JobStore) ListJobs() ([]JobSummary, error) {
	var out []JobSummary
	err := s.db.Model(&domain.Job{}).
		Select("jobs.id, jobs.description, COUNT(resumes.id) AS resume_count").
		Joins("LEFT JOIN resumes ON resumes.job_id = jobs.id").
		Group("jobs.id").
		Order("jobs.id DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if out == nil {
		out = []JobSummary{}
	}
	return out, nil
}

func (s *JobStore) GetJob(jobID uint) (*domain.Job, error) {
	var job domain.Job
	err := s.db.Preload("Resumes").First(&job, jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// DeleteJob removes a job, its resumes, and every record referencing
// those resumes, in one transaction. Returns the number of resumes that
// went with it.
func (s *JobStore) DeleteJob(jobID uint) (int, error) {
	deleted := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var job domain.Job
		if err := tx.First(&job, jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrJobNotFound
			}
			return err
		}

		var resumeIDs []uint
		if err := tx.Model(&domain.Resume{}).Where("job_id = ?", jobID).
			Pluck("id", &resumeIDs).Error; err != nil {
			return err
		}
		deleted = len(resumeIDs)

		if len(resumeIDs) > 0 {
			if err := tx.Where("resume_id IN ?", resumeIDs).
				Delete(&domain.Interview{}).Error; err != nil {
				return err
			}
			if err := tx.Where("resume_id IN ?", resumeIDs).
				Delete(&domain.Feedback{}).Error; err != nil {
				return err
			}
			if err := tx.Where("resume_id IN ?", resumeIDs).
				Delete(&domain.BucketOverride{}).Error; err != nil {
				return err
			}
			if err := tx.Where("job_id = ?", jobID).
				Delete(&domain.Resume{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&job).Error
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("job deleted", "job_id", jobID, "resumes", deleted)
	return deleted, nil
}

func (s *JobStore) resumeExists(tx *gorm.DB, resumeID uint) error {
	var n int64
	if err := tx.Model(&domain.Resume{}).Where("id = ?", resumeID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrResumeNotFound
	}
	return nil
}

func (s *JobStore) CreateInterview(iv *domain.Interview) error {
	if err := s.resumeExists(s.db, iv.ResumeID); err != nil {
		return err
	}
	if err := s.db.Create(iv).Error; err != nil {
		return fmt.Errorf("create interview: %w", err)
	}
	return nil
}

// InterviewSummary joins the interview with enough resume/job context for
// the interviews listing.
type InterviewSummary struct {
	domain.Interview
	CandidateName string `json:"candidate_name"`
	Filename      string `json:"filename"`
	JobID         uint   `json:"job_id"`
}

func (s *JobStore) ListInterviews() ([]InterviewSummary, error) {
	var out []InterviewSummary
	err := s.db.Model(&domain.Interview{}).
		Select("interviews.*, resumes.candidate_name, resumes.filename, resumes.job_id").
		Joins("JOIN resumes ON resumes.id = interviews.resume_id").
		Order("interviews.id DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	if out == nil {
		out = []InterviewSummary{}
	}
	return out, nil
}

func (s *JobStore) CreateFeedback(fb *domain.Feedback) error {
	if err := s.resumeExists(s.db, fb.ResumeID); err != nil {
		return err
	}
	if err := s.db.Create(fb).Error; err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// FeedbackStats aggregates feedback counts by type.
type FeedbackStats struct {
	Total  int64            `json:"total"`
	ByType map[string]int64 `json:"by_type"`
}

func (s *JobStore) GetFeedbackStats() (FeedbackStats, error) {
	stats := FeedbackStats{ByType: make(map[string]int64)}
	type row struct {
		FeedbackType string
		N            int64
	}
	var rows []row
	err := s.db.Model(&domain.Feedback{}).
		Select("feedback_type, COUNT(*) AS n").
		Group("feedback_type").
		Scan(&rows).Error
	if err != nil {
		return stats, fmt.Errorf("feedback stats: %w", err)
	}
	for _, r := range rows {
		stats.ByType[r.FeedbackType] = r.N
		stats.Total += r.N
	}
	return stats, nil
}

func (s *JobStore) CreateOverride(ov *domain.BucketOverride) error {
	if err := s.resumeExists(s.db, ov.ResumeID); err != nil {
		return err
	}
	if err := s.db.Create(ov).Error; err != nil {
		return fmt.Errorf("create override: %w", err)
	}
	return nil
}
