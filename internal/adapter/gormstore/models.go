package gormstore

import (
	"time"

	"mentorship/internal/domain"
)

type participantRow struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Role      string    `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;not null"`
}

func (participantRow) TableName() string { return "participants" }

func (r participantRow) toDomain() domain.Participant {
	return domain.Participant{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      domain.Role(r.Role),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type reviewRow struct {
	ID        int64     `gorm:"primaryKey"`
	MentorID  int64     `gorm:"not null;index:idx_reviews_mentor_start,priority:1"`
	StudentID int64     `gorm:"not null;index:idx_reviews_student_start,priority:1"`
	StartTime time.Time `gorm:"not null;index:idx_reviews_mentor_start,priority:2;index:idx_reviews_student_start,priority:2"`
	EndTime   time.Time `gorm:"not null"`
	Status    string    `gorm:"not null;default:scheduled"`
	Grade     *int
	Comment   *string
	CreatedAt time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;not null"`
}

func (reviewRow) TableName() string { return "reviews" }

func reviewRowOf(s domain.Session) reviewRow {
	return reviewRow{
		ID:        s.ID,
		MentorID:  s.MentorID,
		StudentID: s.StudentID,
		StartTime: s.StartTime.UTC(),
		EndTime:   s.EndTime().UTC(),
		Status:    string(s.Status),
		Grade:     s.Grade,
		Comment:   s.Comment,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}

func (r reviewRow) toDomain() (domain.Session, error) {
	st, err := domain.ParseStatus(r.Status)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		ID:        r.ID,
		MentorID:  r.MentorID,
		StudentID: r.StudentID,
		StartTime: r.StartTime.UTC(),
		Status:    st,
		Grade:     r.Grade,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}, nil
}

func toDomainSessions(rows []reviewRow) ([]domain.Session, error) {
	out := make([]domain.Session, 0, len(rows))
	for _, r := range rows {
		s, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
