package dto

import (
	"time"

	"github.com/edulink-id/parent-portal-api/internal/models"
)

// AttendanceDay is one presentation slot in the weekly strip. Days without a
// stored record carry the "Not Marked" status.
type AttendanceDay struct {
	Date   string                  `json:"date"`
	Status models.AttendanceStatus `json:"status"`
}

// GradeReport is an exam result enriched with its computed average. Average
// is nil when no subject score parses numerically.
type GradeReport struct {
	ExamName string            `json:"examName"`
	Date     string            `json:"date"`
	Subjects map[string]string `json:"subjects"`
	Average  *float64          `json:"average"`
}

// Dashboard is the combined home-screen payload assembled from concurrent
// sub-fetches.
type Dashboard struct {
	Student            models.Student        `json:"student"`
	AttendanceWeek     []AttendanceDay       `json:"attendanceWeek"`
	Announcements      []models.Announcement `json:"announcements"`
	AnnouncementsToday int                   `json:"announcementsToday"`
	Homework           []models.Homework     `json:"homework"`
	HomeworkToday      int                   `json:"homeworkToday"`
	Grades             []GradeReport         `json:"grades"`
	GeneratedAt        time.Time             `json:"generatedAt"`
}
