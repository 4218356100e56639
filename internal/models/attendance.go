package models

import "time"

type AttendanceKind string

const (
	// отметка водителем на объекте
	AttendanceProject AttendanceKind = "project"
	// обычная отметка без проекта
	AttendanceNormal AttendanceKind = "normal"
)

func ValidAttendanceKind(k AttendanceKind) bool {
	return k == AttendanceProject || k == AttendanceNormal
}

// Одна отметка присутствия. Естественный ключ:
// (subject_id, project_id, day, kind); project_id = 0 для отметок без проекта.
type Attendance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	SubjectID uint           `gorm:"not null;uniqueIndex:idx_attendance_natural_key,priority:1" json:"subjectId"`
	Subject   *User          `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	ProjectID uint           `gorm:"not null;default:0;uniqueIndex:idx_attendance_natural_key,priority:2;index" json:"projectId"`
	Day       string         `gorm:"type:varchar(10);not null;uniqueIndex:idx_attendance_natural_key,priority:3;index" json:"day"` // YYYY-MM-DD
	Kind      AttendanceKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_attendance_natural_key,priority:4" json:"kind"`

	Present    bool  `gorm:"not null" json:"present"`
	MarkedByID uint  `gorm:"not null" json:"markedById"`
	MarkedBy   *User `gorm:"foreignKey:MarkedByID" json:"markedBy,omitempty"`
}
