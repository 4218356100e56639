// Package testutil собирает общие заготовки для тестов: in-memory базу и фикстуры.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"site-projects/internal/database"
	"site-projects/internal/models"

	"gorm.io/gorm"
)

var seq atomic.Int64

// NewDB открывает мигрированную in-memory sqlite базу.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// FixedClock всегда возвращает одно и то же время.
func FixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func CreateUser(t *testing.T, db *gorm.DB, role models.UserRole, wage float64) models.User {
	t.Helper()

	n := seq.Add(1)
	user := models.User{
		Email:        fmt.Sprintf("user%d@site.local", n),
		PasswordHash: "x",
		FirstName:    string(role),
		LastName:     fmt.Sprintf("%d", n),
		Role:         role,
		DailyWage:    wage,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func CreateClient(t *testing.T, db *gorm.DB) models.Client {
	t.Helper()

	client := models.Client{Name: fmt.Sprintf("Client %d", seq.Add(1)), Email: "client@example.com"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

// CreateProject сохраняет проект в нужном статусе с бригадой.
func CreateProject(t *testing.T, db *gorm.DB, status models.ProjectStatus, driver *models.User, workers ...models.User) models.Project {
	t.Helper()

	client := CreateClient(t, db)
	n := seq.Add(1)
	project := models.Project{
		ProjectNumber:   fmt.Sprintf("PRJ-TEST-%04d", n),
		Name:            fmt.Sprintf("Project %d", n),
		ClientID:        client.ID,
		Location:        "Dubai",
		Building:        "Tower A",
		ApartmentNumber: "101",
		Status:          status,
		Version:         1,
		Workers:         workers,
	}
	if driver != nil {
		project.DriverID = &driver.ID
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

// MarkRaw пишет отметку напрямую, минуя проверки журнала.
func MarkRaw(t *testing.T, db *gorm.DB, subjectID, projectID uint, day string, present bool, markedBy uint) {
	t.Helper()

	rec := models.Attendance{
		SubjectID:  subjectID,
		ProjectID:  projectID,
		Day:        day,
		Kind:       models.AttendanceProject,
		Present:    present,
		MarkedByID: markedBy,
	}
	if projectID == 0 {
		rec.Kind = models.AttendanceNormal
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create attendance: %v", err)
	}
}
