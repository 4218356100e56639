package models

import "gorm.io/gorm"

type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin"
	RoleAdmin      UserRole = "admin"
	RoleEngineer   UserRole = "engineer"
	RoleFinance    UserRole = "finance"
	RoleDriver     UserRole = "driver"
	RoleWorker     UserRole = "worker"
)

// Роль из фиксированного списка.
func ValidRole(r UserRole) bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleEngineer, RoleFinance, RoleDriver, RoleWorker:
		return true
	}
	return false
}

// Роль admin или super_admin.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	gorm.Model
	Email        string   `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	FirstName    string   `gorm:"size:100;not null" json:"firstName"`
	LastName     string   `gorm:"size:100;not null" json:"lastName"`
	Phone        string   `gorm:"size:50" json:"phone,omitempty"`
	Role         UserRole `gorm:"type:varchar(20);not null;index" json:"role"`
	DailyWage    float64  `gorm:"not null;default:0" json:"dailyWage"` // для админов не обязательна
	IsActive     bool     `gorm:"not null;default:true" json:"isActive"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
