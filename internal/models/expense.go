package models

import (
	"time"

	"gorm.io/gorm"
)

type MaterialItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExpenseID   uint      `gorm:"not null;index" json:"-"`
	Description string    `gorm:"size:255;not null" json:"description"`
	Date        time.Time `gorm:"not null" json:"date"`
	InvoiceNo   string    `gorm:"size:64;not null" json:"invoiceNo"`
	Amount      float64   `gorm:"not null" json:"amount"`
}

type LaborRole string

const (
	LaborWorker LaborRole = "worker"
	LaborDriver LaborRole = "driver"
)

// LaborLine — строка трудозатрат, зафиксированная в момент сохранения расхода.
type LaborLine struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExpenseID   uint      `gorm:"not null;index" json:"-"`
	Role        LaborRole `gorm:"type:varchar(10);not null" json:"role"`
	UserID      uint      `json:"userId"` // 0: водитель не назначен
	Name        string    `gorm:"size:255" json:"name"`
	DaysPresent int       `gorm:"not null" json:"daysPresent"`
	DailyWage   float64   `gorm:"not null" json:"dailyWage"`
	TotalWage   float64   `gorm:"not null" json:"totalWage"`
}

type Expense struct {
	gorm.Model
	ProjectID uint    `gorm:"not null;index" json:"projectId"`
	Project   Project `json:"-"`

	Materials         []MaterialItem `gorm:"constraint:OnDelete:CASCADE" json:"materials"`
	TotalMaterialCost float64        `gorm:"not null;default:0" json:"totalMaterialCost"`

	LaborLines     []LaborLine `gorm:"constraint:OnDelete:CASCADE" json:"laborLines"`
	TotalLaborCost float64     `gorm:"not null;default:0" json:"totalLaborCost"`

	CreatedByID uint `json:"createdById"`
	CreatedBy   User `json:"createdBy"`
}

// BeforeSave пересчитывает итоги перед записью.
func (e *Expense) BeforeSave(tx *gorm.DB) error {
	e.RecalculateTotals()
	return nil
}

func (e *Expense) RecalculateTotals() {
	var materials float64
	for _, m := range e.Materials {
		materials += m.Amount
	}
	var labor float64
	for _, l := range e.LaborLines {
		labor += l.TotalWage
	}
	e.TotalMaterialCost = materials
	e.TotalLaborCost = labor
}

func (e *Expense) WorkersCost() float64 {
	var sum float64
	for _, l := range e.LaborLines {
		if l.Role == LaborWorker {
			sum += l.TotalWage
		}
	}
	return sum
}

func (e *Expense) DriverCost() float64 {
	var sum float64
	for _, l := range e.LaborLines {
		if l.Role == LaborDriver {
			sum += l.TotalWage
		}
	}
	return sum
}
