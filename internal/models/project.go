package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	StatusDraft              ProjectStatus = "draft"
	StatusEstimationPrepared ProjectStatus = "estimation_prepared"
	StatusQuotationSent      ProjectStatus = "quotation_sent"
	StatusQuotationApproved  ProjectStatus = "quotation_approved"
	StatusQuotationRejected  ProjectStatus = "quotation_rejected"
	StatusLPOReceived        ProjectStatus = "lpo_received"
	StatusTeamAssigned       ProjectStatus = "team_assigned"
	StatusWorkStarted        ProjectStatus = "work_started"
	StatusInProgress         ProjectStatus = "in_progress"
	StatusWorkCompleted      ProjectStatus = "work_completed"
	StatusQualityCheck       ProjectStatus = "quality_check"
	StatusClientHandover     ProjectStatus = "client_handover"
	StatusFinalInvoiceSent   ProjectStatus = "final_invoice_sent"
	StatusPaymentReceived    ProjectStatus = "payment_received"
	StatusProjectClosed      ProjectStatus = "project_closed"
	StatusOnHold             ProjectStatus = "on_hold"
	StatusCancelled          ProjectStatus = "cancelled"
)

type Project struct {
	gorm.Model
	ProjectNumber string `gorm:"size:32;uniqueIndex;not null" json:"projectNumber"`
	Name          string `gorm:"size:255;not null" json:"name"`
	Description   string `gorm:"type:text" json:"description,omitempty"`

	ClientID uint   `gorm:"not null;index" json:"clientId"`
	Client   Client `json:"client"`

	Location        string `gorm:"size:255;not null" json:"location"`
	Building        string `gorm:"size:255;not null" json:"building"`
	ApartmentNumber string `gorm:"size:50;not null" json:"apartmentNumber"`

	Status   ProjectStatus `gorm:"type:varchar(30);not null;index" json:"status"`
	Progress int           `gorm:"not null;default:0" json:"progress"` // 0..100

	AssignedEngineerID *uint `gorm:"index" json:"assignedEngineerId,omitempty"`
	AssignedEngineer   *User `gorm:"foreignKey:AssignedEngineerID" json:"assignedEngineer,omitempty"`

	// состав бригады: не больше одного водителя и сколько угодно рабочих
	DriverID *uint  `gorm:"index" json:"driverId,omitempty"`
	Driver   *User  `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Workers  []User `gorm:"many2many:project_workers" json:"workers,omitempty"`

	CreatedByID uint  `json:"createdById"`
	UpdatedByID *uint `json:"updatedById,omitempty"`

	// счётчик для оптимистичной блокировки смены статуса
	Version int `gorm:"not null;default:1" json:"version"`

	LastStatusChangeAt *time.Time `json:"lastStatusChangeAt,omitempty"`
}

// Назначен ли пользователь водителем проекта.
func (p *Project) IsDriver(userID uint) bool {
	return p.DriverID != nil && *p.DriverID == userID
}

// Входит ли пользователь в список рабочих. Workers должны быть загружены.
func (p *Project) IsWorker(userID uint) bool {
	for _, w := range p.Workers {
		if w.ID == userID {
			return true
		}
	}
	return false
}

// Единственная проверка членства в бригаде, ею пользуются и отметка
// посещаемости, и расчёт зарплаты.
func (p *Project) HasMember(userID uint) bool {
	return p.IsDriver(userID) || p.IsWorker(userID)
}
