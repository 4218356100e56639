package models

import "gorm.io/gorm"

type Client struct {
	gorm.Model
	Name          string `gorm:"size:255;not null" json:"name"`
	Address       string `gorm:"size:255" json:"address,omitempty"`
	ContactPerson string `gorm:"size:255" json:"contactPerson,omitempty"`
	Email         string `gorm:"size:255" json:"email,omitempty"` // сюда уходят письма о прогрессе
	Mobile        string `gorm:"size:50" json:"mobile,omitempty"`
	TRN           string `gorm:"size:32" json:"trn,omitempty"` // налоговый номер
	Notes         string `gorm:"type:text" json:"notes,omitempty"`

	Projects []Project `json:"-"`
}
