package models

import "gorm.io/gorm"

type Reminder struct {
	gorm.Model
	Week    int    `gorm:"not null"`
	Title   string `gorm:"not null"`
	Message string `gorm:"not null"`
	Active  bool   `gorm:"default:true"`
}
