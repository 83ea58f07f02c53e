package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Question struct {
	gorm.Model
	Week          int            `gorm:"index"`
	Question      string         `gorm:"not null"`
	Options       pq.StringArray `gorm:"type:text[]"`
	CorrectAnswer int
	Explanation   string
}
