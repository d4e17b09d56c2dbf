package model

import "time"

type ListSearchStatus string

const (
	ListSearchStatusNew      ListSearchStatus = "New"
	ListSearchStatusAnswered ListSearchStatus = "Answered"
)

// ListSearch is a customer's request for a list of parts they could not find in the catalog.
type ListSearch struct {
	ID            string           `gorm:"primaryKey;size:36;not null"`
	FullName      string           `gorm:"size:128;not null"`
	Email         string           `gorm:"size:256;not null"`
	Phone         string           `gorm:"size:32;not null"`
	VehicleBrand  string           `gorm:"size:64"`
	VehicleModel  string           `gorm:"size:64"`
	ModelYear     int              `gorm:""`
	ChassisNumber string           `gorm:"size:32"`
	Parts         string           `gorm:"type:text;not null"`
	Status        ListSearchStatus `gorm:"size:16;index;not null"`
	Files         []ListSearchFile `gorm:"foreignKey:ListSearchID"`
	CreatedAt     time.Time
}

type ListSearchFile struct {
	ID           uint   `gorm:"primaryKey"`
	ListSearchID string `gorm:"size:36;index;not null"`
	FileName     string `gorm:"size:256;not null"`
	StoredName   string `gorm:"size:256;not null"`
	ContentType  string `gorm:"size:128"`
	Size         int64  `gorm:"not null"`
	CreatedAt    time.Time
}
