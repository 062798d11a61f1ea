package model

import "time"

// Profile is stored in user_details. UserID is unique, so a user owns at
// most one profile; there is no pointer back to User.
type Profile struct {
	ID          uint    `gorm:"primaryKey"`
	LastName    string  `gorm:"size:50;not null"`
	FirstName   string  `gorm:"size:50;not null"`
	MiddleName  *string `gorm:"size:50"`
	BirthDate   *Date
	PhoneNumber *string `gorm:"size:20"`
	UserID      *uint   `gorm:"uniqueIndex"`
	Photo       *Photo  `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
}

func (Profile) TableName() string {
	return "user_details"
}

// Photo is the single image slot of a profile.
type Photo struct {
	ID         uint      `gorm:"primaryKey"`
	Data       []byte    `gorm:"not null"`
	FileName   string    `gorm:"size:255"`
	FileType   string    `gorm:"size:100"`
	FileSize   int64     `gorm:"not null"`
	UploadDate time.Time `gorm:"not null"`
	ProfileID  uint      `gorm:"uniqueIndex;not null"`
}

func (Photo) TableName() string {
	return "user_photos"
}
