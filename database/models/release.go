package models

import "time"

// Release 发布记录，ID 自增以保留插入顺序
type Release struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Platform  string    `json:"platform" gorm:"type:varchar(64);not null;index"`
	Version   string    `json:"version" gorm:"type:varchar(128);not null"`
	Notes     string    `json:"notes" gorm:"type:text"`
	PubDate   string    `json:"pub_date" gorm:"type:varchar(40)"`
	Signature string    `json:"signature" gorm:"type:text"`
	URL       string    `json:"url" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Release) TableName() string {
	return "releases"
}
