package gormstore

import "time"

type EvidenceModel struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	Owner          string    `gorm:"index;not null"`
	ContentAddress string    `gorm:"index;not null"`
	EncryptionKey  string    `gorm:"not null"`
	Description    string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	Active         bool      `gorm:"not null"`
}

func (EvidenceModel) TableName() string { return "evidence_records" }

type AccessRequestModel struct {
	// Seq keeps insertion order stable across backends.
	Seq        int64     `gorm:"primaryKey;autoIncrement"`
	ID         string    `gorm:"uniqueIndex;not null"`
	EvidenceID uint64    `gorm:"index;not null"`
	Requester  string    `gorm:"index;not null"`
	Timestamp  time.Time `gorm:"not null"`
	Status     string    `gorm:"not null"`
}

func (AccessRequestModel) TableName() string { return "access_requests" }

type GrantedAccessModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	EvidenceID uint64    `gorm:"uniqueIndex:idx_grant_requester;not null"`
	Requester  string    `gorm:"uniqueIndex:idx_grant_requester;not null"`
	GrantedAt  time.Time `gorm:"not null"`
}

func (GrantedAccessModel) TableName() string { return "granted_access" }
