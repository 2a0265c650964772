package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// StringMap is an open string-to-string attribute bag stored as JSON.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		m = StringMap{}
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported attribute column type %T", value)
	}
	if len(raw) == 0 {
		*m = StringMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// StringList is an ordered id list stored as JSON.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported member column type %T", value)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

// User represents the users collection. UserID is the business key; the
// numeric ID is storage-internal and never leaves the persistence layer.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	UserID       string    `gorm:"uniqueIndex;size:36;not null" json:"userId"`
	Email        string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Status       string    `gorm:"size:20;not null" json:"status"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	ResetCode    string    `gorm:"index;size:128" json:"-"`
	ResetExpiry  string    `gorm:"size:40" json:"-"`
	RefreshJti   string    `gorm:"size:36" json:"-"`
	Attributes   StringMap `gorm:"type:json" json:"attributes"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Group represents the groups collection.
type Group struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	GroupID   string     `gorm:"uniqueIndex;size:36;not null" json:"groupId"`
	GroupName string     `gorm:"uniqueIndex;size:100;not null" json:"groupName"`
	Members   StringList `gorm:"type:json" json:"members"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"-"`
}

func (Group) TableName() string {
	return "groups"
}

// App represents the apps collection. Key is the caller-facing public
// identifier, distinct from AppID.
type App struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	AppID      string    `gorm:"uniqueIndex;size:36;not null" json:"appId"`
	AppName    string    `gorm:"uniqueIndex;size:100;not null" json:"appName"`
	Key        string    `gorm:"uniqueIndex;size:32;not null" json:"key"`
	SecretHash string    `gorm:"size:255" json:"-"`
	Attributes StringMap `gorm:"type:json" json:"attributes"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (App) TableName() string {
	return "apps"
}

// AutoMigrate creates or updates the tables for all collections
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Group{},
		&App{},
	)
}
