package models

import "time"

// Role identifies the authorization level of a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status describes whether a user account is usable.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User represents an account within the MediaVault platform.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	Status       Status    `json:"status"`
	Role         Role      `json:"role"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MediaType categorizes an uploaded file by its declared MIME type.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypePDF   MediaType = "pdf"
)

// Media is a persisted record describing one stored file and its metadata.
type Media struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId"`
	FileName      string    `json:"fileName"`
	OriginalName  string    `json:"originalName"`
	FilePath      string    `json:"filePath"`
	FileType      MediaType `json:"fileType"`
	FileExtension string    `json:"fileExtension"`
	FileSize      int64     `json:"fileSize"`
	NumberOfViews int64     `json:"numberOfViews"`
	Tags          []Tag     `json:"tags"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Tag labels media records; the relation to media is many-to-many.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
