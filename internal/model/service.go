package model

import (
	"strings"
	"time"
)

const (
	ServiceIconCamera = "camera"
	ServiceIconVideo  = "video"
	ServiceIconMap    = "map"
	ServiceIconSearch = "search"
	ServiceIconDrone  = "drone"
	ServiceIconTower  = "tower"

	serviceTableName = "services"
)

// ServiceIcons lists the icons accepted by the service form, in display order.
var ServiceIcons = []Option{
	{Value: ServiceIconCamera, Label: "Câmera"},
	{Value: ServiceIconVideo, Label: "Vídeo"},
	{Value: ServiceIconMap, Label: "Mapa"},
	{Value: ServiceIconSearch, Label: "Inspeção"},
	{Value: ServiceIconDrone, Label: "Drone"},
	{Value: ServiceIconTower, Label: "Torre"},
}

// Service is an offering shown in the services section of the public site.
type Service struct {
	ID          string    `json:"id" yaml:"id" gorm:"primaryKey;size:36"`
	Title       string    `json:"title" yaml:"title" gorm:"not null;size:200"`
	Description string    `json:"description" yaml:"description" gorm:"not null;size:2000"`
	Icon        string    `json:"icon" yaml:"icon" gorm:"not null;size:32"`
	ImageURL    string    `json:"image_url,omitempty" yaml:"image_url" gorm:"size:1000"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at" gorm:"autoCreateTime;index"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (Service) TableName() string {
	return serviceTableName
}

// RecordID returns the service identifier.
func (service Service) RecordID() string {
	return service.ID
}

// ServiceDraft holds the editable fields of a Service.
type ServiceDraft struct {
	Title       string `json:"title" form:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" form:"description" validate:"required,min=10,max=2000"`
	Icon        string `json:"icon" form:"icon" validate:"required,oneof=camera video map search drone tower"`
	ImageURL    string `json:"image_url" form:"image_url" validate:"omitempty,url,max=1000"`
}

// NewServiceDraft normalizes and validates a service draft.
func NewServiceDraft(draft ServiceDraft) (ServiceDraft, error) {
	normalized := ServiceDraft{
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Icon:        strings.ToLower(strings.TrimSpace(draft.Icon)),
		ImageURL:    strings.TrimSpace(draft.ImageURL),
	}
	if err := validateDraft(normalized); err != nil {
		return normalized, err
	}
	return normalized, nil
}

// DraftFromService returns the editable fields of an existing service.
func DraftFromService(service Service) ServiceDraft {
	return ServiceDraft{
		Title:       service.Title,
		Description: service.Description,
		Icon:        service.Icon,
		ImageURL:    service.ImageURL,
	}
}

// BuildService creates a Service carrying the draft fields and the given identity.
func BuildService(identifier string, createdAt time.Time, draft ServiceDraft) Service {
	return Service{
		ID:          identifier,
		Title:       draft.Title,
		Description: draft.Description,
		Icon:        draft.Icon,
		ImageURL:    draft.ImageURL,
		CreatedAt:   createdAt,
	}
}
