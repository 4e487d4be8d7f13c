package model

import (
	"strings"
	"time"
)

const (
	PortfolioCategoryRealEstate  = "imobiliario"
	PortfolioCategoryEvents      = "eventos"
	PortfolioCategoryInspections = "inspecoes"
	PortfolioCategoryMapping     = "mapeamento"
	PortfolioCategoryMarketing   = "marketing"
	PortfolioCategoryDocumentary = "documentario"

	portfolioTableName = "portfolio"
)

// PortfolioCategories lists the portfolio categories in display order.
var PortfolioCategories = []Option{
	{Value: PortfolioCategoryRealEstate, Label: "Imobiliário"},
	{Value: PortfolioCategoryEvents, Label: "Eventos"},
	{Value: PortfolioCategoryInspections, Label: "Inspeções"},
	{Value: PortfolioCategoryMapping, Label: "Mapeamento"},
	{Value: PortfolioCategoryMarketing, Label: "Marketing"},
	{Value: PortfolioCategoryDocumentary, Label: "Documentário"},
}

// PortfolioItem is a showcased project.
type PortfolioItem struct {
	ID          string    `json:"id" yaml:"id" gorm:"primaryKey;size:36"`
	Title       string    `json:"title" yaml:"title" gorm:"not null;size:200"`
	Description string    `json:"description" yaml:"description" gorm:"not null;size:2000"`
	ImageURL    string    `json:"image_url" yaml:"image_url" gorm:"not null;size:1000"`
	VideoURL    string    `json:"video_url,omitempty" yaml:"video_url" gorm:"size:1000"`
	Category    string    `json:"category" yaml:"category" gorm:"not null;size:32;index"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at" gorm:"autoCreateTime;index"`
}

func (PortfolioItem) TableName() string {
	return portfolioTableName
}

// RecordID returns the portfolio item identifier.
func (item PortfolioItem) RecordID() string {
	return item.ID
}

// CategoryLabel returns the display label of the item category.
func (item PortfolioItem) CategoryLabel() string {
	return LabelFor(PortfolioCategories, item.Category)
}

// PortfolioDraft holds the editable fields of a PortfolioItem.
type PortfolioDraft struct {
	Title       string `json:"title" form:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" form:"description" validate:"required,min=10,max=2000"`
	ImageURL    string `json:"image_url" form:"image_url" validate:"required,url,max=1000"`
	VideoURL    string `json:"video_url" form:"video_url" validate:"omitempty,url,max=1000"`
	Category    string `json:"category" form:"category" validate:"required,oneof=imobiliario eventos inspecoes mapeamento marketing documentario"`
}

// NewPortfolioDraft normalizes and validates a portfolio draft.
func NewPortfolioDraft(draft PortfolioDraft) (PortfolioDraft, error) {
	normalized := PortfolioDraft{
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		ImageURL:    strings.TrimSpace(draft.ImageURL),
		VideoURL:    strings.TrimSpace(draft.VideoURL),
		Category:    strings.ToLower(strings.TrimSpace(draft.Category)),
	}
	if err := validateDraft(normalized); err != nil {
		return normalized, err
	}
	return normalized, nil
}

// DraftFromPortfolioItem returns the editable fields of an existing item.
func DraftFromPortfolioItem(item PortfolioItem) PortfolioDraft {
	return PortfolioDraft{
		Title:       item.Title,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		VideoURL:    item.VideoURL,
		Category:    item.Category,
	}
}

// BuildPortfolioItem creates a PortfolioItem carrying the draft fields and the given identity.
func BuildPortfolioItem(identifier string, createdAt time.Time, draft PortfolioDraft) PortfolioItem {
	return PortfolioItem{
		ID:          identifier,
		Title:       draft.Title,
		Description: draft.Description,
		ImageURL:    draft.ImageURL,
		VideoURL:    draft.VideoURL,
		Category:    draft.Category,
		CreatedAt:   createdAt,
	}
}
