package model

import (
	"strings"
	"time"
)

const (
	TestimonialRatingMin = 1
	TestimonialRatingMax = 5

	testimonialTableName = "testimonials"
)

// Testimonial is a client quote with a star rating.
type Testimonial struct {
	ID          string    `json:"id" yaml:"id" gorm:"primaryKey;size:36"`
	ClientName  string    `json:"client_name" yaml:"client_name" gorm:"not null;size:200"`
	ClientPhoto string    `json:"client_photo,omitempty" yaml:"client_photo" gorm:"size:1000"`
	Testimonial string    `json:"testimonial" yaml:"testimonial" gorm:"not null;size:2000"`
	Rating      int       `json:"rating" yaml:"rating" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at" gorm:"autoCreateTime;index"`
}

func (Testimonial) TableName() string {
	return testimonialTableName
}

// RecordID returns the testimonial identifier.
func (testimonial Testimonial) RecordID() string {
	return testimonial.ID
}

// Stars returns one entry per rating point, for templates that draw stars.
func (testimonial Testimonial) Stars() []int {
	stars := make([]int, 0, TestimonialRatingMax)
	for star := 1; star <= testimonial.Rating && star <= TestimonialRatingMax; star++ {
		stars = append(stars, star)
	}
	return stars
}

// TestimonialDraft holds the editable fields of a Testimonial.
type TestimonialDraft struct {
	ClientName  string `json:"client_name" form:"client_name" validate:"required,min=2,max=200"`
	ClientPhoto string `json:"client_photo" form:"client_photo" validate:"omitempty,url,max=1000"`
	Testimonial string `json:"testimonial" form:"testimonial" validate:"required,min=10,max=2000"`
	Rating      int    `json:"rating" form:"rating" validate:"min=1,max=5"`
}

// NewTestimonialDraft normalizes and validates a testimonial draft.
func NewTestimonialDraft(draft TestimonialDraft) (TestimonialDraft, error) {
	normalized := TestimonialDraft{
		ClientName:  strings.TrimSpace(draft.ClientName),
		ClientPhoto: strings.TrimSpace(draft.ClientPhoto),
		Testimonial: strings.TrimSpace(draft.Testimonial),
		Rating:      draft.Rating,
	}
	if err := validateDraft(normalized); err != nil {
		return normalized, err
	}
	return normalized, nil
}

// DraftFromTestimonial returns the editable fields of an existing testimonial.
func DraftFromTestimonial(testimonial Testimonial) TestimonialDraft {
	return TestimonialDraft{
		ClientName:  testimonial.ClientName,
		ClientPhoto: testimonial.ClientPhoto,
		Testimonial: testimonial.Testimonial,
		Rating:      testimonial.Rating,
	}
}

// BuildTestimonial creates a Testimonial carrying the draft fields and the given identity.
func BuildTestimonial(identifier string, createdAt time.Time, draft TestimonialDraft) Testimonial {
	return Testimonial{
		ID:          identifier,
		ClientName:  draft.ClientName,
		ClientPhoto: draft.ClientPhoto,
		Testimonial: draft.Testimonial,
		Rating:      draft.Rating,
		CreatedAt:   createdAt,
	}
}
