package domain

import (
	"strings"
	"time"
)

// Product is a catalog entry.
type Product struct {
	ID          string    `json:"id,omitempty"`
	Code        string    `json:"code" validate:"required,max=64"`
	Name        string    `json:"name" validate:"required,max=128"`
	Category    string    `json:"category,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Spec        string    `json:"spec,omitempty"`
	Price       float64   `json:"price" validate:"gte=0"`
	SafetyStock int       `json:"safetyStock" validate:"gte=0"`
	Remark      string    `json:"remark,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Normalize trims user-entered text fields in place.
func (p *Product) Normalize() {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Unit = strings.TrimSpace(p.Unit)
	p.Spec = strings.TrimSpace(p.Spec)
	p.Remark = strings.TrimSpace(p.Remark)
}

// Label is how a product is referred to in messages.
func (p *Product) Label() string {
	if p.Name == "" {
		return p.Code
	}
	return p.Code + " " + p.Name
}
