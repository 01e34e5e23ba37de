package loan

import (
	"context"
	"time"
)

type Entity struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	ShortDescription  string    `json:"shortDescription"`
	Description       string    `json:"description"`
	Category          string    `json:"category"`
	InterestRate      float64   `json:"interestRate"`
	MaxLimit          float64   `json:"maxLimit"`
	Image             string    `json:"image"`
	EMIPlans          []string  `json:"emiPlans"`
	RequiredDocuments []string  `json:"requiredDocuments"`
	ShowOnHome        bool      `json:"showOnHome"`
	CreatedBy         string    `json:"createdBy"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Patch is a partial update; nil fields are not written.
type Patch struct {
	Title             *string
	ShortDescription  *string
	Description       *string
	Category          *string
	InterestRate      *float64
	MaxLimit          *float64
	Image             *string
	EMIPlans          *[]string
	RequiredDocuments *[]string
	ShowOnHome        *bool
}

func (p Patch) Empty() bool {
	return p == Patch{}
}

type ListFilter struct {
	Category   string
	CreatedBy  string
	ShowOnHome *bool
}

type Repository interface {
	Create(ctx context.Context, in Entity) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context, f ListFilter) ([]Entity, error)
	Update(ctx context.Context, id string, p Patch, updatedAt time.Time) (*Entity, error)
	Delete(ctx context.Context, id string) error
}
