package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item-specific validation errors
var (
	ErrItemIDEmpty      = errors.New("item ID cannot be empty")
	ErrItemOwnerIDEmpty = errors.New("item owner ID cannot be empty")
	ErrItemTitleEmpty   = errors.New("item title cannot be empty")
)

// Item is a piece of source material a learner studies. Flashcards and quiz
// questions belong to exactly one item, and the item carries ownership.
type Item struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewItem creates a new Item owned by ownerID.
func NewItem(ownerID uuid.UUID, title string, now time.Time) (*Item, error) {
	now = now.UTC()
	item := &Item{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(title),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks if the Item has valid data.
func (i *Item) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}
	if i.OwnerID == uuid.Nil {
		return ErrItemOwnerIDEmpty
	}
	if i.Title == "" {
		return ErrItemTitleEmpty
	}
	return nil
}
