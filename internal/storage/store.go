package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"artisan_storefront/internal/models"
)

// Emplacements persistés par session (équivalent localStorage du front)
const (
	SlotToken = "token"
	SlotUser  = "user"
	SlotCart  = "cart"
)

var ErrNotFound = errors.New("slot not found")

// Store est l'emplacement clé/valeur durable d'une session.
type Store interface {
	Get(ctx context.Context, slot string) ([]byte, error)
	Set(ctx context.Context, slot string, value []byte) error
	Delete(ctx context.Context, slot string) error
}

// Notifier prévient les abonnés quand le panier persisté d'une session change.
type Notifier interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan struct{}, func())
}

// Backend fournit un Store par session.
type Backend interface {
	Notifier
	ForSession(sessionID string) Store
}

func EncodeCart(items []models.CartLineItem) ([]byte, error) {
	if items == nil {
		items = []models.CartLineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

func DecodeCart(data []byte) ([]models.CartLineItem, error) {
	var items []models.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return items, nil
}

func EncodeUser(user models.User) ([]byte, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("marshal user failed: %w", err)
	}
	return data, nil
}

func DecodeUser(data []byte) (models.User, error) {
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return models.User{}, fmt.Errorf("unmarshal user failed: %w", err)
	}
	return user, nil
}
