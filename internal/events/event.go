// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/catalogsync/internal/catalog"
)

// SchemaVersion is the current EntryImported schema version.
const SchemaVersion = 1

// DefaultTopic is the topic imported-entry events are published on.
const DefaultTopic = "catalog.entry.imported"

// EntryImported announces a newly committed catalog entry.
type EntryImported struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`

	EntryID     int64    `json:"entry_id"`
	ExternalID  *int64   `json:"external_id,omitempty"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Platform    string   `json:"platform"`
	Region      string   `json:"region"`
	ProductType string   `json:"product_type"`
	Price       string   `json:"price"`
	Discount    int      `json:"discount"`
	Genres      []string `json:"genres,omitempty"`
}

// NewEntryImported builds the event for entry.
func NewEntryImported(entry *catalog.Entry, correlationID string) *EntryImported {
	genres := make([]string, 0, len(entry.Genres))
	for _, g := range entry.Genres {
		genres = append(genres, g.Slug)
	}
	return &EntryImported{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
		EntryID:       entry.ID,
		ExternalID:    entry.ExternalID,
		Slug:          entry.Slug,
		Title:         entry.Title,
		Platform:      string(entry.Platform),
		Region:        string(entry.Region),
		ProductType:   string(entry.ProductType),
		Price:         entry.Price.StringFixed(2),
		Discount:      entry.Discount,
		Genres:        genres,
	}
}

// Validate checks the fields consumers rely on.
func (e *EntryImported) Validate() error {
	switch {
	case e.EventID == "":
		return errors.New("event_id is required")
	case e.EntryID <= 0:
		return fmt.Errorf("entry_id must be positive, got %d", e.EntryID)
	case e.Slug == "":
		return errors.New("slug is required")
	}
	return nil
}

// Marshal validates and encodes the event.
func (e *EntryImported) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// UnmarshalEntryImported decodes an event payload.
func UnmarshalEntryImported(data []byte) (*EntryImported, error) {
	var e EntryImported
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &e, nil
}
