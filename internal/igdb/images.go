// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package igdb

import (
	"fmt"
	"strings"
)

// Default image sizes.
const (
	DefaultCoverSize      = "cover_big"
	DefaultScreenshotSize = "screenshot_big"
)

// ImageURLBuilder renders {base}/t_{size}/{imageID}.jpg URLs.
type ImageURLBuilder struct {
	base           string
	coverSize      string
	screenshotSize string
}

// NewImageURLBuilder creates a builder. Empty sizes fall back to the defaults.
func NewImageURLBuilder(base, coverSize, screenshotSize string) *ImageURLBuilder {
	if coverSize == "" {
		coverSize = DefaultCoverSize
	}
	if screenshotSize == "" {
		screenshotSize = DefaultScreenshotSize
	}
	return &ImageURLBuilder{
		base:           strings.TrimRight(base, "/"),
		coverSize:      coverSize,
		screenshotSize: screenshotSize,
	}
}

// URL renders the URL for imageID at size, or "" for an empty id.
func (b *ImageURLBuilder) URL(imageID, size string) string {
	if imageID == "" {
		return ""
	}
	return fmt.Sprintf("%s/t_%s/%s.jpg", b.base, size, imageID)
}

// Cover renders a cover URL at the configured cover size.
func (b *ImageURLBuilder) Cover(imageID string) string {
	return b.URL(imageID, b.coverSize)
}

// Screenshot renders a screenshot URL at the configured screenshot size.
func (b *ImageURLBuilder) Screenshot(imageID string) string {
	return b.URL(imageID, b.screenshotSize)
}
