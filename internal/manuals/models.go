// Package manuals generates and stores brand manuals, the ground truth every
// creative asset and audit is checked against.
package manuals

import (
	"time"

	id "brandgov/pkg/domain"
)

// Manual is a generated brand manual. ManualMarkdown is the canonical text;
// its "##" section headings double as the chunking separator when the manual
// is indexed for retrieval.
type Manual struct {
	ID             id.ManualID
	ProductName    string
	Tone           string
	Audience       string
	RawInput       string
	ManualMarkdown string
	CreatedBy      id.UserID
	CreatedAt      time.Time
}

// CreateRequest carries the product inputs the manual is generated from.
type CreateRequest struct {
	ProductName  string `json:"product_name"`
	Tone         string `json:"tone"`
	Audience     string `json:"audience"`
	ExtraContext string `json:"extra_context,omitempty"`
}
