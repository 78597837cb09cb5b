package services

import (
	"time"

	"pagefun/app/internal/models"

	"github.com/google/uuid"
)

// PagePatch carries a create or partial-update request. Pointer fields
// distinguish "not present, keep current value" from "present, overwrite".
// Items replace the whole list when present; items have no independent
// lifecycle outside a full-page update.
type PagePatch struct {
	Slug            string             `json:"slug"`
	WalletAddress   string             `json:"walletAddress,omitempty"`
	ConnectedToken  *string            `json:"connectedToken,omitempty"`
	TokenSymbol     *string            `json:"tokenSymbol,omitempty"`
	Title           *string            `json:"title,omitempty"`
	Description     *string            `json:"description,omitempty"`
	Image           *string            `json:"image,omitempty"`
	Items           *[]models.PageItem `json:"items,omitempty"`
	DesignStyle     *string            `json:"designStyle,omitempty"`
	Fonts           *map[string]string `json:"fonts,omitempty"`
	ExpectedVersion *int               `json:"expectedVersion,omitempty"`
	IsSetupWizard   bool               `json:"isSetupWizard,omitempty"`
}

// merge applies the patch onto the existing record, or builds a fresh one
// when existing is nil. Slug, owning wallet and creation time are never
// taken from a patch on an existing page.
func (p *PagePatch) merge(existing *models.Page, now time.Time) *models.Page {
	var page *models.Page
	if existing != nil {
		page = existing.Clone()
	} else {
		page = &models.Page{
			Slug:          p.Slug,
			WalletAddress: p.WalletAddress,
			CreatedAt:     now,
		}
	}

	if p.ConnectedToken != nil {
		page.ConnectedToken = *p.ConnectedToken
	}
	if p.TokenSymbol != nil {
		page.TokenSymbol = *p.TokenSymbol
	}
	if p.Title != nil {
		page.Title = *p.Title
	}
	if p.Description != nil {
		page.Description = *p.Description
	}
	if p.Image != nil {
		page.Image = *p.Image
	}
	if p.DesignStyle != nil {
		page.DesignStyle = *p.DesignStyle
	}
	if p.Fonts != nil {
		page.Fonts = *p.Fonts
	}
	if p.Items != nil {
		items := make([]models.PageItem, len(*p.Items))
		copy(items, *p.Items)
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.NewString()
			}
			if preset, ok := models.GetPreset(items[i].PresetID); ok {
				items[i].IsPlugin = preset.IsPlugin
			}
		}
		page.Items = items
	}

	page.Version++
	page.UpdatedAt = now
	return page
}
