package models

import "time"

// Page is one published link-in-bio page, keyed by slug. The owning wallet
// is recorded at creation and never changes afterwards.
type Page struct {
	Slug           string            `json:"slug" gorm:"primaryKey;size:50"`
	WalletAddress  string            `json:"walletAddress" gorm:"index;not null"`
	ConnectedToken string            `json:"connectedToken,omitempty" gorm:"-"`
	TokenSymbol    string            `json:"tokenSymbol,omitempty" gorm:"-"`
	Title          string            `json:"title,omitempty" gorm:"-"`
	Description    string            `json:"description,omitempty" gorm:"-"`
	Image          string            `json:"image,omitempty" gorm:"-"`
	Items          []PageItem        `json:"items,omitempty" gorm:"-"`
	DesignStyle    string            `json:"designStyle,omitempty" gorm:"-"`
	Fonts          map[string]string `json:"fonts,omitempty" gorm:"-"`
	Version        int               `json:"version" gorm:"-"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// PageItem is one link or plugin entry on a page.
type PageItem struct {
	ID             string   `json:"id"`
	PresetID       string   `json:"presetId"`
	Title          string   `json:"title,omitempty"`
	URL            string   `json:"url,omitempty"`
	Order          int      `json:"order"`
	IsPlugin       bool     `json:"isPlugin,omitempty"`
	TokenGated     bool     `json:"tokenGated,omitempty"`
	RequiredAmount uint64   `json:"requiredAmount,omitempty"`
	RequiredTokens []uint64 `json:"requiredTokens,omitempty"`
}

// EffectiveRequiredAmount resolves the gating threshold, preferring the
// newer requiredAmount field over the legacy requiredTokens array.
func (i *PageItem) EffectiveRequiredAmount() uint64 {
	if i.RequiredAmount > 0 {
		return i.RequiredAmount
	}
	if len(i.RequiredTokens) > 0 {
		return i.RequiredTokens[0]
	}
	return 0
}

// PageSummary is the "list my pages" projection.
type PageSummary struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title,omitempty"`
	Image     string    `json:"image,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsComplete reports the derived setup-wizard state. A page is a draft
// until it has a title and at least one item. Drives UI prompts only.
func (p *Page) IsComplete() bool {
	return p.Title != "" && len(p.Items) > 0
}

// Clone returns a deep copy, so sanitization never mutates a stored record.
func (p *Page) Clone() *Page {
	cp := *p
	if p.Items != nil {
		cp.Items = make([]PageItem, len(p.Items))
		for i, item := range p.Items {
			cp.Items[i] = item
			if item.RequiredTokens != nil {
				cp.Items[i].RequiredTokens = append([]uint64(nil), item.RequiredTokens...)
			}
		}
	}
	if p.Fonts != nil {
		cp.Fonts = make(map[string]string, len(p.Fonts))
		for k, v := range p.Fonts {
			cp.Fonts[k] = v
		}
	}
	return &cp
}

// Summary projects the page for list responses.
func (p *Page) Summary() PageSummary {
	return PageSummary{
		Slug:      p.Slug,
		Title:     p.Title,
		Image:     p.Image,
		UpdatedAt: p.UpdatedAt,
	}
}
