package services

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"pagefun/app/internal/models"
)

const (
	maxSlugLen        = 50
	maxTitleLen       = 100
	maxDescriptionLen = 500
	maxTokenLen       = 100
	maxWalletLen      = 100
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,50}$`)

// validatePage checks the merged record against the schema and returns a
// field-detailed ValidationError on violation. It runs on the merge result
// so patch and create requests share one set of rules.
func validatePage(page *models.Page) error {
	verr := newValidationError()

	if !slugPattern.MatchString(page.Slug) {
		verr.add("slug", fmt.Sprintf("must be 1-%d characters: letters, digits, hyphen", maxSlugLen))
	}
	if page.WalletAddress == "" {
		verr.add("walletAddress", "is required")
	} else if len(page.WalletAddress) > maxWalletLen {
		verr.add("walletAddress", fmt.Sprintf("must be at most %d characters", maxWalletLen))
	}
	if len(page.Title) > maxTitleLen {
		verr.add("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
	}
	if len(page.Description) > maxDescriptionLen {
		verr.add("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLen))
	}
	if len(page.ConnectedToken) > maxTokenLen {
		verr.add("connectedToken", fmt.Sprintf("must be at most %d characters", maxTokenLen))
	}
	if page.Image != "" && !isAbsoluteURL(page.Image) {
		verr.add("image", "must be an absolute URL")
	}

	seenIDs := map[string]bool{}
	for i, item := range page.Items {
		field := fmt.Sprintf("items[%d]", i)
		if item.ID != "" {
			if seenIDs[item.ID] {
				verr.add(field+".id", "duplicate item id")
			}
			seenIDs[item.ID] = true
		}

		preset, ok := models.GetPreset(item.PresetID)
		if !ok {
			verr.add(field+".presetId", fmt.Sprintf("unknown preset %q", item.PresetID))
			continue
		}

		if preset.RequiresURL && item.URL == "" {
			verr.add(field+".url", "is required for this link type")
		}
		if item.URL != "" {
			if reason := validateItemURL(preset.ID, item.URL); reason != "" {
				verr.add(field+".url", reason)
			}
		}
		if item.TokenGated && page.ConnectedToken == "" {
			verr.add(field+".tokenGated", "page has no connected token")
		}
		if len(item.Title) > maxTitleLen {
			verr.add(field+".title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
		}
	}

	return verr.orNil()
}

// validateItemURL applies the per-preset URL rule. Email items accept a
// bare address or a mailto: URI; everything else needs a well-formed
// absolute URL.
func validateItemURL(presetID, rawURL string) string {
	if presetID == "email" {
		addr := rawURL
		if strings.HasPrefix(strings.ToLower(rawURL), "mailto:") {
			addr = rawURL[len("mailto:"):]
		}
		if _, err := mail.ParseAddress(addr); err != nil {
			return "must be an email address or mailto: URI"
		}
		return ""
	}
	if !isAbsoluteURL(rawURL) {
		return "must be an absolute URL"
	}
	return ""
}

func isAbsoluteURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
