package models

// Preset describes one link kind a page item can use.
type Preset struct {
	ID          string
	IsPlugin    bool
	RequiresURL bool
}

// Social presets require a destination URL; plugin presets (terminal,
// filesystem, private-chat) render in-page and carry no URL of their own,
// unless the owner gates one behind a token check.
var presets = map[string]Preset{
	"twitter":   {ID: "twitter", RequiresURL: true},
	"instagram": {ID: "instagram", RequiresURL: true},
	"tiktok":    {ID: "tiktok", RequiresURL: true},
	"telegram":  {ID: "telegram", RequiresURL: true},
	"discord":   {ID: "discord", RequiresURL: true},
	"github":    {ID: "github", RequiresURL: true},
	"youtube":   {ID: "youtube", RequiresURL: true},
	"email":     {ID: "email", RequiresURL: true},
	"website":   {ID: "website", RequiresURL: true},

	"terminal":     {ID: "terminal", IsPlugin: true},
	"filesystem":   {ID: "filesystem", IsPlugin: true},
	"private-chat": {ID: "private-chat", IsPlugin: true},
}

// GetPreset looks up a preset by id.
func GetPreset(id string) (Preset, bool) {
	p, ok := presets[id]
	return p, ok
}
