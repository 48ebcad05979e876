// Package result builds the display items returned for a query.
//
// The item layout is the launcher-style schema consumed by existing front
// ends: a title, a subtitle, a primary copy value (arg), a valid flag, and
// alternate copy payloads under mods (cmd for text only, alt for text with
// its reference).
package result

// Item is one display-ready result.
type Item struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Arg      string `json:"arg,omitempty"`
	Valid    bool   `json:"valid"`
	Mods     *Mods  `json:"mods,omitempty"`

	// Block items also carry the pure reference, the full body and a footer
	// describing the verse span.
	PureRef    string `json:"pure_ref,omitempty"`
	FullBody   string `json:"full_body,omitempty"`
	FooterText string `json:"footer_text,omitempty"`

	Icon *Icon `json:"icon,omitempty"`
}

// Mods holds the alternate copy payloads of an item.
type Mods struct {
	Cmd *Mod `json:"cmd,omitempty"`
	Alt *Mod `json:"alt,omitempty"`
}

// Mod is one alternate copy payload.
type Mod struct {
	Valid    bool   `json:"valid"`
	Arg      string `json:"arg"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Icon points at an image bundled with the front end.
type Icon struct {
	Path string `json:"path"`
}

// Response is the wire envelope of a search.
type Response struct {
	Items []Item `json:"items"`
}

// Icons used by the front end.
var (
	IconAddress = &Icon{Path: "Images/app.png"}
	IconSearch  = &Icon{Path: "Images/search.png"}
)

// cmdMod and altMod build the valid alternate payloads.
func cmdMod(arg, subtitle string) *Mod {
	return &Mod{Valid: true, Arg: arg, Subtitle: subtitle}
}

func altMod(arg, subtitle string) *Mod {
	return &Mod{Valid: true, Arg: arg, Subtitle: subtitle}
}
