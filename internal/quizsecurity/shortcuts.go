package quizsecurity

import "strings"

// KeyCombo is a keydown as reported by the page.
type KeyCombo struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
}

// String renders the combo as "Ctrl+Shift+I".
func (k KeyCombo) String() string {
	var parts []string
	if k.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if k.Meta {
		parts = append(parts, "Meta")
	}
	if k.Alt {
		parts = append(parts, "Alt")
	}
	if k.Shift {
		parts = append(parts, "Shift")
	}
	return strings.Join(append(parts, normalizeKey(k.Key)), "+")
}

// shortcut is one deny-list entry. Primary means Ctrl on most platforms and
// Cmd (Meta) on macOS; either satisfies it.
type shortcut struct {
	key     string
	primary bool
	// shift and alt are alternative second modifiers; at least one is required
	// when either is set.
	shift bool
	alt   bool
	// anyMods matches the key regardless of modifiers (function keys).
	anyMods bool
	purpose string
}

var denyList = []shortcut{
	{key: "F12", anyMods: true, purpose: "devtools"},
	{key: "I", primary: true, shift: true, alt: true, purpose: "devtools"},
	{key: "J", primary: true, shift: true, alt: true, purpose: "devtools console"},
	{key: "C", primary: true, shift: true, alt: true, purpose: "devtools inspector"},
	{key: "U", primary: true, purpose: "view source"},
	{key: "S", primary: true, purpose: "save page"},
	{key: "P", primary: true, purpose: "print"},
	{key: "R", primary: true, purpose: "refresh"},
	{key: "F5", anyMods: true, purpose: "refresh"},
	{key: "F11", anyMods: true, purpose: "fullscreen toggle"},
}

func (s shortcut) matches(k KeyCombo) bool {
	if normalizeKey(k.Key) != s.key {
		return false
	}
	if s.anyMods {
		return true
	}
	if s.primary && !k.Ctrl && !k.Meta {
		return false
	}
	if s.shift || s.alt {
		return s.shift && k.Shift || s.alt && k.Alt
	}
	return true
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) == 1 {
		return strings.ToUpper(key)
	}
	return key
}

// IsBlockedShortcut reports whether k is on the deny-list.
func IsBlockedShortcut(k KeyCombo) bool {
	for _, s := range denyList {
		if s.matches(k) {
			return true
		}
	}
	return false
}

// BlockedShortcut describes a deny-list entry for clients that have to cancel the
// default action locally before the report reaches the monitor.
type BlockedShortcut struct {
	Key            string `json:"key"`
	Primary        bool   `json:"primary"`
	Shift          bool   `json:"shift"`
	Alt            bool   `json:"alt"`
	AnyModifiers   bool   `json:"any_modifiers"`
	BlockedFeature string `json:"blocked_feature"`
}

// BlockedShortcuts returns the deny-list.
func BlockedShortcuts() []BlockedShortcut {
	out := make([]BlockedShortcut, 0, len(denyList))
	for _, s := range denyList {
		out = append(out, BlockedShortcut{
			Key:            s.key,
			Primary:        s.primary,
			Shift:          s.shift,
			Alt:            s.alt,
			AnyModifiers:   s.anyMods,
			BlockedFeature: s.purpose,
		})
	}
	return out
}
