/*
Package user contains the display profile of a chat participant.

A Profile is a name plus an avatar URL derived from that name. Profiles are rebuilt from scratch
every time the server sends a roster, so they carry no identity beyond the name.
*/
package user

import (
	"net/url"
	"strings"
)

// DefaultAvatarBase is the avatar service prefix used when none is configured.
const DefaultAvatarBase = "https://avatars.dicebear.com/api/adventurer-neutral"

// Profile is how a participant is displayed.
type Profile struct {
	// Name is the display name, exactly as the server sent it.
	Name string `json:"name"`

	// Avatar is the URL of the participant's avatar image.
	Avatar string `json:"avatar"`
}

// AvatarURL derives the avatar of name under base as {base}/{name}.svg.
// The name is path-escaped. Equal inputs always give the same URL.
func AvatarURL(base, name string) string {
	if base == "" {
		base = DefaultAvatarBase
	}
	return strings.TrimSuffix(base, "/") + "/" + url.PathEscape(name) + ".svg"
}

// NewProfile builds the profile of name with its derived avatar.
func NewProfile(base, name string) Profile {
	return Profile{Name: name, Avatar: AvatarURL(base, name)}
}
