package model

import "strings"

// defaultProfilePic is the placeholder filename. It is never served as a
// live URL: candidates that would resolve to it get an empty ProfilePic so
// the UI can render its own fallback.
const defaultProfilePic = "default.jpg"

// ProfilePicFilename derives the storage filename for a candidate's profile
// picture from their LinkedIn URL. The path segment after "/in/" is
// lowercased, stripped of '/', '?' and '&', prefixed with "in-", and
// suffixed with ".jpg":
//
//	https://www.linkedin.com/in/jane-doe/ -> in-jane-doe.jpg
//
// URLs without an /in/ segment fall back to the placeholder.
func ProfilePicFilename(linkedinURL string) string {
	idx := strings.Index(strings.ToLower(linkedinURL), "/in/")
	if idx < 0 {
		return defaultProfilePic
	}

	segment := strings.ToLower(linkedinURL[idx+len("/in/"):])
	for _, ch := range []string{"/", "?", "&"} {
		segment = strings.ReplaceAll(segment, ch, "")
	}
	if segment == "" {
		return defaultProfilePic
	}
	return "in-" + segment + ".jpg"
}

// DeriveProfilePic resolves the profile-picture filename against the public
// bucket base URL. Returns "" for URLs that derive to the placeholder.
// Derivation is a pure function of the LinkedIn URL and is re-applied on
// every read, so bucket renames never require a data migration.
func DeriveProfilePic(linkedinURL, bucketBase string) string {
	name := ProfilePicFilename(linkedinURL)
	if name == defaultProfilePic {
		return ""
	}
	return strings.TrimSuffix(bucketBase, "/") + "/" + name
}
