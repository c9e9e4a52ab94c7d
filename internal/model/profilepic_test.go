package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfilePicFilename(t *testing.T) {
	cases := map[string]string{
		"https://www.linkedin.com/in/jane-doe":      "in-jane-doe.jpg",
		"https://www.linkedin.com/in/Jane-Doe/":     "in-jane-doe.jpg",
		"https://linkedin.com/IN/jane?trk=profile":  "in-janetrk=profile.jpg",
		"https://www.linkedin.com/in/":              "default.jpg",
		"https://example.com/profile/jane":          "default.jpg",
		"": "default.jpg",
	}
	for in, want := range cases {
		assert.Equal(t, want, ProfilePicFilename(in), "input %q", in)
	}
}

func TestDeriveProfilePic(t *testing.T) {
	base := "https://abcdefgh.supabase.co/storage/v1/object/public/profile-pics"

	assert.Equal(t, base+"/in-jane-doe.jpg",
		DeriveProfilePic("https://www.linkedin.com/in/Jane-Doe/", base))
	assert.Equal(t, base+"/in-jane-doe.jpg",
		DeriveProfilePic("https://www.linkedin.com/in/jane-doe", base+"/"))

	// Placeholder derivations stay empty so the UI renders its own fallback.
	assert.Empty(t, DeriveProfilePic("https://example.com/jane", base))
	assert.Empty(t, DeriveProfilePic("", base))
}
