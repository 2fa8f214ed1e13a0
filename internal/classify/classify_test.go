package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeywords(t *testing.T) {
	c := New(nil, nil)

	cases := []struct {
		title string
		funny bool
		crime bool
	}{
		{"Florida man arrested for weird stunt", true, true},
		{"Man wins pie-eating contest", false, false},
		{"HILARIOUS prank goes wrong", true, false},
		{"Court hears fraud case against mayor", false, true},
		{"City council approves new budget", false, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.funny, c.IsFunny(tc.title), "IsFunny(%q)", tc.title)
		assert.Equal(t, tc.crime, c.IsCrime(tc.title), "IsCrime(%q)", tc.title)
	}
}

func TestCustomKeywordsAreCaseInsensitive(t *testing.T) {
	c := New([]string{"Goose"}, []string{"Heist"})
	assert.True(t, c.IsFunny("a goose chased the mail carrier"))
	assert.True(t, c.IsCrime("The great cheese HEIST of 2024"))
	assert.False(t, c.IsFunny("weird news"))
}

func TestMatch(t *testing.T) {
	c := New(nil, nil)
	assert.True(t, c.Match(None, "anything at all"))
	assert.True(t, c.Match(Funny, "a bizarre day"))
	assert.False(t, c.Match(Crime, "a bizarre day"))
	assert.Equal(t, "crime", Crime.String())
}
