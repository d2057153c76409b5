package meetlink

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var linkShape = regexp.MustCompile(`^[a-z]{3}-[a-z]{3}-[a-z]{3}$`)

func TestLinkShape(t *testing.T) {
	g := New("")

	for i := 0; i < 100; i++ {
		link := g.Link()
		require.Regexp(t, `^https://meet\.google\.com/[a-z]{3}-[a-z]{3}-[a-z]{3}$`, link)
	}
}

func TestLinkCustomBase(t *testing.T) {
	g := New("https://video.example.com/")

	link := g.Link()
	require.Regexp(t, `^https://video\.example\.com/`, link)
	require.Regexp(t, linkShape, link[len("https://video.example.com/"):])
}

func TestSeededDeterministic(t *testing.T) {
	a := NewSeeded("", 42)
	b := NewSeeded("", 42)

	for i := 0; i < 10; i++ {
		require.Equal(t, a.Link(), b.Link())
	}
}
