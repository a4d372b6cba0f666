package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePlainTextStripsNoise(t *testing.T) {
	html := `<html><head><title>T</title><style>.x{color:red}</style></head>
<body>
  <nav>Home | About</nav>
  <script>trackPageView();</script>
  <main><p>Advertising   of alcohol
	is restricted.</p></main>
  <footer>© 2026</footer>
</body></html>`

	text, err := NormalizePlainText(html)
	require.NoError(t, err)

	assert.Equal(t, "T Advertising of alcohol is restricted.", text)
	assert.NotContains(t, text, "trackPageView")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "Home | About")
}

func TestNormalizePlainTextStableAcrossRendering(t *testing.T) {
	a := `<body><p>Same  content</p></body>`
	b := "<body>\n\t<p>Same\ncontent</p>\n</body>"

	ta, err := NormalizePlainText(a)
	require.NoError(t, err)
	tb, err := NormalizePlainText(b)
	require.NoError(t, err)

	assert.Equal(t, ta, tb)
	assert.Equal(t, HashContent(ta), HashContent(tb))
}

func TestHashContent(t *testing.T) {
	h := HashContent("policy text")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashContent("policy text"))
	assert.NotEqual(t, h, HashContent("policy text changed"))
}
