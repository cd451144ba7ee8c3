package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderMHTML(html string) []byte {
	var sb strings.Builder
	sb.WriteString("From: <Saved by Browser>\r\n")
	sb.WriteString("Subject: Brand Customer Reviews\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: multipart/related; boundary=\"----MultipartBoundary--abc123\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString("------MultipartBoundary--abc123\r\n")
	sb.WriteString("Content-Type: text/css\r\n\r\n")
	sb.WriteString("body { margin: 0; }\r\n")
	sb.WriteString("------MultipartBoundary--abc123\r\n")
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	sb.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	sb.WriteString(strings.ReplaceAll(html, "=", "=3D"))
	sb.WriteString("\r\n------MultipartBoundary--abc123--\r\n")
	return []byte(sb.String())
}

func TestParseMHTML(t *testing.T) {
	page := renderPage("Spain", renderBlock(defaultBlock()))
	reviews, err := ParseMHTML(renderMHTML(page))
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Jane Doe", *reviews[0].Author)
	assert.Equal(t, "ES", *reviews[0].Country)
}

func TestParseMHTML_NoHTMLPart(t *testing.T) {
	raw := []byte("MIME-Version: 1.0\r\nContent-Type: multipart/related; boundary=\"b\"\r\n\r\n--b\r\nContent-Type: text/css\r\n\r\nbody{}\r\n--b--\r\n")
	_, err := ParseMHTML(raw)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestParseMHTML_SingleHTMLPart(t *testing.T) {
	page := renderPage("Spain", renderBlock(defaultBlock()))
	raw := []byte("MIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n" + page)
	reviews, err := ParseMHTML(raw)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
}

func TestParseMHTML_NotAMessage(t *testing.T) {
	_, err := ParseMHTML([]byte("<html><body>plain html, no headers</body></html>"))
	require.Error(t, err)
}
