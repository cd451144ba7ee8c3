package extract

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/zenement/reviews-cli/internal/review"
)

// ParseMHTML extracts review records from a saved .mhtml page capture. The
// capture is a MIME message; the first text/html part is decoded and
// handed to Parse.
func ParseMHTML(raw []byte) ([]review.Review, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, eris.Wrap(err, "extract: read mhtml message")
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		return nil, eris.Wrap(err, "extract: mhtml content type")
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		if mediaType != "text/html" {
			return nil, ErrNoContent
		}
		html, err := decodePart(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			return nil, err
		}
		return Parse(html)
	}

	mr := multipart.NewReader(msg.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "extract: read mhtml part")
		}

		ct, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil || ct != "text/html" {
			continue
		}
		html, err := decodePart(part, part.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			return nil, err
		}
		return Parse(html)
	}

	return nil, ErrNoContent
}

func decodePart(r io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", eris.Wrap(err, "extract: decode mhtml part")
	}
	return string(data), nil
}
