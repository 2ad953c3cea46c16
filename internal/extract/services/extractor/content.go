package extractor

import (
	"bufio"
	"bytes"
	"mime"
	"net/textproto"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/haukened/burp2fs/internal/extract/domain"
)

// contentTypeFilter rejects items whose content type matches a configured entry.
//
// Three candidate types are checked, in order: the archive-declared MIME
// category (Burp writes values such as "HTML", "script", "JSON"), the
// Content-Type header of the recorded response, and the type sniffed from the
// response payload. An entry matches a candidate when it is equal to it or a
// prefix of it, so "image/" rejects every image type. Comparison is
// case-insensitive.
type contentTypeFilter struct {
	types []string
}

// NewContentFilter returns a ContentFilter for the given entries, or nil when
// there are none.
func NewContentFilter(types []string) ContentFilter {
	norm := make([]string, 0, len(types))
	for _, t := range types {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			norm = append(norm, t)
		}
	}
	if len(norm) == 0 {
		return nil
	}
	return &contentTypeFilter{types: norm}
}

func (f *contentTypeFilter) Unwanted(item domain.CapturedItem) (string, bool) {
	for _, candidate := range contentTypes(item) {
		for _, t := range f.types {
			if strings.HasPrefix(candidate, t) {
				return candidate, true
			}
		}
	}
	return "", false
}

// contentTypes lists the lowercased content types known for item.
func contentTypes(item domain.CapturedItem) []string {
	var out []string
	if item.MIMEType != "" {
		out = append(out, strings.ToLower(item.MIMEType))
	}
	header, payload := splitResponse(item.Body)
	if ct := header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			out = append(out, strings.ToLower(mt))
		}
	}
	if len(payload) > 0 {
		sniffed := mimetype.Detect(payload).String()
		if mt, _, err := mime.ParseMediaType(sniffed); err == nil {
			out = append(out, mt)
		}
	}
	return out
}

// splitResponse separates a raw HTTP response into its header and payload.
// A body that does not start with a status line is returned as payload.
func splitResponse(raw []byte) (textproto.MIMEHeader, []byte) {
	if !bytes.HasPrefix(raw, []byte("HTTP/")) {
		return nil, raw
	}
	sep, width := bytes.Index(raw, []byte("\r\n\r\n")), 4
	if sep < 0 {
		sep, width = bytes.Index(raw, []byte("\n\n")), 2
	}
	if sep < 0 {
		return nil, nil
	}
	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(raw[:sep+width])))
	if _, err := tp.ReadLine(); err != nil { // status line
		return nil, raw[sep+width:]
	}
	header, err := tp.ReadMIMEHeader()
	if err != nil && len(header) == 0 {
		return nil, raw[sep+width:]
	}
	return header, raw[sep+width:]
}
