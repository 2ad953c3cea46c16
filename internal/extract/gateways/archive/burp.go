// Package archive reads Burp Suite "Save items" XML exports as a stream of
// captured items.
package archive

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/haukened/burp2fs/internal/extract/common/log"
	"github.com/haukened/burp2fs/internal/extract/domain"
)

// itemXPath selects every <item> element regardless of nesting depth.
const itemXPath = "//item"

// Reader yields items from a Burp XML export one at a time. Items are decoded
// as they are read so that large exports never have to fit in memory.
type Reader struct {
	parser *xmlquery.StreamParser
	closer io.Closer
	logger log.Logger
	index  int
}

// Open opens the export at path. The caller must Close the Reader.
func Open(path string, logger log.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArchive, err)
	}
	r, err := NewReader(f, logger)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader wraps an already opened export.
func NewReader(src io.Reader, logger log.Logger) (*Reader, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	p, err := xmlquery.CreateStreamParser(src, itemXPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArchive, err)
	}
	return &Reader{parser: p, logger: logger}, nil
}

// Next returns the next item carrying a <url> element. Items without one are
// skipped. It returns io.EOF after the last item and an error wrapping
// domain.ErrArchive when the XML is malformed.
func (r *Reader) Next() (domain.CapturedItem, error) {
	for {
		node, err := r.parser.Read()
		if errors.Is(err, io.EOF) {
			return domain.CapturedItem{}, io.EOF
		}
		if err != nil {
			return domain.CapturedItem{}, fmt.Errorf("%w: item %d: %v", domain.ErrArchive, r.index+1, err)
		}
		r.index++

		urlNode := node.SelectElement("url")
		if urlNode == nil {
			r.logger.Debug(map[string]any{"index": r.index}, "skip_item_without_url")
			continue
		}
		return r.toItem(node, urlNode.InnerText()), nil
	}
}

// Close closes the underlying file when the Reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *Reader) toItem(node *xmlquery.Node, rawURL string) domain.CapturedItem {
	item := domain.CapturedItem{
		Index:    r.index,
		URL:      rawURL,
		MIMEType: childText(node, "mimetype"),
		Status:   childText(node, "status"),
	}
	resp := node.SelectElement("response")
	if resp == nil {
		return item
	}
	item.HasBody = true
	item.Body, item.DecodeErr = decodeBody(resp)
	return item
}

// decodeBody returns the response bytes. Burp marks encoded payloads with
// base64="true"; a missing attribute is treated as encoded as well since that
// is what the export writes by default.
func decodeBody(resp *xmlquery.Node) ([]byte, error) {
	text := resp.InnerText()
	if strings.EqualFold(resp.SelectAttr("base64"), "false") {
		return []byte(text), nil
	}
	body, err := decodeLenient(text)
	if err != nil {
		return nil, fmt.Errorf("decode base64 response: %w", err)
	}
	return body, nil
}

var errBase64Padding = errors.New("incorrect padding")

// decodeLenient decodes standard base64 while skipping characters outside the
// alphabet, such as line wrapping or stray markup. Decoding stops once a quad
// is completed by padding. A trailing partial quad is an error.
func decodeLenient(text string) ([]byte, error) {
	out := make([]byte, 0, base64.StdEncoding.DecodedLen(len(text)))
	var (
		quad, pads int
		left       byte
		count      int
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= 0x80 {
			return nil, fmt.Errorf("non-ASCII byte at offset %d", i)
		}
		if c == '=' {
			if quad >= 2 {
				pads++
				if quad+pads >= 4 {
					return out, nil
				}
			}
			continue
		}
		v, ok := base64Value(c)
		if !ok {
			continue
		}
		count++
		pads = 0
		switch quad {
		case 0:
			left = v
		case 1:
			out = append(out, left<<2|v>>4)
			left = v & 0x0f
		case 2:
			out = append(out, left<<4|v>>2)
			left = v & 0x03
		case 3:
			out = append(out, left<<6|v)
		}
		quad = (quad + 1) % 4
	}
	switch quad {
	case 0:
		return out, nil
	case 1:
		return nil, fmt.Errorf("%d data characters cannot be 1 more than a multiple of 4", count)
	default:
		return nil, errBase64Padding
	}
}

func base64Value(c byte) (byte, bool) {
	switch {
	case 'A' <= c && c <= 'Z':
		return c - 'A', true
	case 'a' <= c && c <= 'z':
		return c - 'a' + 26, true
	case '0' <= c && c <= '9':
		return c - '0' + 52, true
	case c == '+':
		return 62, true
	case c == '/':
		return 63, true
	}
	return 0, false
}

func childText(node *xmlquery.Node, name string) string {
	if n := node.SelectElement(name); n != nil {
		return strings.TrimSpace(n.InnerText())
	}
	return ""
}
