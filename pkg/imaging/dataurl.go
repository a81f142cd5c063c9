package imaging

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// DataURI is a decoded "data:<mime>;base64,<payload>" string
type DataURI struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI decodes a base64 data URI. A bare base64 payload without the
// data: prefix is accepted too; its mime type is then sniffed from the bytes.
func ParseDataURI(s string) (*DataURI, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, goerr.New("image data is empty")
	}

	var mimeType string
	payload := s
	if strings.HasPrefix(s, "data:") {
		idx := strings.IndexByte(s, ',')
		if idx < 0 {
			return nil, goerr.New("malformed data URI", goerr.V("prefix", truncate(s, 32)))
		}
		meta := s[len("data:"):idx]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, goerr.New("data URI is not base64 encoded", goerr.V("meta", meta))
		}
		mimeType = strings.TrimSuffix(meta, ";base64")
		if semi := strings.IndexByte(mimeType, ';'); semi >= 0 {
			mimeType = mimeType[:semi]
		}
		payload = s[idx+1:]
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, err
	}

	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return &DataURI{MIMEType: mimeType, Data: data}, nil
}

// String encodes the data URI back to its textual form
func (d *DataURI) String() string {
	return "data:" + d.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}

// Extension returns a file extension for the mime type, without the dot
func (d *DataURI) Extension() string {
	switch d.MIMEType {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/bmp":
		return "bmp"
	case "image/tiff":
		return "tiff"
	default:
		return "bin"
	}
}

// FromBytes builds a data URI from raw image bytes, sniffing the mime type
func FromBytes(data []byte) *DataURI {
	return &DataURI{MIMEType: http.DetectContentType(data), Data: data}
}

func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode base64 image data")
	}
	return b, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
