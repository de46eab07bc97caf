package payload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// WriteMultipart writes p as multipart/form-data to w and returns the
// content type, including the boundary.  A fixed boundary makes the
// output byte-for-byte reproducible.
func (p Payload) WriteMultipart(w io.Writer, boundary string) (string, error) {
	mw := multipart.NewWriter(w)
	if boundary != "" {
		if err := mw.SetBoundary(boundary); err != nil {
			return "", fmt.Errorf("payload: boundary: %w", err)
		}
	}
	for _, part := range p.Parts {
		if part.File == nil {
			if err := mw.WriteField(part.Key, part.Value); err != nil {
				return "", fmt.Errorf("payload: field %s: %w", part.Key, err)
			}
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(part.Key), quoteEscaper.Replace(part.File.Name)))
		ct := part.File.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		fw, err := mw.CreatePart(h)
		if err != nil {
			return "", fmt.Errorf("payload: file %s: %w", part.Key, err)
		}
		if _, err := fw.Write(part.File.Data); err != nil {
			return "", fmt.Errorf("payload: file %s: %w", part.Key, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("payload: close: %w", err)
	}
	return mw.FormDataContentType(), nil
}

// Bytes renders p as multipart/form-data in memory.
func (p Payload) Bytes(boundary string) ([]byte, string, error) {
	var buf bytes.Buffer
	ct, err := p.WriteMultipart(&buf, boundary)
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), ct, nil
}
