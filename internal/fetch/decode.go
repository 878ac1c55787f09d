package fetch

import (
	"mime"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// encodingFor returns the encoding named by the charset parameter of a
// Content-Type value, or UTF-8 when absent or unknown.
func encodingFor(contentType string) encoding.Encoding {
	if contentType == "" {
		return unicode.UTF8
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return unicode.UTF8
	}
	name := strings.TrimSpace(params["charset"])
	if name == "" {
		return unicode.UTF8
	}
	if enc, _ := charset.Lookup(name); enc != nil {
		return enc
	}
	return unicode.UTF8
}

// DecodeBody decodes raw bytes to text. Undecodable sequences become U+FFFD;
// decoding never fails.
func DecodeBody(body []byte, contentType string) string {
	out, _, err := transform.Bytes(encodingFor(contentType).NewDecoder(), body)
	if err != nil {
		return strings.ToValidUTF8(string(body), "�")
	}
	return strings.ToValidUTF8(string(out), "�")
}
