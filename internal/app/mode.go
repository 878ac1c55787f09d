package app

import (
	"fmt"

	"github.com/keponer/cardmarket-card-finder/internal/fetch"
	"github.com/keponer/cardmarket-card-finder/utils"
)

// InvalidArgumentsError is a bad flag combination or malformed flag value.
// It is always reported before any request is sent.
type InvalidArgumentsError struct {
	Msg string
}

func (e *InvalidArgumentsError) Error() string { return e.Msg }

func invalidf(format string, args ...any) error {
	return &InvalidArgumentsError{Msg: fmt.Sprintf(format, args...)}
}

type Mode int

const (
	ModeInteractive Mode = iota
	ModeGet
	ModePost
)

func (m Mode) String() string {
	switch m {
	case ModeGet:
		return "get"
	case ModePost:
		return "post"
	default:
		return "interactive"
	}
}

// Flags are the raw command-line values.
type Flags struct {
	URL     string
	Cookie  string
	Headers []string
	PostURL string
	Forms   []string
	Files   []string
	Raw     bool
}

// SelectMode picks the mode: any of --post-url/--form/--file means a
// multipart POST, --url with --cookie a single GET, neither an interactive
// session. Exactly one of --url and --cookie is invalid.
func SelectMode(f Flags) (Mode, error) {
	if f.PostURL != "" || len(f.Forms) > 0 || len(f.Files) > 0 {
		if f.PostURL == "" {
			return 0, invalidf("--post-url is required when using --form/--file")
		}
		return ModePost, nil
	}
	if f.URL != "" || f.Cookie != "" {
		if f.URL == "" || f.Cookie == "" {
			return 0, invalidf("both --url and --cookie must be provided")
		}
		return ModeGet, nil
	}
	return ModeInteractive, nil
}

// Request is a parsed set of flags ready to run.
type Request struct {
	Mode    Mode
	URL     string
	Cookie  string
	Headers map[string]string
	Fields  map[string]string
	Files   []fetch.FormFile
	Raw     bool
}

// ParseFlags validates f and converts it into a Request.
func ParseFlags(f Flags) (Request, error) {
	mode, err := SelectMode(f)
	if err != nil {
		return Request{}, err
	}
	headers, err := utils.ParseHeaders(f.Headers)
	if err != nil {
		return Request{}, invalidf("invalid --header: %v", err)
	}
	req := Request{Mode: mode, Cookie: f.Cookie, Headers: headers, Raw: f.Raw}

	switch mode {
	case ModeGet:
		req.URL = f.URL
	case ModePost:
		req.URL = f.PostURL
		forms, err := utils.ParseKeyValues(f.Forms)
		if err != nil {
			return Request{}, invalidf("invalid --form: %v", err)
		}
		req.Fields = make(map[string]string, len(forms))
		for _, kv := range forms {
			req.Fields[kv.Key] = kv.Value
		}
		files, err := utils.ParseKeyValues(f.Files)
		if err != nil {
			return Request{}, invalidf("invalid --file: %v", err)
		}
		for _, kv := range files {
			req.Files = append(req.Files, fetch.FormFile{Field: kv.Key, Path: kv.Value})
		}
	}
	return req, nil
}
