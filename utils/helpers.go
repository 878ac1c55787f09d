package utils

import (
	"fmt"
	"net/http"
	"strings"
)

// SplitURLs splits a comma-separated list, dropping blank entries.
func SplitURLs(raw string) []string {
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// ParseHeaders turns "Name: value" pairs into a header map keyed by
// canonical names. Later entries replace earlier ones with the same name in
// any case.
func ParseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, raw := range pairs {
		name, value, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, fmt.Errorf("expected 'Name: value', got: %s", raw)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty header name in: %s", raw)
		}
		headers[http.CanonicalHeaderKey(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// CanonicalHeaders returns a copy of headers keyed by canonical names.
// Names differing only in case collide and one of their values is kept.
func CanonicalHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		out[http.CanonicalHeaderKey(name)] = value
	}
	return out
}

// KeyValue is one "key=value" argument, kept in command-line order.
type KeyValue struct {
	Key   string
	Value string
}

// ParseKeyValues splits each "key=value" item on the first '='. The value
// may be empty, the key may not.
func ParseKeyValues(items []string) ([]KeyValue, error) {
	var out []KeyValue
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got: %s", item)
		}
		out = append(out, KeyValue{Key: k, Value: v})
	}
	return out, nil
}
