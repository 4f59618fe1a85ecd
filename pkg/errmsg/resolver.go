// Package errmsg turns failed requests into short messages a farmer can read.
package errmsg

import (
	"errors"
	"strings"
)

// Language selects the message table.
type Language string

const (
	English Language = "en"
	Nepali  Language = "ne"
)

// ParseLanguage maps a query value or Accept-Language header to a Language.
// Anything that is not Nepali resolves to English.
func ParseLanguage(s string) Language {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, ",;"); i >= 0 {
		s = s[:i]
	}
	switch {
	case s == "ne", s == "np", strings.HasPrefix(s, "ne-"), strings.HasPrefix(s, "ne_"):
		return Nepali
	default:
		return English
	}
}

// Response is implemented by errors that carry an HTTP response.
// An error chain without one is a network-layer failure.
type Response interface {
	StatusCode() int
	BodyMessage() string
}

// Resolve picks the message for err. The first matching rule wins:
// no response at all, a message supplied by the backend, a known status
// code, then fallback. An empty fallback means the generic message.
func Resolve(err error, lang Language, fallback string) string {
	if fallback == "" {
		fallback = Message(lang, KeyGeneric)
	}
	if err == nil {
		return fallback
	}

	var resp Response
	if !errors.As(err, &resp) {
		return Message(lang, KeyNetwork)
	}

	if msg := strings.TrimSpace(resp.BodyMessage()); msg != "" {
		return msg
	}

	if msg, ok := StatusMessage(lang, resp.StatusCode()); ok {
		return msg
	}

	return fallback
}
