package paging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Page is one slice of a remote collection.
type Page[T any] struct {
	Items         []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// HasMore reports whether pages exist after index.
func (p Page[T]) HasMore(index int) bool {
	return index < p.TotalPages-1
}

// PageFunc fetches one page of a collection.
type PageFunc[T any] func(ctx context.Context, cursor Cursor, filters FilterSet) (Page[T], error)

// Source is anything able to return pages of T.
type Source[T any] interface {
	FetchPage(ctx context.Context, cursor Cursor, filters FilterSet) (Page[T], error)
}

// FetchPage implements Source.
func (f PageFunc[T]) FetchPage(ctx context.Context, cursor Cursor, filters FilterSet) (Page[T], error) {
	return f(ctx, cursor, filters)
}

type pageEnvelope struct {
	Content       json.RawMessage `json:"content"`
	Data          json.RawMessage `json:"data"`
	TotalPages    int             `json:"totalPages"`
	TotalElements int64           `json:"totalElements"`
	Number        int             `json:"number"`
	Size          int             `json:"size"`
}

// DecodePage parses a collection response body. Three shapes are accepted:
// a bare JSON array, the {content, totalPages, ...} wrapper, and either of
// those inside a single {data: ...} envelope. A body without usable items
// decodes to an empty page, which has no further pages. Only syntactically
// invalid JSON is an error.
func DecodePage[T any](body []byte) (Page[T], error) {
	return decodePage[T](body, true)
}

func decodePage[T any](body []byte, unwrap bool) (Page[T], error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return Page[T]{}, nil
	}
	if !json.Valid(body) {
		return Page[T]{}, fmt.Errorf("decode page: invalid JSON body")
	}

	switch body[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return Page[T]{}, nil
		}
		return Page[T]{
			Items:         items,
			TotalPages:    1,
			TotalElements: int64(len(items)),
			Size:          len(items),
		}, nil

	case '{':
		var env pageEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return Page[T]{}, nil
		}
		if len(env.Content) == 0 {
			if unwrap && len(env.Data) > 0 {
				return decodePage[T](env.Data, false)
			}
			return Page[T]{}, nil
		}

		var items []T
		if err := json.Unmarshal(env.Content, &items); err != nil {
			return Page[T]{}, nil
		}
		if items == nil {
			return Page[T]{}, nil
		}
		return Page[T]{
			Items:         items,
			TotalPages:    env.TotalPages,
			TotalElements: env.TotalElements,
			Number:        env.Number,
			Size:          env.Size,
		}, nil
	}

	return Page[T]{}, nil
}
