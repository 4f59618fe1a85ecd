package upstream

import (
	"context"

	"github.com/agrimart/storefront/pkg/paging"
	"go.uber.org/zap"
)

// Collection adapts the collection endpoint at path into a paging source.
// A 2xx body that is not JSON, such as a proxy's HTML maintenance page,
// yields an empty last page.
func Collection[T any](c *Client, path string) paging.PageFunc[T] {
	return func(ctx context.Context, cursor paging.Cursor, filters paging.FilterSet) (paging.Page[T], error) {
		body, err := c.GetPage(ctx, path, cursor, filters)
		if err != nil {
			return paging.Page[T]{}, err
		}
		page, err := paging.DecodePage[T](body)
		if err != nil {
			c.logger.Warn("Undecodable collection body, treating as empty",
				zap.String("path", path),
				zap.Int("page", cursor.Index),
				zap.Int("body_bytes", len(body)),
				zap.Error(err),
			)
			return paging.Page[T]{}, nil
		}
		return page, nil
	}
}
