package backend

import (
	"context"

	"github.com/mahabub-bd/purepac-admin/internal/listing"
)

// Source exposes one backend collection as a listing.Source.
type Source struct {
	client   *Client
	endpoint string
}

var _ listing.Source[Record] = (*Source)(nil)

// Source returns a list source for the collection at endpoint.
func (c *Client) Source(endpoint string) *Source {
	return &Source{client: c, endpoint: endpoint}
}

// List implements listing.Source.
func (s *Source) List(ctx context.Context, q listing.Query) (listing.Page[Record], error) {
	return s.client.List(ctx, s.endpoint, q)
}

// Delete implements listing.Source.
func (s *Source) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, s.endpoint, id)
}
