package contracts

import "context"

// MediaStore uploads a binary blob and returns its hosted URL.
type MediaStore interface {
	Upload(ctx context.Context, data []byte, folder string) (string, error)
}
