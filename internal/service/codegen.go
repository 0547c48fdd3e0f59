package service

import (
	"fmt"

	"github.com/sqids/sqids-go"
)

// CodeGenerator maps a store-assigned link identifier to its short code by
// encoding the window [id, id+window) with sqids. The mapping is
// deterministic; changing the window only affects codes generated after the
// change, stored codes are never re-derived.
type CodeGenerator struct {
	encoder *sqids.Sqids
	window  int
}

func NewCodeGenerator(window int) (*CodeGenerator, error) {
	if window < 1 {
		return nil, fmt.Errorf("encoding window must be positive, got %d", window)
	}

	encoder, err := sqids.New()
	if err != nil {
		return nil, fmt.Errorf("create sqids encoder: %w", err)
	}

	return &CodeGenerator{encoder: encoder, window: window}, nil
}

func (g *CodeGenerator) Code(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("identifier must be non-negative, got %d", id)
	}

	numbers := make([]uint64, g.window)
	for i := range numbers {
		numbers[i] = uint64(id) + uint64(i)
	}

	code, err := g.encoder.Encode(numbers)
	if err != nil {
		return "", fmt.Errorf("encode identifier %d: %w", id, err)
	}

	return code, nil
}
