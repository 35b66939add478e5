package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is a paginated list envelope as emitted by the backend
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// decodeList accepts a raw JSON array or a {"results": [...]} envelope.
// An empty body or null decodes to an empty slice.
func decodeList[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []T{}, nil
	}

	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to decode list: %w", err)
		}
		return items, nil
	}

	var page Page[T]
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	if page.Results == nil {
		return []T{}, nil
	}
	return page.Results, nil
}
