package http

import (
	"encoding/json"
	"time"

	"vida/internal/core"
)

// itemJSON is the wire representation of an item. Properties carries the
// kind's flat payload.
type itemJSON struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
	Status      string          `json:"status"`
	Properties  json.RawMessage `json:"properties"`
}

func toItemJSON(it core.Item) (itemJSON, error) {
	props, err := core.EncodeProperties(it.Kind, it.Properties)
	if err != nil {
		return itemJSON{}, err
	}
	return itemJSON{
		ID:          it.ID.String(),
		Kind:        string(it.Kind),
		Title:       it.Title,
		Description: it.Description,
		OccurredAt:  it.OccurredAt,
		CreatedAt:   it.CreatedAt,
		Status:      it.Status,
		Properties:  props,
	}, nil
}

func toItemJSONList(items []core.Item) ([]itemJSON, error) {
	out := make([]itemJSON, 0, len(items))
	for _, it := range items {
		j, err := toItemJSON(it)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}
