package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vida/internal/core"
	"vida/internal/services"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// createItemRequest is the wire shape of POST /api/items. Properties is the
// kind's flat payload, not the tagged union.
type createItemRequest struct {
	Kind        string          `json:"kind"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Properties  json.RawMessage `json:"properties"`
}

// updateItemRequest is the wire shape of PATCH /api/items/{id}. Absent
// fields are left untouched.
type updateItemRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	OccurredAt  *time.Time      `json:"occurred_at"`
	Status      *string         `json:"status"`
	Properties  json.RawMessage `json:"properties"`
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func (req createItemRequest) toInput() (services.CreateItemInput, error) {
	kind := core.Kind(req.Kind)
	if !kind.IsValid() {
		return services.CreateItemInput{}, core.ErrInvalidKind
	}

	props := core.Properties{}
	if len(req.Properties) > 0 {
		var err error
		props, err = core.DecodeProperties(kind, req.Properties)
		if err != nil {
			return services.CreateItemInput{}, err
		}
	}

	return services.CreateItemInput{
		Kind:        kind,
		Title:       req.Title,
		Description: req.Description,
		OccurredAt:  req.OccurredAt,
		Properties:  props,
	}, nil
}

func (req updateItemRequest) toInput(kind core.Kind) (services.UpdateItemInput, error) {
	in := services.UpdateItemInput{
		Title:       req.Title,
		Description: req.Description,
		OccurredAt:  req.OccurredAt,
		Status:      req.Status,
	}
	if len(req.Properties) > 0 {
		props, err := core.DecodeProperties(kind, req.Properties)
		if err != nil {
			return services.UpdateItemInput{}, err
		}
		in.Properties = &props
	}
	return in, nil
}
