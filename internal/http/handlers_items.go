package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"vida/internal/core"
	applog "vida/internal/log"
	"vida/internal/storage"
)

func logMutation(ctx context.Context, action string, id uuid.UUID, kind core.Kind) {
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogItemMutation(ctx, action, id.String(), string(kind))
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	items, err := s.items.ListItems(r.Context(), owner)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	out, err := toItemJSONList(items)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	var req createItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	created, err := s.items.CreateItem(r.Context(), owner, in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	logMutation(r.Context(), applog.OpCreate, created.ID, created.Kind)

	out, err := toItemJSON(created)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, storage.ErrItemNotFound)
		return
	}

	var req updateItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	// The kind is needed to decode the properties payload; it never
	// changes after creation.
	existing, err := s.items.GetItem(r.Context(), owner, id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	in, err := req.toInput(existing.Kind)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	updated, err := s.items.UpdateItem(r.Context(), owner, id, in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	logMutation(r.Context(), applog.OpUpdate, updated.ID, updated.Kind)

	out, err := toItemJSON(updated)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, storage.ErrItemNotFound)
		return
	}

	if err := s.items.DeleteItem(r.Context(), owner, id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	logMutation(r.Context(), applog.OpDelete, id, "")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, storage.ErrItemNotFound)
		return
	}

	toggled, err := s.items.ToggleTaskComplete(r.Context(), owner, id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	logMutation(r.Context(), applog.OpToggle, toggled.ID, toggled.Kind)

	out, err := toItemJSON(toggled)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}
