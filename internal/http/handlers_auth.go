package http

import (
	"net/http"

	applog "vida/internal/log"
)

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.authn.Login(req.Email, req.Password)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Login succeeded",
		applog.FieldOperation, applog.OpLogin)
	writeData(w, http.StatusOK, loginResponse{Token: token})
}
