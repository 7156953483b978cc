// Package httpapi binds the engine onto HTTP. It is route binding
// only: every handler parses its request, calls straight into
// pkg/txn, pkg/query or pkg/auth, and renders the result. No retry,
// routing, or middleware framework is grounded anywhere in the
// retrieved pack for an embedded engine like this one, so the mux is
// the standard library's, using the method-and-path patterns
// net/http.ServeMux has supported since Go 1.22.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/emberdb/emberdb/internal/config"
	"github.com/emberdb/emberdb/pkg/auth"
	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/ql"
	"github.com/emberdb/emberdb/pkg/query"
	"github.com/emberdb/emberdb/pkg/store"
	"github.com/emberdb/emberdb/pkg/txn"
	"github.com/emberdb/emberdb/pkg/values"
	"github.com/google/uuid"
)

// Server wires the transaction executor, query engine and auth
// service onto a *http.ServeMux. It holds no state of its own.
type Server struct {
	executor *txn.Executor
	engine   *query.Engine
	auth     *auth.Service
	mode     config.SerializationMode
}

func New(executor *txn.Executor, engine *query.Engine, authSvc *auth.Service, mode config.SerializationMode) *Server {
	return &Server{executor: executor, engine: engine, auth: authSvc, mode: mode}
}

// Handler builds the route table. /txn, /query and /entity-history
// require a bearer token in Authorization carrying the named role; the
// /auth routes are not wrapped.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /txn", s.requireRole("User", s.handleTxn))
	mux.HandleFunc("POST /query", s.requireRole("User", s.handleQuery))
	mux.HandleFunc("POST /entity-history", s.requireRole("User", s.handleEntityHistory))
	mux.HandleFunc("POST /auth/users", s.handleCreateUser)
	mux.HandleFunc("DELETE /auth/users", s.handleDeleteUsers)
	mux.HandleFunc("PUT /auth/session", s.handlePutSession)
	return mux
}

// requireRole wraps handler with a bearer-token check. The admin
// endpoints under /auth/users carry their own admin-identity check
// instead and are never wrapped here.
func (s *Server) requireRole(role string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !s.auth.Authorize(token, role) {
			writeError(w, s.mode, &dberrors.AuthUnknown{})
			return
		}
		handler(w, r)
	}
}

// handleTxn applies a single QL mutation statement and renders the
// resulting row, if the statement produces one.
func (s *Server) handleTxn(w http.ResponseWriter, r *http.Request) {
	src, err := readBody(r)
	if err != nil {
		writeError(w, s.mode, err)
		return
	}
	stmt, err := ql.Parse(src)
	if err != nil {
		writeError(w, s.mode, err)
		return
	}
	row, err := s.executor.Apply(stmt)
	if err != nil {
		writeError(w, s.mode, err)
		return
	}
	s.writeRow(w, row)
}

// handleQuery runs a single QL read statement: CHECK is dispatched to
// RunCheck and rendered as a flat bool map, everything else goes
// through Run and is rendered as a row list.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	src, err := readBody(r)
	if err != nil {
		writeError(w, s.mode, err)
		return
	}
	stmt, err := ql.Parse(src)
	if err != nil {
		writeError(w, s.mode, err)
		return
	}
	if stmt.Kind == ql.StmtCheck {
		results, err := s.engine.RunCheck(stmt)
		if err != nil {
			writeError(w, s.mode, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
		return
	}
	result, err := s.engine.Run(stmt)
	if err != nil {
		writeError(w, s.mode, err)
		return
	}
	s.writeRows(w, result.Rows)
}

type entityHistoryRequest struct {
	EntityKey string      `json:"entity_key"`
	EntityID  interface{} `json:"entity_id"`
}

// handleEntityHistory answers with every register ever recorded for
// entity_key/entity_id, oldest first.
func (s *Server) handleEntityHistory(w http.ResponseWriter, r *http.Request) {
	var req entityHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.mode, &dberrors.AuthBadBody{Cause: err})
		return
	}
	id, err := values.FromJSONValue(req.EntityID)
	if err != nil {
		writeError(w, s.mode, &dberrors.AuthBadBody{Cause: err})
		return
	}
	rows, err := s.engine.History(req.EntityKey, id)
	if err != nil {
		writeError(w, s.mode, err)
		return
	}
	s.writeRows(w, rows)
}

type createUserRequest struct {
	AdminID       string   `json:"admin_id"`
	AdminPassword string   `json:"admin_password"`
	UserPassword  string   `json:"user_password"`
	Roles         []string `json:"roles"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.mode, &dberrors.AuthBadBody{Cause: err})
		return
	}
	id, err := s.auth.CreateUser(req.AdminID, req.AdminPassword, req.UserPassword, req.Roles)
	if err != nil {
		writeError(w, s.mode, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": id.String()})
}

type deleteUsersRequest struct {
	AdminID       string   `json:"admin_id"`
	AdminPassword string   `json:"admin_password"`
	UserIDs       []string `json:"user_ids"`
}

func (s *Server) handleDeleteUsers(w http.ResponseWriter, r *http.Request) {
	var req deleteUsersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.mode, &dberrors.AuthBadBody{Cause: err})
		return
	}
	ids := make([]uuid.UUID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, s.mode, &dberrors.AuthBadBody{Cause: err})
			return
		}
		ids = append(ids, id)
	}
	deleted, err := s.auth.DeleteUsers(req.AdminID, req.AdminPassword, ids)
	if err != nil {
		writeError(w, s.mode, err)
		return
	}
	out := make([]string, len(deleted))
	for i, id := range deleted {
		out[i] = id.String()
	}
	writeJSON(w, http.StatusOK, map[string][]string{"deleted": out})
}

type putSessionRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (s *Server) handlePutSession(w http.ResponseWriter, r *http.Request) {
	var req putSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.mode, &dberrors.AuthBadBody{Cause: err})
		return
	}
	id, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, s.mode, &dberrors.AuthBadBody{Cause: err})
		return
	}
	token, err := s.auth.PutUserSession(id, req.Password, s.auth.DefaultTTL())
	if err != nil {
		writeError(w, s.mode, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func readBody(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", &dberrors.AuthBadBody{Cause: err}
	}
	return string(body), nil
}

// writeRow and writeRows render store.Row data in whichever
// presentation layer the server was configured with: the structured
// WQL-flavored literal format, or plain JSON via bson ext-JSON.
func (s *Server) writeRow(w http.ResponseWriter, row store.Row) {
	s.writeRows(w, []store.Row{row})
}

func (s *Server) writeRows(w http.ResponseWriter, rows []store.Row) {
	switch s.mode {
	case config.JSON:
		out := make([]map[string]interface{}, len(rows))
		for i, row := range rows {
			text, err := values.EntityToJSON(row.State)
			if err != nil {
				writeError(w, s.mode, &dberrors.SerializationFailed{Cause: err})
				return
			}
			var decoded map[string]interface{}
			if err := json.Unmarshal([]byte(text), &decoded); err != nil {
				writeError(w, s.mode, &dberrors.SerializationFailed{Cause: err})
				return
			}
			decoded["id"] = row.ID.String()
			out[i] = decoded
		}
		writeJSON(w, http.StatusOK, out)
	default:
		lines := make([]string, len(rows))
		for i, row := range rows {
			lines[i] = values.Print(values.Map(row.State))
		}
		writeJSON(w, http.StatusOK, lines)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// kinded is implemented by every pkg/errors type, tagging it with a
// stable name a client can switch on without parsing Error()'s prose.
type kinded interface {
	Kind() string
}

// writeError maps a named error kind to an HTTP status and renders
// (error_type, error_message) in whichever presentation layer the
// server was configured with. Errors outside the 404/401/409 cases (a
// wrapped io error, a parser error) fall back to 400; the type tag is
// the error's Kind() where it has one and "Error" otherwise. Only
// errors reflecting the caller asking about something that genuinely
// isn't there get 404.
func writeError(w http.ResponseWriter, mode config.SerializationMode, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.As(err, new(*dberrors.IdNotFound)), errors.As(err, new(*dberrors.EntityNotCreated)):
		status = http.StatusNotFound
	case errors.As(err, new(*dberrors.AuthUnknown)), errors.As(err, new(*dberrors.AuthBadRequest)):
		status = http.StatusUnauthorized
	case errors.As(err, new(*dberrors.UniqueViolation)), errors.As(err, new(*dberrors.IdAlreadyExists)), errors.As(err, new(*dberrors.EntityAlreadyExists)):
		status = http.StatusConflict
	}

	errType := "Error"
	if k, ok := err.(kinded); ok {
		errType = k.Kind()
	}

	switch mode {
	case config.JSON:
		writeJSON(w, status, map[string]string{"error_type": errType, "error_message": err.Error()})
	default:
		writeJSON(w, status, fmt.Sprintf("(error_type: %q, error_message: %q)", errType, err.Error()))
	}
}
