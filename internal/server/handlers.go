package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tablekit/tablekit/internal/db"
	"github.com/tablekit/tablekit/internal/engine"
)

// errorResponse is the JSON body returned for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// databaseSummary describes one open database in list and detail responses.
type databaseSummary struct {
	Name   string   `json:"name"`
	Driver string   `json:"driver"`
	Tables []string `json:"tables,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// database resolves the {dbName} URL parameter against the registry,
// writing a 404 when the name is unknown.
func (s *Server) database(w http.ResponseWriter, r *http.Request) (*db.Database, bool) {
	name := chi.URLParam(r, "dbName")
	d, err := s.registry.Get(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return d, true
}

// handleListDatabases returns the names and drivers of all open databases.
func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Names()
	out := make([]databaseSummary, 0, len(names))
	for _, name := range names {
		d, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		out = append(out, databaseSummary{Name: d.Name(), Driver: string(d.Driver())})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetDatabase returns one database's summary including its table
// names.
func (s *Server) handleGetDatabase(w http.ResponseWriter, r *http.Request) {
	d, ok := s.database(w, r)
	if !ok {
		return
	}
	tables, err := d.TableNames(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, databaseSummary{
		Name:   d.Name(),
		Driver: string(d.Driver()),
		Tables: tables,
	})
}

// handleGetSchema returns the full schema document for one database.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	d, ok := s.database(w, r)
	if !ok {
		return
	}
	doc, err := d.Schema(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleListTables returns the table names of one database.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	d, ok := s.database(w, r)
	if !ok {
		return
	}
	tables, err := d.TableNames(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

// handleGetTable returns the schema document for a single table.
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	d, ok := s.database(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "tableName")
	t, err := d.Table(r.Context(), name)
	if err != nil {
		if errors.Is(err, engine.ErrNoSuchTable) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	info := t.Info()
	writeJSON(w, http.StatusOK, info.Doc())
}
