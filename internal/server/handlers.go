package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/efscan/internal/engine"
	"github.com/leapstack-labs/efscan/internal/export"
	"github.com/leapstack-labs/efscan/pkg/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status   string `json:"status"`
	ScanID   string `json:"scan_id,omitempty"`
	Tables   int    `json:"tables"`
	Watching bool   `json:"watching"`
}

type tableSummary struct {
	ClassName  string   `json:"class_name"`
	Key        string   `json:"key"`
	File       string   `json:"file"`
	FieldCount int      `json:"field_count"`
	Dependants []string `json:"dependants,omitempty"`
}

type fieldDetail struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Nullable   bool     `json:"nullable"`
	Attributes []string `json:"attributes,omitempty"`
}

type tableDetail struct {
	ClassName  string        `json:"class_name"`
	Key        string        `json:"key"`
	File       string        `json:"file"`
	Namespace  string        `json:"namespace,omitempty"`
	Fields     []fieldDetail `json:"fields"`
	Parents    []string      `json:"parents,omitempty"`
	Dependants []string      `json:"dependants,omitempty"`
	SelfRef    bool          `json:"self_ref,omitempty"`
}

type graphNode struct {
	Name     string   `json:"name"`
	Parents  []string `json:"parents,omitempty"`
	Children []string `json:"children,omitempty"`
	SelfRef  bool     `json:"self_ref,omitempty"`
}

type graphResponse struct {
	Nodes         []graphNode `json:"nodes"`
	Levels        [][]string  `json:"levels"`
	Tables        int         `json:"tables"`
	Relationships int         `json:"relationships"`
	Depth         int         `json:"depth"`
}

type diagnosticsResponse struct {
	Valid         bool   `json:"valid"`
	ScanID        string `json:"scan_id,omitempty"`
	Error         string `json:"error,omitempty"`
	FilesSeen     int    `json:"files_seen"`
	FilesChanged  int    `json:"files_changed"`
	Tables        int    `json:"tables"`
	Relationships int    `json:"relationships"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	latest, lastErr := s.snapshot()

	resp := healthResponse{Watching: s.watch}
	switch {
	case lastErr != nil:
		resp.Status = "degraded"
	case latest == nil:
		resp.Status = "starting"
	default:
		resp.Status = "ok"
		resp.ScanID = latest.ScanID
		resp.Tables = len(latest.Model.Objects)
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}

func (s *Server) handleModel(w http.ResponseWriter, _ *http.Request) {
	latest, ok := s.requireModel(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, export.FromModel(latest.Model))
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	latest, ok := s.requireModel(w)
	if !ok {
		return
	}

	tables := make([]tableSummary, 0, len(latest.Model.Objects))
	for _, obj := range latest.Model.Objects {
		tables = append(tables, tableSummary{
			ClassName:  obj.ClassName,
			Key:        obj.KeyName,
			File:       obj.FileName,
			FieldCount: countColumns(obj),
			Dependants: dependantNames(obj),
		})
	}
	respondJSON(w, http.StatusOK, tables)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	latest, ok := s.requireModel(w)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	obj, found := latest.Model.ObjectByName(name)
	if !found {
		respondJSON(w, http.StatusNotFound, errorResponse{
			Error: fmt.Sprintf("table %s not found", name),
		})
		return
	}

	detail := tableDetail{
		ClassName:  obj.ClassName,
		Key:        obj.KeyName,
		File:       obj.FileName,
		Namespace:  latest.Model.Namespace,
		Fields:     make([]fieldDetail, 0, len(obj.Fields)),
		Parents:    latest.Graph.Parents(obj.ClassName),
		Dependants: dependantNames(obj),
	}
	if node, ok := latest.Graph.Node(obj.ClassName); ok {
		detail.SelfRef = node.SelfRef
	}
	for _, field := range obj.Fields {
		detail.Fields = append(detail.Fields, fieldDetail{
			Name:       field.VariableName,
			Type:       field.TypeName,
			Nullable:   field.AllowsNull,
			Attributes: field.Attributes,
		})
	}
	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	latest, ok := s.requireModel(w)
	if !ok {
		return
	}

	levels, err := latest.Graph.Levels()
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	nodes := make([]graphNode, 0, latest.Graph.NodeCount())
	for _, node := range latest.Graph.Nodes() {
		nodes = append(nodes, graphNode{
			Name:     node.Name,
			Parents:  latest.Graph.Parents(node.Name),
			Children: latest.Graph.Children(node.Name),
			SelfRef:  node.SelfRef,
		})
	}

	respondJSON(w, http.StatusOK, graphResponse{
		Nodes:         nodes,
		Levels:        levels,
		Tables:        latest.Graph.NodeCount(),
		Relationships: latest.Graph.EdgeCount(),
		Depth:         len(levels),
	})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	latest, lastErr, updatedAt := s.latest, s.lastErr, s.updatedAt
	s.mu.RUnlock()

	switch {
	case lastErr != nil:
		respondJSON(w, http.StatusOK, diagnosticsResponse{
			Valid: false,
			Error: lastErr.Error(),
		})
	case latest == nil:
		respondJSON(w, http.StatusOK, diagnosticsResponse{
			Valid: false,
			Error: "no scan has completed",
		})
	default:
		respondJSON(w, http.StatusOK, diagnosticsResponse{
			Valid:         true,
			ScanID:        latest.ScanID,
			FilesSeen:     latest.FilesSeen,
			FilesChanged:  latest.FilesChanged,
			Tables:        len(latest.Model.Objects),
			Relationships: countRelationships(latest.Model),
			UpdatedAt:     updatedAt.Format(time.RFC3339),
		})
	}
}

// requireModel fetches the latest good scan or answers 503 when no scan
// has produced a model yet.
func (s *Server) requireModel(w http.ResponseWriter) (*engine.ScanResult, bool) {
	latest, _ := s.snapshot()
	if latest == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no model available yet"})
		return nil, false
	}
	return latest, true
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func countColumns(obj *model.TableObject) int {
	count := 0
	for _, f := range obj.Fields {
		if !f.IsCollection() {
			count++
		}
	}
	return count
}

func countRelationships(m *model.Model) int {
	count := 0
	for _, obj := range m.Objects {
		count += len(obj.Dependants)
	}
	return count
}

func dependantNames(obj *model.TableObject) []string {
	if len(obj.Dependants) == 0 {
		return nil
	}
	names := make([]string, 0, len(obj.Dependants))
	for _, dep := range obj.Dependants {
		names = append(names, dep.Dependant.ClassName)
	}
	return names
}
