package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvfilter/internal/core"
	"github.com/JonMunkholm/csvfilter/internal/logging"
	"github.com/JonMunkholm/csvfilter/internal/render"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// DefaultMaxUploadSize applies to uploads when the loader has no size limit.
const DefaultMaxUploadSize = 100 * 1024 * 1024

// loadRequest is the body of POST /api/datasets.
type loadRequest struct {
	Path string `json:"path"`
}

// handleHealth reports liveness and the number of loaded datasets.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"datasets": s.catalog.Count(),
		"loads":    s.limiter.Status(),
	})
}

// handleListDatasets returns a summary of every loaded dataset.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	tables := s.catalog.All()
	out := make([]render.TableSummary, len(tables))
	for i, t := range tables {
		out[i] = render.Summarize(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleLoadDataset loads a file below the data root into the catalog.
func (s *Server) handleLoadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: invalid JSON body", errBadRequest))
		return
	}

	path, err := s.resolvePath(req.Path)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	t, err := s.limiter.Do(r.Context(), func(ctx context.Context) (*core.Table, error) {
		return s.loader.Load(ctx, path)
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.register(w, r, t)
}

// handleUploadDataset loads a CSV sent as the "file" field of a multipart form.
func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	limit := s.loader.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxUploadSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+maxRequestBody)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: upload exceeds %d bytes", core.ErrFileTooLarge, limit))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: invalid multipart form", errBadRequest))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: no file provided", errBadRequest))
		return
	}
	defer file.Close()

	t, err := s.limiter.Do(r.Context(), func(ctx context.Context) (*core.Table, error) {
		return s.loader.LoadReader(ctx, file, header.Filename)
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.register(w, r, t)
}

// register adds t to the catalog and responds with its summary.
func (s *Server) register(w http.ResponseWriter, r *http.Request, t *core.Table) {
	if err := s.catalog.Add(t); err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "dataset_id", t.ID.String()).Info("dataset registered",
		"source", t.Source,
		"rows", t.NumRows(),
	)
	writeJSON(w, http.StatusCreated, render.Summarize(t))
}

// handleGetDataset returns a dataset summary.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	t, err := s.lookup(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, render.Summarize(t))
}

// handleDeleteDataset drops a dataset from the catalog.
func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !s.catalog.Remove(id) {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFilterRows applies the col/val query pairs to a dataset.
//
// Query parameters:
//   - col, val: repeated, paired by position
//   - tol: numeric tolerance
//   - case_sensitive, strip, parallel: booleans overriding the defaults
//   - format: json (default), csv or html
//   - offset, limit: page through the matches; X-Total-Rows carries the full count
func (s *Server) handleFilterRows(w http.ResponseWriter, r *http.Request) {
	t, err := s.lookup(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	opts, err := s.filterOptions(q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	formatName := q.Get("format")
	if formatName == "" && isHTMX(r) {
		formatName = string(render.FormatHTML)
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	offset, err := parseCount(q, "offset")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	limit, err := parseCount(q, "limit")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	columns, raw := q["col"], q["val"]
	out, err := core.Filter(t, columns, t.ParseTargets(columns, raw), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	total := out.NumRows()
	if offset > 0 || limit > 0 {
		out = out.Slice(offset, limit)
	}

	logging.WithFields(r.Context(), "dataset_id", t.ID.String()).Debug("rows filtered",
		"constraints", len(columns),
		"rows_in", t.NumRows(),
		"rows_out", total,
	)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Total-Rows", strconv.Itoa(total))
	if format == render.FormatCSV {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportName(t.Source)))
	}
	if err := render.Write(r.Context(), w, out, format); err != nil {
		logging.FromContext(r.Context()).Error("render rows", "error", err)
	}
}

// parseCount reads a non-negative integer query parameter; absent means 0.
func parseCount(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", errBadRequest, name, v)
	}
	return n, nil
}

// filterOptions starts from the configured defaults and applies query overrides.
func (s *Server) filterOptions(q url.Values) (core.Options, error) {
	opts := core.Options{
		CaseInsensitive: s.cfg.Filter.CaseInsensitive,
		Strip:           s.cfg.Filter.Strip,
		FloatTol:        s.cfg.Filter.FloatTol,
		Parallel:        s.cfg.Filter.Parallel,
	}

	if v := q.Get("tol"); v != "" {
		tol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: %q is not a number", core.ErrInvalidTolerance, v)
		}
		opts = opts.WithTolerance(tol)
	}

	for name, set := range map[string]func(bool){
		"case_sensitive": func(b bool) { opts.CaseInsensitive = !b },
		"strip":          func(b bool) { opts.Strip = b },
		"parallel":       func(b bool) { opts.Parallel = b },
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%w: %s must be a boolean", errBadRequest, name)
		}
		set(b)
	}

	return opts, nil
}

// resolvePath maps a client path onto the data root. Absolute paths and
// paths escaping the root are rejected.
func (s *Server) resolvePath(p string) (string, error) {
	p = filepath.FromSlash(strings.TrimSpace(p))
	if p == "" {
		return "", fmt.Errorf("%w: missing path", errBadRequest)
	}
	if !filepath.IsLocal(p) {
		return "", fmt.Errorf("%w: path must be relative to the data root", errBadRequest)
	}
	return filepath.Join(s.cfg.Server.DataRoot, p), nil
}

// lookup returns the dataset named by the {id} URL parameter.
func (s *Server) lookup(r *http.Request) (*core.Table, error) {
	id, err := datasetID(r)
	if err != nil {
		return nil, err
	}
	t, ok := s.catalog.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	return t, nil
}

func datasetID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a dataset ID", core.ErrDatasetNotFound, raw)
	}
	return id, nil
}

// exportName derives a download file name from a dataset source.
func exportName(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "dataset"
	}
	base = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, base)
	return base + "_filtered.csv"
}
