package server

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/mscrnt/emgd_confgen/pkg/config"
	"github.com/mscrnt/emgd_confgen/pkg/dtd"
	"github.com/mscrnt/emgd_confgen/pkg/form"
	"github.com/mscrnt/emgd_confgen/pkg/render"
	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

//go:embed static/index.html
var indexPage []byte

// maxFormBytes bounds request bodies
const maxFormBytes = 1 << 20

// GenerateResponse is returned by /generate?dump=json
type GenerateResponse struct {
	Config *config.DisplayConfig `json:"config"`
	Report *config.Report        `json:"report"`
}

// TranslateRequest is the body of /timing/translate
type TranslateRequest struct {
	From   string            `json:"from"`
	To     string            `json:"to"`
	Values map[string]string `json:"values"`
}

// TranslateResponse is returned by /timing/translate
type TranslateResponse struct {
	Values    timing.Values  `json:"values"`
	Params    timing.Params  `json:"params"`
	Flags     dtd.Flags      `json:"flags"`
	RefreshHz float64        `json:"refresh_hz,omitempty"`
	Skipped   []timing.Field `json:"skipped,omitempty"`
}

// indexHandler serves the form page
func indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

// healthHandler returns server health status
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK\n")
}

// generateHandler builds and renders a configuration from a submitted form.
// Bodies may be URL-encoded, JSON objects of strings, or TOML.
func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	values, err := readForm(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg, report, err := config.Build(values, s.tables, s.registry)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, sk := range report.Skipped {
		s.logger.Printf("Skipped malformed value %s", sk)
	}

	if r.URL.Query().Get("dump") == "json" {
		writeJSON(w, GenerateResponse{Config: cfg, Report: report})
		return
	}

	opts := []render.Option{render.WithVersion(s.config.Version)}
	if s.system != nil {
		opts = append(opts, render.WithSystemInfo(*s.system))
	}
	text, err := render.NewGenerator(s.templates, opts...).Generate(cfg)
	if err != nil {
		http.Error(w, "Failed to render configuration", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Skipped-Fields", strconv.Itoa(len(report.Skipped)))
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="xorg.conf"`)
	}
	_, _ = io.WriteString(w, text)
}

// readForm decodes the request body into form values. Unchecked boxes are
// simply absent from browser submissions.
func readForm(w http.ResponseWriter, r *http.Request) (form.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("invalid JSON form: %w", err)
		}
		values := form.Values{}
		for k, v := range body {
			values[form.Field(k)] = v
		}
		return values, nil

	case "application/toml":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read form: %w", err)
		}
		return form.ParseTOML(string(data))

	default:
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form: %w", err)
		}
		values := form.Values{}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				values[form.Field(k)] = v[0]
			}
		}
		return values, nil
	}
}

// timingListHandler lists the registered timing representations
func (s *Server) timingListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.registry.Info())
}

// translateHandler converts a timing between representations
func (s *Server) translateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TranslateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.From == "" || req.To == "" {
		http.Error(w, "from and to are required", http.StatusBadRequest)
		return
	}

	in := timing.Values{}
	for k, v := range req.Values {
		in[timing.Field(k)] = v
	}

	var p timing.Params
	out, skipped, err := s.registry.Translate(req.To, req.From, &p, in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, TranslateResponse{
		Values:    out,
		Params:    p,
		Flags:     dtd.FromParams(true, p, false),
		RefreshHz: p.RefreshHz(),
		Skipped:   skipped,
	})
}

// presetsHandler lists the DTD presets
func (s *Server) presetsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.tables.Presets)
}

// controlsHandler lists option controls, optionally filtered by scope
func (s *Server) controlsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	controls := s.tables.Controls
	if scope := r.URL.Query().Get("scope"); scope != "" {
		controls = s.tables.ControlsFor(scope)
	}
	writeJSON(w, controls)
}

// attributesHandler lists port attributes, optionally filtered by port
func (s *Server) attributesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	attrs := s.tables.Attributes
	if port := r.URL.Query().Get("port"); port != "" {
		attrs = s.tables.AttributesFor(port)
	}
	writeJSON(w, attrs)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
