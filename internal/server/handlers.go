package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/san-kum/stepviz/internal/config"
	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/registry"
	"github.com/san-kum/stepviz/internal/runner"
	"github.com/san-kum/stepviz/internal/step"
)

type algorithmSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type fieldView struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	MinItems    int      `json:"minItems,omitempty"`
	MaxItems    int      `json:"maxItems,omitempty"`
	Items       string   `json:"items,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

type algorithmDetail struct {
	algorithmSummary
	Schema   map[string]fieldView `json:"schema"`
	Defaults generator.Inputs     `json:"defaults"`
	Presets  []string             `json:"presets"`
}

func summarize(meta generator.Metadata) algorithmSummary {
	return algorithmSummary{
		ID:          meta.ID,
		Name:        meta.Name,
		Category:    string(meta.Category),
		Description: meta.Description,
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP", "algorithms": len(s.reg.IDs())})
}

// listAlgorithms handles GET /api/algorithms[?category=].
func (s *Server) listAlgorithms(c *gin.Context) {
	metas, err := s.reg.List(generator.Category(c.Query("category")))
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]algorithmSummary, len(metas))
	for i, m := range metas {
		out[i] = summarize(m)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getAlgorithm(c *gin.Context) {
	def, err := s.reg.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	meta := def.Metadata()
	schema := make(map[string]fieldView, len(meta.Schema))
	for name, f := range meta.Schema {
		schema[name] = fieldView(f)
	}
	c.JSON(http.StatusOK, algorithmDetail{
		algorithmSummary: summarize(meta),
		Schema:           schema,
		Defaults:         meta.Defaults.Clone(),
		Presets:          s.cfg.ListPresets(meta),
	})
}

// getSteps handles GET /api/steps/:id[?preset=].
func (s *Server) getSteps(c *gin.Context) {
	def, err := s.reg.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	inputs, err := s.cfg.Preset(def.Metadata(), c.Query("preset"))
	if errors.Is(err, config.ErrUnknownPreset) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "available": s.cfg.ListPresets(def.Metadata())})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondSteps(c, def, inputs)
}

// postSteps handles POST /api/steps/:id with a JSON object of inputs that
// override the defaults. An empty body means the defaults.
func (s *Server) postSteps(c *gin.Context) {
	def, err := s.reg.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var overrides generator.Inputs
	if err := c.ShouldBindJSON(&overrides); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object: " + err.Error()})
		return
	}
	s.respondSteps(c, def, generator.Resolve(def.Metadata().Defaults, overrides))
}

func (s *Server) respondSteps(c *gin.Context, def generator.Definition, inputs generator.Inputs) {
	seq, err := s.runner.Run(c.Request.Context(), def, inputs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, step.NewDocument(def.Metadata().ID, inputs, seq, step.GeneratedByGo, s.now()))
}

// fail maps the error taxonomy onto status codes.
func (s *Server) fail(c *gin.Context, err error) {
	var notFound *registry.NotFoundError
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "available": notFound.Available})
	case errors.Is(err, config.ErrUnknownPreset):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrUnknownCategory),
		errors.Is(err, generator.ErrPrecondition),
		errors.Is(err, generator.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, runner.ErrDefect):
		s.log.Error("generator defect", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
