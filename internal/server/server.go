// Package server exposes paper lookup, search, and citation tree building
// over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/citegraph/citegraph/internal/citetree"
	"github.com/citegraph/citegraph/internal/paper"
	"github.com/citegraph/citegraph/internal/scholar"
	"github.com/citegraph/citegraph/internal/store"
)

// Server wires the store, the API client, and the tree builder into a
// gin router.
type Server struct {
	db      *store.DB
	client  *scholar.Client
	builder *citetree.Builder
	log     *logrus.Logger
	engine  *gin.Engine
}

// New creates a Server and registers all routes.
func New(db *store.DB, client *scholar.Client, builder *citetree.Builder, log *logrus.Logger) *Server {
	s := &Server{
		db:      db,
		client:  client,
		builder: builder,
		log:     log,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(log), requestLogger(log))

	api := r.Group("/api")
	api.GET("/papers/:id", s.getPaper)
	api.POST("/papers/:id/tree", s.buildTree)
	api.GET("/search", s.search)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = r
	return s
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// response is the uniform JSON envelope.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// treeRequest is the buildTree request body. All fields are optional.
type treeRequest struct {
	MaxDepth              int  `json:"maxDepth"`
	MaxReferencesPerLevel int  `json:"maxReferencesPerLevel"`
	IncludeMetrics        bool `json:"includeMetrics"`
}

// treeData is the successful buildTree payload.
type treeData struct {
	Tree       *citetree.Node       `json:"tree"`
	Statistics citetree.Statistics  `json:"statistics"`
	Flattened  []citetree.FlatEntry `json:"flattened"`
}

func (s *Server) buildTree(c *gin.Context) {
	id := c.Param("id")

	var req treeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response{
				Success: false,
				Message: "invalid request body",
				Error:   err.Error(),
			})
			return
		}
	}
	if req.MaxDepth < 0 || req.MaxReferencesPerLevel < 0 {
		c.JSON(http.StatusBadRequest, response{
			Success: false,
			Message: "maxDepth and maxReferencesPerLevel must be positive",
		})
		return
	}

	tree, err := s.builder.Build(c.Request.Context(), id, citetree.Options{
		MaxDepth:            req.MaxDepth,
		MaxBranchesPerLevel: req.MaxReferencesPerLevel,
		IncludeMetrics:      req.IncludeMetrics,
	})
	if errors.Is(err, citetree.ErrRootNotFound) {
		c.JSON(http.StatusNotFound, response{
			Success: false,
			Message: "unable to build citation tree for this paper",
		})
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("paper_id", id).Error("tree build failed")
		c.JSON(http.StatusInternalServerError, response{
			Success: false,
			Message: "failed to build citation tree",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response{
		Success: true,
		Data: treeData{
			Tree:       tree,
			Statistics: citetree.ComputeStatistics(tree),
			Flattened:  citetree.Flatten(tree),
		},
	})
}

func (s *Server) getPaper(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	rec, err := s.resolvePaper(ctx, id)
	if scholar.IsNotFound(err) || (err == nil && rec == nil) {
		c.JSON(http.StatusNotFound, response{
			Success: false,
			Message: "paper not found",
		})
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("paper_id", id).Error("paper lookup failed")
		c.JSON(http.StatusInternalServerError, response{
			Success: false,
			Message: "failed to look up paper",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response{Success: true, Data: rec})
}

// resolvePaper serves from the store, fetching and persisting on miss.
func (s *Server) resolvePaper(ctx context.Context, id string) (*paper.Record, error) {
	stored, err := s.db.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		return stored, nil
	}

	fetched, err := s.client.GetPaper(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Upsert(ctx, fetched); err != nil {
		return nil, err
	}
	return fetched, nil
}

func (s *Server) search(c *gin.Context) {
	ctx := c.Request.Context()
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, response{
			Success: false,
			Message: "query parameter is required",
		})
		return
	}

	limit := parseInt(c.Query("limit"), scholar.DefaultSearchLimit)
	offset := parseInt(c.Query("offset"), 0)

	if c.Query("local") == "true" {
		recs, total, err := s.db.Search(ctx, store.Filters{
			Query:        query,
			Author:       c.Query("author"),
			YearFrom:     parseInt(c.Query("yearFrom"), 0),
			YearTo:       parseInt(c.Query("yearTo"), 0),
			MinCitations: parseInt(c.Query("minCitations"), 0),
			Limit:        limit,
			Offset:       offset,
		})
		if err != nil {
			s.log.WithError(err).Error("local search failed")
			c.JSON(http.StatusInternalServerError, response{
				Success: false,
				Message: "search failed",
				Error:   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, response{Success: true, Data: gin.H{
			"papers": recs,
			"total":  total,
			"offset": offset,
		}})
		return
	}

	result, err := s.client.SearchPapers(ctx, scholar.SearchRequest{
		Query:         query,
		Limit:         limit,
		Offset:        offset,
		Year:          c.Query("year"),
		Venue:         c.Query("venue"),
		FieldsOfStudy: c.Query("fieldsOfStudy"),
	})
	if err != nil {
		s.log.WithError(err).Error("remote search failed")
		c.JSON(http.StatusInternalServerError, response{
			Success: false,
			Message: "search failed",
			Error:   err.Error(),
		})
		return
	}

	// Search results are persisted without link lists; the tree builder
	// hydrates them on demand.
	if err := s.db.UpsertBatch(ctx, result.Papers); err != nil {
		s.log.WithError(err).Warn("persisting search results failed")
	}

	c.JSON(http.StatusOK, response{Success: true, Data: result})
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
