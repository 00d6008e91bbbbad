package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/internal/async"
	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/server"
)

// Deps are the services behind the HTTP routes.
type Deps struct {
	Processor server.DocumentProcessor
	Income    server.IncomeRecorder
	Summaries server.SummaryService
	Exporter  server.Exporter
	Verifier  TokenVerifier
	Queue     async.Queue // optional; without it the enqueue route answers 503
}

type handler struct {
	deps   Deps
	logger *slog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))
	RegisterRoutes(r, deps, logger)
	return r
}

func RegisterRoutes(r *gin.Engine, deps Deps, logger *slog.Logger) {
	h := &handler{deps: deps, logger: logger}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(JWTAuth(deps.Verifier, logger))
	{
		api.POST("/documents/:id/process", h.processDocument)
		api.POST("/documents/:id/reprocess", h.reprocessDocument)
		api.POST("/documents/:id/enqueue", h.enqueueDocument)
		api.POST("/documents/:id/income", h.recordIncome)
		api.POST("/returns/:id/process", h.processReturn)
		api.GET("/returns/:id/summary", h.summary)
		api.GET("/returns/:id/validate", h.validate)
		api.GET("/returns/:id/form1040.xlsx", h.exportXLSX)
	}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("id")
	v := common.NewValidator()
	v.Field("id", raw, common.Required, common.UUID)
	if err := v.Err(); err != nil {
		fail(c, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(raw), true
}

func (h *handler) processDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.deps.Processor.Process(c.Request.Context(), id, requester(c))
	if err != nil {
		h.logger.Warn("http.process.failed", "document_id", id, "code", common.CodeOf(err), "err", err)
		fail(c, err)
		return
	}
	success(c, res)
}

func (h *handler) reprocessDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.deps.Processor.Reprocess(c.Request.Context(), id, requester(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, res)
}

func (h *handler) enqueueDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	reprocess := c.DefaultQuery("reprocess", "false")
	if err := common.NewValidator().Field("reprocess", reprocess, common.OneOf("true", "false")).Err(); err != nil {
		fail(c, err)
		return
	}
	if h.deps.Queue == nil {
		fail(c, common.ConfigurationError("background processing is disabled"))
		return
	}
	job := async.Job{
		DocumentID:  id,
		UserID:      requester(c),
		Reprocess:   reprocess == "true",
		SubmittedAt: time.Now(),
		TraceID:     common.RequestIDFromContext(c.Request.Context()),
	}
	if err := h.deps.Queue.Enqueue(c.Request.Context(), job); err != nil {
		h.logger.Warn("http.enqueue.failed", "document_id", id, "err", err)
		fail(c, common.ConfigurationError("background processing is unavailable"))
		return
	}
	c.JSON(http.StatusAccepted, Response{Code: 0, Msg: "queued", Data: gin.H{"documentId": id, "status": "queued"}})
}

func (h *handler) recordIncome(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entry, err := h.deps.Income.RecordIncomeFromDocument(c.Request.Context(), id, requester(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, entry)
}

func (h *handler) processReturn(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.deps.Processor.ProcessReturn(c.Request.Context(), id, requester(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, res)
}

func (h *handler) summary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sum, err := h.deps.Summaries.BuildSummary(c.Request.Context(), id, requester(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, sum)
}

func (h *handler) validate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	_, completeness, err := h.deps.Summaries.Validate(c.Request.Context(), id, requester(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, completeness)
}

func (h *handler) exportXLSX(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.deps.Exporter.ExportForm1040XLSX(c.Request.Context(), id, requester(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="form1040-%s.xlsx"`, id))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", b)
}
