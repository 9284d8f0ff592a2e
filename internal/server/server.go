package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/extract"
	"github.com/joseph-ayodele/expense-tracker/internal/pipeline"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
)

// Extractor runs the receipt pipeline.
type Extractor interface {
	Run(ctx context.Context, doc extract.Document) pipeline.Result
}

// Exporter renders expenses as an XLSX workbook.
type Exporter interface {
	ExportExpensesXLSX(ctx context.Context, from, to *time.Time) ([]byte, int, error)
}

// Pinger reports store reachability.
type Pinger interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

type Server struct {
	expenses  repository.ExpenseRepository
	extractor Extractor
	exporter  Exporter
	db        Pinger
	maxUpload int64
	now       func() time.Time
	logger    *zap.Logger
}

func New(logger *zap.Logger, expenses repository.ExpenseRepository, extractor Extractor, exporter Exporter, db Pinger, maxUpload int64) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = constants.MaxUploadBytes
	}
	return &Server{
		expenses:  expenses,
		extractor: extractor,
		exporter:  exporter,
		db:        db,
		maxUpload: maxUpload,
		now:       time.Now,
		logger:    logger,
	}
}

// Router builds the gin engine with middleware and all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(RequestID(s.logger), AccessLog(s.logger), Recovery(s.logger), CORS())

	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Server is running!") })
	r.GET("/healthz", s.healthz)

	api := r.Group("/api")
	{
		api.GET("/expenses", s.listExpenses)
		api.POST("/expenses", s.createExpense)
		api.GET("/expenses/export", s.exportExpenses)
		api.DELETE("/expenses/:id", s.deleteExpense)
		api.POST("/scan", s.scanReceipt)
	}
	return r
}

// NewHTTPServer wraps handler with the timeouts used in production.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second, // a scan waits on OCR and the model
		IdleTimeout:       120 * time.Second,
	}
}
