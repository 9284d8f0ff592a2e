package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/extract"
)

const (
	formFieldReceipt        = "receipt"
	HeaderExtractionStatus  = "X-Extraction-Status"
	multipartOverheadBudget = 64 << 10
)

// scanReceipt runs the extraction pipeline on an uploaded receipt and stores the draft.
// Extraction failures still produce a row; only upload and store errors fail the request.
func (s *Server) scanReceipt(c *gin.Context) {
	ctx := c.Request.Context()
	log := common.LoggerFromContext(ctx, s.logger)

	// Hard cap on the whole body; the per-file limit is checked below.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload*2+multipartOverheadBudget)

	fh, err := c.FormFile(formFieldReceipt)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.scanFail(c, common.NewAppError("TOO_LARGE", "file exceeds the 1 MiB limit", common.ErrTooLarge))
			return
		}
		s.scanFail(c, common.NewAppError("NO_FILE", "No file uploaded. Ensure the field name is 'receipt'", common.ErrInvalidInput))
		return
	}
	if fh.Size > s.maxUpload {
		log.Warn("scan.rejected.too_large", zap.Int64("bytes", fh.Size), zap.Int64("limit", s.maxUpload))
		s.scanFail(c, common.NewAppError("TOO_LARGE", "file exceeds the 1 MiB limit", common.ErrTooLarge))
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.scanFail(c, common.NewAppError("UPLOAD_ERROR", "could not read upload", err))
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, s.maxUpload+1))
	if err != nil {
		s.scanFail(c, common.NewAppError("UPLOAD_ERROR", "could not read upload", err))
		return
	}
	if int64(len(data)) > s.maxUpload {
		s.scanFail(c, common.NewAppError("TOO_LARGE", "file exceeds the 1 MiB limit", common.ErrTooLarge))
		return
	}
	if len(data) == 0 {
		s.scanFail(c, common.NewAppError("EMPTY_FILE", "uploaded file is empty", common.ErrInvalidInput))
		return
	}

	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	if constants.MapMediaTypeToFormat(mediaType) == "" {
		log.Warn("scan.rejected.media_type", zap.String("detected", mediaType), zap.String("declared", fh.Header.Get("Content-Type")))
		s.scanFail(c, common.NewAppError("UNSUPPORTED_MEDIA", "only images and PDF files are accepted", common.ErrUnsupportedMedia))
		return
	}

	res := s.extractor.Run(ctx, extract.Document{Data: data, MediaType: mediaType, Filename: fh.Filename})

	created, err := s.expenses.CreateExpense(ctx, res.Draft.ToExpense(s.now()))
	if err != nil {
		s.scanFail(c, err)
		return
	}

	log.Info("scan.stored",
		zap.String("expense_id", created.ID.String()),
		zap.String("status", string(res.Status)),
		zap.String("reason", res.Reason),
	)
	c.Header(HeaderExtractionStatus, strings.ToLower(string(res.Status)))
	c.JSON(http.StatusOK, toExpenseResponse(created))
}

// scanFail writes {error}, the shape the upload client expects.
func (s *Server) scanFail(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		common.LoggerFromContext(c.Request.Context(), s.logger).Error("scan.failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: common.PublicMessage(err)})
}
