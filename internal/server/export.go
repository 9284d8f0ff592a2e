package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportExpenses streams an XLSX workbook for ?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Only from -> from..today; only to -> beginning..to; neither -> all.
func (s *Server) exportExpenses(c *gin.Context) {
	from, err := optionalDate(c.Query("from"), "from")
	if err != nil {
		s.fail(c, err)
		return
	}
	to, err := optionalDate(c.Query("to"), "to")
	if err != nil {
		s.fail(c, err)
		return
	}

	data, _, err := s.exporter.ExportExpensesXLSX(c.Request.Context(), from, to)
	if err != nil {
		s.fail(c, err)
		return
	}

	name := fmt.Sprintf("expenses-%s.xlsx", s.now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func optionalDate(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseYMD(raw)
	if err != nil {
		return nil, common.NewValidationError(field + " must be YYYY-MM-DD")
	}
	return &t, nil
}
