package server

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/statboard/statboard/internal/excel"
	"github.com/statboard/statboard/internal/ingest"
	observationdomain "github.com/statboard/statboard/internal/observation/domain"
	"github.com/statboard/statboard/internal/report"
	"github.com/statboard/statboard/pkg/db/pagination"
)

const (
	workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportPageSize      = 1000
)

var (
	flatExportHeaders = []string{
		"指标名称", "区县", "统计日期", "完成值", "基准值", "挑战值", "豁免值", "零容忍值", "得分",
	}
	flatCenterExportHeaders = []string{
		"指标名称", "区县", "支撑中心", "统计日期", "完成值", "基准值", "挑战值", "得分",
	}
)

func (s *Server) DownloadTemplate(c *gin.Context) {
	s.serveTemplate(c, excel.KindObservation, "indicator_import_template.xlsx")
}

func (s *Server) DownloadCenterTemplate(c *gin.Context) {
	s.serveTemplate(c, excel.KindCenterObservation, "center_indicator_import_template.xlsx")
}

func (s *Server) DownloadIndicatorTemplate(c *gin.Context) {
	s.serveTemplate(c, excel.KindIndicatorManage, "indicator_manage_template.xlsx")
}

func (s *Server) serveTemplate(c *gin.Context, kind excel.Kind, filename string) {
	data, err := s.exports.Do(c.Request.Context(), func() ([]byte, error) {
		return excel.BuildTemplate(kind)
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	serveWorkbook(c, filename, data)
}

func (s *Server) UploadData(c *gin.Context) {
	s.uploadObservations(c, excel.KindObservation, ingest.ModeDistrict)
}

func (s *Server) UploadCenterData(c *gin.Context) {
	s.uploadObservations(c, excel.KindCenterObservation, ingest.ModeCenter)
}

func (s *Server) uploadObservations(c *gin.Context, kind excel.Kind, mode ingest.Mode) {
	rows, ok := s.readUploadRows(c, kind)
	if !ok {
		return
	}

	result, err := s.ingestor.IngestObservations(c.Request.Context(), rows, mode)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if result.Failed() {
		AbortWithError(c, newUploadError(result.Errors))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Data uploaded successfully",
		"count":   result.RowCount,
	})
}

func (s *Server) UploadIndicators(c *gin.Context) {
	rows, ok := s.readUploadRows(c, excel.KindIndicatorManage)
	if !ok {
		return
	}

	result, err := s.ingestor.IngestIndicators(c.Request.Context(), rows)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if result.Failed() {
		AbortWithError(c, newUploadError(result.Errors))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"created": result.Created,
		"updated": result.Updated,
	})
}

func (s *Server) readUploadRows(c *gin.Context, kind excel.Kind) ([]ingest.Row, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return nil, false
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xls" && ext != ".xlsx" {
		AbortWithError(c, newValidationError("file", "invalid_format", "only .xls and .xlsx files are accepted"))
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}

	// Parsing a workbook is as heavy as building one, so it counts
	// against the same slot budget as the exports.
	var rows []ingest.Row
	err = s.exports.Run(c.Request.Context(), func() error {
		var parseErr error
		rows, parseErr = excel.ParseUpload(data, kind)
		return parseErr
	})
	if err != nil {
		if c.Request.Context().Err() != nil {
			AbortWithError(c, err)
		} else {
			AbortWithError(c, newValidationError("file", "invalid_workbook", err.Error()))
		}
		return nil, false
	}

	return rows, true
}

func (s *Server) ExportData(c *gin.Context) {
	req := queryRequestFrom(c)
	ctx := c.Request.Context()

	data, err := s.exports.Do(ctx, func() ([]byte, error) {
		items, err := s.collectObservations(c, req)
		if err != nil {
			return nil, err
		}

		rows := make([][]any, 0, len(items))
		for _, item := range items {
			rows = append(rows, []any{
				item.IndicatorName,
				item.DistrictName,
				item.StatDate,
				item.Value,
				item.Benchmark,
				item.Challenge,
				item.Exemption,
				item.ZeroTolerance,
				item.Score,
			})
		}
		return excel.BuildFlatExport(flatExportHeaders, rows)
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	serveWorkbook(c, "metrics_export.xlsx", data)
}

func (s *Server) ExportCenterData(c *gin.Context) {
	req := centerQueryRequestFrom(c)
	ctx := c.Request.Context()

	data, err := s.exports.Do(ctx, func() ([]byte, error) {
		items, err := s.collectCenterObservations(c, req)
		if err != nil {
			return nil, err
		}

		rows := make([][]any, 0, len(items))
		for _, item := range items {
			districtName := ""
			if item.DistrictName != nil {
				districtName = *item.DistrictName
			}
			rows = append(rows, []any{
				item.IndicatorName,
				districtName,
				item.CenterName,
				item.StatDate,
				item.Value,
				item.Benchmark,
				item.Challenge,
				item.Score,
			})
		}
		return excel.BuildFlatExport(flatCenterExportHeaders, rows)
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	serveWorkbook(c, "center_metrics_export.xlsx", data)
}

func (s *Server) ExportPivot(c *gin.Context) {
	req := queryRequestFrom(c)
	ctx := c.Request.Context()

	data, err := s.exports.Do(ctx, func() ([]byte, error) {
		items, err := s.collectObservations(c, req)
		if err != nil {
			return nil, err
		}

		rows := make([]report.SourceRow, 0, len(items))
		for _, item := range items {
			rows = append(rows, report.SourceRow{
				StatDate:      item.StatDate,
				LocationID:    parseSnowflake(item.DistrictID),
				Labels:        []string{strconv.FormatInt(item.CircleID, 10), item.DistrictName},
				IndicatorID:   parseSnowflake(item.IndicatorID),
				IndicatorName: item.IndicatorName,
				Polarity:      item.Polarity,
				Value:         item.Value,
				Score:         item.Score,
			})
		}

		pivot := report.Build(rows, report.Options{
			LabelHeaders: excel.PivotDistrictHeaders,
			ScoreSuffix:  excel.ScoreSuffix,
			MeanLabel:    excel.MeanRowLabel,
			BestLabel:    excel.BestRowLabel,
		})
		return excel.BuildPivot(pivot)
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	serveWorkbook(c, "metrics_export.xlsx", data)
}

func (s *Server) ExportCenterPivot(c *gin.Context) {
	req := centerQueryRequestFrom(c)
	ctx := c.Request.Context()

	data, err := s.exports.Do(ctx, func() ([]byte, error) {
		items, err := s.collectCenterObservations(c, req)
		if err != nil {
			return nil, err
		}

		rows := make([]report.SourceRow, 0, len(items))
		for _, item := range items {
			districtName := ""
			if item.DistrictName != nil {
				districtName = *item.DistrictName
			}
			rows = append(rows, report.SourceRow{
				StatDate:      item.StatDate,
				LocationID:    parseSnowflake(item.CenterID),
				Labels:        []string{districtName, item.CenterName},
				IndicatorID:   parseSnowflake(item.IndicatorID),
				IndicatorName: item.IndicatorName,
				Polarity:      item.Polarity,
				Value:         item.Value,
				Score:         item.Score,
			})
		}

		pivot := report.Build(rows, report.Options{
			LabelHeaders: excel.PivotCenterHeaders,
			ScoreSuffix:  excel.ScoreSuffix,
			MeanLabel:    excel.MeanRowLabel,
			BestLabel:    excel.BestRowLabel,
		})
		return excel.BuildPivot(pivot)
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	serveWorkbook(c, "center_metrics_export.xlsx", data)
}

// collectObservations walks every page of the filtered query so the
// export covers the full result set.
func (s *Server) collectObservations(c *gin.Context, req observationdomain.QueryRequest) ([]observationdomain.Response, error) {
	req.Size = exportPageSize

	var items []observationdomain.Response
	for page := 1; ; page++ {
		req.Page = page
		result, err := s.obs.Query(c.Request.Context(), req)
		if err != nil {
			return nil, err
		}

		items = append(items, result.Items...)
		probe := pagination.Pagination{Page: page, Size: exportPageSize}
		if probe.Exhausted(result.Total) || len(result.Items) == 0 {
			break
		}
	}
	return items, nil
}

func (s *Server) collectCenterObservations(c *gin.Context, req observationdomain.CenterQueryRequest) ([]observationdomain.CenterResponse, error) {
	req.Size = exportPageSize

	var items []observationdomain.CenterResponse
	for page := 1; ; page++ {
		req.Page = page
		result, err := s.obs.QueryCenter(c.Request.Context(), req)
		if err != nil {
			return nil, err
		}

		items = append(items, result.Items...)
		probe := pagination.Pagination{Page: page, Size: exportPageSize}
		if probe.Exhausted(result.Total) || len(result.Items) == 0 {
			break
		}
	}
	return items, nil
}

func serveWorkbook(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, workbookContentType, data)
}

func parseSnowflake(raw string) snowflake.ID {
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0
	}
	return id
}
