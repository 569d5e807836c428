package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	observationdomain "github.com/statboard/statboard/internal/observation/domain"
)

func (s *Server) CreateData(c *gin.Context) {
	var req observationdomain.DataInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.obs.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdateData(c *gin.Context) {
	var req observationdomain.DataInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.obs.UpdateStrict(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteData(c *gin.Context) {
	var req observationdomain.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	deleted, err := s.obs.Delete(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (s *Server) CreateCenterData(c *gin.Context) {
	var req observationdomain.CenterDataInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.obs.CreateCenter(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdateCenterData(c *gin.Context) {
	var req observationdomain.CenterDataInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.obs.UpdateCenterStrict(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteCenterData(c *gin.Context) {
	var req observationdomain.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	deleted, err := s.obs.DeleteCenter(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (s *Server) QueryData(c *gin.Context) {
	resp, err := s.obs.Query(c.Request.Context(), queryRequestFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) SnapshotData(c *gin.Context) {
	resp, err := s.obs.Snapshot(c.Request.Context(), queryRequestFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) SeriesData(c *gin.Context) {
	resp, err := s.obs.Series(c.Request.Context(), seriesRequestFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DataByDistrict(c *gin.Context) {
	req := observationdomain.LocationRequest{
		ID:       strings.TrimSpace(c.Query("district_id")),
		Name:     strings.TrimSpace(c.Query("district_name")),
		StatDate: strings.TrimSpace(c.Query("stat_date")),
	}

	resp, err := s.obs.ByDistrict(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DataByNameOrID(c *gin.Context) {
	req := observationdomain.LatestRequest{
		IndicatorID:   strings.TrimSpace(c.Query("indicator_id")),
		IndicatorName: strings.TrimSpace(c.Query("indicator_name")),
		StatDate:      strings.TrimSpace(c.Query("stat_date")),
		DistrictID:    strings.TrimSpace(c.Query("district_id")),
	}

	items, err := s.obs.LatestByIndicator(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) DataByMajor(c *gin.Context) {
	resp, err := s.obs.ByMajor(c.Request.Context(), matrixRequestFrom(c, "major_id", "major_name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DataByType(c *gin.Context) {
	resp, err := s.obs.ByType(c.Request.Context(), matrixRequestFrom(c, "type_id", "type_name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DataByCenter(c *gin.Context) {
	req := observationdomain.LocationRequest{
		ID:       strings.TrimSpace(c.Query("center_id")),
		Name:     strings.TrimSpace(c.Query("center_name")),
		StatDate: strings.TrimSpace(c.Query("stat_date")),
	}

	resp, err := s.obs.ByCenter(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) QueryCenterData(c *gin.Context) {
	resp, err := s.obs.QueryCenter(c.Request.Context(), centerQueryRequestFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) SeriesCenterData(c *gin.Context) {
	resp, err := s.obs.SeriesCenter(c.Request.Context(), seriesRequestFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CenterDataByNameOrID(c *gin.Context) {
	req := observationdomain.LatestRequest{
		IndicatorID:   strings.TrimSpace(c.Query("indicator_id")),
		IndicatorName: strings.TrimSpace(c.Query("indicator_name")),
		StatDate:      strings.TrimSpace(c.Query("stat_date")),
	}

	items, err := s.obs.LatestCenterByIndicator(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func queryRequestFrom(c *gin.Context) observationdomain.QueryRequest {
	return observationdomain.QueryRequest{
		IndicatorID:  strings.TrimSpace(c.Query("indicator_id")),
		DistrictID:   strings.TrimSpace(c.Query("district_id")),
		DistrictIDs:  splitQueryList(c.Query("district_ids")),
		DistrictName: strings.TrimSpace(c.Query("district_name")),
		CircleID:     optionalInt64Query(c, "circle_id"),
		MajorID:      strings.TrimSpace(c.Query("major_id")),
		TypeID:       strings.TrimSpace(c.Query("type_id")),
		StartDate:    strings.TrimSpace(c.Query("start_date")),
		EndDate:      strings.TrimSpace(c.Query("end_date")),
		Page:         intQuery(c, "page"),
		Size:         intQuery(c, "size"),
		OrderBy:      strings.TrimSpace(c.Query("order_by")),
		Desc:         boolQuery(c, "desc"),
	}
}

func centerQueryRequestFrom(c *gin.Context) observationdomain.CenterQueryRequest {
	return observationdomain.CenterQueryRequest{
		IndicatorID: strings.TrimSpace(c.Query("indicator_id")),
		CenterID:    strings.TrimSpace(c.Query("center_id")),
		DistrictID:  strings.TrimSpace(c.Query("district_id")),
		MajorID:     strings.TrimSpace(c.Query("major_id")),
		TypeID:      strings.TrimSpace(c.Query("type_id")),
		StartDate:   strings.TrimSpace(c.Query("start_date")),
		EndDate:     strings.TrimSpace(c.Query("end_date")),
		Page:        intQuery(c, "page"),
		Size:        intQuery(c, "size"),
		OrderBy:     strings.TrimSpace(c.Query("order_by")),
		Desc:        boolQuery(c, "desc"),
	}
}

func seriesRequestFrom(c *gin.Context) observationdomain.SeriesRequest {
	locationID := strings.TrimSpace(c.Query("district_id"))
	if locationID == "" {
		locationID = strings.TrimSpace(c.Query("center_id"))
	}

	return observationdomain.SeriesRequest{
		IndicatorID: strings.TrimSpace(c.Query("indicator_id")),
		LocationID:  locationID,
		StartDate:   strings.TrimSpace(c.Query("start_date")),
		EndDate:     strings.TrimSpace(c.Query("end_date")),
		Size:        intQuery(c, "size"),
	}
}

func matrixRequestFrom(c *gin.Context, idKey, nameKey string) observationdomain.MatrixRequest {
	return observationdomain.MatrixRequest{
		ID:           strings.TrimSpace(c.Query(idKey)),
		Name:         strings.TrimSpace(c.Query(nameKey)),
		DistrictID:   strings.TrimSpace(c.Query("district_id")),
		DistrictName: strings.TrimSpace(c.Query("district_name")),
		StatDate:     strings.TrimSpace(c.Query("stat_date")),
	}
}

func splitQueryList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func intQuery(c *gin.Context, name string) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}

func optionalInt64Query(c *gin.Context, name string) *int64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &value
}

func boolQuery(c *gin.Context, name string) bool {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}
