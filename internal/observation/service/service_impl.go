package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	centerdomain "github.com/statboard/statboard/internal/center/domain"
	districtdomain "github.com/statboard/statboard/internal/district/domain"
	evaldomain "github.com/statboard/statboard/internal/evaluationtype/domain"
	indicatordomain "github.com/statboard/statboard/internal/indicator/domain"
	majordomain "github.com/statboard/statboard/internal/major/domain"
	obsdomain "github.com/statboard/statboard/internal/observation/domain"
	pkgdb "github.com/statboard/statboard/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       obsdomain.Repository
	Indicators indicatordomain.Repository
	Districts  districtdomain.Repository
	Centers    centerdomain.Repository
	Majors     majordomain.Repository
	Types      evaldomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       obsdomain.Repository
	indicators indicatordomain.Repository
	districts  districtdomain.Repository
	centers    centerdomain.Repository
	majors     majordomain.Repository
	types      evaldomain.Repository
}

func New(p Params) obsdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("observation.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		indicators: p.Indicators,
		districts:  p.Districts,
		centers:    p.Centers,
		majors:     p.Majors,
		types:      p.Types,
	}
}

func (s *Service) Create(ctx context.Context, req obsdomain.DataInput) (*obsdomain.Response, error) {
	indicatorID, err := parseID(req.IndicatorID)
	if err != nil {
		return nil, obsdomain.ErrInvalidID
	}
	districtID, err := parseID(req.DistrictID)
	if err != nil {
		return nil, obsdomain.ErrInvalidID
	}
	statDate, err := obsdomain.ParseDate(req.StatDate)
	if err != nil {
		return nil, err
	}

	ind, err := s.indicators.FindByID(ctx, s.db, indicatorID)
	if err != nil {
		return nil, err
	}
	if ind == nil {
		return nil, obsdomain.ErrNotFound
	}
	district, err := s.districts.FindByID(ctx, s.db, districtID)
	if err != nil {
		return nil, err
	}
	if district == nil {
		return nil, obsdomain.ErrNotFound
	}

	typeID, err := effectiveType(req.TypeID, ind.TypeID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByKey(ctx, s.db, ind.ID, district.ID, statDate)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if existing == nil {
		obs := &obsdomain.Observation{
			ID:            s.genID.Generate(),
			IndicatorID:   ind.ID,
			IndicatorName: ind.Name,
			TypeID:        typeID,
			MajorID:       ind.MajorID,
			Polarity:      ind.Polarity,
			CircleID:      int64(district.CircleID),
			DistrictID:    district.ID,
			DistrictName:  district.Name,
			StatDate:      statDate,
			Value:         req.Value,
			Benchmark:     req.Benchmark,
			Challenge:     req.Challenge,
			Exemption:     req.Exemption,
			ZeroTolerance: req.ZeroTolerance,
			Score:         req.Score,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err := s.repo.Insert(ctx, s.db, obs)
		if err == nil {
			return toResponse(obs), nil
		}
		if !pkgdb.IsDuplicateKeyErr(err) {
			return nil, err
		}
		// A concurrent writer claimed the key first; this write
		// becomes an update of the row that won.
		existing, err = s.repo.FindByKey(ctx, s.db, ind.ID, district.ID, statDate)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, obsdomain.ErrNotFound
		}
	}

	existing.Value = req.Value
	existing.Benchmark = req.Benchmark
	existing.Challenge = req.Challenge
	existing.Exemption = req.Exemption
	existing.ZeroTolerance = req.ZeroTolerance
	if req.Score != nil {
		existing.Score = req.Score
	}
	// Classification is backfill-only: a previously set type or major
	// never changes through the data path.
	if existing.TypeID == 0 {
		existing.TypeID = typeID
	}
	if existing.MajorID == 0 {
		existing.MajorID = ind.MajorID
	}
	existing.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return nil, err
	}
	return toResponse(existing), nil
}

func (s *Service) UpdateStrict(ctx context.Context, req obsdomain.DataInput) (*obsdomain.Response, error) {
	indicatorID, err := parseID(req.IndicatorID)
	if err != nil {
		return nil, obsdomain.ErrInvalidID
	}
	districtID, err := parseID(req.DistrictID)
	if err != nil {
		return nil, obsdomain.ErrInvalidID
	}
	statDate, err := obsdomain.ParseDate(req.StatDate)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByKey(ctx, s.db, indicatorID, districtID, statDate)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, obsdomain.ErrNotFound
	}

	existing.Value = req.Value
	existing.Benchmark = req.Benchmark
	existing.Challenge = req.Challenge
	existing.Exemption = req.Exemption
	existing.ZeroTolerance = req.ZeroTolerance
	existing.Score = req.Score
	existing.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return nil, err
	}
	return toResponse(existing), nil
}

func (s *Service) Delete(ctx context.Context, req obsdomain.DeleteRequest) (int64, error) {
	filter, err := deleteFilter(req)
	if err != nil {
		return 0, err
	}
	return s.repo.DeleteWhere(ctx, s.db, filter)
}

func (s *Service) Query(ctx context.Context, req obsdomain.QueryRequest) (*obsdomain.QueryResult[obsdomain.Response], error) {
	filter, err := queryFilter(req)
	if err != nil {
		return nil, err
	}
	page, size := normalizePage(req.Page, req.Size, 50)
	rows, total, err := s.repo.Query(ctx, s.db, filter, obsdomain.Sort{Column: req.OrderBy, Desc: req.Desc}, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	return &obsdomain.QueryResult[obsdomain.Response]{Items: toResponses(rows), Total: total}, nil
}

func (s *Service) Series(ctx context.Context, req obsdomain.SeriesRequest) (*obsdomain.QueryResult[obsdomain.Response], error) {
	indicatorID, err := parseID(req.IndicatorID)
	if err != nil {
		return nil, obsdomain.ErrInvalidID
	}
	districtID, err := optID(req.LocationID)
	if err != nil {
		return nil, err
	}
	startDate, err := optDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := optDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	size := req.Size
	if size <= 0 || size > 1000 {
		size = 180
	}
	rows, total, err := s.repo.Series(ctx, s.db, indicatorID, districtID, startDate, endDate, size)
	if err != nil {
		return nil, err
	}
	return &obsdomain.QueryResult[obsdomain.Response]{Items: toResponses(rows), Total: total}, nil
}

func (s *Service) Snapshot(ctx context.Context, req obsdomain.QueryRequest) (*obsdomain.QueryResult[obsdomain.Response], error) {
	filter, err := queryFilter(req)
	if err != nil {
		return nil, err
	}
	page, size := normalizePage(req.Page, req.Size, 50)
	rows, total, err := s.repo.Snapshot(ctx, s.db, filter, obsdomain.Sort{Column: req.OrderBy, Desc: req.Desc}, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	return &obsdomain.QueryResult[obsdomain.Response]{Items: toResponses(rows), Total: total}, nil
}

func (s *Service) LatestByIndicator(ctx context.Context, req obsdomain.LatestRequest) ([]obsdomain.Response, error) {
	indicatorID, err := s.resolveIndicator(ctx, req.IndicatorID, req.IndicatorName)
	if err != nil || indicatorID == 0 {
		return []obsdomain.Response{}, err
	}

	var statDate *datatypes.Date
	if req.StatDate != "" {
		d, err := obsdomain.ParseDate(req.StatDate)
		if err != nil {
			return nil, err
		}
		statDate = &d
	} else {
		statDate, err = s.repo.LatestDateForIndicator(ctx, s.db, indicatorID)
		if err != nil {
			return nil, err
		}
	}
	if statDate == nil {
		return []obsdomain.Response{}, nil
	}

	rows, err := s.repo.ListByIndicatorAndDate(ctx, s.db, indicatorID, *statDate)
	if err != nil {
		return nil, err
	}
	return toResponses(rows), nil
}

func (s *Service) ByDistrict(ctx context.Context, req obsdomain.LocationRequest) (*obsdomain.DistrictReport, error) {
	district, err := s.resolveDistrict(ctx, req.ID, req.Name)
	if err != nil {
		return nil, err
	}

	statDate, err := s.resolveDate(ctx, req.StatDate, func(ctx context.Context) (*datatypes.Date, error) {
		return s.repo.LatestDateForDistrict(ctx, s.db, district.ID)
	})
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByDistrictAndDate(ctx, s.db, district.ID, statDate)
	if err != nil {
		return nil, err
	}

	items := make([]obsdomain.ReportItem, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		items = append(items, obsdomain.ReportItem{
			IndicatorName: r.IndicatorName,
			Value:         r.Value,
			Benchmark:     r.Benchmark,
			Challenge:     r.Challenge,
			Exemption:     r.Exemption,
			ZeroTolerance: r.ZeroTolerance,
			Score:         r.Score,
		})
	}
	return &obsdomain.DistrictReport{
		DistrictID:   district.ID.String(),
		DistrictName: district.Name,
		StatDate:     obsdomain.FormatDate(statDate),
		Indicators:   items,
	}, nil
}

func (s *Service) ByMajor(ctx context.Context, req obsdomain.MatrixRequest) (*obsdomain.MatrixReport, error) {
	major, err := s.resolveMajor(ctx, req.ID, req.Name)
	if err != nil {
		return nil, err
	}
	indicators, err := s.indicators.ListByMajor(ctx, s.db, major.ID)
	if err != nil {
		return nil, err
	}
	report, err := s.buildMatrix(ctx, indicators, req)
	if err != nil {
		return nil, err
	}
	report.ID = major.ID.String()
	report.Name = major.Name
	return report, nil
}

func (s *Service) ByType(ctx context.Context, req obsdomain.MatrixRequest) (*obsdomain.MatrixReport, error) {
	et, err := s.resolveType(ctx, req.ID, req.Name)
	if err != nil {
		return nil, err
	}
	indicators, err := s.indicators.ListByType(ctx, s.db, et.ID)
	if err != nil {
		return nil, err
	}
	report, err := s.buildMatrix(ctx, indicators, req)
	if err != nil {
		return nil, err
	}
	report.ID = et.ID.String()
	report.Name = et.Name
	return report, nil
}

// buildMatrix lays one value per (indicator, district) out as
// indicator-major rows over district columns, using the requested date
// or else the latest row per pair.
func (s *Service) buildMatrix(ctx context.Context, indicators []indicatordomain.Indicator, req obsdomain.MatrixRequest) (*obsdomain.MatrixReport, error) {
	if len(indicators) == 0 {
		return &obsdomain.MatrixReport{StatDate: "", Indicators: []obsdomain.IndicatorSeries{}}, nil
	}

	indicatorIDs := make([]snowflake.ID, 0, len(indicators))
	for i := range indicators {
		indicatorIDs = append(indicatorIDs, indicators[i].ID)
	}

	var statDate *datatypes.Date
	if req.StatDate != "" {
		d, err := obsdomain.ParseDate(req.StatDate)
		if err != nil {
			return nil, err
		}
		statDate = &d
	} else {
		latest, err := s.repo.LatestDateForIndicators(ctx, s.db, indicatorIDs)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, obsdomain.ErrNoData
		}
		statDate = latest
	}

	districts, err := s.matrixDistricts(ctx, req)
	if err != nil {
		return nil, err
	}

	var data []obsdomain.Observation
	if req.StatDate != "" {
		data, err = s.repo.ListByIndicatorsAndDate(ctx, s.db, indicatorIDs, *statDate)
	} else {
		data, err = s.repo.LatestPerPair(ctx, s.db, indicatorIDs)
	}
	if err != nil {
		return nil, err
	}

	type key struct {
		indicator snowflake.ID
		district  snowflake.ID
	}
	values := make(map[key]*float64, len(data))
	for i := range data {
		values[key{data[i].IndicatorID, data[i].DistrictID}] = data[i].Value
	}

	series := make([]obsdomain.IndicatorSeries, 0, len(indicators))
	for i := range indicators {
		ind := &indicators[i]
		cells := make([]obsdomain.DistrictValue, 0, len(districts))
		for j := range districts {
			d := &districts[j]
			cells = append(cells, obsdomain.DistrictValue{
				DistrictID:   d.ID.String(),
				DistrictName: d.Name,
				Value:        values[key{ind.ID, d.ID}],
			})
		}
		series = append(series, obsdomain.IndicatorSeries{
			IndicatorID:   ind.ID.String(),
			IndicatorName: ind.Name,
			Districts:     cells,
		})
	}
	return &obsdomain.MatrixReport{
		StatDate:   obsdomain.FormatDate(*statDate),
		Indicators: series,
	}, nil
}

func (s *Service) matrixDistricts(ctx context.Context, req obsdomain.MatrixRequest) ([]districtdomain.District, error) {
	if req.DistrictID != "" || req.DistrictName != "" {
		district, err := s.resolveDistrict(ctx, req.DistrictID, req.DistrictName)
		if err != nil {
			return nil, err
		}
		return []districtdomain.District{*district}, nil
	}
	districts, err := s.districts.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if len(districts) == 0 {
		return nil, obsdomain.ErrNotFound
	}
	return districts, nil
}

func (s *Service) CreateCenter(ctx context.Context, req obsdomain.CenterDataInput) (*obsdomain.CenterResponse, error) {
	indicatorID, err := parseID(req.IndicatorID)
	if err != nil {
		return nil, obsdomain.ErrInvalidID
	}
	centerID, err := parseID(req.CenterID)
	if err != nil {
		return nil, obsdomain.ErrInvalidID
	}
	statDate, err := obsdomain.ParseDate(req.StatDate)
	if err != nil {
		return nil, err
	}

	ind, err := s.indicators.FindByID(ctx, s.db, indicatorID)
	if err != nil {
		return nil, err
	}
	if ind == nil {
		return nil, obsdomain.ErrNotFound
	}
	center, err := s.centers.FindByID(ctx, s.db, centerID)
	if err != nil {
		return nil, err
	}
	if center == nil {
		return nil, obsdomain.ErrNotFound
	}

	typeID, err := effectiveType(req.TypeID, ind.TypeID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindCenterByKey(ctx, s.db, ind.ID, center.ID, statDate)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if existing == nil {
		obs := &obsdomain.CenterObservation{
			ID:            s.genID.Generate(),
			IndicatorID:   ind.ID,
			IndicatorName: ind.Name,
			TypeID:        typeID,
			MajorID:       ind.MajorID,
			Polarity:      ind.Polarity,
			CenterID:      center.ID,
			CenterName:    center.Name,
			StatDate:      statDate,
			Value:         req.Value,
			Benchmark:     req.Benchmark,
			Challenge:     req.Challenge,
			Score:         req.Score,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err := s.repo.InsertCenter(ctx, s.db, obs)
		if err == nil {
			return s.toCenterResponse(ctx, obs, center)
		}
		if !pkgdb.IsDuplicateKeyErr(err) {
			return nil, err
		}
		existing, err = s.repo.FindCenterByKey(ctx, s.db, ind.ID, center.ID, statDate)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, obsdomain.ErrNotFound
		}
	}

	existing.Value = req.Value
	existing.Benchmark = req.Benchmark
	existing.Challenge = req.Challenge
	if req.Score != nil {
		existing.Score = req.Score
	}
	if existing.TypeID == 0 {
		existing.TypeID = typeID
	}
	if existing.MajorID == 0 {
		existing.MajorID = ind.MajorID
	}
	existing.UpdatedAt = now
	if err := s.repo.UpdateCenter(ctx, s.db, existing); err != nil {
		return nil, err
	}
	return s.toCenterResponse(ctx, existing, center)
}

func (s *Service) UpdateCenterStrict(ctx context.Context, req obsdomain.CenterDataInput) (*obsdomain.CenterResponse, error) {
	indicatorID, err := parseID(req.IndicatorID)
	if err != nil {
		return nil, obsdomain.ErrInvalidID
	}
	centerID, err := parseID(req.CenterID)
	if err != nil {
		return nil, obsdomain.ErrInvalidID
	}
	statDate, err := obsdomain.ParseDate(req.StatDate)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindCenterByKey(ctx, s.db, indicatorID, centerID, statDate)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, obsdomain.ErrNotFound
	}

	existing.Value = req.Value
	existing.Benchmark = req.Benchmark
	existing.Challenge = req.Challenge
	existing.Score = req.Score
	existing.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateCenter(ctx, s.db, existing); err != nil {
		return nil, err
	}
	return s.toCenterResponse(ctx, existing, nil)
}

func (s *Service) DeleteCenter(ctx context.Context, req obsdomain.DeleteRequest) (int64, error) {
	filter, err := deleteFilter(req)
	if err != nil {
		return 0, err
	}
	return s.repo.DeleteCenterWhere(ctx, s.db, filter)
}

func (s *Service) QueryCenter(ctx context.Context, req obsdomain.CenterQueryRequest) (*obsdomain.QueryResult[obsdomain.CenterResponse], error) {
	filter := obsdomain.CenterQueryFilter{}
	var err error
	if filter.IndicatorID, err = optID(req.IndicatorID); err != nil {
		return nil, err
	}
	if filter.CenterID, err = optID(req.CenterID); err != nil {
		return nil, err
	}
	if filter.DistrictID, err = optID(req.DistrictID); err != nil {
		return nil, err
	}
	if filter.MajorID, err = optID(req.MajorID); err != nil {
		return nil, err
	}
	if filter.TypeID, err = optID(req.TypeID); err != nil {
		return nil, err
	}
	if filter.StartDate, err = optDate(req.StartDate); err != nil {
		return nil, err
	}
	if filter.EndDate, err = optDate(req.EndDate); err != nil {
		return nil, err
	}

	page, size := normalizePage(req.Page, req.Size, 50)
	rows, total, err := s.repo.QueryCenter(ctx, s.db, filter, obsdomain.Sort{Column: req.OrderBy, Desc: req.Desc}, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	return &obsdomain.QueryResult[obsdomain.CenterResponse]{Items: toCenterRowResponses(rows), Total: total}, nil
}

func (s *Service) SeriesCenter(ctx context.Context, req obsdomain.SeriesRequest) (*obsdomain.QueryResult[obsdomain.CenterResponse], error) {
	indicatorID, err := parseID(req.IndicatorID)
	if err != nil {
		return nil, obsdomain.ErrInvalidID
	}
	centerID, err := optID(req.LocationID)
	if err != nil {
		return nil, err
	}
	startDate, err := optDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := optDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	size := req.Size
	if size <= 0 || size > 1000 {
		size = 180
	}
	rows, total, err := s.repo.SeriesCenter(ctx, s.db, indicatorID, centerID, startDate, endDate, size)
	if err != nil {
		return nil, err
	}
	return &obsdomain.QueryResult[obsdomain.CenterResponse]{Items: toCenterRowResponses(rows), Total: total}, nil
}

func (s *Service) LatestCenterByIndicator(ctx context.Context, req obsdomain.LatestRequest) ([]obsdomain.CenterLatestResponse, error) {
	indicatorID, err := s.resolveIndicator(ctx, req.IndicatorID, req.IndicatorName)
	if err != nil || indicatorID == 0 {
		return []obsdomain.CenterLatestResponse{}, err
	}
	districtID, err := optID(req.DistrictID)
	if err != nil {
		return nil, err
	}

	var statDate *datatypes.Date
	if req.StatDate != "" {
		d, err := obsdomain.ParseDate(req.StatDate)
		if err != nil {
			return nil, err
		}
		statDate = &d
	} else {
		statDate, err = s.repo.LatestCenterDateForIndicator(ctx, s.db, indicatorID, districtID)
		if err != nil {
			return nil, err
		}
	}
	if statDate == nil {
		return []obsdomain.CenterLatestResponse{}, nil
	}

	rows, err := s.repo.ListCenterByIndicatorAndDate(ctx, s.db, indicatorID, *statDate, districtID)
	if err != nil {
		return nil, err
	}
	out := make([]obsdomain.CenterLatestResponse, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		resp := obsdomain.CenterLatestResponse{
			IndicatorID:   r.IndicatorID.String(),
			IndicatorName: r.IndicatorName,
			CenterID:      r.CenterID.String(),
			CenterName:    r.CenterName,
			DistrictName:  r.DistrictName,
			StatDate:      obsdomain.FormatDate(r.StatDate),
			Value:         r.Value,
			Score:         r.Score,
		}
		if r.DistrictID != 0 {
			resp.DistrictID = r.DistrictID.String()
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) ByCenter(ctx context.Context, req obsdomain.LocationRequest) (*obsdomain.CenterReport, error) {
	center, err := s.resolveCenter(ctx, req.ID, req.Name)
	if err != nil {
		return nil, err
	}

	statDate, err := s.resolveDate(ctx, req.StatDate, func(ctx context.Context) (*datatypes.Date, error) {
		return s.repo.LatestDateForCenter(ctx, s.db, center.ID)
	})
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByCenterAndDate(ctx, s.db, center.ID, statDate)
	if err != nil {
		return nil, err
	}

	report := &obsdomain.CenterReport{
		CenterID:   center.ID.String(),
		CenterName: center.Name,
		StatDate:   obsdomain.FormatDate(statDate),
		Indicators: make([]obsdomain.ReportItem, 0, len(rows)),
	}
	if center.DistrictID != 0 {
		report.DistrictID = center.DistrictID.String()
		district, err := s.districts.FindByID(ctx, s.db, center.DistrictID)
		if err != nil {
			return nil, err
		}
		if district != nil {
			report.DistrictName = &district.Name
		}
	}
	for i := range rows {
		r := &rows[i]
		report.Indicators = append(report.Indicators, obsdomain.ReportItem{
			IndicatorName: r.IndicatorName,
			Value:         r.Value,
			Benchmark:     r.Benchmark,
			Challenge:     r.Challenge,
			Score:         r.Score,
		})
	}
	return report, nil
}

func (s *Service) resolveIndicator(ctx context.Context, id, name string) (snowflake.ID, error) {
	if strings.TrimSpace(id) != "" {
		return parseID(id)
	}
	if strings.TrimSpace(name) == "" {
		return 0, nil
	}
	ind, err := s.indicators.FindByName(ctx, s.db, strings.TrimSpace(name))
	if err != nil {
		return 0, err
	}
	if ind == nil {
		return 0, nil
	}
	return ind.ID, nil
}

func (s *Service) resolveDistrict(ctx context.Context, id, name string) (*districtdomain.District, error) {
	switch {
	case strings.TrimSpace(id) != "":
		districtID, err := parseID(id)
		if err != nil {
			return nil, obsdomain.ErrInvalidID
		}
		district, err := s.districts.FindByID(ctx, s.db, districtID)
		if err != nil {
			return nil, err
		}
		if district == nil {
			return nil, obsdomain.ErrNotFound
		}
		return district, nil
	case strings.TrimSpace(name) != "":
		district, err := s.districts.FindByName(ctx, s.db, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if district == nil {
			return nil, obsdomain.ErrNotFound
		}
		return district, nil
	default:
		return nil, obsdomain.ErrMissingSelector
	}
}

func (s *Service) resolveCenter(ctx context.Context, id, name string) (*centerdomain.Center, error) {
	switch {
	case strings.TrimSpace(id) != "":
		centerID, err := parseID(id)
		if err != nil {
			return nil, obsdomain.ErrInvalidID
		}
		center, err := s.centers.FindByID(ctx, s.db, centerID)
		if err != nil {
			return nil, err
		}
		if center == nil {
			return nil, obsdomain.ErrNotFound
		}
		return center, nil
	case strings.TrimSpace(name) != "":
		center, err := s.centers.FindByName(ctx, s.db, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if center == nil {
			return nil, obsdomain.ErrNotFound
		}
		return center, nil
	default:
		return nil, obsdomain.ErrMissingSelector
	}
}

func (s *Service) resolveMajor(ctx context.Context, id, name string) (*majordomain.Major, error) {
	switch {
	case strings.TrimSpace(id) != "":
		majorID, err := parseID(id)
		if err != nil {
			return nil, obsdomain.ErrInvalidID
		}
		major, err := s.majors.FindByID(ctx, s.db, majorID)
		if err != nil {
			return nil, err
		}
		if major == nil {
			return nil, obsdomain.ErrNotFound
		}
		return major, nil
	case strings.TrimSpace(name) != "":
		major, err := s.majors.FindByName(ctx, s.db, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if major == nil {
			return nil, obsdomain.ErrNotFound
		}
		return major, nil
	default:
		return nil, obsdomain.ErrMissingSelector
	}
}

func (s *Service) resolveType(ctx context.Context, id, name string) (*evaldomain.EvaluationType, error) {
	switch {
	case strings.TrimSpace(id) != "":
		typeID, err := parseID(id)
		if err != nil {
			return nil, obsdomain.ErrInvalidID
		}
		et, err := s.types.FindByID(ctx, s.db, typeID)
		if err != nil {
			return nil, err
		}
		if et == nil {
			return nil, obsdomain.ErrNotFound
		}
		return et, nil
	case strings.TrimSpace(name) != "":
		et, err := s.types.FindByName(ctx, s.db, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if et == nil {
			return nil, obsdomain.ErrNotFound
		}
		return et, nil
	default:
		return nil, obsdomain.ErrMissingSelector
	}
}

func (s *Service) resolveDate(ctx context.Context, raw string, latest func(context.Context) (*datatypes.Date, error)) (datatypes.Date, error) {
	if raw != "" {
		return obsdomain.ParseDate(raw)
	}
	d, err := latest(ctx)
	if err != nil {
		return datatypes.Date{}, err
	}
	if d == nil {
		return datatypes.Date{}, obsdomain.ErrNoData
	}
	return *d, nil
}

func (s *Service) toCenterResponse(ctx context.Context, obs *obsdomain.CenterObservation, center *centerdomain.Center) (*obsdomain.CenterResponse, error) {
	resp := centerResponse(obs)
	if center == nil {
		found, err := s.centers.FindByID(ctx, s.db, obs.CenterID)
		if err != nil {
			return nil, err
		}
		center = found
	}
	if center != nil && center.DistrictID != 0 {
		resp.DistrictID = center.DistrictID.String()
		district, err := s.districts.FindByID(ctx, s.db, center.DistrictID)
		if err != nil {
			return nil, err
		}
		if district != nil {
			resp.DistrictName = &district.Name
		}
	}
	return resp, nil
}

func queryFilter(req obsdomain.QueryRequest) (obsdomain.QueryFilter, error) {
	filter := obsdomain.QueryFilter{CircleID: req.CircleID}
	var err error
	if filter.IndicatorID, err = optID(req.IndicatorID); err != nil {
		return filter, err
	}
	if filter.DistrictID, err = optID(req.DistrictID); err != nil {
		return filter, err
	}
	for _, raw := range req.DistrictIDs {
		id, err := parseID(raw)
		if err != nil {
			return filter, obsdomain.ErrInvalidID
		}
		filter.DistrictIDs = append(filter.DistrictIDs, id)
	}
	if name := strings.TrimSpace(req.DistrictName); name != "" {
		filter.DistrictName = &name
	}
	if filter.MajorID, err = optID(req.MajorID); err != nil {
		return filter, err
	}
	if filter.TypeID, err = optID(req.TypeID); err != nil {
		return filter, err
	}
	if filter.StartDate, err = optDate(req.StartDate); err != nil {
		return filter, err
	}
	if filter.EndDate, err = optDate(req.EndDate); err != nil {
		return filter, err
	}
	return filter, nil
}

func deleteFilter(req obsdomain.DeleteRequest) (obsdomain.DeleteFilter, error) {
	filter := obsdomain.DeleteFilter{}
	for _, raw := range req.IDs {
		id, err := parseID(raw)
		if err != nil {
			return filter, obsdomain.ErrInvalidID
		}
		filter.IDs = append(filter.IDs, id)
	}
	var err error
	if filter.IndicatorID, err = optID(req.IndicatorID); err != nil {
		return filter, err
	}
	if filter.LocationID, err = optID(req.LocationID); err != nil {
		return filter, err
	}
	if filter.StartDate, err = optDate(req.StartDate); err != nil {
		return filter, err
	}
	if filter.EndDate, err = optDate(req.EndDate); err != nil {
		return filter, err
	}
	if filter.Empty() {
		return filter, obsdomain.ErrMissingConstraint
	}
	return filter, nil
}

// effectiveType validates an explicit override against the indicator's
// own classification and picks whichever is set.
func effectiveType(raw string, indicatorType snowflake.ID) (snowflake.ID, error) {
	override, err := optID(raw)
	if err != nil {
		return 0, err
	}
	if override == nil {
		return indicatorType, nil
	}
	if indicatorType != 0 && *override != indicatorType {
		return 0, obsdomain.ErrTypeMismatch
	}
	return *override, nil
}

func normalizePage(page, size, defaultSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > 1000 {
		size = 1000
	}
	return page, size
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, obsdomain.ErrInvalidID
	}
	return id, nil
}

func optID(raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optDate(raw string) (*datatypes.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := obsdomain.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func toResponses(rows []obsdomain.Observation) []obsdomain.Response {
	out := make([]obsdomain.Response, 0, len(rows))
	for i := range rows {
		out = append(out, *toResponse(&rows[i]))
	}
	return out
}

func toResponse(obs *obsdomain.Observation) *obsdomain.Response {
	resp := &obsdomain.Response{
		ID:            obs.ID.String(),
		IndicatorID:   obs.IndicatorID.String(),
		IndicatorName: obs.IndicatorName,
		Polarity:      obs.Polarity,
		CircleID:      obs.CircleID,
		DistrictID:    obs.DistrictID.String(),
		DistrictName:  obs.DistrictName,
		StatDate:      obsdomain.FormatDate(obs.StatDate),
		Value:         obs.Value,
		Benchmark:     obs.Benchmark,
		Challenge:     obs.Challenge,
		Exemption:     obs.Exemption,
		ZeroTolerance: obs.ZeroTolerance,
		Score:         obs.Score,
	}
	if obs.TypeID != 0 {
		resp.TypeID = obs.TypeID.String()
	}
	if obs.MajorID != 0 {
		resp.MajorID = obs.MajorID.String()
	}
	return resp
}

func centerResponse(obs *obsdomain.CenterObservation) *obsdomain.CenterResponse {
	resp := &obsdomain.CenterResponse{
		ID:            obs.ID.String(),
		IndicatorID:   obs.IndicatorID.String(),
		IndicatorName: obs.IndicatorName,
		Polarity:      obs.Polarity,
		CenterID:      obs.CenterID.String(),
		CenterName:    obs.CenterName,
		StatDate:      obsdomain.FormatDate(obs.StatDate),
		Value:         obs.Value,
		Benchmark:     obs.Benchmark,
		Challenge:     obs.Challenge,
		Score:         obs.Score,
	}
	if obs.TypeID != 0 {
		resp.TypeID = obs.TypeID.String()
	}
	if obs.MajorID != 0 {
		resp.MajorID = obs.MajorID.String()
	}
	return resp
}

func toCenterRowResponses(rows []obsdomain.CenterObservationRow) []obsdomain.CenterResponse {
	out := make([]obsdomain.CenterResponse, 0, len(rows))
	for i := range rows {
		resp := centerResponse(&rows[i].CenterObservation)
		if rows[i].DistrictID != 0 {
			resp.DistrictID = rows[i].DistrictID.String()
		}
		resp.DistrictName = rows[i].DistrictName
		out = append(out, *resp)
	}
	return out
}
