package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	indicatordomain "github.com/statboard/statboard/internal/indicator/domain"
	"github.com/statboard/statboard/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  indicatordomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  indicatordomain.Repository
	genID *snowflake.Node
}

func New(p Params) indicatordomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("indicator.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) List(ctx context.Context, req indicatordomain.ListRequest) (*pagination.Page[indicatordomain.Response], error) {
	page := req.Page.Normalize(1000)

	filter := indicatordomain.ListFilter{
		Query:  req.Query,
		Status: req.Status,
	}
	if raw := strings.TrimSpace(req.TypeID); raw != "" {
		typeID, err := indicatordomain.ParseID(raw)
		if err != nil {
			return nil, indicatordomain.ErrInvalidID
		}
		filter.TypeID = &typeID
	}

	items, total, err := s.repo.List(ctx, s.db, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}

	resp := make([]indicatordomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}

	result := pagination.NewPage(resp, total, page)
	return &result, nil
}

func (s *Service) ListAll(ctx context.Context) ([]indicatordomain.Response, error) {
	items, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) ListByType(ctx context.Context, typeID string) ([]indicatordomain.Response, error) {
	id, err := indicatordomain.ParseID(strings.TrimSpace(typeID))
	if err != nil {
		return nil, indicatordomain.ErrInvalidID
	}
	items, err := s.repo.ListByType(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) Search(ctx context.Context, query string, limit int) ([]indicatordomain.Response, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, err := s.repo.Search(ctx, s.db, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) Get(ctx context.Context, id string) (*indicatordomain.Response, error) {
	indicatorID, err := indicatordomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, indicatordomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, indicatorID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, indicatordomain.ErrNotFound
	}
	return toResponse(item), nil
}

func (s *Service) Create(ctx context.Context, req indicatordomain.CreateRequest) (*indicatordomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, indicatordomain.ErrInvalidName
	}

	polarity := indicatordomain.PolarityHigherBetter
	if req.Polarity != nil {
		if !validPolarity(*req.Polarity) {
			return nil, indicatordomain.ErrInvalidPolarity
		}
		polarity = *req.Polarity
	}

	majorID, err := parseOptionalID(req.MajorID)
	if err != nil {
		return nil, err
	}
	typeID, err := parseOptionalID(req.TypeID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	in := &indicatordomain.Indicator{
		ID:          s.genID.Generate(),
		Name:        name,
		Unit:        req.Unit,
		MajorID:     majorID,
		TypeID:      typeID,
		Polarity:    polarity,
		DataOwner:   req.DataOwner,
		DataDept:    req.DataDept,
		Description: req.Description,
		Status:      indicatordomain.StatusActive,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, in); err != nil {
		return nil, err
	}
	return toResponse(in), nil
}

func (s *Service) Update(ctx context.Context, req indicatordomain.UpdateRequest) (*indicatordomain.Response, error) {
	indicatorID, err := indicatordomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, indicatordomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, indicatorID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, indicatordomain.ErrNotFound
	}

	propagate := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, indicatordomain.ErrInvalidName
		}
		if name != item.Name {
			propagate = true
		}
		item.Name = name
	}
	if req.Unit != nil {
		item.Unit = req.Unit
	}
	if req.MajorID != nil {
		majorID, err := parseOptionalID(*req.MajorID)
		if err != nil {
			return nil, err
		}
		if majorID != item.MajorID {
			propagate = true
		}
		item.MajorID = majorID
	}
	if req.TypeID != nil {
		typeID, err := parseOptionalID(*req.TypeID)
		if err != nil {
			return nil, err
		}
		if typeID != item.TypeID {
			propagate = true
		}
		item.TypeID = typeID
	}
	if req.Polarity != nil {
		if !validPolarity(*req.Polarity) {
			return nil, indicatordomain.ErrInvalidPolarity
		}
		if *req.Polarity != item.Polarity {
			propagate = true
		}
		item.Polarity = *req.Polarity
	}
	if req.DataOwner != nil {
		item.DataOwner = req.DataOwner
	}
	if req.DataDept != nil {
		item.DataDept = req.DataDept
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Status != nil {
		item.Status = *req.Status
	}

	item.Version++
	item.UpdatedAt = time.Now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		if propagate {
			// Observation rows carry denormalized copies of these fields;
			// they must follow every rename or reclassification.
			return s.repo.PropagateDenormalized(ctx, tx, item.ID, indicatordomain.Denormalized{
				Name:     item.Name,
				TypeID:   item.TypeID,
				MajorID:  item.MajorID,
				Polarity: item.Polarity,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toResponse(item), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	indicatorID, err := indicatordomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return indicatordomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, indicatorID)
	if err != nil {
		return err
	}
	if item == nil {
		return indicatordomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, indicatorID)
}

func (s *Service) BulkUpsert(ctx context.Context, rows []indicatordomain.BulkRow) (*indicatordomain.BulkResult, error) {
	result := &indicatordomain.BulkResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			row := &rows[i]
			name := strings.TrimSpace(row.Name)
			if name == "" {
				return indicatordomain.ErrInvalidName
			}
			if !validPolarity(row.Polarity) {
				return indicatordomain.ErrInvalidPolarity
			}

			existing, err := s.repo.FindByKey(ctx, tx, name, row.MajorID, row.TypeID)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			if existing == nil {
				in := &indicatordomain.Indicator{
					ID:          s.genID.Generate(),
					Name:        name,
					Unit:        row.Unit,
					MajorID:     row.MajorID,
					TypeID:      row.TypeID,
					Polarity:    row.Polarity,
					DataOwner:   row.DataOwner,
					DataDept:    row.DataDept,
					Description: row.Description,
					Status:      indicatordomain.StatusActive,
					Version:     1,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := s.repo.Insert(ctx, tx, in); err != nil {
					return err
				}
				result.Created++
				continue
			}

			existing.Unit = row.Unit
			existing.DataOwner = row.DataOwner
			existing.DataDept = row.DataDept
			existing.Description = row.Description
			propagate := existing.Polarity != row.Polarity
			existing.Polarity = row.Polarity
			existing.Version++
			existing.UpdatedAt = now
			if err := s.repo.Update(ctx, tx, existing); err != nil {
				return err
			}
			if propagate {
				err := s.repo.PropagateDenormalized(ctx, tx, existing.ID, indicatordomain.Denormalized{
					Name:     existing.Name,
					TypeID:   existing.TypeID,
					MajorID:  existing.MajorID,
					Polarity: existing.Polarity,
				})
				if err != nil {
					return err
				}
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func parseOptionalID(raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	id, err := indicatordomain.ParseID(raw)
	if err != nil {
		return 0, indicatordomain.ErrInvalidID
	}
	return id, nil
}

func validPolarity(p int) bool {
	switch p {
	case indicatordomain.PolarityLowerBetter, indicatordomain.PolarityHigherBetter, indicatordomain.PolarityNeutral:
		return true
	}
	return false
}

func toResponses(items []indicatordomain.Indicator) []indicatordomain.Response {
	resp := make([]indicatordomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp
}

func toResponse(in *indicatordomain.Indicator) *indicatordomain.Response {
	resp := &indicatordomain.Response{
		ID:          in.ID.String(),
		Name:        in.Name,
		Unit:        in.Unit,
		Polarity:    in.Polarity,
		DataOwner:   in.DataOwner,
		DataDept:    in.DataDept,
		Description: in.Description,
		Status:      in.Status,
		Version:     in.Version,
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
	}
	if in.MajorID != 0 {
		resp.MajorID = in.MajorID.String()
	}
	if in.TypeID != 0 {
		resp.TypeID = in.TypeID.String()
	}
	return resp
}
