package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	districtdomain "github.com/statboard/statboard/internal/district/domain"
	pkgdb "github.com/statboard/statboard/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  districtdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  districtdomain.Repository
	genID *snowflake.Node
}

func New(p Params) districtdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("district.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) List(ctx context.Context) ([]districtdomain.Response, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]districtdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Circles(ctx context.Context) ([]int64, error) {
	return s.repo.Circles(ctx, s.db)
}

func (s *Service) Get(ctx context.Context, id string) (*districtdomain.Response, error) {
	districtID, err := districtdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, districtdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, districtID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, districtdomain.ErrNotFound
	}
	return toResponse(item), nil
}

func (s *Service) Create(ctx context.Context, req districtdomain.CreateRequest) (*districtdomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, districtdomain.ErrInvalidName
	}

	var circleID snowflake.ID
	if raw := strings.TrimSpace(req.CircleID); raw != "" {
		parsed, err := districtdomain.ParseID(raw)
		if err != nil {
			return nil, districtdomain.ErrInvalidID
		}
		circleID = parsed
	}

	now := time.Now().UTC()
	d := &districtdomain.District{
		ID:        s.genID.Generate(),
		CircleID:  circleID,
		Name:      name,
		ShortName: strings.TrimSpace(req.ShortName),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, d); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, districtdomain.ErrDuplicate
		}
		return nil, err
	}
	return toResponse(d), nil
}

func (s *Service) Update(ctx context.Context, req districtdomain.UpdateRequest) (*districtdomain.Response, error) {
	districtID, err := districtdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, districtdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, districtID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, districtdomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, districtdomain.ErrInvalidName
		}
		item.Name = name
	}
	if req.ShortName != nil {
		item.ShortName = strings.TrimSpace(*req.ShortName)
	}
	if req.CircleID != nil {
		var circleID snowflake.ID
		if raw := strings.TrimSpace(*req.CircleID); raw != "" {
			circleID, err = districtdomain.ParseID(raw)
			if err != nil {
				return nil, districtdomain.ErrInvalidID
			}
		}
		item.CircleID = circleID
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, districtdomain.ErrDuplicate
		}
		return nil, err
	}
	return toResponse(item), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	districtID, err := districtdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return districtdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, districtID)
	if err != nil {
		return err
	}
	if item == nil {
		return districtdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, districtID)
}

func toResponse(d *districtdomain.District) *districtdomain.Response {
	resp := &districtdomain.Response{
		ID:        d.ID.String(),
		Name:      d.Name,
		ShortName: d.ShortName,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.CircleID != 0 {
		resp.CircleID = d.CircleID.String()
	}
	return resp
}
