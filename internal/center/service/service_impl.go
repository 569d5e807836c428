package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	centerdomain "github.com/statboard/statboard/internal/center/domain"
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
	Repo  centerdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  centerdomain.Repository
	genID *snowflake.Node
}

func New(p Params) centerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("center.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) List(ctx context.Context, districtID string) ([]centerdomain.Response, error) {
	var filter *snowflake.ID
	if raw := strings.TrimSpace(districtID); raw != "" {
		parsed, err := centerdomain.ParseID(raw)
		if err != nil {
			return nil, centerdomain.ErrInvalidID
		}
		filter = &parsed
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]centerdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*centerdomain.Response, error) {
	centerID, err := centerdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, centerdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, centerID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, centerdomain.ErrNotFound
	}
	return toResponse(item), nil
}

func (s *Service) Create(ctx context.Context, req centerdomain.CreateRequest) (*centerdomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, centerdomain.ErrInvalidName
	}

	var districtID snowflake.ID
	if raw := strings.TrimSpace(req.DistrictID); raw != "" {
		parsed, err := centerdomain.ParseID(raw)
		if err != nil {
			return nil, centerdomain.ErrInvalidID
		}
		districtID = parsed
	}

	now := time.Now().UTC()
	c := &centerdomain.Center{
		ID:         s.genID.Generate(),
		DistrictID: districtID,
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, c); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, centerdomain.ErrDuplicate
		}
		return nil, err
	}
	return toResponse(c), nil
}

func (s *Service) Update(ctx context.Context, req centerdomain.UpdateRequest) (*centerdomain.Response, error) {
	centerID, err := centerdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, centerdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, centerID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, centerdomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, centerdomain.ErrInvalidName
		}
		item.Name = name
	}
	if req.DistrictID != nil {
		var districtID snowflake.ID
		if raw := strings.TrimSpace(*req.DistrictID); raw != "" {
			districtID, err = centerdomain.ParseID(raw)
			if err != nil {
				return nil, centerdomain.ErrInvalidID
			}
		}
		item.DistrictID = districtID
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, centerdomain.ErrDuplicate
		}
		return nil, err
	}
	return toResponse(item), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	centerID, err := centerdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return centerdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, centerID)
	if err != nil {
		return err
	}
	if item == nil {
		return centerdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, centerID)
}

func toResponse(c *centerdomain.Center) *centerdomain.Response {
	resp := &centerdomain.Response{
		ID:        c.ID.String(),
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.DistrictID != 0 {
		resp.DistrictID = c.DistrictID.String()
	}
	return resp
}
