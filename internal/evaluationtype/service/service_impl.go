package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	etdomain "github.com/statboard/statboard/internal/evaluationtype/domain"
	pkgdb "github.com/statboard/statboard/pkg/db"
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
	Repo  etdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  etdomain.Repository
	genID *snowflake.Node
}

func New(p Params) etdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("evaluationtype.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) List(ctx context.Context, req etdomain.ListRequest) (*pagination.Page[etdomain.Response], error) {
	page := req.Page.Normalize(1000)
	items, total, err := s.repo.List(ctx, s.db, req.Query, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}

	resp := make([]etdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}

	result := pagination.NewPage(resp, total, page)
	return &result, nil
}

func (s *Service) Create(ctx context.Context, req etdomain.CreateRequest) (*etdomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, etdomain.ErrInvalidName
	}

	existing, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, etdomain.ErrDuplicate
	}

	now := time.Now().UTC()
	et := &etdomain.EvaluationType{
		ID:        s.genID.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, et); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, etdomain.ErrDuplicate
		}
		return nil, err
	}
	return toResponse(et), nil
}

func (s *Service) Update(ctx context.Context, req etdomain.UpdateRequest) (*etdomain.Response, error) {
	id, err := etdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, etdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, etdomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, etdomain.ErrInvalidName
		}
		item.Name = name
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, etdomain.ErrDuplicate
		}
		return nil, err
	}
	return toResponse(item), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	etID, err := etdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return etdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, etID)
	if err != nil {
		return err
	}
	if item == nil {
		return etdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, etID)
}

func toResponse(et *etdomain.EvaluationType) *etdomain.Response {
	return &etdomain.Response{
		ID:        et.ID.String(),
		Name:      et.Name,
		CreatedAt: et.CreatedAt,
		UpdatedAt: et.UpdatedAt,
	}
}
