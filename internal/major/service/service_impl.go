package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	majordomain "github.com/statboard/statboard/internal/major/domain"
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
	Repo  majordomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  majordomain.Repository
	genID *snowflake.Node
}

func New(p Params) majordomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("major.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) List(ctx context.Context, req majordomain.ListRequest) (*pagination.Page[majordomain.Response], error) {
	page := req.Page.Normalize(1000)
	items, total, err := s.repo.List(ctx, s.db, req.Query, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}

	resp := make([]majordomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}

	result := pagination.NewPage(resp, total, page)
	return &result, nil
}

func (s *Service) Get(ctx context.Context, id string) (*majordomain.Response, error) {
	majorID, err := majordomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, majordomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, majorID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, majordomain.ErrNotFound
	}
	return toResponse(item), nil
}

func (s *Service) Create(ctx context.Context, req majordomain.CreateRequest) (*majordomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, majordomain.ErrInvalidName
	}

	now := time.Now().UTC()
	m := &majordomain.Major{
		ID:        s.genID.Generate(),
		Code:      strings.TrimSpace(req.Code),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, m); err != nil {
		return nil, err
	}
	return toResponse(m), nil
}

func (s *Service) Update(ctx context.Context, req majordomain.UpdateRequest) (*majordomain.Response, error) {
	majorID, err := majordomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, majordomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, majorID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, majordomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, majordomain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Code != nil {
		item.Code = strings.TrimSpace(*req.Code)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	return toResponse(item), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	majorID, err := majordomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return majordomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, majorID)
	if err != nil {
		return err
	}
	if item == nil {
		return majordomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, majorID)
}

func toResponse(m *majordomain.Major) *majordomain.Response {
	return &majordomain.Response{
		ID:        m.ID.String(),
		Code:      m.Code,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
