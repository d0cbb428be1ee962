package resources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/FikranSE/bookingapp/internal/repository"
)

type ResourceUseCase interface {
	ListRooms(ctx context.Context) ([]domain.Room, error)
	GetRoom(ctx context.Context, id int64) (*domain.Room, error)
	CreateRoom(ctx context.Context, room *domain.Room) error
	UpdateRoom(ctx context.Context, room *domain.Room) error
	DeleteRoom(ctx context.Context, id int64) error

	ListTransports(ctx context.Context) ([]domain.Transport, error)
	GetTransport(ctx context.Context, id int64) (*domain.Transport, error)
	CreateTransport(ctx context.Context, transport *domain.Transport) error
	UpdateTransport(ctx context.Context, transport *domain.Transport) error
	DeleteTransport(ctx context.Context, id int64) error
}

type CatalogCache interface {
	GetRooms(ctx context.Context) ([]domain.Room, error)
	SetRooms(ctx context.Context, rooms []domain.Room) error
	GetTransports(ctx context.Context) ([]domain.Transport, error)
	SetTransports(ctx context.Context, transports []domain.Transport) error
	InvalidateCatalog(ctx context.Context, kind domain.ResourceKind) error
}

// ResourceService serves the room and transport catalogs. Listings are read
// through the cache when one is configured and invalidated on every write.
type ResourceService struct {
	rooms      repository.RoomRepository
	transports repository.TransportRepository
	cache      CatalogCache
	log        *slog.Logger
}

func NewResourceService(rooms repository.RoomRepository, transports repository.TransportRepository, cache CatalogCache, log *slog.Logger) *ResourceService {
	return &ResourceService{rooms: rooms, transports: transports, cache: cache, log: log}
}

func (s *ResourceService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetRooms(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.log.Warn("room cache read failed", "error", err)
		}
	}

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetRooms(ctx, rooms); err != nil {
			s.log.Warn("room cache write failed", "error", err)
		}
	}
	return rooms, nil
}

func (s *ResourceService) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *ResourceService) CreateRoom(ctx context.Context, room *domain.Room) error {
	if err := validateResource(room.Name, room.Capacity); err != nil {
		return err
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return err
	}
	s.invalidate(ctx, domain.ResourceRoom)
	return nil
}

func (s *ResourceService) UpdateRoom(ctx context.Context, room *domain.Room) error {
	if err := validateResource(room.Name, room.Capacity); err != nil {
		return err
	}
	if err := s.rooms.Update(ctx, room); err != nil {
		return err
	}
	s.invalidate(ctx, domain.ResourceRoom)
	return nil
}

func (s *ResourceService) DeleteRoom(ctx context.Context, id int64) error {
	if err := s.rooms.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, domain.ResourceRoom)
	return nil
}

func (s *ResourceService) ListTransports(ctx context.Context) ([]domain.Transport, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetTransports(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.log.Warn("transport cache read failed", "error", err)
		}
	}

	transports, err := s.transports.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetTransports(ctx, transports); err != nil {
			s.log.Warn("transport cache write failed", "error", err)
		}
	}
	return transports, nil
}

func (s *ResourceService) GetTransport(ctx context.Context, id int64) (*domain.Transport, error) {
	return s.transports.GetByID(ctx, id)
}

func (s *ResourceService) CreateTransport(ctx context.Context, transport *domain.Transport) error {
	if err := validateResource(transport.Name, transport.Capacity); err != nil {
		return err
	}
	if err := s.transports.Create(ctx, transport); err != nil {
		return err
	}
	s.invalidate(ctx, domain.ResourceTransport)
	return nil
}

func (s *ResourceService) UpdateTransport(ctx context.Context, transport *domain.Transport) error {
	if err := validateResource(transport.Name, transport.Capacity); err != nil {
		return err
	}
	if err := s.transports.Update(ctx, transport); err != nil {
		return err
	}
	s.invalidate(ctx, domain.ResourceTransport)
	return nil
}

func (s *ResourceService) DeleteTransport(ctx context.Context, id int64) error {
	if err := s.transports.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, domain.ResourceTransport)
	return nil
}

func (s *ResourceService) invalidate(ctx context.Context, kind domain.ResourceKind) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCatalog(ctx, kind); err != nil {
		s.log.Warn("catalog cache invalidation failed", "kind", kind, "error", err)
	}
}

func validateResource(name string, capacity int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", domain.ErrValidation)
	}
	return nil
}

var _ ResourceUseCase = (*ResourceService)(nil)
