package service

import (
	"context"
	"time"

	"otomar/internal/dto"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthService interface {
	// Ready pings every dependency; ok is false when any of them fails.
	Ready(ctx context.Context) (resp *dto.StatusResponse, ok bool)
}

type healthServiceImpl struct {
	db  *gorm.DB
	rdb redis.UniversalClient
}

func NewHealthService(db *gorm.DB, rdb redis.UniversalClient) HealthService {
	return &healthServiceImpl{
		db:  db,
		rdb: rdb,
	}
}

func (s *healthServiceImpl) Ready(ctx context.Context) (*dto.StatusResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	ok := true

	if err := s.pingDB(ctx); err != nil {
		checks["database"] = err.Error()
		ok = false
	} else {
		checks["database"] = "ok"
	}

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		ok = false
	} else {
		checks["redis"] = "ok"
	}

	status := "ok"
	if !ok {
		status = "unavailable"
	}
	return &dto.StatusResponse{Status: status, Checks: checks}, ok
}

func (s *healthServiceImpl) pingDB(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
