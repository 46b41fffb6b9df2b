package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/geotoken/internal/pkg/clock"
	"github.com/shandysiswandi/geotoken/internal/pkg/config"
	"github.com/shandysiswandi/geotoken/internal/pkg/idempotency"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/uid"
	"github.com/shandysiswandi/geotoken/internal/pkg/validator"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultListLimit      = 50
	defaultListMaxLimit   = 500
	defaultExportMaxRows  = 10000
	defaultIdempotencyTTL = 24 * time.Hour
	defaultPresignExpiry  = 15 * time.Minute
)

type repoDB interface {
	AppendToken(ctx context.Context, caller entity.Caller, lat, lon float64) (*entity.Token, error)
	ClaimTokens(ctx context.Context, caller entity.Caller) ([]entity.Token, error)
	ListTokens(ctx context.Context, page entity.Page) ([]entity.Token, error)
	CountTokens(ctx context.Context) (int64, error)
}

type exporter interface {
	Export(ctx context.Context, key string, tokens []entity.Token, expiry time.Duration) (string, error)
}

// sessions revokes a session whose in-transaction check failed.
type sessions interface {
	Invalidate(ctx context.Context, sessionID int64) error
}

type Usecase struct {
	repoDB      repoDB
	exporter    exporter
	sessions    sessions
	idempotency idempotency.Idempotency
	validator   validator.Validator
	cfg         config.Config
	uuid        uid.StringID
	clock       clock.Clocker
	ins         instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	Exporter    exporter
	Sessions    sessions
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	UUID        uid.StringID
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:      dep.RepoDB,
		exporter:    dep.Exporter,
		sessions:    dep.Sessions,
		idempotency: dep.Idempotency,
		validator:   dep.Validator,
		cfg:         dep.Config,
		uuid:        dep.UUID,
		clock:       dep.Clock,
		ins:         dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("token.usecase").Start(ctx, name)
}

func (s *Usecase) listMaxLimit() int32 {
	if v := s.cfg.GetInt32("modules.token.list_max_limit"); v > 0 {
		return v
	}
	return defaultListMaxLimit
}

func (s *Usecase) exportMaxRows() int32 {
	if v := s.cfg.GetInt32("modules.token.export_max_rows"); v > 0 {
		return v
	}
	return defaultExportMaxRows
}

func (s *Usecase) idempotencyTTL() time.Duration {
	if v := s.cfg.GetSecond("modules.token.idempotency_ttl_seconds"); v > 0 {
		return v
	}
	return defaultIdempotencyTTL
}

func (s *Usecase) presignExpiry() time.Duration {
	if v := s.cfg.GetMinute("storage.presign_minutes"); v > 0 {
		return v
	}
	return defaultPresignExpiry
}
