package token

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/geotoken/internal/pkg/clock"
	"github.com/shandysiswandi/geotoken/internal/pkg/config"
	"github.com/shandysiswandi/geotoken/internal/pkg/idempotency"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/router"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
	"github.com/shandysiswandi/geotoken/internal/pkg/storage"
	"github.com/shandysiswandi/geotoken/internal/pkg/uid"
	"github.com/shandysiswandi/geotoken/internal/pkg/validator"
	"github.com/shandysiswandi/geotoken/internal/token/inbound"
	"github.com/shandysiswandi/geotoken/internal/token/outbound/db"
	"github.com/shandysiswandi/geotoken/internal/token/outbound/export"
	"github.com/shandysiswandi/geotoken/internal/token/usecase"
)

// Sessions verifies bearer credentials and revokes sessions that fail the
// in-transaction check.
type Sessions interface {
	session.Verifier
	Invalidate(ctx context.Context, sessionID int64) error
}

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Sessions    Sessions                   `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`

	// Storage enables /tokens/export when set.
	Storage storage.Storage
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		RepoDB:      db.NewDB(dep.DBConn, dep.Instrument),
		Sessions:    dep.Sessions,
		Idempotency: dep.Idempotency,
		Validator:   dep.Validator,
		Config:      dep.Config,
		UUID:        dep.UUID,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
	}
	if dep.Storage != nil {
		ucDep.Exporter = export.NewCSV(dep.Storage, dep.Config.GetString("storage.bucket"), dep.Instrument)
	}

	inbound.RegisterHTTPEndpoint(dep.Router, usecase.New(ucDep), dep.Sessions)

	return nil
}
