package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/geotoken/internal/identity"
	"github.com/shandysiswandi/geotoken/internal/notification"
	"github.com/shandysiswandi/geotoken/internal/token"
)

func (a *App) initModules() {
	var idMod *identity.Module
	if a.config.GetBool("modules.identity.enabled") {
		mod, err := identity.New(identity.Dependency{
			DBConn:     a.dbConn,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Secret:     a.secret,
			HMAC:       a.hmac,
			Bcrypt:     a.bcrypt,
			OTP:        a.otp,
			Clock:      a.clock,
			Validator:  a.validator,
			Mail:       a.mail,
			Messaging:  a.messaging,
		})
		if err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
		idMod = mod
	}

	if a.config.GetBool("modules.token.enabled") {
		if idMod == nil {
			slog.Error("failed to init module token", "error", "module identity must be enabled")
			os.Exit(1)
		}

		if err := token.New(token.Dependency{
			DBConn:      a.dbConn,
			Router:      a.router,
			Sessions:    idMod,
			Idempotency: a.idemp,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Clock:       a.clock,
			Validator:   a.validator,
			Storage:     a.storage,
		}); err != nil {
			slog.Error("failed to init module token", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Mail:       a.mail,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
