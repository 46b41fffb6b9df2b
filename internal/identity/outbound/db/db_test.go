package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/geotoken/internal/identity/entity"
	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
	"github.com/shandysiswandi/geotoken/internal/pkg/testinfra"
	"github.com/shandysiswandi/geotoken/internal/pkg/valueobject"
)

func TestDB_ChallengeLifecycle(t *testing.T) {
	pool := testinfra.Postgres(t)
	db := NewDB(pool, instrument.NewNoop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("upsert overwrites previous challenge", func(t *testing.T) {
		// Arrange
		testinfra.Truncate(t, pool, "identities")

		// Act
		first, err := db.UpsertChallenge(ctx, entity.Identity{ID: 1, Contact: "a@b.com"},
			entity.OTPChallenge{ID: 10, CodeHash: "h1", IssuedAt: now, ExpiresAt: now.Add(5 * time.Minute)})
		if err != nil {
			t.Fatalf("first upsert: %v", err)
		}
		second, err := db.UpsertChallenge(ctx, entity.Identity{ID: 2, Contact: "a@b.com"},
			entity.OTPChallenge{ID: 11, CodeHash: "h2", IssuedAt: now, ExpiresAt: now.Add(5 * time.Minute)})
		if err != nil {
			t.Fatalf("second upsert: %v", err)
		}

		// Assert
		if first.ID != 1 || second.ID != 1 {
			t.Fatalf("identity must be reused: %d %d", first.ID, second.ID)
		}
		chal, err := db.GetChallengeByContact(ctx, "a@b.com")
		if err != nil || chal.ID != 11 || chal.CodeHash != "h2" || chal.IdentityID != 1 {
			t.Fatalf("challenge = %+v, %v", chal, err)
		}
	})

	t.Run("consume is single use under concurrency", func(t *testing.T) {
		testinfra.Truncate(t, pool, "identities")
		_, err := db.UpsertChallenge(ctx, entity.Identity{ID: 1, Contact: "a@b.com"},
			entity.OTPChallenge{ID: 20, CodeHash: "h", IssuedAt: now, ExpiresAt: now.Add(time.Minute)})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}

		var wg sync.WaitGroup
		results := make(chan error, 6)
		for i := range 6 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- db.ConsumeChallenge(ctx, 20, entity.Session{
					ID:         int64(100 + i),
					IdentityID: 1,
					TokenHash:  string(rune('a' + i)),
					Role:       session.RoleProducer,
					IssuedAt:   now,
					ExpiresAt:  now.Add(time.Hour),
					Metadata:   valueobject.JSONMap{"ip": "10.0.0.1"},
				})
			}()
		}
		wg.Wait()
		close(results)

		ok, notFound := 0, 0
		for err := range results {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, goerror.ErrNotFound):
				notFound++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if ok != 1 || notFound != 5 {
			t.Fatalf("ok = %d, notFound = %d", ok, notFound)
		}
	})
}

func TestDB_Sessions(t *testing.T) {
	pool := testinfra.Postgres(t)
	db := NewDB(pool, instrument.NewNoop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := db.UpsertChallenge(ctx, entity.Identity{ID: 7, Contact: "+628123456789"},
		entity.OTPChallenge{ID: 70, CodeHash: "h", IssuedAt: now, ExpiresAt: now.Add(time.Minute)})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := db.ConsumeChallenge(ctx, 70, entity.Session{
		ID: 700, IdentityID: 7, TokenHash: "hash-700", Role: session.RoleConsumer,
		IssuedAt: now, ExpiresAt: now.Add(time.Hour), Metadata: valueobject.JSONMap{"user_agent": "cli"},
	}); err != nil {
		t.Fatalf("consume: %v", err)
	}

	got, err := db.GetSessionByTokenHash(ctx, "hash-700")
	if err != nil {
		t.Fatalf("GetSessionByTokenHash() = %v", err)
	}
	if got.Role != session.RoleConsumer || got.Contact != "+628123456789" || got.Metadata.GetString("user_agent") != "cli" {
		t.Fatalf("session = %+v", got)
	}
	if !got.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires at = %v", got.ExpiresAt)
	}

	if err := db.DeleteSessionByTokenHash(ctx, "hash-700"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := db.DeleteSessionByTokenHash(ctx, "hash-700"); err != nil {
		t.Fatalf("delete twice: %v", err)
	}
	if _, err := db.GetSessionByTokenHash(ctx, "hash-700"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("after delete = %v", err)
	}

	if err := db.UpdateDisplayName(ctx, 7, "Ann"); err != nil {
		t.Fatalf("UpdateDisplayName() = %v", err)
	}
	ident, err := db.GetIdentityByContact(ctx, "+628123456789")
	if err != nil || ident.IsNew() {
		t.Fatalf("identity = %+v, %v", ident, err)
	}
	if err := db.UpdateDisplayName(ctx, 999, "x"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("unknown identity = %v", err)
	}
}
