// Package export writes token history to object storage as CSV.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/storage"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
	"go.opentelemetry.io/otel/codes"
)

const contentType = "text/csv"

var header = []string{"id", "timestamp", "latitude", "longitude", "claimed", "claimed_at"}

type CSV struct {
	store  storage.Storage
	bucket string
	ins    instrument.Instrumentation
}

func NewCSV(store storage.Storage, bucket string, ins instrument.Instrumentation) *CSV {
	return &CSV{store: store, bucket: bucket, ins: ins}
}

// Export uploads tokens under key and returns a download URL valid for expiry.
func (c *CSV) Export(ctx context.Context, key string, tokens []entity.Token, expiry time.Duration) (url string, err error) {
	ctx, span := c.ins.Tracer("token.outbound.export").Start(ctx, "Export")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := Encode(tokens)
	if err != nil {
		return "", err
	}

	if _, err = c.store.PutObject(ctx, c.bucket, key, bytes.NewReader(body), storage.PutOptions{
		Size:        int64(len(body)),
		ContentType: contentType,
		Metadata:    map[string]string{"rows": strconv.Itoa(len(tokens))},
	}); err != nil {
		return "", err
	}

	return c.store.PresignGet(ctx, c.bucket, key, expiry)
}

// Encode renders tokens as CSV with a header row.
func Encode(tokens []entity.Token) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := lo.Map(tokens, func(t entity.Token, _ int) []string {
		claimedAt := ""
		if t.ClaimedAt != nil {
			claimedAt = t.ClaimedAt.UTC().Format(time.RFC3339)
		}
		return []string{
			strconv.FormatInt(t.ID, 10),
			t.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatFloat(t.Latitude, 'f', -1, 64),
			strconv.FormatFloat(t.Longitude, 'f', -1, 64),
			strconv.FormatBool(t.Claimed),
			claimedAt,
		}
	})

	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
