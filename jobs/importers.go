package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/mesa-ops/mesa/internal/assets"
	"github.com/mesa-ops/mesa/internal/clients"
	"github.com/mesa-ops/mesa/internal/observability"
)

// Importers holds the repositories the worker writes imports into.
type Importers struct {
	Assets  assets.Repository
	Clients clients.Repository
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// HandleAssetImport processes TaskAssetImport tasks. Rows upsert on the
// ticker, so re-running a file converges instead of duplicating.
func (i *Importers) HandleAssetImport(ctx context.Context, t *asynq.Task) error {
	var payload ImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	rows, err := readRecords(payload.Data)
	if err != nil {
		i.Logger.Error("asset import unreadable", "filename", payload.Filename, slog.Any("error", err))
		i.Metrics.RecordJob(TaskAssetImport, "failed")
		return asynq.SkipRetry
	}

	imported, skipped := 0, 0
	for n, row := range rows {
		asset := assets.Asset{
			ID:       uuid.New(),
			Ticker:   strings.ToUpper(row["ticker"]),
			Name:     row["nombre"],
			Type:     assets.Type(strings.ToLower(row["tipo"])),
			Currency: strings.ToUpper(row["moneda"]),
			Market:   row["mercado"],
			IsActive: true,
		}
		if asset.Type == "" {
			asset.Type = assets.TypeOtro
		}
		if asset.Ticker == "" || asset.Name == "" || !asset.Type.Valid() {
			i.Logger.Warn("asset row skipped", "filename", payload.Filename, "row", n+2)
			skipped++
			continue
		}
		if err := i.Assets.Upsert(ctx, asset); err != nil {
			i.Metrics.RecordJob(TaskAssetImport, "failed")
			return err
		}
		imported++
	}

	i.Logger.Info("asset import finished",
		"filename", payload.Filename, "imported", imported, "skipped", skipped)
	i.Metrics.RecordJob(TaskAssetImport, "ok")
	return nil
}

// HandleClientImport processes TaskClientImport tasks, keyed on the client
// document number.
func (i *Importers) HandleClientImport(ctx context.Context, t *asynq.Task) error {
	var payload ImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	rows, err := readRecords(payload.Data)
	if err != nil {
		i.Logger.Error("client import unreadable", "filename", payload.Filename, slog.Any("error", err))
		i.Metrics.RecordJob(TaskClientImport, "failed")
		return asynq.SkipRetry
	}

	imported, skipped := 0, 0
	for n, row := range rows {
		client := clients.Client{
			ID:       uuid.New(),
			Name:     row["nombre"],
			Document: row["documento"],
			Email:    strings.ToLower(row["email"]),
			Account:  row["cuenta"],
			IsActive: true,
		}
		if client.Name == "" || client.Document == "" {
			i.Logger.Warn("client row skipped", "filename", payload.Filename, "row", n+2)
			skipped++
			continue
		}
		if err := i.Clients.Upsert(ctx, client); err != nil {
			i.Metrics.RecordJob(TaskClientImport, "failed")
			return err
		}
		imported++
	}

	i.Logger.Info("client import finished",
		"filename", payload.Filename, "imported", imported, "skipped", skipped)
	i.Metrics.RecordJob(TaskClientImport, "ok")
	return nil
}
