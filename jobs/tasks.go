// Package jobs runs deferred imports on an Asynq worker. Uploads are
// accepted by the API, queued through Redis, and parsed off the request
// path.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAssetImport processes an uploaded asset CSV.
	TaskAssetImport = "asset:import"
	// TaskClientImport processes an uploaded client CSV.
	TaskClientImport = "client:import"
)

// ImportPayload carries an uploaded file into the worker. Data is the raw
// file content; encoding detection happens at parse time.
type ImportPayload struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// NewAssetImportTask constructs an asset import task.
func NewAssetImportTask(payload ImportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssetImport, data, asynq.MaxRetry(3)), nil
}

// NewClientImportTask constructs a client import task.
func NewClientImportTask(payload ImportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskClientImport, data, asynq.MaxRetry(3)), nil
}
