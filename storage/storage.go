package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// Store durably remembers per-user selections.
type Store interface {
	Load(ctx context.Context, userID, key string) (string, error)
	Save(ctx context.Context, userID, key, value string) error
}

// Scoped binds a Store to one user so it can back a slice.
type Scoped struct {
	Store  Store
	UserID string
}

func (s Scoped) Load(ctx context.Context, key string) (string, error) {
	return s.Store.Load(ctx, s.UserID, key)
}

func (s Scoped) Save(ctx context.Context, key, value string) error {
	return s.Store.Save(ctx, s.UserID, key, value)
}

type tableClient interface {
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
}

// Table keeps selections in an Azure Table: one row per user and key.
type Table struct {
	table tableClient
}

// NewTable creates a Table store from the given connection string.
func NewTable(connStr, tableName string) (*Table, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Table{table: svc.NewClient(tableName)}, nil
}

type selectionEntity struct {
	aztables.Entity
	Value string `json:"Value"`
}

// Load returns the stored value or "" when nothing was saved yet.
func (t *Table) Load(ctx context.Context, userID, key string) (string, error) {
	resp, err := t.table.GetEntity(ctx, userID, key, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return "", nil
		}
		return "", err
	}
	return decodeSelectionEntity(resp.Value)
}

func decodeSelectionEntity(data []byte) (string, error) {
	var ent selectionEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return "", err
	}
	return ent.Value, nil
}

// Save upserts the value.
func (t *Table) Save(ctx context.Context, userID, key, value string) error {
	ent := selectionEntity{
		Entity: aztables.Entity{PartitionKey: userID, RowKey: key},
		Value:  value,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = t.table.UpsertEntity(ctx, payload, nil)
	return err
}
