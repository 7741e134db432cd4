package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// Entry is one journal record: a slice event applied for a user.
type Entry struct {
	UserID    string          `json:"userId"`
	Family    string          `json:"family"`
	Kind      string          `json:"kind"`
	Event     json.RawMessage `json:"event"`
	Timestamp int64           `json:"timestamp"`
}

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// Journal appends entries to an Azure Storage queue for downstream consumers.
type Journal struct {
	queue queueClient
}

// NewJournal creates a Journal from the given connection string.
func NewJournal(connStr, queueName string) (*Journal, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &opts)
	if err != nil {
		return nil, err
	}
	return &Journal{queue: q}, nil
}

// Append enqueues the entries in order, stopping at the first failure.
func (j *Journal) Append(ctx context.Context, entries ...Entry) error {
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := j.queue.EnqueueMessage(ctx, string(data), nil); err != nil {
			return err
		}
	}
	return nil
}
