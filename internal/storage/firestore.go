package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const firestoreCollection = "kv"

type kvDocument struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type Firestore struct {
	client *firestore.Client
}

// NewFirestore connects to projectID. credentialsFile may be empty to use
// application default credentials (or the emulator via FIRESTORE_EMULATOR_HOST).
func NewFirestore(ctx context.Context, projectID, credentialsFile string) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %v", err)
	}

	return &Firestore{
		client: client,
	}, nil
}

func (fs *Firestore) Close() error {
	return fs.client.Close()
}

func (fs *Firestore) Get(ctx context.Context, key string) (string, bool, error) {
	snap, err := fs.client.Collection(firestoreCollection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %v", key, err)
	}

	var doc kvDocument
	if err := snap.DataTo(&doc); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal %s: %v", key, err)
	}

	return doc.Value, true, nil
}

func (fs *Firestore) Set(ctx context.Context, key, value string) error {
	doc := kvDocument{
		Value:     value,
		UpdatedAt: time.Now(),
	}

	_, err := fs.client.Collection(firestoreCollection).Doc(key).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to set %s: %v", key, err)
	}

	return nil
}
