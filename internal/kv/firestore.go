package kv

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const (
	defaultFirestoreCollection = "market_kv"
	envFirestoreEmulatorHost   = "FIRESTORE_EMULATOR_HOST"
)

type kvDocument struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// FirestoreStore keeps each key in its own document of a single collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

// NewFirestoreStore wraps an existing client. An empty collection selects "market_kv".
func NewFirestoreStore(client *firestore.Client, collection string) (*FirestoreStore, error) {
	if client == nil {
		return nil, errors.New("kv: firestore client is required")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultFirestoreCollection
	}
	return &FirestoreStore{
		client:     client,
		collection: collection,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// DialFirestore creates a client for projectID, targeting the emulator when emulatorHost
// (or FIRESTORE_EMULATOR_HOST) is set.
func DialFirestore(ctx context.Context, projectID, emulatorHost string) (*firestore.Client, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.New("kv: firestore project id is required")
	}
	host := strings.TrimSpace(emulatorHost)
	if host == "" {
		host = strings.TrimSpace(os.Getenv(envFirestoreEmulatorHost))
	}
	var opts []option.ClientOption
	if host != "" {
		opts = append(opts,
			option.WithoutAuthentication(),
			option.WithEndpoint(host),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("kv: create firestore client: %w", err)
	}
	return client, nil
}

// documentID escapes slashes so namespaced keys map onto a single document.
func documentID(key string) string {
	return url.PathEscape(key)
}

// Get implements the Store interface.
func (s *FirestoreStore) Get(ctx context.Context, key string) (string, error) {
	snap, err := s.client.Collection(s.collection).Doc(documentID(key)).Get(ctx)
	if err != nil {
		return "", wrapFirestoreError("get", err)
	}
	var doc kvDocument
	if err := snap.DataTo(&doc); err != nil {
		return "", fmt.Errorf("%w: decode %s: %v", ErrUnavailable, key, err)
	}
	return doc.Value, nil
}

// Set implements the Store interface.
func (s *FirestoreStore) Set(ctx context.Context, key, value string) error {
	_, err := s.client.Collection(s.collection).Doc(documentID(key)).Set(ctx, kvDocument{
		Value:     value,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return wrapFirestoreError("set", err)
	}
	return nil
}

// wrapFirestoreError maps gRPC status codes onto kv semantics. Context cancellations pass through.
func wrapFirestoreError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	return fmt.Errorf("%w: firestore %s: %v", ErrUnavailable, op, err)
}
