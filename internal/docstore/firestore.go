package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig locates a Firestore database.
type FirestoreConfig struct {
	ProjectID string
	// DatabaseID defaults to firestore.DefaultDatabaseID.
	DatabaseID string
	// Endpoint overrides the gRPC endpoint, e.g. a regional one.
	Endpoint string
	// CredentialsFile is a service account key. Empty means application
	// default credentials.
	CredentialsFile string
	// EmulatorHost, when set, targets a local emulator without authentication.
	EmulatorHost string
}

// Firestore is a Client backed by a Cloud Firestore database.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore connects to the database described by cfg. Extra options are
// passed to the Firestore client.
func NewFirestore(ctx context.Context, cfg FirestoreConfig, opts ...option.ClientOption) (*Firestore, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore project id not set")
	}
	if cfg.DatabaseID == "" {
		cfg.DatabaseID = firestore.DefaultDatabaseID
	}

	var clientOpts []option.ClientOption
	if cfg.EmulatorHost != "" {
		// The client only detects the emulator through the environment.
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.EmulatorHost); err != nil {
			return nil, fmt.Errorf("failed to set emulator host: %w", err)
		}
	} else {
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
		}
		if cfg.CredentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
	}
	clientOpts = append(clientOpts, opts...)

	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.DatabaseID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

// Close releases the underlying connection.
func (f *Firestore) Close() error {
	return f.client.Close()
}

// Get implements Client.
func (f *Firestore) Get(ctx context.Context, path string) (Document, error) {
	path = strings.Trim(path, "/")
	ref := f.client.Doc(path)
	if ref == nil {
		return Document{}, fmt.Errorf("%w: invalid document path %q", ErrMalformedQuery, path)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", path, classify(err))
	}
	return snapshotDocument(snap), nil
}

// Query implements Client.
func (f *Firestore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var base firestore.Query
	if q.AllDescendants {
		base = f.client.CollectionGroup(q.Collection).Query
	} else {
		base = f.client.Collection(q.Collection).Query
	}

	iter := base.Where(q.Filter.Field, string(q.Filter.Op), q.Filter.Value).Documents(ctx)
	defer iter.Stop()

	docs, err := collect(iter.Next, snapshotDocument)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	return docs, nil
}

// collect drains a result stream. A failure after some documents were
// received fails the whole query.
func collect[T any](next func() (T, error), convert func(T) Document) ([]Document, error) {
	var docs []Document
	for {
		item, err := next()
		if errors.Is(err, iterator.Done) {
			return docs, nil
		}
		if err != nil {
			return nil, classify(err)
		}
		docs = append(docs, convert(item))
	}
}

func snapshotDocument(snap *firestore.DocumentSnapshot) Document {
	return Document{
		ID:     snap.Ref.ID,
		Path:   relativePath(snap.Ref.Path),
		Fields: snap.Data(),
		decode: snap.DataTo,
	}
}

// relativePath strips the "projects/<p>/databases/<d>/documents/" prefix.
func relativePath(full string) string {
	const marker = "/documents/"
	if i := strings.Index(full, marker); i >= 0 {
		return full[i+len(marker):]
	}
	return full
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case codes.InvalidArgument, codes.FailedPrecondition:
		return fmt.Errorf("%w: %w", ErrMalformedQuery, err)
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.Aborted, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}
