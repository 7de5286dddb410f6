package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Document is a decoded Firestore document plus its metadata timestamps.
type Document[E any] struct {
	ID         string
	Data       E
	CreateTime time.Time
	UpdateTime time.Time
	ReadTime   time.Time
}

// MutationResult captures the update timestamp returned by Firestore mutations.
type MutationResult struct {
	UpdateTime time.Time
}

// Encoder serialises the entity prior to persistence.
type Encoder[E any] func(ctx context.Context, value E) (any, error)

// Decoder hydrates the entity from a snapshot.
type Decoder[E any] func(ctx context.Context, snap *firestore.DocumentSnapshot) (E, error)

// QueryBuilder customises a collection query before execution.
type QueryBuilder func(query firestore.Query) firestore.Query

// BaseRepository wraps one collection with typed document access. The
// per-collection repositories compose it with their document structs.
type BaseRepository[E any] struct {
	provider   *Provider
	collection string
	encode     Encoder[E]
	decode     Decoder[E]
}

// NewBaseRepository binds a repository to a collection. Nil codecs default to
// identity encoding and struct decoding.
func NewBaseRepository[E any](provider *Provider, collection string, encode Encoder[E], decode Decoder[E]) *BaseRepository[E] {
	if encode == nil {
		encode = IdentityEncoder[E]()
	}
	if decode == nil {
		decode = StructDecoder[E]()
	}
	return &BaseRepository[E]{
		provider:   provider,
		collection: strings.TrimSpace(collection),
		encode:     encode,
		decode:     decode,
	}
}

// Set upserts the value under the document ID.
func (b *BaseRepository[E]) Set(ctx context.Context, id string, value E, opts ...firestore.SetOption) (MutationResult, error) {
	ref, err := b.ref(ctx, id)
	if err != nil {
		return MutationResult{}, err
	}

	payload, err := b.encode(ctx, value)
	if err != nil {
		return MutationResult{}, fmt.Errorf("firestore: encode document %s: %w", id, err)
	}

	result, err := ref.Set(ctx, payload, opts...)
	if err != nil {
		return MutationResult{}, WrapError(b.op("set"), err)
	}
	return MutationResult{UpdateTime: result.UpdateTime}, nil
}

// Update applies partial updates to the document.
func (b *BaseRepository[E]) Update(ctx context.Context, id string, updates []firestore.Update, opts ...firestore.Precondition) (MutationResult, error) {
	ref, err := b.ref(ctx, id)
	if err != nil {
		return MutationResult{}, err
	}
	result, err := ref.Update(ctx, updates, opts...)
	if err != nil {
		return MutationResult{}, WrapError(b.op("update"), err)
	}
	return MutationResult{UpdateTime: result.UpdateTime}, nil
}

// Delete removes the document. Deleting a missing document is not an error,
// matching Firestore's own semantics.
func (b *BaseRepository[E]) Delete(ctx context.Context, id string, opts ...firestore.Precondition) error {
	ref, err := b.ref(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx, opts...); err != nil {
		return WrapError(b.op("delete"), err)
	}
	return nil
}

// Get fetches and decodes the document by ID.
func (b *BaseRepository[E]) Get(ctx context.Context, id string) (Document[E], error) {
	ref, err := b.ref(ctx, id)
	if err != nil {
		return Document[E]{}, err
	}

	snapshot, err := ref.Get(ctx)
	if err != nil {
		return Document[E]{}, WrapError(b.op("get"), err)
	}
	return b.fromSnapshot(ctx, snapshot)
}

// Query executes a collection query and decodes every matching document.
func (b *BaseRepository[E]) Query(ctx context.Context, build QueryBuilder) ([]Document[E], error) {
	coll, err := b.collectionRef(ctx)
	if err != nil {
		return nil, err
	}

	query := coll.Query
	if build != nil {
		query = build(query)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var docs []Document[E]
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return docs, nil
		}
		if err != nil {
			return nil, WrapError(b.op("query"), err)
		}
		decoded, err := b.fromSnapshot(ctx, snapshot)
		if err != nil {
			return nil, fmt.Errorf("firestore: decode document %s: %w", snapshot.Ref.ID, err)
		}
		docs = append(docs, decoded)
	}
}

// DocumentRef exposes the raw reference for transactional reads and writes.
func (b *BaseRepository[E]) DocumentRef(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	return b.ref(ctx, id)
}

func (b *BaseRepository[E]) fromSnapshot(ctx context.Context, snapshot *firestore.DocumentSnapshot) (Document[E], error) {
	entity, err := b.decode(ctx, snapshot)
	if err != nil {
		return Document[E]{}, err
	}
	return Document[E]{
		ID:         snapshot.Ref.ID,
		Data:       entity,
		CreateTime: snapshot.CreateTime,
		UpdateTime: snapshot.UpdateTime,
		ReadTime:   snapshot.ReadTime,
	}, nil
}

func (b *BaseRepository[E]) collectionRef(ctx context.Context) (*firestore.CollectionRef, error) {
	switch {
	case b == nil || b.provider == nil:
		return nil, WrapError(b.op("collection"), errors.New("firestore: provider is nil"))
	case b.collection == "":
		return nil, WrapError(b.op("collection"), errors.New("firestore: collection name is required"))
	}
	client, err := b.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(b.collection), nil
}

func (b *BaseRepository[E]) ref(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, WrapError(b.op("document"), errors.New("firestore: document id is required"))
	}
	coll, err := b.collectionRef(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

func (b *BaseRepository[E]) op(action string) string {
	name := "firestore"
	if b != nil && b.collection != "" {
		name = b.collection
	}
	return name + "." + strings.ToLower(action)
}

// IdentityEncoder writes the value unchanged; document structs carry their
// own firestore tags.
func IdentityEncoder[E any]() Encoder[E] {
	return func(_ context.Context, value E) (any, error) {
		return value, nil
	}
}

// StructDecoder populates the target struct using Firestore's native decoding.
func StructDecoder[E any]() Decoder[E] {
	return func(_ context.Context, snap *firestore.DocumentSnapshot) (E, error) {
		var target E
		if err := snap.DataTo(&target); err != nil {
			return target, err
		}
		return target, nil
	}
}
