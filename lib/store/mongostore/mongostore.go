// Package mongostore keeps notes as documents in a MongoDB collection.
package mongostore

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/oliverisaac/keepnotes/lib/store"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const collectionName = "notes"

var _ store.Store = (*Store)(nil)

type Store struct {
	client *mongo.Client
	notes  *mongo.Collection
}

// Open connects, pings and makes sure the owner indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging mongo")
	}

	s := &Store{
		client: client,
		notes:  client.Database(database).Collection(collectionName),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.notes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "is_deleted", Value: 1}, {Key: "deleted_at", Value: -1}}},
	})
	return errors.Wrap(err, "creating note indexes")
}

func (s *Store) Create(ctx context.Context, note *types.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	_, err := s.notes.InsertOne(ctx, note)
	return errors.Wrap(err, "inserting note")
}

func (s *Store) Get(ctx context.Context, owner, id string) (types.Note, error) {
	var note types.Note
	err := s.notes.FindOne(ctx, byOwnerAndID(owner, id)).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Note{}, store.ErrNotFound
	}
	if err != nil {
		return types.Note{}, errors.Wrap(err, "finding note")
	}
	return note, nil
}

// Update reads the document, applies fn and replaces it. Concurrent writers race; the last replace wins.
func (s *Store) Update(ctx context.Context, owner, id string, fn store.Mutator) (types.Note, error) {
	note, err := s.Get(ctx, owner, id)
	if err != nil {
		return types.Note{}, err
	}
	if err := fn(&note); err != nil {
		return types.Note{}, err
	}
	note.ID, note.Owner = id, owner

	res, err := s.notes.ReplaceOne(ctx, byOwnerAndID(owner, id), note)
	if err != nil {
		return types.Note{}, errors.Wrap(err, "replacing note")
	}
	if res.MatchedCount == 0 {
		return types.Note{}, store.ErrNotFound
	}
	return note, nil
}

func (s *Store) Delete(ctx context.Context, owner, id string) (bool, error) {
	res, err := s.notes.DeleteOne(ctx, byOwnerAndID(owner, id))
	if err != nil {
		return false, errors.Wrap(err, "deleting note")
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) Query(ctx context.Context, owner string, filter store.Filter) ([]types.Note, error) {
	opts := options.Find().
		SetSort(sortFor(filter.Sort)).
		SetLimit(int64(filter.EffectiveLimit()))

	cursor, err := s.notes.Find(ctx, buildFilter(owner, filter), opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}

	notes := []types.Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, errors.Wrap(err, "decoding notes")
	}
	return notes, nil
}

func (s *Store) DeleteOwner(ctx context.Context, owner string) (int64, error) {
	res, err := s.notes.DeleteMany(ctx, bson.D{{Key: "owner", Value: owner}})
	if err != nil {
		return 0, errors.Wrap(err, "deleting notes for owner")
	}
	return res.DeletedCount, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Wrap(s.client.Disconnect(ctx), "disconnecting from mongo")
}

func byOwnerAndID(owner, id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "owner", Value: owner}}
}

func buildFilter(owner string, f store.Filter) bson.D {
	q := bson.D{{Key: "owner", Value: owner}}
	if f.Deleted != nil {
		q = append(q, bson.E{Key: "is_deleted", Value: *f.Deleted})
	}
	if f.Archived != nil {
		q = append(q, bson.E{Key: "is_archived", Value: *f.Archived})
	}
	if f.Favorite != nil {
		q = append(q, bson.E{Key: "is_favorite", Value: *f.Favorite})
	}
	if f.Search != "" {
		// search terms are literal text, never patterns
		re := bson.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q = append(q, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "plain_text_content", Value: re}},
			bson.D{{Key: "tags", Value: re}},
		}})
	}
	return q
}

func sortFor(key store.SortKey) bson.D {
	if key == store.SortDeletedDesc {
		return bson.D{{Key: "deleted_at", Value: -1}, {Key: "_id", Value: 1}}
	}
	return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
}
