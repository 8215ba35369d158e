package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/internhub/internhub/internal/shared"
)

// CollectionName is the Mongo collection holding document metadata.
const CollectionName = "documents"

// MongoRepository stores document metadata in MongoDB.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository binds to the documents collection of db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

type documentRecord struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	Filename      string        `bson:"filename"`
	OriginalName  string        `bson:"originalName"`
	ContentType   string        `bson:"contentType"`
	Size          int64         `bson:"size"`
	UploaderID    string        `bson:"uploader"`
	Skills        []string      `bson:"skills"`
	Projects      []string      `bson:"projects"`
	Summary       string        `bson:"summary"`
	SuggestedRole string        `bson:"suggestedRole"`
	CreatedAt     time.Time     `bson:"createdAt"`
}

func (r documentRecord) toDocument() Document {
	doc := Document{
		ID:            r.ID.Hex(),
		Filename:      r.Filename,
		OriginalName:  r.OriginalName,
		ContentType:   r.ContentType,
		Size:          r.Size,
		UploaderID:    r.UploaderID,
		Skills:        r.Skills,
		Projects:      r.Projects,
		Summary:       r.Summary,
		SuggestedRole: r.SuggestedRole,
		CreatedAt:     r.CreatedAt,
	}
	if doc.Skills == nil {
		doc.Skills = []string{}
	}
	if doc.Projects == nil {
		doc.Projects = []string{}
	}
	return doc
}

// EnsureIndexes creates the filename and recency indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "filename", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_filename")},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("created_at_desc")},
	})
	if err != nil {
		return fmt.Errorf("documents: ensure indexes: %w", err)
	}
	return nil
}

// Insert stores doc and assigns its id.
func (r *MongoRepository) Insert(ctx context.Context, doc *Document) error {
	rec := documentRecord{
		Filename:      doc.Filename,
		OriginalName:  doc.OriginalName,
		ContentType:   doc.ContentType,
		Size:          doc.Size,
		UploaderID:    doc.UploaderID,
		Skills:        doc.Skills,
		Projects:      doc.Projects,
		Summary:       doc.Summary,
		SuggestedRole: doc.SuggestedRole,
		CreatedAt:     doc.CreatedAt,
	}
	res, err := r.coll.InsertOne(ctx, rec)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		doc.ID = id.Hex()
	}
	return nil
}

// List returns every document, newest first.
func (r *MongoRepository) List(ctx context.Context) ([]Document, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var records []documentRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	docs := make([]Document, len(records))
	for i, rec := range records {
		docs[i] = rec.toDocument()
	}
	return docs, nil
}

// FindByFilename returns the document stored under filename.
func (r *MongoRepository) FindByFilename(ctx context.Context, filename string) (Document, error) {
	var rec documentRecord
	if err := r.coll.FindOne(ctx, bson.M{"filename": filename}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, shared.ErrNotFound
		}
		return Document{}, err
	}
	return rec.toDocument(), nil
}

// Delete removes a document by id and returns what was removed.
func (r *MongoRepository) Delete(ctx context.Context, id string) (Document, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return Document{}, shared.ErrNotFound
	}
	var rec documentRecord
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, shared.ErrNotFound
		}
		return Document{}, err
	}
	return rec.toDocument(), nil
}

// Referenced returns the subset of filenames that have a metadata record.
func (r *MongoRepository) Referenced(ctx context.Context, filenames []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(filenames))
	if len(filenames) == 0 {
		return out, nil
	}
	cur, err := r.coll.Find(ctx,
		bson.M{"filename": bson.M{"$in": filenames}},
		options.Find().SetProjection(bson.M{"filename": 1}),
	)
	if err != nil {
		return nil, err
	}
	var records []documentRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	for _, rec := range records {
		out[rec.Filename] = struct{}{}
	}
	return out, nil
}

var _ Repository = (*MongoRepository)(nil)
