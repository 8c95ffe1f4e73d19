package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

const (
	colFeedback = "feedback"
	colProducts = "products"
	colAdmins   = "admins"
	colSettings = "settings"
	colCounters = "counters"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// NewMongoStore configures a client for uri. The driver connects lazily, so a
// server that is still starting surfaces as a CreateSchema/Ping failure.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(dbName), now: time.Now}, nil
}

func (s *MongoStore) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *MongoStore) CreateSchema(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	indexes := map[string][]mongo.IndexModel{
		colProducts: {{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}},
		colAdmins:   {{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)}},
		colFeedback: {
			{Keys: bson.D{{Key: "sentiment", Value: 1}}},
			{Keys: bson.D{{Key: "product", Value: 1}}},
			{Keys: bson.D{{Key: "language", Value: 1}}},
		},
	}
	for col, idx := range indexes {
		if _, err := s.collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// nextID hands out sequential integer ids per collection.
func (s *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	var out struct {
		Seq int64 `bson:"seq"`
	}
	err := s.collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return 0, fmt.Errorf("next id for %s: %w", name, err)
	}
	return out.Seq, nil
}

// --- feedback ---

func (s *MongoStore) InsertFeedback(ctx context.Context, f *models.Feedback) error {
	id, err := s.nextID(ctx, colFeedback)
	if err != nil {
		return err
	}
	doc := *f
	doc.ID = id
	// Mongo keeps millisecond precision; truncate so the returned record
	// matches what a later read yields.
	doc.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	if _, err := s.collection(colFeedback).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	*f = doc
	return nil
}

func (s *MongoStore) ListFeedback(ctx context.Context, filter models.FeedbackFilter, skip, limit int) ([]models.Feedback, int64, error) {
	col := s.collection(colFeedback)
	q := mongoFilter(filter)

	total, err := col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, q, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.Feedback, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode feedback: %w", err)
	}
	return items, total, nil
}

func (s *MongoStore) CountBySentiment(ctx context.Context, filter models.FeedbackFilter) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: mongoFilter(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$sentiment"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := s.collection(colFeedback).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count by sentiment: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Sentiment string `bson:"_id"`
		Count     int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("count by sentiment: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Sentiment] = r.Count
	}
	return counts, nil
}

func (s *MongoStore) DeleteFeedback(ctx context.Context, id int64) error {
	res, err := s.collection(colFeedback).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteFeedbackByIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	col := s.collection(colFeedback)
	q := bson.M{"_id": bson.M{"$in": ids}}

	cursor, err := col.Find(ctx, q,
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("bulk delete lookup: %w", err)
	}
	var docs []struct {
		ID int64 `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("bulk delete lookup: %w", err)
	}

	if _, err := col.DeleteMany(ctx, q); err != nil {
		return nil, fmt.Errorf("bulk delete: %w", err)
	}
	found := make([]int64, 0, len(docs))
	for _, d := range docs {
		found = append(found, d.ID)
	}
	return found, nil
}

func (s *MongoStore) DeleteFeedbackByFilter(ctx context.Context, filter models.FeedbackFilter) (int64, error) {
	res, err := s.collection(colFeedback).DeleteMany(ctx, mongoFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("filtered delete: %w", err)
	}
	return res.DeletedCount, nil
}

// --- products ---

func (s *MongoStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	cursor, err := s.collection(colProducts).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (s *MongoStore) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	var p models.Product
	err := s.collection(colProducts).FindOne(ctx, bson.M{"name": name}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (s *MongoStore) CreateProduct(ctx context.Context, name string) (*models.Product, error) {
	id, err := s.nextID(ctx, colProducts)
	if err != nil {
		return nil, err
	}
	p := models.Product{ID: id, Name: name}
	if _, err := s.collection(colProducts).InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

func (s *MongoStore) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.collection(colProducts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CountProducts(ctx context.Context) (int64, error) {
	n, err := s.collection(colProducts).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// --- admin ---

func (s *MongoStore) GetAdmin(ctx context.Context) (*models.AdminUser, error) {
	return s.findAdmin(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (s *MongoStore) GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	return s.findAdmin(ctx, bson.M{"username": username})
}

func (s *MongoStore) findAdmin(ctx context.Context, q bson.M, opts ...*options.FindOneOptions) (*models.AdminUser, error) {
	var a models.AdminUser
	err := s.collection(colAdmins).FindOne(ctx, q, opts...).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &a, nil
}

func (s *MongoStore) CreateAdmin(ctx context.Context, username, passwordHash string) (*models.AdminUser, error) {
	id, err := s.nextID(ctx, colAdmins)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	a := models.AdminUser{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.collection(colAdmins).InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return &a, nil
}

func (s *MongoStore) UpdateAdminPassword(ctx context.Context, username, passwordHash string) error {
	res, err := s.collection(colAdmins).UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"passwordHash": passwordHash, "updatedAt": s.now().UTC()}})
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- settings ---

func (s *MongoStore) GetSetting(ctx context.Context, key string) (string, error) {
	var st models.Setting
	err := s.collection(colSettings).FindOne(ctx, bson.M{"_id": key}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return st.Value, nil
}

func (s *MongoStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.collection(colSettings).UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

func mongoFilter(filter models.FeedbackFilter) bson.M {
	q := bson.M{}
	switch filter.Product {
	case "":
	case models.UnspecifiedProduct:
		// $in with nil also matches documents where the field is absent.
		q["product"] = bson.M{"$in": bson.A{nil, ""}}
	default:
		q["product"] = filter.Product
	}
	if filter.Language != "" {
		q["language"] = filter.Language
	}
	if filter.Sentiment != "" {
		q["sentiment"] = filter.Sentiment
	}
	return q
}
