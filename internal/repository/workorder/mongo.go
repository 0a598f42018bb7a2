package workorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/entity"
)

// MongoStore keeps work orders as documents in a single collection.
type MongoStore struct {
	coll   *mongo.Collection
	limit  int64
	logger *zap.Logger
	now    func() time.Time
}

// NewMongoStore wires a store over coll returning at most limit orders from List.
func NewMongoStore(coll *mongo.Collection, limit int, logger *zap.Logger) *MongoStore {
	if limit <= 0 {
		limit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoStore{
		coll:   coll,
		limit:  int64(limit),
		logger: logger.Named("workorder.mongo"),
		now:    time.Now,
	}
}

// Ping checks that the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.coll.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return classify(err)
	}
	return nil
}

// EnsureIndexes creates the unique order id index and the timestamp sort index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	names, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: FieldOrderID, Value: 1}},
			Options: options.Index().SetName("orderId_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: FieldTimestamp, Value: -1}},
			Options: options.Index().SetName("timestamp_desc"),
		},
	})
	if err != nil {
		return classify(err)
	}
	s.logger.Info("work order indexes ensured", zap.Strings("indexes", names))
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: FieldTimestamp, Value: -1}}).
		SetLimit(s.limit).
		SetProjection(Projection())

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		s.logger.Error("list work orders failed", zap.Error(err))
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	records := make([]Record, 0, s.limit)
	for cursor.Next(ctx) {
		records = append(records, s.decode(cursor.Current))
	}
	if err := cursor.Err(); err != nil {
		s.logger.Error("iterate work orders failed", zap.Error(err), zap.Int("read", len(records)))
		return nil, classify(err)
	}

	s.logger.Debug("listed work orders", zap.Int("count", len(records)))
	return records, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrNotFound
	}

	raw, err := s.coll.FindOne(ctx, bson.D{{Key: FieldOrderID, Value: id}},
		options.FindOne().SetProjection(Projection()),
	).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		s.logger.Info("no work order found", zap.String("order_id", id))
		return Record{}, ErrNotFound
	}
	if err != nil {
		s.logger.Error("find work order failed", zap.String("order_id", id), zap.Error(err))
		return Record{}, classify(err)
	}

	rec := s.decode(raw)
	if rec.Err != nil {
		return rec, rec.Err
	}
	return rec, nil
}

func (s *MongoStore) Create(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	w := *order
	w.Normalize()

	doc := ToDocument(w)
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		s.logger.Error("insert work order failed", zap.Stringer("work_order", w), zap.Error(err))
		return nil, classify(err)
	}

	s.logger.Info("inserted work order", zap.String("order_id", w.OrderID))
	return s.readBack(doc)
}

func (s *MongoStore) Update(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	w := *order
	w.Normalize()

	opts := options.FindOneAndReplace().
		SetReturnDocument(options.After).
		SetProjection(Projection())

	raw, err := s.coll.FindOneAndReplace(ctx, bson.D{{Key: FieldOrderID, Value: w.OrderID}}, ToDocument(w), opts).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		s.logger.Info("no work order to update", zap.String("order_id", w.OrderID))
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("update work order failed", zap.String("order_id", w.OrderID), zap.Error(err))
		return nil, classify(err)
	}

	rec := s.decode(raw)
	if rec.Err != nil {
		return nil, rec.Err
	}
	s.logger.Info("updated work order", zap.String("order_id", w.OrderID))
	return rec.Order, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: FieldOrderID, Value: id}})
	if err != nil {
		s.logger.Error("delete work order failed", zap.String("order_id", id), zap.Error(err))
		return classify(err)
	}
	s.logger.Info("deleted work order", zap.String("order_id", id), zap.Int64("deleted", res.DeletedCount))
	return nil
}

func (s *MongoStore) decode(raw bson.Raw) Record {
	w, issues, err := FromDocument(raw, s.now())
	if err != nil {
		s.logger.Error("decode work order failed", zap.Error(err))
		return Record{Err: err}
	}
	if len(issues) > 0 {
		s.logger.Warn("work order decoded with defaults",
			zap.String("order_id", w.OrderID),
			zap.Stringers("issues", issues),
		)
	}
	return Record{Order: &w, Issues: issues}
}

func (s *MongoStore) readBack(doc bson.D) (*entity.WorkOrder, error) {
	raw, err := Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	rec := s.decode(raw)
	if rec.Err != nil {
		return nil, rec.Err
	}
	return rec.Order, nil
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}
