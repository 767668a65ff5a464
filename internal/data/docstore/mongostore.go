package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

// mongoNoQueryPlans is returned when notablescan forbids a query that no
// index serves.
const mongoNoQueryPlans = 291

// MongoStore maps collections 1:1 onto MongoDB collections keyed by _id.
// It does not implement Transactor.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	log     *logger.Logger
	indexes *IndexRegistry
	clock   *clock
}

func NewMongoStore(ctx context.Context, uri, database string, indexes *IndexRegistry, baseLog *logger.Logger) (*MongoStore, error) {
	log := baseLog.With("store", "MongoStore")
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := &MongoStore{
		client:  client,
		db:      client.Database(database),
		log:     log,
		indexes: indexes,
		clock:   &clock{},
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Info("Connected to MongoDB", "database", database, "indexes", len(indexes.Indexes()))
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	for _, ix := range s.indexes.Indexes() {
		keys := bson.D{}
		for _, f := range ix.Fields {
			dir := 1
			if f.Order == Descending {
				dir = -1
			}
			keys = append(keys, bson.E{Key: f.Field, Value: dir})
		}
		model := mongo.IndexModel{Keys: keys, Options: options.Index().SetName(indexName(ix))}
		if _, err := s.db.Collection(ix.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index %s: %w", ix, err)
		}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	const op = "docstore.get"
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(op, collection, id)
	}
	if err != nil {
		return nil, s.mapErr(op, err)
	}
	return mongoDoc(collection, raw), nil
}

func (s *MongoStore) Create(ctx context.Context, collection string, data Data) (string, error) {
	id := uuid.NewString()
	now := s.clock.Now()
	doc := toBSON(applyCreate(data, now))
	doc["_id"] = id
	doc["_createTime"] = now
	doc["_updateTime"] = now
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", s.mapErr("docstore.create", err)
	}
	return id, nil
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, data Data) error {
	const op = "docstore.set"
	if id == "" {
		return invalidArgument(op, "document id is required")
	}
	now := s.clock.Now()
	doc := toBSON(applyCreate(data, now))
	doc["_id"] = id
	doc["_createTime"] = now
	doc["_updateTime"] = now
	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return s.mapErr(op, err)
	}
	return nil
}

// Update translates transforms into update operators so the merge happens
// server side in one round trip.
func (s *MongoStore) Update(ctx context.Context, collection, id string, data Data) error {
	const op = "docstore.update"
	set := bson.M{}
	inc := bson.M{}
	addToSet := bson.M{}
	pull := bson.M{}
	currentDate := bson.M{"_updateTime": true}
	for k, v := range data {
		if !validField(k) {
			return invalidArgument(op, "invalid field %q", k)
		}
		t, ok := v.(Transform)
		if !ok {
			set[k] = toBSONValue(v)
			continue
		}
		switch t.kind {
		case transformServerTimestamp:
			currentDate[k] = true
		case transformIncrement:
			inc[k] = t.delta
		case transformArrayUnion:
			addToSet[k] = bson.M{"$each": toBSONValue(t.values)}
		case transformArrayRemove:
			pull[k] = bson.M{"$in": toBSONValue(t.values)}
		}
	}
	update := bson.M{"$currentDate": currentDate}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	if len(addToSet) > 0 {
		update["$addToSet"] = addToSet
	}
	if len(pull) > 0 {
		update["$pull"] = pull
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return s.mapErr(op, err)
	}
	if res.MatchedCount == 0 {
		return notFound(op, collection, id)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return s.mapErr("docstore.delete", err)
	}
	return nil
}

func (s *MongoStore) Query(ctx context.Context, q Query) (*QueryResult, error) {
	const op = "docstore.query"
	if err := q.Validate(); err != nil {
		return nil, err
	}
	filter := bson.D{}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEq:
			filter = append(filter, bson.E{Key: f.Field, Value: toBSONValue(f.Value)})
		case OpIn:
			filter = append(filter, bson.E{Key: f.Field, Value: bson.M{"$in": toBSONValue(inValues(f))}})
		}
	}
	if q.StartAfter != "" {
		id, err := DecodeCursor(q.Collection, q.StartAfter)
		if err != nil {
			return nil, err
		}
		anchor, err := s.Get(ctx, q.Collection, id)
		if errors.Is(err, ErrNotFound) {
			return nil, invalidArgument(op, "cursor document %s no longer exists", id)
		}
		if err != nil {
			return nil, err
		}
		filter = append(filter, bson.E{Key: "$or", Value: mongoKeyset(q.Orders, anchor)})
	}

	sort := bson.D{}
	for _, o := range q.Orders {
		dir := 1
		if o.Dir == Descending {
			dir = -1
		}
		sort = append(sort, bson.E{Key: o.Field, Value: dir})
	}
	sort = append(sort, bson.E{Key: "_id", Value: 1})
	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts = opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, s.mapErr(op, err)
	}
	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, s.mapErr(op, err)
	}
	docs := make([]*Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, mongoDoc(q.Collection, raw))
	}
	return resultFor(docs), nil
}

func mongoKeyset(orders []Order, anchor *Document) bson.A {
	var (
		or     bson.A
		prefix bson.D
	)
	for _, o := range orders {
		cmp := "$gt"
		if o.Dir == Descending {
			cmp = "$lt"
		}
		val := toBSONValue(anchor.Data[o.Field])
		term := append(append(bson.D{}, prefix...), bson.E{Key: o.Field, Value: bson.M{cmp: val}})
		or = append(or, term)
		prefix = append(prefix, bson.E{Key: o.Field, Value: val})
	}
	last := append(append(bson.D{}, prefix...), bson.E{Key: "_id", Value: bson.M{"$gt": anchor.ID}})
	return append(or, last)
}

func (s *MongoStore) mapErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return newError(CodeUnavailable, op, "mongo unavailable", err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(mongoNoQueryPlans) {
		return newError(CodeFailedPrecondition, op, "the query requires an index: "+err.Error(), err)
	}
	s.log.Error("Document store call failed", "op", op, "error", err)
	return newError(CodeInternal, op, "mongo error", err)
}

func mongoDoc(collection string, raw bson.M) *Document {
	d := &Document{Collection: collection, Data: Data{}}
	for k, v := range raw {
		switch k {
		case "_id":
			d.ID = fmt.Sprint(v)
		case "_createTime":
			if t, ok := normalizeBSON(v).(time.Time); ok {
				d.CreateTime = t
			}
		case "_updateTime":
			if t, ok := normalizeBSON(v).(time.Time); ok {
				d.UpdateTime = t
			}
		default:
			d.Data[k] = normalizeBSON(v)
		}
	}
	return d
}

// normalizeBSON converts driver types into the plain Go values the other
// backends return.
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeBSON(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = normalizeBSON(e)
		}
		return m
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeBSON(e)
		}
		return t
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeBSON(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeBSON(e)
		}
		return out
	case bson.DateTime:
		return t.Time().UTC()
	case int32:
		return int64(t)
	}
	return v
}

func toBSON(d Data) bson.M {
	out := make(bson.M, len(d))
	for k, v := range d {
		out[k] = toBSONValue(v)
	}
	return out
}

func toBSONValue(v any) any {
	switch t := v.(type) {
	case Data:
		return toBSON(t)
	case map[string]any:
		return toBSON(Data(t))
	case []any:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = toBSONValue(e)
		}
		return out
	case []string:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case time.Time:
		return t.UTC()
	}
	return v
}
