// Package mongo implements store.Store on MongoDB. Documents carry string
// UUID ids; approving a request runs in a multi-document transaction.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Himansh-u2000/QPlan/internal/model"
	"github.com/Himansh-u2000/QPlan/internal/store"
)

type eventDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Date        time.Time `bson:"date"`
}

func (d eventDoc) model() model.Event {
	return model.Event{ID: d.ID, Title: d.Title, Description: d.Description, Date: d.Date.UTC()}
}

type resourceDoc struct {
	ID       string `bson:"_id"`
	Name     string `bson:"name"`
	Location string `bson:"location"`
	Status   string `bson:"status"`
}

func (d resourceDoc) model() model.Resource {
	return model.Resource{ID: d.ID, Name: d.Name, Location: d.Location, Status: model.ResourceStatus(d.Status)}
}

type requestDoc struct {
	ID           string     `bson:"_id"`
	ResourceID   string     `bson:"resourceId"`
	ResourceName string     `bson:"resourceName"`
	UserID       string     `bson:"userId"`
	UserName     string     `bson:"userName"`
	Status       string     `bson:"status"`
	CreatedAt    time.Time  `bson:"createdAt"`
	DecidedAt    *time.Time `bson:"decidedAt,omitempty"`
}

func (d requestDoc) model() model.ResourceRequest {
	r := model.ResourceRequest{
		ID:           d.ID,
		ResourceID:   d.ResourceID,
		ResourceName: d.ResourceName,
		UserID:       d.UserID,
		UserName:     d.UserName,
		Status:       model.RequestStatus(d.Status),
		CreatedAt:    d.CreatedAt.UTC(),
	}
	if d.DecidedAt != nil {
		t := d.DecidedAt.UTC()
		r.DecidedAt = &t
	}
	return r
}

type Store struct {
	client    *mongo.Client
	events    *mongo.Collection
	resources *mongo.Collection
	requests  *mongo.Collection
	now       func() time.Time
}

var _ store.Store = (*Store)(nil)

func NewStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:    client,
		events:    db.Collection(store.CollectionEvents),
		resources: db.Collection(store.CollectionResources),
		requests:  db.Collection(store.CollectionRequests),
		// BSON datetimes have millisecond precision.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the pending-request uniqueness guard and the list
// indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.requests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "resourceId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("requests_one_pending").
				SetPartialFilterExpression(bson.M{"status": string(model.RequestPending)}),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("requests_status_created"),
		},
	})
	if err != nil {
		return fmt.Errorf("resourceRequests indexes: %w", err)
	}

	_, err = s.events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetName("events_date"),
	})
	if err != nil {
		return fmt.Errorf("events indexes: %w", err)
	}
	return nil
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrPendingExists
	}
	return store.Unavailable(op, err)
}

// decodeAll drains a cursor, turning decode failures into malformed-record
// errors and validating every document.
func decodeAll[D any, M any](ctx context.Context, cur *mongo.Cursor, collection string, conv func(D) M, check func(M) error) ([]M, error) {
	defer cur.Close(ctx)

	var out []M
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			id, _ := cur.Current.Lookup("_id").StringValueOK()
			return nil, store.Malformed(collection, id, err.Error())
		}
		m := conv(doc)
		if err := check(m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := cur.Err(); err != nil {
		return nil, store.Unavailable("iterate "+collection, err)
	}
	return out, nil
}

// ─── Events ──────────────────────────────────────────────────────────────────

func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.events.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, classify("list events", err)
	}
	return decodeAll(ctx, cur, store.CollectionEvents, eventDoc.model, store.CheckEvent)
}

func (s *Store) CreateEvent(ctx context.Context, title, description string, date time.Time) (model.Event, error) {
	doc := eventDoc{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Date:        date.UTC().Truncate(time.Millisecond),
	}
	if _, err := s.events.InsertOne(ctx, doc); err != nil {
		return model.Event{}, classify("insert event", err)
	}
	return doc.model(), nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.events.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return classify("delete event", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ─── Resources ───────────────────────────────────────────────────────────────

func (s *Store) ListResources(ctx context.Context) ([]model.Resource, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.resources.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, classify("list resources", err)
	}
	return decodeAll(ctx, cur, store.CollectionResources, resourceDoc.model, store.CheckResource)
}

func (s *Store) GetResource(ctx context.Context, id string) (model.Resource, error) {
	res := s.resources.FindOne(ctx, bson.M{"_id": id})
	if err := res.Err(); err != nil {
		return model.Resource{}, classify("get resource", err)
	}
	var doc resourceDoc
	if err := res.Decode(&doc); err != nil {
		return model.Resource{}, store.Malformed(store.CollectionResources, id, err.Error())
	}
	r := doc.model()
	if err := store.CheckResource(r); err != nil {
		return model.Resource{}, err
	}
	return r, nil
}

func (s *Store) CreateResource(ctx context.Context, name, location string, status model.ResourceStatus) (model.Resource, error) {
	doc := resourceDoc{
		ID:       uuid.NewString(),
		Name:     name,
		Location: location,
		Status:   string(status),
	}
	if _, err := s.resources.InsertOne(ctx, doc); err != nil {
		return model.Resource{}, classify("insert resource", err)
	}
	return doc.model(), nil
}

func (s *Store) SetResourceStatus(ctx context.Context, id string, status model.ResourceStatus) error {
	res, err := s.resources.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return classify("update resource status", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ─── Resource requests ───────────────────────────────────────────────────────

func (s *Store) findRequests(ctx context.Context, op string, filter bson.M) ([]model.ResourceRequest, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.requests.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, classify(op, err)
	}
	return decodeAll(ctx, cur, store.CollectionRequests, requestDoc.model, store.CheckRequest)
}

func (s *Store) ListPendingRequests(ctx context.Context) ([]model.ResourceRequest, error) {
	return s.findRequests(ctx, "list pending requests", bson.M{"status": string(model.RequestPending)})
}

func (s *Store) ListRequestsByUser(ctx context.Context, userID string) ([]model.ResourceRequest, error) {
	return s.findRequests(ctx, "list user requests", bson.M{"userId": userID})
}

func (s *Store) GetRequest(ctx context.Context, id string) (model.ResourceRequest, error) {
	res := s.requests.FindOne(ctx, bson.M{"_id": id})
	if err := res.Err(); err != nil {
		return model.ResourceRequest{}, classify("get request", err)
	}
	var doc requestDoc
	if err := res.Decode(&doc); err != nil {
		return model.ResourceRequest{}, store.Malformed(store.CollectionRequests, id, err.Error())
	}
	r := doc.model()
	if err := store.CheckRequest(r); err != nil {
		return model.ResourceRequest{}, err
	}
	return r, nil
}

func (s *Store) HasPendingRequest(ctx context.Context, userID, resourceID string) (bool, error) {
	n, err := s.requests.CountDocuments(ctx, bson.M{
		"userId":     userID,
		"resourceId": resourceID,
		"status":     string(model.RequestPending),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, classify("check pending request", err)
	}
	return n > 0, nil
}

func (s *Store) CreateRequest(ctx context.Context, draft model.RequestDraft) (model.ResourceRequest, error) {
	doc := requestDoc{
		ID:           uuid.NewString(),
		ResourceID:   draft.ResourceID,
		ResourceName: draft.ResourceName,
		UserID:       draft.UserID,
		UserName:     draft.UserName,
		Status:       string(model.RequestPending),
		CreatedAt:    s.now(),
	}
	if _, err := s.requests.InsertOne(ctx, doc); err != nil {
		return model.ResourceRequest{}, classify("insert request", err)
	}
	return doc.model(), nil
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	res, err := s.requests.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return classify("delete request", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DenyRequest(ctx context.Context, requestID string) error {
	return s.decide(ctx, requestID, model.RequestDenied)
}

// ApproveRequest updates the request and the resource inside one
// transaction; an error from either write aborts both.
func (s *Store) ApproveRequest(ctx context.Context, requestID, resourceID string) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return store.Unavailable("approve: start session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := s.decide(sc, requestID, model.RequestApproved); err != nil {
			return nil, err
		}
		res, err := s.resources.UpdateOne(sc,
			bson.M{"_id": resourceID},
			bson.M{"$set": bson.M{"status": string(model.ResourceUnavailable)}},
		)
		if err != nil {
			return nil, classify("approve: update resource", err)
		}
		if res.MatchedCount == 0 {
			return nil, store.ErrNotFound
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrNotPending) ||
			errors.Is(err, store.ErrStoreUnavailable) {
			return err
		}
		return store.Unavailable("approve: transaction", err)
	}
	return nil
}

// decide moves a pending request to a terminal status with a conditional
// update, so two deciders cannot both win.
func (s *Store) decide(ctx context.Context, requestID string, to model.RequestStatus) error {
	res, err := s.requests.UpdateOne(ctx,
		bson.M{"_id": requestID, "status": string(model.RequestPending)},
		bson.M{"$set": bson.M{"status": string(to), "decidedAt": s.now()}},
	)
	if err != nil {
		return classify("update request status", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := s.requests.CountDocuments(ctx, bson.M{"_id": requestID})
	if err != nil {
		return classify("lookup request", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrNotPending
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
