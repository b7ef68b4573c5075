package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greencreditapi/pkg/config"
	"greencreditapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

type Mongo struct {
	DB *mongo.Database
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{DB: db}
}

var _ Store = (*Mongo)(nil)

func submissionsCollection(kind schemas.Kind) string {
	switch kind {
	case schemas.KIND_TREE:
		return config.TREE_SUBMISSIONS_COLLECTION
	case schemas.KIND_CLEANUP:
		return config.CLEANUP_SUBMISSIONS_COLLECTION
	default:
		return config.SOLAR_INSTALLATIONS_COLLECTION
	}
}

// EnsureIndexes creates the unique and lookup indexes every query relies on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {

	indexes := map[string][]mongo.IndexModel{
		config.USERS_COLLECTION: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "googleId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		config.ORDERS_COLLECTION: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "idempotencyKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		config.LEDGER_COLLECTION: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "ctime", Value: 1}}},
		},
		config.SOLAR_APPLICATIONS_COLLECTION: {
			{Keys: bson.D{{Key: "requestId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		config.SOLAR_REWARDS_COLLECTION: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		config.MESSAGES_COLLECTION: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "ctime", Value: 1}}},
		},
		config.CLEANUP_EVENTS_COLLECTION: {
			{Keys: bson.D{{Key: "startsAt", Value: 1}}},
		},
		config.EVENT_REGISTRATIONS_COLLECTION: {
			{Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}
	for _, kind := range []schemas.Kind{schemas.KIND_TREE, schemas.KIND_CLEANUP, schemas.KIND_SOLAR} {
		indexes[submissionsCollection(kind)] = []mongo.IndexModel{
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
		}
	}

	for coll, models := range indexes {
		if _, err := m.DB.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating %s indexes: %w", coll, err)
		}
	}

	return nil

}

// mapErr translates driver errors into store sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...options.Lister[options.FindOptions]) ([]T, error) {

	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil

}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {

	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapErr(err)
	}
	return &doc, nil

}

func (m *Mongo) CreateUser(ctx context.Context, user *schemas.User) error {

	user.Id = newId(user.Id)
	_, err := m.DB.Collection(config.USERS_COLLECTION).InsertOne(ctx, user)
	return mapErr(err)

}

func (m *Mongo) GetUser(ctx context.Context, id string) (*schemas.User, error) {
	return findOne[schemas.User](ctx, m.DB.Collection(config.USERS_COLLECTION), bson.M{"_id": id})
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*schemas.User, error) {
	return findOne[schemas.User](ctx, m.DB.Collection(config.USERS_COLLECTION), bson.M{"email": email})
}

func (m *Mongo) GetUserByGoogleId(ctx context.Context, googleId string) (*schemas.User, error) {
	return findOne[schemas.User](ctx, m.DB.Collection(config.USERS_COLLECTION), bson.M{"googleId": googleId})
}

func (m *Mongo) EnsureUser(ctx context.Context, user *schemas.User) (*schemas.User, error) {

	fields := bson.M{
		"ctime":       user.Ctime,
		"firebaseUid": user.FirebaseUid,
		"firstName":   user.FirstName,
		"lastName":    user.LastName,
		"handle":      user.Handle,
		"role":        user.Role,
		"totalTokens": 0,
		"ledgerSeq":   0,
	}
	if user.Email != "" {
		fields["email"] = user.Email
	}

	var stored schemas.User
	err := m.DB.Collection(config.USERS_COLLECTION).FindOneAndUpdate(ctx,
		bson.M{"_id": user.Id},
		bson.M{"$setOnInsert": fields},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return nil, mapErr(err)
	}
	return &stored, nil

}

func (m *Mongo) ListUsers(ctx context.Context) ([]schemas.User, error) {
	return findAll[schemas.User](ctx, m.DB.Collection(config.USERS_COLLECTION), bson.M{},
		options.Find().SetSort(bson.D{{Key: "ctime", Value: 1}, {Key: "_id", Value: 1}}))
}

func (m *Mongo) UpdateProfile(ctx context.Context, id string, firstName string, lastName string) (*schemas.User, error) {

	var updated schemas.User
	err := m.DB.Collection(config.USERS_COLLECTION).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"firstName": firstName, "lastName": lastName}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, mapErr(err)
	}
	return &updated, nil

}

func (m *Mongo) AddCachedTokens(ctx context.Context, id string, delta int) error {

	res, err := m.DB.Collection(config.USERS_COLLECTION).UpdateByID(ctx, id, bson.M{"$inc": bson.M{"totalTokens": delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil

}

func (m *Mongo) InsertSubmission(ctx context.Context, sub *schemas.Submission) error {

	sub.Id = newId(sub.Id)
	_, err := m.DB.Collection(submissionsCollection(sub.Kind)).InsertOne(ctx, sub)
	return mapErr(err)

}

func (m *Mongo) GetSubmission(ctx context.Context, kind schemas.Kind, id string) (*schemas.Submission, error) {
	return findOne[schemas.Submission](ctx, m.DB.Collection(submissionsCollection(kind)), bson.M{"_id": id})
}

func (m *Mongo) ListSubmissions(ctx context.Context, kind schemas.Kind, filter SubmissionFilter) ([]schemas.Submission, error) {

	query := bson.M{}
	if filter.UserId != "" {
		query["userId"] = filter.UserId
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return findAll[schemas.Submission](ctx, m.DB.Collection(submissionsCollection(kind)), query,
		options.Find().SetSort(bson.D{{Key: "ctime", Value: -1}}))

}

func (m *Mongo) ReviewSubmission(ctx context.Context, kind schemas.Kind, id string, review Review) (*schemas.Submission, *schemas.Submission, error) {

	now := time.Now().UTC()
	set := bson.M{
		"status":     review.Status,
		"reviewedBy": review.ReviewedBy,
		"reviewedAt": now,
	}
	update := bson.M{"$set": set}
	if review.Tokens != nil {
		set["tokens"] = *review.Tokens
	} else {
		update["$unset"] = bson.M{"tokens": ""}
	}
	if review.Rating != nil {
		set["rating"] = *review.Rating
	}

	var before schemas.Submission
	err := m.DB.Collection(submissionsCollection(kind)).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return nil, nil, mapErr(err)
	}

	after := before
	after.Status = review.Status
	after.Tokens = review.Tokens
	if review.Rating != nil {
		after.Rating = review.Rating
	}
	after.ReviewedBy = review.ReviewedBy
	after.ReviewedAt = &now

	return &before, &after, nil

}

func (m *Mongo) DeleteSubmission(ctx context.Context, kind schemas.Kind, id string, userId string) (*schemas.Submission, error) {

	coll := m.DB.Collection(submissionsCollection(kind))
	var deleted schemas.Submission
	err := coll.FindOneAndDelete(ctx, bson.M{
		"_id":    id,
		"userId": userId,
		"status": bson.M{"$in": bson.A{schemas.STATUS_PENDING, schemas.STATUS_REJECTED}},
	}).Decode(&deleted)
	if err == nil {
		return &deleted, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// nothing deleted, tell a missing submission apart from a reviewed one
	if _, err := findOne[schemas.Submission](ctx, coll, bson.M{"_id": id, "userId": userId}); err != nil {
		return nil, err
	}
	return nil, ErrNotDeletable

}

func (m *Mongo) UpsertSolarReward(ctx context.Context, reward *schemas.SolarReward) error {

	_, err := m.DB.Collection(config.SOLAR_REWARDS_COLLECTION).ReplaceOne(ctx,
		bson.M{"_id": reward.Id}, reward, options.Replace().SetUpsert(true))
	return mapErr(err)

}

func (m *Mongo) DeleteSolarReward(ctx context.Context, id string) error {

	_, err := m.DB.Collection(config.SOLAR_REWARDS_COLLECTION).DeleteOne(ctx, bson.M{"_id": id})
	return err

}

func (m *Mongo) ListSolarRewards(ctx context.Context, userId string) ([]schemas.SolarReward, error) {
	return findAll[schemas.SolarReward](ctx, m.DB.Collection(config.SOLAR_REWARDS_COLLECTION), bson.M{"userId": userId})
}

func (m *Mongo) InsertSolarRequest(ctx context.Context, req *schemas.SolarRequest) error {

	req.Id = newId(req.Id)
	_, err := m.DB.Collection(config.SOLAR_REQUESTS_COLLECTION).InsertOne(ctx, req)
	return mapErr(err)

}

func (m *Mongo) GetSolarRequest(ctx context.Context, id string) (*schemas.SolarRequest, error) {
	return findOne[schemas.SolarRequest](ctx, m.DB.Collection(config.SOLAR_REQUESTS_COLLECTION), bson.M{"_id": id})
}

func (m *Mongo) ListSolarRequests(ctx context.Context, filter SolarRequestFilter) ([]schemas.SolarRequest, error) {

	query := bson.M{}
	if filter.UserId != "" {
		query["userId"] = filter.UserId
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return findAll[schemas.SolarRequest](ctx, m.DB.Collection(config.SOLAR_REQUESTS_COLLECTION), query,
		options.Find().SetSort(bson.D{{Key: "ctime", Value: -1}}))

}

func (m *Mongo) AcceptInstaller(ctx context.Context, requestId string, ownerId string, applicationId string) (*schemas.SolarRequest, error) {

	req, err := m.GetSolarRequest(ctx, requestId)
	if err != nil {
		return nil, err
	}
	if req.UserId != ownerId {
		return nil, ErrNotFound
	}

	apps := m.DB.Collection(config.SOLAR_APPLICATIONS_COLLECTION)
	app, err := findOne[schemas.SolarApplication](ctx, apps, bson.M{"_id": applicationId, "requestId": requestId})
	if err != nil {
		return nil, err
	}

	var updated schemas.SolarRequest
	err = m.DB.Collection(config.SOLAR_REQUESTS_COLLECTION).FindOneAndUpdate(ctx,
		bson.M{"_id": requestId, "userId": ownerId, "status": schemas.SOLAR_REQUEST_OPEN},
		bson.M{"$set": bson.M{
			"status":              schemas.SOLAR_REQUEST_IN_PROGRESS,
			"acceptedInstallerId": app.UserId,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConflict
	} else if err != nil {
		return nil, err
	}

	if _, err := apps.UpdateByID(ctx, app.Id, bson.M{"$set": bson.M{"status": schemas.SOLAR_APPLICATION_ACCEPTED}}); err != nil {
		return nil, err
	}

	return &updated, nil

}

func (m *Mongo) SetSolarRequestStatus(ctx context.Context, id string, status string) error {

	res, err := m.DB.Collection(config.SOLAR_REQUESTS_COLLECTION).UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil

}

func (m *Mongo) MarkCompletedByOwner(ctx context.Context, id string, ownerId string) error {

	res, err := m.DB.Collection(config.SOLAR_REQUESTS_COLLECTION).UpdateOne(ctx,
		bson.M{"_id": id, "userId": ownerId},
		bson.M{"$set": bson.M{"completedByOwner": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil

}

func (m *Mongo) InsertSolarApplication(ctx context.Context, app *schemas.SolarApplication) error {

	app.Id = newId(app.Id)
	_, err := m.DB.Collection(config.SOLAR_APPLICATIONS_COLLECTION).InsertOne(ctx, app)
	return mapErr(err)

}

func (m *Mongo) ListSolarApplications(ctx context.Context, requestId string) ([]schemas.SolarApplication, error) {
	return findAll[schemas.SolarApplication](ctx, m.DB.Collection(config.SOLAR_APPLICATIONS_COLLECTION), bson.M{"requestId": requestId},
		options.Find().SetSort(bson.D{{Key: "ctime", Value: 1}}))
}

func (m *Mongo) InsertCleanupEvent(ctx context.Context, event *schemas.CleanupEvent) error {

	event.Id = newId(event.Id)
	_, err := m.DB.Collection(config.CLEANUP_EVENTS_COLLECTION).InsertOne(ctx, event)
	return mapErr(err)

}

func (m *Mongo) GetCleanupEvent(ctx context.Context, id string) (*schemas.CleanupEvent, error) {
	return findOne[schemas.CleanupEvent](ctx, m.DB.Collection(config.CLEANUP_EVENTS_COLLECTION), bson.M{"_id": id})
}

func (m *Mongo) ListCleanupEvents(ctx context.Context, from time.Time) ([]schemas.CleanupEvent, error) {
	return findAll[schemas.CleanupEvent](ctx, m.DB.Collection(config.CLEANUP_EVENTS_COLLECTION), bson.M{"startsAt": bson.M{"$gte": from}},
		options.Find().SetSort(bson.D{{Key: "startsAt", Value: 1}}))
}

func (m *Mongo) InsertEventRegistration(ctx context.Context, reg *schemas.EventRegistration) error {

	reg.Id = newId(reg.Id)
	_, err := m.DB.Collection(config.EVENT_REGISTRATIONS_COLLECTION).InsertOne(ctx, reg)
	return mapErr(err)

}

func (m *Mongo) GetEventRegistration(ctx context.Context, eventId string, userId string) (*schemas.EventRegistration, error) {
	return findOne[schemas.EventRegistration](ctx, m.DB.Collection(config.EVENT_REGISTRATIONS_COLLECTION), bson.M{"eventId": eventId, "userId": userId})
}

func (m *Mongo) ListEventRegistrations(ctx context.Context, userId string) ([]schemas.EventRegistration, error) {
	return findAll[schemas.EventRegistration](ctx, m.DB.Collection(config.EVENT_REGISTRATIONS_COLLECTION), bson.M{"userId": userId},
		options.Find().SetSort(bson.D{{Key: "ctime", Value: -1}}))
}

func (m *Mongo) InsertProduct(ctx context.Context, product *schemas.Product) error {

	product.Id = newId(product.Id)
	_, err := m.DB.Collection(config.PRODUCTS_COLLECTION).InsertOne(ctx, product)
	return mapErr(err)

}

func (m *Mongo) GetProduct(ctx context.Context, id string) (*schemas.Product, error) {
	return findOne[schemas.Product](ctx, m.DB.Collection(config.PRODUCTS_COLLECTION), bson.M{"_id": id})
}

func (m *Mongo) ListProducts(ctx context.Context) ([]schemas.Product, error) {
	return findAll[schemas.Product](ctx, m.DB.Collection(config.PRODUCTS_COLLECTION), bson.M{},
		options.Find().SetSort(bson.D{{Key: "cost", Value: 1}, {Key: "_id", Value: 1}}))
}

func (m *Mongo) PlaceOrder(ctx context.Context, order *schemas.Order, debit *schemas.LedgerEntry) error {

	txSession, err := m.DB.Client().StartSession()
	if err != nil {
		return err
	}
	defer txSession.EndSession(ctx)
	txOpts := options.Transaction().SetReadConcern(readconcern.Snapshot()).SetWriteConcern(writeconcern.Majority())

	_, err = txSession.WithTransaction(ctx, func(txCtx context.Context) (any, error) {

		// bump the sequence first so concurrent checkouts for the same user
		// write-conflict instead of both reading the old balance
		res, err := m.DB.Collection(config.USERS_COLLECTION).UpdateByID(txCtx, order.UserId, bson.M{"$inc": bson.M{"ledgerSeq": 1}})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}

		balance, err := m.ledgerSum(txCtx, order.UserId)
		if err != nil {
			return nil, err
		}
		if balance < order.Total {
			return nil, ErrInsufficientBalance
		}

		if _, err := m.DB.Collection(config.ORDERS_COLLECTION).InsertOne(txCtx, order); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, ErrDuplicateOrder
			}
			return nil, err
		}
		if _, err := m.DB.Collection(config.LEDGER_COLLECTION).InsertOne(txCtx, debit); err != nil {
			return nil, err
		}

		return nil, nil

	}, txOpts)

	return err

}

func (m *Mongo) ledgerSum(ctx context.Context, userId string) (int, error) {

	cursor, err := m.DB.Collection(config.LEDGER_COLLECTION).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userId}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "sum": bson.M{"$sum": "$amount"}}}},
	})
	if err != nil {
		return 0, err
	}
	var res []struct {
		Sum int `bson:"sum"`
	}
	if err := cursor.All(ctx, &res); err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0].Sum, nil

}

func (m *Mongo) GetOrder(ctx context.Context, id string) (*schemas.Order, error) {
	return findOne[schemas.Order](ctx, m.DB.Collection(config.ORDERS_COLLECTION), bson.M{"_id": id})
}

func (m *Mongo) GetOrderByIdempotencyKey(ctx context.Context, userId string, key string) (*schemas.Order, error) {
	return findOne[schemas.Order](ctx, m.DB.Collection(config.ORDERS_COLLECTION), bson.M{"userId": userId, "idempotencyKey": key})
}

func (m *Mongo) ListOrders(ctx context.Context, userId string) ([]schemas.Order, error) {
	return findAll[schemas.Order](ctx, m.DB.Collection(config.ORDERS_COLLECTION), bson.M{"userId": userId},
		options.Find().SetSort(bson.D{{Key: "ctime", Value: -1}}))
}

func (m *Mongo) AppendLedger(ctx context.Context, entry *schemas.LedgerEntry) error {

	entry.Id = newId(entry.Id)
	_, err := m.DB.Collection(config.LEDGER_COLLECTION).InsertOne(ctx, entry)
	return mapErr(err)

}

func (m *Mongo) ListLedger(ctx context.Context, userId string) ([]schemas.LedgerEntry, error) {
	return findAll[schemas.LedgerEntry](ctx, m.DB.Collection(config.LEDGER_COLLECTION), bson.M{"userId": userId},
		options.Find().SetSort(bson.D{{Key: "ctime", Value: 1}}))
}

func (m *Mongo) InsertMessage(ctx context.Context, msg *schemas.ChatMessage) error {

	msg.Id = newId(msg.Id)
	_, err := m.DB.Collection(config.MESSAGES_COLLECTION).InsertOne(ctx, msg)
	return mapErr(err)

}

func (m *Mongo) ListMessages(ctx context.Context, userId string) ([]schemas.ChatMessage, error) {
	return findAll[schemas.ChatMessage](ctx, m.DB.Collection(config.MESSAGES_COLLECTION), bson.M{"userId": userId},
		options.Find().SetSort(bson.D{{Key: "ctime", Value: 1}}))
}

func (m *Mongo) ListThreads(ctx context.Context) ([]schemas.ChatThread, error) {

	cursor, err := m.DB.Collection(config.MESSAGES_COLLECTION).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "ctime", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$userId"},
			{Key: "lastMessage", Value: bson.M{"$first": "$message"}},
			{Key: "lastSender", Value: bson.M{"$first": "$sender"}},
			{Key: "lastAt", Value: bson.M{"$first": "$ctime"}},
			{Key: "count", Value: bson.M{"$sum": 1}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastAt", Value: -1}}}},
	})
	if err != nil {
		return nil, err
	}
	threads := []schemas.ChatThread{}
	if err := cursor.All(ctx, &threads); err != nil {
		return nil, err
	}
	return threads, nil

}
