package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RobCalvi/BNC-BE/internal/changelog"
	"github.com/RobCalvi/BNC-BE/internal/company"
	"github.com/RobCalvi/BNC-BE/internal/reminder"
)

// MongoStorage implements the Storage interface using MongoDB.
type MongoStorage struct {
	client              *mongo.Client
	database            *mongo.Database
	companyCollection   *mongo.Collection
	reminderCollection  *mongo.Collection
	changelogCollection *mongo.Collection
}

// NewMongoStorage connects to MongoDB and returns a storage instance
// backed by the given database.
func NewMongoStorage(connectionString, databaseName string) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(databaseName)

	return &MongoStorage{
		client:              client,
		database:            database,
		companyCollection:   database.Collection("company"),
		reminderCollection:  database.Collection("reminders"),
		changelogCollection: database.Collection("changelog"),
	}, nil
}

// Close closes the MongoDB connection.
func (ms *MongoStorage) Close(ctx context.Context) error {
	return ms.client.Disconnect(ctx)
}

// Company operations

func (ms *MongoStorage) CreateCompany(ctx context.Context, c *company.Company) error {
	if _, err := ms.companyCollection.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

func (ms *MongoStorage) GetCompany(ctx context.Context, id string) (*company.Company, error) {
	var c company.Company
	err := ms.companyCollection.FindOne(ctx, bson.M{"id": id}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("company %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

func (ms *MongoStorage) ListCompanies(ctx context.Context, skip, limit int) ([]*company.Company, error) {
	opts := options.Find().SetSkip(int64(skip)).SetLimit(int64(limit))
	cursor, err := ms.companyCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer cursor.Close(ctx)

	var companies []*company.Company
	for cursor.Next(ctx) {
		var c company.Company
		if err := cursor.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to decode company: %w", err)
		}
		companies = append(companies, &c)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return companies, nil
}

func (ms *MongoStorage) ListCompaniesProjected(ctx context.Context, ids []string, fields []string) (map[string]*company.Company, error) {
	projection := bson.M{"id": 1}
	for _, f := range fields {
		projection[f] = 1
	}
	opts := options.Find().SetProjection(projection)
	cursor, err := ms.companyCollection.Find(ctx, bson.M{"id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies with projection: %w", err)
	}
	defer cursor.Close(ctx)

	result := make(map[string]*company.Company)
	for cursor.Next(ctx) {
		var c company.Company
		if err := cursor.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to decode company: %w", err)
		}
		result[c.ID] = &c
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return result, nil
}

func (ms *MongoStorage) UpdateCompanyFields(ctx context.Context, id string, fields map[string]any) (bool, error) {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	res, err := ms.companyCollection.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update company: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (ms *MongoStorage) DeleteCompany(ctx context.Context, id string) (bool, error) {
	res, err := ms.companyCollection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete company: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// Financial history

func (ms *MongoStorage) LastFinancialSnapshot(ctx context.Context, companyID string) (company.Snapshot, error) {
	opts := options.FindOne().SetProjection(bson.M{"financials": bson.M{"$slice": -1}})
	var doc struct {
		Financials []company.Snapshot `bson:"financials"`
	}
	err := ms.companyCollection.FindOne(ctx, bson.M{"id": companyID}, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("company %s: %w", companyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read financial history: %w", err)
	}
	if len(doc.Financials) == 0 {
		return nil, nil
	}
	return doc.Financials[0], nil
}

func (ms *MongoStorage) PushFinancialSnapshot(ctx context.Context, companyID string, snap company.Snapshot) (bool, error) {
	res, err := ms.companyCollection.UpdateOne(ctx, bson.M{"id": companyID}, bson.M{"$push": bson.M{"financials": snap}})
	if err != nil {
		return false, fmt.Errorf("failed to push financial snapshot: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// Embedded array operations

func (ms *MongoStorage) PushAction(ctx context.Context, companyID string, a company.Action) (bool, error) {
	res, err := ms.companyCollection.UpdateOne(ctx, bson.M{"id": companyID}, bson.M{"$push": bson.M{"actions": a}})
	if err != nil {
		return false, fmt.Errorf("failed to push action: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (ms *MongoStorage) PullAction(ctx context.Context, companyID, actionID string) (bool, error) {
	res, err := ms.companyCollection.UpdateOne(ctx, bson.M{"id": companyID}, bson.M{"$pull": bson.M{"actions": bson.M{"id": actionID}}})
	if err != nil {
		return false, fmt.Errorf("failed to pull action: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (ms *MongoStorage) PushContact(ctx context.Context, companyID string, c company.Contact) (bool, error) {
	res, err := ms.companyCollection.UpdateOne(ctx, bson.M{"id": companyID}, bson.M{"$push": bson.M{"contacts": c}})
	if err != nil {
		return false, fmt.Errorf("failed to push contact: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (ms *MongoStorage) ReplaceContact(ctx context.Context, companyID string, c company.Contact) (bool, error) {
	filter := bson.M{"id": companyID, "contacts.id": c.ID}
	res, err := ms.companyCollection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"contacts.$": c}})
	if err != nil {
		return false, fmt.Errorf("failed to replace contact: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (ms *MongoStorage) PullContact(ctx context.Context, companyID, contactID string) (bool, error) {
	res, err := ms.companyCollection.UpdateOne(ctx, bson.M{"id": companyID}, bson.M{"$pull": bson.M{"contacts": bson.M{"id": contactID}}})
	if err != nil {
		return false, fmt.Errorf("failed to pull contact: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// Reminder operations

func (ms *MongoStorage) UpsertReminder(ctx context.Context, r *reminder.Reminder) (bool, error) {
	filter := bson.M{"company_id": r.CompanyID, "action_id": r.ActionID}
	update := bson.M{
		"$set": bson.M{
			"company_id": r.CompanyID,
			"action_id":  r.ActionID,
			"due_date":   r.DueDate,
			"completed":  r.Completed,
		},
		"$setOnInsert": bson.M{
			"id":         r.ID,
			"created_at": r.CreatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)
	res, err := ms.reminderCollection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, fmt.Errorf("failed to upsert reminder: %w", err)
	}
	return res.UpsertedID != nil || res.MatchedCount > 0, nil
}

func (ms *MongoStorage) GetReminder(ctx context.Context, id string) (*reminder.Reminder, error) {
	var r reminder.Reminder
	err := ms.reminderCollection.FindOne(ctx, bson.M{"id": id}).Decode(&r)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &r, nil
}

func (ms *MongoStorage) GetReminderByPair(ctx context.Context, companyID, actionID string) (*reminder.Reminder, error) {
	var r reminder.Reminder
	filter := bson.M{"company_id": companyID, "action_id": actionID}
	err := ms.reminderCollection.FindOne(ctx, filter).Decode(&r)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("reminder for company %s action %s: %w", companyID, actionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &r, nil
}

func (ms *MongoStorage) ListReminders(ctx context.Context, limit int, openOnly bool) ([]*reminder.Reminder, error) {
	filter := bson.M{}
	if openOnly {
		filter["completed"] = false
	}
	opts := options.Find().SetLimit(int64(limit))
	cursor, err := ms.reminderCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer cursor.Close(ctx)

	var reminders []*reminder.Reminder
	for cursor.Next(ctx) {
		var r reminder.Reminder
		if err := cursor.Decode(&r); err != nil {
			return nil, fmt.Errorf("failed to decode reminder: %w", err)
		}
		reminders = append(reminders, &r)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return reminders, nil
}

func (ms *MongoStorage) UpdateReminderFields(ctx context.Context, id string, fields map[string]any) (bool, error) {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	res, err := ms.reminderCollection.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update reminder: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (ms *MongoStorage) DeleteReminderByPair(ctx context.Context, companyID, actionID string) (bool, error) {
	filter := bson.M{"company_id": companyID, "action_id": actionID}
	res, err := ms.reminderCollection.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to delete reminder: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// Changelog operations

func (ms *MongoStorage) InsertChangelog(ctx context.Context, e *changelog.Entry) error {
	if _, err := ms.changelogCollection.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("failed to insert changelog entry: %w", err)
	}
	return nil
}

func (ms *MongoStorage) ListChangelog(ctx context.Context, limit int) ([]*changelog.Entry, error) {
	opts := options.Find().SetSort(bson.M{"date": -1}).SetLimit(int64(limit))
	cursor, err := ms.changelogCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list changelog: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*changelog.Entry
	for cursor.Next(ctx) {
		var e changelog.Entry
		if err := cursor.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode changelog entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return entries, nil
}
