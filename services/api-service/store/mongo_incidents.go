package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"safe-haven/services/api-service/models"
)

type MongoIncidentStore struct {
	col *mongo.Collection
}

func NewMongoIncidentStore(db *mongo.Database) *MongoIncidentStore {
	return &MongoIncidentStore{col: db.Collection("incidents")}
}

func (s *MongoIncidentStore) Insert(ctx context.Context, i *models.Incident) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if i.ID.IsZero() {
		i.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, i)
	return err
}

func (s *MongoIncidentStore) FindByID(ctx context.Context, id string) (*models.Incident, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var inc models.Incident
	err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&inc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

func (s *MongoIncidentStore) List(ctx context.Context, status models.IncidentStatus, limit int64) ([]models.Incident, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter, limit)
}

func (s *MongoIncidentStore) ListByReporter(ctx context.Context, reporterID string) ([]models.Incident, error) {
	oid, err := parseObjectID(reporterID)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, bson.M{"reported_by": oid}, 0)
}

func (s *MongoIncidentStore) find(ctx context.Context, filter bson.M, limit int64) ([]models.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var incidents []models.Incident
	if err := cursor.All(ctx, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (s *MongoIncidentStore) SetStatus(ctx context.Context, id string, status models.IncidentStatus, moderatorID string, reason string) (*models.Incident, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	modOID, err := parseObjectID(moderatorID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":            status,
		"moderated_by":      modOID,
		"moderation_reason": reason,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var inc models.Incident
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&inc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

func (s *MongoIncidentStore) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoIncidentStore) Count(ctx context.Context) (int64, error) {
	return s.count(ctx, bson.M{})
}

func (s *MongoIncidentStore) CountByStatus(ctx context.Context, status models.IncidentStatus) (int64, error) {
	return s.count(ctx, bson.M{"status": status})
}

func (s *MongoIncidentStore) CountBySeverity(ctx context.Context, severity models.Severity) (int64, error) {
	return s.count(ctx, bson.M{"severity": severity})
}

func (s *MongoIncidentStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return s.count(ctx, bson.M{"created_at": bson.M{"$gte": since}})
}

func (s *MongoIncidentStore) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return s.col.CountDocuments(ctx, filter)
}

// ReportsPerDay groups incident counts per calendar day since the given
// time, ascending by date. Day buckets come from $dateToString on the
// stored creation timestamp, so the server's effective zone is Mongo's UTC.
func (s *MongoIncidentStore) ReportsPerDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$created_at",
			}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var buckets []DayCount
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

// CategoryDistribution groups incident counts per category. Categories with
// no incidents are absent, not zero.
func (s *MongoIncidentStore) CategoryDistribution(ctx context.Context) ([]CategoryCount, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$category",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var buckets []CategoryCount
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

type MongoArchiveStore struct {
	col *mongo.Collection
}

func NewMongoArchiveStore(db *mongo.Database) *MongoArchiveStore {
	return &MongoArchiveStore{col: db.Collection("archived_incidents")}
}

func (s *MongoArchiveStore) Insert(ctx context.Context, a *models.ArchivedIncident) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, a)
	return err
}

func (s *MongoArchiveStore) ListByReporter(ctx context.Context, reporterID string) ([]models.ArchivedIncident, error) {
	oid, err := parseObjectID(reporterID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "deleted_at", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{"reported_by": oid}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var archived []models.ArchivedIncident
	if err := cursor.All(ctx, &archived); err != nil {
		return nil, err
	}
	return archived, nil
}
