package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopmate/internal/model"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// ConversationRepo is the conversation store adapter.
type ConversationRepo struct {
	collection *mongo.Collection
}

// NewConversationRepo creates the repository.
func NewConversationRepo(db *mongo.Database) *ConversationRepo {
	return &ConversationRepo{
		collection: db.Collection("conversations"),
	}
}

// GetOrCreate loads the conversation by id when a valid id is supplied and
// it belongs to the store; otherwise it creates a fresh active conversation
// for the customer.
func (r *ConversationRepo) GetOrCreate(ctx context.Context, id string, storeID primitive.ObjectID, customer model.Customer) (*model.Conversation, error) {
	if id != "" {
		conv, err := r.FindByID(ctx, id)
		if err == nil && conv.StoreID == storeID {
			return conv, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		// Unknown or foreign id: fall through and start a new thread.
	}

	now := time.Now()
	conv := &model.Conversation{
		StoreID:       storeID,
		CustomerEmail: customer.Email,
		CustomerName:  customer.Name,
		CustomerID:    customer.ID,
		Status:        model.StatusActive,
		Messages:      []model.Message{},
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	result, err := r.collection.InsertOne(ctx, conv)
	if err != nil {
		return nil, err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		conv.ID = oid
	}
	return conv, nil
}

// FindByID loads one conversation with its messages.
func (r *ConversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var conv model.Conversation
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// AppendMessage pushes one message and bumps the counters in a single
// update document, so message_count stays an atomic increment at the store
// layer rather than a read-modify-write in request code.
func (r *ConversationRepo) AppendMessage(ctx context.Context, id primitive.ObjectID, msg model.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$inc":  bson.M{"message_count": 1},
		"$set": bson.M{
			"last_message_at": msg.CreatedAt,
			"updated_at":      time.Now(),
		},
	}

	result, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus transitions the conversation lifecycle fields. A transition
// to escalated records the reason; a transition to resolved stamps
// resolved_at.
func (r *ConversationRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, escalationReason string) error {
	set := bson.M{
		"status":     status,
		"escalated":  status == model.StatusEscalated,
		"updated_at": time.Now(),
	}
	if status == model.StatusEscalated && escalationReason != "" {
		set["escalation_reason"] = escalationReason
	}
	if status == model.StatusResolved {
		set["resolved_at"] = time.Now()
	}

	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetMetadata merges keys into the conversation metadata map.
func (r *ConversationRepo) SetMetadata(ctx context.Context, id primitive.ObjectID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set["metadata."+k] = v
	}
	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// ListByStore returns recent conversations for a store, newest first,
// without message bodies.
func (r *ConversationRepo) ListByStore(ctx context.Context, storeID primitive.ObjectID, limit, offset int64) ([]*model.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "last_message_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset).
		SetProjection(bson.M{"messages": 0})

	cursor, err := r.collection.Find(ctx, bson.M{"store_id": storeID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []*model.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// StatusCounts aggregates conversation counts per status for one store.
func (r *ConversationRepo) StatusCounts(ctx context.Context, storeID primitive.ObjectID) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{bson.E{Key: "$match", Value: bson.M{"store_id": storeID}}},
		bson.D{bson.E{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// RedactCustomer scrubs identifying customer fields from all conversations
// matching the email, for GDPR customer redact webhooks.
func (r *ConversationRepo) RedactCustomer(ctx context.Context, storeID primitive.ObjectID, email string) (int64, error) {
	update := bson.M{
		"$set": bson.M{
			"customer_email": "",
			"customer_name":  "",
			"customer_id":    "",
			"updated_at":     time.Now(),
		},
	}
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"store_id": storeID, "customer_email": email}, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// DeleteByStore removes every conversation for a store, for GDPR shop
// redact webhooks.
func (r *ConversationRepo) DeleteByStore(ctx context.Context, storeID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"store_id": storeID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// FindByCustomerEmail returns the conversations holding data about one
// customer, for GDPR data-request webhooks.
func (r *ConversationRepo) FindByCustomerEmail(ctx context.Context, storeID primitive.ObjectID, email string) ([]*model.Conversation, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"store_id": storeID, "customer_email": email})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []*model.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}
