package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/canvasslabs/canvass/internal/model"
)

// BankRepo handles MongoDB operations for question banks, the reference
// material handed to the generator as context
type BankRepo interface {
	Create(ctx context.Context, bank *model.QuestionBank) (string, error)
	GetByID(ctx context.Context, id string) (*model.QuestionBank, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]*model.QuestionBank, error)
	Delete(ctx context.Context, id string) error
}

type bankRepo struct {
	collection *mongo.Collection
}

// NewBankRepo creates a new question bank repository
func NewBankRepo(db *mongo.Database) BankRepo {
	return &bankRepo{
		collection: db.Collection("banks"),
	}
}

func (r *bankRepo) Create(ctx context.Context, bank *model.QuestionBank) (string, error) {
	bank.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, bank)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	return oid.Hex(), nil
}

func (r *bankRepo) GetByID(ctx context.Context, id string) (*model.QuestionBank, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var bank model.QuestionBank
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&bank)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	bank.ID = id
	return &bank, nil
}

func (r *bankRepo) GetByOwnerID(ctx context.Context, ownerID string) ([]*model.QuestionBank, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var banks []*model.QuestionBank
	if err := cursor.All(ctx, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

func (r *bankRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
