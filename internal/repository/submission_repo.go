package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/canvasslabs/canvass/internal/model"
)

// SubmissionRepo handles MongoDB operations for submission shells and their
// answer rows. The shell is created when a session starts; answers are only
// written at submit time, so a shell with zero answer rows is an abandoned
// or failed run and safe to delete.
type SubmissionRepo interface {
	CreateShell(ctx context.Context, submission *model.Submission) (string, error)
	Complete(ctx context.Context, id string, meta model.SubmissionMetadata) error
	AppendAnswers(ctx context.Context, id string, answers []model.SubmissionAnswer) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	GetBySurveyID(ctx context.Context, surveyID string) ([]*model.Submission, error)
	GetAnswers(ctx context.Context, id string) ([]*model.SubmissionAnswer, error)
	CountAnswers(ctx context.Context, id string) (int64, error)
}

type submissionRepo struct {
	submissions *mongo.Collection
	answers     *mongo.Collection
}

// NewSubmissionRepo creates a new submission repository
func NewSubmissionRepo(db *mongo.Database) SubmissionRepo {
	return &submissionRepo{
		submissions: db.Collection("submissions"),
		answers:     db.Collection("submission_answers"),
	}
}

func (r *submissionRepo) CreateShell(ctx context.Context, submission *model.Submission) (string, error) {
	if submission.Metadata.StartedAt.IsZero() {
		submission.Metadata.StartedAt = time.Now()
	}

	result, err := r.submissions.InsertOne(ctx, submission)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	return oid.Hex(), nil
}

func (r *submissionRepo) Complete(ctx context.Context, id string, meta model.SubmissionMetadata) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.submissions.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"metadata": meta}})
	return err
}

func (r *submissionRepo) AppendAnswers(ctx context.Context, id string, answers []model.SubmissionAnswer) error {
	if len(answers) == 0 {
		return nil
	}

	docs := make([]interface{}, len(answers))
	for i := range answers {
		answers[i].SubmissionID = id
		docs[i] = answers[i]
	}
	_, err := r.answers.InsertMany(ctx, docs)
	return err
}

// Delete removes a submission shell and any answer rows already written.
// This is the rollback path for failed or abandoned runs.
func (r *submissionRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	if _, err := r.answers.DeleteMany(ctx, bson.M{"submissionId": id}); err != nil {
		return err
	}
	_, err = r.submissions.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var submission model.Submission
	err = r.submissions.FindOne(ctx, bson.M{"_id": oid}).Decode(&submission)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	submission.ID = id
	return &submission, nil
}

func (r *submissionRepo) GetBySurveyID(ctx context.Context, surveyID string) ([]*model.Submission, error) {
	opts := options.Find().SetSort(bson.M{"metadata.submittedAt": -1})
	cursor, err := r.submissions.Find(ctx, bson.M{"surveyId": surveyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var submissions []*model.Submission
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepo) GetAnswers(ctx context.Context, id string) ([]*model.SubmissionAnswer, error) {
	cursor, err := r.answers.Find(ctx, bson.M{"submissionId": id})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var answers []*model.SubmissionAnswer
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *submissionRepo) CountAnswers(ctx context.Context, id string) (int64, error) {
	return r.answers.CountDocuments(ctx, bson.M{"submissionId": id})
}
