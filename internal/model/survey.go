package model

import "time"

// Survey is a persistent question tree created by a builder
type Survey struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	OwnerID     string     `json:"ownerId" bson:"ownerId"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Language    string     `json:"language" bson:"language"` // Presentation hint only, the engine never inspects it
	Questions   []Question `json:"questions" bson:"questions"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// QuestionBank is reference material a builder uploads to steer generation
type QuestionBank struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	OwnerID   string    `json:"ownerId" bson:"ownerId"`
	Name      string    `json:"name" bson:"name"`
	Content   string    `json:"content" bson:"content"` // Raw text handed to the generator as context
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
