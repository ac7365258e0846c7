package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canvasslabs/canvass/internal/model"
	"github.com/canvasslabs/canvass/internal/repository"
)

var ErrBankNotFound = errors.New("question bank not found")

// CreateBankRequest is the request body for saving a question bank
type CreateBankRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=100000"`
}

// BankService manages reusable question banks. A bank is free-form text the
// generator feeds to the model alongside the builder's prompt.
type BankService struct {
	banks repository.BankRepo
}

// NewBankService creates a new bank service
func NewBankService(banks repository.BankRepo) *BankService {
	return &BankService{banks: banks}
}

// Create saves a new bank for the owner
func (s *BankService) Create(ctx context.Context, ownerID string, req *CreateBankRequest) (*model.QuestionBank, error) {
	bank := &model.QuestionBank{
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(req.Name),
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	id, err := s.banks.Create(ctx, bank)
	if err != nil {
		return nil, fmt.Errorf("failed to create bank: %w", err)
	}
	bank.ID = id

	return bank, nil
}

// List returns the owner's banks
func (s *BankService) List(ctx context.Context, ownerID string) ([]*model.QuestionBank, error) {
	return s.banks.GetByOwnerID(ctx, ownerID)
}

// Delete removes a bank the owner created
func (s *BankService) Delete(ctx context.Context, ownerID, bankID string) error {
	bank, err := s.banks.GetByID(ctx, bankID)
	if err != nil {
		return fmt.Errorf("failed to load bank: %w", err)
	}
	if bank == nil || bank.OwnerID != ownerID {
		return ErrBankNotFound
	}

	return s.banks.Delete(ctx, bankID)
}
