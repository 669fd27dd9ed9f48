package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
)

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) GetByContractAndReviewer(ctx context.Context, contractID, reviewerID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, contractID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error) {
	args := m.Called(ctx, revieweeID, limit, offset)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) Update(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) ListAll(ctx context.Context, limit, offset int) ([]models.Review, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockContractRepoForReview struct {
	mock.Mock
}

func (m *mockContractRepoForReview) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contract), args.Error(1)
}

func completedContract(clientID, freelancerID uuid.UUID) *models.Contract {
	return &models.Contract{
		ID:           uuid.New(),
		JobID:        uuid.New(),
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Status:       models.ContractStatusCompleted,
	}
}

func TestReviewService_Create_Success(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	contractRepo := new(mockContractRepoForReview)
	svc := NewReviewService(reviewRepo, contractRepo)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	contract := completedContract(clientID, freelancerID)

	contractRepo.On("GetByID", ctx, contract.ID).Return(contract, nil)
	reviewRepo.On("GetByContractAndReviewer", ctx, contract.ID, clientID).Return(nil, nil)
	reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	comment := "Great collaboration"
	review, err := svc.Create(ctx, clientID, CreateReviewInput{
		ContractID: contract.ID,
		Rating:     5,
		Comment:    &comment,
	})

	assert.NoError(t, err)
	assert.NotNil(t, review)
	assert.Equal(t, freelancerID, review.RevieweeID)
	assert.Equal(t, contract.JobID, review.JobID)
	assert.Equal(t, 5, review.Rating)
}

func TestReviewService_Create_RatingBounds(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	contractRepo := new(mockContractRepoForReview)
	svc := NewReviewService(reviewRepo, contractRepo)
	ctx := context.Background()

	clientID := uuid.New()
	contract := completedContract(clientID, uuid.New())
	contractRepo.On("GetByID", ctx, contract.ID).Return(contract, nil)
	reviewRepo.On("GetByContractAndReviewer", ctx, contract.ID, clientID).Return(nil, nil)
	reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	_, err := svc.Create(ctx, clientID, CreateReviewInput{ContractID: contract.ID, Rating: 0})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Create(ctx, clientID, CreateReviewInput{ContractID: contract.ID, Rating: 6})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Create(ctx, clientID, CreateReviewInput{ContractID: contract.ID, Rating: 1})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, clientID, CreateReviewInput{ContractID: contract.ID, Rating: 5})
	assert.NoError(t, err)
}

func TestReviewService_Create_ContractNotCompleted(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	contractRepo := new(mockContractRepoForReview)
	svc := NewReviewService(reviewRepo, contractRepo)
	ctx := context.Background()

	clientID := uuid.New()
	contract := completedContract(clientID, uuid.New())
	contract.Status = models.ContractStatusActive
	contractRepo.On("GetByID", ctx, contract.ID).Return(contract, nil)

	_, err := svc.Create(ctx, clientID, CreateReviewInput{ContractID: contract.ID, Rating: 4})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "completed")
}

func TestReviewService_Create_AlreadyReviewed(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	contractRepo := new(mockContractRepoForReview)
	svc := NewReviewService(reviewRepo, contractRepo)
	ctx := context.Background()

	clientID := uuid.New()
	contract := completedContract(clientID, uuid.New())
	existing := &models.Review{ID: uuid.New()}

	contractRepo.On("GetByID", ctx, contract.ID).Return(contract, nil)
	reviewRepo.On("GetByContractAndReviewer", ctx, contract.ID, clientID).Return(existing, nil)

	_, err := svc.Create(ctx, clientID, CreateReviewInput{ContractID: contract.ID, Rating: 5})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already reviewed")
}

func TestReviewService_Create_NotParticipant(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	contractRepo := new(mockContractRepoForReview)
	svc := NewReviewService(reviewRepo, contractRepo)
	ctx := context.Background()

	contract := completedContract(uuid.New(), uuid.New())
	contractRepo.On("GetByID", ctx, contract.ID).Return(contract, nil)

	_, err := svc.Create(ctx, uuid.New(), CreateReviewInput{ContractID: contract.ID, Rating: 5})
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestReviewService_Create_FreelancerReviewsClient(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	contractRepo := new(mockContractRepoForReview)
	svc := NewReviewService(reviewRepo, contractRepo)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	contract := completedContract(clientID, freelancerID)

	contractRepo.On("GetByID", ctx, contract.ID).Return(contract, nil)
	reviewRepo.On("GetByContractAndReviewer", ctx, contract.ID, freelancerID).Return(nil, nil)
	reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	review, err := svc.Create(ctx, freelancerID, CreateReviewInput{ContractID: contract.ID, Rating: 4})
	assert.NoError(t, err)
	assert.Equal(t, clientID, review.RevieweeID)
}

func TestReviewService_Rating(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	contractRepo := new(mockContractRepoForReview)
	svc := NewReviewService(reviewRepo, contractRepo)
	ctx := context.Background()

	userID := uuid.New()
	reviewRepo.On("GetAverageRating", ctx, userID).Return(4.5, 12, nil)

	avg, count, err := svc.Rating(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, 4.5, avg)
	assert.Equal(t, 12, count)
}

func TestReviewService_Delete_NotOwner(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	contractRepo := new(mockContractRepoForReview)
	svc := NewReviewService(reviewRepo, contractRepo)
	ctx := context.Background()

	review := &models.Review{ID: uuid.New(), ReviewerID: uuid.New()}
	reviewRepo.On("GetByID", ctx, review.ID).Return(review, nil)

	err := svc.Delete(ctx, review.ID, uuid.New())
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestReviewService_Update_Success(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	contractRepo := new(mockContractRepoForReview)
	svc := NewReviewService(reviewRepo, contractRepo)
	ctx := context.Background()

	reviewerID := uuid.New()
	review := &models.Review{ID: uuid.New(), ReviewerID: reviewerID, Rating: 3}
	reviewRepo.On("GetByID", ctx, review.ID).Return(review, nil)
	reviewRepo.On("Update", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	rating := 5
	comment := "turned the project around"
	updated, err := svc.Update(ctx, review.ID, reviewerID, UpdateReviewInput{Rating: &rating, Comment: &comment})
	assert.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "turned the project around", *updated.Comment)
}

func TestReviewService_Update_BadRating(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	contractRepo := new(mockContractRepoForReview)
	svc := NewReviewService(reviewRepo, contractRepo)
	ctx := context.Background()

	reviewerID := uuid.New()
	review := &models.Review{ID: uuid.New(), ReviewerID: reviewerID, Rating: 3}
	reviewRepo.On("GetByID", ctx, review.ID).Return(review, nil)

	rating := 6
	_, err := svc.Update(ctx, review.ID, reviewerID, UpdateReviewInput{Rating: &rating})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	reviewRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReviewService_Update_NotOwner(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	contractRepo := new(mockContractRepoForReview)
	svc := NewReviewService(reviewRepo, contractRepo)
	ctx := context.Background()

	review := &models.Review{ID: uuid.New(), ReviewerID: uuid.New(), Rating: 3}
	reviewRepo.On("GetByID", ctx, review.ID).Return(review, nil)

	rating := 4
	_, err := svc.Update(ctx, review.ID, uuid.New(), UpdateReviewInput{Rating: &rating})
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}
