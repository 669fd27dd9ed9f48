package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
	"github.com/gigscape/backend/internal/repository/common"
	"github.com/gigscape/backend/internal/validation"
)

// ReviewRepository is the storage surface ReviewService depends on.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	GetByContractAndReviewer(ctx context.Context, contractID, reviewerID uuid.UUID) (*models.Review, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Review, error)
	ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error)
	GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context, limit, offset int) ([]models.Review, error)
}

// ReviewContractRepository checks the contract a review targets.
type ReviewContractRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
}

// ReviewService enforces review rules: completed contract, participant
// reviewer, one review per reviewer per contract, rating 1..5.
type ReviewService struct {
	repo      ReviewRepository
	contracts ReviewContractRepository
}

// CreateReviewInput carries a new review's fields.
type CreateReviewInput struct {
	ContractID uuid.UUID
	Rating     int
	Title      *string
	Comment    *string
}

func NewReviewService(repo ReviewRepository, contracts ReviewContractRepository) *ReviewService {
	return &ReviewService{repo: repo, contracts: contracts}
}

// Create leaves a review on a completed contract. The reviewee is the other
// party.
func (s *ReviewService) Create(ctx context.Context, reviewerID uuid.UUID, in CreateReviewInput) (*models.Review, error) {
	if err := validation.ValidateRating(in.Rating); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.Comment != nil {
		if err := validation.ValidateLength("comment", *in.Comment, 1, 5000); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	contract, err := s.contracts.GetByID(ctx, in.ContractID)
	if err != nil {
		if errors.Is(err, repository.ErrContractNotFound) {
			return nil, apperror.ErrContractNotFound
		}
		return nil, err
	}

	if !contract.Participant(reviewerID) {
		return nil, apperror.ErrForbidden
	}
	if contract.Status != models.ContractStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeConflict, "reviews are only allowed on completed contracts")
	}

	existing, err := s.repo.GetByContractAndReviewer(ctx, in.ContractID, reviewerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "you already reviewed this contract")
	}

	review := &models.Review{
		ContractID: in.ContractID,
		JobID:      contract.JobID,
		ReviewerID: reviewerID,
		RevieweeID: contract.Peer(reviewerID),
		Rating:     in.Rating,
		Title:      in.Title,
		Comment:    in.Comment,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "you already reviewed this contract")
		}
		return nil, err
	}

	return review, nil
}

// ListByJob returns all reviews attached to a job's contracts.
func (s *ReviewService) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Review, error) {
	return s.repo.ListByJob(ctx, jobID)
}

// ListByUser returns reviews received by a user, newest first.
func (s *ReviewService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByReviewee(ctx, userID, limit, offset)
}

// Rating returns a user's average rating and review count.
func (s *ReviewService) Rating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	return s.repo.GetAverageRating(ctx, userID)
}

// UpdateReviewInput carries the editable review fields. Nil fields are left
// untouched.
type UpdateReviewInput struct {
	Rating  *int
	Title   *string
	Comment *string
}

// Update edits the reviewer's own review.
func (s *ReviewService) Update(ctx context.Context, reviewID, reviewerID uuid.UUID, in UpdateReviewInput) (*models.Review, error) {
	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "review not found")
		}
		return nil, err
	}
	if review.ReviewerID != reviewerID {
		return nil, apperror.ErrForbidden
	}

	if in.Rating != nil {
		if err := validation.ValidateRating(*in.Rating); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		review.Rating = *in.Rating
	}
	if in.Title != nil {
		review.Title = in.Title
	}
	if in.Comment != nil {
		if err := validation.ValidateLength("comment", *in.Comment, 1, 5000); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		review.Comment = in.Comment
	}

	if err := s.repo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListAll pages through every review for the admin dashboard.
func (s *ReviewService) ListAll(ctx context.Context, limit, offset int) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListAll(ctx, limit, offset)
}

// Delete removes the reviewer's own review.
func (s *ReviewService) Delete(ctx context.Context, reviewID, reviewerID uuid.UUID) error {
	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "review not found")
		}
		return err
	}
	if review.ReviewerID != reviewerID {
		return apperror.ErrForbidden
	}
	return s.repo.Delete(ctx, reviewID)
}
