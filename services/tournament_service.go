package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/currency"

	"chessfam/apperrors"
	"chessfam/logger"
	"chessfam/media"
	"chessfam/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxGalleryImages = 20
)

// Actor is the authenticated caller of a management operation.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// TournamentInput is what organizers may set on a tournament.
type TournamentInput struct {
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	Location             string     `json:"location"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	MaxParticipants      *int       `json:"max_participants,omitempty"`
	RatingMin            *int       `json:"rating_min,omitempty"`
	RatingMax            *int       `json:"rating_max,omitempty"`
	ParentTournamentID   *string    `json:"parent_tournament_id,omitempty"`
	IsSeriesParent       bool       `json:"is_series_parent"`
	IsFestivalParent     bool       `json:"is_festival_parent"`

	models.PricingConfig
}

type TournamentPage struct {
	Tournaments []models.Tournament `json:"tournaments"`
	Page        int                 `json:"page"`
	Limit       int                 `json:"limit"`
	Total       int64               `json:"total"`
}

type TournamentService struct {
	repo    TournamentRepository
	storage media.Storage
	log     *logger.Logger
	now     func() time.Time
}

func NewTournamentService(repo TournamentRepository, storage media.Storage, log *logger.Logger) *TournamentService {
	if log == nil {
		log = logger.Nop()
	}
	return &TournamentService{
		repo:    repo,
		storage: storage,
		log:     log.With("component", "tournaments"),
		now:     time.Now,
	}
}

// Create stores a new upcoming tournament awaiting admin approval.
func (s *TournamentService) Create(ctx context.Context, organizerID string, in TournamentInput) (*models.Tournament, error) {
	if organizerID == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "organizer id is required")
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	slugValue, err := s.uniqueSlug(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	t := &models.Tournament{
		ID:             uuid.NewString(),
		Slug:           slugValue,
		OrganizerID:    organizerID,
		Status:         models.TournamentUpcoming,
		ApprovalStatus: models.ApprovalPending,
	}
	applyInput(t, in)

	if err := s.repo.CreateTournament(ctx, t); err != nil {
		s.log.Error("failed to create tournament", "organizer_id", organizerID, "error", err)
		return nil, err
	}
	s.log.Info("tournament created", "tournament_id", t.ID, "organizer_id", organizerID)
	return t, nil
}

// Update replaces the editable fields. Only the organizer or an admin may
// change a tournament, and only while it is upcoming.
func (s *TournamentService) Update(ctx context.Context, actor Actor, id string, in TournamentInput) (*models.Tournament, error) {
	t, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	if in.ParentTournamentID != nil && *in.ParentTournamentID == t.ID {
		return nil, apperrors.Validation("a tournament cannot be its own parent")
	}
	if in.MaxParticipants != nil && *in.MaxParticipants < t.CurrentParticipants {
		return nil, apperrors.Validation("max_participants cannot be below the %d current participants", t.CurrentParticipants)
	}

	applyInput(t, in)
	if err := s.repo.UpdateTournament(ctx, t); err != nil {
		logFailure(s.log, "failed to update tournament", err, "tournament_id", id)
		return nil, err
	}
	return t, nil
}

func (s *TournamentService) Delete(ctx context.Context, actor Actor, id string) error {
	t, err := s.repo.GetTournament(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, t) {
		return apperrors.ErrNotOrganizer
	}
	if err := s.repo.DeleteTournament(ctx, id); err != nil {
		logFailure(s.log, "failed to delete tournament", err, "tournament_id", id)
		return err
	}
	s.log.Info("tournament deleted", "tournament_id", id, "actor_id", actor.UserID)
	return nil
}

// SetApproval is an admin decision on a pending tournament.
func (s *TournamentService) SetApproval(ctx context.Context, id string, approved bool) error {
	status := models.ApprovalRejected
	if approved {
		status = models.ApprovalApproved
	}
	if err := s.repo.SetApproval(ctx, id, status); err != nil {
		return err
	}
	s.log.Info("tournament approval changed", "tournament_id", id, "approval_status", status)
	return nil
}

func (s *TournamentService) Get(ctx context.Context, id string) (*models.Tournament, error) {
	return s.repo.GetTournament(ctx, id)
}

// ListPublic pages approved tournaments that accept registrations directly.
func (s *TournamentService) ListPublic(ctx context.Context, page, limit int) (*TournamentPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	tournaments, total, err := s.repo.ListPublic(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if tournaments == nil {
		tournaments = []models.Tournament{}
	}
	return &TournamentPage{Tournaments: tournaments, Page: page, Limit: limit, Total: total}, nil
}

// EarlyBird previews the current early-bird price.
func (s *TournamentService) EarlyBird(ctx context.Context, id string) (*EarlyBirdQuote, error) {
	t, err := s.repo.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	quote := QuoteEarlyBird(t, s.now())
	return &quote, nil
}

func (s *TournamentService) SetCover(ctx context.Context, actor Actor, id string, upload media.Upload) (*models.Tournament, error) {
	t, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.Put(ctx, media.ObjectKey("tournaments/covers", upload.Filename), upload)
	if err != nil {
		s.log.Error("cover upload failed", "tournament_id", id, "error", err)
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to upload cover image")
	}

	t.CoverImageURL = url
	if err := s.repo.UpdateTournament(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TournamentService) AddGalleryImage(ctx context.Context, actor Actor, id string, upload media.Upload) (*models.Tournament, error) {
	t, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if len(t.GalleryImages) >= maxGalleryImages {
		return nil, apperrors.Validation("a tournament can have at most %d gallery images", maxGalleryImages)
	}
	url, err := s.storage.Put(ctx, media.ObjectKey("tournaments/gallery", upload.Filename), upload)
	if err != nil {
		s.log.Error("gallery upload failed", "tournament_id", id, "error", err)
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to upload gallery image")
	}

	t.GalleryImages = append(t.GalleryImages, url)
	if err := s.repo.UpdateTournament(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TournamentService) editable(ctx context.Context, actor Actor, id string) (*models.Tournament, error) {
	t, err := s.repo.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, t) {
		return nil, apperrors.ErrNotOrganizer
	}
	if t.Status != models.TournamentUpcoming {
		return nil, apperrors.ErrTournamentLocked
	}
	return t, nil
}

func canManage(actor Actor, t *models.Tournament) bool {
	return actor.IsAdmin || (actor.UserID != "" && actor.UserID == t.OrganizerID)
}

// validate normalizes in and rejects inconsistent settings.
func (s *TournamentService) validate(ctx context.Context, in *TournamentInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperrors.Validation("name is required")
	}
	if in.StartDate.IsZero() {
		return apperrors.Validation("start_date is required")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return apperrors.Validation("end_date must not be before start_date")
	}
	if in.RegistrationDeadline != nil && in.RegistrationDeadline.After(in.StartDate) {
		return apperrors.Validation("registration_deadline must not be after start_date")
	}
	if in.MaxParticipants != nil && *in.MaxParticipants < 1 {
		return apperrors.Validation("max_participants must be at least 1")
	}
	if in.RatingMin != nil && in.RatingMax != nil && *in.RatingMin > *in.RatingMax {
		return apperrors.Validation("rating_min must not exceed rating_max")
	}
	if in.IsSeriesParent && in.IsFestivalParent {
		return apperrors.Validation("a tournament cannot be both a series and a festival parent")
	}
	if in.ParentTournamentID != nil {
		if in.IsSeriesParent || in.IsFestivalParent {
			return apperrors.Validation("a parent tournament cannot have a parent")
		}
		parent, err := s.repo.GetTournament(ctx, *in.ParentTournamentID)
		if err != nil {
			return err
		}
		if !parent.IsContainer() {
			return apperrors.Validation("parent_tournament_id must reference a series or festival parent")
		}
	}
	return validatePricing(&in.PricingConfig)
}

func validatePricing(cfg *models.PricingConfig) error {
	if cfg.EntryFee < 0 {
		return apperrors.Validation("entry_fee must not be negative")
	}
	cfg.EntryFee = round2(cfg.EntryFee)

	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	unit, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		return apperrors.Validation("currency %q is not an ISO 4217 code", cfg.Currency)
	}
	cfg.Currency = unit.String()

	percents := map[string]*float64{
		"junior_discount": cfg.JuniorDiscount,
		"senior_discount": cfg.SeniorDiscount,
		"women_discount":  cfg.WomenDiscount,
		"gm_wgm_discount": cfg.GMWGMDiscount,
		"im_wim_discount": cfg.IMWIMDiscount,
		"fm_wfm_discount": cfg.FMWFMDiscount,
	}
	for field, pct := range percents {
		if pct != nil && (*pct < 0 || *pct > 100) {
			return apperrors.Validation("%s must be between 0 and 100", field)
		}
	}
	if cfg.JuniorAgeMax != nil && *cfg.JuniorAgeMax < 0 {
		return apperrors.Validation("junior_age_max must not be negative")
	}
	if cfg.SeniorAgeMin != nil && *cfg.SeniorAgeMin < 0 {
		return apperrors.Validation("senior_age_min must not be negative")
	}

	if len(cfg.EarlyBirdPricing) > models.MaxEarlyBirdTiers {
		return apperrors.Validation("at most %d early-bird tiers are allowed", models.MaxEarlyBirdTiers)
	}
	for i, tier := range cfg.EarlyBirdPricing {
		if tier.Deadline.IsZero() {
			return apperrors.Validation("early_bird_pricing[%d]: deadline is required", i)
		}
		if tier.Discount < 0 {
			return apperrors.Validation("early_bird_pricing[%d]: discount must not be negative", i)
		}
		switch tier.DiscountType {
		case models.DiscountPercentage:
			if tier.Discount > 100 {
				return apperrors.Validation("early_bird_pricing[%d]: percentage discount above 100", i)
			}
		case models.DiscountFixed:
		default:
			return apperrors.Validation("early_bird_pricing[%d]: discount_type must be percentage or fixed", i)
		}
	}
	return nil
}

func (s *TournamentService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "tournament"
	}
	candidate := base
	for attempt := 0; attempt < 5; attempt++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
	}
	return "", apperrors.New(apperrors.CodeConflict, "could not allocate a unique slug")
}

func applyInput(t *models.Tournament, in TournamentInput) {
	t.Name = in.Name
	t.Description = in.Description
	t.Location = in.Location
	t.StartDate = in.StartDate
	t.EndDate = in.EndDate
	t.RegistrationDeadline = in.RegistrationDeadline
	t.MaxParticipants = in.MaxParticipants
	t.RatingMin = in.RatingMin
	t.RatingMax = in.RatingMax
	t.ParentTournamentID = in.ParentTournamentID
	t.IsSeriesParent = in.IsSeriesParent
	t.IsFestivalParent = in.IsFestivalParent
	t.PricingConfig = in.PricingConfig
}
