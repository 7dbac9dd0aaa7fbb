package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"popballoons/internal/domain"
	"popballoons/internal/placement"
	"popballoons/internal/repository"
	"popballoons/internal/session"
	"popballoons/internal/storage"
)

var (
	// ErrTermsNotAccepted is returned when the age and terms confirmation is missing.
	ErrTermsNotAccepted = errors.New("you must confirm that you are 18 years or older and agree to the Terms of Use and Privacy Policy")
	// ErrMissingField is wrapped with the name of an empty required field.
	ErrMissingField = errors.New("required field is empty")
	// ErrMissingPreferences is returned when a preference category has no selection.
	ErrMissingPreferences = errors.New("please select at least one option in each category")
	// ErrCandidateExists is returned when the wallet account already has a profile.
	ErrCandidateExists = errors.New("a profile already exists for this account")
)

// SignupForm carries the fields of the signup form.
type SignupForm struct {
	Nickname      string
	Gender        string
	Platform      string
	SocialHandle  string
	Age           string
	ProfilePic    string
	LoveLanguages []string
	Hobbies       []string
	DealBreakers  []string
	TermsAccepted bool
	// Picture is the optional uploaded profile image.
	Picture *storage.UploadInput
}

type SignupResult struct {
	Candidate *domain.Candidate
	Placement placement.Result
	Warnings  []string
}

// Prefill tells the form how to present a wallet identity.
type Prefill struct {
	Platform             string
	SocialHandle         string
	SocialHandleReadOnly bool
}

// Registration is the outcome of looking up a wallet account after login.
type Registration struct {
	Registered bool
	Candidate  *domain.Candidate
	Prefill    *Prefill
}

// SignupService describes the candidate signup lifecycle.
type SignupService interface {
	Signup(ctx context.Context, active session.Active, form SignupForm) (*SignupResult, error)
	CheckRegistration(ctx context.Context, account string) (*Registration, error)
	GetByWaxAccount(ctx context.Context, account string) (*domain.Candidate, error)
}

// SignupDeps wires the collaborators of the signup flow. Media and
// Profiles are optional.
type SignupDeps struct {
	Candidates repository.CandidateRepository
	Media      storage.Service
	Profiles   storage.JSONPinner
	Placer     placement.Placer
	Logger     *logrus.Logger
}

type signupService struct {
	candidates repository.CandidateRepository
	media      storage.Service
	profiles   storage.JSONPinner
	placer     placement.Placer
	logger     *logrus.Entry
}

func NewSignupService(deps SignupDeps) SignupService {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &signupService{
		candidates: deps.Candidates,
		media:      deps.Media,
		profiles:   deps.Profiles,
		placer:     deps.Placer,
		logger:     logger.WithField("component", "signup"),
	}
}

func (s *signupService) Signup(ctx context.Context, active session.Active, form SignupForm) (*SignupResult, error) {
	form = normalizeForm(form)
	if err := validateForm(active, form); err != nil {
		return nil, err
	}

	candidate := &domain.Candidate{
		Nickname:      form.Nickname,
		Gender:        form.Gender,
		Platform:      form.Platform,
		SocialHandle:  form.SocialHandle,
		Age:           form.Age,
		ProfilePic:    form.ProfilePic,
		LoveLanguages: form.LoveLanguages,
		Hobbies:       form.Hobbies,
		DealBreakers:  form.DealBreakers,
		IsRealSignup:  true,
		MatchedWith:   []string{},
	}
	if form.Platform == domain.PlatformWAX {
		candidate.SocialHandle = active.Session.Account
		candidate.WaxAccount = active.Session.Account
	}

	if candidate.WaxAccount != "" {
		if err := s.ensureUnregistered(ctx, candidate.WaxAccount); err != nil {
			return nil, err
		}
	}

	result := &SignupResult{Candidate: candidate}

	if form.Picture != nil && s.media != nil {
		in := *form.Picture
		in.Account = active.Session.Account
		obj, err := s.media.Upload(ctx, in)
		if errors.Is(err, domain.ErrTooLarge) {
			return nil, err
		}
		if err != nil {
			s.logger.WithError(err).Warn("profile picture upload failed, keeping url")
			result.Warnings = append(result.Warnings, "error uploading profile picture, using URL instead")
		} else {
			candidate.ProfilePic = obj.URL
		}
	}

	if s.profiles != nil {
		obj, err := s.profiles.PinJSON(ctx, "candidate_"+candidate.Nickname, profileDocument(candidate))
		if err != nil {
			s.logger.WithError(err).Warn("pin profile document")
			result.Warnings = append(result.Warnings, "profile document was not pinned")
		} else {
			candidate.MetadataCID = obj.CID
		}
	}

	if _, err := s.candidates.Create(ctx, candidate); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrCandidateExists
		}
		return nil, err
	}
	s.logger.WithField("candidate", candidate.ID).Infof("signed up %s", candidate.Nickname)

	if s.placer != nil {
		placed, err := s.placer.Place(ctx, candidate)
		if err != nil {
			s.logger.WithError(err).WithField("candidate", candidate.ID).Warn("placement failed")
			result.Warnings = append(result.Warnings, fmt.Sprintf("placement: %v", err))
		} else {
			result.Placement = placed
		}
	}

	return result, nil
}

// ensureUnregistered runs before anything is pinned for the account.
func (s *signupService) ensureUnregistered(ctx context.Context, account string) error {
	_, err := s.candidates.GetByWaxAccount(ctx, account)
	switch {
	case err == nil:
		return ErrCandidateExists
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *signupService) CheckRegistration(ctx context.Context, account string) (*Registration, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, domain.ErrNotAuthenticated
	}

	candidate, err := s.candidates.GetByWaxAccount(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &Registration{Prefill: &Prefill{
				Platform:             domain.PlatformWAX,
				SocialHandle:         account,
				SocialHandleReadOnly: true,
			}}, nil
		}
		return nil, err
	}
	return &Registration{Registered: true, Candidate: candidate}, nil
}

func (s *signupService) GetByWaxAccount(ctx context.Context, account string) (*domain.Candidate, error) {
	return s.candidates.GetByWaxAccount(ctx, strings.TrimSpace(account))
}

func normalizeForm(form SignupForm) SignupForm {
	form.Nickname = strings.TrimSpace(form.Nickname)
	form.Gender = strings.TrimSpace(form.Gender)
	form.Platform = strings.TrimSpace(form.Platform)
	form.SocialHandle = strings.TrimSpace(form.SocialHandle)
	form.Age = strings.TrimSpace(form.Age)
	form.ProfilePic = strings.TrimSpace(form.ProfilePic)
	form.LoveLanguages = compact(form.LoveLanguages)
	form.Hobbies = compact(form.Hobbies)
	form.DealBreakers = compact(form.DealBreakers)
	return form
}

func validateForm(active session.Active, form SignupForm) error {
	if !form.TermsAccepted {
		return ErrTermsNotAccepted
	}

	type field struct{ name, value string }
	required := []field{
		{"nickname", form.Nickname},
		{"gender", form.Gender},
		{"platform", form.Platform},
	}
	if form.Platform != domain.PlatformWAX {
		required = append(required, field{"social handle", form.SocialHandle})
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}

	if len(form.LoveLanguages) == 0 || len(form.Hobbies) == 0 || len(form.DealBreakers) == 0 {
		return ErrMissingPreferences
	}

	if form.Platform == domain.PlatformWAX && !active.Authenticated() {
		return domain.ErrNotAuthenticated
	}
	return nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func profileDocument(c *domain.Candidate) map[string]any {
	return map[string]any{
		"nickname":      c.Nickname,
		"gender":        c.Gender,
		"platform":      c.Platform,
		"socialHandle":  c.SocialHandle,
		"profilePic":    c.ProfilePic,
		"loveLanguages": c.LoveLanguages,
		"hobbies":       c.Hobbies,
		"dealBreakers":  c.DealBreakers,
		"waxAccount":    c.WaxAccount,
	}
}
