package tokens

import (
	"context"
	"errors"
	"time"

	"keyring/internal/platform/config"
	"keyring/internal/platform/models"
)

// GroupCatalog resolves configured billing groups.
type GroupCatalog interface {
	Group(name string) (config.GroupConfig, bool)
}

type UpdateMode int

const (
	UpdateFull UpdateMode = iota
	UpdateStatusOnly
	UpdateBillingOnly
)

// CreditSummary mirrors the OpenAI-style credit grant payload.
type CreditSummary struct {
	Object         string `json:"object"`
	TotalGranted   int64  `json:"total_granted"`
	TotalUsed      int64  `json:"total_used"`
	TotalAvailable int64  `json:"total_available"`
	ExpiresAt      int64  `json:"expires_at"` // unix millis, 0 when unbounded
}

type FirstUse struct {
	FirstUsedTime int64 `json:"first_used_time"`
	ExpiresAt     int64 `json:"expires_at"`
	Started       bool  `json:"-"`
}

type Service struct {
	repo   *Repository
	groups GroupCatalog
	limits Limits
	now    func() time.Time
}

func NewService(repo *Repository, groups GroupCatalog, limits Limits) *Service {
	return &Service{repo: repo, groups: groups, limits: limits, now: time.Now}
}

func (s *Service) timestamp() int64 {
	return s.now().Unix()
}

func (s *Service) List(ctx context.Context, userID int64, page, size int) ([]*models.Token, error) {
	if page < 0 {
		page = 0
	}
	return s.repo.ListByUser(ctx, userID, page*size, size)
}

func (s *Service) Search(ctx context.Context, userID int64, keyword, key string) ([]*models.Token, error) {
	return s.repo.Search(ctx, userID, keyword, key)
}

func (s *Service) Get(ctx context.Context, id, userID int64) (*models.Token, error) {
	return s.repo.GetByIDs(ctx, id, userID)
}

func (s *Service) checkGroup(user *models.User, group string) error {
	if group == "" {
		return nil
	}
	g, ok := s.groups.Group(group)
	if !ok || (!user.IsAdmin() && !g.Selectable) {
		return invalid("invalid user group")
	}
	return nil
}

// Create issues a new key for user. Only the client-settable fields of req are read.
func (s *Service) Create(ctx context.Context, user *models.User, req *models.Token) (*models.Token, error) {
	if err := ValidateToken(req, s.limits); err != nil {
		return nil, err
	}
	if err := s.checkGroup(user, req.Group); err != nil {
		return nil, err
	}

	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	token := &models.Token{
		UserID:         user.ID,
		Key:            key,
		Status:         models.TokenStatusEnabled,
		Name:           req.Name,
		CreatedTime:    now,
		AccessedTime:   now,
		ExpiredTime:    req.ExpiredTime,
		RemainQuota:    req.RemainQuota,
		UnlimitedQuota: req.UnlimitedQuota,
		Group:          req.Group,
		BillingEnabled: req.BillingEnabled,
		Models:         req.Models,
		FixedContent:   req.FixedContent,
		Subnet:         req.Subnet,
		ExpiryMode:     req.ExpiryMode,
		Duration:       req.Duration,
	}
	if token.ExpiryMode == models.ExpiryModeFirstUse {
		token.ExpiredTime = models.NeverExpires
	}

	if err := s.repo.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Update applies req to the stored token according to mode and returns the result.
func (s *Service) Update(ctx context.Context, user *models.User, req *models.Token, mode UpdateMode) (*models.Token, error) {
	token, err := s.repo.GetByIDs(ctx, req.ID, user.ID)
	if err != nil {
		return nil, err
	}

	switch mode {
	case UpdateStatusOnly:
		token.Status = req.Status
	case UpdateBillingOnly:
		token.BillingEnabled = req.BillingEnabled
	default:
		if err := s.checkGroup(user, req.Group); err != nil {
			return nil, err
		}
		token.Name = req.Name
		token.ExpiredTime = req.ExpiredTime
		token.RemainQuota = req.RemainQuota
		token.UnlimitedQuota = req.UnlimitedQuota
		token.Group = req.Group
		token.Models = req.Models
		token.FixedContent = req.FixedContent
		token.Subnet = req.Subnet
		token.ExpiryMode = req.ExpiryMode
		token.Duration = req.Duration
		if token.ExpiryMode == models.ExpiryModeFirstUse {
			token.ExpiredTime = models.NeverExpires
		}
	}

	if err := ValidateToken(token, s.limits); err != nil {
		return nil, err
	}
	if err := CheckEnable(token, s.timestamp()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *Service) UpdateBilling(ctx context.Context, userID, id int64, enabled bool) (*models.Token, error) {
	token, err := s.repo.GetByIDs(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBilling(ctx, id, userID, enabled); err != nil {
		return nil, err
	}
	token.BillingEnabled = enabled
	return token, nil
}

func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	return s.repo.Delete(ctx, id, userID)
}

// Authenticate resolves a presented key to a usable token.
func (s *Service) Authenticate(ctx context.Context, presented string) (*models.Token, error) {
	token, err := s.repo.GetByKey(ctx, StripKeyPrefix(presented))
	if err != nil {
		return nil, err
	}
	if token.Status != models.TokenStatusEnabled {
		return nil, errors.New("token is not enabled")
	}
	if token.IsExpired(s.timestamp()) {
		return nil, errors.New("token has expired")
	}
	return token, nil
}

func (s *Service) CreditSummary(token *models.Token) CreditSummary {
	expiresAt := token.ExpiresAt()
	if expiresAt == models.NeverExpires {
		expiresAt = 0
	}
	return CreditSummary{
		Object:         "credit_summary",
		TotalGranted:   token.RemainQuota,
		TotalUsed:      0,
		TotalAvailable: token.RemainQuota,
		ExpiresAt:      expiresAt * 1000,
	}
}

// UseFirstTime starts the clock of a first-use token. Tokens already started,
// or in fixed mode, are reported unchanged.
func (s *Service) UseFirstTime(ctx context.Context, token *models.Token) (FirstUse, error) {
	if token.ExpiryMode == models.ExpiryModeFirstUse && token.FirstUsedTime == 0 {
		now := s.timestamp()
		started, err := s.repo.SetFirstUsed(ctx, token.ID, now)
		if err != nil {
			return FirstUse{}, err
		}
		if started {
			return FirstUse{FirstUsedTime: now, ExpiresAt: (now + token.Duration) * 1000, Started: true}, nil
		}
		token, err = s.repo.GetByKey(ctx, token.Key)
		if err != nil {
			return FirstUse{}, err
		}
	}

	expiresAt := token.ExpiresAt()
	if expiresAt == models.NeverExpires {
		expiresAt = 0
	}
	return FirstUse{FirstUsedTime: token.FirstUsedTime, ExpiresAt: expiresAt * 1000}, nil
}

// Sweep flags expired and exhausted tokens.
func (s *Service) Sweep(ctx context.Context) (expired, exhausted int64, err error) {
	expired, err = s.repo.MarkExpired(ctx, s.timestamp())
	if err != nil {
		return 0, 0, err
	}
	exhausted, err = s.repo.MarkExhausted(ctx)
	if err != nil {
		return expired, 0, err
	}
	return expired, exhausted, nil
}

// ModelsForGroup lists the models a group may call.
func ModelsForGroup(groups GroupCatalog, group string) []string {
	g, ok := groups.Group(group)
	if !ok {
		return []string{}
	}
	return append([]string{}, g.Models...)
}
