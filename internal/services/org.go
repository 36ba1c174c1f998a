package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/flowtemplate"
	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/normalization"
	"github.com/agencyloop/agencyloop-backend/internal/repos"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type OrgService interface {
	CreateOrg(ctx context.Context, userID uuid.UUID, name, billingEmail string) (*types.Org, error)
	GetOrg(ctx context.Context, orgID uuid.UUID) (*types.Org, error)
	ListMyOrgs(ctx context.Context, userID uuid.UUID) ([]*types.OrgMembership, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]*types.OrgMembership, error)
	InviteMember(ctx context.Context, orgID uuid.UUID, email, role string) (*types.OrgMembership, error)
}

type orgService struct {
	db             *gorm.DB
	log            *logger.Logger
	orgRepo        repos.OrgRepo
	membershipRepo repos.OrgMembershipRepo
	userRepo       repos.UserRepo
	nodeRepo       repos.OnboardingNodeRepo
	avatarService  AvatarService
	notifier       Notifier
	flow           *flowtemplate.Template
}

func NewOrgService(
	db *gorm.DB,
	log *logger.Logger,
	orgRepo repos.OrgRepo,
	membershipRepo repos.OrgMembershipRepo,
	userRepo repos.UserRepo,
	nodeRepo repos.OnboardingNodeRepo,
	avatarService AvatarService,
	notifier Notifier,
	flow *flowtemplate.Template,
) OrgService {
	serviceLog := log.With("service", "OrgService")
	if flow == nil {
		flow = flowtemplate.Default()
	}
	return &orgService{
		db:             db,
		log:            serviceLog,
		orgRepo:        orgRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		nodeRepo:       nodeRepo,
		avatarService:  avatarService,
		notifier:       notifier,
		flow:           flow,
	}
}

// CreateOrg creates a client workspace. The creator becomes its admin
// and the configured onboarding flow is seeded in the same transaction.
func (s *orgService) CreateOrg(ctx context.Context, userID uuid.UUID, name, billingEmail string) (*types.Org, error) {
	name = normalization.TrimInputString(name)
	if name == "" {
		return nil, validationErrorf("an org name is required")
	}

	org := &types.Org{
		ID:           uuid.New(),
		Name:         name,
		BillingEmail: normalization.ParseInputString(billingEmail),
	}
	slug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}
	org.Slug = slug

	if s.avatarService != nil {
		if err := s.avatarService.UploadOrgAvatar(ctx, org); err != nil {
			s.log.Warn("Failed to generate org avatar", "error", err, "org", org.Slug)
		}
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.orgRepo.Create(ctx, tx, []*types.Org{org}); err != nil {
			return fmt.Errorf("failed to create org: %w", err)
		}
		membership := &types.OrgMembership{
			ID:     uuid.New(),
			OrgID:  org.ID,
			UserID: userID,
			Role:   types.OrgRoleAdmin,
		}
		if _, err := s.membershipRepo.Create(ctx, tx, []*types.OrgMembership{membership}); err != nil {
			return fmt.Errorf("failed to create admin membership: %w", err)
		}
		return s.seedFlow(ctx, tx, org.ID)
	}); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *orgService) seedFlow(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) error {
	nodes := make([]*types.OnboardingNode, 0, len(s.flow.Nodes))
	for i, n := range s.flow.Nodes {
		cfgJSON := []byte("{}")
		if n.Config != nil {
			raw, err := json.Marshal(n.Config)
			if err != nil {
				return fmt.Errorf("flow node %d config is not serializable: %w", i, err)
			}
			cfgJSON = raw
		}
		nodes = append(nodes, &types.OnboardingNode{
			ID:          uuid.New(),
			OrgID:       orgID,
			NodeType:    n.Type,
			Title:       n.Title,
			Description: n.Description,
			Config:      datatypes.JSON(cfgJSON),
			Position:    i,
		})
	}
	if _, err := s.nodeRepo.Create(ctx, tx, nodes); err != nil {
		return fmt.Errorf("failed to seed onboarding flow: %w", err)
	}
	return nil
}

func (s *orgService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "org"
	}
	existing, err := s.orgRepo.GetBySlugs(ctx, nil, []string{base})
	if err != nil {
		return "", fmt.Errorf("failed to check slug: %w", err)
	}
	if len(existing) == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-%s", base, uuid.New().String()[:8]), nil
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func (s *orgService) GetOrg(ctx context.Context, orgID uuid.UUID) (*types.Org, error) {
	orgs, err := s.orgRepo.GetByIDs(ctx, nil, []uuid.UUID{orgID})
	if err != nil {
		return nil, fmt.Errorf("failed to load org: %w", err)
	}
	if len(orgs) == 0 {
		return nil, notFoundErrorf("org %s", orgID)
	}
	return orgs[0], nil
}

func (s *orgService) ListMyOrgs(ctx context.Context, userID uuid.UUID) ([]*types.OrgMembership, error) {
	memberships, err := s.membershipRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orgs: %w", err)
	}
	return memberships, nil
}

func (s *orgService) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*types.OrgMembership, error) {
	members, err := s.membershipRepo.GetByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// InviteMember adds an existing account to an org. Re-inviting the
// same user updates their role instead of erroring.
func (s *orgService) InviteMember(ctx context.Context, orgID uuid.UUID, email, role string) (*types.OrgMembership, error) {
	email = normalization.ParseInputString(email)
	if email == "" {
		return nil, validationErrorf("an email is required to invite a member")
	}
	if role != types.OrgRoleAdmin && role != types.OrgRoleMember {
		return nil, validationErrorf("unknown role %q", role)
	}

	users, err := s.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitee: %w", err)
	}
	if len(users) == 0 {
		return nil, notFoundErrorf("no account for %s", email)
	}
	user := users[0]

	membership := &types.OrgMembership{
		ID:     uuid.New(),
		OrgID:  orgID,
		UserID: user.ID,
		Role:   role,
	}
	if err := s.membershipRepo.Upsert(ctx, nil, membership); err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	if s.notifier != nil {
		org, err := s.GetOrg(ctx, orgID)
		if err == nil {
			if err := s.notifier.MemberInvited(ctx, org, user.Email); err != nil {
				s.log.Warn("Invite notification failed", "error", err, "email", user.Email)
			}
		}
	}
	membership.User = user
	return membership, nil
}
