package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/repos"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

// Step views produced by the type dispatch. Unrecognized node types map
// to ViewPlaceholder so one bad row never breaks the traversal.
const (
	ViewDocument    = "document"
	ViewContract    = "contract"
	ViewInvoice     = "invoice"
	ViewInvoicePaid = "invoice_paid"
	ViewTerms       = "terms"
	ViewPlaceholder = "placeholder"
)

// NodeConfig is the type-dependent config payload stored on a node.
type NodeConfig struct {
	DocumentURL      string `json:"document_url,omitempty"`
	DocumentMime     string `json:"document_mime,omitempty"`
	ContractTemplate string `json:"contract_template,omitempty"`
	TermsURL         string `json:"terms_url,omitempty"`
	PrivacyURL       string `json:"privacy_url,omitempty"`
	TermsVersion     string `json:"terms_version,omitempty"`
	PrivacyVersion   string `json:"privacy_version,omitempty"`
	PaymentStatus    string `json:"payment_status,omitempty"`
	AmountLabel      string `json:"amount_label,omitempty"`
	InvoiceNumber    string `json:"invoice_number,omitempty"`
}

func ParseNodeConfig(node *types.OnboardingNode) NodeConfig {
	var cfg NodeConfig
	if node == nil || len(node.Config) == 0 {
		return cfg
	}
	// Malformed config degrades to the zero value; the step still renders.
	_ = json.Unmarshal(node.Config, &cfg)
	return cfg
}

// StepState is everything a client needs to render one onboarding step.
type StepState struct {
	Node            *types.OnboardingNode `json:"node"`
	View            string                `json:"view"`
	Completed       bool                  `json:"completed"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
	Current         bool                  `json:"current"`
	DocumentURL     string                `json:"document_url,omitempty"`
	DocumentWarning string                `json:"document_warning,omitempty"`
	TermsURL        string                `json:"terms_url,omitempty"`
	PrivacyURL      string                `json:"privacy_url,omitempty"`
	AmountLabel     string                `json:"amount_label,omitempty"`
}

type CreateNodeInput struct {
	NodeType    string         `json:"node_type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
	Position    *int           `json:"position"`
}

type OnboardingService interface {
	CreateNode(ctx context.Context, orgID uuid.UUID, input CreateNodeInput) (*types.OnboardingNode, error)
	UpdateNode(ctx context.Context, orgID, nodeID uuid.UUID, updates map[string]interface{}) (*types.OnboardingNode, error)
	DeleteNode(ctx context.Context, orgID, nodeID uuid.UUID) error
	ListSteps(ctx context.Context, orgID, userID uuid.UUID) ([]StepState, error)
	RecordCompletion(ctx context.Context, orgID, userID, nodeID uuid.UUID, metadata map[string]interface{}) (*types.OnboardingProgress, error)
	NextStep(ctx context.Context, orgID, userID uuid.UUID) (*types.OnboardingNode, error)
	InvoiceHTML(ctx context.Context, orgID, nodeID, userID uuid.UUID) (string, bool, error)
}

type onboardingService struct {
	db             *gorm.DB
	log            *logger.Logger
	nodeRepo       repos.OnboardingNodeRepo
	progressRepo   repos.OnboardingProgressRepo
	signatureRepo  repos.ContractSignatureRepo
	membershipRepo repos.OrgMembershipRepo
	orgRepo        repos.OrgRepo
	userRepo       repos.UserRepo
	notifier       Notifier
}

func NewOnboardingService(
	db *gorm.DB,
	log *logger.Logger,
	nodeRepo repos.OnboardingNodeRepo,
	progressRepo repos.OnboardingProgressRepo,
	signatureRepo repos.ContractSignatureRepo,
	membershipRepo repos.OrgMembershipRepo,
	orgRepo repos.OrgRepo,
	userRepo repos.UserRepo,
	notifier Notifier,
) OnboardingService {
	serviceLog := log.With("service", "OnboardingService")
	return &onboardingService{
		db:             db,
		log:            serviceLog,
		nodeRepo:       nodeRepo,
		progressRepo:   progressRepo,
		signatureRepo:  signatureRepo,
		membershipRepo: membershipRepo,
		orgRepo:        orgRepo,
		userRepo:       userRepo,
		notifier:       notifier,
	}
}

func (ob *onboardingService) CreateNode(ctx context.Context, orgID uuid.UUID, input CreateNodeInput) (*types.OnboardingNode, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, validationErrorf("a node title is required")
	}
	if strings.TrimSpace(input.NodeType) == "" {
		return nil, validationErrorf("a node type is required")
	}

	cfgJSON := []byte("{}")
	if input.Config != nil {
		raw, err := json.Marshal(input.Config)
		if err != nil {
			return nil, validationErrorf("node config is not serializable")
		}
		cfgJSON = raw
	}

	node := &types.OnboardingNode{
		ID:          uuid.New(),
		OrgID:       orgID,
		NodeType:    strings.ToLower(strings.TrimSpace(input.NodeType)),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Config:      datatypes.JSON(cfgJSON),
	}

	if err := ob.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.Position != nil {
			node.Position = *input.Position
		} else {
			max, err := ob.nodeRepo.MaxPosition(ctx, tx, orgID)
			if err != nil {
				return fmt.Errorf("failed to compute node position: %w", err)
			}
			node.Position = max + 1
		}
		if _, err := ob.nodeRepo.Create(ctx, tx, []*types.OnboardingNode{node}); err != nil {
			return fmt.Errorf("failed to create onboarding node: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return node, nil
}

func (ob *onboardingService) UpdateNode(ctx context.Context, orgID, nodeID uuid.UUID, updates map[string]interface{}) (*types.OnboardingNode, error) {
	nodes, err := ob.nodeRepo.GetByIDs(ctx, nil, []uuid.UUID{nodeID})
	if err != nil {
		return nil, fmt.Errorf("failed to load node: %w", err)
	}
	if len(nodes) == 0 || nodes[0].OrgID != orgID {
		return nil, notFoundErrorf("onboarding node %s", nodeID)
	}

	allowed := map[string]bool{"title": true, "description": true, "config": true, "position": true}
	filtered := map[string]interface{}{}
	for k, v := range updates {
		if !allowed[k] {
			continue
		}
		if k == "config" {
			raw, mErr := json.Marshal(v)
			if mErr != nil {
				return nil, validationErrorf("node config is not serializable")
			}
			filtered[k] = datatypes.JSON(raw)
			continue
		}
		filtered[k] = v
	}
	if len(filtered) == 0 {
		return nodes[0], nil
	}
	if err := ob.nodeRepo.UpdateFields(ctx, nil, nodeID, filtered); err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}
	updated, err := ob.nodeRepo.GetByIDs(ctx, nil, []uuid.UUID{nodeID})
	if err != nil || len(updated) == 0 {
		return nil, fmt.Errorf("failed to reload node: %w", err)
	}
	return updated[0], nil
}

// DeleteNode soft deletes a node. Progress rows referencing it are
// retained; step listing and next-step traversal only walk live nodes.
func (ob *onboardingService) DeleteNode(ctx context.Context, orgID, nodeID uuid.UUID) error {
	nodes, err := ob.nodeRepo.GetByIDs(ctx, nil, []uuid.UUID{nodeID})
	if err != nil {
		return fmt.Errorf("failed to load node: %w", err)
	}
	if len(nodes) == 0 || nodes[0].OrgID != orgID {
		return notFoundErrorf("onboarding node %s", nodeID)
	}
	if err := ob.nodeRepo.SoftDeleteByIDs(ctx, nil, []uuid.UUID{nodeID}); err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	ob.log.Info("Onboarding node deleted", "node_id", nodeID, "org_id", orgID)
	return nil
}

// InvoiceHTML builds the document shown on an unpaid invoice step. The
// second return reports a paid or confirmed invoice, for which no
// document is produced.
func (ob *onboardingService) InvoiceHTML(ctx context.Context, orgID, nodeID, userID uuid.UUID) (string, bool, error) {
	nodes, err := ob.nodeRepo.GetByIDs(ctx, nil, []uuid.UUID{nodeID})
	if err != nil {
		return "", false, fmt.Errorf("failed to load node: %w", err)
	}
	if len(nodes) == 0 || nodes[0].OrgID != orgID {
		return "", false, notFoundErrorf("onboarding node %s", nodeID)
	}
	node := nodes[0]
	if node.NodeType != types.NodeTypeInvoice {
		return "", false, validationErrorf("node %s is not an invoice step", nodeID)
	}

	cfg := ParseNodeConfig(node)
	switch strings.ToLower(strings.TrimSpace(cfg.PaymentStatus)) {
	case "paid", "confirmed":
		return "", true, nil
	}

	orgs, err := ob.orgRepo.GetByIDs(ctx, nil, []uuid.UUID{orgID})
	if err != nil {
		return "", false, fmt.Errorf("failed to load org: %w", err)
	}
	var org *types.Org
	if len(orgs) > 0 {
		org = orgs[0]
	}

	admins, err := ob.membershipRepo.GetAdminsByOrgID(ctx, nil, orgID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load org admins: %w", err)
	}
	adminEmails := make([]string, 0, len(admins))
	for _, m := range admins {
		if m.User != nil && m.User.Email != "" {
			adminEmails = append(adminEmails, m.User.Email)
		}
	}

	signerEmail := ""
	if users, uErr := ob.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID}); uErr == nil && len(users) > 0 {
		signerEmail = users[0].Email
	}

	return BuildInvoiceHTML(org, adminEmails, signerEmail, cfg.InvoiceNumber, cfg.AmountLabel), false, nil
}

func (ob *onboardingService) ListSteps(ctx context.Context, orgID, userID uuid.UUID) ([]StepState, error) {
	nodes, err := ob.nodeRepo.GetByOrgIDOrdered(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list onboarding nodes: %w", err)
	}
	nodeIDs := make([]uuid.UUID, 0, len(nodes))
	for _, n := range nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	progress, err := ob.progressRepo.GetByUserAndNodeIDs(ctx, nil, userID, nodeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load onboarding progress: %w", err)
	}
	completed := make(map[uuid.UUID]*types.OnboardingProgress, len(progress))
	for _, p := range progress {
		if p.Status == types.ProgressStatusCompleted {
			completed[p.NodeID] = p
		}
	}

	states := make([]StepState, 0, len(nodes))
	currentSet := false
	for _, n := range nodes {
		st := DescribeStep(n)
		if p, ok := completed[n.ID]; ok {
			st.Completed = true
			st.CompletedAt = p.CompletedAt
		} else if !currentSet {
			st.Current = true
			currentSet = true
		}
		states = append(states, st)
	}
	return states, nil
}

// DescribeStep is the single dispatch point over the closed node-type
// set: it selects the view and surfaces any document warnings.
func DescribeStep(node *types.OnboardingNode) StepState {
	st := StepState{Node: node}
	cfg := ParseNodeConfig(node)

	switch node.NodeType {
	case types.NodeTypeWelcome, types.NodeTypeScope:
		st.View = ViewDocument
		st.DocumentURL = cfg.DocumentURL
		if cfg.DocumentURL != "" && IsIncompleteDocumentURL(cfg.DocumentURL) {
			st.DocumentWarning = "document appears incomplete, please contact support or re-upload"
		}
	case types.NodeTypeContract:
		st.View = ViewContract
	case types.NodeTypeInvoice:
		switch strings.ToLower(strings.TrimSpace(cfg.PaymentStatus)) {
		case "paid", "confirmed":
			st.View = ViewInvoicePaid
		default:
			st.View = ViewInvoice
		}
		st.AmountLabel = cfg.AmountLabel
	case types.NodeTypeTerms:
		st.View = ViewTerms
		st.TermsURL = cfg.TermsURL
		st.PrivacyURL = cfg.PrivacyURL
		st.DocumentURL = cfg.DocumentURL
		if cfg.DocumentURL != "" && IsIncompleteDocumentURL(cfg.DocumentURL) {
			st.DocumentWarning = "document appears incomplete, please contact support or re-upload"
		}
	default:
		st.View = ViewPlaceholder
	}
	return st
}

var bareUUIDRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsIncompleteDocumentURL flags stored document URLs whose final path
// segment is a bare UUID with no file extension. This is a heuristic
// data-integrity check, not a guarantee: it can false-positive on
// legitimately extensionless documents and false-negative on other
// corruption, so callers treat it as a warning only.
func IsIncompleteDocumentURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return true
	}
	last := path.Base(u.Path)
	if last == "." || last == "/" || last == "" {
		return false
	}
	if path.Ext(last) != "" {
		return false
	}
	return bareUUIDRe.MatchString(last)
}

func (ob *onboardingService) RecordCompletion(ctx context.Context, orgID, userID, nodeID uuid.UUID, metadata map[string]interface{}) (*types.OnboardingProgress, error) {
	nodes, err := ob.nodeRepo.GetByIDs(ctx, nil, []uuid.UUID{nodeID})
	if err != nil {
		return nil, fmt.Errorf("failed to load node: %w", err)
	}
	if len(nodes) == 0 || nodes[0].OrgID != orgID {
		return nil, notFoundErrorf("onboarding node %s", nodeID)
	}
	node := nodes[0]

	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	now := time.Now().UTC()

	switch node.NodeType {
	case types.NodeTypeContract:
		// Contract steps complete only through the signing path.
		sig, sErr := ob.signatureRepo.GetByNodeAndUser(ctx, nil, nodeID, userID)
		if sErr != nil {
			return nil, fmt.Errorf("failed to check signature: %w", sErr)
		}
		if sig == nil {
			return nil, validationErrorf("contract must be signed before it can be completed")
		}
	case types.NodeTypeTerms:
		if !boolField(metadata, "terms_accepted") || !boolField(metadata, "privacy_accepted") {
			return nil, validationErrorf("both the terms and the privacy policy must be accepted")
		}
		cfg := ParseNodeConfig(node)
		metadata["terms_version"] = cfg.TermsVersion
		metadata["privacy_version"] = cfg.PrivacyVersion
		metadata["accepted_at"] = now.Format(time.RFC3339)
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, validationErrorf("completion metadata is not serializable")
	}

	progress := &types.OnboardingProgress{
		ID:          uuid.New(),
		NodeID:      nodeID,
		UserID:      userID,
		Status:      types.ProgressStatusCompleted,
		Metadata:    datatypes.JSON(raw),
		CompletedAt: &now,
	}
	if err := ob.progressRepo.Upsert(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	// Finishing the last step notifies the agency. Best effort only.
	if next, nErr := ob.NextStep(ctx, orgID, userID); nErr == nil && next == nil {
		ob.notifyOnboardingFinished(ctx, orgID, userID)
	}

	return progress, nil
}

func (ob *onboardingService) NextStep(ctx context.Context, orgID, userID uuid.UUID) (*types.OnboardingNode, error) {
	nodes, err := ob.nodeRepo.GetByOrgIDOrdered(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list onboarding nodes: %w", err)
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	nodeIDs := make([]uuid.UUID, 0, len(nodes))
	for _, n := range nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	progress, err := ob.progressRepo.GetByUserAndNodeIDs(ctx, nil, userID, nodeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load onboarding progress: %w", err)
	}
	completed := make(map[uuid.UUID]bool, len(progress))
	for _, p := range progress {
		if p.Status == types.ProgressStatusCompleted {
			completed[p.NodeID] = true
		}
	}
	for _, n := range nodes {
		if !completed[n.ID] {
			return n, nil
		}
	}
	return nil, nil
}

func (ob *onboardingService) notifyOnboardingFinished(ctx context.Context, orgID, userID uuid.UUID) {
	if ob.notifier == nil {
		return
	}
	orgs, err := ob.orgRepo.GetByIDs(ctx, nil, []uuid.UUID{orgID})
	if err != nil || len(orgs) == 0 {
		ob.log.Warn("Failed to load org for onboarding notification", "error", err)
		return
	}
	admins, err := ob.membershipRepo.GetAdminsByOrgID(ctx, nil, orgID)
	if err != nil {
		ob.log.Warn("Failed to load org admins for onboarding notification", "error", err)
		return
	}
	emails := make([]string, 0, len(admins))
	for _, m := range admins {
		if m.User != nil && m.User.Email != "" {
			emails = append(emails, m.User.Email)
		}
	}
	if err := ob.notifier.OnboardingCompleted(ctx, orgs[0], emails); err != nil {
		ob.log.Warn("Onboarding completion notification failed", "error", err, "org_id", orgID)
	}
}

func boolField(m map[string]interface{}, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
