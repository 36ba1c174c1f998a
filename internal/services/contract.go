package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/normalization"
	"github.com/agencyloop/agencyloop-backend/internal/repos"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

// Signature images are drawn from a canvas at arbitrary sizes; the
// composed document caps them to a fixed box.
const (
	signatureMaxWidth  = 200
	signatureMaxHeight = 60
)

var (
	reSignatureAnchor = regexp.MustCompile(`(?s)<span id="client-signature">.*?</span>`)
	reNameAnchor      = regexp.MustCompile(`(?s)<span id="client-name">.*?</span>`)
	reDateAnchor      = regexp.MustCompile(`(?s)(<span id="client-date">).*?(</span>)`)
)

type ContractSignRequest struct {
	NodeID           uuid.UUID `json:"node_id"`
	SignedName       string    `json:"signed_name"`
	SignatureDataURL string    `json:"signature_data_url"`
	TermsAccepted    bool      `json:"terms_accepted"`
	PrivacyAccepted  bool      `json:"privacy_accepted"`
	TermsVersion     string    `json:"terms_version"`
	PrivacyVersion   string    `json:"privacy_version"`
}

type ContractService interface {
	// ComposeForViewing returns the contract HTML a signer sees before
	// signing, plus the content hash stored alongside the signature.
	ComposeForViewing(ctx context.Context, orgID, nodeID, userID uuid.UUID) (string, string, error)
	Sign(ctx context.Context, orgID, userID uuid.UUID, req ContractSignRequest) (*types.ContractSignature, error)
}

type contractService struct {
	db            *gorm.DB
	log           *logger.Logger
	nodeRepo      repos.OnboardingNodeRepo
	progressRepo  repos.OnboardingProgressRepo
	signatureRepo repos.ContractSignatureRepo
	userRepo      repos.UserRepo
}

func NewContractService(
	db *gorm.DB,
	log *logger.Logger,
	nodeRepo repos.OnboardingNodeRepo,
	progressRepo repos.OnboardingProgressRepo,
	signatureRepo repos.ContractSignatureRepo,
	userRepo repos.UserRepo,
) ContractService {
	serviceLog := log.With("service", "ContractService")
	return &contractService{
		db:            db,
		log:           serviceLog,
		nodeRepo:      nodeRepo,
		progressRepo:  progressRepo,
		signatureRepo: signatureRepo,
		userRepo:      userRepo,
	}
}

// ContractTemplate pulls the base template from node config, falling
// back to a generated default when the admin configured none.
func ContractTemplate(node *types.OnboardingNode, orgName string) string {
	if node != nil && len(node.Config) > 0 {
		var cfg struct {
			ContractTemplate string `json:"contract_template"`
		}
		if err := json.Unmarshal(node.Config, &cfg); err == nil {
			if tpl := strings.TrimSpace(cfg.ContractTemplate); tpl != "" {
				return cfg.ContractTemplate
			}
		}
	}
	return DefaultContractTemplate(orgName)
}

func DefaultContractTemplate(orgName string) string {
	if strings.TrimSpace(orgName) == "" {
		orgName = "the client"
	}
	return fmt.Sprintf(`<div class="contract">
<h1>Service Agreement</h1>
<p>This agreement is entered into between the agency and [Client Name], on behalf of %s.</p>
<p>The agency will provide the marketing services described in the scope of work. [Client Name] agrees to the payment terms set out in the attached invoice.</p>
<div class="signature-block">
  <p>Signature: <span id="client-signature"></span></p>
  <p>Name: <span id="client-name"></span></p>
  <p>Date: <span id="client-date"></span></p>
</div>
</div>`, orgName)
}

// ComposeContract applies the signing substitutions to a template. The
// substitutions are idempotent: applying this function to its own output
// with the same inputs yields byte-identical HTML.
func ComposeContract(template, signedName, signerEmail, signatureDataURL string, signedAt time.Time) string {
	out := template

	clientName := strings.TrimSpace(signerEmail)
	if clientName == "" {
		clientName = strings.TrimSpace(signedName)
	}
	out = strings.ReplaceAll(out, "[Client Name]", clientName)

	if strings.TrimSpace(signatureDataURL) != "" {
		img := fmt.Sprintf(`<span id="client-signature"><img src=%q alt="signature" style="max-width:%dpx;max-height:%dpx;" /></span>`,
			signatureDataURL, signatureMaxWidth, signatureMaxHeight)
		out = reSignatureAnchor.ReplaceAllString(out, img)
	}

	if name := strings.TrimSpace(signedName); name != "" {
		out = reNameAnchor.ReplaceAllString(out, `<span id="client-name">`+name+`</span>`)
	}

	date := signedAt.Format("January 2, 2006")
	out = reDateAnchor.ReplaceAllString(out, "${1}"+date+"${2}")

	return out
}

// HashContract fingerprints the template prior to signature embedding.
func HashContract(template string) string {
	sum := sha256.Sum256([]byte(template))
	return hex.EncodeToString(sum[:])
}

func (cs *contractService) ComposeForViewing(ctx context.Context, orgID, nodeID, userID uuid.UUID) (string, string, error) {
	nodes, err := cs.nodeRepo.GetByIDs(ctx, nil, []uuid.UUID{nodeID})
	if err != nil {
		return "", "", fmt.Errorf("failed to load contract node: %w", err)
	}
	if len(nodes) == 0 || nodes[0].OrgID != orgID {
		return "", "", notFoundErrorf("onboarding node %s", nodeID)
	}
	node := nodes[0]
	if node.NodeType != types.NodeTypeContract {
		return "", "", validationErrorf("node %s is not a contract step", nodeID)
	}

	orgName := ""
	if node.Org != nil {
		orgName = node.Org.Name
	}
	template := ContractTemplate(node, orgName)
	hash := HashContract(template)

	// Already signed: show the stored composition instead of a blank one.
	sig, err := cs.signatureRepo.GetByNodeAndUser(ctx, nil, nodeID, userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to check existing signature: %w", err)
	}
	if sig != nil {
		signerEmail := ""
		if users, uErr := cs.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID}); uErr == nil && len(users) > 0 {
			signerEmail = users[0].Email
		}
		return ComposeContract(template, sig.SignedName, signerEmail, sig.SignatureImage, sig.SignedAt), sig.ContractHash, nil
	}
	return template, hash, nil
}

func (cs *contractService) Sign(ctx context.Context, orgID, userID uuid.UUID, req ContractSignRequest) (*types.ContractSignature, error) {
	req.SignedName = normalization.CollapseWhitespace(req.SignedName)
	if req.SignedName == "" {
		return nil, validationErrorf("a legal name is required to sign")
	}
	if strings.TrimSpace(req.SignatureDataURL) == "" {
		return nil, validationErrorf("a signature is required to sign")
	}
	if !req.TermsAccepted || !req.PrivacyAccepted {
		return nil, validationErrorf("both the terms and the privacy policy must be accepted")
	}

	nodes, err := cs.nodeRepo.GetByIDs(ctx, nil, []uuid.UUID{req.NodeID})
	if err != nil {
		return nil, fmt.Errorf("failed to load contract node: %w", err)
	}
	if len(nodes) == 0 || nodes[0].OrgID != orgID {
		return nil, notFoundErrorf("onboarding node %s", req.NodeID)
	}
	node := nodes[0]
	if node.NodeType != types.NodeTypeContract {
		return nil, validationErrorf("node %s is not a contract step", req.NodeID)
	}

	// First signature wins; a re-sign returns the stored row untouched.
	existing, err := cs.signatureRepo.GetByNodeAndUser(ctx, nil, req.NodeID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing signature: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	orgName := ""
	if node.Org != nil {
		orgName = node.Org.Name
	}
	template := ContractTemplate(node, orgName)
	now := time.Now().UTC()
	sig := &types.ContractSignature{
		ID:             uuid.New(),
		NodeID:         req.NodeID,
		OrgID:          orgID,
		UserID:         userID,
		SignedName:     req.SignedName,
		SignatureImage: req.SignatureDataURL,
		ContractHash:   HashContract(template),
		TermsVersion:   req.TermsVersion,
		PrivacyVersion: req.PrivacyVersion,
		SignedAt:       now,
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"signed_name":     req.SignedName,
		"terms_version":   req.TermsVersion,
		"privacy_version": req.PrivacyVersion,
		"signed_at":       now.Format(time.RFC3339),
	})

	if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cs.signatureRepo.Create(ctx, tx, []*types.ContractSignature{sig}); err != nil {
			return fmt.Errorf("failed to persist signature: %w", err)
		}
		progress := &types.OnboardingProgress{
			ID:          uuid.New(),
			NodeID:      req.NodeID,
			UserID:      userID,
			Status:      types.ProgressStatusCompleted,
			Metadata:    metadata,
			CompletedAt: &now,
		}
		if err := cs.progressRepo.Upsert(ctx, tx, progress); err != nil {
			return fmt.Errorf("failed to record contract completion: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	cs.log.Info("Contract signed", "node_id", req.NodeID, "org_id", orgID)
	return sig, nil
}
