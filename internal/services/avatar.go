package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type AvatarService interface {
	GenerateUserAvatar(ctx context.Context, user *types.User) (bytes.Buffer, error)
	GenerateOrgAvatar(ctx context.Context, org *types.Org) (bytes.Buffer, error)
	UploadUserAvatar(ctx context.Context, user *types.User) error
	UploadOrgAvatar(ctx context.Context, org *types.Org) error
}

type avatarService struct {
	log           *logger.Logger
	bucketService BucketService
	bgColors      []color.NRGBA
	fontFace      font.Face
}

// Palette used when a user or org has no avatar yet. The color is
// picked deterministically from the name so regeneration is stable.
var avatarPalette = []color.NRGBA{
	{R: 0x3B, G: 0x82, B: 0xF6, A: 0xFF},
	{R: 0x8B, G: 0x5C, B: 0xF6, A: 0xFF},
	{R: 0xEC, G: 0x48, B: 0x99, A: 0xFF},
	{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF},
	{R: 0x10, G: 0xB9, B: 0x81, A: 0xFF},
	{R: 0x06, G: 0xB6, B: 0xD4, A: 0xFF},
	{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF},
	{R: 0x64, G: 0x74, B: 0x8B, A: 0xFF},
}

func NewAvatarService(log *logger.Logger, bucketService BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontPath := os.Getenv("AVATAR_FONT")
	if strings.TrimSpace(fontPath) == "" {
		return nil, fmt.Errorf("missing env var AVATAR_FONT")
	}
	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:           serviceLog,
		bucketService: bucketService,
		bgColors:      avatarPalette,
		fontFace:      face,
	}, nil
}

func (as *avatarService) GenerateUserAvatar(ctx context.Context, user *types.User) (bytes.Buffer, error) {
	initials := computeInitials(user.FirstName, user.LastName)
	return as.render(initials, user.FirstName+user.LastName)
}

func (as *avatarService) GenerateOrgAvatar(ctx context.Context, org *types.Org) (bytes.Buffer, error) {
	parts := strings.Fields(org.Name)
	first, last := "", ""
	if len(parts) > 0 {
		first = parts[0]
	}
	if len(parts) > 1 {
		last = parts[len(parts)-1]
	}
	return as.render(computeInitials(first, last), org.Name)
}

func (as *avatarService) render(initials, seed string) (bytes.Buffer, error) {
	const size = 512

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	dc.SetColor(as.pickColor(seed))
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(size)/2, float64(size)/2

	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode avatar png: %w", err)
	}
	return buf, nil
}

func (as *avatarService) UploadUserAvatar(ctx context.Context, user *types.User) error {
	buf, err := as.GenerateUserAvatar(ctx, user)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("user_avatar/%s/%d.png", user.ID.String(), time.Now().UnixNano())
	if err := as.bucketService.UploadFile(ctx, key, "image/png", bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("failed to upload user avatar: %w", err)
	}
	oldKey := strings.TrimSpace(user.AvatarBucketKey)
	user.AvatarBucketKey = key
	user.AvatarURL = as.bucketService.GetPublicURL(key)
	if oldKey != "" && oldKey != key {
		if err := as.bucketService.DeleteFile(ctx, oldKey); err != nil {
			as.log.Warn("Failed to delete old avatar", "key", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) UploadOrgAvatar(ctx context.Context, org *types.Org) error {
	buf, err := as.GenerateOrgAvatar(ctx, org)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("org_avatar/%s/%d.png", org.ID.String(), time.Now().UnixNano())
	if err := as.bucketService.UploadFile(ctx, key, "image/png", bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("failed to upload org avatar: %w", err)
	}
	oldKey := strings.TrimSpace(org.AvatarBucketKey)
	org.AvatarBucketKey = key
	org.AvatarURL = as.bucketService.GetPublicURL(key)
	if oldKey != "" && oldKey != key {
		if err := as.bucketService.DeleteFile(ctx, oldKey); err != nil {
			as.log.Warn("Failed to delete old avatar", "key", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) pickColor(seed string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(seed))))
	return as.bgColors[int(h.Sum32())%len(as.bgColors)]
}

func computeInitials(first, last string) string {
	fInit := "?"
	if len(first) > 0 {
		fInit = strings.ToUpper(first[:1])
	}
	lInit := "?"
	if len(last) > 0 {
		lInit = strings.ToUpper(last[:1])
	}
	return fInit + lInit
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ttf: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}
