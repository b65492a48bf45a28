package image

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ProfileLinker stores which image is a user's current profile picture.
type ProfileLinker interface {
	// SetProfileImage points the user at imageID and returns the id it replaced.
	SetProfileImage(ctx context.Context, userID, imageID string) (previous string, err error)
}

// ProfilePictures swaps a user's profile picture, keeping at most one
// profile image per user.
type ProfilePictures struct {
	images *Service
	linker ProfileLinker
}

func NewProfilePictures(images *Service, linker ProfileLinker) *ProfilePictures {
	return &ProfilePictures{images: images, linker: linker}
}

// Replace ingests the new picture, links it, then removes the old one.
func (p *ProfilePictures) Replace(ctx context.Context, userID string, in AddInput) (*Image, error) {
	in.Owner = ProfileOwner(userID)
	img, err := p.images.Add(ctx, in)
	if err != nil {
		return nil, err
	}

	previous, err := p.linker.SetProfileImage(ctx, userID, img.ID)
	if err != nil {
		if _, rmErr := p.images.Remove(context.WithoutCancel(ctx), img.ID); rmErr != nil {
			p.images.log.Error("unlinked profile image left behind",
				zap.String("image_id", img.ID), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("link profile image: %w", err)
	}

	if previous != "" && previous != img.ID {
		if _, err := p.images.Remove(ctx, previous); err != nil {
			p.images.log.Warn("previous profile image not removed",
				zap.String("image_id", previous), zap.Error(err))
		}
	}
	return img, nil
}

// Clear unlinks and removes the current profile picture. Clearing when
// there is none is a no-op.
func (p *ProfilePictures) Clear(ctx context.Context, userID string) (RemoveResult, error) {
	previous, err := p.linker.SetProfileImage(ctx, userID, "")
	if err != nil {
		return RemoveResult{}, fmt.Errorf("unlink profile image: %w", err)
	}
	if previous == "" {
		return RemoveResult{}, nil
	}
	res, err := p.images.Remove(ctx, previous)
	if err != nil && !errors.Is(err, ErrImageNotFound) {
		return res, err
	}
	return res, nil
}
