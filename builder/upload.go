package builder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cbe/block"
	"cbe/media"
)

func (b *Builder) imageBlock(id string) (block.ImageContent, error) {
	blk, ok := b.doc.Block(id)
	if !ok {
		return block.ImageContent{}, fmt.Errorf("image %s: unknown block", id)
	}
	if blk.Type != block.TypeImage {
		return block.ImageContent{}, fmt.Errorf("image %s is %s: %w", id, blk.Type, ErrWrongType)
	}
	img, _ := blk.Content.(block.ImageContent)
	return img, nil
}

func (b *Builder) setImage(id string, img block.ImageContent) {
	if err := b.doc.SetContent(id, img); err != nil {
		b.log.Warn("Unable to store image", zap.String("id", id), zap.Error(err))
		return
	}
	b.changed()
}

// UploadImage shows preview of data in image block and runs upload. The
// call blocks until upload finishes. On failure block stays in uploading
// state until CancelUpload.
func (b *Builder) UploadImage(ctx context.Context, id string, data []byte) error {
	if b.upload == nil {
		return ErrNoUploader
	}
	current, err := b.imageBlock(id)
	if err != nil {
		return err
	}
	preview, err := media.NewPreview(data, &b.cfg.Images)
	if err != nil {
		return fmt.Errorf("unable to prepare preview: %w", err)
	}
	uri := preview.DataURI()
	b.setImage(id, block.ImageContent{Src: uri, Alt: current.Alt, Uploading: true})

	ctx, cancel := context.WithCancel(ctx)
	b.uploads[id] = cancel
	defer func() {
		cancel()
		delete(b.uploads, id)
	}()

	b.log.Debug("Uploading image", zap.String("id", id), zap.String("type", preview.SourceMIME), zap.Int("bytes", len(data)))
	res, err := b.upload(ctx, data, uri)
	if err != nil {
		b.log.Warn("Image upload failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("unable to upload image: %w", err)
	}
	// cancelled or deleted while uploading
	img, err := b.imageBlock(id)
	if err != nil || !img.Uploading {
		return context.Canceled
	}
	alt := res.Alt
	if alt == "" {
		alt = current.Alt
	}
	b.setImage(id, block.ImageContent{Src: res.Src, Alt: alt})
	return nil
}

// CancelUpload resets image block from uploading state. Returns false when
// block was not uploading.
func (b *Builder) CancelUpload(id string) bool {
	img, err := b.imageBlock(id)
	if err != nil || !img.Uploading {
		return false
	}
	if cancel, ok := b.uploads[id]; ok {
		cancel()
	}
	b.setImage(id, block.ImageContent{Alt: img.Alt})
	b.log.Debug("Image upload cancelled", zap.String("id", id))
	return true
}
