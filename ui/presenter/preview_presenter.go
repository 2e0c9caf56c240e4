package presenter

import (
	"context"
	"image"
	"log/slog"

	"github.com/corona10/goimagehash"

	"github.com/soocke/food-helper-go/domain/capture"
)

// PreviewModel provides enabled state access.
type PreviewModel interface {
	Enabled() bool
	SetEnabled(bool)
}

// FrameSource is the poller surface used by the preview.
type FrameSource interface {
	Start(ctx context.Context)
	Stop()
	LatestFrame() capture.FrameSnapshot
}

// PreviewView shows the live region capture.
type PreviewView interface {
	UpdatePreview(img image.Image)
	PreviewReset()
}

// PreviewPresenter toggles the preview poller and pushes changed frames to
// the view. Frames whose perceptual hash matches the last shown frame are
// skipped to avoid re-encoding PNGs for Tk.
type PreviewPresenter struct {
	ctx    context.Context
	model  PreviewModel
	source FrameSource
	view   PreviewView
	logger *slog.Logger

	lastSeq  uint64
	lastHash *goimagehash.ImageHash
	lastSize image.Point
	skipped  uint64
}

func NewPreviewPresenter(ctx context.Context, model PreviewModel, source FrameSource, view PreviewView, logger *slog.Logger) *PreviewPresenter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &PreviewPresenter{ctx: ctx, model: model, source: source, view: view, logger: logger}
}

func (p *PreviewPresenter) ready() bool {
	return p != nil && p.model != nil && p.source != nil && p.view != nil
}

// Enable starts polling. Idempotent.
func (p *PreviewPresenter) Enable() {
	if !p.ready() || p.model.Enabled() {
		return
	}
	p.source.Start(p.ctx)
	p.model.SetEnabled(true)
}

// Disable stops polling and clears the preview. Idempotent.
func (p *PreviewPresenter) Disable() {
	if !p.ready() || !p.model.Enabled() {
		return
	}
	p.source.Stop()
	p.model.SetEnabled(false)
	p.lastHash = nil
	p.view.PreviewReset()
}

// Toggle flips the preview state.
func (p *PreviewPresenter) Toggle() {
	if !p.ready() {
		return
	}
	if p.model.Enabled() {
		p.Disable()
		return
	}
	p.Enable()
}

// Skipped counts frames dropped as unchanged.
func (p *PreviewPresenter) Skipped() uint64 {
	if p == nil {
		return 0
	}
	return p.skipped
}

// ProcessFrame shows the newest frame if it differs from the last one.
func (p *PreviewPresenter) ProcessFrame() {
	if !p.ready() || !p.model.Enabled() {
		return
	}
	snap := p.source.LatestFrame()
	if snap.Image == nil || snap.Sequence == p.lastSeq {
		return
	}
	p.lastSeq = snap.Sequence
	size := snap.Image.Bounds().Size()
	hash, err := goimagehash.PerceptionHash(snap.Image)
	if err == nil && p.lastHash != nil && size == p.lastSize {
		if dist, derr := p.lastHash.Distance(hash); derr == nil && dist == 0 {
			p.skipped++
			return
		}
	}
	if err != nil && p.logger != nil {
		p.logger.Debug("preview hash failed", "error", err)
	}
	p.lastHash = hash
	p.lastSize = size
	p.view.UpdatePreview(snap.Image)
}
