// Package media copies WhatsApp attachments to object storage and enriches
// them with a thumbnail (images) or a transcript (audio).
package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/wa-router/internal/model"
	"github.com/unclebandit/wa-router/internal/whatsapp"
)

const (
	DefaultMaxBytes            int64 = 16 * 1024 * 1024
	DefaultThumbnailWidth            = 320
	DefaultTranscriptionBudget       = 5 * time.Second
)

// Source fetches attachment bytes from the messaging provider.
type Source interface {
	MediaInfo(ctx context.Context, mediaID string) (*whatsapp.MediaInfo, error)
	Download(ctx context.Context, url string, maxBytes int64) ([]byte, error)
}

type Config struct {
	AudioBucket    string
	MediaBucket    string
	MaxBytes       int64
	ThumbnailWidth int
	// TranscriptionBudget bounds how long Process waits for a transcript.
	// Past it the transcript is dropped.
	TranscriptionBudget time.Duration
}

// Pipeline runs download, upload, thumbnail and transcription for one attachment.
type Pipeline struct {
	Source      Source
	Storage     Storage
	Transcriber Transcriber // nil disables transcription
	Config      Config
	Logger      *zap.Logger
}

func NewPipeline(source Source, storage Storage, transcriber Transcriber, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.ThumbnailWidth <= 0 {
		cfg.ThumbnailWidth = DefaultThumbnailWidth
	}
	if cfg.TranscriptionBudget <= 0 {
		cfg.TranscriptionBudget = DefaultTranscriptionBudget
	}
	return &Pipeline{
		Source:      source,
		Storage:     storage,
		Transcriber: transcriber,
		Config:      cfg,
		Logger:      logger.Named("media"),
	}
}

// ObjectKey is the deterministic storage path of an attachment.
func ObjectKey(conversationID, mediaID, mimeType string) string {
	return fmt.Sprintf("conversations/%s/%s%s", conversationID, mediaID, Extension(mimeType))
}

// Bucket picks the bucket by MIME family: audio apart from everything else.
func (p *Pipeline) Bucket(mimeType string) string {
	if IsAudio(mimeType) {
		return p.Config.AudioBucket
	}
	return p.Config.MediaBucket
}

// Process returns the descriptor of the stored attachment. An error means
// the attachment could not be stored; thumbnail and transcript failures are
// logged and leave those fields empty.
func (p *Pipeline) Process(ctx context.Context, conversationID string, ref model.MediaRef, messageType string) (*model.MediaDescriptor, error) {
	if p.Source == nil || p.Storage == nil {
		return nil, errors.New("media pipeline not configured")
	}
	log := p.Logger.With(zap.String("conversation_id", conversationID), zap.String("media_id", ref.ID))

	info, err := p.Source.MediaInfo(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("media info: %w", err)
	}
	data, err := p.Source.Download(ctx, info.URL, p.Config.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	mimeType := ref.MimeType
	if mimeType == "" {
		mimeType = info.MimeType
	}
	if mimeType == "" {
		mimeType = guessMime(messageType)
	}

	desc := &model.MediaDescriptor{
		Bucket:   p.Bucket(mimeType),
		Path:     ObjectKey(conversationID, ref.ID, mimeType),
		MimeType: mimeType,
		Size:     int64(len(data)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Storage.Put(gctx, desc.Bucket, desc.Path, mimeType, data)
	})
	if IsImage(mimeType) {
		g.Go(func() error {
			thumb, err := Thumbnail(data, p.Config.ThumbnailWidth)
			if err != nil {
				log.Warn("thumbnail failed", zap.Error(err))
				return nil
			}
			desc.Thumbnail = thumb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	desc.URL = p.Storage.PublicURL(desc.Bucket, desc.Path)

	if IsAudio(mimeType) && p.Transcriber != nil {
		text, err := p.transcribe(ctx, desc.URL, mimeType)
		switch {
		case err != nil:
			log.Warn("transcription failed", zap.Error(err))
		case text != "":
			desc.Transcript = text
		}
	}

	log.Debug("media stored", zap.String("bucket", desc.Bucket), zap.String("path", desc.Path))
	return desc, nil
}

type transcription struct {
	text string
	err  error
}

// transcribe waits at most TranscriptionBudget for the transcriber. The call
// is cancelled and its result discarded when the budget runs out.
func (p *Pipeline) transcribe(ctx context.Context, audioURL, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Config.TranscriptionBudget)
	defer cancel()

	done := make(chan transcription, 1)
	go func() {
		text, err := p.Transcriber.Transcribe(ctx, audioURL, mimeType)
		done <- transcription{text, err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("transcript dropped: %w", ctx.Err())
	}
}
