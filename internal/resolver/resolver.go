package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/kkdai/youtube/v2"

	"telefetch/internal/media"
)

const defaultHTTPTimeout = 30 * time.Second

// Service resolves URLs against the source. It is stateless and safe for
// concurrent use by multiple pipeline workers.
type Service struct {
	client *youtube.Client
}

// Option adjusts Service construction.
type Option func(*Service)

// WithHTTPClient swaps the HTTP client used for metadata calls. The daemon
// passes a client carrying the shared cookie jar.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.client = &youtube.Client{HTTPClient: client}
		}
	}
}

// New builds a resolver service.
func New(opts ...Option) *Service {
	service := &Service{
		client: &youtube.Client{HTTPClient: &http.Client{Timeout: defaultHTTPTimeout}},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Resolution is a lazily-consumed batch of items produced from one URL. Next
// yields items in source order and is not safe for concurrent use; each job
// drains its own resolution on a single worker.
type Resolution struct {
	Playlist  bool
	Title     string
	BatchSize int

	next func(ctx context.Context) (*media.Item, error)
}

// NewResolution wraps an item feed in a batch descriptor. The feed follows
// the Next contract and lets alternate item sources plug into the pipeline.
func NewResolution(title string, playlist bool, batchSize int, next func(ctx context.Context) (*media.Item, error)) *Resolution {
	return &Resolution{Playlist: playlist, Title: title, BatchSize: batchSize, next: next}
}

// Next returns the next item in the batch. A nil item with a nil error marks
// the end. A non-nil item with a non-nil error reports an entry that could
// not be resolved or has no downloadable streams; the caller records a
// per-item failure and keeps consuming. A nil item with a non-nil error
// aborts the batch (context cancellation).
func (r *Resolution) Next(ctx context.Context) (*media.Item, error) {
	if r == nil || r.next == nil {
		return nil, nil
	}
	return r.next(ctx)
}

// Resolve classifies the URL and prepares its item source. Single videos are
// resolved immediately; playlists fetch the entry list up front and resolve
// each video lazily on Next.
func (s *Service) Resolve(ctx context.Context, rawURL string) (*Resolution, error) {
	normalized, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	if looksLikePlaylist(normalized) {
		return s.resolvePlaylist(ctx, normalized)
	}
	return s.resolveVideo(ctx, normalized)
}

func (s *Service) resolveVideo(ctx context.Context, url string) (*Resolution, error) {
	video, err := s.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, Classify(err)
	}
	item := itemFromVideo(video, url, 1, 1)
	done := false
	return &Resolution{
		Title:     item.Title,
		BatchSize: 1,
		next: func(ctx context.Context) (*media.Item, error) {
			if done {
				return nil, nil
			}
			done = true
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !item.Viable() {
				return &item, errors.New("no downloadable video streams")
			}
			return &item, nil
		},
	}, nil
}

func (s *Service) resolvePlaylist(ctx context.Context, url string) (*Resolution, error) {
	playlist, err := s.client.GetPlaylistContext(ctx, url)
	if err != nil {
		return nil, Classify(err)
	}
	entries := make([]*youtube.PlaylistEntry, 0, len(playlist.Videos))
	for _, entry := range playlist.Videos {
		if entry != nil && entry.ID != "" {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: playlist has no videos", ErrUnsupportedURL)
	}

	title := playlist.Title
	if title == "" {
		title = titleFromURL(url)
	}
	total := len(entries)
	index := 0
	return &Resolution{
		Playlist:  true,
		Title:     title,
		BatchSize: total,
		next: func(ctx context.Context) (*media.Item, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if index >= total {
				return nil, nil
			}
			entry := entries[index]
			index++
			video, err := s.client.VideoFromPlaylistEntryContext(ctx, entry)
			if err != nil {
				stub := media.Item{
					ID:        entry.ID,
					Title:     entryTitle(entry),
					SourceURL: watchURL(entry.ID),
					Position:  index,
					BatchSize: total,
				}
				return &stub, Classify(err)
			}
			item := itemFromVideo(video, watchURL(entry.ID), index, total)
			if !item.Viable() {
				return &item, errors.New("no downloadable video streams")
			}
			return &item, nil
		},
	}, nil
}

// Variants maps raw source formats onto the pipeline's variant model,
// ordered best-first. The fetch client uses the same mapping when it
// refreshes metadata before opening streams.
func Variants(formats youtube.FormatList) []media.Variant {
	variants := make([]media.Variant, 0, len(formats))
	for _, format := range formats {
		variants = append(variants, media.Variant{
			Itag:          format.ItagNo,
			MimeType:      format.MimeType,
			Height:        format.Height,
			Width:         format.Width,
			Bitrate:       format.Bitrate,
			ContentLength: format.ContentLength,
			AudioChannels: format.AudioChannels,
			QualityLabel:  format.QualityLabel,
		})
	}
	sort.SliceStable(variants, func(i, j int) bool {
		if variants[i].Height != variants[j].Height {
			return variants[i].Height > variants[j].Height
		}
		return variants[i].Bitrate > variants[j].Bitrate
	})
	return variants
}

// itemFromVideo maps source metadata onto the pipeline's item model.
func itemFromVideo(video *youtube.Video, sourceURL string, position, total int) media.Item {
	title := video.Title
	if title == "" {
		title = titleFromURL(sourceURL)
	}
	return media.Item{
		ID:        video.ID,
		Title:     title,
		Author:    video.Author,
		Duration:  video.Duration,
		SourceURL: sourceURL,
		Position:  position,
		BatchSize: total,
		Variants:  Variants(video.Formats),
	}
}

func entryTitle(entry *youtube.PlaylistEntry) string {
	if entry == nil {
		return ""
	}
	if entry.Title != "" {
		return entry.Title
	}
	return entry.ID
}
