// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/yorticia/yorticia-site/cache"
	"github.com/yorticia/yorticia-site/docstore"
	"github.com/yorticia/yorticia-site/metrics"
	"github.com/yorticia/yorticia-site/models"
	"github.com/yorticia/yorticia-site/objstore"
)

// Collection holds one document per image.
const Collection = "images"

// MaxUploadSize is the largest accepted image file.
const MaxUploadSize = 15 << 20

var (
	ErrImageNotFound   = errors.New("image not found")
	ErrEmptyFile       = errors.New("uploaded file is empty")
	ErrFileTooLarge    = errors.New("uploaded file exceeds 15 MiB")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrVersionConflict = errors.New("image was modified by another request")
	ErrTitleTooLong    = errors.New("title must be at most 200 characters")
	ErrNothingToUpdate = errors.New("no fields to update")
)

// Sniffed content type -> file extension
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type ListOptions struct {
	Category string
	Order    Order
	// Optional date labels bounding the listing, parsed like image labels
	From string
	To   string
}

type UploadInput struct {
	Category  string
	Title     string
	Alt       string
	DateRange string
	Data      []byte
}

type UpdateInput struct {
	Title     *string
	Alt       *string
	DateRange *string
	Category  *string
}

type BulkDeleteResult struct {
	Deleted  []string
	NotFound []string
}

type Service struct {
	store  *docstore.Store
	images *docstore.Collection
	bucket objstore.Bucket
	cache  *cache.Cache
	now    func() time.Time
}

func NewService(store *docstore.Store, bucket objstore.Bucket, c *cache.Cache) *Service {
	return &Service{
		store:  store,
		images: store.Collection(Collection),
		bucket: bucket,
		cache:  c,
		now:    time.Now,
	}
}

// Categories returns every category with its image count and cover image.
func (s *Service) Categories(ctx context.Context) ([]models.CategorySummary, error) {
	const key = "categories"
	if v, ok := s.cache.Get(key); ok {
		return slices.Clone(v.([]models.CategorySummary)), nil
	}

	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]models.Image)
	for _, img := range all {
		byCategory[img.Category] = append(byCategory[img.Category], img)
	}

	summaries := make([]models.CategorySummary, 0, len(categories))
	for _, c := range Categories() {
		imgs := byCategory[c.Slug]
		summary := models.CategorySummary{Category: c, Count: len(imgs)}
		if len(imgs) > 0 {
			SortImages(imgs, OrderNewest)
			cover := imgs[0]
			summary.Cover = &cover
		}
		summaries = append(summaries, summary)
	}

	s.cache.Set(key, summaries, cache.TagGallery)
	return slices.Clone(summaries), nil
}

// List returns the images of one category (or CategoryAll) in the requested order.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.Image, error) {
	if opts.Category != CategoryAll {
		if _, err := LookupCategory(opts.Category); err != nil {
			return nil, err
		}
	}
	if opts.Order == "" {
		opts.Order = OrderNewest
	}

	window, filtered, err := dateWindow(opts.From, opts.To)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("list:%s:%s:%s:%s", opts.Category, opts.Order, opts.From, opts.To)
	if v, ok := s.cache.Get(key); ok {
		return slices.Clone(v.([]models.Image)), nil
	}

	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	images := make([]models.Image, 0, len(all))
	for _, img := range all {
		if opts.Category == CategoryAll || img.Category == opts.Category {
			images = append(images, img)
		}
	}
	if filtered {
		images = FilterByDate(images, window)
	}
	SortImages(images, opts.Order)

	s.cache.Set(key, images, cache.CategoryTag(opts.Category))
	return slices.Clone(images), nil
}

// Get returns one image.
func (s *Service) Get(ctx context.Context, id string) (models.Image, error) {
	key := "image:" + id
	if v, ok := s.cache.Get(key); ok {
		return v.(models.Image), nil
	}

	img, err := s.load(ctx, id)
	if err != nil {
		return models.Image{}, err
	}

	s.cache.Set(key, img, cache.ImageTag(id))
	return img, nil
}

// Upload stores the file in the bucket and records its document. If the
// document write fails the object is removed again.
func (s *Service) Upload(ctx context.Context, in UploadInput) (models.Image, error) {
	if _, err := LookupCategory(in.Category); err != nil {
		return models.Image{}, err
	}
	if len(in.Data) == 0 {
		return models.Image{}, ErrEmptyFile
	}
	if len(in.Data) > MaxUploadSize {
		return models.Image{}, ErrFileTooLarge
	}
	if len(in.Title) > 200 {
		return models.Image{}, ErrTitleTooLong
	}
	if err := checkDateLabel(in.DateRange); err != nil {
		return models.Image{}, err
	}

	contentType := http.DetectContentType(in.Data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return models.Image{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	id := uuid.NewString()
	key := fmt.Sprintf("gallery/%s/%s%s", in.Category, id, ext)

	if err := s.bucket.Put(ctx, key, bytes.NewReader(in.Data), int64(len(in.Data)), contentType); err != nil {
		return models.Image{}, err
	}

	now := s.now().UTC()
	img := models.Image{
		ID:          id,
		Category:    in.Category,
		Title:       strings.TrimSpace(in.Title),
		Alt:         strings.TrimSpace(in.Alt),
		DateRange:   strings.TrimSpace(in.DateRange),
		ObjectKey:   key,
		URL:         s.bucket.URL(key),
		ContentType: contentType,
		Size:        int64(len(in.Data)),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if img.Alt == "" {
		img.Alt = img.Title
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Data)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}

	if err := s.images.Create(ctx, id, img); err != nil {
		if derr := s.bucket.Delete(ctx, key); derr != nil {
			slog.Error("failed to remove orphaned upload", "key", key, "error", derr)
		}
		return models.Image{}, err
	}

	s.cache.InvalidateTag(cache.TagGallery, cache.CategoryTag(img.Category), cache.CategoryTag(CategoryAll))
	metrics.RecordGalleryMutation("upload", 1)
	slog.Info("image uploaded", "image_id", id, "category", img.Category, "size", img.Size)

	return img, nil
}

// Update applies a partial edit of the image metadata.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (models.Image, error) {
	if in.Title == nil && in.Alt == nil && in.DateRange == nil && in.Category == nil {
		return models.Image{}, ErrNothingToUpdate
	}
	if in.Category != nil {
		if _, err := LookupCategory(*in.Category); err != nil {
			return models.Image{}, err
		}
	}
	if in.Title != nil && len(*in.Title) > 200 {
		return models.Image{}, ErrTitleTooLong
	}
	if in.DateRange != nil {
		if err := checkDateLabel(*in.DateRange); err != nil {
			return models.Image{}, err
		}
	}

	var updated models.Image
	var oldCategory string
	err := s.store.RunTransaction(ctx, func(tx *docstore.Tx) error {
		img, doc, err := loadTx(tx, id)
		if err != nil {
			return err
		}
		oldCategory = img.Category

		if in.Title != nil {
			img.Title = strings.TrimSpace(*in.Title)
		}
		if in.Alt != nil {
			img.Alt = strings.TrimSpace(*in.Alt)
		}
		if in.DateRange != nil {
			img.DateRange = strings.TrimSpace(*in.DateRange)
		}
		if in.Category != nil {
			img.Category = *in.Category
		}
		img.Version++
		img.UpdatedAt = s.now().UTC()

		updated = img
		return tx.Update(doc, img)
	})
	if err != nil {
		return models.Image{}, err
	}

	s.cache.InvalidateTag(cache.TagGallery, cache.ImageTag(id),
		cache.CategoryTag(oldCategory), cache.CategoryTag(updated.Category), cache.CategoryTag(CategoryAll))
	metrics.RecordGalleryMutation("update", 1)
	slog.Info("image updated", "image_id", id, "version", updated.Version)

	return updated, nil
}

// Delete removes the image document and then its object. A failed object
// delete is logged and leaves an orphan in the bucket.
func (s *Service) Delete(ctx context.Context, id string) error {
	img, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.images.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.bucket.Delete(ctx, img.ObjectKey); err != nil {
		slog.Error("failed to delete image object", "image_id", id, "key", img.ObjectKey, "error", err)
	}

	s.cache.InvalidateTag(cache.TagGallery, cache.ImageTag(id), cache.CategoryTag(img.Category), cache.CategoryTag(CategoryAll))
	metrics.RecordGalleryMutation("delete", 1)
	slog.Info("image deleted", "image_id", id)
	return nil
}

// BulkDelete removes many images. Documents go first, in batches of
// docstore.MaxBatchSize, then the objects in one bucket call. When a batch
// fails, the result still lists the images removed before it.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (BulkDeleteResult, error) {
	result := BulkDeleteResult{Deleted: []string{}, NotFound: []string{}}

	seen := make(map[string]bool, len(ids))
	var found []models.Image
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		img, err := s.load(ctx, id)
		if errors.Is(err, ErrImageNotFound) {
			result.NotFound = append(result.NotFound, id)
			continue
		}
		if err != nil {
			return result, err
		}
		found = append(found, img)
	}
	if len(found) == 0 {
		return result, nil
	}

	docIDs := make([]string, len(found))
	keys := make(map[string]string, len(found))
	tags := []string{cache.TagGallery, cache.CategoryTag(CategoryAll)}
	for i, img := range found {
		docIDs[i] = img.ID
		keys[img.ID] = img.ObjectKey
		tags = append(tags, cache.ImageTag(img.ID), cache.CategoryTag(img.Category))
	}

	removed, err := s.images.DeleteMany(ctx, docIDs)
	// Whatever was removed must leave the cache and the bucket, even on partial failure
	s.cache.InvalidateTag(tags...)
	result.Deleted = removed
	if len(removed) > 0 {
		objects := make([]string, len(removed))
		for i, id := range removed {
			objects[i] = keys[id]
		}
		if err := s.bucket.DeleteMany(ctx, objects); err != nil {
			slog.Error("failed to delete image objects", "count", len(objects), "error", err)
		}
		metrics.RecordGalleryMutation("delete", len(removed))
	}
	if err != nil {
		slog.Error("bulk delete interrupted", "requested", len(docIDs), "deleted", len(removed), "error", err)
		return result, err
	}

	slog.Info("images bulk deleted", "deleted", len(removed), "not_found", len(result.NotFound))
	return result, nil
}

// SetPinned sets the pinned flag. When expectedVersion is non-zero and does
// not match the stored version, the current image is returned together with
// ErrVersionConflict so the caller can roll back an optimistic update.
// Setting the flag to its current value is a no-op and keeps the version.
func (s *Service) SetPinned(ctx context.Context, id string, pinned bool, expectedVersion int) (models.Image, error) {
	var current models.Image
	changed := false
	err := s.store.RunTransaction(ctx, func(tx *docstore.Tx) error {
		img, doc, err := loadTx(tx, id)
		if err != nil {
			return err
		}
		current = img

		if expectedVersion != 0 && img.Version != expectedVersion {
			return ErrVersionConflict
		}
		if img.Pinned == pinned {
			return nil
		}

		img.Pinned = pinned
		img.Version++
		img.UpdatedAt = s.now().UTC()
		if err := tx.Update(doc, img); err != nil {
			return err
		}
		current = img
		changed = true
		return nil
	})
	if errors.Is(err, ErrVersionConflict) {
		return current, err
	}
	if err != nil {
		return models.Image{}, err
	}

	if changed {
		s.cache.InvalidateTag(cache.TagGallery, cache.ImageTag(id), cache.CategoryTag(current.Category), cache.CategoryTag(CategoryAll))
		metrics.RecordGalleryMutation("pin", 1)
		slog.Info("image pin changed", "image_id", id, "pinned", pinned, "version", current.Version)
	}
	return current, nil
}

func (s *Service) all(ctx context.Context) ([]models.Image, error) {
	docs, err := s.images.List(ctx)
	if err != nil {
		return nil, err
	}

	images := make([]models.Image, 0, len(docs))
	for _, doc := range docs {
		var img models.Image
		if err := doc.DataTo(&img); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func (s *Service) load(ctx context.Context, id string) (models.Image, error) {
	doc, err := s.images.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Image{}, ErrImageNotFound
	}
	if err != nil {
		return models.Image{}, err
	}

	var img models.Image
	if err := doc.DataTo(&img); err != nil {
		return models.Image{}, err
	}
	return img, nil
}

func loadTx(tx *docstore.Tx, id string) (models.Image, *docstore.Document, error) {
	doc, err := tx.Get(Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Image{}, nil, ErrImageNotFound
	}
	if err != nil {
		return models.Image{}, nil, err
	}

	var img models.Image
	if err := doc.DataTo(&img); err != nil {
		return models.Image{}, nil, err
	}
	return img, doc, nil
}

// An empty label is allowed and means "undated".
func checkDateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return nil
	}
	_, err := ParseDateRange(label)
	return err
}

func dateWindow(from, to string) (DateRange, bool, error) {
	if from == "" && to == "" {
		return DateRange{}, false, nil
	}

	window := DateRange{
		Start: time.Time{},
		End:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	if from != "" {
		r, err := ParseDateRange(from)
		if err != nil {
			return DateRange{}, false, err
		}
		window.Start = r.Start
	}
	if to != "" {
		r, err := ParseDateRange(to)
		if err != nil {
			return DateRange{}, false, err
		}
		window.End = r.End
	}
	return window, true, nil
}
