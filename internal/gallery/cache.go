package gallery

import (
	"context"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/hikinggallery/gallery-api/models"
)

// snapshot is one immutable build of the cached timeline: the head and tail
// marker partitions plus an image index over the ids they reference, ordered
// descending by timestamp.
type snapshot struct {
	head  []models.TimelineItem
	tail  []models.TimelineItem
	order []models.Image
	byID  map[string]models.Image
}

// Cache memoizes the timeline and its image index. Reads are lock-free;
// Rebuild swaps in a complete new snapshot atomically. A cold cache is
// valid: readers get empty results and fall back to live computation.
type Cache struct {
	snap atomic.Pointer[snapshot]
	log  *zap.Logger
}

func NewCache(log *zap.Logger) *Cache {
	c := &Cache{log: log}
	c.snap.Store(&snapshot{byID: map[string]models.Image{}})
	return c
}

// Get selects the cached partitions. Both flags set returns head followed by
// tail; both unset returns nothing. Get never triggers a rebuild.
func (c *Cache) Get(head, tail bool) []models.TimelineItem {
	snap := c.snap.Load()
	switch {
	case head && tail:
		out := make([]models.TimelineItem, 0, len(snap.head)+len(snap.tail))
		out = append(out, snap.head...)
		return append(out, snap.tail...)
	case head:
		return snap.head
	case tail:
		return snap.tail
	default:
		return nil
	}
}

// Empty reports whether the cache holds no timeline at all.
func (c *Cache) Empty() bool {
	snap := c.snap.Load()
	return len(snap.head) == 0 && len(snap.tail) == 0
}

// IndexedImages returns the cached image index in its stored order,
// descending by timestamp.
func (c *Cache) IndexedImages() []models.Image {
	return c.snap.Load().order
}

// GetImages resolves ids against the cached index, dropping unresolvable
// ones, then windows the result with the same skip/limit contract as the
// live lookup: limit of zero or less means no limit.
func (c *Cache) GetImages(imageIDs []string, skip, limit int) []models.Image {
	snap := c.snap.Load()
	var resolved []models.Image
	for _, id := range imageIDs {
		if img, ok := snap.byID[id]; ok {
			resolved = append(resolved, img)
		}
	}
	return window(resolved, skip, limit)
}

// Rebuild recomputes the head and tail partitions independently, then the
// image index from the ids the new timeline references, substituting the
// 1024px variant as the display location where present.
func (c *Cache) Rebuild(ctx context.Context, svc *Service) error {
	head, err := svc.BuildTimeline(ctx, true, false)
	if err != nil {
		return err
	}
	tail, err := svc.BuildTimeline(ctx, false, true)
	if err != nil {
		return err
	}

	var ids []string
	for _, item := range append(append([]models.TimelineItem{}, head...), tail...) {
		if item.ImageID != nil {
			ids = append(ids, *item.ImageID)
		}
	}
	images, err := svc.FindImages(ctx, ids, 0, 0)
	if err != nil {
		return err
	}
	for i := range images {
		images[i].Location = images[i].PreferredLocation()
	}
	sort.SliceStable(images, func(a, b int) bool {
		return images[a].Timestamp > images[b].Timestamp
	})
	byID := make(map[string]models.Image, len(images))
	for _, img := range images {
		byID[img.ImageID] = img
	}

	c.snap.Store(&snapshot{head: head, tail: tail, order: images, byID: byID})
	c.log.Info("timeline cache rebuilt",
		zap.Int("headItems", len(head)),
		zap.Int("tailItems", len(tail)),
		zap.Int("images", len(images)))
	return nil
}

// window applies skip/limit to an already ordered slice. It never reads past
// the end; skip at or beyond the length yields nothing.
func window(images []models.Image, skip, limit int) []models.Image {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(images) {
		return nil
	}
	end := len(images)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return images[skip:end]
}
