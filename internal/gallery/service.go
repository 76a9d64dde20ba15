package gallery

import (
	"context"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hikinggallery/gallery-api/internal/imaging"
	"github.com/hikinggallery/gallery-api/models"
)

// Store is the persistence surface the gallery layer composes. Implemented
// by the gorm store; tests supply an in-memory fake.
type Store interface {
	FindLists(ctx context.Context) ([]models.ImageList, error)
	FindList(ctx context.Context, listID string) (models.ImageList, error)
	InsertList(ctx context.Context, list *models.ImageList) error
	ReplaceList(ctx context.Context, list models.ImageList) error
	DeleteLists(ctx context.Context, listIDs []string) error
	UpdateListName(ctx context.Context, listID, name string) error
	RemoveImageFromList(ctx context.Context, listID, imageID string) error
	FindImages(ctx context.Context, imageIDs []string, skip, limit int) ([]models.Image, error)
	InsertImage(ctx context.Context, image *models.Image) error
	UpsertImages(ctx context.Context, images []models.Image) error
	DeleteImages(ctx context.Context, imageIDs []string) error
	UpdateImageDescription(ctx context.Context, imageID, description string) error
}

// ObjectStore is the bucket surface used for ingestion and signed uploads.
type ObjectStore interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
	SignedUploadURL(ctx context.Context, key string) (string, error)
	PublicURL(key string) string
}

// Service composes store reads into the folder, image and timeline views and
// owns every list/image mutation.
type Service struct {
	store  Store
	bucket ObjectStore
	log    *zap.Logger

	resize  func(raw []byte, log *zap.Logger) []imaging.Rendition
	extract func(def models.Image, raw []byte) models.Image
}

func NewService(store Store, bucket ObjectStore, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		bucket:  bucket,
		log:     log,
		resize:  imaging.Renditions,
		extract: imaging.ExtractMetadata,
	}
}

// ListNonEmptyFoldersByRecency returns the non-empty lists ordered descending
// by the timestamp of each list's first referenced image. A list whose first
// image does not resolve is dropped from the result, never an error.
func (s *Service) ListNonEmptyFoldersByRecency(ctx context.Context) ([]models.ImageList, error) {
	lists, err := s.store.FindLists(ctx)
	if err != nil {
		return nil, err
	}
	return s.sortByRecency(ctx, lists)
}

// ListAllFolders returns every list: empty lists first in store order,
// followed by the non-empty lists in recency order.
func (s *Service) ListAllFolders(ctx context.Context) ([]models.ImageList, error) {
	lists, err := s.store.FindLists(ctx)
	if err != nil {
		return nil, err
	}
	sorted, err := s.sortByRecency(ctx, lists)
	if err != nil {
		return nil, err
	}
	var out []models.ImageList
	for _, list := range lists {
		if len(list.Images) == 0 {
			out = append(out, list)
		}
	}
	return append(out, sorted...), nil
}

func (s *Service) sortByRecency(ctx context.Context, lists []models.ImageList) ([]models.ImageList, error) {
	firstToList := make(map[string]models.ImageList)
	for _, list := range lists {
		if len(list.Images) > 0 {
			firstToList[list.Images[0]] = list
		}
	}
	firstIDs := make([]string, 0, len(firstToList))
	for id := range firstToList {
		firstIDs = append(firstIDs, id)
	}
	firstImages, err := s.store.FindImages(ctx, firstIDs, 0, 0)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(firstImages, func(a, b int) bool {
		return firstImages[a].Timestamp > firstImages[b].Timestamp
	})
	var out []models.ImageList
	for _, img := range firstImages {
		if list, ok := firstToList[img.ImageID]; ok {
			out = append(out, list)
		}
	}
	return out, nil
}

// FindImages resolves an id set sorted ascending by timestamp and windows
// the sorted result with skip/limit. Limit of zero or less means no limit.
func (s *Service) FindImages(ctx context.Context, imageIDs []string, skip, limit int) ([]models.Image, error) {
	if skip < 0 {
		skip = 0
	}
	return s.store.FindImages(ctx, imageIDs, skip, limit)
}

func (s *Service) EditPageData(ctx context.Context) (models.EditPageData, error) {
	lists, err := s.ListAllFolders(ctx)
	if err != nil {
		return models.EditPageData{}, err
	}
	return models.EditPageData{ImagesLists: lists}, nil
}

// BuildTimeline flattens the selected folders into title, date and image
// markers. Head selects the most recent folder, tail the remaining ones.
// Within a folder images are grouped by calendar date over the ascending
// timestamp order, so groups come out in ascending date order.
func (s *Service) BuildTimeline(ctx context.Context, head, tail bool) ([]models.TimelineItem, error) {
	lists, err := s.ListNonEmptyFoldersByRecency(ctx)
	if err != nil {
		return nil, err
	}
	var items []models.TimelineItem
	for i, list := range lists {
		if !((head && i == 0) || (tail && i > 0)) {
			continue
		}
		items = append(items, models.TitleItem(list.ListID, list.Name))

		images, err := s.store.FindImages(ctx, list.Images, 0, 0)
		if err != nil {
			return nil, err
		}
		var dates []string
		grouped := make(map[string][]models.Image)
		for _, img := range images {
			date := time.UnixMilli(img.Timestamp).Format("2006-01-02")
			if _, ok := grouped[date]; !ok {
				dates = append(dates, date)
			}
			grouped[date] = append(grouped[date], img)
		}
		for _, date := range dates {
			items = append(items, models.DateItem(list.ListID, date))
			for _, img := range grouped[date] {
				items = append(items, models.ImageItem(list.ListID, img.ImageID))
			}
		}
	}
	return items, nil
}

func (s *Service) UpdateListName(ctx context.Context, listID, name string) error {
	return s.store.UpdateListName(ctx, listID, name)
}

func (s *Service) UpdateImageDescription(ctx context.Context, imageID, description string) error {
	return s.store.UpdateImageDescription(ctx, imageID, description)
}

// AddList inserts a new list, assigning an id when the caller supplied none.
func (s *Service) AddList(ctx context.Context, list *models.ImageList) error {
	if list.ListID == "" {
		list.ListID = uuid.New().String()
	}
	return s.store.InsertList(ctx, list)
}

// DeleteList removes the list and, when cascade is set, the image rows it
// references.
func (s *Service) DeleteList(ctx context.Context, listID string, cascade bool) error {
	if cascade {
		list, err := s.store.FindList(ctx, listID)
		if err != nil {
			return err
		}
		if err := s.store.DeleteImages(ctx, list.Images); err != nil {
			return err
		}
	}
	return s.store.DeleteLists(ctx, []string{listID})
}

// DeleteImage removes the reference from the owning list and the image row
// itself, keeping both collections consistent.
func (s *Service) DeleteImage(ctx context.Context, listID, imageID string) error {
	if err := s.store.RemoveImageFromList(ctx, listID, imageID); err != nil {
		return err
	}
	return s.store.DeleteImages(ctx, []string{imageID})
}

// AddImageFromStorage ingests the object at key into the target list: scale
// variants, upload them next to the original, extract metadata and append
// the freshly assigned image id to the list. Fails with the store's not
// found error when the list does not exist.
func (s *Service) AddImageFromStorage(ctx context.Context, listID, key string) (models.Image, error) {
	list, err := s.store.FindList(ctx, listID)
	if err != nil {
		return models.Image{}, err
	}
	raw, err := s.bucket.Fetch(ctx, key)
	if err != nil {
		return models.Image{}, err
	}
	image := s.ingest(ctx, key, raw)
	if err := s.store.InsertImage(ctx, &image); err != nil {
		return models.Image{}, err
	}
	list.Images = append(list.Images, image.ImageID)
	if err := s.store.ReplaceList(ctx, list); err != nil {
		return models.Image{}, err
	}
	s.log.Info("image added to list",
		zap.String("listId", listID),
		zap.String("imageId", image.ImageID),
		zap.String("key", key))
	return image, nil
}

// ImportFolder ingests every JPEG under a bucket prefix into a new list.
// Objects that cannot be fetched are skipped.
func (s *Service) ImportFolder(ctx context.Context, prefix, name string) (models.ImageList, error) {
	keys, err := s.bucket.List(ctx, prefix)
	if err != nil {
		return models.ImageList{}, err
	}
	var images []models.Image
	for _, key := range keys {
		if !strings.HasSuffix(strings.ToLower(key), ".jpg") {
			continue
		}
		raw, err := s.bucket.Fetch(ctx, key)
		if err != nil {
			s.log.Error("unable to fetch object for import", zap.String("key", key), zap.Error(err))
			continue
		}
		images = append(images, s.ingest(ctx, key, raw))
	}
	list := models.ImageList{
		ListID: uuid.New().String(),
		Name:   name,
		Images: make([]string, 0, len(images)),
	}
	for _, img := range images {
		list.Images = append(list.Images, img.ImageID)
	}
	if err := s.store.InsertList(ctx, &list); err != nil {
		return models.ImageList{}, err
	}
	if err := s.store.UpsertImages(ctx, images); err != nil {
		return models.ImageList{}, err
	}
	s.log.Info("folder imported", zap.String("listId", list.ListID), zap.Int("images", len(images)))
	return list, nil
}

// SignedUploadURL issues a time-limited PUT URL for a fresh JPEG name under
// the list's prefix.
func (s *Service) SignedUploadURL(ctx context.Context, listID string) (string, error) {
	key := listID + "/" + uuid.New().String() + ".jpg"
	return s.bucket.SignedUploadURL(ctx, key)
}

// ingest builds the persisted image for one original object: public URLs,
// uploaded variants and extracted metadata. Metadata extraction assigns the
// final image id.
func (s *Service) ingest(ctx context.Context, key string, raw []byte) models.Image {
	base := strings.TrimSuffix(key, path.Ext(key))
	def := models.Image{
		ImageID:   uuid.New().String(),
		Location:  s.bucket.PublicURL(key),
		Thumbnail: s.bucket.PublicURL(base + "_thumbnail.jpg"),
		Timestamp: time.Now().UnixMilli(),
	}

	variants := []models.Variant{{Name: models.VariantDefault, Location: def.Location}}
	for _, rendition := range s.resize(raw, s.log) {
		variantKey := base + rendition.KeySuffix
		if err := s.bucket.Upload(ctx, variantKey, rendition.Data, "image/jpeg"); err != nil {
			s.log.Error("unable to upload variant", zap.String("key", variantKey), zap.Error(err))
			continue
		}
		location := s.bucket.PublicURL(variantKey)
		if rendition.Name == models.VariantThumbnail {
			def.Thumbnail = location
		}
		variants = append(variants, models.Variant{Name: rendition.Name, Location: location})
	}
	models.SortVariants(variants)

	image := s.extract(def, raw)
	image.Variants = variants
	image.Thumbnail = def.Thumbnail
	return image
}
