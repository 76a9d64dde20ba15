package store

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hikinggallery/gallery-api/models"
)

// ErrNotFound is returned when a referenced list or image does not exist.
var ErrNotFound = errors.New("not found")

// Store is the gorm-backed persistence layer for image lists and images.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) FindLists(ctx context.Context) ([]models.ImageList, error) {
	var lists []models.ImageList
	if err := s.db.WithContext(ctx).Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

func (s *Store) FindList(ctx context.Context, listID string) (models.ImageList, error) {
	var list models.ImageList
	err := s.db.WithContext(ctx).Where("list_id = ?", listID).First(&list).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ImageList{}, ErrNotFound
	}
	return list, err
}

func (s *Store) InsertList(ctx context.Context, list *models.ImageList) error {
	s.log.Info("inserting image list", zap.String("listId", list.ListID), zap.String("name", list.Name))
	return s.db.WithContext(ctx).Create(list).Error
}

// ReplaceList overwrites the name and image sequence of an existing list.
func (s *Store) ReplaceList(ctx context.Context, list models.ImageList) error {
	var existing models.ImageList
	err := s.db.WithContext(ctx).Where("list_id = ?", list.ListID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	existing.Name = list.Name
	existing.Images = list.Images
	return s.db.WithContext(ctx).Save(&existing).Error
}

func (s *Store) DeleteLists(ctx context.Context, listIDs []string) error {
	if len(listIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("list_id IN ?", listIDs).Delete(&models.ImageList{}).Error
}

func (s *Store) UpdateListName(ctx context.Context, listID, name string) error {
	res := s.db.WithContext(ctx).Model(&models.ImageList{}).Where("list_id = ?", listID).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveImageFromList drops every occurrence of imageID from the list's
// image sequence. A missing list is reported as ErrNotFound.
func (s *Store) RemoveImageFromList(ctx context.Context, listID, imageID string) error {
	list, err := s.FindList(ctx, listID)
	if err != nil {
		return err
	}
	kept := list.Images[:0]
	for _, id := range list.Images {
		if id != imageID {
			kept = append(kept, id)
		}
	}
	list.Images = kept
	return s.ReplaceList(ctx, list)
}

// FindImages resolves an id set to image rows sorted ascending by timestamp,
// then windows with skip/limit. A limit of zero or less means no limit; ids
// that resolve to nothing are absent from the result rather than an error.
func (s *Store) FindImages(ctx context.Context, imageIDs []string, skip, limit int) ([]models.Image, error) {
	if len(imageIDs) == 0 {
		return nil, nil
	}
	q := s.db.WithContext(ctx).
		Where("image_id IN ?", imageIDs).
		Order("timestamp ASC").
		Offset(skip)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var images []models.Image
	if err := q.Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (s *Store) InsertImage(ctx context.Context, image *models.Image) error {
	return s.db.WithContext(ctx).Create(image).Error
}

// UpsertImages bulk-inserts images, replacing rows that already carry the
// same image id. Used by folder import.
func (s *Store) UpsertImages(ctx context.Context, images []models.Image) error {
	if len(images) == 0 {
		return nil
	}
	s.log.Info("upserting images", zap.Int("count", len(images)))
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "image_id"}},
		UpdateAll: true,
	}).Create(&images).Error
}

func (s *Store) DeleteImages(ctx context.Context, imageIDs []string) error {
	if len(imageIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("image_id IN ?", imageIDs).Delete(&models.Image{}).Error
}

func (s *Store) UpdateImageDescription(ctx context.Context, imageID, description string) error {
	res := s.db.WithContext(ctx).Model(&models.Image{}).Where("image_id = ?", imageID).Update("description", description)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
