package models

import (
	"sort"
	"time"
)

// VariantName identifies one resized rendition of an image. Names sort
// alphabetically, which is the order variants are stored in.
type VariantName string

const (
	VariantDefault   VariantName = "DEFAULT"
	VariantThumbnail VariantName = "THUMBNAIL"
	VariantV1024     VariantName = "V1024"
	VariantV2048     VariantName = "V2048"
	VariantV800      VariantName = "V800"
)

type Variant struct {
	Name     VariantName `json:"name"`
	Location string      `json:"location"`
}

// GpsData carries the raw EXIF GPS tag descriptions verbatim. A missing GPS
// block is a nil *GpsData, never a struct of empty strings.
type GpsData struct {
	LatitudeRef  string `json:"latitudeRef"`
	Latitude     string `json:"latitude"`
	LongitudeRef string `json:"longitudeRef"`
	Longitude    string `json:"longitude"`
	AltitudeRef  string `json:"altitudeRef"`
	Altitude     string `json:"altitude"`
}

type Image struct {
	ID          uint      `gorm:"primarykey" json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
	ImageID     string    `gorm:"type:uuid;uniqueIndex" json:"imageId"`
	Location    string    `json:"location"`
	Thumbnail   string    `json:"thumbnail"`
	Description string    `json:"description"`
	Timestamp   int64     `gorm:"index" json:"timestamp"`
	Variants    []Variant `gorm:"serializer:json" json:"variants"`
	Gps         *GpsData  `gorm:"serializer:json" json:"gps,omitempty"`
}

// PreferredLocation returns the 1024px variant URL when present, otherwise
// the primary location. The view surface serves this as the display URL.
func (i Image) PreferredLocation() string {
	for _, v := range i.Variants {
		if v.Name == VariantV1024 {
			return v.Location
		}
	}
	return i.Location
}

// SortVariants orders variants by name, the stored order.
func SortVariants(variants []Variant) {
	sort.Slice(variants, func(a, b int) bool {
		return variants[a].Name < variants[b].Name
	})
}

// ImageList is a named folder of image references. Images holds insertion
// order; display order is derived from each referenced image's timestamp.
type ImageList struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	ListID    string    `gorm:"uniqueIndex" json:"listId"`
	Name      string    `json:"name"`
	Images    []string  `gorm:"serializer:json" json:"images"`
}

// TimelineItem is one row of the flattened timeline. Exactly one of Title,
// Date and ImageID is set: a list-title marker, a date-group marker or an
// image marker. It is derived on demand and never persisted.
type TimelineItem struct {
	ImageID *string `json:"imageId"`
	Title   *string `json:"title"`
	Date    *string `json:"date"`
	ListID  string  `json:"listId"`
}

func TitleItem(listID, title string) TimelineItem {
	return TimelineItem{Title: &title, ListID: listID}
}

func DateItem(listID, date string) TimelineItem {
	return TimelineItem{Date: &date, ListID: listID}
}

func ImageItem(listID, imageID string) TimelineItem {
	return TimelineItem{ImageID: &imageID, ListID: listID}
}

type EditPageData struct {
	ImagesLists []ImageList `json:"imagesLists"`
}
