package imaging

import (
	"testing"

	"github.com/hikinggallery/gallery-api/models"
)

func TestExtractMetadataFallsBackOnGarbage(t *testing.T) {
	def := models.Image{
		ImageID:     "caller-supplied",
		Location:    "https://cdn.example.com/pic.jpg",
		Thumbnail:   "https://cdn.example.com/pic_thumbnail.jpg",
		Description: "default description",
		Timestamp:   123456789,
	}

	got := ExtractMetadata(def, []byte("definitely not a jpeg"))

	if got.ImageID == "" || got.ImageID == def.ImageID {
		t.Fatalf("extraction must assign a fresh image id, got %q", got.ImageID)
	}
	if got.Timestamp != def.Timestamp {
		t.Fatalf("timestamp changed on failed extraction: %d", got.Timestamp)
	}
	if got.Description != def.Description {
		t.Fatalf("description changed on failed extraction: %q", got.Description)
	}
	if got.Location != def.Location || got.Thumbnail != def.Thumbnail {
		t.Fatal("locations must pass through untouched")
	}
	if got.Gps != nil {
		t.Fatalf("no GPS block expected, got %+v", got.Gps)
	}
}

func TestExtractMetadataIDsAreUnique(t *testing.T) {
	def := models.Image{Timestamp: 1}
	first := ExtractMetadata(def, nil)
	second := ExtractMetadata(def, nil)
	if first.ImageID == second.ImageID {
		t.Fatalf("each extraction must generate its own id, got %q twice", first.ImageID)
	}
}
