package imaging

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/hikinggallery/gallery-api/models"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// ExtractMetadata reads capture time, user comment and GPS tags from the raw
// image bytes into a copy of def. Extraction is best effort: any failure
// returns def untouched apart from a freshly generated image id. It never
// returns an error.
func ExtractMetadata(def models.Image, raw []byte) models.Image {
	out := def
	out.ImageID = uuid.New().String()

	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return out
	}

	if s, ok := tagValue(x, exif.DateTimeOriginal); ok {
		if t, err := time.ParseInLocation(exifTimeLayout, s, time.Local); err == nil {
			out.Timestamp = t.UnixMilli()
		}
	}
	if s, ok := tagValue(x, exif.UserComment); ok && s != "" {
		out.Description = s
	}
	if gps := extractGps(x); gps != nil {
		out.Gps = gps
	}

	return out
}

// extractGps collects the raw GPS tag values verbatim. Returns nil when no
// GPS tag is present at all.
func extractGps(x *exif.Exif) *models.GpsData {
	gps := models.GpsData{}
	found := false
	read := func(field exif.FieldName, dst *string) {
		if s, ok := tagValue(x, field); ok {
			*dst = s
			found = true
		}
	}
	read(exif.GPSLatitudeRef, &gps.LatitudeRef)
	read(exif.GPSLatitude, &gps.Latitude)
	read(exif.GPSLongitudeRef, &gps.LongitudeRef)
	read(exif.GPSLongitude, &gps.Longitude)
	read(exif.GPSAltitudeRef, &gps.AltitudeRef)
	read(exif.GPSAltitude, &gps.Altitude)
	if !found {
		return nil
	}
	return &gps
}

func tagValue(x *exif.Exif, field exif.FieldName) (string, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return "", false
	}
	if s, err := tag.StringVal(); err == nil {
		return s, true
	}
	return tag.String(), true
}
