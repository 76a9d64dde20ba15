package gallery

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hikinggallery/gallery-api/internal/imaging"
	"github.com/hikinggallery/gallery-api/internal/store"
	"github.com/hikinggallery/gallery-api/models"
)

// fakeStore keeps lists and images in memory and mirrors the SQL store's
// sort/skip/limit behavior.
type fakeStore struct {
	lists  []models.ImageList
	images map[string]models.Image
}

func newFakeStore() *fakeStore {
	return &fakeStore{images: map[string]models.Image{}}
}

func (f *fakeStore) FindLists(ctx context.Context) ([]models.ImageList, error) {
	out := make([]models.ImageList, len(f.lists))
	copy(out, f.lists)
	return out, nil
}

func (f *fakeStore) FindList(ctx context.Context, listID string) (models.ImageList, error) {
	for _, l := range f.lists {
		if l.ListID == listID {
			return l, nil
		}
	}
	return models.ImageList{}, store.ErrNotFound
}

func (f *fakeStore) InsertList(ctx context.Context, list *models.ImageList) error {
	f.lists = append(f.lists, *list)
	return nil
}

func (f *fakeStore) ReplaceList(ctx context.Context, list models.ImageList) error {
	for i, l := range f.lists {
		if l.ListID == list.ListID {
			f.lists[i].Name = list.Name
			f.lists[i].Images = list.Images
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteLists(ctx context.Context, listIDs []string) error {
	drop := map[string]bool{}
	for _, id := range listIDs {
		drop[id] = true
	}
	kept := f.lists[:0]
	for _, l := range f.lists {
		if !drop[l.ListID] {
			kept = append(kept, l)
		}
	}
	f.lists = kept
	return nil
}

func (f *fakeStore) UpdateListName(ctx context.Context, listID, name string) error {
	for i, l := range f.lists {
		if l.ListID == listID {
			f.lists[i].Name = name
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) RemoveImageFromList(ctx context.Context, listID, imageID string) error {
	list, err := f.FindList(ctx, listID)
	if err != nil {
		return err
	}
	kept := []string{}
	for _, id := range list.Images {
		if id != imageID {
			kept = append(kept, id)
		}
	}
	list.Images = kept
	return f.ReplaceList(ctx, list)
}

func (f *fakeStore) FindImages(ctx context.Context, imageIDs []string, skip, limit int) ([]models.Image, error) {
	seen := map[string]bool{}
	var resolved []models.Image
	for _, id := range imageIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if img, ok := f.images[id]; ok {
			resolved = append(resolved, img)
		}
	}
	sort.SliceStable(resolved, func(a, b int) bool {
		return resolved[a].Timestamp < resolved[b].Timestamp
	})
	return window(resolved, skip, limit), nil
}

func (f *fakeStore) InsertImage(ctx context.Context, image *models.Image) error {
	f.images[image.ImageID] = *image
	return nil
}

func (f *fakeStore) UpsertImages(ctx context.Context, images []models.Image) error {
	for _, img := range images {
		f.images[img.ImageID] = img
	}
	return nil
}

func (f *fakeStore) DeleteImages(ctx context.Context, imageIDs []string) error {
	for _, id := range imageIDs {
		delete(f.images, id)
	}
	return nil
}

func (f *fakeStore) UpdateImageDescription(ctx context.Context, imageID, description string) error {
	img, ok := f.images[imageID]
	if !ok {
		return store.ErrNotFound
	}
	img.Description = description
	f.images[imageID] = img
	return nil
}

// fakeBucket records uploads and serves canned objects.
type fakeBucket struct {
	objects map[string][]byte
	uploads map[string][]byte
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, uploads: map[string][]byte{}}
}

func (f *fakeBucket) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object at %s", key)
	}
	return data, nil
}

func (f *fakeBucket) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	f.uploads[key] = data
	return nil
}

func (f *fakeBucket) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeBucket) SignedUploadURL(ctx context.Context, key string) (string, error) {
	return "https://signed.example.com/" + key, nil
}

func (f *fakeBucket) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func newTestService(fs *fakeStore, fb *fakeBucket) *Service {
	svc := NewService(fs, fb, zap.NewNop())
	svc.resize = func(raw []byte, log *zap.Logger) []imaging.Rendition {
		return []imaging.Rendition{
			{Name: models.VariantV1024, KeySuffix: "_1024.jpg", Data: raw},
			{Name: models.VariantThumbnail, KeySuffix: "_thumbnail.jpg", Data: raw},
		}
	}
	svc.extract = func(def models.Image, raw []byte) models.Image {
		out := def
		out.ImageID = uuid.New().String()
		return out
	}
	return svc
}

func addImage(fs *fakeStore, id string, ts int64) {
	fs.images[id] = models.Image{ImageID: id, Timestamp: ts, Location: "loc-" + id}
}

func TestFindImagesWindowing(t *testing.T) {
	fs := newFakeStore()
	addImage(fs, "a", 300)
	addImage(fs, "b", 100)
	addImage(fs, "c", 200)
	svc := newTestService(fs, newFakeBucket())
	ctx := context.Background()
	ids := []string{"a", "b", "c", "ghost"}

	cases := []struct {
		skip, limit int
		want        []string
	}{
		{0, 0, []string{"b", "c", "a"}},
		{0, 1, []string{"b"}},
		{1, 1, []string{"c"}},
		{1, 0, []string{"c", "a"}},
		{2, 5, []string{"a"}},
		{3, 1, nil},
		{7, 0, nil},
	}
	for _, tc := range cases {
		got, err := svc.FindImages(ctx, ids, tc.skip, tc.limit)
		if err != nil {
			t.Fatalf("FindImages(skip=%d, limit=%d): %v", tc.skip, tc.limit, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("FindImages(skip=%d, limit=%d): got %d images, want %d", tc.skip, tc.limit, len(got), len(tc.want))
		}
		for i, img := range got {
			if img.ImageID != tc.want[i] {
				t.Fatalf("FindImages(skip=%d, limit=%d)[%d] = %s, want %s", tc.skip, tc.limit, i, img.ImageID, tc.want[i])
			}
		}
	}

	// Repeated calls over an unchanged store return the same window.
	first, _ := svc.FindImages(ctx, ids, 1, 1)
	second, _ := svc.FindImages(ctx, ids, 1, 1)
	if first[0].ImageID != second[0].ImageID {
		t.Fatalf("FindImages is not idempotent: %s vs %s", first[0].ImageID, second[0].ImageID)
	}
}

func TestListNonEmptyFoldersByRecency(t *testing.T) {
	fs := newFakeStore()
	addImage(fs, "old", 100)
	addImage(fs, "mid", 200)
	addImage(fs, "new", 300)
	fs.lists = []models.ImageList{
		{ListID: "l-old", Name: "old", Images: []string{"old"}},
		{ListID: "l-empty", Name: "empty", Images: nil},
		{ListID: "l-new", Name: "new", Images: []string{"new", "old"}},
		{ListID: "l-mid", Name: "mid", Images: []string{"mid"}},
		{ListID: "l-dangling", Name: "dangling", Images: []string{"ghost"}},
	}
	svc := newTestService(fs, newFakeBucket())

	lists, err := svc.ListNonEmptyFoldersByRecency(context.Background())
	if err != nil {
		t.Fatalf("ListNonEmptyFoldersByRecency: %v", err)
	}
	want := []string{"l-new", "l-mid", "l-old"}
	if len(lists) != len(want) {
		t.Fatalf("got %d lists, want %d (dangling and empty must be dropped)", len(lists), len(want))
	}
	for i, l := range lists {
		if l.ListID != want[i] {
			t.Fatalf("lists[%d] = %s, want %s", i, l.ListID, want[i])
		}
	}
}

func TestListAllFoldersEmptyFirst(t *testing.T) {
	fs := newFakeStore()
	addImage(fs, "img1", 100)
	addImage(fs, "img2", 50)
	fs.lists = []models.ImageList{
		{ListID: "A", Name: "a", Images: []string{"img1", "img2"}},
		{ListID: "B", Name: "b", Images: nil},
	}
	svc := newTestService(fs, newFakeBucket())

	lists, err := svc.ListAllFolders(context.Background())
	if err != nil {
		t.Fatalf("ListAllFolders: %v", err)
	}
	if len(lists) != 2 || lists[0].ListID != "B" || lists[1].ListID != "A" {
		t.Fatalf("got %v, want [B A]", listIDs(lists))
	}

	images, err := svc.FindImages(context.Background(), []string{"img1", "img2"}, 0, 1)
	if err != nil {
		t.Fatalf("FindImages: %v", err)
	}
	if len(images) != 1 || images[0].ImageID != "img2" {
		t.Fatalf("ascending window should pick img2, got %v", images)
	}
}

func TestBuildTimelineSingleFolder(t *testing.T) {
	fs := newFakeStore()
	addImage(fs, "x", 1000)
	addImage(fs, "y", 2000)
	fs.lists = []models.ImageList{{ListID: "only", Name: "Only", Images: []string{"x", "y"}}}
	svc := newTestService(fs, newFakeBucket())
	ctx := context.Background()

	both, err := svc.BuildTimeline(ctx, true, true)
	if err != nil {
		t.Fatalf("BuildTimeline(head+tail): %v", err)
	}
	headOnly, err := svc.BuildTimeline(ctx, true, false)
	if err != nil {
		t.Fatalf("BuildTimeline(head): %v", err)
	}
	if len(both) != len(headOnly) {
		t.Fatalf("single folder: head+tail has %d items, head-only %d", len(both), len(headOnly))
	}
	for i := range both {
		if both[i] != headOnly[i] {
			t.Fatalf("single folder timelines diverge at %d: %+v vs %+v", i, both[i], headOnly[i])
		}
	}

	none, err := svc.BuildTimeline(ctx, false, false)
	if err != nil {
		t.Fatalf("BuildTimeline(none): %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("head=false tail=false should be empty, got %d items", len(none))
	}
}

func TestBuildTimelineSegmentShape(t *testing.T) {
	day := int64(24 * 60 * 60 * 1000)
	hour := int64(60 * 60 * 1000)
	fs := newFakeStore()
	// Two calendar days, mid-day timestamps so the grouping is stable in any
	// timezone; insertion order deliberately scrambled.
	addImage(fs, "d2-late", 2*day+13*hour)
	addImage(fs, "d1-early", 1*day+10*hour)
	addImage(fs, "d2-early", 2*day+10*hour)
	addImage(fs, "d1-late", 1*day+13*hour)
	fs.lists = []models.ImageList{{
		ListID: "trip",
		Name:   "Trip",
		Images: []string{"d2-late", "d1-early", "d2-early", "d1-late"},
	}}
	svc := newTestService(fs, newFakeBucket())

	items, err := svc.BuildTimeline(context.Background(), true, true)
	if err != nil {
		t.Fatalf("BuildTimeline: %v", err)
	}
	if len(items) != 7 {
		t.Fatalf("got %d items, want 7 (title + 2 dates + 4 images)", len(items))
	}
	if items[0].Title == nil || *items[0].Title != "Trip" {
		t.Fatalf("segment must start with the title marker, got %+v", items[0])
	}
	var lastDate string
	var lastTimestamp int64
	for _, item := range items[1:] {
		switch {
		case item.Date != nil:
			if lastDate != "" && *item.Date <= lastDate {
				t.Fatalf("date markers out of order: %s after %s", *item.Date, lastDate)
			}
			lastDate = *item.Date
			lastTimestamp = 0
		case item.ImageID != nil:
			ts := fs.images[*item.ImageID].Timestamp
			if ts < lastTimestamp {
				t.Fatalf("image %s out of ascending timestamp order", *item.ImageID)
			}
			lastTimestamp = ts
		default:
			t.Fatalf("unexpected second title marker: %+v", item)
		}
		if item.ListID != "trip" {
			t.Fatalf("marker missing owning list id: %+v", item)
		}
	}
}

func TestAddImageFromStorageRoundTrip(t *testing.T) {
	fs := newFakeStore()
	fs.lists = []models.ImageList{{ListID: "trip", Name: "Trip", Images: []string{}}}
	fb := newFakeBucket()
	fb.objects["trip/pic.jpg"] = []byte("jpeg-bytes")
	svc := newTestService(fs, fb)
	ctx := context.Background()

	img, err := svc.AddImageFromStorage(ctx, "trip", "trip/pic.jpg")
	if err != nil {
		t.Fatalf("AddImageFromStorage: %v", err)
	}
	if img.ImageID == "" {
		t.Fatal("image id must be server generated")
	}

	found, err := svc.FindImages(ctx, []string{img.ImageID}, 0, 0)
	if err != nil {
		t.Fatalf("FindImages: %v", err)
	}
	if len(found) != 1 || found[0].ImageID != img.ImageID {
		t.Fatalf("round trip lost the image: %v", found)
	}

	list, err := fs.FindList(ctx, "trip")
	if err != nil {
		t.Fatalf("FindList: %v", err)
	}
	count := 0
	for _, id := range list.Images {
		if id == img.ImageID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("list should reference the new image exactly once, got %d", count)
	}

	// Variants carry DEFAULT plus the uploaded renditions, name sorted.
	names := []models.VariantName{}
	for _, v := range img.Variants {
		names = append(names, v.Name)
	}
	want := []models.VariantName{models.VariantDefault, models.VariantThumbnail, models.VariantV1024}
	if len(names) != len(want) {
		t.Fatalf("variants = %v, want %v", names, want)
	}
	for i := range names {
		if names[i] != want[i] {
			t.Fatalf("variants = %v, want %v", names, want)
		}
	}
	if _, ok := fb.uploads["trip/pic_1024.jpg"]; !ok {
		t.Fatal("1024 rendition was not uploaded")
	}
}

func TestAddImageFromStorageMissingList(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeBucket())
	_, err := svc.AddImageFromStorage(context.Background(), "nope", "nope/pic.jpg")
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteImage(t *testing.T) {
	fs := newFakeStore()
	addImage(fs, "keep", 1)
	addImage(fs, "gone", 2)
	fs.lists = []models.ImageList{{ListID: "trip", Name: "Trip", Images: []string{"keep", "gone"}}}
	svc := newTestService(fs, newFakeBucket())
	ctx := context.Background()

	if err := svc.DeleteImage(ctx, "trip", "gone"); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	list, _ := fs.FindList(ctx, "trip")
	if len(list.Images) != 1 || list.Images[0] != "keep" {
		t.Fatalf("list images = %v, want [keep]", list.Images)
	}
	if _, ok := fs.images["gone"]; ok {
		t.Fatal("image row should be deleted")
	}
}

func TestDeleteListCascade(t *testing.T) {
	ctx := context.Background()

	fs := newFakeStore()
	addImage(fs, "a", 1)
	fs.lists = []models.ImageList{{ListID: "trip", Name: "Trip", Images: []string{"a"}}}
	svc := newTestService(fs, newFakeBucket())
	if err := svc.DeleteList(ctx, "trip", false); err != nil {
		t.Fatalf("DeleteList: %v", err)
	}
	if _, ok := fs.images["a"]; !ok {
		t.Fatal("non-cascade delete must keep image rows")
	}

	fs = newFakeStore()
	addImage(fs, "a", 1)
	fs.lists = []models.ImageList{{ListID: "trip", Name: "Trip", Images: []string{"a"}}}
	svc = newTestService(fs, newFakeBucket())
	if err := svc.DeleteList(ctx, "trip", true); err != nil {
		t.Fatalf("DeleteList cascade: %v", err)
	}
	if _, ok := fs.images["a"]; ok {
		t.Fatal("cascade delete must remove image rows")
	}
}

func TestImportFolder(t *testing.T) {
	fs := newFakeStore()
	fb := newFakeBucket()
	fb.objects["hike/one.jpg"] = []byte("one")
	fb.objects["hike/two.JPG"] = []byte("two")
	fb.objects["hike/notes.txt"] = []byte("skip me")
	svc := newTestService(fs, fb)

	list, err := svc.ImportFolder(context.Background(), "hike/", "Hike 2009")
	if err != nil {
		t.Fatalf("ImportFolder: %v", err)
	}
	if list.Name != "Hike 2009" || list.ListID == "" {
		t.Fatalf("unexpected list %+v", list)
	}
	if len(list.Images) != 2 {
		t.Fatalf("expected 2 imported images, got %d", len(list.Images))
	}
	for _, id := range list.Images {
		if _, ok := fs.images[id]; !ok {
			t.Fatalf("imported image %s missing from store", id)
		}
	}
}

func listIDs(lists []models.ImageList) []string {
	out := make([]string, len(lists))
	for i, l := range lists {
		out[i] = l.ListID
	}
	return out
}
