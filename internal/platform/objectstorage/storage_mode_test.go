package objectstorage

import (
	"errors"
	"testing"
)

func TestResolveObjectStorageConfigDefaultsToLocal(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("LOCAL_STORAGE_DIR", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeLocal {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeLocal, cfg.Mode)
	}
	if cfg.LocalDir != "./uploads" {
		t.Fatalf("local dir: got=%q", cfg.LocalDir)
	}
}

func TestResolveObjectStorageConfigEmulatorFallback(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCSEmulator || !cfg.CompatibilityFallback {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.ModeSource() != "compatibility_fallback" {
		t.Fatalf("mode source: got=%q", cfg.ModeSource())
	}
}

func TestResolveObjectStorageConfigInvalid(t *testing.T) {
	cases := []struct {
		name string
		mode string
		host string
		code ObjectStorageConfigErrorCode
	}{
		{"bad mode", "s3", "", ObjectStorageConfigErrorInvalidMode},
		{"emulator without host", "gcs_emulator", "", ObjectStorageConfigErrorMissingEmulatorHost},
		{"emulator bad host", "gcs_emulator", "fake-gcs:4443", ObjectStorageConfigErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.host)
			_, err := ResolveObjectStorageConfigFromEnv()
			var cfgErr *ObjectStorageConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ObjectStorageConfigError, got=%v", err)
			}
			if cfgErr.Code != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, cfgErr.Code)
			}
		})
	}
}

func TestResolveObjectStoragePublicBaseURL(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")
	base, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443/",
	})
	if err != nil {
		t.Fatalf("resolveObjectStoragePublicBaseURL: %v", err)
	}
	if base != "http://fake-gcs:4443" || source != "storage_emulator_host" {
		t.Fatalf("unexpected base=%q source=%q", base, source)
	}

	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "not a url")
	if _, _, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{Mode: ObjectStorageModeGCS}); err == nil {
		t.Fatalf("expected error for relative public base url")
	}
}

func TestGCSPublicURL(t *testing.T) {
	bs := &gcsBucketService{
		storageMode:  ObjectStorageModeGCS,
		videoBucket:  bucketConfig{name: "videos"},
		avatarBucket: bucketConfig{name: "avatars", cdnDomain: "cdn.example.com"},
	}
	if got := bs.GetPublicURL(BucketCategoryVideo, "/c/l.mp4"); got != "https://storage.googleapis.com/videos/c/l.mp4" {
		t.Fatalf("video url: got=%q", got)
	}
	if got := bs.GetPublicURL(BucketCategoryAvatar, "u/a.png"); got != "https://cdn.example.com/u/a.png" {
		t.Fatalf("avatar url: got=%q", got)
	}

	emu := &gcsBucketService{
		storageMode:     ObjectStorageModeGCSEmulator,
		emulatorHost:    "http://fake-gcs:4443",
		thumbnailBucket: bucketConfig{name: "thumbs"},
	}
	want := "http://fake-gcs:4443/storage/v1/b/thumbs/o/c%2Ft.png?alt=media"
	if got := emu.GetPublicURL(BucketCategoryThumbnail, "c/t.png"); got != want {
		t.Fatalf("emulator url: want=%q got=%q", want, got)
	}
}
