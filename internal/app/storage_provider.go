package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/platform/objectstorage"
)

var newBucketServiceWithConfig = func(log *logger.Logger, storageCfg objectstorage.ObjectStorageConfig, cfg Config) (objectstorage.BucketService, error) {
	if storageCfg.Mode == objectstorage.ObjectStorageModeLocal {
		return objectstorage.NewLocalBucketService(log, storageCfg.LocalDir, cfg.PublicBaseURL)
	}
	return objectstorage.NewGCSBucketService(log, storageCfg, objectstorage.GCSBuckets{
		Video:        cfg.VideoBucket,
		Thumbnail:    cfg.ThumbnailBucket,
		Avatar:       cfg.AvatarBucket,
		VideoCDN:     cfg.VideoCDNDomain,
		ThumbnailCDN: cfg.ThumbnailCDNDomain,
		AvatarCDN:    cfg.AvatarCDNDomain,
	})
}

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorMissingLocalDir     StorageProviderBootstrapErrorCode = "missing_local_dir"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func storageConfig(cfg Config) objectstorage.ObjectStorageConfig {
	return objectstorage.ObjectStorageConfig{
		Mode:                  objectstorage.ObjectStorageMode(strings.ToLower(strings.TrimSpace(cfg.ObjectStorageMode))),
		EmulatorHost:          strings.TrimSpace(cfg.StorageEmulatorHost),
		LocalDir:              strings.TrimSpace(cfg.LocalStorageDir),
		CompatibilityFallback: cfg.StorageModeCompatFallback,
	}
}

func resolveBucketService(log *logger.Logger, cfg Config) (objectstorage.BucketService, error) {
	storageCfg := storageConfig(cfg)
	modeSource := storageCfg.ModeSource()

	if err := objectstorage.ValidateObjectStorageConfig(storageCfg); err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider selection failed",
			"mode", storageCfg.Mode,
			"mode_source", modeSource,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", modeSource,
		"compatibility_fallback", storageCfg.CompatibilityFallback,
		"emulator_host", storageCfg.EmulatorHost,
		"local_dir", storageCfg.LocalDir,
	)

	bucket, err := newBucketServiceWithConfig(log, storageCfg, cfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"mode_source", modeSource,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return bucket, nil
}

func classifyStorageProviderBootstrapError(storageCfg objectstorage.ObjectStorageConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *objectstorage.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case objectstorage.ObjectStorageConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case objectstorage.ObjectStorageConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case objectstorage.ObjectStorageConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		case objectstorage.ObjectStorageConfigErrorMissingLocalDir:
			code = StorageProviderBootstrapErrorMissingLocalDir
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
