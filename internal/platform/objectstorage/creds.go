package objectstorage

import (
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/lms-backend/internal/platform/envutil"
)

// gcsAuthOptions picks credentials for real GCS. Inline JSON wins over a
// key file path; with neither, the client falls back to ADC.
func gcsAuthOptions() []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if raw := envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", ""); strings.HasPrefix(raw, "{") {
		return append(opts, option.WithCredentialsJSON([]byte(raw)))
	}
	if path := envutil.String("GOOGLE_APPLICATION_CREDENTIALS", ""); path != "" {
		return append(opts, option.WithCredentialsFile(path))
	}
	return opts
}
