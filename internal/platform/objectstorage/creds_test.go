package objectstorage

import "testing"

func TestGCSAuthOptions(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if got := len(gcsAuthOptions()); got != 1 {
		t.Fatalf("ADC: want=1 option got=%d", got)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/gcs/key.json")
	if got := len(gcsAuthOptions()); got != 2 {
		t.Fatalf("key file: want=2 options got=%d", got)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", `{"type":"service_account"}`)
	if got := len(gcsAuthOptions()); got != 2 {
		t.Fatalf("inline json: want=2 options got=%d", got)
	}
}
