package logger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

// redactPolicy decides what happens to a logged value based on its key.
// Secrets are dropped, user identifiers are replaced by a stable keyed hash
// so one user's requests can still be correlated.
type redactPolicy struct {
	enabled  bool
	salt     []byte
	secrets  []string
	pseudoID []string
}

var (
	policyOnce sync.Once
	policy     redactPolicy
)

func activePolicy() *redactPolicy {
	policyOnce.Do(func() {
		policy = redactPolicy{
			enabled:  !isFalsy(os.Getenv("LOG_REDACTION_ENABLED")),
			salt:     []byte(strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))),
			secrets:  []string{"token", "authorization", "password", "secret", "cookie", "api_key", "apikey", "email"},
			pseudoID: []string{"user_id", "student_id", "instructor_id"},
		}
	})
	return &policy
}

func isFalsy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "off":
		return true
	}
	return false
}

// sanitizeKVs rewrites a zap key/value list in place order. A trailing key
// without a value is kept as is.
func sanitizeKVs(kv []interface{}) []interface{} {
	p := activePolicy()
	if len(kv) == 0 || !p.enabled {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		out[i+1] = p.apply(fmt.Sprint(out[i]), out[i+1])
	}
	return out
}

func (p *redactPolicy) apply(key string, val interface{}) interface{} {
	key = strings.ToLower(strings.TrimSpace(key))
	switch {
	case key == "":
		return val
	case containsAny(key, p.secrets):
		return redacted
	case containsAny(key, p.pseudoID):
		return p.pseudonym(val)
	}
	switch v := val.(type) {
	case map[string]interface{}:
		nested := make(map[string]interface{}, len(v))
		for k, inner := range v {
			nested[k] = p.apply(k, inner)
		}
		return nested
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
	}
	return val
}

func (p *redactPolicy) pseudonym(val interface{}) string {
	raw := strings.TrimSpace(fmt.Sprint(val))
	if val == nil || raw == "" {
		return ""
	}
	mac := hmac.New(sha256.New, p.salt)
	mac.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(mac.Sum(nil))[:12]
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// looksLikeJWT catches bearer tokens logged under innocuous keys.
func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}
