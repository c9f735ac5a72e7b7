package cookie

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Normalize coerces a raw stored record into a canonical cookie. It is
// total: malformed input is repaired, never rejected. idx is the
// record's position in the collection and feeds synthesized ids; now is
// the current time in epoch milliseconds and fills missing timestamps.
//
// Rules, in order: synthesize or stringify the id; timestamp falls back
// to now; createdAt falls back to the resolved timestamp; level clamps
// to >= 1; projectId becomes a string or null; note becomes a string.
// Retired fields (the old expiry data) are dropped.
func Normalize(raw map[string]any, idx int, now int64) Cookie {
	var c Cookie

	if truthy(raw["id"]) {
		c.ID = coerceString(raw["id"])
	} else {
		c.ID = fmt.Sprintf("%d-%d-%s", now, idx, randomSuffix(6))
	}

	c.Timestamp = now
	if truthy(raw["timestamp"]) {
		if n, ok := coerceNumber(raw["timestamp"]); ok {
			c.Timestamp = int64(n)
		}
	}

	c.CreatedAt = c.Timestamp
	if truthy(raw["createdAt"]) {
		if n, ok := coerceNumber(raw["createdAt"]); ok {
			c.CreatedAt = int64(n)
		}
	}

	c.Level = 1
	if n, ok := coerceNumber(raw["level"]); ok && n >= 1 {
		c.Level = int64(n)
	}

	if truthy(raw["projectId"]) {
		id := coerceString(raw["projectId"])
		c.ProjectID = &id
	}

	if truthy(raw["note"]) {
		c.Note = coerceString(raw["note"])
	}

	if truthy(raw["updatedAt"]) {
		if n, ok := coerceNumber(raw["updatedAt"]); ok {
			c.UpdatedAt = int64(n)
		}
	}

	return c
}

// NormalizeAll normalizes a whole stored collection and reports whether
// any record's canonical serialization differs from its raw input.
func NormalizeAll(records []json.RawMessage, now int64) ([]Cookie, bool) {
	cookies := make([]Cookie, len(records))
	changed := false
	for i, rec := range records {
		m := decodeRecord(rec)
		cookies[i] = Normalize(m, i, now)
		if !changed && canonicalJSON(m) != canonicalJSON(cookies[i]) {
			changed = true
		}
	}
	return cookies, changed
}

// MintID produces a fresh identity for a newly created cookie: the
// creation time plus a random suffix long enough to survive concurrent
// creates within the same millisecond.
func MintID(now int64) string {
	return fmt.Sprintf("%d-%s", now, randomSuffix(9))
}

func randomSuffix(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// truthy mirrors the loose boolean coercion the legacy records were
// written under: nil, false, 0, NaN and "" are falsy.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case int64:
		return x != 0
	case json.Number:
		n, err := x.Float64()
		return err == nil && n != 0
	default:
		return true
	}
}

// coerceString renders a value the way the stored data historically did:
// integral numbers without a decimal point.
func coerceString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// coerceNumber parses a value as a finite number. The second result is
// false for anything that does not parse.
func coerceNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		n, err := x.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return n, err == nil && !math.IsNaN(n) && !math.IsInf(n, 0)
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// canonicalJSON renders a value as key-sorted JSON so raw and normalized
// records compare structurally.
func canonicalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return ""
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return ""
	}
	return string(out)
}
