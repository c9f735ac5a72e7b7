package cookie_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
)

const fixedNow = int64(1700000000000)

func TestNormalize_FillsMissingFields(t *testing.T) {
	c := cookie.Normalize(map[string]any{}, 3, fixedNow)

	require.NotEmpty(t, c.ID)
	require.True(t, strings.HasPrefix(c.ID, "1700000000000-3-"))
	require.Equal(t, fixedNow, c.Timestamp)
	require.Equal(t, fixedNow, c.CreatedAt)
	require.Equal(t, int64(1), c.Level)
	require.Nil(t, c.ProjectID)
	require.Empty(t, c.Note)
}

func TestNormalize_CoercesLooseTypes(t *testing.T) {
	raw := map[string]any{
		"id":        float64(1699999999999),
		"timestamp": "1699990000000",
		"level":     "3",
		"projectId": float64(42),
		"note":      float64(7),
	}
	c := cookie.Normalize(raw, 0, fixedNow)

	require.Equal(t, "1699999999999", c.ID)
	require.Equal(t, int64(1699990000000), c.Timestamp)
	require.Equal(t, int64(1699990000000), c.CreatedAt)
	require.Equal(t, int64(3), c.Level)
	require.NotNil(t, c.ProjectID)
	require.Equal(t, "42", *c.ProjectID)
	require.Equal(t, "7", c.Note)
}

func TestNormalize_LevelClampsToOne(t *testing.T) {
	for _, level := range []any{0, -2, "garbage", nil, float64(0.5)} {
		c := cookie.Normalize(map[string]any{"level": level}, 0, fixedNow)
		require.Equal(t, int64(1), c.Level, "level %v", level)
	}
}

func TestNormalize_CreatedAtFallsBackToTimestamp(t *testing.T) {
	c := cookie.Normalize(map[string]any{"timestamp": float64(123456789)}, 0, fixedNow)
	require.Equal(t, int64(123456789), c.CreatedAt)
}

func TestNormalize_EmptyProjectIDStaysUnassigned(t *testing.T) {
	c := cookie.Normalize(map[string]any{"projectId": ""}, 0, fixedNow)
	require.Nil(t, c.ProjectID)
}

func TestNormalize_DropsRetiredFields(t *testing.T) {
	raw := map[string]any{
		"id":        "keep",
		"note":      "did the thing",
		"expiresAt": float64(1800000000000),
		"eaten":     true,
	}
	c := cookie.Normalize(raw, 0, fixedNow)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	require.NotContains(t, string(data), "expiresAt")
	require.NotContains(t, string(data), "eaten")
}

func TestNormalizeAll_Idempotent(t *testing.T) {
	records := []json.RawMessage{
		json.RawMessage(`{"note":"first","level":"2"}`),
		json.RawMessage(`{"id":"x","timestamp":5,"createdAt":5,"level":1,"projectId":null,"note":"second"}`),
	}
	first, changed := cookie.NormalizeAll(records, fixedNow)
	require.True(t, changed)

	second, changed := cookie.NormalizeAll(cookie.Encode(first), fixedNow)
	require.False(t, changed)
	require.Equal(t, first, second)
}

func TestNormalizeAll_BadJSONBecomesFreshCookie(t *testing.T) {
	records := []json.RawMessage{json.RawMessage(`not json at all`)}
	cookies, changed := cookie.NormalizeAll(records, fixedNow)

	require.True(t, changed)
	require.Len(t, cookies, 1)
	require.NotEmpty(t, cookies[0].ID)
	require.Equal(t, fixedNow, cookies[0].Timestamp)
}

func TestMintID_Format(t *testing.T) {
	id := cookie.MintID(fixedNow)
	require.True(t, strings.HasPrefix(id, "1700000000000-"))
	require.Len(t, id, len("1700000000000-")+9)
	require.NotEqual(t, id, cookie.MintID(fixedNow))
}
