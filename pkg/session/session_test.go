package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStoreFromClient(client, "mesctl:session:test", 0)
}

func setupFileStore(t *testing.T) *FileStore {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"), "test")
	require.NoError(t, err)
	return store
}

// storeContract runs the behaviour every Store must share
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	empty, err := store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.Empty(t, empty.Token)

	s := &model.Session{ID: "s-1", Token: "tok", Site: "main", Building: "A", SelectedSlot: "A3"}
	require.NoError(t, store.Set(ctx, s))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	require.NoError(t, store.Clear(ctx))
	cleared, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.Session{}, cleared)

	// Clearing twice is not an error
	assert.NoError(t, store.Clear(ctx))
}

func TestFileStore_Contract(t *testing.T) {
	storeContract(t, setupFileStore(t))
}

func TestRedisStore_Contract(t *testing.T) {
	_, store := setupTestRedis(t)
	storeContract(t, store)
}

func TestFileStore_Permissions(t *testing.T) {
	store := setupFileStore(t)
	require.NoError(t, store.Set(context.Background(), &model.Session{Token: "secret"}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(sessionFilePerms), info.Mode().Perm())
}

func TestFileStore_CorruptFile(t *testing.T) {
	store := setupFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0700))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0600))

	_, err := store.Get(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse session file")
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath("prod")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "session-prod.json", filepath.Base(path))

	path, err = DefaultPath("")
	require.NoError(t, err)
	assert.Equal(t, "session-default.json", filepath.Base(path))
}

func TestRedisStore_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStoreFromClient(client, "", time.Hour)

	require.NoError(t, store.Set(context.Background(), &model.Session{Token: "tok"}))

	assert.True(t, mr.Exists("mesctl:session"))
	assert.Equal(t, time.Hour, mr.TTL("mesctl:session"))

	mr.FastForward(2 * time.Hour)
	s, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Token)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, store := setupTestRedis(t)
	require.NoError(t, mr.Set("mesctl:session:test", "garbage"))

	_, err := store.Get(context.Background())
	assert.Error(t, err)
}

func TestUpdate_AssignsIDAndTimestamp(t *testing.T) {
	store := setupFileStore(t)

	s, err := Update(context.Background(), store, func(s *model.Session) {
		s.SelectedSlot = "B2"
	})
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.NotEmpty(t, s.UpdatedAt)
	assert.Equal(t, "B2", s.SelectedSlot)

	again, err := Update(context.Background(), store, func(s *model.Session) {})
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)
}

func TestIntentHandOff(t *testing.T) {
	_, store := setupTestRedis(t)
	ctx := context.Background()

	_, err := Update(ctx, store, func(s *model.Session) {
		s.Intent = FormatIntent(IntentMove, "A3")
	})
	require.NoError(t, err)

	_, ok, err := TakeIntent(ctx, store, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	arg, ok, err := TakeIntent(ctx, store, IntentMove)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "A3", arg)

	_, ok, err = TakeIntent(ctx, store, IntentMove)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseIntent(t *testing.T) {
	kind, arg, ok := ParseIntent("move:A3")
	assert.True(t, ok)
	assert.Equal(t, "move", kind)
	assert.Equal(t, "A3", arg)

	_, _, ok = ParseIntent("")
	assert.False(t, ok)
	_, _, ok = ParseIntent(":A3")
	assert.False(t, ok)
}

func TestTokens(t *testing.T) {
	store := setupFileStore(t)
	ctx := context.Background()

	token, err := Tokens{Store: store}.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Set(ctx, &model.Session{Token: "abc"}))
	token, err = Tokens{Store: store}.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestInspectToken(t *testing.T) {
	exp := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Name: "김철수",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		},
	}).SignedString([]byte("any-key"))
	require.NoError(t, err)

	info, err := InspectToken(signed)
	require.NoError(t, err)

	assert.Equal(t, "user-42", info.Subject)
	assert.Equal(t, "김철수", info.Name)
	assert.True(t, info.ExpiresAt.Equal(exp))
	assert.True(t, info.Expired(exp.Add(time.Minute)))
	assert.False(t, info.Expired(exp.Add(-time.Minute)))
}

func TestInspectToken_NoExpiry(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{Username: "lee"}).SignedString([]byte("k"))
	require.NoError(t, err)

	info, err := InspectToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "lee", info.Name)
	assert.False(t, info.Expired(time.Now()))
}

func TestInspectToken_Opaque(t *testing.T) {
	_, err := InspectToken("not-a-jwt")
	assert.Error(t, err)
}
