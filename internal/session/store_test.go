package session

import (
	"context"
	"testing"
	"time"

	"github.com/neotheprogramist/ai-playground/internal/environment"
	"github.com/neotheprogramist/ai-playground/mocks"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

func testSession(token string) Session {
	return Session{
		Token:     token,
		EpisodeID: "episode",
		Symbol:    "IBM",
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Snapshot: environment.Snapshot{
			Bars:        mocks.BarsFromCloses("IBM", 10, 11, 12),
			Config:      environment.DefaultConfig("2024-01-01"),
			CurrentStep: 1,
			TotalReward: 0.1,
			Balance:     10000,
			TokenAmount: 0,
			Done:        false,
		},
	}
}

type MemoryStoreTestSuite struct {
	suite.Suite
	ctx context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreTestSuite))
}

func (suite *MemoryStoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
}

func (suite *MemoryStoreTestSuite) TestSaveLoadDelete() {
	store := NewMemoryStore(time.Hour)

	suite.Require().NoError(store.Save(suite.ctx, testSession("a")))

	loaded, err := store.Load(suite.ctx, "a")
	suite.Require().NoError(err)
	suite.Equal(testSession("a"), loaded)

	suite.Require().NoError(store.Delete(suite.ctx, "a"))

	_, err = store.Load(suite.ctx, "a")
	suite.True(errors.HasCode(err, errors.ErrCodeSessionNotFound))
}

func (suite *MemoryStoreTestSuite) TestExpiry() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	suite.Require().NoError(store.Save(suite.ctx, testSession("a")))

	now = now.Add(30 * time.Second)
	_, err := store.Load(suite.ctx, "a")
	suite.NoError(err)

	// Saving refreshes the expiry.
	suite.Require().NoError(store.Save(suite.ctx, testSession("a")))

	now = now.Add(45 * time.Second)
	_, err = store.Load(suite.ctx, "a")
	suite.NoError(err)

	now = now.Add(time.Minute)
	_, err = store.Load(suite.ctx, "a")
	suite.True(errors.HasCode(err, errors.ErrCodeSessionNotFound))
	suite.Equal(0, store.Len())
}

func (suite *MemoryStoreTestSuite) TestZeroTTLNeverExpires() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(0)
	store.now = func() time.Time { return now }

	suite.Require().NoError(store.Save(suite.ctx, testSession("a")))

	now = now.AddDate(1, 0, 0)
	_, err := store.Load(suite.ctx, "a")
	suite.NoError(err)
}

func (suite *MemoryStoreTestSuite) TestSaveSweepsAbandonedSessions() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	defer store.Close()

	for _, token := range []string{"a", "b", "c"} {
		suite.Require().NoError(store.Save(suite.ctx, testSession(token)))
	}

	suite.Equal(3, store.Len())

	now = now.Add(48 * time.Hour)
	suite.Require().NoError(store.Save(suite.ctx, testSession("d")))

	suite.Equal(1, store.Len())

	_, err := store.Load(suite.ctx, "d")
	suite.NoError(err)
}

func (suite *MemoryStoreTestSuite) TestSweepKeepsLiveSessions() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Hour)
	store.now = func() time.Time { return now }

	defer store.Close()

	suite.Require().NoError(store.Save(suite.ctx, testSession("old")))

	now = now.Add(30 * time.Minute)
	suite.Require().NoError(store.Save(suite.ctx, testSession("new")))

	now = now.Add(45 * time.Minute)
	store.sweep()

	suite.Equal(1, store.Len())

	_, err := store.Load(suite.ctx, "new")
	suite.NoError(err)

	_, err = store.Load(suite.ctx, "old")
	suite.True(errors.HasCode(err, errors.ErrCodeSessionNotFound))
}

func (suite *MemoryStoreTestSuite) TestCloseStopsSweep() {
	store := NewMemoryStore(time.Minute)

	suite.NoError(store.Close())
	suite.NoError(store.Close())

	select {
	case <-store.stop:
	default:
		suite.Fail("sweep still running after Close")
	}

	suite.NoError(NewMemoryStore(0).Close())
}

// fakeRedis is an in-memory RedisClient.
type fakeRedis struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	failErr error
	closed  bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failErr != nil {
		return redis.NewStringResult("", f.failErr)
	}

	value, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}

	return redis.NewStringResult(string(value), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}

	f.data[key] = value.([]byte)
	f.ttls[key] = expiration

	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.failErr != nil {
		return redis.NewIntResult(0, f.failErr)
	}

	var deleted int64

	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			deleted++
		}
	}

	return redis.NewIntResult(deleted, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true

	return nil
}

type RedisStoreTestSuite struct {
	suite.Suite
	ctx    context.Context
	client *fakeRedis
	store  *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}

func (suite *RedisStoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.client = newFakeRedis()
	suite.store = NewRedisStoreWithClient(suite.client, "", 0)
}

func (suite *RedisStoreTestSuite) TestSaveUsesPrefixAndTTL() {
	suite.Require().NoError(suite.store.Save(suite.ctx, testSession("abc")))

	suite.Contains(suite.client.data, "tradeenv:env:abc")
	suite.Equal(DefaultTTL, suite.client.ttls["tradeenv:env:abc"])
}

func (suite *RedisStoreTestSuite) TestRoundTrip() {
	suite.Require().NoError(suite.store.Save(suite.ctx, testSession("abc")))

	loaded, err := suite.store.Load(suite.ctx, "abc")
	suite.Require().NoError(err)
	suite.Equal("IBM", loaded.Symbol)
	suite.Equal(1, loaded.Snapshot.CurrentStep)
	suite.Len(loaded.Snapshot.Bars, 3)

	env, err := environment.Restore(loaded.Snapshot, nil)
	suite.Require().NoError(err)
	suite.Equal(1, env.CurrentStep())
}

func (suite *RedisStoreTestSuite) TestMissingToken() {
	_, err := suite.store.Load(suite.ctx, "missing")
	suite.True(errors.HasCode(err, errors.ErrCodeSessionNotFound))
}

func (suite *RedisStoreTestSuite) TestCorruptPayload() {
	suite.client.data["tradeenv:env:bad"] = []byte("{not json")

	_, err := suite.store.Load(suite.ctx, "bad")
	suite.True(errors.HasCode(err, errors.ErrCodeSessionStore))
}

func (suite *RedisStoreTestSuite) TestDelete() {
	suite.Require().NoError(suite.store.Save(suite.ctx, testSession("abc")))
	suite.Require().NoError(suite.store.Delete(suite.ctx, "abc"))
	suite.Empty(suite.client.data)
}

func (suite *RedisStoreTestSuite) TestBackendErrors() {
	suite.client.failErr = context.DeadlineExceeded

	suite.True(errors.HasCode(suite.store.Save(suite.ctx, testSession("abc")), errors.ErrCodeSessionStore))

	_, err := suite.store.Load(suite.ctx, "abc")
	suite.True(errors.HasCode(err, errors.ErrCodeSessionStore))

	suite.True(errors.HasCode(suite.store.Delete(suite.ctx, "abc"), errors.ErrCodeSessionStore))
}

func (suite *RedisStoreTestSuite) TestCustomPrefixAndClose() {
	store := NewRedisStoreWithClient(suite.client, "test", time.Minute)
	suite.Require().NoError(store.Save(suite.ctx, testSession("abc")))

	suite.Contains(suite.client.data, "test:env:abc")
	suite.Equal(time.Minute, suite.client.ttls["test:env:abc"])

	suite.NoError(store.Close())
	suite.True(suite.client.closed)
}
