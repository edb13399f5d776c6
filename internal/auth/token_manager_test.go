package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/krx-lab/meridian-trading/internal/clock"
	"github.com/krx-lab/meridian-trading/internal/logger"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// fakeFetcher counts fetches and can be told to fail.
type fakeFetcher struct {
	mu       sync.Mutex
	count    atomic.Int64
	fail     bool
	lifetime time.Duration
	clk      clock.Clock
}

func (f *fakeFetcher) FetchToken(_ context.Context) (types.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.count.Add(1)

	if f.fail {
		return types.Credential{}, fmt.Errorf("provider unavailable")
	}

	now := f.clk.Now()

	return types.Credential{
		Token:     fmt.Sprintf("access-token-%016d", n),
		IssuedAt:  now,
		ExpiresAt: now.Add(f.lifetime),
	}, nil
}

func (f *fakeFetcher) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

type TokenManagerTestSuite struct {
	suite.Suite
	clk     *clock.Manual
	fetcher *fakeFetcher
	store   *CredentialStore
	manager *Manager
	path    string
}

func TestTokenManagerSuite(t *testing.T) {
	suite.Run(t, new(TokenManagerTestSuite))
}

func (suite *TokenManagerTestSuite) SetupTest() {
	suite.clk = clock.NewManual(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	suite.fetcher = &fakeFetcher{lifetime: 24 * time.Hour, clk: suite.clk}
	suite.path = filepath.Join(suite.T().TempDir(), "credential.json")
	suite.store = NewCredentialStore(suite.path)
	suite.manager = NewManager(suite.store, suite.fetcher, suite.clk, logger.NewNopLogger(), ManagerConfig{})
}

// N concurrent callers against an empty cache must trigger exactly one
// network fetch and all observe the same token.
func (suite *TokenManagerTestSuite) TestConcurrentGetTokenSingleFetch() {
	const callers = 20

	var wg sync.WaitGroup

	tokens := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()

			cred, err := suite.manager.GetToken(context.Background(), false)
			tokens[idx] = cred.Token
			errs[idx] = err
		}(i)
	}

	wg.Wait()

	suite.Equal(int64(1), suite.fetcher.count.Load())

	for i := 0; i < callers; i++ {
		suite.NoError(errs[i])
		suite.Equal(tokens[0], tokens[i])
	}
}

func (suite *TokenManagerTestSuite) TestCachedTokenReturnsWithoutFetch() {
	_, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)
	suite.Equal(int64(1), suite.fetcher.count.Load())

	// Well outside the refresh window: no further I/O.
	suite.clk.Advance(time.Hour)

	cred, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)
	suite.Equal(int64(1), suite.fetcher.count.Load())
	suite.NotEmpty(cred.Token)
}

func (suite *TokenManagerTestSuite) TestProactiveRefreshInsideWindow() {
	first, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)

	// 20 minutes before expiry: inside the 30 minute refresh window.
	suite.clk.Advance(24*time.Hour - 20*time.Minute)

	second, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)
	suite.Equal(int64(2), suite.fetcher.count.Load())
	suite.NotEqual(first.Token, second.Token)
}

// A failed proactive refresh falls back to the still-valid credential
// instead of failing the caller.
func (suite *TokenManagerTestSuite) TestProactiveRefreshFailureFallsBack() {
	first, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)

	suite.clk.Advance(24*time.Hour - 20*time.Minute)
	suite.fetcher.setFail(true)

	second, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)
	suite.Equal(first.Token, second.Token)
}

func (suite *TokenManagerTestSuite) TestExpiredCredentialFetchFailureIsFatal() {
	_, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)

	suite.clk.Advance(25 * time.Hour)
	suite.fetcher.setFail(true)

	_, err = suite.manager.GetToken(context.Background(), false)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeCredentialFetchFailed))
}

func (suite *TokenManagerTestSuite) TestForceRefreshAlwaysFetches() {
	first, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)

	second, err := suite.manager.GetToken(context.Background(), true)
	suite.Require().NoError(err)
	suite.Equal(int64(2), suite.fetcher.count.Load())
	suite.NotEqual(first.Token, second.Token)
}

func (suite *TokenManagerTestSuite) TestInvalidateCacheForcesFetch() {
	_, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.manager.InvalidateCache())

	_, statErr := os.Stat(suite.path)
	suite.True(os.IsNotExist(statErr))

	_, err = suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)
	suite.Equal(int64(2), suite.fetcher.count.Load())
}

// A second manager sharing the store adopts the persisted credential
// instead of fetching again.
func (suite *TokenManagerTestSuite) TestSecondProcessAdoptsPersistedCredential() {
	_, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)

	other := NewManager(suite.store, suite.fetcher, suite.clk, logger.NewNopLogger(), ManagerConfig{})

	cred, err := other.GetToken(context.Background(), false)
	suite.Require().NoError(err)
	suite.Equal(int64(1), suite.fetcher.count.Load())
	suite.Equal(types.CredentialSourceCached, cred.Source)
}

func (suite *TokenManagerTestSuite) TestCorruptStoreTreatedAsAbsent() {
	suite.Require().NoError(os.WriteFile(suite.path, []byte("{not json"), 0o600))

	cred, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)
	suite.Equal(int64(1), suite.fetcher.count.Load())
	suite.NotEmpty(cred.Token)
}

func (suite *TokenManagerTestSuite) TestImplausiblyShortTokenDiscarded() {
	stub := `{"token":"short","issued_at":"2025-06-02T09:00:00Z","expires_at":"2025-06-03T09:00:00Z"}`
	suite.Require().NoError(os.WriteFile(suite.path, []byte(stub), 0o600))

	loaded, err := suite.store.Load()
	suite.Require().NoError(err)
	suite.Nil(loaded)

	_, statErr := os.Stat(suite.path)
	suite.True(os.IsNotExist(statErr))
}

func (suite *TokenManagerTestSuite) TestCredentialFilePermissions() {
	if runtime.GOOS == "windows" {
		suite.T().Skip("file mode semantics differ on windows")
	}

	_, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)

	info, err := os.Stat(suite.path)
	suite.Require().NoError(err)
	suite.Equal(os.FileMode(0o600), info.Mode().Perm())
}

func (suite *TokenManagerTestSuite) TestStatusTransitions() {
	suite.Equal(types.TokenStateNoToken, suite.manager.Status().State)

	_, err := suite.manager.GetToken(context.Background(), false)
	suite.Require().NoError(err)

	status := suite.manager.Status()
	suite.Equal(types.TokenStateValid, status.State)
	suite.Greater(status.Remaining, 23*time.Hour)

	suite.clk.Advance(24*time.Hour - 20*time.Minute)
	suite.Equal(types.TokenStateExpiringSoon, suite.manager.Status().State)

	suite.clk.Advance(20 * time.Minute)
	suite.Equal(types.TokenStateExpired, suite.manager.Status().State)
}
