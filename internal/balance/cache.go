// Package balance maintains a debounced, TTL-cached view of a user's
// balances on both ledgers.
package balance

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uswap-new/uiuswap.github.io/internal/ledger"
	"github.com/uswap-new/uiuswap.github.io/internal/resilience"
	"github.com/uswap-new/uiuswap.github.io/internal/types"
	"go.uber.org/zap"
)

// account grammar: lowercase letters, digits, hyphen, dot, length 3-16.
var usernameRE = regexp.MustCompile(`^[a-z0-9.-]{3,16}$`)

// ValidUsername reports whether name satisfies the account grammar.
func ValidUsername(name string) bool { return usernameRE.MatchString(name) }

// Snapshot is one user's balances on both ledgers, fetched together.
// Superseded wholesale on refresh.
type Snapshot struct {
	Primary   decimal.Decimal
	Side      decimal.Decimal
	Username  string
	FetchedAt time.Time
}

// Get returns the balance of the given token.
func (s Snapshot) Get(token types.Token) decimal.Decimal {
	if token.IsPrimary() {
		return s.Primary
	}
	return s.Side
}

// Cache debounces and caches balance loads. Only the last call of a
// burst reaches the network; within the TTL window the cached snapshot
// is served without any network access.
type Cache struct {
	primary ledger.PrimaryGateway
	side    ledger.SideGateway

	ttl         time.Duration
	deb         *resilience.Debouncer
	maxAttempts int
	baseDelay   time.Duration
	log         *zap.Logger

	mu   sync.Mutex
	snap *Snapshot
}

func NewCache(primary ledger.PrimaryGateway, side ledger.SideGateway, ttl, debounce time.Duration, maxAttempts int, baseDelay time.Duration, log *zap.Logger) *Cache {
	return &Cache{
		primary:     primary,
		side:        side,
		ttl:         ttl,
		deb:         resilience.NewDebouncer(debounce),
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		log:         log,
	}
}

// Cached returns the current snapshot for username if it is still inside
// the TTL window.
func (c *Cache) Cached(username string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil || c.snap.Username != username {
		return Snapshot{}, false
	}
	if time.Since(c.snap.FetchedAt) >= c.ttl {
		return Snapshot{}, false
	}
	return *c.snap, true
}

// Load returns username's balances. Invalid names fail without any
// network call. A call superseded inside the debounce window returns
// resilience.ErrSuperseded. force bypasses both the TTL and any pending
// debounce.
func (c *Cache) Load(ctx context.Context, username string, force bool) (Snapshot, error) {
	if !ValidUsername(username) {
		return Snapshot{}, types.Validationf("username", "%q does not match the account grammar", username)
	}

	if force {
		c.deb.Preempt()
	} else {
		if snap, ok := c.Cached(username); ok {
			return snap, nil
		}
		if err := c.deb.Wait(ctx); err != nil {
			return Snapshot{}, err
		}
		// a parallel caller may have filled the cache while we waited
		if snap, ok := c.Cached(username); ok {
			return snap, nil
		}
	}

	snap, err := c.fetch(ctx, username)
	if err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	c.snap = &snap
	c.mu.Unlock()
	return snap, nil
}

// fetch loads both balances in parallel. Either failure fails the whole
// load; no partial state is ever published.
func (c *Cache) fetch(ctx context.Context, username string) (Snapshot, error) {
	var (
		wg               sync.WaitGroup
		prim, side       decimal.Decimal
		primErr, sideErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		prim, primErr = resilience.Retry(ctx, c.maxAttempts, c.baseDelay, func(ctx context.Context) (decimal.Decimal, error) {
			return c.primary.AccountBalance(ctx, username)
		})
	}()
	go func() {
		defer wg.Done()
		side, sideErr = resilience.Retry(ctx, c.maxAttempts, c.baseDelay, func(ctx context.Context) (decimal.Decimal, error) {
			return c.side.TokenBalance(ctx, username, string(types.TokenSwapHive))
		})
	}()
	wg.Wait()

	if primErr != nil {
		return Snapshot{}, primErr
	}
	if sideErr != nil {
		return Snapshot{}, sideErr
	}

	c.log.Debug("balances fetched",
		zap.String("user", username),
		zap.String("primary", prim.String()),
		zap.String("side", side.String()))
	return Snapshot{
		Primary:   prim,
		Side:      side,
		Username:  username,
		FetchedAt: time.Now(),
	}, nil
}
