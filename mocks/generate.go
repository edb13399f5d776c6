package mocks

//go:generate mockgen -destination=./mock_ledger.go -package=mocks github.com/krx-lab/meridian-trading/internal/ledger Ledger
//go:generate mockgen -destination=./mock_pricesource.go -package=mocks github.com/krx-lab/meridian-trading/internal/pricesource PriceSource
//go:generate mockgen -destination=./mock_broker.go -package=mocks github.com/krx-lab/meridian-trading/internal/broker API
//go:generate mockgen -destination=./mock_breaker_store.go -package=mocks github.com/krx-lab/meridian-trading/internal/risk BreakerStore
//go:generate mockgen -destination=./mock_ratelimit.go -package=mocks github.com/krx-lab/meridian-trading/internal/ratelimit Limiter
