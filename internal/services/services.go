package services

import (
	"mangareader/internal/cache"
	"mangareader/internal/utils"

	"gorm.io/gorm"
)

// Options 可选依赖，零值可用
type Options struct {
	Counter           *cache.UnreadCounter // nil disables the redis unread cache
	Cache             *utils.LocalCache    // defaults to utils.GetCache()
	NotificationLimit int                  // defaults to 50
	MaxRetries        int                  // attempts for retried transactions, defaults to 3
}

// Service holds the core: thread manager, XP engine, unlock resolver,
// reaction ledger and notification fan-out, plus the peripheral operations
// that call into them. Every method takes the acting user id explicitly.
type Service struct {
	db                *gorm.DB
	counter           *cache.UnreadCounter
	cache             *utils.LocalCache
	notificationLimit int
	maxRetries        int
}

// New wires a Service around an open gorm connection.
func New(conn *gorm.DB, opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = utils.GetCache()
	}
	if opts.NotificationLimit <= 0 {
		opts.NotificationLimit = 50
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	return &Service{
		db:                conn,
		counter:           opts.Counter,
		cache:             opts.Cache,
		notificationLimit: opts.NotificationLimit,
		maxRetries:        opts.MaxRetries,
	}
}
