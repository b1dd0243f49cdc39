// Package cmap provides a sharded concurrent map keyed by strings.
//
// Each shard has its own RWMutex, so lookups for different keys rarely
// contend. It backs the per-client and per-key rate limiter registries,
// whose key sets are large and read on every request.
//
//	m := cmap.New[*rate.Limiter]()
//	lim, _ := m.GetOrCreate(ip, func() *rate.Limiter { return rate.NewLimiter(10, 10) })
package cmap
