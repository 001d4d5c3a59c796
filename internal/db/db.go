package db

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/parisxmas/OxiDB/OxiWL/internal/oxidb"
)

// Pool is a round-robin connection pool for OxiDB with auto-reconnect.
type Pool struct {
	host    string
	port    int
	timeout time.Duration
	mu      sync.RWMutex
	clients []*oxidb.Client
	idx     uint64
	stop    chan struct{}
	once    sync.Once
}

// NewPool creates a pool of n OxiDB connections.
func NewPool(host string, port, size int, timeout time.Duration) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		host:    host,
		port:    port,
		timeout: timeout,
		clients: make([]*oxidb.Client, size),
		stop:    make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		c, err := oxidb.Connect(host, port, timeout)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("pool: connect client %d: %w", i, err)
		}
		p.clients[i] = c
	}
	// Keepalive pings every 10 seconds to prevent idle timeout
	go p.keepalive()
	return p, nil
}

// Get returns the next client in round-robin order. Broken clients are
// replaced before being handed out.
func (p *Pool) Get() *oxidb.Client {
	n := atomic.AddUint64(&p.idx, 1)
	p.mu.RLock()
	i := int(n % uint64(len(p.clients)))
	c := p.clients[i]
	p.mu.RUnlock()
	if c.Broken() {
		if fresh := p.reconnect(i, c); fresh != nil {
			return fresh
		}
	}
	return c
}

// reconnect replaces the client at index i if it is still old.
func (p *Pool) reconnect(i int, old *oxidb.Client) *oxidb.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clients[i] != old {
		return p.clients[i]
	}
	c, err := oxidb.Connect(p.host, p.port, p.timeout)
	if err != nil {
		log.Printf("Warning: pool: reconnect client %d failed: %v", i, err)
		return nil
	}
	old.Close()
	p.clients[i] = c
	return c
}

func (p *Pool) keepalive() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.mu.RLock()
			snapshot := append([]*oxidb.Client(nil), p.clients...)
			p.mu.RUnlock()
			for i, c := range snapshot {
				ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
				_, err := c.Ping(ctx)
				cancel()
				if err != nil {
					log.Printf("Warning: pool: client %d ping failed, reconnecting: %v", i, err)
					p.reconnect(i, c)
				}
			}
		}
	}
}

// Ping checks one pooled connection.
func (p *Pool) Ping(ctx context.Context) error {
	_, err := p.Get().Ping(ctx)
	return err
}

// Close closes all connections.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.stop)
		p.mu.Lock()
		defer p.mu.Unlock()
		for _, c := range p.clients {
			if c != nil {
				c.Close()
			}
		}
	})
}
