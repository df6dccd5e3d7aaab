package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/adapter/storage"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/service"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/port"
)

const (
	writers        = 20
	writesPerActor = 10
	readers        = 20
	orderRequests  = 50
)

// Hammers the inventory cache with concurrent writers and readers and checks
// that every acknowledged write is visible to the next read of its writer.
// Uses MySQL when MYSQL_DSN is set, the in-memory store otherwise.
func main() {
	ctx := context.Background()

	store, cleanup := openStore(ctx)
	defer cleanup()

	cache := service.NewInventoryCache(store, service.CacheOptions{
		SlidingWindow: service.DefaultSlidingWindow,
		AbsoluteTTL:   service.DefaultAbsoluteTTL,
	})
	inventory := service.NewInventoryService(store, cache, nil, zap.NewNop())
	orders := service.NewOrderService(store, store, cache, storage.NewMemoryIdempotency(), nil, zap.NewNop())

	var (
		writeCount atomic.Int32
		staleReads atomic.Int32
		readCount  atomic.Int32
		errCount   atomic.Int32
		stop       = make(chan struct{})
		readerWG   sync.WaitGroup
		writerWG   sync.WaitGroup
	)

	// Background readers keep the cache hot.
	for i := 0; i < readers; i++ {
		readerWG.Add(1)
		go func() {
			defer readerWG.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := inventory.List(ctx); err != nil {
					errCount.Add(1)
				}
				readCount.Add(1)
			}
		}()
	}

	start := time.Now()
	for w := 0; w < writers; w++ {
		writerWG.Add(1)
		go func(writer int) {
			defer writerWG.Done()
			for i := 0; i < writesPerActor; i++ {
				created, err := inventory.Create(ctx, domain.InventoryItem{
					Name:     fmt.Sprintf("stress-%d-%d", writer, i),
					Quantity: i,
				})
				if err != nil {
					errCount.Add(1)
					continue
				}
				writeCount.Add(1)

				items, err := inventory.List(ctx)
				if err != nil {
					errCount.Add(1)
					continue
				}
				if !containsItem(items, created.ID) {
					staleReads.Add(1)
				}
			}
		}(w)
	}
	writerWG.Wait()
	close(stop)
	readerWG.Wait()
	elapsed := time.Since(start)

	// Same idempotency key from many clients: exactly one order must be created.
	var orderSuccess atomic.Int32
	var orderWG sync.WaitGroup
	for i := 0; i < orderRequests; i++ {
		orderWG.Add(1)
		go func() {
			defer orderWG.Done()
			_, err := orders.Create(ctx, &domain.Order{CustomerName: "stress"}, "stress-key")
			if err == nil {
				orderSuccess.Add(1)
			}
		}()
	}
	orderWG.Wait()

	stats := cache.Stats()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Writes:           %d\n", writeCount.Load())
	fmt.Printf("Reads:            %d\n", readCount.Load())
	fmt.Printf("Stale reads:      %d\n", staleReads.Load())
	fmt.Printf("Errors:           %d\n", errCount.Load())
	fmt.Printf("Cache hits/miss:  %d/%d (loads %d)\n", stats.Hits, stats.Misses, stats.Loads)
	fmt.Printf("Orders created:   %d of %d\n", orderSuccess.Load(), orderRequests)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	failed := false
	if staleReads.Load() == 0 {
		fmt.Println("PASS: Every write was visible to its writer's next read")
	} else {
		fmt.Printf("FAIL: %d reads missed the writer's own item\n", staleReads.Load())
		failed = true
	}
	if orderSuccess.Load() == 1 {
		fmt.Println("PASS: Exactly 1 order created for the shared idempotency key")
	} else {
		fmt.Printf("FAIL: Expected 1 order, got %d\n", orderSuccess.Load())
		failed = true
	}
	if failed {
		os.Exit(1)
	}
}

func containsItem(items []domain.InventoryItem, id int64) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func openStore(ctx context.Context) (port.DatabaseRepository, func()) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		log.Println("MYSQL_DSN not set, using in-memory store")
		return storage.NewMemoryAdapter(), func() {}
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	adapter := storage.NewMySQLAdapter(db)
	if err := adapter.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	return adapter, func() {
		db.ExecContext(ctx, `DELETE FROM inventory_items WHERE name LIKE 'stress-%'`)
		db.ExecContext(ctx, `DELETE FROM orders WHERE customer_name = 'stress'`)
		db.Close()
	}
}
