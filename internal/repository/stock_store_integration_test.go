//go:build integration

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("pos_test"),
		tcPostgres.WithUsername("pos"),
		tcPostgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.ConnectDB(database.Options{DSN: dsn, MaxOpenConns: 20})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedStock(t *testing.T, db *gorm.DB, name string, qty int) uint {
	t.Helper()
	item := &model.StockItem{Name: name, Quantity: qty}
	require.NoError(t, db.Create(item).Error)
	return item.ID
}

func TestPostgresStockStore_ConcurrentApplyNeverNegative(t *testing.T) {
	for _, level := range []sql.IsolationLevel{sql.LevelReadCommitted, sql.LevelSerializable} {
		t.Run(level.String(), func(t *testing.T) {
			db := setupPostgres(t)
			beans := seedStock(t, db, "Espresso beans", 10)
			milk := seedStock(t, db, "Milk", 10)

			l := ledger.NewStockLedger(NewPostgresStockStore(db, level), ledger.WithMaxAttempts(12), ledger.WithRetryDelay(time.Millisecond))

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				succeeded int
			)
			for i := 0; i < 12; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := l.Apply(context.Background(), ledger.ApplyRequest{
						Reference: fmt.Sprintf("order-%d", i),
						ActorID:   "cashier-1",
						Demand:    ledger.Demand{beans: 3, milk: 2},
					})
					var short *ledger.InsufficientStockError
					switch {
					case err == nil:
						mu.Lock()
						succeeded++
						mu.Unlock()
					case errors.As(err, &short):
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}(i)
			}
			wg.Wait()

			assert.Equal(t, 3, succeeded)

			var rows []model.StockItem
			require.NoError(t, db.Order("id").Find(&rows).Error)
			assert.Equal(t, 1, rows[0].Quantity)
			assert.Equal(t, 4, rows[1].Quantity)

			var movements int64
			require.NoError(t, db.Model(&model.StockMovement{}).Count(&movements).Error)
			assert.Equal(t, int64(succeeded*2), movements)
		})
	}
}

func TestPostgresStockStore_ApplyRejectsReusedReference(t *testing.T) {
	db := setupPostgres(t)
	beans := seedStock(t, db, "Espresso beans", 10)
	store := NewPostgresStockStore(db, sql.LevelReadCommitted)
	ctx := context.Background()

	req := ledger.ApplyRequest{Reference: "key-1", ActorID: "cashier-1", Demand: ledger.Demand{beans: 2}}
	_, err := store.Apply(ctx, req)
	require.NoError(t, err)

	_, err = store.Apply(ctx, req)
	assert.ErrorIs(t, err, ledger.ErrReferenceUsed)

	used, err := store.HasReference(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, used)

	snap, err := store.Snapshot(ctx, []uint{beans})
	require.NoError(t, err)
	assert.Equal(t, 8, snap[beans])
}

func TestPostgresStockStore_ApplyShortfallChangesNothing(t *testing.T) {
	db := setupPostgres(t)
	beans := seedStock(t, db, "Espresso beans", 10)
	milk := seedStock(t, db, "Milk", 1)
	store := NewPostgresStockStore(db, sql.LevelReadCommitted)

	_, err := store.Apply(context.Background(), ledger.ApplyRequest{
		Reference: "order-1",
		Demand:    ledger.Demand{beans: 3, milk: 2},
	})
	var short *ledger.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, milk, short.StockID)

	snap, err := store.Snapshot(context.Background(), []uint{beans, milk})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{beans: 10, milk: 1}, snap)
}

func TestPostgresStockStore_Increment(t *testing.T) {
	db := setupPostgres(t)
	beans := seedStock(t, db, "Espresso beans", 4)
	store := NewPostgresStockStore(db, sql.LevelReadCommitted)
	ctx := context.Background()

	adj, err := store.Increment(ctx, beans, 6, "manual:1", "admin")
	require.NoError(t, err)
	assert.Equal(t, ledger.Adjustment{StockID: beans, Name: "Espresso beans", Before: 4, After: 10}, adj)

	_, err = store.Increment(ctx, 9999, 1, "manual:2", "admin")
	assert.ErrorIs(t, err, ledger.ErrStockNotFound)

	movements, err := NewMovementRepo(db).FindByStock(ctx, beans, 10)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementReplenish, movements[0].Kind)
	assert.Equal(t, 6, movements[0].Delta)
}
