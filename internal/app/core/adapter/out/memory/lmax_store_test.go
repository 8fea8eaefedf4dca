package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-moneybox/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-moneybox/internal/app/core/domain"
	"github.com/JoeShih716/go-moneybox/internal/app/core/usecase"
	"github.com/JoeShih716/go-moneybox/pkg/wal"
)

func startLMAX(t *testing.T, accounts map[uuid.UUID]*domain.Account, journal *wal.WAL) *memory.LMAXStore {
	t.Helper()
	store, err := memory.NewLMAXStore(accounts, journal)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	store.Start(ctx)
	t.Cleanup(func() {
		cancel()
		<-store.Done()
	})
	return store
}

func TestLMAXStore_GetAndUpdate(t *testing.T) {
	a := newAccount(100)
	store := startLMAX(t, map[uuid.UUID]*domain.Account{a.ID: a}, nil)
	ctx := context.Background()

	got, err := store.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	got.ApplyCredit(decimal.NewFromInt(25))
	require.NoError(t, store.Update(ctx, got))

	again, err := store.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, again.Balance.Equal(decimal.NewFromInt(125)))
	assert.True(t, again.PaidIn.Equal(decimal.NewFromInt(25)))

	_, err = store.GetAccountByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.ErrorIs(t, store.Update(ctx, newAccount(1)), domain.ErrAccountNotFound)
}

func TestLMAXStore_Create(t *testing.T) {
	store := startLMAX(t, nil, nil)
	ctx := context.Background()
	a := newAccount(10)

	require.NoError(t, store.Create(ctx, a))
	assert.ErrorIs(t, store.Create(ctx, a), domain.ErrAccountAlreadyExists)
}

func TestLMAXStore_WithdrawConcurrently(t *testing.T) {
	a := newAccount(10000)
	store := startLMAX(t, map[uuid.UUID]*domain.Account{a.ID: a}, nil)
	withdraw := usecase.NewWithdrawMoney(store, nopNotifier{})
	ctx := context.Background()

	// 單一寫入者只保證每個請求的原子性，Get 與 Update 之間仍可能互相覆蓋
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = withdraw.Execute(ctx, a.ID, decimal.NewFromInt(1))
		}()
	}
	wg.Wait()

	got, err := store.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.LessThan(decimal.NewFromInt(10000)))
	assert.True(t, got.Balance.Add(got.Withdrawn).Equal(decimal.NewFromInt(10000)))
}

func TestLMAXStore_RecoverFromWAL(t *testing.T) {
	a := newAccount(500)
	journal, path := newWAL(t)
	store, err := memory.NewLMAXStore(map[uuid.UUID]*domain.Account{a.ID: a}, journal)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	store.Start(ctx)

	got, err := store.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	got.ApplyDebit(decimal.NewFromInt(200))
	require.NoError(t, store.Update(ctx, got))
	cancel()
	<-store.Done()
	require.NoError(t, journal.Close())

	journal, err = wal.NewWAL(path)
	require.NoError(t, err)
	defer journal.Close()
	recovered := startLMAX(t, map[uuid.UUID]*domain.Account{a.ID: a}, journal)

	got, err = recovered.GetAccountByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(300)))
}

func TestLMAXStore_Stopped(t *testing.T) {
	store, err := memory.NewLMAXStore(nil, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	store.Start(ctx)
	cancel()

	select {
	case <-store.Done():
	case <-time.After(time.Second):
		t.Fatal("store did not stop")
	}

	_, err = store.GetAccountByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, memory.ErrStoreStopped)
}

func TestLMAXStore_ContextCanceledBeforeStart(t *testing.T) {
	store, err := memory.NewLMAXStore(nil, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// 未 Start：請求進入 buffer 後等不到結果
	_, err = store.GetAccountByID(ctx, uuid.New())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
