package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rxnen/eldersafe/internal/models"
	"github.com/rxnen/eldersafe/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.UnixMilli(1_700_000_000_000)

// countingKV 统计写入次数
type countingKV struct {
	store.KV
	mu   sync.Mutex
	sets int
}

func (c *countingKV) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.KV.Set(ctx, key, value)
}

// failingKV 模拟存储不可用
type failingKV struct{}

var errUnavailable = errors.New("storage unavailable")

func (failingKV) Get(context.Context, string) (string, error) { return "", errUnavailable }
func (failingKV) Set(context.Context, string, string) error   { return errUnavailable }
func (failingKV) Delete(context.Context, string) error        { return errUnavailable }

// keyFailingKV 仅对指定键的写入失败
type keyFailingKV struct {
	store.KV
	key string
}

func (k keyFailingKV) Set(ctx context.Context, key, value string) error {
	if key == k.key {
		return errUnavailable
	}
	return k.KV.Set(ctx, key, value)
}

// overlapKV 记录同时进行中的存储调用数的峰值
type overlapKV struct {
	store.KV
	active atomic.Int32
	peak   atomic.Int32
}

func (o *overlapKV) enter() func() {
	n := o.active.Add(1)
	for {
		p := o.peak.Load()
		if n <= p || o.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return func() { o.active.Add(-1) }
}

func (o *overlapKV) Get(ctx context.Context, key string) (string, error) {
	defer o.enter()()
	return o.KV.Get(ctx, key)
}

func (o *overlapKV) Set(ctx context.Context, key, value string) error {
	defer o.enter()()
	return o.KV.Set(ctx, key, value)
}

func TestProfileRepository_Roundtrip(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(store.NewMemoryKV(), zap.NewNop())

	profile, err := repo.GetProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	want := &models.Profile{Age: "81", Mobility: models.MobilityWalker, Vision: true, UserType: models.UserTypeCaregiver}
	require.NoError(t, repo.SaveProfile(ctx, want))

	got, err := repo.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestProfileRepository_KeepsUserType(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(store.NewMemoryKV(), zap.NewNop())

	require.NoError(t, repo.SaveProfile(ctx, &models.Profile{Age: "70", UserType: models.UserTypeSenior}))
	require.NoError(t, repo.SaveProfile(ctx, &models.Profile{Age: "71", Hearing: true}))

	got, err := repo.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "71", got.Age)
	assert.True(t, bool(got.Hearing))
	assert.Equal(t, models.UserTypeSenior, got.UserType)
}

func TestProfileRepository_Invalid(t *testing.T) {
	repo := NewProfileRepository(store.NewMemoryKV(), zap.NewNop())
	err := repo.SaveProfile(context.Background(), &models.Profile{Mobility: "crutches"})
	assert.Error(t, err)
}

func TestProfileRepository_LegacyAndMalformed(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	repo := NewProfileRepository(kv, zap.NewNop())

	require.NoError(t, kv.Set(ctx, KeyPersonalInfo, `{"age":"65","mobility":null,"vision":"true","hearing":"false"}`))
	got, err := repo.GetProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.MobilityUnset, got.Mobility)
	assert.True(t, bool(got.Vision))
	assert.False(t, bool(got.Hearing))

	require.NoError(t, kv.Set(ctx, KeyPersonalInfo, `{not json`))
	got, err = repo.GetProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProfileRepository_FirstLoad(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	repo := NewProfileRepository(kv, zap.NewNop())

	first, err := repo.IsFirstLoad(ctx)
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, repo.CompleteOnboarding(ctx, &models.Profile{Age: "90", Mobility: models.MobilityNone}))
	first, err = repo.IsFirstLoad(ctx)
	require.NoError(t, err)
	assert.False(t, first)

	raw, err := kv.Get(ctx, KeyFirstLoad)
	require.NoError(t, err)
	assert.Equal(t, "false", raw)

	require.NoError(t, kv.Set(ctx, KeyFirstLoad, "maybe"))
	first, err = repo.IsFirstLoad(ctx)
	require.NoError(t, err)
	assert.True(t, first)
}

func TestProfileRepository_StorageFailure(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(failingKV{}, zap.NewNop())

	_, err := repo.GetProfile(ctx)
	assert.ErrorIs(t, err, errUnavailable)

	first, err := repo.IsFirstLoad(ctx)
	assert.ErrorIs(t, err, errUnavailable)
	assert.True(t, first)

	assert.ErrorIs(t, repo.SaveProfile(ctx, &models.Profile{UserType: models.UserTypeSenior}), errUnavailable)
}

func TestProfileRepository_WritesSerialize(t *testing.T) {
	ctx := context.Background()
	kv := &overlapKV{KV: store.NewMemoryKV()}
	repo := NewProfileRepository(kv, zap.NewNop())
	require.NoError(t, repo.SaveProfile(ctx, &models.Profile{Age: "80", UserType: models.UserTypeCaregiver}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			profile := &models.Profile{Age: "81", Mobility: models.MobilityCane}
			if i%2 == 0 {
				assert.NoError(t, repo.SaveProfile(ctx, profile))
			} else {
				assert.NoError(t, repo.CompleteOnboarding(ctx, profile))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), kv.peak.Load())
	got, err := repo.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeCaregiver, got.UserType)
}

func TestProfileRepository_CompleteOnboardingOrder(t *testing.T) {
	ctx := context.Background()

	mem := store.NewMemoryKV()
	repo := NewProfileRepository(keyFailingKV{KV: mem, key: KeyFirstLoad}, zap.NewNop())
	err := repo.CompleteOnboarding(ctx, &models.Profile{Age: "75", UserType: models.UserTypeSenior})
	assert.ErrorIs(t, err, errUnavailable)

	got, err := repo.GetProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, got, "profile is written before the flag")
	first, err := repo.IsFirstLoad(ctx)
	require.NoError(t, err)
	assert.True(t, first, "onboarding stays open until the flag is written")

	mem = store.NewMemoryKV()
	repo = NewProfileRepository(keyFailingKV{KV: mem, key: KeyPersonalInfo}, zap.NewNop())
	err = repo.CompleteOnboarding(ctx, &models.Profile{Age: "75", UserType: models.UserTypeSenior})
	assert.ErrorIs(t, err, errUnavailable)
	_, err = mem.Get(ctx, KeyFirstLoad)
	assert.ErrorIs(t, err, store.ErrMiss, "flag is untouched when the profile fails")
}

func TestRoomRepository_LoadEmptyAndMalformed(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	repo := NewRoomRepository(kv, zap.NewNop())

	rooms, err := repo.LoadRooms(ctx)
	require.NoError(t, err)
	assert.NotNil(t, rooms)
	assert.Empty(t, rooms)

	require.NoError(t, kv.Set(ctx, KeyMyRooms, `null`))
	rooms, err = repo.LoadRooms(ctx)
	require.NoError(t, err)
	assert.NotNil(t, rooms)

	require.NoError(t, kv.Set(ctx, KeyMyRooms, `[{"id":`))
	rooms, err = repo.LoadRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	_, err = NewRoomRepository(failingKV{}, zap.NewNop()).LoadRooms(ctx)
	assert.ErrorIs(t, err, errUnavailable)
}

func TestRoomRepository_Mutate(t *testing.T) {
	ctx := context.Background()
	kv := &countingKV{KV: store.NewMemoryKV()}
	repo := NewRoomRepository(kv, zap.NewNop())

	err := repo.Mutate(ctx, func(rooms []models.Room) ([]models.Room, bool, error) {
		room, err := models.NewRoom(len(rooms)+1, models.RoomKitchen, "", []int{2}, false, t0)
		if err != nil {
			return nil, false, err
		}
		return append(rooms, room), true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, kv.sets)

	err = repo.Mutate(ctx, func(rooms []models.Room) ([]models.Room, bool, error) {
		return rooms, false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, kv.sets, "unchanged inventory is not written")

	boom := errors.New("boom")
	err = repo.Mutate(ctx, func(rooms []models.Room) ([]models.Room, bool, error) {
		return nil, true, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, kv.sets)

	rooms, err := repo.LoadRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, []int{2}, rooms[0].Answers)
}

func TestRoomRepository_MutateKeepsMalformedInventory(t *testing.T) {
	ctx := context.Background()
	kv := &countingKV{KV: store.NewMemoryKV()}
	repo := NewRoomRepository(kv, zap.NewNop())

	stored := `[
		{"id":1,"type":"Bathroom","name":"My Bathroom","icon":"bath","answers":[0],"primary":true},
		{"id":2,"type":"Kitchen","name":"My Kitchen","icon":"cutlery","answers":[],"primary":false},
		{"id":3,"type":"Bedroom","name":"My Bedroom","icon":"bed","answers":[1],"primary":1}
	]`
	require.NoError(t, kv.KV.Set(ctx, KeyMyRooms, stored))

	called := false
	err := repo.Mutate(ctx, func(rooms []models.Room) ([]models.Room, bool, error) {
		called = true
		room, err := models.NewRoom(len(rooms)+1, models.RoomStairway, "", nil, false, t0)
		return append(rooms, room), true, err
	})
	assert.ErrorIs(t, err, ErrMalformedInventory)
	assert.False(t, called)

	_, err = repo.Migrate(ctx)
	assert.ErrorIs(t, err, ErrMalformedInventory)

	assert.Zero(t, kv.sets)
	raw, err := kv.Get(ctx, KeyMyRooms)
	require.NoError(t, err)
	assert.Equal(t, stored, raw)

	rooms, err := repo.LoadRooms(ctx)
	require.NoError(t, err, "reads still degrade to an empty inventory")
	assert.Empty(t, rooms)
}

func TestRoomRepository_MutateSerializes(t *testing.T) {
	ctx := context.Background()
	repo := NewRoomRepository(store.NewMemoryKV(), zap.NewNop())

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Mutate(ctx, func(rooms []models.Room) ([]models.Room, bool, error) {
				room, err := models.NewRoom(len(rooms)+1, models.RoomBedroom, "", nil, false, t0)
				if err != nil {
					return nil, false, err
				}
				return append(rooms, room), true, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rooms, err := repo.LoadRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, writers)
	for i, room := range rooms {
		assert.Equal(t, i+1, room.ID)
	}
}

func TestRoomRepository_Migrate(t *testing.T) {
	ctx := context.Background()
	kv := &countingKV{KV: store.NewMemoryKV()}
	repo := NewRoomRepository(kv, zap.NewNop())
	repo.SetClock(func() time.Time { return t0 })

	legacy := `[
		{"id":1,"type":"Bathroom","name":"Main Bath","icon":"bath","answers":[1,4],"primary":"true"},
		{"id":2,"type":"Kitchen","name":"My Kitchen","icon":"cutlery","answers":[],"primary":false,
		 "hazardStatus":{},"hazardHistory":[]}
	]`
	require.NoError(t, kv.KV.Set(ctx, KeyMyRooms, legacy))

	n, err := repo.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, kv.sets)

	rooms, err := repo.LoadRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	bath := rooms[0]
	assert.True(t, bool(bath.Primary))
	assert.Equal(t, map[int]models.StatusEntry{
		1: {Status: models.StatusAddressed, Timestamp: t0.UnixMilli()},
		4: {Status: models.StatusAddressed, Timestamp: t0.UnixMilli()},
	}, bath.HazardStatus)
	assert.Empty(t, bath.HazardHistory)
	assert.NotNil(t, bath.HazardHistory)

	n, err = repo.Migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, kv.sets, "second pass does not write")
}

func TestRoomRepository_MigrateNothingStored(t *testing.T) {
	kv := &countingKV{KV: store.NewMemoryKV()}
	repo := NewRoomRepository(kv, zap.NewNop())

	n, err := repo.Migrate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, kv.sets)
}

func TestRoomRepository_MigrateStorageFailure(t *testing.T) {
	_, err := NewRoomRepository(failingKV{}, zap.NewNop()).Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to migrate rooms")
}
