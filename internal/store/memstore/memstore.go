// Package memstore is an in-memory store.DB for tests. Transactions work on a
// copy of the data that replaces the live copy on commit, and only one
// transaction runs at a time.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
)

type tagLink struct {
	tagID, goodID int64
}

type state struct {
	nextID int64

	users         map[int64]models.User
	addresses     map[int64]models.Address
	stores        map[int64]models.Store
	goods         map[int64]models.Good
	styles        map[int64]models.GoodStyle
	details       map[int64]models.GoodDetail
	tags          map[int64]models.Tag
	tagGoods      map[tagLink]struct{}
	banners       map[int64]models.Banner
	cart          map[int64]models.CartItem
	orders        map[int64]models.Order
	items         map[int64]models.OrderItem
	payments      map[int64]models.Payment
	notifications map[int64]models.Notification
	processed     map[string]string
}

func newState() *state {
	return &state{
		users:         map[int64]models.User{},
		addresses:     map[int64]models.Address{},
		stores:        map[int64]models.Store{},
		goods:         map[int64]models.Good{},
		styles:        map[int64]models.GoodStyle{},
		details:       map[int64]models.GoodDetail{},
		tags:          map[int64]models.Tag{},
		tagGoods:      map[tagLink]struct{}{},
		banners:       map[int64]models.Banner{},
		cart:          map[int64]models.CartItem{},
		orders:        map[int64]models.Order{},
		items:         map[int64]models.OrderItem{},
		payments:      map[int64]models.Payment{},
		notifications: map[int64]models.Notification{},
		processed:     map[string]string{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		nextID:        s.nextID,
		users:         cloneMap(s.users),
		addresses:     cloneMap(s.addresses),
		stores:        cloneMap(s.stores),
		goods:         cloneMap(s.goods),
		styles:        cloneMap(s.styles),
		details:       cloneMap(s.details),
		tags:          cloneMap(s.tags),
		tagGoods:      cloneMap(s.tagGoods),
		banners:       cloneMap(s.banners),
		cart:          cloneMap(s.cart),
		orders:        cloneMap(s.orders),
		items:         cloneMap(s.items),
		payments:      cloneMap(s.payments),
		notifications: cloneMap(s.notifications),
		processed:     cloneMap(s.processed),
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// DB is the in-memory database
type DB struct {
	*Repo

	mu sync.Mutex
	st *state

	faultMu sync.Mutex
	faults  map[string]error
}

var _ store.DB = (*DB)(nil)

// New returns an empty database
func New() *DB {
	db := &DB{st: newState(), faults: map[string]error{}}
	db.Repo = &Repo{db: db}
	return db
}

// Fail makes every later call of the named repository method return err
func (db *DB) Fail(method string, err error) {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	db.faults[method] = err
}

// Heal clears all injected failures
func (db *DB) Heal() {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	db.faults = map[string]error{}
}

func (db *DB) fault(method string) error {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	return db.faults[method]
}

// InTx runs fn against a private copy and publishes it when fn returns nil
func (db *DB) InTx(ctx context.Context, fn func(tx store.Repository) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := db.st.clone()
	if err := fn(&Repo{db: db, tx: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	db.st = work
	return nil
}

// Repo implements store.Repository. Outside a transaction every call takes the
// database lock; inside one the lock is already held by InTx.
type Repo struct {
	db *DB
	tx *state
}

func (r *Repo) run(method string, fn func(st *state) error) error {
	if err := r.db.fault(method); err != nil {
		return err
	}
	if r.tx != nil {
		return fn(r.tx)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return fn(r.db.st)
}

func paginate[T any](rows []T, page store.Page) []T {
	if page.Offset >= len(rows) {
		return rows[:0]
	}
	rows = rows[page.Offset:]
	if page.Limit > 0 && page.Limit < len(rows) {
		rows = rows[:page.Limit]
	}
	return rows
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func now() time.Time {
	return time.Now().UTC()
}
