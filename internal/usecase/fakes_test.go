package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"stockfield/internal/domain/model"
	repo "stockfield/internal/repository"

	"gorm.io/gorm"
)

// =====================
// メモリ上のストア（txはコピーして成功時だけ戻す）
// =====================

type memData struct {
	products  map[string]model.Product
	suppliers map[string]model.Supplier
	movements []model.Movement
	audits    []model.AuditLog
}

func (d *memData) clone() *memData {
	c := &memData{
		products:  make(map[string]model.Product, len(d.products)),
		suppliers: make(map[string]model.Supplier, len(d.suppliers)),
		movements: append([]model.Movement(nil), d.movements...),
		audits:    append([]model.AuditLog(nil), d.audits...),
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.suppliers {
		c.suppliers[k] = v
	}
	return c
}

type memStore struct {
	mu   sync.Mutex
	data *memData

	// 次のN回の商品書き込みをversion競合にする
	conflicts int
	// 設定されていればList/FindByIDが失敗する
	failReads error
	txCount   int
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		products:  map[string]model.Product{},
		suppliers: map[string]model.Supplier{},
	}}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	work := s.data.clone()
	if err := fn(memTx{st: s, d: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *memStore) productRepo() repo.ProductRepository {
	return memProducts{st: s, d: nil}
}

func (s *memStore) supplierRepo() repo.SupplierRepository {
	return memSuppliers{st: s, d: nil}
}

func (s *memStore) movementRepo() repo.MovementRepository {
	return memMovements{st: s, d: nil}
}

func (s *memStore) auditRepo() repo.AuditLogRepository {
	return memAudits{st: s, d: nil}
}

func (s *memStore) putProduct(p model.Product) {
	s.data.products[p.ID] = p
}

func (s *memStore) putSupplier(sp model.Supplier) {
	s.data.suppliers[sp.ID] = sp
}

func (s *memStore) product(id string) model.Product {
	return s.data.products[id]
}

func (s *memStore) audits() []model.AuditLog {
	return s.data.audits
}

func (s *memStore) movements() []model.Movement {
	return s.data.movements
}

type memTx struct {
	st *memStore
	d  *memData
}

func (t memTx) Products() repo.ProductRepository   { return memProducts{st: t.st, d: t.d} }
func (t memTx) Suppliers() repo.SupplierRepository { return memSuppliers{st: t.st, d: t.d} }
func (t memTx) Movements() repo.MovementRepository { return memMovements{st: t.st, d: t.d} }
func (t memTx) AuditLogs() repo.AuditLogRepository { return memAudits{st: t.st, d: t.d} }

// txの外から使うときはdがnilで、ストアの現在値を読む
func pick(st *memStore, d *memData) *memData {
	if d != nil {
		return d
	}
	return st.data
}

// =====================
// products
// =====================

type memProducts struct {
	st *memStore
	d  *memData
}

func (r memProducts) FindByID(ctx context.Context, id string) (model.Product, error) {
	if r.st.failReads != nil {
		return model.Product{}, r.st.failReads
	}
	p, ok := pick(r.st, r.d).products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) List(ctx context.Context, f repo.ProductFilter) ([]model.Product, error) {
	if r.st.failReads != nil {
		return nil, r.st.failReads
	}
	out := []model.Product{}
	for _, p := range pick(r.st, r.d).products {
		if p.DeletedAt.Valid {
			continue
		}
		if f.OwnerID != "" && p.OwnerID != f.OwnerID {
			continue
		}
		if f.SupplierID != "" && p.SupplierID != f.SupplierID {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		if f.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Q)) {
			continue
		}
		if f.WithExpiryOnly && p.ExpiryDate == nil {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

func (r memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	d := pick(r.st, r.d)
	if _, ok := d.products[p.ID]; ok {
		return model.Product{}, fmt.Errorf("duplicate id %s", p.ID)
	}
	d.products[p.ID] = p
	return p, nil
}

func (r memProducts) write(id string, version int64, apply func(p *model.Product)) error {
	d := pick(r.st, r.d)
	cur, ok := d.products[id]
	if !ok || cur.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	if r.st.conflicts > 0 {
		r.st.conflicts--
		return repo.ErrVersionConflict
	}
	if cur.Version != version {
		return repo.ErrVersionConflict
	}
	apply(&cur)
	cur.Version = version + 1
	d.products[id] = cur
	return nil
}

func (r memProducts) Update(ctx context.Context, p model.Product) error {
	return r.write(p.ID, p.Version, func(cur *model.Product) {
		*cur = p
	})
}

func (r memProducts) UpdateStatus(ctx context.Context, u repo.ProductStatusUpdate) error {
	return r.write(u.ID, u.Version, func(cur *model.Product) {
		cur.Status = u.Status
		cur.DaysUntilExpiry = u.DaysUntilExpiry
	})
}

func (r memProducts) SoftDelete(ctx context.Context, id string) error {
	d := pick(r.st, r.d)
	cur, ok := d.products[id]
	if !ok || cur.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	cur.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	d.products[id] = cur
	return nil
}

func (r memProducts) CountBySupplier(ctx context.Context, supplierID string) (int64, error) {
	var n int64
	for _, p := range pick(r.st, r.d).products {
		if !p.DeletedAt.Valid && p.SupplierID == supplierID {
			n++
		}
	}
	return n, nil
}

func (r memProducts) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	for _, p := range pick(r.st, r.d).products {
		if !p.DeletedAt.Valid && p.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r memProducts) CountByStatus(ctx context.Context) (map[model.ProductStatus]int64, error) {
	out := map[model.ProductStatus]int64{}
	for _, p := range pick(r.st, r.d).products {
		if !p.DeletedAt.Valid {
			out[p.Status]++
		}
	}
	return out, nil
}

// =====================
// suppliers
// =====================

type memSuppliers struct {
	st *memStore
	d  *memData
}

func (r memSuppliers) FindByID(ctx context.Context, id string) (model.Supplier, error) {
	s, ok := pick(r.st, r.d).suppliers[id]
	if !ok || s.DeletedAt.Valid {
		return model.Supplier{}, repo.ErrNotFound
	}
	return s, nil
}

func (r memSuppliers) List(ctx context.Context, f repo.SupplierFilter) ([]model.Supplier, error) {
	out := []model.Supplier{}
	for _, s := range pick(r.st, r.d).suppliers {
		if s.DeletedAt.Valid {
			continue
		}
		if f.OwnerID != "" && s.OwnerID != f.OwnerID {
			continue
		}
		if f.Q != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Q)) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

func (r memSuppliers) Create(ctx context.Context, s model.Supplier) (model.Supplier, error) {
	pick(r.st, r.d).suppliers[s.ID] = s
	return s, nil
}

func (r memSuppliers) Update(ctx context.Context, s model.Supplier) error {
	d := pick(r.st, r.d)
	if _, ok := d.suppliers[s.ID]; !ok {
		return repo.ErrNotFound
	}
	d.suppliers[s.ID] = s
	return nil
}

func (r memSuppliers) SoftDelete(ctx context.Context, id string) error {
	d := pick(r.st, r.d)
	s, ok := d.suppliers[id]
	if !ok || s.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	s.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	d.suppliers[id] = s
	return nil
}

func (r memSuppliers) Count(ctx context.Context) (int64, error) {
	var n int64
	for _, s := range pick(r.st, r.d).suppliers {
		if !s.DeletedAt.Valid {
			n++
		}
	}
	return n, nil
}

// =====================
// movements / audit logs
// =====================

type memMovements struct {
	st *memStore
	d  *memData
}

func (r memMovements) Append(ctx context.Context, m model.Movement) error {
	d := pick(r.st, r.d)
	d.movements = append(d.movements, m)
	return nil
}

func (r memMovements) List(ctx context.Context, f repo.MovementFilter) ([]model.Movement, error) {
	out := []model.Movement{}
	for _, m := range pick(r.st, r.d).movements {
		if f.OwnerID != "" && m.OwnerID != f.OwnerID {
			continue
		}
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.Type != nil && m.Type != *f.Type {
			continue
		}
		if f.From != nil && m.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && m.Date.After(*f.To) {
			continue
		}
		out = append(out, m)
	}
	return page(out, f.Limit, f.Offset), nil
}

func (r memMovements) CountByType(ctx context.Context, t model.MovementType) (int64, error) {
	var n int64
	for _, m := range pick(r.st, r.d).movements {
		if m.Type == t {
			n++
		}
	}
	return n, nil
}

type memAudits struct {
	st *memStore
	d  *memData
}

func (r memAudits) Create(ctx context.Context, l model.AuditLog) error {
	d := pick(r.st, r.d)
	l.ID = int64(len(d.audits) + 1)
	d.audits = append(d.audits, l)
	return nil
}

func (r memAudits) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for _, l := range pick(r.st, r.d).audits {
		if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
			continue
		}
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		out = append(out, l)
	}
	return page(out, f.Limit, f.Offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// =====================
// users
// =====================

type memUsers struct {
	users map[string]model.User
}

func newMemUsers(us ...model.User) *memUsers {
	m := &memUsers{users: map[string]model.User{}}
	for _, u := range us {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(ctx context.Context, u *model.User) error {
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			u := u
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) FindByDocument(ctx context.Context, document string) (*model.User, error) {
	for _, u := range m.users {
		if u.Document == document {
			u := u
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) List(ctx context.Context, f repo.UserFilter) ([]model.User, error) {
	out := []model.User{}
	for _, u := range m.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

func (m *memUsers) Update(ctx context.Context, u *model.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUsers) IncrementTokenVersion(ctx context.Context, id string) error {
	u, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.TokenVersion++
	m.users[id] = u
	return nil
}

func (m *memUsers) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	out := map[model.Role]int64{}
	for _, u := range m.users {
		out[u.Role]++
	}
	return out, nil
}

var (
	_ repo.TransactionManager = (*memStore)(nil)
	_ repo.UserRepository     = (*memUsers)(nil)
)

// =====================
// clock / id
// =====================

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type seqIDs struct {
	n int
}

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func sp(s string) *string { return &s }

func ip(i int) *int { return &i }

// 2026-03-10 09:00 UTC
var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
