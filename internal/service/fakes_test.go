package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shinyyama/market-backend/internal/auth"
	"github.com/shinyyama/market-backend/internal/events"
	"github.com/shinyyama/market-backend/internal/mailer"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
	"gorm.io/gorm"
)

var errFake = errors.New("fake failure")

// ---- users ----

type fakeUsers struct {
	mu     sync.Mutex
	rows   map[uint64]model.User
	nextID uint64
}

func newFakeUsers(users ...model.User) *fakeUsers {
	f := &fakeUsers{rows: map[uint64]model.User{}}
	for _, u := range users {
		f.rows[u.ID] = u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.rows[u.ID] = *u
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.FindByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[u.ID] = *u
	return nil
}

func (f *fakeUsers) UpdateOrders(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.rows[u.ID]
	row.Orders = append(row.Orders[:0:0], u.Orders...)
	f.rows[u.ID] = row
	return nil
}

func (f *fakeUsers) UpdateRoleByEmail(ctx context.Context, email string, role model.Role) (*model.User, error) {
	u, err := f.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	u.Role = role
	return u, f.Update(ctx, u)
}

func (f *fakeUsers) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.rows))
	for _, u := range f.rows {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.rows, id)
	return nil
}

// ---- categories ----

type fakeCategories struct {
	mu     sync.Mutex
	rows   map[uint64]model.Category
	nextID uint64
	finds  int
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{rows: map[uint64]model.Category{}}
}

func (f *fakeCategories) Create(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeCategories) FindByID(_ context.Context, id uint64) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	c, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (f *fakeCategories) FindByName(_ context.Context, name string) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			c := c
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCategories) List(_ context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Category, 0, len(f.rows))
	for _, c := range f.rows {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCategories) Update(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.rows, id)
	return nil
}

// ---- products ----

type fakeProducts struct {
	mu     sync.Mutex
	rows   map[uint64]model.Product
	nextID uint64
	lists  int
}

func newFakeProducts(products ...model.Product) *fakeProducts {
	f := &fakeProducts{rows: map[uint64]model.Product{}}
	for _, p := range products {
		f.rows[p.ID] = p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakeProducts) Create(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeProducts) FindByID(_ context.Context, id uint64) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (f *fakeProducts) List(_ context.Context, flt repository.ProductFilter, limit, offset int) ([]model.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var all []model.Product
	for _, p := range f.rows {
		if flt.SellerID != 0 && p.SellerID != flt.SellerID {
			continue
		}
		if flt.CategoryID != 0 && p.CategoryID != flt.CategoryID {
			continue
		}
		if flt.Query != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), strings.ToLower(flt.Query)) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeProducts) Update(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeProducts) UpdateRating(_ context.Context, id uint64, rating float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.rows[id]
	p.Rating = rating
	f.rows[id] = p
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.rows, id)
	return nil
}

// ---- orders ----

// fakeOrders mirrors the status guard of the gorm repository.
type fakeOrders struct {
	mu        sync.Mutex
	rows      map[uint64]model.Order
	nextID    uint64
	products  *fakeProducts
	UpdateErr error
	updates   int
}

func newFakeOrders(products *fakeProducts, orders ...model.Order) *fakeOrders {
	f := &fakeOrders{rows: map[uint64]model.Order{}, products: products}
	for _, o := range orders {
		f.rows[o.ID] = o
		if o.ID > f.nextID {
			f.nextID = o.ID
		}
	}
	return f
}

func (f *fakeOrders) Create(_ context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.TransactionID == o.TransactionID {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = time.Now()
	row := *o
	row.Product = nil
	f.rows[o.ID] = row
	return nil
}

func (f *fakeOrders) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	f.mu.Lock()
	o, ok := f.rows[id]
	f.mu.Unlock()
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if f.products != nil {
		if p, err := f.products.FindByID(ctx, o.ProductID); err == nil {
			o.Product = p
		}
	}
	return &o, nil
}

func (f *fakeOrders) list(match func(model.Order) bool) []model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Order
	for _, o := range f.rows {
		if match(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeOrders) ListByUser(_ context.Context, userID uint64) ([]model.Order, error) {
	return f.list(func(o model.Order) bool { return o.UserID == userID }), nil
}

func (f *fakeOrders) ListAll(_ context.Context) ([]model.Order, error) {
	return f.list(func(model.Order) bool { return true }), nil
}

func (f *fakeOrders) ListIDsByProduct(_ context.Context, productID uint64) ([]uint64, error) {
	var ids []uint64
	for _, o := range f.list(func(o model.Order) bool { return o.ProductID == productID }) {
		ids = append(ids, o.ID)
	}
	return ids, nil
}

func (f *fakeOrders) FindCompleted(_ context.Context, userID, productID, orderID uint64) (*model.Order, error) {
	found := f.list(func(o model.Order) bool {
		return o.UserID == userID && o.ProductID == productID && o.Status == model.OrderStatusCompleted &&
			(orderID == 0 || o.ID == orderID)
	})
	if len(found) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &found[0], nil
}

func (f *fakeOrders) Update(_ context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	stored, ok := f.rows[o.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := model.CheckStatusChange(stored.Status, o.Status); err != nil {
		return err
	}
	row := *o
	row.Product = nil
	f.rows[o.ID] = row
	return nil
}

func (f *fakeOrders) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeOrders) DeleteByProduct(_ context.Context, productID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, o := range f.rows {
		if o.ProductID == productID {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeOrders) get(id uint64) model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

// ---- payments ----

type fakePayments struct {
	mu     sync.Mutex
	rows   map[uint64]model.Payment
	nextID uint64
}

func newFakePayments() *fakePayments {
	return &fakePayments{rows: map[uint64]model.Payment{}}
}

func (f *fakePayments) Create(_ context.Context, p *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.TransactionID == p.TransactionID {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	p.ID = f.nextID
	f.rows[p.ID] = *p
	return nil
}

func (f *fakePayments) FindByID(_ context.Context, id uint64) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (f *fakePayments) FindByOrder(_ context.Context, orderID uint64) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.OrderID == orderID {
			p := p
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayments) ListByUser(_ context.Context, userID uint64) ([]model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Payment
	for _, p := range f.rows {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePayments) ListAll(_ context.Context) ([]model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Payment
	for _, p := range f.rows {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePayments) UpdateStatus(_ context.Context, id uint64, status model.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.rows[id]
	p.Status = status
	f.rows[id] = p
	return nil
}

func (f *fakePayments) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakePayments) DeleteByOrders(_ context.Context, orderIDs []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.rows {
		for _, oid := range orderIDs {
			if p.OrderID == oid {
				delete(f.rows, id)
			}
		}
	}
	return nil
}

// ---- reviews ----

type fakeReviews struct {
	mu     sync.Mutex
	rows   []model.Review
	nextID uint64
}

func (f *fakeReviews) Create(_ context.Context, r *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.rows {
		if x.ProductID == r.ProductID && x.UserID == r.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	r.ID = f.nextID
	f.rows = append(f.rows, *r)
	return nil
}

func (f *fakeReviews) Exists(_ context.Context, productID, userID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.rows {
		if x.ProductID == productID && x.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviews) ListByProduct(_ context.Context, productID uint64) ([]model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Review
	for _, x := range f.rows {
		if x.ProductID == productID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (f *fakeReviews) Ratings(ctx context.Context, productID uint64) ([]int, error) {
	list, _ := f.ListByProduct(ctx, productID)
	out := make([]int, 0, len(list))
	for _, r := range list {
		out = append(out, r.Rating)
	}
	return out, nil
}

func (f *fakeReviews) DeleteByProduct(_ context.Context, productID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, x := range f.rows {
		if x.ProductID != productID {
			kept = append(kept, x)
		}
	}
	f.rows = kept
	return nil
}

// ---- notifications ----

type fakeNotifications struct {
	mu        sync.Mutex
	rows      map[uint64]model.Notification
	nextID    uint64
	CreateErr error
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{rows: map[uint64]model.Notification{}}
}

func (f *fakeNotifications) Create(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.nextID++
	n.ID = f.nextID
	f.rows[n.ID] = *n
	return nil
}

func (f *fakeNotifications) FindByID(_ context.Context, id uint64) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &n, nil
}

func (f *fakeNotifications) ListByUser(_ context.Context, userID uint64) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.rows[id]
	n.IsRead = true
	f.rows[id] = n
	return nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, x := range f.rows {
		if x.UserID == userID && !x.IsRead {
			x.IsRead = true
			f.rows[id] = x
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) PurgeRead(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, x := range f.rows {
		if x.IsRead && x.NotificationDate.Before(cutoff) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) DeleteByUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, x := range f.rows {
		if x.UserID == userID {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeNotifications) DeleteByRelated(_ context.Context, relatedModel string, relatedID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, x := range f.rows {
		if x.RelatedModel == relatedModel && x.RelatedID != nil && *x.RelatedID == relatedID {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeNotifications) byType(userID uint64, typ model.NotificationType) []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, x := range f.rows {
		if x.UserID == userID && x.Type == typ {
			out = append(out, x)
		}
	}
	return out
}

// ---- cache ----

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	// DelErr is returned by Del and DeletePrefix when set.
	DelErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DelErr != nil {
		return c.DelErr
	}
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) Take(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	delete(c.data, key)
	return v, ok, nil
}

func (c *fakeCache) DeletePrefix(_ context.Context, prefix string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DelErr != nil {
		return 0, c.DelErr
	}
	var n int64
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// ---- media ----

type fakeMedia struct {
	mu        sync.Mutex
	uploads   []string
	destroyed []string
	UploadErr error
}

func (m *fakeMedia) Upload(_ context.Context, _ string, folder string, width int) (model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UploadErr != nil {
		return model.Asset{}, m.UploadErr
	}
	id := folder + "/" + string(rune('a'+len(m.uploads)))
	m.uploads = append(m.uploads, id)
	return model.Asset{PublicID: id, URL: "https://cdn.test/" + id}, nil
}

func (m *fakeMedia) Destroy(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyed = append(m.destroyed, publicID)
	return nil
}

// ---- mail ----

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	Err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Data.(mailer.CodeData).Code
}

// ---- sessions ----

type fakeSessions struct {
	mu   sync.Mutex
	rows map[uint64]auth.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rows: map[uint64]auth.Session{}}
}

func (f *fakeSessions) Save(_ context.Context, s auth.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[s.ID] = s
	return nil
}

func (f *fakeSessions) Load(_ context.Context, userID uint64) (*auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[userID]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	return &s, nil
}

func (f *fakeSessions) Delete(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, userID)
	return nil
}

// ---- events ----

type fakePublisher struct {
	mu   sync.Mutex
	sent []events.Envelope
}

func (p *fakePublisher) Publish(_ context.Context, _ string, env events.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, env)
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, e := range p.sent {
		out = append(out, e.EventType)
	}
	return out
}

// ---- social ----

type fakeVerifier struct {
	identity *auth.SocialIdentity
	err      error
}

func (v fakeVerifier) Verify(context.Context, string) (*auth.SocialIdentity, error) {
	return v.identity, v.err
}
