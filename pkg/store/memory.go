package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"greencreditapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Memory is an in-process Store. Documents are kept in insertion order.
type Memory struct {
	mu           sync.Mutex
	users        []schemas.User
	submissions  map[schemas.Kind][]schemas.Submission
	solarRewards []schemas.SolarReward
	solarReqs    []schemas.SolarRequest
	solarApps    []schemas.SolarApplication
	products     []schemas.Product
	orders       []schemas.Order
	ledger       []schemas.LedgerEntry
	messages     []schemas.ChatMessage
	events       []schemas.CleanupEvent
	regs         []schemas.EventRegistration
}

func NewMemory() *Memory {
	return &Memory{submissions: map[schemas.Kind][]schemas.Submission{}}
}

func newId(id string) string {
	if id != "" {
		return id
	}
	return bson.NewObjectID().Hex()
}

func (m *Memory) CreateUser(ctx context.Context, user *schemas.User) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	user.Id = newId(user.Id)
	for _, u := range m.users {
		if u.Id == user.Id || (user.Email != "" && u.Email == user.Email) {
			return ErrConflict
		}
	}
	m.users = append(m.users, *user)
	return nil

}

func (m *Memory) findUser(match func(u *schemas.User) bool) (*schemas.User, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.users {
		if match(&m.users[i]) {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound

}

func (m *Memory) GetUser(ctx context.Context, id string) (*schemas.User, error) {
	return m.findUser(func(u *schemas.User) bool { return u.Id == id })
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*schemas.User, error) {
	return m.findUser(func(u *schemas.User) bool { return email != "" && u.Email == email })
}

func (m *Memory) GetUserByGoogleId(ctx context.Context, googleId string) (*schemas.User, error) {
	return m.findUser(func(u *schemas.User) bool { return googleId != "" && u.GoogleId == googleId })
}

func (m *Memory) EnsureUser(ctx context.Context, user *schemas.User) (*schemas.User, error) {

	if u, err := m.GetUser(ctx, user.Id); err == nil {
		return u, nil
	}
	if err := m.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	u := *user
	return &u, nil

}

func (m *Memory) ListUsers(ctx context.Context) ([]schemas.User, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.users), nil

}

func (m *Memory) UpdateProfile(ctx context.Context, id string, firstName string, lastName string) (*schemas.User, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.users {
		if m.users[i].Id == id {
			m.users[i].FirstName = firstName
			m.users[i].LastName = lastName
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound

}

func (m *Memory) AddCachedTokens(ctx context.Context, id string, delta int) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.users {
		if m.users[i].Id == id {
			m.users[i].TotalTokens += delta
			return nil
		}
	}
	return ErrNotFound

}

func (m *Memory) InsertSubmission(ctx context.Context, sub *schemas.Submission) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	sub.Id = newId(sub.Id)
	for _, s := range m.submissions[sub.Kind] {
		if s.Id == sub.Id {
			return ErrConflict
		}
	}
	m.submissions[sub.Kind] = append(m.submissions[sub.Kind], *sub)
	return nil

}

func (m *Memory) GetSubmission(ctx context.Context, kind schemas.Kind, id string) (*schemas.Submission, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.submissions[kind] {
		if s.Id == id {
			return &s, nil
		}
	}
	return nil, ErrNotFound

}

func (m *Memory) ListSubmissions(ctx context.Context, kind schemas.Kind, filter SubmissionFilter) ([]schemas.Submission, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	subs := []schemas.Submission{}
	for _, s := range m.submissions[kind] {
		if filter.UserId != "" && s.UserId != filter.UserId {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		subs = append(subs, s)
	}
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].Ctime.After(subs[j].Ctime) })
	return subs, nil

}

func (m *Memory) ReviewSubmission(ctx context.Context, kind schemas.Kind, id string, review Review) (*schemas.Submission, *schemas.Submission, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.submissions[kind]
	for i := range subs {
		if subs[i].Id != id {
			continue
		}
		before := subs[i]
		now := time.Now().UTC()
		subs[i].Status = review.Status
		subs[i].Tokens = review.Tokens
		if review.Rating != nil {
			subs[i].Rating = review.Rating
		}
		subs[i].ReviewedBy = review.ReviewedBy
		subs[i].ReviewedAt = &now
		after := subs[i]
		return &before, &after, nil
	}
	return nil, nil, ErrNotFound

}

func (m *Memory) DeleteSubmission(ctx context.Context, kind schemas.Kind, id string, userId string) (*schemas.Submission, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.submissions[kind]
	for i, s := range subs {
		if s.Id != id || s.UserId != userId {
			continue
		}
		if !s.Deletable() {
			return nil, ErrNotDeletable
		}
		m.submissions[kind] = slices.Delete(subs, i, i+1)
		return &s, nil
	}
	return nil, ErrNotFound

}

func (m *Memory) UpsertSolarReward(ctx context.Context, reward *schemas.SolarReward) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.solarRewards {
		if m.solarRewards[i].Id == reward.Id {
			m.solarRewards[i] = *reward
			return nil
		}
	}
	m.solarRewards = append(m.solarRewards, *reward)
	return nil

}

func (m *Memory) DeleteSolarReward(ctx context.Context, id string) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.solarRewards = slices.DeleteFunc(m.solarRewards, func(r schemas.SolarReward) bool { return r.Id == id })
	return nil

}

func (m *Memory) ListSolarRewards(ctx context.Context, userId string) ([]schemas.SolarReward, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	rewards := []schemas.SolarReward{}
	for _, r := range m.solarRewards {
		if r.UserId == userId {
			rewards = append(rewards, r)
		}
	}
	return rewards, nil

}

func (m *Memory) InsertSolarRequest(ctx context.Context, req *schemas.SolarRequest) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	req.Id = newId(req.Id)
	m.solarReqs = append(m.solarReqs, *req)
	return nil

}

func (m *Memory) solarRequest(id string) *schemas.SolarRequest {
	for i := range m.solarReqs {
		if m.solarReqs[i].Id == id {
			return &m.solarReqs[i]
		}
	}
	return nil
}

func (m *Memory) GetSolarRequest(ctx context.Context, id string) (*schemas.SolarRequest, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	req := m.solarRequest(id)
	if req == nil {
		return nil, ErrNotFound
	}
	r := *req
	return &r, nil

}

func (m *Memory) ListSolarRequests(ctx context.Context, filter SolarRequestFilter) ([]schemas.SolarRequest, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	reqs := []schemas.SolarRequest{}
	for _, r := range m.solarReqs {
		if filter.UserId != "" && r.UserId != filter.UserId {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		reqs = append(reqs, r)
	}
	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].Ctime.After(reqs[j].Ctime) })
	return reqs, nil

}

func (m *Memory) AcceptInstaller(ctx context.Context, requestId string, ownerId string, applicationId string) (*schemas.SolarRequest, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	req := m.solarRequest(requestId)
	if req == nil || req.UserId != ownerId {
		return nil, ErrNotFound
	}
	var app *schemas.SolarApplication
	for i := range m.solarApps {
		if m.solarApps[i].Id == applicationId && m.solarApps[i].RequestId == requestId {
			app = &m.solarApps[i]
		}
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if req.Status != schemas.SOLAR_REQUEST_OPEN {
		return nil, ErrConflict
	}

	req.Status = schemas.SOLAR_REQUEST_IN_PROGRESS
	req.AcceptedInstallerId = app.UserId
	app.Status = schemas.SOLAR_APPLICATION_ACCEPTED
	r := *req
	return &r, nil

}

func (m *Memory) SetSolarRequestStatus(ctx context.Context, id string, status string) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	req := m.solarRequest(id)
	if req == nil {
		return ErrNotFound
	}
	req.Status = status
	return nil

}

func (m *Memory) MarkCompletedByOwner(ctx context.Context, id string, ownerId string) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	req := m.solarRequest(id)
	if req == nil || req.UserId != ownerId {
		return ErrNotFound
	}
	req.CompletedByOwner = true
	return nil

}

func (m *Memory) InsertSolarApplication(ctx context.Context, app *schemas.SolarApplication) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.solarApps {
		if a.RequestId == app.RequestId && a.UserId == app.UserId {
			return ErrConflict
		}
	}
	app.Id = newId(app.Id)
	m.solarApps = append(m.solarApps, *app)
	return nil

}

func (m *Memory) ListSolarApplications(ctx context.Context, requestId string) ([]schemas.SolarApplication, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	apps := []schemas.SolarApplication{}
	for _, a := range m.solarApps {
		if a.RequestId == requestId {
			apps = append(apps, a)
		}
	}
	return apps, nil

}

func (m *Memory) InsertCleanupEvent(ctx context.Context, event *schemas.CleanupEvent) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	event.Id = newId(event.Id)
	m.events = append(m.events, *event)
	return nil

}

func (m *Memory) GetCleanupEvent(ctx context.Context, id string) (*schemas.CleanupEvent, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.events {
		if e.Id == id {
			return &e, nil
		}
	}
	return nil, ErrNotFound

}

func (m *Memory) ListCleanupEvents(ctx context.Context, from time.Time) ([]schemas.CleanupEvent, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	events := []schemas.CleanupEvent{}
	for _, e := range m.events {
		if !e.StartsAt.Before(from) {
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events, nil

}

func (m *Memory) InsertEventRegistration(ctx context.Context, reg *schemas.EventRegistration) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.regs {
		if r.EventId == reg.EventId && r.UserId == reg.UserId {
			return ErrConflict
		}
	}
	reg.Id = newId(reg.Id)
	m.regs = append(m.regs, *reg)
	return nil

}

func (m *Memory) GetEventRegistration(ctx context.Context, eventId string, userId string) (*schemas.EventRegistration, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.regs {
		if r.EventId == eventId && r.UserId == userId {
			return &r, nil
		}
	}
	return nil, ErrNotFound

}

func (m *Memory) ListEventRegistrations(ctx context.Context, userId string) ([]schemas.EventRegistration, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	regs := []schemas.EventRegistration{}
	for i := len(m.regs) - 1; i >= 0; i-- {
		if m.regs[i].UserId == userId {
			regs = append(regs, m.regs[i])
		}
	}
	return regs, nil

}

func (m *Memory) InsertProduct(ctx context.Context, product *schemas.Product) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	product.Id = newId(product.Id)
	m.products = append(m.products, *product)
	return nil

}

func (m *Memory) GetProduct(ctx context.Context, id string) (*schemas.Product, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.products {
		if p.Id == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound

}

func (m *Memory) ListProducts(ctx context.Context) ([]schemas.Product, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.products), nil

}

func (m *Memory) PlaceOrder(ctx context.Context, order *schemas.Order, debit *schemas.LedgerEntry) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.orders {
		if o.UserId == order.UserId && o.IdempotencyKey == order.IdempotencyKey {
			return ErrDuplicateOrder
		}
	}

	balance := 0
	for _, e := range m.ledger {
		if e.UserId == order.UserId {
			balance += e.Amount
		}
	}
	if balance < order.Total {
		return ErrInsufficientBalance
	}

	m.orders = append(m.orders, *order)
	m.ledger = append(m.ledger, *debit)
	for i := range m.users {
		if m.users[i].Id == order.UserId {
			m.users[i].LedgerSeq++
		}
	}
	return nil

}

func (m *Memory) GetOrder(ctx context.Context, id string) (*schemas.Order, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.orders {
		if o.Id == id {
			return &o, nil
		}
	}
	return nil, ErrNotFound

}

func (m *Memory) GetOrderByIdempotencyKey(ctx context.Context, userId string, key string) (*schemas.Order, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.orders {
		if o.UserId == userId && o.IdempotencyKey == key {
			return &o, nil
		}
	}
	return nil, ErrNotFound

}

func (m *Memory) ListOrders(ctx context.Context, userId string) ([]schemas.Order, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	orders := []schemas.Order{}
	for _, o := range m.orders {
		if o.UserId == userId {
			orders = append(orders, o)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].Ctime.After(orders[j].Ctime) })
	return orders, nil

}

func (m *Memory) AppendLedger(ctx context.Context, entry *schemas.LedgerEntry) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	entry.Id = newId(entry.Id)
	m.ledger = append(m.ledger, *entry)
	return nil

}

func (m *Memory) ListLedger(ctx context.Context, userId string) ([]schemas.LedgerEntry, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	entries := []schemas.LedgerEntry{}
	for _, e := range m.ledger {
		if e.UserId == userId {
			entries = append(entries, e)
		}
	}
	return entries, nil

}

func (m *Memory) InsertMessage(ctx context.Context, msg *schemas.ChatMessage) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	msg.Id = newId(msg.Id)
	m.messages = append(m.messages, *msg)
	return nil

}

func (m *Memory) ListMessages(ctx context.Context, userId string) ([]schemas.ChatMessage, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := []schemas.ChatMessage{}
	for _, msg := range m.messages {
		if msg.UserId == userId {
			msgs = append(msgs, msg)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Ctime.Before(msgs[j].Ctime) })
	return msgs, nil

}

func (m *Memory) ListThreads(ctx context.Context) ([]schemas.ChatThread, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	byUser := map[string]*schemas.ChatThread{}
	threads := []*schemas.ChatThread{}
	for _, msg := range m.messages {
		t, ok := byUser[msg.UserId]
		if !ok {
			t = &schemas.ChatThread{UserId: msg.UserId}
			byUser[msg.UserId] = t
			threads = append(threads, t)
		}
		t.Count++
		if !msg.Ctime.Before(t.LastAt) {
			t.LastAt = msg.Ctime
			t.LastMessage = msg.Message
			t.LastSender = msg.Sender
		}
	}

	res := make([]schemas.ChatThread, 0, len(threads))
	for _, t := range threads {
		res = append(res, *t)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].LastAt.After(res[j].LastAt) })
	return res, nil

}

var _ Store = (*Memory)(nil)
