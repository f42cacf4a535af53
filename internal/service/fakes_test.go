package service

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/mongo"
	"SetMatch/internal/pkg/realtime"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memNotificationRepo struct {
	mu             sync.Mutex
	items          map[primitive.ObjectID]*mongo.Notification
	order          []primitive.ObjectID
	failTransition map[primitive.ObjectID]error
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{
		items:          make(map[primitive.ObjectID]*mongo.Notification),
		failTransition: make(map[primitive.ObjectID]error),
	}
}

func cloneNotification(n *mongo.Notification) *mongo.Notification {
	c := *n
	c.Cards = append([]mongo.Card(nil), n.Cards...)
	return &c
}

func (r *memNotificationRepo) Create(_ context.Context, n *mongo.Notification) error {
	if n.UserID == 0 || n.Message == "" || (n.Role != mongo.RoleSender && n.Role != mongo.RoleReceiver) {
		return mongo.ErrInvalidDocument
	}
	switch n.Type {
	case mongo.TypeSystem:
	case mongo.TypeOffer:
		if len(n.Cards) == 0 || n.Amount == nil {
			return mongo.ErrInvalidDocument
		}
	case mongo.TypeFriendRequest:
		if n.FriendRequestID == nil {
			return mongo.ErrInvalidDocument
		}
	default:
		return mongo.ErrInvalidDocument
	}
	if n.IsNegotiable() && n.Status == "" {
		n.Status = mongo.StatusPending
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = primitive.NewObjectID()
	r.items[n.ID] = cloneNotification(n)
	r.order = append(r.order, n.ID)
	return nil
}

func (r *memNotificationRepo) GetByID(_ context.Context, id primitive.ObjectID) (*mongo.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNotFound
	}
	return cloneNotification(n), nil
}

func (r *memNotificationRepo) List(_ context.Context, userID uint64, unreadOnly bool) ([]*mongo.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*mongo.Notification
	for _, id := range r.order {
		n := r.items[id]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		list = append(list, cloneNotification(n))
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list, nil
}

func (r *memNotificationRepo) Update(_ context.Context, id primitive.ObjectID, patch mongo.NotificationPatch) (*mongo.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNotFound
	}
	patch.Apply(n)
	return cloneNotification(n), nil
}

func (r *memNotificationRepo) TransitionStatus(_ context.Context, id primitive.ObjectID, patch mongo.NotificationPatch) (*mongo.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failTransition[id]; err != nil {
		return nil, err
	}
	n, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNotFound
	}
	if n.Status != mongo.StatusPending {
		return nil, mongo.ErrStatusConflict
	}
	patch.Apply(n)
	return cloneNotification(n), nil
}

func (r *memNotificationRepo) FindCounterpart(_ context.Context, q mongo.CounterpartQuery) (*mongo.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *mongo.Notification
	for _, id := range r.order {
		n := r.items[id]
		if q.Matches(n) && (found == nil || !n.CreatedAt.Before(found.CreatedAt)) {
			found = n
		}
	}
	if found == nil {
		return nil, nil
	}
	return cloneNotification(found), nil
}

func (r *memNotificationRepo) FindByFriendRequest(_ context.Context, requestID primitive.ObjectID, userID uint64) (*mongo.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		n := r.items[id]
		if n.Type == mongo.TypeFriendRequest && n.UserID == userID && n.FriendRequestID != nil && *n.FriendRequestID == requestID {
			return cloneNotification(n), nil
		}
	}
	return nil, nil
}

func (r *memNotificationRepo) FindSettledSince(_ context.Context, since time.Time, limit int64) ([]*mongo.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*mongo.Notification
	for _, id := range r.order {
		n := r.items[id]
		if n.Role != mongo.RoleReceiver || !n.IsNegotiable() || n.Status == mongo.StatusPending || n.UpdatedAt.Before(since) {
			continue
		}
		list = append(list, cloneNotification(n))
		if int64(len(list)) == limit {
			break
		}
	}
	return list, nil
}

func (r *memNotificationRepo) MarkAsRead(_ context.Context, userID uint64, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return mongo.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (r *memNotificationRepo) MarkAllAsRead(_ context.Context, userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *memNotificationRepo) GetUnreadCount(_ context.Context, userID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// byUser 某个用户的全部通知，按创建顺序
func (r *memNotificationRepo) byUser(userID uint64) []*mongo.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*mongo.Notification
	for _, id := range r.order {
		if n := r.items[id]; n.UserID == userID {
			list = append(list, cloneNotification(n))
		}
	}
	return list
}

func (r *memNotificationRepo) all() []*mongo.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*mongo.Notification, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, cloneNotification(r.items[id]))
	}
	return list
}

type memFriendRequestRepo struct {
	mu             sync.Mutex
	items          map[primitive.ObjectID]*mongo.FriendRequest
	order          []primitive.ObjectID
	failTransition map[primitive.ObjectID]error
}

func newMemFriendRequestRepo() *memFriendRequestRepo {
	return &memFriendRequestRepo{
		items:          make(map[primitive.ObjectID]*mongo.FriendRequest),
		failTransition: make(map[primitive.ObjectID]error),
	}
}

func (r *memFriendRequestRepo) Create(_ context.Context, req *mongo.FriendRequest) error {
	if req.From == 0 || req.To == 0 {
		return mongo.ErrInvalidDocument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.From == req.From && existing.To == req.To && existing.Status == mongo.StatusPending {
			return mongo.ErrDuplicate
		}
	}
	req.ID = primitive.NewObjectID()
	req.Status = mongo.StatusPending
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
		req.UpdatedAt = req.CreatedAt
	}
	c := *req
	r.items[req.ID] = &c
	r.order = append(r.order, req.ID)
	return nil
}

func (r *memFriendRequestRepo) GetByID(_ context.Context, id primitive.ObjectID) (*mongo.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNotFound
	}
	c := *req
	return &c, nil
}

func (r *memFriendRequestRepo) FindPending(_ context.Context, from, to uint64) (*mongo.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.items {
		if req.From == from && req.To == to && req.Status == mongo.StatusPending {
			c := *req
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memFriendRequestRepo) TransitionStatus(_ context.Context, id primitive.ObjectID, status string, at time.Time) (*mongo.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failTransition[id]; err != nil {
		return nil, err
	}
	req, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNotFound
	}
	if req.Status != mongo.StatusPending {
		return nil, mongo.ErrStatusConflict
	}
	req.Status = status
	req.UpdatedAt = at
	c := *req
	return &c, nil
}

func (r *memFriendRequestRepo) ListPendingFrom(_ context.Context, from uint64) ([]*mongo.FriendRequest, error) {
	return r.list(func(req *mongo.FriendRequest) bool { return req.From == from }), nil
}

func (r *memFriendRequestRepo) ListPendingTo(_ context.Context, to uint64) ([]*mongo.FriendRequest, error) {
	return r.list(func(req *mongo.FriendRequest) bool { return req.To == to }), nil
}

func (r *memFriendRequestRepo) list(match func(req *mongo.FriendRequest) bool) []*mongo.FriendRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*mongo.FriendRequest
	for _, id := range r.order {
		req := r.items[id]
		if req.Status == mongo.StatusPending && match(req) {
			c := *req
			list = append(list, &c)
		}
	}
	return list
}

type fakeDirectory struct {
	mu        sync.Mutex
	names     map[uint64]string
	friends   map[[2]uint64]bool
	addCalls  int
	err       error
	friendErr error
}

func newFakeDirectory(names map[uint64]string) *fakeDirectory {
	return &fakeDirectory{names: names, friends: make(map[[2]uint64]bool)}
}

func (d *fakeDirectory) DisplayName(ctx context.Context, userID uint64) (string, error) {
	names, err := d.DisplayNames(ctx, []uint64{userID})
	if err != nil {
		return "", err
	}
	name, ok := names[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return name, nil
}

func (d *fakeDirectory) DisplayNames(_ context.Context, userIDs []uint64) (map[uint64]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	res := make(map[uint64]string)
	for _, id := range userIDs {
		if name, ok := d.names[id]; ok {
			res[id] = name
		}
	}
	return res, nil
}

func (d *fakeDirectory) AddFriendship(_ context.Context, a, b uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.friendErr != nil {
		return d.friendErr
	}
	d.addCalls++
	d.friends[[2]uint64{a, b}] = true
	d.friends[[2]uint64{b, a}] = true
	return nil
}

func (d *fakeDirectory) IsFriend(_ context.Context, userID, friendID uint64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.friends[[2]uint64{userID, friendID}], nil
}

func (d *fakeDirectory) ListFriends(_ context.Context, userID uint64, _, _ int) ([]*dto.FriendDTO, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var res []*dto.FriendDTO
	for pair := range d.friends {
		if pair[0] == userID {
			res = append(res, &dto.FriendDTO{UserID: pair[1], Nickname: d.names[pair[1]]})
		}
	}
	return res, nil
}

type recordingRegistry struct {
	mu     sync.Mutex
	pushed map[uint64][]*realtime.Event
}

func newRecordingRegistry() *recordingRegistry {
	return &recordingRegistry{pushed: make(map[uint64][]*realtime.Event)}
}

func (r *recordingRegistry) Join(uint64, realtime.Conn) {}

func (r *recordingRegistry) Leave(realtime.Conn) {}

func (r *recordingRegistry) Push(_ context.Context, participantID uint64, event *realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushed[participantID] = append(r.pushed[participantID], event)
}

func (r *recordingRegistry) events(participantID uint64) []*dto.NotificationDTO {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*dto.NotificationDTO
	for _, e := range r.pushed[participantID] {
		res = append(res, e.Data.(*dto.NotificationDTO))
	}
	return res
}

type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type fakeQueue struct {
	tasks []*dto.MirrorRepairTask
}

func (q *fakeQueue) EnqueueMirrorRepair(_ context.Context, task *dto.MirrorRepairTask) error {
	q.tasks = append(q.tasks, task)
	return nil
}

// engine 测试用的完整装配
type engine struct {
	store          *memNotificationRepo
	friendRequests *memFriendRequestRepo
	directory      *fakeDirectory
	registry       realtime.Registry
	recorder       *recordingRegistry
	offerRecords   *memOfferRepo
	tx             *fakeTransactor
	queue          *fakeQueue

	negotiation     NegotiationService
	offers          OfferService
	friends         FriendRequestService
	notificationSvc NotificationService
}

func newEngine(mode string, registry realtime.Registry) *engine {
	e := &engine{
		store:          newMemNotificationRepo(),
		friendRequests: newMemFriendRequestRepo(),
		directory: newFakeDirectory(map[uint64]string{
			1: "Ana",
			2: "Bruno",
			3: "Carla",
		}),
		recorder:     newRecordingRegistry(),
		offerRecords: &memOfferRepo{},
		tx:           &fakeTransactor{},
		queue:        &fakeQueue{},
	}
	e.registry = registry
	if e.registry == nil {
		e.registry = e.recorder
	}

	opts := NegotiationOptions{PairedUpdate: mode}
	resolver := NewCounterpartResolver(e.store)
	e.negotiation = NewNegotiationService(e.store, e.friendRequests, resolver, e.directory, e.registry, e.tx, e.queue, opts)
	e.offers = NewOfferService(e.store, e.offerRecords, e.directory, e.registry, e.tx, opts)
	e.friends = NewFriendRequestService(e.friendRequests, e.store, e.negotiation, e.directory, e.registry, e.tx, opts)
	e.notificationSvc = NewNotificationService(e.store, e.directory, e.registry, Timeouts{})
	return e
}

type memOfferRepo struct {
	mu    sync.Mutex
	items []*mongo.OfferRecord
}

func (r *memOfferRepo) Create(_ context.Context, offer *mongo.OfferRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	offer.ID = primitive.NewObjectID()
	c := *offer
	r.items = append(r.items, &c)
	return nil
}

func (r *memOfferRepo) ListBySeller(_ context.Context, sellerID uint64, limit, offset int64) ([]*mongo.OfferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*mongo.OfferRecord
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].SellerID == sellerID {
			list = append(list, r.items[i])
		}
	}
	if offset >= int64(len(list)) {
		return nil, nil
	}
	list = list[offset:]
	if int64(len(list)) > limit {
		list = list[:limit]
	}
	return list, nil
}
