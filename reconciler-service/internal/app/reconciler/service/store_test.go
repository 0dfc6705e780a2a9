package service

import (
	"context"
	"sort"
	"sync"

	"iat/pkg/rubric"
	"iat/reconciler-service/internal/app/reconciler/entity"
	"iat/reconciler-service/internal/app/reconciler/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore хранилище в памяти с compare-and-swap по version
type memStore struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID]*entity.Group
	users  map[primitive.ObjectID]*entity.User

	// profileConflicts сколько ближайших SetProfile завершатся ErrVersionConflict
	profileConflicts int
	profileWrites    int
	aggregateWrites  int
}

func newMemStore() *memStore {
	return &memStore{
		groups: make(map[primitive.ObjectID]*entity.Group),
		users:  make(map[primitive.ObjectID]*entity.User),
	}
}

func (s *memStore) putGroup(g entity.Group) primitive.ObjectID {
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	if g.Version == 0 {
		g.Version = 1
	}
	s.groups[g.ID] = &g
	return g.ID
}

func (s *memStore) putUser(u entity.User) primitive.ObjectID {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Version == 0 {
		u.Version = 1
	}
	s.users[u.ID] = &u
	return u.ID
}

func (s *memStore) group(id primitive.ObjectID) entity.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGroup(s.groups[id])
}

func (s *memStore) user(id primitive.ObjectID) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.users[id])
}

func cloneGroup(g *entity.Group) entity.Group {
	c := *g
	c.Members = append([]entity.Member(nil), g.Members...)
	c.Ratings = append([]entity.Rating(nil), g.Ratings...)
	return c
}

func cloneUser(u *entity.User) entity.User {
	c := *u
	c.JoinedGroups = append([]primitive.ObjectID(nil), u.JoinedGroups...)
	c.RatingHistory = append([]entity.RatingHistoryEntry(nil), u.RatingHistory...)
	return c
}

type memGroupRepo struct{ s *memStore }

func (r memGroupRepo) GetByID(_ context.Context, id primitive.ObjectID) (*entity.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil, repository.ErrGroupNotFound
	}
	c := cloneGroup(g)
	return &c, nil
}

func (r memGroupRepo) List(_ context.Context) ([]entity.Group, error) {
	return r.filter(func(*entity.Group) bool { return true }), nil
}

func (r memGroupRepo) FindByMember(_ context.Context, userID primitive.ObjectID) ([]entity.Group, error) {
	return r.filter(func(g *entity.Group) bool { return g.Member(userID) != nil }), nil
}

func (r memGroupRepo) FindRatedBy(_ context.Context, userID primitive.ObjectID) ([]entity.Group, error) {
	return r.filter(func(g *entity.Group) bool { return g.RatingBy(userID) != nil }), nil
}

func (r memGroupRepo) filter(keep func(*entity.Group) bool) []entity.Group {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Group{}
	for _, g := range r.s.groups {
		if keep(g) {
			out = append(out, cloneGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out
}

func (r memGroupRepo) SetAggregate(_ context.Context, group *entity.Group, agg rubric.Aggregate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[group.ID]
	if !ok || g.Version != group.Version {
		return repository.ErrVersionConflict
	}
	g.Aggregate = agg
	g.Version++
	r.s.aggregateWrites++
	group.Aggregate = agg
	group.Version = g.Version
	return nil
}

func (r memGroupRepo) PullMember(_ context.Context, group *entity.Group, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[group.ID]
	if !ok || g.Version != group.Version {
		return repository.ErrVersionConflict
	}
	kept := g.Members[:0]
	for _, m := range g.Members {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	g.Members = kept
	g.Version++
	group.Version = g.Version
	return nil
}

type memUserRepo struct{ s *memStore }

func (r memUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := cloneUser(u)
	return &c, nil
}

func (r memUserRepo) ListIDs(_ context.Context) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []primitive.ObjectID{}
	for id := range r.s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	return ids, nil
}

func (r memUserRepo) FindByJoinedGroup(_ context.Context, groupID primitive.ObjectID) ([]entity.User, error) {
	return r.filter(func(u *entity.User) bool {
		for _, id := range u.JoinedGroups {
			if id == groupID {
				return true
			}
		}
		return false
	}), nil
}

func (r memUserRepo) FindByRatedGroup(_ context.Context, groupID primitive.ObjectID) ([]entity.User, error) {
	return r.filter(func(u *entity.User) bool {
		for _, h := range u.RatingHistory {
			if h.GroupID == groupID {
				return true
			}
		}
		return false
	}), nil
}

func (r memUserRepo) filter(keep func(*entity.User) bool) []entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.User{}
	for _, u := range r.s.users {
		if keep(u) {
			out = append(out, cloneUser(u))
		}
	}
	return out
}

func (r memUserRepo) SetProfile(_ context.Context, user *entity.User, joined []primitive.ObjectID, history []entity.RatingHistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.profileConflicts > 0 {
		r.s.profileConflicts--
		// кто-то другой успел изменить профиль
		r.s.users[user.ID].Version++
		return repository.ErrVersionConflict
	}
	u, ok := r.s.users[user.ID]
	if !ok || u.Version != user.Version {
		return repository.ErrVersionConflict
	}
	u.JoinedGroups = append([]primitive.ObjectID{}, joined...)
	u.RatingHistory = append([]entity.RatingHistoryEntry{}, history...)
	u.Version++
	r.s.profileWrites++
	return nil
}
