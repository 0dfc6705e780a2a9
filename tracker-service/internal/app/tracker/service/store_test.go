package service

import (
	"context"
	"sync"

	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore хранит группы и пользователей в памяти с проверкой версий как в MongoDB.
// Каждое чтение возвращает копию, поэтому несохраненные изменения не видны.
type memStore struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID]entity.Group
	users  map[primitive.ObjectID]entity.User

	// beforeGroupSave вызывается перед сохранением группы, имитирует параллельного писателя
	beforeGroupSave func(s *memStore)
	// groupSaveConflicts число сохранений групп, которые завершатся конфликтом версий
	groupSaveConflicts int
	groupSaves         int

	// beforeUserSave вызывается перед сохранением пользователя, когда группа уже записана
	beforeUserSave func(s *memStore)
	userSaves      int
}

func newMemStore() *memStore {
	return &memStore{
		groups: make(map[primitive.ObjectID]entity.Group),
		users:  make(map[primitive.ObjectID]entity.User),
	}
}

func (s *memStore) addGroup(name string) *entity.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := entity.Group{ID: primitive.NewObjectID(), Name: name, Version: 1, Members: []entity.Member{}, Ratings: []entity.Rating{}}
	s.groups[g.ID] = g
	return cloneGroup(g)
}

func (s *memStore) addUser(username string, branch entity.Branch) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := entity.User{
		ID:            primitive.NewObjectID(),
		Username:      username,
		Email:         username + "@example.com",
		Branch:        branch,
		Version:       1,
		JoinedGroups:  []primitive.ObjectID{},
		RatingHistory: []entity.RatingHistoryEntry{},
	}
	s.users[u.ID] = u
	return cloneUser(u)
}

func (s *memStore) group(id primitive.ObjectID) *entity.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGroup(s.groups[id])
}

func (s *memStore) user(id primitive.ObjectID) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.users[id])
}

// mutateGroup меняет сохраненную группу в обход сервиса и повышает версию
func (s *memStore) mutateGroup(id primitive.ObjectID, fn func(g *entity.Group)) {
	g := cloneGroup(s.groups[id])
	fn(g)
	g.Version++
	s.groups[id] = *g
}

// mutateUser меняет сохраненного пользователя в обход сервиса и повышает версию
func (s *memStore) mutateUser(id primitive.ObjectID, fn func(u *entity.User)) {
	u := cloneUser(s.users[id])
	fn(u)
	u.Version++
	s.users[id] = *u
}

func cloneGroup(g entity.Group) *entity.Group {
	c := g
	c.Members = append([]entity.Member{}, g.Members...)
	c.Ratings = append([]entity.Rating{}, g.Ratings...)
	return &c
}

func cloneUser(u entity.User) *entity.User {
	c := u
	c.JoinedGroups = append([]primitive.ObjectID{}, u.JoinedGroups...)
	c.RatingHistory = append([]entity.RatingHistoryEntry{}, u.RatingHistory...)
	return &c
}

// memGroupRepo и memUserRepo - представления memStore под интерфейсы репозиториев
type memGroupRepo struct{ s *memStore }
type memUserRepo struct{ s *memStore }

func (r memGroupRepo) Create(_ context.Context, group *entity.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if g.Name == group.Name {
			return repository.ErrDuplicateKey
		}
	}
	group.ID = primitive.NewObjectID()
	group.Version = 1
	r.s.groups[group.ID] = *cloneGroup(*group)
	return nil
}

func (r memGroupRepo) GetByID(_ context.Context, id string) (*entity.Group, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrGroupNotFound
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[oid]
	if !ok {
		return nil, repository.ErrGroupNotFound
	}
	return cloneGroup(g), nil
}

func (r memGroupRepo) GetByName(_ context.Context, name string) (*entity.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if g.Name == name {
			return cloneGroup(g), nil
		}
	}
	return nil, repository.ErrGroupNotFound
}

func (r memGroupRepo) List(_ context.Context) ([]entity.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	groups := make([]entity.Group, 0, len(r.s.groups))
	for _, g := range r.s.groups {
		groups = append(groups, *cloneGroup(g))
	}
	return groups, nil
}

func (r memGroupRepo) FindByMember(_ context.Context, userID primitive.ObjectID) ([]entity.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var groups []entity.Group
	for _, g := range r.s.groups {
		if g.HasMember(userID) {
			groups = append(groups, *cloneGroup(g))
		}
	}
	return groups, nil
}

func (r memGroupRepo) Save(_ context.Context, group *entity.Group) error {
	if hook := r.s.beforeGroupSave; hook != nil {
		r.s.beforeGroupSave = nil
		r.s.mu.Lock()
		hook(r.s)
		r.s.mu.Unlock()
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.groupSaves++
	if r.s.groupSaveConflicts > 0 {
		r.s.groupSaveConflicts--
		return repository.ErrVersionConflict
	}
	stored, ok := r.s.groups[group.ID]
	if !ok || stored.Version != group.Version {
		return repository.ErrVersionConflict
	}
	group.Version++
	r.s.groups[group.ID] = *cloneGroup(*group)
	return nil
}

func (r memGroupRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.groups[id]; !ok {
		return repository.ErrGroupNotFound
	}
	delete(r.s.groups, id)
	return nil
}

func (r memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = primitive.NewObjectID()
	user.Version = 1
	r.s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (r memUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r memUserRepo) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r memUserRepo) List(_ context.Context) ([]entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, *cloneUser(u))
	}
	return users, nil
}

func (r memUserRepo) CountByBranch(_ context.Context) ([]entity.DepartmentCount, error) {
	return nil, nil
}

func (r memUserRepo) Save(_ context.Context, user *entity.User) error {
	if hook := r.s.beforeUserSave; hook != nil {
		r.s.beforeUserSave = nil
		r.s.mu.Lock()
		hook(r.s)
		r.s.mu.Unlock()
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.userSaves++
	stored, ok := r.s.users[user.ID]
	if !ok || stored.Version != user.Version {
		return repository.ErrVersionConflict
	}
	user.Version++
	r.s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (r memUserRepo) PullJoinedGroup(_ context.Context, groupID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, u := range r.s.users {
		if u.HasJoined(groupID) {
			c := cloneUser(u)
			c.RemoveJoinedGroup(groupID)
			c.Version++
			r.s.users[id] = *c
			n++
		}
	}
	return n, nil
}
