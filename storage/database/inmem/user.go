package inmemdb

import (
	"context"

	"github.com/ionode-cloud/ERP-Cell/core/user"
)

type userRepository struct {
	db *table[user.User]
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) Create(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.t {
		if u.LoginID == usr.LoginID {
			return user.User{}, user.ErrLoginIDExists
		}
	}
	usr.ID = newID()
	repo.db.t[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) Get(_ context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.t[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetByLoginID(_ context.Context, loginID string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.t {
		if usr.LoginID == loginID {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) Update(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range repo.db.t {
		if u.ID != usr.ID && u.LoginID == usr.LoginID {
			return user.User{}, user.ErrLoginIDExists
		}
	}
	repo.db.t[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) Delete(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.t, id)
	return nil
}
