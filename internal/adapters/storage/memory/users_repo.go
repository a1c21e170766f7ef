package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"livestock-tracking/internal/domain/apperr"
	"livestock-tracking/internal/domain/users"
)

type userRepo struct {
	s *Store
}

func NewUserRepo(s *Store) users.Repository {
	return &userRepo{s: s}
}

func (r *userRepo) Create(ctx context.Context, u users.User) (int64, error) {
	var id int64
	err := r.s.write(func(st *state) error {
		if err := conflict(st, u); err != nil {
			return err
		}
		st.seq.users++
		u.ID = st.seq.users
		st.users[u.ID] = copyUser(u)
		id = u.ID
		return nil
	})
	return id, err
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return apperr.ErrNotFound
		}
		if err := conflict(st, u); err != nil {
			return err
		}
		st.users[u.ID] = copyUser(u)
		return nil
	})
}

// conflict replica los índices únicos de username y email; el error nombra
// la columna, como el constraint en Postgres.
func conflict(st *state, u users.User) error {
	for _, other := range st.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return fmt.Errorf("%w: username", apperr.ErrDuplicateKey)
		}
		if strings.EqualFold(other.Email, u.Email) {
			return fmt.Errorf("%w: email", apperr.ErrDuplicateKey)
		}
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return apperr.ErrNotFound
		}
		delete(st.users, id)
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	var (
		u  users.User
		ok bool
	)
	r.s.read(func(st *state) { u, ok = st.users[id] })
	if !ok {
		return users.User{}, apperr.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	items := r.filter(func(u users.User) bool { return u.Username == username })
	if len(items) == 0 {
		return users.User{}, apperr.ErrNotFound
	}
	return items[0], nil
}

func (r *userRepo) List(ctx context.Context) ([]users.User, error) {
	return r.filter(func(users.User) bool { return true }), nil
}

func (r *userRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return len(r.filter(func(u users.User) bool { return u.Username == username })) > 0, nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return len(r.filter(func(u users.User) bool { return strings.EqualFold(u.Email, email) })) > 0, nil
}

func (r *userRepo) filter(keep func(users.User) bool) []users.User {
	out := make([]users.User, 0)
	r.s.read(func(st *state) {
		for _, u := range st.users {
			if keep(u) {
				out = append(out, copyUser(u))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
