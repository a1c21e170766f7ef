package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"livestock-tracking/internal/domain/apperr"
	"livestock-tracking/internal/platform/logger"
	"livestock-tracking/internal/platform/validate"
)

const resource = "User"

type Service struct {
	repo   Repository
	tx     Transactor
	hasher PasswordHasher
	log    logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, tx Transactor, hasher PasswordHasher, log logger.Logger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		tx:     tx,
		hasher: hasher,
		log:    log.With(map[string]any{"component": "users"}),
		now:    time.Now,
	}
}

// Create verifica username y luego email; la contraseña se guarda solo hasheada.
func (s *Service) Create(ctx context.Context, in CreateInput) (DTO, error) {
	in = in.normalized()
	if err := validate.Struct(in); err != nil {
		return DTO{}, err
	}

	var out User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureUnique(ctx, in.Username, in.Email); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return err
		}

		role := in.Role
		if role == "" {
			role = RoleViewer
		}

		now := s.now()
		u := User{
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hash,
			Name:         in.Name,
			Phone:        in.Phone,
			Role:         role,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		id, err := s.repo.Create(ctx, u)
		if err != nil {
			return translateWrite(err, &u)
		}
		u.ID = id
		out = u
		return nil
	})
	if err != nil {
		return DTO{}, err
	}

	s.log.Info("user created", map[string]any{"id": out.ID, "username": out.Username, "role": out.Role})
	return ToDTO(out), nil
}

func (s *Service) ensureUnique(ctx context.Context, username, email string) error {
	if username != "" {
		exists, err := s.repo.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if exists {
			return apperr.DuplicateKey(resource, "username", username)
		}
	}
	if email != "" {
		exists, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return apperr.DuplicateKey(resource, "email", email)
		}
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (DTO, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return DTO{}, err
	}
	return ToDTO(u), nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (DTO, error) {
	username = strings.TrimSpace(username)
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return DTO{}, apperr.NotFound(resource, "username", username)
		}
		return DTO{}, err
	}
	return ToDTO(u), nil
}

func (s *Service) List(ctx context.Context) ([]DTO, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DTO, 0, len(items))
	for _, u := range items {
		out = append(out, ToDTO(u))
	}
	return out, nil
}

// Update reemplaza el perfil. La contraseña solo se re-hashea si viene no vacía.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (DTO, error) {
	in = in.normalized()
	if err := validate.Struct(in); err != nil {
		return DTO{}, err
	}

	var out User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.find(ctx, id)
		if err != nil {
			return err
		}

		var newUsername, newEmail string
		if u.Username != in.Username {
			newUsername = in.Username
		}
		if !strings.EqualFold(u.Email, in.Email) {
			newEmail = in.Email
		}
		if err := s.ensureUnique(ctx, newUsername, newEmail); err != nil {
			return err
		}

		u.Username = in.Username
		u.Email = in.Email
		u.Name = in.Name
		u.Phone = in.Phone
		if in.Password != "" {
			hash, err := s.hasher.Hash(in.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}

		if err := s.save(ctx, &u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return DTO{}, err
	}

	s.log.Info("user updated", map[string]any{
		"id":               out.ID,
		"username":         out.Username,
		"password_changed": in.Password != "",
	})
	return ToDTO(out), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.find(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("user deleted", map[string]any{"id": id})
	return nil
}

func (s *Service) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.repo.ExistsByUsername(ctx, strings.TrimSpace(username))
}

func (s *Service) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, strings.TrimSpace(email))
}

func (s *Service) UpdateRole(ctx context.Context, id int64, in RoleInput) (DTO, error) {
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := validate.Struct(in); err != nil {
		return DTO{}, err
	}
	return s.mutate(ctx, id, "user role updated", func(u *User) {
		u.Role = in.Role
	})
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, in StatusInput) (DTO, error) {
	if err := validate.Struct(in); err != nil {
		return DTO{}, err
	}
	return s.mutate(ctx, id, "user status updated", func(u *User) {
		u.IsActive = *in.IsActive
	})
}

// UpdateLastLogin registra el momento actual como último login.
func (s *Service) UpdateLastLogin(ctx context.Context, id int64) (DTO, error) {
	return s.mutate(ctx, id, "user last login updated", func(u *User) {
		now := s.now()
		u.LastLogin = &now
	})
}

// CheckPassword compara sin emitir sesión ni token. Usuario inexistente => false.
func (s *Service) CheckPassword(ctx context.Context, username, plain string) (bool, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.hasher.Compare(u.PasswordHash, plain), nil
}

func (s *Service) mutate(ctx context.Context, id int64, msg string, fn func(u *User)) (DTO, error) {
	var out User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		fn(&u)
		if err := s.save(ctx, &u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return DTO{}, err
	}

	s.log.Info(msg, map[string]any{"id": out.ID, "username": out.Username})
	return ToDTO(out), nil
}

func (s *Service) find(ctx context.Context, id int64) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return User{}, apperr.NotFound(resource, "id", id)
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) save(ctx context.Context, u *User) error {
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, *u); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound(resource, "id", u.ID)
		}
		return translateWrite(err, u)
	}
	return nil
}

// translateWrite: si el índice único del store rechaza la escritura
// (carrera con ensureUnique) se reporta contra la columna que nombra el
// error (constraint o campo); por defecto, username.
func translateWrite(err error, u *User) error {
	if !errors.Is(err, apperr.ErrDuplicateKey) {
		return err
	}
	if strings.Contains(err.Error(), "email") {
		return apperr.DuplicateKey(resource, "email", u.Email)
	}
	return apperr.DuplicateKey(resource, "username", u.Username)
}
