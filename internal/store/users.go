// ABOUTME: User entity repository: accounts that own stacks
// ABOUTME: Create, lookup by id/email, partial update, cascading delete

package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

var userBase = base[User]{
	info: entityInfo{
		table:    "users",
		idPrefix: "usr",
		columns: []string{
			"id", "email", "hashed_password", "is_active", "is_superuser",
			"is_verified", "name", "phone", "created_at",
		},
	},
	scan: scanUser,
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u                           User
		active, superuser, verified int
		name, phone                 sql.NullString
		createdAt                   string
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&active,
		&superuser,
		&verified,
		&name,
		&phone,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	u.IsActive = active == 1
	u.IsSuperuser = superuser == 1
	u.IsVerified = verified == 1
	if name.Valid {
		u.Name = &name.String
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserRepo accesses user accounts. Acquire it from a UnitOfWork.
type UserRepo struct {
	q      querier
	logger *slog.Logger
}

// UserPatch is a partial update. Absent fields are left untouched.
type UserPatch struct {
	HashedPassword Optional[string]
	IsActive       Optional[bool]
	IsSuperuser    Optional[bool]
	IsVerified     Optional[bool]
	Name           Optional[*string]
	Phone          Optional[*string]
}

// Create inserts a new active, unverified user. A duplicate email
// surfaces as a DatabaseError.
func (r *UserRepo) Create(ctx context.Context, email, hashedPassword string, name, phone *string) (*User, error) {
	u := &User{
		ID:             userBase.info.newID(),
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       true,
		Name:           name,
		Phone:          phone,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}

	err := userBase.insert(ctx, r.q,
		u.ID, u.Email, u.HashedPassword, boolInt(u.IsActive), 0, 0,
		u.Name, u.Phone, formatTime(u.CreatedAt),
	)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("created user", "id", u.ID, "email", u.Email)
	return u, nil
}

// GetByID returns the user or a DatabaseError wrapping ErrNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	return userBase.selectOne(ctx, r.q, "id = ?", id)
}

// GetByEmail returns the user with the given email, used for login.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return userBase.selectOne(ctx, r.q, "email = ?", email)
}

// Update applies the patch, writing only fields that actually differ
// from the current row. A patch that changes nothing is a silent
// no-op, not an error.
func (r *UserRepo) Update(ctx context.Context, userID string, p UserPatch) error {
	current, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	var assigns []string
	var args []any

	if v, ok := p.HashedPassword.Get(); ok && v != current.HashedPassword {
		assigns = append(assigns, "hashed_password = ?")
		args = append(args, v)
	}
	if v, ok := p.IsActive.Get(); ok && v != current.IsActive {
		assigns = append(assigns, "is_active = ?")
		args = append(args, boolInt(v))
	}
	if v, ok := p.IsSuperuser.Get(); ok && v != current.IsSuperuser {
		assigns = append(assigns, "is_superuser = ?")
		args = append(args, boolInt(v))
	}
	if v, ok := p.IsVerified.Get(); ok && v != current.IsVerified {
		assigns = append(assigns, "is_verified = ?")
		args = append(args, boolInt(v))
	}
	if v, ok := p.Name.Get(); ok && !equalPtr(current.Name, v) {
		assigns = append(assigns, "name = ?")
		args = append(args, v)
	}
	if v, ok := p.Phone.Get(); ok && !equalPtr(current.Phone, v) {
		assigns = append(assigns, "phone = ?")
		args = append(args, v)
	}

	if len(assigns) == 0 {
		return nil
	}

	args = append(args, userID)
	if _, err := userBase.update(ctx, r.q, assigns, "id = ?", args...); err != nil {
		return err
	}

	r.logger.Debug("updated user", "id", userID, "fields", len(assigns))
	return nil
}

// Delete removes the user and everything it transitively owns. The
// schema cascades stacks, conversations and cards; messages carry no
// cascade, so they are removed here first.
func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM messages WHERE conversation_id IN (
			SELECT c.id FROM conversations c
			JOIN stacks s ON s.id = c.stack_id
			WHERE s.user_id = ?
		)`, userID)
	if err != nil {
		return translateErr("deleting user messages", err)
	}

	affected, err := userBase.delete(ctx, r.q, "id = ?", userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &DatabaseError{Op: "deleting users", Err: ErrNotFound}
	}

	r.logger.Debug("deleted user", "id", userID)
	return nil
}

// Count returns the total number of users. Diagnostic only.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	return userBase.count(ctx, r.q)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
