package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/webshell/internal/data/pgxutil"
	domainauth "github.com/target/webshell/internal/domain/auth"
	apperrors "github.com/target/webshell/internal/errors"
	"github.com/target/webshell/internal/ports"
)

// RoleAssignment is an explicit role granted to a user, overriding IdP group mapping.
type RoleAssignment struct {
	UserID    string
	Role      domainauth.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

type roleRow struct {
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r roleRow) assignment() RoleAssignment {
	role, _ := domainauth.ParseRole(r.Role)
	return RoleAssignment{UserID: r.UserID, Role: role, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// RoleRepo stores role assignments in the user_roles table.
type RoleRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ ports.RoleDirectory = (*RoleRepo)(nil)

// NewRoleRepo creates a RoleRepo with the real clock.
func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewRoleRepoWithTimeProvider creates a RoleRepo with a custom clock (useful for tests).
func NewRoleRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *RoleRepo {
	return &RoleRepo{DB: db, timeProvider: tp}
}

const roleColumns = `user_id, role, created_at, updated_at`

// Set assigns role to userID, replacing any existing assignment.
func (r *RoleRepo) Set(ctx context.Context, userID string, role domainauth.Role) (*RoleAssignment, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ValidationField("user_id", "user ID is required")
	}
	if !role.IsValid() {
		return nil, apperrors.ValidationField("role", fmt.Sprintf("role %q is not one of admin, trainer", role))
	}

	now := r.timeProvider.Now().UTC()
	var out roleRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO user_roles (user_id, role, created_at, updated_at)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
			RETURNING `+roleColumns, userID, role.String(), now)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[roleRow])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("set role for %s: %w", userID, err))
	}
	a := out.assignment()
	return &a, nil
}

// Lookup returns the assignment for userID or a NotFound AppError.
func (r *RoleRepo) Lookup(ctx context.Context, userID string) (*RoleAssignment, error) {
	var row roleRow
	err := r.DB.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM user_roles WHERE user_id = $1`, userID).
		Scan(&row.UserID, &row.Role, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	a := row.assignment()
	return &a, nil
}

// Get implements ports.RoleDirectory: users without an assignment have RoleNone.
func (r *RoleRepo) Get(ctx context.Context, userID string) (domainauth.Role, error) {
	a, err := r.Lookup(ctx, userID)
	if apperrors.IsNotFound(err) {
		return domainauth.RoleNone, nil
	}
	if err != nil {
		return domainauth.RoleNone, err
	}
	return a.Role, nil
}

// Delete removes the assignment for userID. Deleting a missing assignment is a NotFound error.
func (r *RoleRepo) Delete(ctx context.Context, userID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFoundf("no role assigned to %s", userID)
	}
	return nil
}

// List returns assignments ordered by user ID, optionally filtered by role.
func (r *RoleRepo) List(ctx context.Context, role domainauth.Role, limit, offset int) ([]RoleAssignment, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rowsOut []roleRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+roleColumns+` FROM user_roles
			WHERE ($1 = '' OR role = $1)
			ORDER BY user_id
			LIMIT $2 OFFSET $3`, role.String(), limit, offset)
		if err != nil {
			return err
		}
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[roleRow])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list roles: %w", err))
	}

	out := make([]RoleAssignment, 0, len(rowsOut))
	for _, row := range rowsOut {
		out = append(out, row.assignment())
	}
	return out, nil
}
