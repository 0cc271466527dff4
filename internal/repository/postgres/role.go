package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
)

type RoleStore struct {
	q pgx.Tx
}

func (s *RoleStore) Create(ctx context.Context, r *models.BoardRole) error {
	query := `
		INSERT INTO board_roles (board_id, name, is_admin)
		VALUES ($1, $2, $3)
		RETURNING id`

	if err := s.q.QueryRow(ctx, query, r.BoardID, r.Name, r.IsAdmin).Scan(&r.ID); err != nil {
		return fmt.Errorf("insert role: %w", err)
	}

	permQuery := `
		INSERT INTO board_role_permissions (board_role_id, name, allow)
		VALUES ($1, $2, $3)
		RETURNING id`

	for i := range r.Permissions {
		p := &r.Permissions[i]
		p.BoardRoleID = r.ID
		if err := s.q.QueryRow(ctx, permQuery, r.ID, string(p.Name), p.Allow).Scan(&p.ID); err != nil {
			return fmt.Errorf("insert role permission: %w", err)
		}
	}
	return nil
}

func (s *RoleStore) GetByID(ctx context.Context, id int64) (*models.BoardRole, error) {
	query := `SELECT id, board_id, name, is_admin FROM board_roles WHERE id = $1`

	var r models.BoardRole
	if err := s.q.QueryRow(ctx, query, id).Scan(&r.ID, &r.BoardID, &r.Name, &r.IsAdmin); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role: %w", err)
	}

	roles := []models.BoardRole{r}
	if err := s.loadPermissions(ctx, roles); err != nil {
		return nil, err
	}
	return &roles[0], nil
}

func (s *RoleStore) ListByBoard(ctx context.Context, boardID int64) ([]models.BoardRole, error) {
	return s.list(ctx, `SELECT id, board_id, name, is_admin FROM board_roles WHERE board_id = $1 ORDER BY id`, boardID)
}

func (s *RoleStore) ListAll(ctx context.Context) ([]models.BoardRole, error) {
	return s.list(ctx, `SELECT id, board_id, name, is_admin FROM board_roles ORDER BY id`)
}

func (s *RoleStore) list(ctx context.Context, query string, args ...any) ([]models.BoardRole, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]models.BoardRole, 0)
	for rows.Next() {
		var r models.BoardRole
		if err := rows.Scan(&r.ID, &r.BoardID, &r.Name, &r.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	if err := s.loadPermissions(ctx, roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// loadPermissions fills Permissions for every role with one query.
func (s *RoleStore) loadPermissions(ctx context.Context, roles []models.BoardRole) error {
	if len(roles) == 0 {
		return nil
	}

	ids := make([]int64, len(roles))
	index := make(map[int64]int, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
		index[r.ID] = i
		roles[i].Permissions = make([]models.BoardRolePermission, 0)
	}

	query := `
		SELECT id, board_role_id, name, allow
		FROM board_role_permissions
		WHERE board_role_id = ANY($1)
		ORDER BY id`

	rows, err := s.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list role permissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.BoardRolePermission
		var name string
		if err := rows.Scan(&p.ID, &p.BoardRoleID, &name, &p.Allow); err != nil {
			return fmt.Errorf("scan role permission: %w", err)
		}
		p.Name = permission.Name(name)
		i := index[p.BoardRoleID]
		roles[i].Permissions = append(roles[i].Permissions, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate role permissions: %w", err)
	}
	for i := range roles {
		roles[i].IndexPermissions()
	}
	return nil
}

// AddPermission is an upsert that never overwrites: an existing row keeps the
// allow value an admin may have changed.
func (s *RoleStore) AddPermission(ctx context.Context, roleID int64, name permission.Name, allow bool) (bool, error) {
	query := `
		INSERT INTO board_role_permissions (board_role_id, name, allow)
		VALUES ($1, $2, $3)
		ON CONFLICT (board_role_id, name) DO NOTHING`

	tag, err := s.q.Exec(ctx, query, roleID, string(name), allow)
	if err != nil {
		return false, fmt.Errorf("add role permission: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *RoleStore) DeletePermissionsNotIn(ctx context.Context, keep []permission.Name) (int64, error) {
	names := make([]string, len(keep))
	for i, n := range keep {
		names[i] = string(n)
	}

	tag, err := s.q.Exec(ctx, `DELETE FROM board_role_permissions WHERE NOT (name = ANY($1))`, names)
	if err != nil {
		return 0, fmt.Errorf("delete retired permissions: %w", err)
	}
	return tag.RowsAffected(), nil
}
