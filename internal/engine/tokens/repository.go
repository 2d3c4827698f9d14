package tokens

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"keyring/internal/platform/models"
)

var ErrNotFound = errors.New("token not found")

const tokenColumns = `id, user_id, key, status, name, created_time, accessed_time, expired_time,
	remain_quota, unlimited_quota, used_quota, token_group, billing_enabled, models,
	fixed_content, subnet, expiry_mode, duration, first_used_time`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, t *models.Token) error {
	query := `
		INSERT INTO tokens (
			user_id, key, status, name, created_time, accessed_time, expired_time,
			remain_quota, unlimited_quota, used_quota, token_group, billing_enabled, models,
			fixed_content, subnet, expiry_mode, duration, first_used_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		t.UserID,
		t.Key,
		t.Status,
		t.Name,
		t.CreatedTime,
		t.AccessedTime,
		t.ExpiredTime,
		t.RemainQuota,
		t.UnlimitedQuota,
		t.UsedQuota,
		t.Group,
		t.BillingEnabled,
		t.Models,
		t.FixedContent,
		t.Subnet,
		t.ExpiryMode,
		t.Duration,
		t.FirstUsedTime,
	)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

// GetByIDs loads a token owned by userID.
func (r *Repository) GetByIDs(ctx context.Context, id, userID int64) (*models.Token, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE id = ? AND user_id = ?`, id, userID)
	return scanToken(row)
}

func (r *Repository) GetByKey(ctx context.Context, key string) (*models.Token, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE key = ?`, key)
	return scanToken(row)
}

func (r *Repository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.Token, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE user_id = ? ORDER BY id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Search matches names by substring and keys by prefix.
func (r *Repository) Search(ctx context.Context, userID int64, keyword, key string) ([]*models.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE user_id = ? AND name LIKE ? ESCAPE '\'`
	args := []interface{}{userID, "%" + escapeLike(keyword) + "%"}
	if key != "" {
		query += ` AND key LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(strings.TrimPrefix(key, "sk-"))+"%")
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repository) Update(ctx context.Context, t *models.Token) error {
	query := `
		UPDATE tokens SET
			status = ?, name = ?, accessed_time = ?, expired_time = ?, remain_quota = ?,
			unlimited_quota = ?, used_quota = ?, token_group = ?, billing_enabled = ?, models = ?,
			fixed_content = ?, subnet = ?, expiry_mode = ?, duration = ?, first_used_time = ?
		WHERE id = ? AND user_id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		t.Status,
		t.Name,
		t.AccessedTime,
		t.ExpiredTime,
		t.RemainQuota,
		t.UnlimitedQuota,
		t.UsedQuota,
		t.Group,
		t.BillingEnabled,
		t.Models,
		t.FixedContent,
		t.Subnet,
		t.ExpiryMode,
		t.Duration,
		t.FirstUsedTime,
		t.ID,
		t.UserID,
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *Repository) UpdateBilling(ctx context.Context, id, userID int64, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tokens SET billing_enabled = ? WHERE id = ? AND user_id = ?`, enabled, id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// SetFirstUsed stamps first_used_time once; it reports false when the token
// was already stamped.
func (r *Repository) SetFirstUsed(ctx context.Context, id int64, ts int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tokens SET first_used_time = ?, accessed_time = ? WHERE id = ? AND first_used_time = 0`, ts, ts, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *Repository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// MarkExpired moves enabled tokens whose deadline passed to the expired status.
func (r *Repository) MarkExpired(ctx context.Context, now int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tokens SET status = ?
		WHERE status = ? AND (
			(expiry_mode = ? AND expired_time != -1 AND expired_time <= ?) OR
			(expiry_mode = ? AND first_used_time > 0 AND first_used_time + duration <= ?)
		)`,
		models.TokenStatusExpired, models.TokenStatusEnabled,
		models.ExpiryModeFixed, now,
		models.ExpiryModeFirstUse, now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkExhausted moves enabled, limited tokens without remaining quota to the exhausted status.
func (r *Repository) MarkExhausted(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tokens SET status = ? WHERE status = ? AND unlimited_quota = 0 AND remain_quota <= 0`,
		models.TokenStatusExhausted, models.TokenStatusEnabled)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanToken(row scanner) (*models.Token, error) {
	var t models.Token
	var subnet sql.NullString
	err := row.Scan(
		&t.ID, &t.UserID, &t.Key, &t.Status, &t.Name, &t.CreatedTime, &t.AccessedTime, &t.ExpiredTime,
		&t.RemainQuota, &t.UnlimitedQuota, &t.UsedQuota, &t.Group, &t.BillingEnabled, &t.Models,
		&t.FixedContent, &subnet, &t.ExpiryMode, &t.Duration, &t.FirstUsedTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if subnet.Valid {
		t.Subnet = &subnet.String
	}
	return &t, nil
}

func collect(rows *sql.Rows) ([]*models.Token, error) {
	defer rows.Close()

	list := []*models.Token{}
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
