package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
	"github.com/jhaverinen/kutsu/internal/invite/store"
)

type verificationCodesRepo struct {
	q queryer
}

const verificationCodeColumns = `id, invitation_id, email, code_hash, attempts, expires_at, verified_at, created_at`

func (r *verificationCodesRepo) CreateVerificationCode(ctx context.Context, c domain.VerificationCode) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO email_verification_code (`+verificationCodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.InvitationID, c.Email, c.CodeHash, c.Attempts,
		c.ExpiresAt.UTC(), mapOptionalTime(c.VerifiedAt), c.CreatedAt.UTC(),
	)
	return err
}

func (r *verificationCodesRepo) ListRecentVerificationCodes(ctx context.Context, invitationID string, since time.Time) ([]domain.VerificationCode, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+verificationCodeColumns+` FROM email_verification_code
		 WHERE invitation_id = ? AND created_at >= ?
		 ORDER BY created_at DESC, id DESC`, invitationID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []domain.VerificationCode
	for rows.Next() {
		c, err := scanVerificationCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

func (r *verificationCodesRepo) GetOldestUnverifiedCode(ctx context.Context, invitationID string) (domain.VerificationCode, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+verificationCodeColumns+` FROM email_verification_code
		 WHERE invitation_id = ? AND verified_at IS NULL
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`, invitationID)
	return scanVerificationCode(row)
}

func (r *verificationCodesRepo) IncrementVerificationAttempts(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE email_verification_code SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *verificationCodesRepo) MarkVerificationCodeVerified(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE email_verification_code SET verified_at = ? WHERE id = ?`, at.UTC(), id)
	return err
}

func (r *verificationCodesRepo) DeleteVerificationCode(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM email_verification_code WHERE id = ?`, id)
	return err
}

func (r *verificationCodesRepo) DeleteInvitationVerificationCodes(ctx context.Context, invitationID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM email_verification_code WHERE invitation_id = ?`, invitationID)
	return err
}

func (r *verificationCodesRepo) DeleteExpiredVerificationCodes(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM email_verification_code WHERE expires_at < ?`, time.Now().UTC())
	return err
}

func scanVerificationCode(row rowScanner) (domain.VerificationCode, error) {
	var c domain.VerificationCode
	var verifiedAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.InvitationID, &c.Email, &c.CodeHash, &c.Attempts,
		&c.ExpiresAt, &verifiedAt, &c.CreatedAt,
	)
	if err != nil {
		return domain.VerificationCode{}, mapNotFound(err)
	}
	c.VerifiedAt = mapNullTimePtr(verifiedAt)
	return c, nil
}
