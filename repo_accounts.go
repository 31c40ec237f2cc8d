package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var markVerifiedSQL = `UPDATE "accounts" AS "acc"
SET
	"verified" = TRUE,
	"verified_at" = ?
WHERE
	"acc"."id" = ?
AND
	"acc"."verified" = FALSE
RETURNING *;`

// AccountStore is the narrow surface the verification state machine
// depends on. The full Accounts repository satisfies it.
type AccountStore interface {
	Register(ctx context.Context, account *Account) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByNickname(ctx context.Context, nickname string) (*Account, error)
	StoreVerification(ctx context.Context, id uuid.UUID, token string, issuedAt time.Time) error
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) (*Account, error)
	Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error)
}

// AccountMutator covers the credential and profile mutations issued by
// the authentication service.
type AccountMutator interface {
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, profile Profile) (*Account, error)
}

// AccountTracker is the store surface the identity provider needs for
// credential checks and login attempt accounting.
type AccountTracker interface {
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*Account, error)
	TrackAttemptedLogin(ctx context.Context, account *Account) error
	TrackSuccessfulLogin(ctx context.Context, account *Account) error
}

type Accounts interface {
	repository.Repository[*Account]

	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByNickname(ctx context.Context, nickname string) (*Account, error)

	StoreVerification(ctx context.Context, id uuid.UUID, token string, issuedAt time.Time) error
	StoreVerificationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, issuedAt time.Time) error
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) (*Account, error)
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) (*Account, error)

	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, profile Profile) (*Account, error)
	UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, profile Profile) (*Account, error)

	TrackAttemptedLogin(ctx context.Context, account *Account) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, account *Account) error
	TrackSuccessfulLogin(ctx context.Context, account *Account) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error
}

type accountsRepo struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accountsRepo)(nil)
	_ repository.Repository[*Account] = (*accountsRepo)(nil)
	_ AccountStore                    = (*accountsRepo)(nil)
	_ AccountMutator                  = (*accountsRepo)(nil)
	_ AccountTracker                  = (*accountsRepo)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &accountsRepo{
		Repository: repo,
		db:         db,
	}
}

// Register persists a new unverified account. The storage layer's
// unique indexes are the authority on email/nickname uniqueness; a
// constraint violation is translated into the matching duplicate kind
// so a lost check-then-insert race still surfaces correctly.
func (a *accountsRepo) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

func (a *accountsRepo) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	prepareAccountDefaults(account)

	created, err := a.Repository.CreateTx(ctx, tx, account)
	if err != nil {
		return nil, a.translateConstraintError(ctx, tx, err, account)
	}

	return created, nil
}

func (a *accountsRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.getByColumn(ctx, a.db, "email", email)
}

func (a *accountsRepo) GetByNickname(ctx context.Context, nickname string) (*Account, error) {
	return a.getByColumn(ctx, a.db, "nickname", nickname)
}

// GetByIdentifier resolves a login identifier: email first, then
// nickname. Comparisons are exact; no case normalization is applied.
func (a *accountsRepo) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*Account, error) {
	trimmed := strings.TrimSpace(identifier)

	for _, column := range []string{"email", "nickname"} {
		record, err := a.getByColumn(ctx, a.db, column, trimmed, criteria...)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}
		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *accountsRepo) getByColumn(ctx context.Context, tx bun.IDB, column, value string, criteria ...repository.SelectCriteria) (*Account, error) {
	record := &Account{}
	q := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{column: value})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	q := a.db.NewSelect().Model((*Account)(nil))
	for _, c := range criteria {
		q.Apply(c)
	}
	return q.Count(ctx)
}

func (a *accountsRepo) StoreVerification(ctx context.Context, id uuid.UUID, token string, issuedAt time.Time) error {
	return a.StoreVerificationTx(ctx, a.db, id, token, issuedAt)
}

func (a *accountsRepo) StoreVerificationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, issuedAt time.Time) error {
	_, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("verification_token = ?", token).
		Set("token_issued_at = ?", issuedAt).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

// MarkVerified flips the verified flag exactly once. The WHERE guard on
// the unverified state makes the transition monotonic at the storage
// layer; a replay returns the record untouched.
func (a *accountsRepo) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) (*Account, error) {
	return a.MarkVerifiedTx(ctx, a.db, id, at)
}

func (a *accountsRepo) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, markVerifiedSQL, at, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) > 0 {
		return res[0], nil
	}

	// no row transitioned: either already verified or missing
	record := &Account{}
	err = tx.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.UpdatePasswordTx(ctx, a.db, id, passwordHash)
}

func (a *accountsRepo) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("password_hash = ?", passwordHash).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

// UpdateProfile persists the mutable profile fields. Last write wins:
// there is no optimistic concurrency, so concurrent edits to the same
// profile can race. Known limitation.
func (a *accountsRepo) UpdateProfile(ctx context.Context, id uuid.UUID, profile Profile) (*Account, error) {
	return a.UpdateProfileTx(ctx, a.db, id, profile)
}

func (a *accountsRepo) UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, profile Profile) (*Account, error) {
	_, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("bio = ?", profile.Bio).
		Set("url = ?", profile.URL).
		Set("occupation = ?", profile.Occupation).
		Set("location = ?", profile.Location).
		Set("avatar_image = ?", profile.AvatarImage).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return a.getByColumn(ctx, tx, "id", id.String())
}

func (a *accountsRepo) TrackSuccessfulLogin(ctx context.Context, account *Account) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, account)
}

func (a *accountsRepo) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error {
	loggedInAt := time.Now()
	_, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("loggedin_at = ?", loggedInAt).
		Set("login_attempt_at = NULL").
		Set("login_attempts = 0").
		Where("id = ?", account.ID).
		Exec(ctx)

	return err
}

func (a *accountsRepo) TrackAttemptedLogin(ctx context.Context, account *Account) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, account)
}

func (a *accountsRepo) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, account *Account) error {
	now := time.Now()
	_, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("login_attempts = ?", account.LoginAttempts+1).
		Set("login_attempt_at = ?", now).
		Where("id = ?", account.ID).
		Exec(ctx)

	return err
}

// translateConstraintError maps a unique constraint violation to the
// specific duplicate kind. Driver messages differ (sqlite says "UNIQUE
// constraint failed: accounts.email", postgres names the index), so we
// match on the column name and fall back to probing the store.
func (a *accountsRepo) translateConstraintError(ctx context.Context, tx bun.IDB, err error, record *Account) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate") {
		return err
	}

	if strings.Contains(msg, "email") {
		return ErrDuplicateEmail.WithMetadata(map[string]any{"email": record.Email})
	}
	if strings.Contains(msg, "nickname") {
		return ErrDuplicateNickname.WithMetadata(map[string]any{"nickname": record.Nickname})
	}

	if _, lookupErr := a.getByColumn(ctx, tx, "email", record.Email); lookupErr == nil {
		return ErrDuplicateEmail.WithMetadata(map[string]any{"email": record.Email})
	}

	return ErrDuplicateNickname.WithMetadata(map[string]any{"nickname": record.Nickname})
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func isNoRows(err error) bool {
	if err == nil {
		return false
	}
	if repository.IsRecordNotFound(err) {
		return true
	}
	return strings.Contains(err.Error(), "no rows in result set")
}
