package memberauth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeActivationSQL flips the active flag and clears the activation token
// in one statement. The WHERE clause on activation_token makes consumption
// exactly-once: a second run matches zero rows.
var ConsumeActivationSQL = `UPDATE "profiles" AS "prf"
SET
	"is_active" = TRUE,
	"activation_token" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"prf"."deleted_at" IS NULL
AND (
	"prf"."activation_token" = ?
) RETURNING *;`

// SetPasswordSQL rewrites the credential hash for a profile
var SetPasswordSQL = `UPDATE "profiles" AS "prf"
SET
	"password_hash" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"prf"."deleted_at" IS NULL
AND (
	"prf"."id" = ?
) RETURNING *;`

type Profiles interface {
	repository.Repository[*Profile]

	GetByEmail(ctx context.Context, email string) (*Profile, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Profile, error)

	ConsumeActivation(ctx context.Context, token string) (*Profile, error)
	ConsumeActivationTx(ctx context.Context, tx bun.IDB, token string) (*Profile, error)

	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	TrackAttemptedLogin(ctx context.Context, profile *Profile) error
	TrackSuccessfulLogin(ctx context.Context, profile *Profile) error

	Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

func (a *profiles) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *profiles) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Where(`?TableAlias."email" = ?`, email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *profiles) ConsumeActivation(ctx context.Context, token string) (*Profile, error) {
	return a.ConsumeActivationTx(ctx, a.db, token)
}

func (a *profiles) ConsumeActivationTx(ctx context.Context, tx bun.IDB, token string) (*Profile, error) {
	res, err := a.Repository.RawTx(ctx, tx, ConsumeActivationSQL, token)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"activation_token": token})
	}

	return res[0], nil
}

func (a *profiles) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.SetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *profiles) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, SetPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (a *profiles) TrackSuccessfulLogin(ctx context.Context, profile *Profile) error {
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "profiles" AS "prf"
		SET
			"logged_in_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("prf".id = ?)
			AND "prf"."deleted_at" IS NULL;
	`, loggedInAt, profile.ID).Exec(ctx)

	return err
}

func (a *profiles) TrackAttemptedLogin(ctx context.Context, profile *Profile) error {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(profile.ID.String()),
	}

	record := &Profile{}
	record.ID = profile.ID
	record.LoginAttempts = profile.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.Update(ctx, record, criteria...)

	return err
}

func (a *profiles) Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *profiles) CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	prepareProfileDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func prepareProfileDefaults(record *Profile) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleMember
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
