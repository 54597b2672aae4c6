package directory

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/alertline/alertline-api/internal/models"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// Directory is the read-only membership view the alerting core consumes.
// User and team lifecycle is owned elsewhere.
type Directory interface {
	ActiveUsers(ctx context.Context) ([]models.User, error)
	ActiveUsersInTeams(ctx context.Context, teamIDs []string) ([]models.User, error)
	ActiveUsersByIDs(ctx context.Context, userIDs []string) ([]models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
}

// Postgres implements Directory over the alertline schema. Beyond the
// read-only view it carries the credential operations the API layer and the
// admin bootstrap command need.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const userColumns = `id, username, email, password_hash, team_id, is_admin, is_active`

func (d *Postgres) ActiveUsers(ctx context.Context) ([]models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM alertline.users
		WHERE is_active
		ORDER BY username`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (d *Postgres) ActiveUsersInTeams(ctx context.Context, teamIDs []string) ([]models.User, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	const query = `
		SELECT ` + userColumns + `
		FROM alertline.users
		WHERE is_active AND team_id = ANY($1::uuid[])
		ORDER BY username`

	rows, err := d.db.QueryContext(ctx, query, pq.Array(teamIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (d *Postgres) ActiveUsersByIDs(ctx context.Context, userIDs []string) ([]models.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	const query = `
		SELECT ` + userColumns + `
		FROM alertline.users
		WHERE is_active AND id = ANY($1::uuid[])
		ORDER BY username`

	rows, err := d.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (d *Postgres) GetUser(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM alertline.users
		WHERE id = $1`

	return scanUser(d.db.QueryRowContext(ctx, query, id))
}

func (d *Postgres) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM alertline.users
		WHERE username = $1`

	return scanUser(d.db.QueryRowContext(ctx, query, username))
}

func (d *Postgres) ListTeams(ctx context.Context) ([]models.Team, error) {
	const query = `
		SELECT id, name, created_at
		FROM alertline.teams
		ORDER BY name`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

type CreateUserParams struct {
	Username string
	Email    string
	Password string
	TeamID   *string
	IsAdmin  bool
}

func (d *Postgres) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return models.User{}, errors.New("username is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	const query = `
		INSERT INTO alertline.users (username, email, password_hash, team_id, is_admin, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING ` + userColumns

	var teamID interface{}
	if params.TeamID != nil {
		teamID = *params.TeamID
	}

	return scanUser(d.db.QueryRowContext(ctx, query,
		username, strings.TrimSpace(params.Email), string(hash), teamID, params.IsAdmin))
}

func (d *Postgres) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := d.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errors.New("invalid credentials")
		}
		return models.User{}, err
	}

	if !user.IsActive {
		return models.User{}, errors.New("user is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errors.New("invalid credentials")
	}

	return user, nil
}

func scanUser(scanner interface {
	Scan(dest ...interface{}) error
}) (models.User, error) {
	var (
		user   models.User
		teamID sql.NullString
	)

	if err := scanner.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&teamID,
		&user.IsAdmin,
		&user.IsActive,
	); err != nil {
		return models.User{}, err
	}

	if teamID.Valid {
		val := teamID.String
		user.TeamID = &val
	}
	return user, nil
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
