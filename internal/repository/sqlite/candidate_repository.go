package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"popballoons/internal/domain"
	"popballoons/internal/repository"
)

const createCandidatesTable = `
CREATE TABLE IF NOT EXISTS candidates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	nickname TEXT NOT NULL,
	gender TEXT NOT NULL,
	platform TEXT NOT NULL,
	social_handle TEXT NOT NULL,
	age TEXT NOT NULL DEFAULT '',
	profile_pic TEXT NOT NULL DEFAULT '',
	love_languages TEXT NOT NULL DEFAULT '[]',
	hobbies TEXT NOT NULL DEFAULT '[]',
	deal_breakers TEXT NOT NULL DEFAULT '[]',
	wax_account TEXT NOT NULL DEFAULT '',
	is_real_signup INTEGER NOT NULL DEFAULT 1,
	is_simulated INTEGER NOT NULL DEFAULT 0,
	is_subscribed INTEGER NOT NULL DEFAULT 0,
	ad_free INTEGER NOT NULL DEFAULT 0,
	full_hearts INTEGER NOT NULL DEFAULT 0,
	broken_hearts INTEGER NOT NULL DEFAULT 0,
	matched_with TEXT NOT NULL DEFAULT '[]',
	metadata_cid TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_candidates_wax_account ON candidates(wax_account) WHERE wax_account <> '';
`

const candidateColumns = `id, nickname, gender, platform, social_handle, age, profile_pic,
	love_languages, hobbies, deal_breakers, wax_account, is_real_signup, is_simulated,
	is_subscribed, ad_free, full_hearts, broken_hearts, matched_with, metadata_cid,
	created_at, updated_at`

type CandidateRepository struct {
	db *sql.DB
}

func NewCandidateRepository(db *sql.DB) repository.CandidateRepository {
	return &CandidateRepository{db: db}
}

func (r *CandidateRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCandidatesTable); err != nil {
		return fmt.Errorf("create candidates table: %w", err)
	}
	return nil
}

func (r *CandidateRepository) Create(ctx context.Context, c *domain.Candidate) (int64, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	loveLanguages, err := encodeList(c.LoveLanguages)
	if err != nil {
		return 0, err
	}
	hobbies, err := encodeList(c.Hobbies)
	if err != nil {
		return 0, err
	}
	dealBreakers, err := encodeList(c.DealBreakers)
	if err != nil {
		return 0, err
	}
	matchedWith, err := encodeList(c.MatchedWith)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO candidates (nickname, gender, platform, social_handle, age, profile_pic,
	love_languages, hobbies, deal_breakers, wax_account, is_real_signup, is_simulated,
	is_subscribed, ad_free, full_hearts, broken_hearts, matched_with, metadata_cid,
	created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Nickname,
		c.Gender,
		c.Platform,
		c.SocialHandle,
		c.Age,
		c.ProfilePic,
		loveLanguages,
		hobbies,
		dealBreakers,
		c.WaxAccount,
		c.IsRealSignup,
		c.IsSimulated,
		c.IsSubscribed,
		c.AdFree,
		c.FullHearts,
		c.BrokenHearts,
		matchedWith,
		c.MetadataCID,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, fmt.Errorf("candidate %w: %v", repository.ErrAlreadyExists, err)
		}
		return 0, fmt.Errorf("insert candidate: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("candidate last insert id: %w", err)
	}
	c.ID = id
	return id, nil
}

func (r *CandidateRepository) GetByID(ctx context.Context, id int64) (*domain.Candidate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id)
	return scanCandidate(row)
}

func (r *CandidateRepository) GetByWaxAccount(ctx context.Context, account string) (*domain.Candidate, error) {
	if account == "" {
		return nil, fmt.Errorf("candidate %w", repository.ErrNotFound)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE wax_account = ?`, account)
	return scanCandidate(row)
}

func (r *CandidateRepository) UpdateEntitlements(ctx context.Context, id int64, subscribed, adFree bool) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE candidates SET is_subscribed = ?, ad_free = ?, updated_at = ?
WHERE id = ?`,
		subscribed,
		adFree,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update candidate entitlements: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("candidate rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("candidate %w", repository.ErrNotFound)
	}
	return nil
}

func scanCandidate(row interface {
	Scan(dest ...any) error
}) (*domain.Candidate, error) {
	var c domain.Candidate
	var loveLanguages, hobbies, dealBreakers, matchedWith string
	if err := row.Scan(
		&c.ID,
		&c.Nickname,
		&c.Gender,
		&c.Platform,
		&c.SocialHandle,
		&c.Age,
		&c.ProfilePic,
		&loveLanguages,
		&hobbies,
		&dealBreakers,
		&c.WaxAccount,
		&c.IsRealSignup,
		&c.IsSimulated,
		&c.IsSubscribed,
		&c.AdFree,
		&c.FullHearts,
		&c.BrokenHearts,
		&matchedWith,
		&c.MetadataCID,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("candidate %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}

	for _, f := range []struct {
		raw string
		dst *[]string
	}{
		{loveLanguages, &c.LoveLanguages},
		{hobbies, &c.Hobbies},
		{dealBreakers, &c.DealBreakers},
		{matchedWith, &c.MatchedWith},
	} {
		list, err := decodeList(f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = list
	}
	return &c, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(raw), nil
}

func decodeList(raw string) ([]string, error) {
	var values []string
	if raw == "" {
		return []string{}, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}
