package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"popballoons/internal/domain"
	"popballoons/internal/repository"
)

const createPurchasesTable = `
CREATE TABLE IF NOT EXISTS purchases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account TEXT NOT NULL,
	action TEXT NOT NULL,
	quantity TEXT NOT NULL,
	transaction_id TEXT NOT NULL DEFAULT '',
	auth_method TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_purchases_account ON purchases(account);
`

type PurchaseRepository struct {
	db *sql.DB
}

func NewPurchaseRepository(db *sql.DB) repository.PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPurchasesTable); err != nil {
		return fmt.Errorf("create purchases table: %w", err)
	}
	return nil
}

func (r *PurchaseRepository) Create(ctx context.Context, p *domain.Purchase) (int64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO purchases (account, action, quantity, transaction_id, auth_method, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		p.Account,
		p.Action,
		p.Quantity,
		p.TransactionID,
		string(p.Method),
		p.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert purchase: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("purchase last insert id: %w", err)
	}
	p.ID = id
	return id, nil
}

func (r *PurchaseRepository) ListByAccount(ctx context.Context, account string) ([]domain.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, account, action, quantity, transaction_id, auth_method, created_at
FROM purchases
WHERE account = ?
ORDER BY created_at DESC, id DESC`,
		account,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		var (
			p      domain.Purchase
			method string
		)
		if err := rows.Scan(&p.ID, &p.Account, &p.Action, &p.Quantity, &p.TransactionID, &method, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		p.Method = domain.AuthMethod(method)
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return purchases, nil
}
