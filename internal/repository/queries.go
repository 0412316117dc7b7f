package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shopkite/ordering-api/internal/domain"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the same queries
// run inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// --- balance ---

func (q *Queries) InsertBalance(ctx context.Context, userID, amount int64) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO balance (user_id, amount, version, updated_at)
		 VALUES ($1, $2, 0, now())`,
		userID, amount)
	return err
}

func (q *Queries) GetBalance(ctx context.Context, userID int64) (domain.Balance, error) {
	var b domain.Balance
	err := q.db.QueryRow(ctx,
		`SELECT user_id, amount, version, updated_at
		 FROM balance WHERE user_id = $1`,
		userID).Scan(&b.UserID, &b.Amount, &b.Version, &b.UpdatedAt)
	return b, err
}

// UpdateBalanceVersioned writes the new amount only if the row still
// carries the version the caller read. Zero affected rows means another
// writer committed first.
func (q *Queries) UpdateBalanceVersioned(ctx context.Context, b domain.Balance) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE balance
		 SET amount = $1, version = version + 1, updated_at = now()
		 WHERE user_id = $2 AND version = $3`,
		b.Amount, b.UserID, b.Version)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) InsertBalanceHistory(ctx context.Context, h domain.BalanceHistory) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO balance_history (user_id, amount, type, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		h.UserID, h.Amount, string(h.Type), h.Reason, h.CreatedAt)
	return err
}

func (q *Queries) ListBalanceHistory(ctx context.Context, userID int64) ([]domain.BalanceHistory, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, user_id, amount, type, reason, created_at
		 FROM balance_history WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.BalanceHistory
	for rows.Next() {
		var h domain.BalanceHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Amount, &h.Type, &h.Reason, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// --- coupon ---

const couponColumns = `id, code, type, discount_value, remaining_quantity, valid_from, valid_until`

func scanCoupon(row pgx.Row) (domain.Coupon, error) {
	var c domain.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Type, &c.DiscountValue,
		&c.RemainingQuantity, &c.ValidFrom, &c.ValidUntil)
	return c, err
}

func (q *Queries) GetCouponByCode(ctx context.Context, code string) (domain.Coupon, error) {
	return scanCoupon(q.db.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupon WHERE code = $1`, code))
}

// GetCouponByCodeForUpdate takes the exclusive row lock that serializes
// all issuers of this coupon until the transaction ends.
func (q *Queries) GetCouponByCodeForUpdate(ctx context.Context, code string) (domain.Coupon, error) {
	return scanCoupon(q.db.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupon WHERE code = $1 FOR UPDATE`, code))
}

func (q *Queries) DecrementCouponQuantity(ctx context.Context, couponID int64) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE coupon SET remaining_quantity = remaining_quantity - 1
		 WHERE id = $1 AND remaining_quantity > 0`,
		couponID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) CouponIssueExists(ctx context.Context, userID, couponID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM coupon_issue WHERE user_id = $1 AND coupon_id = $2)`,
		userID, couponID).Scan(&exists)
	return exists, err
}

func (q *Queries) InsertCouponIssue(ctx context.Context, userID, couponID int64, issuedAt time.Time) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO coupon_issue (user_id, coupon_id, issued_at, is_used)
		 VALUES ($1, $2, $3, false)`,
		userID, couponID, issuedAt)
	return err
}

func (q *Queries) GetCouponIssueForUpdate(ctx context.Context, userID, couponID int64) (domain.CouponIssue, error) {
	var ci domain.CouponIssue
	err := q.db.QueryRow(ctx,
		`SELECT id, user_id, coupon_id, issued_at, is_used
		 FROM coupon_issue WHERE user_id = $1 AND coupon_id = $2 FOR UPDATE`,
		userID, couponID).Scan(&ci.ID, &ci.UserID, &ci.CouponID, &ci.IssuedAt, &ci.IsUsed)
	return ci, err
}

func (q *Queries) MarkCouponIssueUsed(ctx context.Context, issueID int64) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE coupon_issue SET is_used = true WHERE id = $1 AND is_used = false`,
		issueID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListUserCoupons(ctx context.Context, userID int64) ([]domain.UserCoupon, error) {
	rows, err := q.db.Query(ctx,
		`SELECT ci.id, ci.user_id, ci.coupon_id, ci.issued_at, ci.is_used,
		        c.id, c.code, c.type, c.discount_value, c.remaining_quantity, c.valid_from, c.valid_until
		 FROM coupon_issue ci
		 JOIN coupon c ON c.id = ci.coupon_id
		 WHERE ci.user_id = $1
		 ORDER BY ci.issued_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []domain.UserCoupon
	for rows.Next() {
		var uc domain.UserCoupon
		err := rows.Scan(&uc.Issue.ID, &uc.Issue.UserID, &uc.Issue.CouponID,
			&uc.Issue.IssuedAt, &uc.Issue.IsUsed,
			&uc.Coupon.ID, &uc.Coupon.Code, &uc.Coupon.Type, &uc.Coupon.DiscountValue,
			&uc.Coupon.RemainingQuantity, &uc.Coupon.ValidFrom, &uc.Coupon.ValidUntil)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, uc)
	}
	return coupons, rows.Err()
}

// --- product / stock ---

func (q *Queries) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	var p domain.Product
	err := q.db.QueryRow(ctx,
		`SELECT id, name, brand, price, release_date FROM product WHERE id = $1`,
		productID).Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.ReleaseDate)
	return p, err
}

func (q *Queries) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, name, brand, price, release_date FROM product ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.ReleaseDate); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (q *Queries) GetStockForUpdate(ctx context.Context, productID int64, size int) (domain.ProductStock, error) {
	var s domain.ProductStock
	err := q.db.QueryRow(ctx,
		`SELECT id, product_id, size, stock_quantity
		 FROM product_stock WHERE product_id = $1 AND size = $2 FOR UPDATE`,
		productID, size).Scan(&s.ID, &s.ProductID, &s.Size, &s.StockQuantity)
	return s, err
}

func (q *Queries) UpdateStockQuantity(ctx context.Context, stockID int64, quantity int) error {
	_, err := q.db.Exec(ctx,
		`UPDATE product_stock SET stock_quantity = $1 WHERE id = $2`,
		quantity, stockID)
	return err
}

func (q *Queries) ListStocksByProduct(ctx context.Context, productID int64) ([]domain.ProductStock, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, product_id, size, stock_quantity
		 FROM product_stock WHERE product_id = $1 ORDER BY size`,
		productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stocks []domain.ProductStock
	for rows.Next() {
		var s domain.ProductStock
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Size, &s.StockQuantity); err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// --- order ---

func (q *Queries) InsertOrder(ctx context.Context, o domain.Order) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO orders (id, user_id, coupon_code, total_amount, paid_amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.UserID, o.CouponCode, o.TotalAmount, o.PaidAmount, string(o.Status), o.CreatedAt)
	if err != nil {
		return err
	}
	for _, item := range o.Items {
		_, err := q.db.Exec(ctx,
			`INSERT INTO order_item (order_id, product_id, size, quantity, unit_price)
			 VALUES ($1, $2, $3, $4, $5)`,
			o.ID, item.ProductID, item.Size, item.Quantity, item.UnitPrice)
		if err != nil {
			return err
		}
	}
	return nil
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	_, err := q.db.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2`,
		string(status), orderID)
	return err
}

func (q *Queries) UpdateOrderPaidAmount(ctx context.Context, orderID string, paidAmount int64) error {
	_, err := q.db.Exec(ctx,
		`UPDATE orders SET paid_amount = $1 WHERE id = $2`,
		paidAmount, orderID)
	return err
}

func (q *Queries) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	var o domain.Order
	err := q.db.QueryRow(ctx,
		`SELECT id, user_id, coupon_code, total_amount, paid_amount, status, created_at
		 FROM orders WHERE id = $1`,
		orderID).Scan(&o.ID, &o.UserID, &o.CouponCode, &o.TotalAmount, &o.PaidAmount, &o.Status, &o.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	rows, err := q.db.Query(ctx,
		`SELECT product_id, size, quantity, unit_price FROM order_item WHERE order_id = $1`,
		orderID)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Size, &item.Quantity, &item.UnitPrice); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}
