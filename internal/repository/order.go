package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Bessima/translation-orders/internal/config/db"
	"github.com/Bessima/translation-orders/internal/customerror"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const orderColumns = `id, user_id, orderer_name, phone, package_tier, page_count, total_price,
	is_disadvantaged, is_school, uploaded_file_paths, certificate_path, translated_file_path,
	status, created_at, estimated_delivery_date`

const summaryColumns = `id, user_id, orderer_name, status, created_at, page_count, package_tier,
	total_price, estimated_delivery_date`

type OrderRepository struct {
	db *db.DB
}

type OrderStorageRepositoryI interface {
	Create(ctx context.Context, order models.NewOrder) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByIDForUser(ctx context.Context, id int64, userID string) (*models.Order, error)
	GetListByUserID(ctx context.Context, userID string) ([]models.OrderSummary, error)
	GetList(ctx context.Context) ([]models.OrderSummary, error)
	ConfirmPackage(ctx context.Context, id int64, userID string, pkg models.Package, now time.Time) (*models.Order, error)
	AdminUpdate(ctx context.Context, id int64, patch models.OrderPatch, force bool) (*models.Order, error)
}

func NewOrderRepository(dbObj *db.DB) *OrderRepository {
	return &OrderRepository{db: dbObj}
}

// mapError переводит ошибки хранилища в таксономию customerror.
func mapError(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return customerror.NewNotFoundError("order not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InsufficientPrivilege {
		return customerror.NewForbiddenError("permission denied")
	}
	return customerror.NewServerError(action, err)
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	order := models.Order{}
	var status string
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrdererName,
		&order.Phone,
		&order.PackageTier,
		&order.PageCount,
		&order.TotalPrice,
		&order.IsDisadvantaged,
		&order.IsSchool,
		&order.UploadedFilePaths,
		&order.CertificatePath,
		&order.TranslatedFilePath,
		&status,
		&order.CreatedAt,
		&order.EstimatedDeliveryDate,
	)
	if err != nil {
		return nil, err
	}
	order.Status = models.OrderStatus(status)
	return &order, nil
}

func (repository *OrderRepository) Create(ctx context.Context, order models.NewOrder) (*models.Order, error) {
	if len(order.UploadedFilePaths) == 0 {
		return nil, customerror.NewBadRequestError("at least one uploaded file is required")
	}
	if order.CertificatePath != nil && !order.IsDisadvantaged {
		return nil, customerror.NewBadRequestError("certificate is accepted only for disadvantaged applicants")
	}

	query := `INSERT INTO orders (user_id, orderer_name, phone, package_tier, is_disadvantaged, is_school,
		uploaded_file_paths, certificate_path, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + orderColumns

	row := repository.db.Pool.QueryRow(
		ctx,
		query,
		order.UserID,
		order.OrdererName,
		order.Phone,
		order.PackageTier,
		order.IsDisadvantaged,
		order.IsSchool,
		order.UploadedFilePaths,
		order.CertificatePath,
		string(models.InitialStatus),
	)

	created, err := scanOrder(row)
	if err != nil {
		return nil, mapError(err, "order was not created")
	}
	return created, nil
}

func (repository *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(repository.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "order was not loaded")
	}
	return order, nil
}

// GetByIDForUser returns NotFound for orders owned by somebody else.
func (repository *OrderRepository) GetByIDForUser(ctx context.Context, id int64, userID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	order, err := scanOrder(repository.db.Pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, mapError(err, "order was not loaded")
	}
	return order, nil
}

func (repository *OrderRepository) GetListByUserID(ctx context.Context, userID string) ([]models.OrderSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return repository.getSummaries(ctx, query, userID)
}

func (repository *OrderRepository) GetList(ctx context.Context) ([]models.OrderSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM orders ORDER BY created_at DESC`
	return repository.getSummaries(ctx, query)
}

func (repository *OrderRepository) getSummaries(ctx context.Context, query string, args ...interface{}) ([]models.OrderSummary, error) {
	rows, err := repository.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "orders were not loaded")
	}
	defer rows.Close()

	orders := []models.OrderSummary{}
	for rows.Next() {
		var summary models.OrderSummary
		var status string
		err = rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.OrdererName,
			&status,
			&summary.CreatedAt,
			&summary.PageCount,
			&summary.PackageTier,
			&summary.TotalPrice,
			&summary.EstimatedDeliveryDate,
		)
		if err != nil {
			return nil, mapError(err, "orders were not loaded")
		}
		summary.Status = models.OrderStatus(status)
		orders = append(orders, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, mapError(err, "orders were not loaded")
	}
	return orders, nil
}

// ConfirmPackage prices the order and moves it to Pending Payment in one conditional UPDATE.
// When nothing matched, a follow-up read tells NotFound from Conflict.
func (repository *OrderRepository) ConfirmPackage(ctx context.Context, id int64, userID string, pkg models.Package, now time.Time) (*models.Order, error) {
	query := `UPDATE orders
		SET package_tier = $1,
			total_price = page_count::bigint * $2,
			estimated_delivery_date = $3,
			status = $4
		WHERE id = $5 AND user_id = $6 AND status = $7 AND page_count > 0
		RETURNING ` + orderColumns

	row := repository.db.Pool.QueryRow(
		ctx,
		query,
		pkg.Name,
		pkg.PricePerPage,
		pkg.EstimatedDelivery(now),
		string(models.PendingPaymentStatus),
		id,
		userID,
		string(models.PendingPackageConfirmationStatus),
	)

	order, err := scanOrder(row)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapError(err, "package was not confirmed")
	}

	return nil, repository.explainConfirmMiss(ctx, id, userID)
}

func (repository *OrderRepository) explainConfirmMiss(ctx context.Context, id int64, userID string) error {
	query := `SELECT status, page_count FROM orders WHERE id = $1 AND user_id = $2`

	var status string
	var pageCount *int32
	err := repository.db.Pool.QueryRow(ctx, query, id, userID).Scan(&status, &pageCount)
	if err != nil {
		return mapError(err, "order was not loaded")
	}

	if models.OrderStatus(status) != models.PendingPackageConfirmationStatus {
		return customerror.NewConflictError(fmt.Sprintf("order is in status %q, package can be confirmed only in status %q",
			status, models.PendingPackageConfirmationStatus))
	}
	return customerror.NewConflictError("page count has not been set for this order yet")
}

// AdminUpdate applies the patch in a single conditional UPDATE. A status change is guarded by the
// allowed predecessor statuses unless force is set; the same status is accepted as is.
func (repository *OrderRepository) AdminUpdate(ctx context.Context, id int64, patch models.OrderPatch, force bool) (*models.Order, error) {
	if patch.IsEmpty() {
		return nil, customerror.NewBadRequestError("nothing to update")
	}

	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.PageCount != nil {
		add("page_count", *patch.PageCount)
	}
	if patch.TotalPrice != nil {
		add("total_price", *patch.TotalPrice)
	}
	if patch.PackageTier != nil {
		add("package_tier", *patch.PackageTier)
	}
	if patch.EstimatedDeliveryDate != nil {
		add("estimated_delivery_date", *patch.EstimatedDeliveryDate)
	}
	if patch.TranslatedFilePath != nil {
		add("translated_file_path", *patch.TranslatedFilePath)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	guarded := patch.Status != nil && !force
	if guarded {
		args = append(args, models.StatusesAsStrings(patch.Status.GuardStatuses()))
		query += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	query += " RETURNING " + orderColumns

	order, err := scanOrder(repository.db.Pool.QueryRow(ctx, query, args...))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) || !guarded {
		return nil, mapError(err, "order was not updated")
	}

	var current string
	err = repository.db.Pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if err != nil {
		return nil, mapError(err, "order was not loaded")
	}
	return nil, customerror.NewConflictError(fmt.Sprintf("order cannot move from %q to %q", current, *patch.Status))
}
