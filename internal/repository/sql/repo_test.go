package sql

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"checkout-service/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var orderColumns = []string{
	"id", "user_id", "user_email", "user_name", "user_phone", "order_number", "items",
	"subtotal", "tax", "shipping", "total_price", "total_items", "payment_method",
	"payment_id", "payment_status", "notes", "purchase_date",
}

func orderRow(rows *sqlmock.Rows, id, userID string, at time.Time) *sqlmock.Rows {
	items := `[{"productId":"p1","name":"Pan","image":"","quantity":2,"unitPrice":"10000","lineTotal":"20000"}]`
	return rows.AddRow(id, userID, "a@b.co", "Ana", "300", "ORD-1", items,
		"20000", "3800", "0", "23800", 2, "mercadopago", "pay-"+id, "approved", "", at)
}

func TestOrderRepo_Save(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `orders`")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	paymentID := "123"
	order := &domain.Order{
		ID:            "o1",
		UserID:        "u1",
		OrderNumber:   "ORD-1",
		Items:         datatypes.NewJSONSlice([]domain.OrderLine{{ProductID: "p1", Quantity: 2}}),
		Subtotal:      decimal.NewFromInt(20000),
		Tax:           decimal.NewFromInt(3800),
		TotalPrice:    decimal.NewFromInt(23800),
		TotalItems:    2,
		PaymentID:     &paymentID,
		PaymentStatus: domain.StatusApproved,
	}
	require.NoError(t, repo.Save(context.Background(), order))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_SaveWithoutPaymentIDWritesNull(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	stmt := &gorm.Statement{DB: db}
	require.NoError(t, stmt.Parse(&domain.Order{}))
	args := make([]driver.Value, len(stmt.Schema.DBNames))
	for i, name := range stmt.Schema.DBNames {
		if name == "payment_id" {
			args[i] = nil
		} else {
			args[i] = sqlmock.AnyArg()
		}
	}

	for _, id := range []string{"o1", "o2"} {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `orders`")).WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Save(context.Background(), &domain.Order{
			ID:            id,
			UserID:        "u1",
			OrderNumber:   "ORD-" + id,
			Items:         datatypes.NewJSONSlice([]domain.OrderLine{{ProductID: "p1", Quantity: 1}}),
			Subtotal:      decimal.NewFromInt(1000),
			Tax:           decimal.NewFromInt(190),
			TotalPrice:    decimal.NewFromInt(1190),
			TotalItems:    1,
			PaymentStatus: domain.StatusApproved,
		}))
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_SaveRequiresID(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewOrderRepository(db)
	assert.Error(t, repo.Save(context.Background(), &domain.Order{}))
}

func TestOrderRepo_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `orders` WHERE id = ?")).
		WillReturnRows(orderRow(sqlmock.NewRows(orderColumns), "o1", "u1", now))

	o, err := repo.FindByID(context.Background(), "o1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "o1", o.ID)
	assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(23800)))
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(2), o.Items[0].Quantity)
	assert.True(t, o.Consistent())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_FindByPaymentIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `orders` WHERE payment_id = ?")).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	o, err := repo.FindByPaymentID(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, o)
}

func TestOrderRepo_FindByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(orderColumns)
	orderRow(rows, "o2", "u1", now)
	orderRow(rows, "o1", "u1", now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `orders` WHERE user_id = ? ORDER BY purchase_date DESC")).
		WithArgs("u1").
		WillReturnRows(rows)

	out, err := repo.FindByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "o2", out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_UpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `orders` SET `payment_status`=? WHERE id = ?")).
		WithArgs(domain.StatusRejected, "o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateStatus(context.Background(), "o1", domain.StatusRejected))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `orders` SET `payment_status`=? WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "missing", domain.StatusRejected), gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `orders` WHERE id = ?")).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "o1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_FindAllByCategory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "price", "category", "image_url", "unit", "stock", "available"}).
		AddRow("p1", "Banano", "", "1200.00", "frutas", "", "kg", 10, true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `products` WHERE category = ? ORDER BY name ASC")).
		WithArgs(domain.CategoryFruits).
		WillReturnRows(rows)

	out, err := repo.FindAll(context.Background(), domain.CategoryFruits)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Price.Equal(decimal.NewFromInt(1200)))
	assert.True(t, out[0].Available)
}
