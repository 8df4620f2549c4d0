//go:build integration
// +build integration

package db_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/panuwatk/stockledger-be/internal/adapters/db"
	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
	"github.com/panuwatk/stockledger-be/test/helpers"
)

type MovementRepositorySuite struct {
	suite.Suite
	testDB    *helpers.TestDB
	movements ports.MovementRepository
	products  ports.ProductRepository
	ctx       context.Context
}

func (s *MovementRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.movements = db.NewMovementRepository(s.testDB.Database, helpers.TestLogger())
	s.products = db.NewProductRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *MovementRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *MovementRepositorySuite) seedProduct(stock int) *domain.Product {
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.CurrentStock = stock
	})
	helpers.SeedTestProducts(s.T(), s.testDB.PgxPool, []domain.Product{*product})
	return product
}

func (s *MovementRepositorySuite) TestRecordAdjustment_StockIn() {
	product := s.seedProduct(50)

	movement, err := s.movements.RecordAdjustment(s.ctx, helpers.CreateTestAdjustment(product.ID))
	s.NoError(err)
	s.Require().NotNil(movement)
	s.Equal(domain.MovementIn, movement.Type)
	s.Equal(20, movement.Quantity)
	s.Equal(70, movement.RemainingStock)
	s.False(movement.CreatedAt.IsZero())

	// Product stock and ledger agree
	saved, err := s.products.FindByID(s.ctx, product.ID)
	s.NoError(err)
	s.Equal(70, saved.CurrentStock)

	count, err := s.movements.CountByProduct(s.ctx, product.ID)
	s.NoError(err)
	s.Equal(int64(1), count)
}

func (s *MovementRepositorySuite) TestRecordAdjustment_InsufficientStock() {
	product := s.seedProduct(70)

	adj := helpers.CreateTestAdjustment(product.ID, func(a *domain.StockAdjustment) {
		a.Type = domain.MovementOut
		a.Quantity = 90
	})

	movement, err := s.movements.RecordAdjustment(s.ctx, adj)
	s.Error(err)
	s.Nil(movement)
	s.True(domain.IsInsufficientStock(err))
	s.Contains(err.Error(), "available 70, requested 90")

	// Nothing was written
	saved, err := s.products.FindByID(s.ctx, product.ID)
	s.NoError(err)
	s.Equal(70, saved.CurrentStock)

	count, err := s.movements.CountByProduct(s.ctx, product.ID)
	s.NoError(err)
	s.Equal(int64(0), count)
}

func (s *MovementRepositorySuite) TestRecordAdjustment_UnknownProduct() {
	movement, err := s.movements.RecordAdjustment(s.ctx, helpers.CreateTestAdjustment(uuid.New()))
	s.Error(err)
	s.Nil(movement)
	s.True(domain.IsNotFound(err))
}

func (s *MovementRepositorySuite) TestRecordAdjustment_DrainToZero() {
	product := s.seedProduct(50)

	in := helpers.CreateTestAdjustment(product.ID)
	_, err := s.movements.RecordAdjustment(s.ctx, in)
	s.Require().NoError(err)

	over := helpers.CreateTestAdjustment(product.ID, func(a *domain.StockAdjustment) {
		a.Type = domain.MovementOut
		a.Quantity = 90
		a.Reason = "order fulfillment"
	})
	_, err = s.movements.RecordAdjustment(s.ctx, over)
	s.True(domain.IsInsufficientStock(err))

	drain := helpers.CreateTestAdjustment(product.ID, func(a *domain.StockAdjustment) {
		a.Type = domain.MovementOut
		a.Quantity = 70
		a.Reason = "order fulfillment"
	})
	movement, err := s.movements.RecordAdjustment(s.ctx, drain)
	s.NoError(err)
	s.Equal(0, movement.RemainingStock)

	summaries, err := s.movements.Report(s.ctx, nil, nil)
	s.NoError(err)
	s.Require().Len(summaries, 2)

	byType := map[domain.MovementType]domain.MovementSummary{}
	for _, summary := range summaries {
		byType[summary.Type] = summary
	}
	s.Equal(int64(20), byType[domain.MovementIn].TotalQuantity)
	s.Equal(int64(1), byType[domain.MovementIn].Count)
	s.Equal(int64(70), byType[domain.MovementOut].TotalQuantity)
	s.Equal(int64(1), byType[domain.MovementOut].Count)
}

func (s *MovementRepositorySuite) TestRecordAdjustment_ConcurrentOverDemand() {
	product := s.seedProduct(50)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			adj := helpers.CreateTestAdjustment(product.ID, func(a *domain.StockAdjustment) {
				a.Type = domain.MovementOut
				a.Quantity = 10
				a.Reason = "order fulfillment"
			})
			_, err := s.movements.RecordAdjustment(s.ctx, adj)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, refused := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case domain.IsInsufficientStock(err):
			refused++
		default:
			s.FailNowf("unexpected error", "%v", err)
		}
	}

	// Exactly the available stock was handed out, never more
	s.Equal(5, succeeded)
	s.Equal(5, refused)

	saved, err := s.products.FindByID(s.ctx, product.ID)
	s.NoError(err)
	s.Equal(0, saved.CurrentStock)

	// The ledger replays to the same final stock
	entries, _, err := s.movements.FindByProduct(s.ctx, product.ID, 100, 0)
	s.NoError(err)
	s.Require().Len(entries, 5)

	oldestFirst := make([]domain.Movement, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		oldestFirst = append(oldestFirst, entries[i].Movement)
	}
	replayed := domain.ReplayRemaining(oldestFirst)
	for i, entry := range oldestFirst {
		s.Equal(replayed[i], entry.RemainingStock-50,
			"ledger snapshot must match replay from the seeded balance")
	}
}

func (s *MovementRepositorySuite) TestFindAll_FiltersAndPagination() {
	product := s.seedProduct(100)

	for i := 0; i < 3; i++ {
		_, err := s.movements.RecordAdjustment(s.ctx, helpers.CreateTestAdjustment(product.ID))
		s.Require().NoError(err)
	}
	out := helpers.CreateTestAdjustment(product.ID, func(a *domain.StockAdjustment) {
		a.Type = domain.MovementOut
		a.Quantity = 5
		a.Reason = "damaged goods"
	})
	_, err := s.movements.RecordAdjustment(s.ctx, out)
	s.Require().NoError(err)

	// Type filter
	entries, total, err := s.movements.FindAll(s.ctx, ports.MovementQueryParams{
		Type: domain.MovementOut, Limit: 10,
	})
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(entries, 1)
	s.Equal("damaged goods", entries[0].Reason)

	// Keyword search matches the reason
	entries, total, err = s.movements.FindAll(s.ctx, ports.MovementQueryParams{
		Search: "damaged", Limit: 10,
	})
	s.NoError(err)
	s.Equal(int64(1), total)

	// Pagination, newest first
	entries, total, err = s.movements.FindAll(s.ctx, ports.MovementQueryParams{
		Limit: 2, Offset: 0,
	})
	s.NoError(err)
	s.Equal(int64(4), total)
	s.Require().Len(entries, 2)
	s.Equal(domain.MovementOut, entries[0].Type)
	s.Equal(product.SKU, entries[0].Product.SKU)
}

func (s *MovementRepositorySuite) TestReport_DateRange() {
	product := s.seedProduct(100)

	_, err := s.movements.RecordAdjustment(s.ctx, helpers.CreateTestAdjustment(product.ID))
	s.Require().NoError(err)

	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	summaries, err := s.movements.Report(s.ctx, &yesterday, &tomorrow)
	s.NoError(err)
	s.Require().Len(summaries, 1)
	s.Equal(int64(20), summaries[0].TotalQuantity)

	// A range in the past excludes today's movements
	lastWeekStart := now.Add(-7 * 24 * time.Hour)
	lastWeekEnd := now.Add(-6 * 24 * time.Hour)
	summaries, err = s.movements.Report(s.ctx, &lastWeekStart, &lastWeekEnd)
	s.NoError(err)
	s.Empty(summaries)
}

func TestMovementRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(MovementRepositorySuite))
}
