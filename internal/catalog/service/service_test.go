package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/operisapp/billing/internal/catalog/domain"
	catalogrepository "github.com/operisapp/billing/internal/catalog/repository"
	"github.com/operisapp/billing/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (catalogdomain.Service, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.BillingService{},
		&catalogdomain.ProjectService{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)),
		Repo:  catalogrepository.Provide(),
	})
	return svc, node
}

func TestAttachServiceValidatesAndDefaults(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()

	created, err := svc.CreateService(ctx, catalogdomain.CreateServiceRequest{
		Name:         "Hosting",
		PriceMonthly: 100,
		PriceYearly:  1000,
	})
	require.NoError(t, err)

	projectID := node.Generate().String()

	attached, err := svc.AttachService(ctx, catalogdomain.AttachServiceRequest{
		ProjectID:     projectID,
		ServiceID:     created.ID.String(),
		BillingPeriod: catalogdomain.BillingPeriodMonthly,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attached.Quantity)
	assert.Nil(t, attached.CustomPrice)

	// Attaching twice conflicts.
	_, err = svc.AttachService(ctx, catalogdomain.AttachServiceRequest{
		ProjectID:     projectID,
		ServiceID:     created.ID.String(),
		BillingPeriod: catalogdomain.BillingPeriodMonthly,
	})
	assert.ErrorIs(t, err, catalogdomain.ErrServiceAlreadyAttached)

	_, err = svc.AttachService(ctx, catalogdomain.AttachServiceRequest{
		ProjectID:     node.Generate().String(),
		ServiceID:     created.ID.String(),
		BillingPeriod: "weekly",
	})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidBillingPeriod)
}

func TestAttachArchivedServiceRejected(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()

	created, err := svc.CreateService(ctx, catalogdomain.CreateServiceRequest{
		Name:         "Legacy SEO",
		PriceMonthly: 50,
	})
	require.NoError(t, err)
	require.NoError(t, svc.ArchiveService(ctx, created.ID.String()))

	_, err = svc.AttachService(ctx, catalogdomain.AttachServiceRequest{
		ProjectID:     node.Generate().String(),
		ServiceID:     created.ID.String(),
		BillingPeriod: catalogdomain.BillingPeriodMonthly,
	})
	assert.ErrorIs(t, err, catalogdomain.ErrServiceArchived)
}

func TestListByProjectResolvesEffectivePrices(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()

	hosting, err := svc.CreateService(ctx, catalogdomain.CreateServiceRequest{
		Name:         "Hosting",
		PriceMonthly: 100,
		PriceYearly:  1000,
	})
	require.NoError(t, err)
	seo, err := svc.CreateService(ctx, catalogdomain.CreateServiceRequest{
		Name:         "SEO",
		PriceMonthly: 200,
	})
	require.NoError(t, err)

	projectID := node.Generate().String()
	custom := int64(150)

	_, err = svc.AttachService(ctx, catalogdomain.AttachServiceRequest{
		ProjectID:     projectID,
		ServiceID:     hosting.ID.String(),
		BillingPeriod: catalogdomain.BillingPeriodYearly,
	})
	require.NoError(t, err)
	_, err = svc.AttachService(ctx, catalogdomain.AttachServiceRequest{
		ProjectID:     projectID,
		ServiceID:     seo.ID.String(),
		CustomPrice:   &custom,
		Quantity:      2,
		BillingPeriod: catalogdomain.BillingPeriodMonthly,
	})
	require.NoError(t, err)

	attached, err := svc.ListByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, attached, 2)

	byName := map[string]catalogdomain.AttachedService{}
	for _, a := range attached {
		byName[a.ServiceName] = a
	}

	assert.Equal(t, int64(1000), byName["Hosting"].UnitPrice())
	assert.Equal(t, int64(1000), byName["Hosting"].LineTotal())
	assert.Equal(t, int64(150), byName["SEO"].UnitPrice())
	assert.Equal(t, int64(300), byName["SEO"].LineTotal())
}
