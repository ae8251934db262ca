package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogWritesAreAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := ServiceInput{Name: "DJ", BasePrice: 5000, DurationMinutes: 240}

	_, err := f.catalog.CreateService(ctx, f.staff, in)
	assert.True(t, IsKind(err, KindForbidden))
	_, err = f.catalog.CreateService(ctx, f.user, in)
	assert.True(t, IsKind(err, KindForbidden))

	svc, err := f.catalog.CreateService(ctx, f.admin, in)
	require.NoError(t, err)
	assert.True(t, svc.IsActive)

	off, err := f.catalog.SetServiceActive(ctx, f.admin, svc.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	active, err := f.catalog.ListServices(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := f.catalog.ListServices(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.catalog.GetService(ctx, 999)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestServiceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, in := range []ServiceInput{
		{Name: " ", BasePrice: 1, DurationMinutes: 1},
		{Name: "x", BasePrice: 0, DurationMinutes: 1},
		{Name: "x", BasePrice: 1, DurationMinutes: 0},
	} {
		_, err := f.catalog.CreateService(ctx, f.admin, in)
		assert.True(t, IsKind(err, KindValidation), "%+v", in)
	}
}

func TestUpdateServiceKeepsBookingSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, 10000)

	_, err := f.catalog.UpdateService(ctx, f.admin, *b.ServiceID, ServiceInput{Name: "Photography", BasePrice: 99999, DurationMinutes: 60})
	require.NoError(t, err)

	got, err := f.bookings.GetBooking(ctx, f.user, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), got.QuotedPrice)
	assert.Equal(t, 120, got.DurationMinutes)
}

func TestPackageServicesMustExist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.service(t, 1000)
	b := f.service(t, 2000)

	_, err := f.catalog.CreatePackage(ctx, f.admin, PackageInput{Name: "Gold", ServiceIDs: []uint64{a.ID, 404}, Price: 2500, DurationMinutes: 300})
	assert.True(t, IsKind(err, KindValidation))
	_, err = f.catalog.CreatePackage(ctx, f.admin, PackageInput{Name: "Gold", Price: 2500, DurationMinutes: 300})
	assert.True(t, IsKind(err, KindValidation))

	p, err := f.catalog.CreatePackage(ctx, f.admin, PackageInput{Name: "Gold", ServiceIDs: []uint64{a.ID, b.ID, a.ID}, Price: 2500, DurationMinutes: 300})
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID, b.ID}, p.ServiceIDs)

	got, err := f.catalog.GetPackage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), got.Price)

	_, err = f.catalog.SetPackageActive(ctx, f.staff, p.ID, false)
	assert.True(t, IsKind(err, KindForbidden))
}
