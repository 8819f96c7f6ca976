package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/casacase/domain"
	"github.com/smallbiznis/advocase/internal/casacase/repository"
	"github.com/smallbiznis/advocase/internal/clock"
	ctdomain "github.com/smallbiznis/advocase/internal/contacttype/domain"
	ctrepository "github.com/smallbiznis/advocase/internal/contacttype/repository"
	orgdomain "github.com/smallbiznis/advocase/internal/organization/domain"
	"github.com/smallbiznis/advocase/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	repo    domain.Repository
	ctRepo  ctdomain.Repository
	svc     domain.Service
	orgID   snowflake.ID
	otherID snowflake.ID
}

type vetoGuard struct {
	reason string
}

func (g vetoGuard) Check(ctx context.Context, casaCase *domain.CasaCase, targetActive bool) error {
	return &domain.TransitionVetoError{Reason: g.reason}
}

func newFixture(t *testing.T, guard domain.TransitionGuard) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&domain.CasaCase{},
		&domain.CaseCourtOrder{},
		&domain.CasaCaseContactType{},
		&domain.CaseAssignment{},
		&ctdomain.ContactTypeGroup{},
		&ctdomain.ContactType{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	repo := repository.NewRepository(dbConn)
	ctRepo := ctrepository.NewRepository(dbConn)

	if guard == nil {
		guard = NewAllowAllGuard()
	}

	svc := NewService(Params{
		DB:           dbConn,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        fc,
		Repo:         repo,
		ContactTypes: ctRepo,
		Guard:        guard,
	})

	return &fixture{
		db:      dbConn,
		node:    node,
		clock:   fc,
		repo:    repo,
		ctRepo:  ctRepo,
		svc:     svc,
		orgID:   node.Generate(),
		otherID: node.Generate(),
	}
}

func admin(f *fixture) domain.Actor {
	return domain.Actor{UserID: f.node.Generate(), Role: orgdomain.RoleAdmin}
}

func birthMonth(year int, month time.Month) *time.Time {
	v := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return &v
}

func (f *fixture) createCase(t *testing.T, number string) *domain.CaseDetail {
	t.Helper()
	detail, err := f.svc.Create(context.Background(), f.orgID, admin(f), domain.CreateCaseRequest{
		CaseNumber:          number,
		BirthMonthYearYouth: birthMonth(2012, time.March),
	})
	require.NoError(t, err)
	return detail
}

func (f *fixture) seedContactType(t *testing.T, groupName, typeName string) ctdomain.ContactType {
	t.Helper()
	group := ctdomain.ContactTypeGroup{ID: f.node.Generate(), OrgID: f.orgID, Name: groupName}
	require.NoError(t, f.db.Create(&group).Error)
	contactType := ctdomain.ContactType{ID: f.node.Generate(), OrgID: f.orgID, GroupID: group.ID, Name: typeName}
	require.NoError(t, f.db.Create(&contactType).Error)
	return contactType
}

func TestCreateValidationMessagesOrdered(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Create(context.Background(), f.orgID, admin(f), domain.CreateCaseRequest{})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, domain.ValidationErrors{
		"Case number can't be blank",
		"Birth month year youth can't be blank",
	}, verrs)
}

func TestCreateRequiresAdmin(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Create(context.Background(), f.orgID, domain.Actor{UserID: f.node.Generate(), Role: orgdomain.RoleSupervisor}, domain.CreateCaseRequest{
		CaseNumber:          "CINA-1",
		BirthMonthYearYouth: birthMonth(2012, time.March),
	})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestCreateDuplicateCaseNumber(t *testing.T) {
	f := newFixture(t, nil)
	f.createCase(t, "CINA-21-1234")

	_, err := f.svc.Create(context.Background(), f.orgID, admin(f), domain.CreateCaseRequest{
		CaseNumber:          "CINA-21-1234",
		BirthMonthYearYouth: birthMonth(2013, time.May),
	})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, domain.ValidationErrors{"Case number has already been taken"}, verrs)
}

func TestCreateSameNumberDifferentOrg(t *testing.T) {
	f := newFixture(t, nil)
	f.createCase(t, "CINA-21-1234")

	_, err := f.svc.Create(context.Background(), f.otherID, admin(f), domain.CreateCaseRequest{
		CaseNumber:          "CINA-21-1234",
		BirthMonthYearYouth: birthMonth(2013, time.May),
	})
	assert.NoError(t, err)
}

func TestCreateWithNestedOrdersPersistsNone(t *testing.T) {
	f := newFixture(t, nil)

	detail, err := f.svc.Create(context.Background(), f.orgID, admin(f), domain.CreateCaseRequest{
		CaseNumber:          "CINA-22-0001",
		BirthMonthYearYouth: birthMonth(2011, time.January),
		CourtOrders: []domain.CourtOrderInput{
			{Text: "Attend therapy"},
			{Text: "Complete assessment"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, detail.CourtOrders)

	var count int64
	require.NoError(t, f.db.Model(&domain.CaseCourtOrder{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetCrossTenantNotFound(t *testing.T) {
	f := newFixture(t, nil)
	detail := f.createCase(t, "CINA-21-9999")

	_, err := f.svc.Get(context.Background(), f.otherID, admin(f), detail.CasaCase.ID)
	assert.ErrorIs(t, err, domain.ErrCaseNotFound)
}

func TestVolunteerVisibility(t *testing.T) {
	f := newFixture(t, nil)
	detail := f.createCase(t, "CINA-21-0042")
	volunteer := domain.Actor{UserID: f.node.Generate(), Role: orgdomain.RoleVolunteer}

	_, err := f.svc.Get(context.Background(), f.orgID, volunteer, detail.CasaCase.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	require.NoError(t, f.svc.Assign(context.Background(), f.orgID, detail.CasaCase.ID, volunteer.UserID))

	got, err := f.svc.Get(context.Background(), f.orgID, volunteer, detail.CasaCase.ID)
	require.NoError(t, err)
	assert.Equal(t, detail.CasaCase.ID, got.CasaCase.ID)

	cases, err := f.svc.List(context.Background(), f.orgID, volunteer)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, detail.CasaCase.ID, cases[0].ID)
}

func TestVolunteerUpdateUnassignedNotFound(t *testing.T) {
	f := newFixture(t, nil)
	detail := f.createCase(t, "CINA-21-0050")
	volunteer := domain.Actor{UserID: f.node.Generate(), Role: orgdomain.RoleVolunteer}

	status := domain.CourtReportSubmitted
	_, err := f.svc.Update(context.Background(), f.orgID, volunteer, detail.CasaCase.ID, domain.UpdateCaseRequest{
		CourtReportStatus: &status,
	})
	assert.ErrorIs(t, err, domain.ErrCaseNotFound)
}

func TestVolunteerCanOnlyEditCourtReportStatus(t *testing.T) {
	f := newFixture(t, nil)
	detail := f.createCase(t, "CINA-21-0051")
	volunteer := domain.Actor{UserID: f.node.Generate(), Role: orgdomain.RoleVolunteer}
	require.NoError(t, f.svc.Assign(context.Background(), f.orgID, detail.CasaCase.ID, volunteer.UserID))

	newNumber := "CINA-99-0000"
	status := domain.CourtReportSubmitted
	result, err := f.svc.Update(context.Background(), f.orgID, volunteer, detail.CasaCase.ID, domain.UpdateCaseRequest{
		CaseNumber:        &newNumber,
		CourtReportStatus: &status,
	})
	require.NoError(t, err)

	// The disallowed attribute is dropped silently, not rejected.
	assert.Equal(t, "CINA-21-0051", result.Detail.CasaCase.CaseNumber)
	assert.Equal(t, domain.CourtReportSubmitted, result.Detail.CasaCase.CourtReportStatus)
	assert.Equal(t, "CASA case was successfully updated.<ul><li>Changed Court report status</li></ul>", result.Summary)
}

func TestSupervisorCanAddOrdersNotCaseNumber(t *testing.T) {
	f := newFixture(t, nil)
	detail := f.createCase(t, "CINA-21-0052")
	supervisor := domain.Actor{UserID: f.node.Generate(), Role: orgdomain.RoleSupervisor}

	newNumber := "CINA-77-7777"
	orders := []domain.CourtOrderInput{{Text: "Maintain school enrollment"}}
	result, err := f.svc.Update(context.Background(), f.orgID, supervisor, detail.CasaCase.ID, domain.UpdateCaseRequest{
		CaseNumber:  &newNumber,
		CourtOrders: &orders,
	})
	require.NoError(t, err)

	assert.Equal(t, "CINA-21-0052", result.Detail.CasaCase.CaseNumber)
	require.Len(t, result.Detail.CourtOrders, 1)
	assert.Equal(t, "Maintain school enrollment", result.Detail.CourtOrders[0].Text)
	assert.Equal(t, "CASA case was successfully updated.<ul><li>1 Court orders added or updated</li></ul>", result.Summary)
}

func TestUpdateBlankOrderTextLeavesOrderUntouched(t *testing.T) {
	f := newFixture(t, nil)
	detail := f.createCase(t, "CINA-21-0060")

	orders := []domain.CourtOrderInput{{Text: "Original directive"}}
	result, err := f.svc.Update(context.Background(), f.orgID, admin(f), detail.CasaCase.ID, domain.UpdateCaseRequest{
		CourtOrders: &orders,
	})
	require.NoError(t, err)
	require.Len(t, result.Detail.CourtOrders, 1)
	orderID := result.Detail.CourtOrders[0].ID

	blank := []domain.CourtOrderInput{{ID: &orderID, Text: "   "}}
	result, err = f.svc.Update(context.Background(), f.orgID, admin(f), detail.CasaCase.ID, domain.UpdateCaseRequest{
		CourtOrders: &blank,
	})
	require.NoError(t, err)
	require.Len(t, result.Detail.CourtOrders, 1)
	assert.Equal(t, "Original directive", result.Detail.CourtOrders[0].Text)
	assert.Equal(t, "CASA case was successfully updated.", result.Summary)
}

func TestUpdateSummaryCombinesChanges(t *testing.T) {
	f := newFixture(t, nil)
	detail := f.createCase(t, "CINA-21-0070")
	contactType := f.seedContactType(t, "Family", "Youth")

	newNumber := "CINA-21-0071"
	typeIDs := []snowflake.ID{contactType.ID}
	orders := []domain.CourtOrderInput{{Text: "Weekly sibling visits"}}
	result, err := f.svc.Update(context.Background(), f.orgID, admin(f), detail.CasaCase.ID, domain.UpdateCaseRequest{
		CaseNumber:     &newNumber,
		ContactTypeIDs: &typeIDs,
		CourtOrders:    &orders,
	})
	require.NoError(t, err)

	want := `CASA case was successfully updated.<ul><li>Changed Case number</li><li>["Youth"] Contact types added</li><li>1 Court orders added or updated</li></ul>`
	assert.Equal(t, want, result.Summary)
	assert.Equal(t, newNumber, result.Detail.CasaCase.CaseNumber)
}

func TestDeactivateAndReactivate(t *testing.T) {
	f := newFixture(t, nil)
	detail := f.createCase(t, "CINA-21-0080")

	result, err := f.svc.Deactivate(context.Background(), f.orgID, admin(f), detail.CasaCase.ID)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.False(t, result.CasaCase.Active)
	assert.Equal(t, "Case CINA-21-0080 has been deactivated.", result.Notice)

	// Deactivating twice is a no-op with the same notice.
	result, err = f.svc.Deactivate(context.Background(), f.orgID, admin(f), detail.CasaCase.ID)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, "Case CINA-21-0080 has been deactivated.", result.Notice)

	result, err = f.svc.Reactivate(context.Background(), f.orgID, admin(f), detail.CasaCase.ID)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.True(t, result.CasaCase.Active)
	assert.Equal(t, "Case CINA-21-0080 has been reactivated.", result.Notice)
}

func TestNonAdminTransitionIsSilentNoOp(t *testing.T) {
	f := newFixture(t, nil)
	detail := f.createCase(t, "CINA-21-0081")
	supervisor := domain.Actor{UserID: f.node.Generate(), Role: orgdomain.RoleSupervisor}

	result, err := f.svc.Deactivate(context.Background(), f.orgID, supervisor, detail.CasaCase.ID)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, "Case CINA-21-0081 has been deactivated.", result.Notice)

	fresh, err := f.repo.FindByID(context.Background(), f.orgID, detail.CasaCase.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Active)
}

func TestGuardVetoLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, vetoGuard{reason: "open court date"})
	detail := f.createCase(t, "CINA-21-0082")

	_, err := f.svc.Deactivate(context.Background(), f.orgID, admin(f), detail.CasaCase.ID)
	var veto *domain.TransitionVetoError
	require.ErrorAs(t, err, &veto)
	assert.Equal(t, "open court date", veto.Reason)

	fresh, err := f.repo.FindByID(context.Background(), f.orgID, detail.CasaCase.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Active)
}

func TestTransitionAgedYouthFlag(t *testing.T) {
	f := newFixture(t, nil)

	detail, err := f.svc.Create(context.Background(), f.orgID, admin(f), domain.CreateCaseRequest{
		CaseNumber:          "CINA-10-0001",
		BirthMonthYearYouth: birthMonth(2010, time.June),
	})
	require.NoError(t, err)
	assert.True(t, detail.TransitionAgedYouth)

	young, err := f.svc.Create(context.Background(), f.orgID, admin(f), domain.CreateCaseRequest{
		CaseNumber:          "CINA-18-0001",
		BirthMonthYearYouth: birthMonth(2018, time.June),
	})
	require.NoError(t, err)
	assert.False(t, young.TransitionAgedYouth)
}

func TestUpdateInvalidStatusRejected(t *testing.T) {
	f := newFixture(t, nil)
	detail := f.createCase(t, "CINA-21-0090")

	bogus := "onhold"
	_, err := f.svc.Update(context.Background(), f.orgID, admin(f), detail.CasaCase.ID, domain.UpdateCaseRequest{
		CourtReportStatus: &bogus,
	})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, domain.ValidationErrors{"Court report status is not included in the list"}, verrs)
}
