package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/casecontact/domain"
	"github.com/smallbiznis/advocase/internal/casecontact/repository"
	"github.com/smallbiznis/advocase/internal/clock"
	ctdomain "github.com/smallbiznis/advocase/internal/contacttype/domain"
	ctrepository "github.com/smallbiznis/advocase/internal/contacttype/repository"
	"github.com/smallbiznis/advocase/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	svc   domain.Service
	orgID snowflake.ID
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&domain.CaseContact{},
		&domain.CaseContactContactType{},
		&domain.OtherDuty{},
		&domain.LearningHour{},
		&ctdomain.ContactTypeGroup{},
		&ctdomain.ContactType{},
	))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := NewService(Params{
		DB:           dbConn,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clock.NewFakeClock(now),
		Repo:         repository.NewRepository(dbConn),
		ContactTypes: ctrepository.NewRepository(dbConn),
	})

	return &fixture{db: dbConn, node: node, svc: svc, orgID: node.Generate(), now: now}
}

func TestCreateContactValidationOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateContact(context.Background(), f.orgID, f.node.Generate(), domain.CreateContactRequest{
		Medium: "carrier-pigeon",
	})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, domain.ValidationErrors{
		domain.MsgOccurredAtBlank,
		domain.MsgDurationInvalid,
		domain.MsgMediumInvalid,
	}, verrs)
}

func TestCreateContactLinksOnlyOrgContactTypes(t *testing.T) {
	f := newFixture(t)
	creator := f.node.Generate()
	caseID := f.node.Generate()

	group := ctdomain.ContactTypeGroup{ID: f.node.Generate(), OrgID: f.orgID, Name: "Family"}
	require.NoError(t, f.db.Create(&group).Error)
	youth := ctdomain.ContactType{ID: f.node.Generate(), OrgID: f.orgID, GroupID: group.ID, Name: "Youth"}
	require.NoError(t, f.db.Create(&youth).Error)

	occurred := f.now.AddDate(0, 0, -1)
	contact, err := f.svc.CreateContact(context.Background(), f.orgID, creator, domain.CreateContactRequest{
		CasaCaseID:      caseID,
		OccurredAt:      &occurred,
		DurationMinutes: 45,
		ContactMade:     true,
		Medium:          domain.MediumInPerson,
		ContactTypeIDs:  []snowflake.ID{youth.ID, f.node.Generate()},
	})
	require.NoError(t, err)

	contacts, err := f.svc.ListContactsForCase(context.Background(), f.orgID, caseID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, contact.ID, contacts[0].Contact.ID)
	// The id from a different org is dropped, not rejected.
	assert.Equal(t, []string{"Youth"}, contacts[0].ContactTypes)
}

func TestCreateContactEmptyMediumAllowed(t *testing.T) {
	f := newFixture(t)

	occurred := f.now.AddDate(0, 0, -2)
	contact, err := f.svc.CreateContact(context.Background(), f.orgID, f.node.Generate(), domain.CreateContactRequest{
		CasaCaseID:      f.node.Generate(),
		OccurredAt:      &occurred,
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.Empty(t, contact.Medium)
}

func TestListContactsScopedToOrg(t *testing.T) {
	f := newFixture(t)
	caseID := f.node.Generate()

	occurred := f.now.AddDate(0, 0, -1)
	_, err := f.svc.CreateContact(context.Background(), f.orgID, f.node.Generate(), domain.CreateContactRequest{
		CasaCaseID:      caseID,
		OccurredAt:      &occurred,
		DurationMinutes: 15,
		Medium:          domain.MediumVideo,
	})
	require.NoError(t, err)

	contacts, err := f.svc.ListContactsForCase(context.Background(), f.node.Generate(), caseID)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestCreateOtherDutyValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOtherDuty(context.Background(), f.orgID, f.node.Generate(), domain.CreateOtherDutyRequest{})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, domain.ValidationErrors{domain.MsgOccurredAtBlank, domain.MsgDurationInvalid}, verrs)
}

func TestOtherDutiesListedPerCreator(t *testing.T) {
	f := newFixture(t)
	creator := f.node.Generate()
	other := f.node.Generate()

	occurred := f.now.AddDate(0, 0, -3)
	_, err := f.svc.CreateOtherDuty(context.Background(), f.orgID, creator, domain.CreateOtherDutyRequest{
		OccurredAt:      &occurred,
		DurationMinutes: 120,
		Notes:           "Court prep",
	})
	require.NoError(t, err)

	duties, err := f.svc.ListOtherDuties(context.Background(), f.orgID, creator)
	require.NoError(t, err)
	require.Len(t, duties, 1)
	assert.Equal(t, "Court prep", duties[0].Notes)

	duties, err = f.svc.ListOtherDuties(context.Background(), f.orgID, other)
	require.NoError(t, err)
	assert.Empty(t, duties)
}

func TestCreateLearningHour(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateLearningHour(context.Background(), f.orgID, f.node.Generate(), domain.CreateLearningHourRequest{
		Title: "   ",
	})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, domain.ValidationErrors{domain.MsgTitleBlank, domain.MsgDurationInvalid, domain.MsgOccurredAtBlank}, verrs)

	occurred := f.now.AddDate(0, 0, -7)
	hour, err := f.svc.CreateLearningHour(context.Background(), f.orgID, f.node.Generate(), domain.CreateLearningHourRequest{
		Title:           "  Trauma-informed advocacy  ",
		DurationMinutes: 90,
		OccurredAt:      &occurred,
	})
	require.NoError(t, err)
	assert.Equal(t, "Trauma-informed advocacy", hour.Title)
}
