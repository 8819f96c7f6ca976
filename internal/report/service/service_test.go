package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/advocase/internal/auth/domain"
	casacasedomain "github.com/smallbiznis/advocase/internal/casacase/domain"
	ccdomain "github.com/smallbiznis/advocase/internal/casecontact/domain"
	"github.com/smallbiznis/advocase/internal/clock"
	"github.com/smallbiznis/advocase/internal/config"
	ctdomain "github.com/smallbiznis/advocase/internal/contacttype/domain"
	ctrepository "github.com/smallbiznis/advocase/internal/contacttype/repository"
	orgdomain "github.com/smallbiznis/advocase/internal/organization/domain"
	"github.com/smallbiznis/advocase/internal/report/domain"
	"github.com/smallbiznis/advocase/internal/report/repository"
	"github.com/smallbiznis/advocase/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type reportFixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	svc   domain.Service
	orgID snowflake.ID
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&authdomain.User{},
		&orgdomain.SupervisorVolunteer{},
		&casacasedomain.CasaCase{},
		&ctdomain.ContactTypeGroup{},
		&ctdomain.ContactType{},
		&ccdomain.CaseContact{},
		&ccdomain.CaseContactContactType{},
		&ccdomain.LearningHour{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	reporting, err := config.NewReportingConfigHolder()
	require.NoError(t, err)

	svc := NewService(Params{
		Log:          zap.NewNop(),
		Clock:        clock.NewFakeClock(testNow),
		Repo:         repository.NewRepository(dbConn),
		ContactTypes: ctrepository.NewRepository(dbConn),
		Reporting:    reporting,
	})

	return &reportFixture{db: dbConn, node: node, svc: svc, orgID: node.Generate()}
}

func (f *reportFixture) createUser(t *testing.T, name, email string) authdomain.User {
	t.Helper()
	user := authdomain.User{
		ID:          f.node.Generate(),
		ExternalID:  email,
		DisplayName: name,
		Email:       email,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func (f *reportFixture) createCase(t *testing.T, number string) casacasedomain.CasaCase {
	t.Helper()
	casaCase := casacasedomain.CasaCase{
		ID:                  f.node.Generate(),
		OrgID:               f.orgID,
		CaseNumber:          number,
		BirthMonthYearYouth: time.Date(2012, time.March, 1, 0, 0, 0, 0, time.UTC),
		Active:              true,
		CourtReportStatus:   casacasedomain.CourtReportNotSubmitted,
		CreatedAt:           testNow,
		UpdatedAt:           testNow,
	}
	require.NoError(t, f.db.Create(&casaCase).Error)
	return casaCase
}

type contactSeed struct {
	daysAgo   int
	miles     int
	reimburse bool
	medium    string
	notes     string
	typeIDs   []snowflake.ID
}

func (f *reportFixture) createContact(t *testing.T, casaCase casacasedomain.CasaCase, creator authdomain.User, seed contactSeed) ccdomain.CaseContact {
	t.Helper()
	contact := ccdomain.CaseContact{
		ID:                       f.node.Generate(),
		OrgID:                    f.orgID,
		CasaCaseID:               casaCase.ID,
		CreatorUserID:            creator.ID,
		OccurredAt:               testNow.AddDate(0, 0, -seed.daysAgo),
		DurationMinutes:          60,
		ContactMade:              true,
		Medium:                   seed.medium,
		MilesDriven:              seed.miles,
		WantDrivingReimbursement: seed.reimburse,
		Notes:                    seed.notes,
		CreatedAt:                testNow,
	}
	require.NoError(t, f.db.Create(&contact).Error)
	for _, typeID := range seed.typeIDs {
		join := ccdomain.CaseContactContactType{
			ID:            f.node.Generate(),
			CaseContactID: contact.ID,
			ContactTypeID: typeID,
		}
		require.NoError(t, f.db.Create(&join).Error)
	}
	return contact
}

func (f *reportFixture) seedContactType(t *testing.T, groupName, typeName string) (ctdomain.ContactTypeGroup, ctdomain.ContactType) {
	t.Helper()
	group := ctdomain.ContactTypeGroup{ID: f.node.Generate(), OrgID: f.orgID, Name: groupName}
	require.NoError(t, f.db.Create(&group).Error)
	contactType := ctdomain.ContactType{ID: f.node.Generate(), OrgID: f.orgID, GroupID: group.ID, Name: typeName}
	require.NoError(t, f.db.Create(&contactType).Error)
	return group, contactType
}

// parseCSV strips the BOM and decodes the export body into records.
func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCaseContactsDefaultWindow(t *testing.T) {
	f := newReportFixture(t)
	creator := f.createUser(t, "Pat Volunteer", "pat@example.org")
	casaCase := f.createCase(t, "CINA-21-0001")

	f.createContact(t, casaCase, creator, contactSeed{daysAgo: 20, medium: "in-person", notes: "School visit"})
	f.createContact(t, casaCase, creator, contactSeed{daysAgo: 200, medium: "phone", notes: "Old call"})

	export, err := f.svc.CaseContacts(context.Background(), f.orgID, domain.Filter{}, domain.FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "case-contacts-2024-06-15.csv", export.Filename)
	assert.Equal(t, domain.ContentTypeCSV, export.ContentType)
	assert.Contains(t, string(export.Data), "\r\n")

	records := parseCSV(t, export.Data)
	require.Len(t, records, 2)
	assert.Equal(t, domain.CaseContactHeaders, records[0])
	assert.Equal(t, "School visit", records[1][13])
	assert.Equal(t, "CINA-21-0001", records[1][9])
}

func TestCaseContactsExplicitDateRange(t *testing.T) {
	f := newReportFixture(t)
	creator := f.createUser(t, "Pat Volunteer", "pat@example.org")
	casaCase := f.createCase(t, "CINA-21-0002")

	f.createContact(t, casaCase, creator, contactSeed{daysAgo: 20, medium: "in-person", notes: "Recent"})
	f.createContact(t, casaCase, creator, contactSeed{daysAgo: 40, medium: "phone", notes: "Older"})

	start := testNow.AddDate(0, 0, -30)
	end := testNow.AddDate(0, 0, -10)
	export, err := f.svc.CaseContacts(context.Background(), f.orgID, domain.Filter{StartDate: &start, EndDate: &end}, domain.FormatCSV)
	require.NoError(t, err)

	records := parseCSV(t, export.Data)
	require.Len(t, records, 2)
	assert.Equal(t, "Recent", records[1][13])
}

func TestCaseContactsInvertedRangeRejected(t *testing.T) {
	f := newReportFixture(t)

	start := testNow
	end := testNow.AddDate(0, 0, -10)
	_, err := f.svc.CaseContacts(context.Background(), f.orgID, domain.Filter{StartDate: &start, EndDate: &end}, domain.FormatCSV)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestCaseContactsGroupFilterExpandsToTypes(t *testing.T) {
	f := newReportFixture(t)
	creator := f.createUser(t, "Pat Volunteer", "pat@example.org")
	casaCase := f.createCase(t, "CINA-21-0003")

	familyGroup, youthType := f.seedContactType(t, "Family", "Youth")
	_, attorneyType := f.seedContactType(t, "Legal", "Attorney")

	f.createContact(t, casaCase, creator, contactSeed{daysAgo: 5, medium: "in-person", notes: "Youth visit", typeIDs: []snowflake.ID{youthType.ID}})
	f.createContact(t, casaCase, creator, contactSeed{daysAgo: 5, medium: "phone", notes: "Attorney call", typeIDs: []snowflake.ID{attorneyType.ID}})

	export, err := f.svc.CaseContacts(context.Background(), f.orgID, domain.Filter{
		ContactTypeGroupIDs: []snowflake.ID{familyGroup.ID},
	}, domain.FormatCSV)
	require.NoError(t, err)

	records := parseCSV(t, export.Data)
	require.Len(t, records, 2)
	assert.Equal(t, "Youth", records[1][2])
	assert.Equal(t, "Youth visit", records[1][13])
}

func TestCaseContactsXLSXFilename(t *testing.T) {
	f := newReportFixture(t)
	creator := f.createUser(t, "Pat Volunteer", "pat@example.org")
	casaCase := f.createCase(t, "CINA-21-0004")
	f.createContact(t, casaCase, creator, contactSeed{daysAgo: 1, medium: "in-person", notes: "Visit"})

	export, err := f.svc.CaseContacts(context.Background(), f.orgID, domain.Filter{}, domain.FormatXLSX)
	require.NoError(t, err)

	assert.Equal(t, "case-contacts-2024-06-15.xlsx", export.Filename)
	assert.Equal(t, domain.ContentTypeXLSX, export.ContentType)
	assert.NotEmpty(t, export.Data)
}

func TestCaseContactsTenantIsolation(t *testing.T) {
	f := newReportFixture(t)
	creator := f.createUser(t, "Pat Volunteer", "pat@example.org")
	casaCase := f.createCase(t, "CINA-21-0005")
	f.createContact(t, casaCase, creator, contactSeed{daysAgo: 5, medium: "in-person", notes: "Visit"})

	export, err := f.svc.CaseContacts(context.Background(), f.node.Generate(), domain.Filter{}, domain.FormatCSV)
	require.NoError(t, err)

	records := parseCSV(t, export.Data)
	assert.Len(t, records, 1)
}

func TestCaseContactsRequiresOrg(t *testing.T) {
	f := newReportFixture(t)
	_, err := f.svc.CaseContacts(context.Background(), 0, domain.Filter{}, domain.FormatCSV)
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestMileageOnlyReimbursedRows(t *testing.T) {
	f := newReportFixture(t)
	driver := f.createUser(t, "Alex Driver", "alex@example.org")
	walker := f.createUser(t, "Sam Walker", "sam@example.org")
	casaCase := f.createCase(t, "CINA-21-0006")

	f.createContact(t, casaCase, driver, contactSeed{daysAgo: 3, miles: 12, reimburse: true, medium: "in-person", notes: "Drive"})
	f.createContact(t, casaCase, driver, contactSeed{daysAgo: 2, miles: 8, reimburse: true, medium: "in-person", notes: "Drive"})
	f.createContact(t, casaCase, walker, contactSeed{daysAgo: 1, miles: 30, reimburse: false, medium: "in-person", notes: "No claim"})

	export, err := f.svc.Mileage(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.Equal(t, "mileage-report-2024-06-15.csv", export.Filename)

	records := parseCSV(t, export.Data)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Name", "Email", "Total Miles Driven"}, records[0])
	assert.Equal(t, []string{"Alex Driver", "alex@example.org", "20"}, records[1])
}

func TestMissingDataFlagsMediumAndNotes(t *testing.T) {
	f := newReportFixture(t)
	creator := f.createUser(t, "Pat Volunteer", "pat@example.org")
	casaCase := f.createCase(t, "CINA-21-0007")

	f.createContact(t, casaCase, creator, contactSeed{daysAgo: 3, medium: "", notes: "Has notes"})
	f.createContact(t, casaCase, creator, contactSeed{daysAgo: 2, medium: "phone", notes: ""})
	f.createContact(t, casaCase, creator, contactSeed{daysAgo: 1, medium: "phone", notes: "Complete"})

	export, err := f.svc.MissingData(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.Equal(t, "missing-data-report-2024-06-15.csv", export.Filename)

	records := parseCSV(t, export.Data)
	require.Len(t, records, 3)
	assert.Equal(t, "medium", records[1][4])
	assert.Equal(t, "notes", records[2][4])
}

func TestLearningHoursExport(t *testing.T) {
	f := newReportFixture(t)
	volunteer := f.createUser(t, "Pat Volunteer", "pat@example.org")

	hour := ccdomain.LearningHour{
		ID:              f.node.Generate(),
		OrgID:           f.orgID,
		UserID:          volunteer.ID,
		Title:           "Trauma-informed advocacy",
		DurationMinutes: 90,
		OccurredAt:      testNow.AddDate(0, 0, -7),
		CreatedAt:       testNow,
	}
	require.NoError(t, f.db.Create(&hour).Error)

	export, err := f.svc.LearningHours(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.Equal(t, "learning-hours-report-2024-06-15.csv", export.Filename)

	records := parseCSV(t, export.Data)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Pat Volunteer", "pat@example.org", "Trauma-informed advocacy", "90", "2024-06-08"}, records[1])
}

func TestSanitizeCSVFieldEscapesFormulas(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", sanitizeCSVField("=SUM(A1)"))
	assert.Equal(t, "'+1", sanitizeCSVField("+1"))
	assert.Equal(t, "plain", sanitizeCSVField("plain"))
}
