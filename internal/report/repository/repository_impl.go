package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/report/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

type caseContactScan struct {
	ContactID                snowflake.ID `gorm:"column:contact_id"`
	DurationMinutes          int          `gorm:"column:duration_minutes"`
	ContactMade              bool         `gorm:"column:contact_made"`
	Medium                   string       `gorm:"column:medium"`
	OccurredAt               time.Time    `gorm:"column:occurred_at"`
	CreatedAt                time.Time    `gorm:"column:created_at"`
	MilesDriven              int          `gorm:"column:miles_driven"`
	WantDrivingReimbursement bool         `gorm:"column:want_driving_reimbursement"`
	Notes                    string       `gorm:"column:notes"`
	CaseNumber               string       `gorm:"column:case_number"`
	CreatorEmail             string       `gorm:"column:creator_email"`
	CreatorName              string       `gorm:"column:creator_name"`
	SupervisorName           string       `gorm:"column:supervisor_name"`
}

func (r *repo) QueryCaseContacts(ctx context.Context, orgID snowflake.ID, from time.Time, to time.Time, contactTypeIDs []snowflake.ID, casaCaseID *snowflake.ID, limit int) ([]domain.CaseContactRow, error) {
	query := `SELECT cc.id AS contact_id,
		cc.duration_minutes,
		cc.contact_made,
		cc.medium,
		cc.occurred_at,
		cc.created_at,
		cc.miles_driven,
		cc.want_driving_reimbursement,
		cc.notes,
		k.case_number,
		cu.email AS creator_email,
		cu.display_name AS creator_name,
		COALESCE(su.display_name, '') AS supervisor_name
	FROM case_contacts cc
	JOIN casa_cases k ON k.id = cc.casa_case_id
	JOIN users cu ON cu.id = cc.creator_user_id
	LEFT JOIN supervisor_volunteers sv
		ON sv.org_id = cc.org_id
		AND sv.volunteer_user_id = cc.creator_user_id
		AND sv.is_active
	LEFT JOIN users su ON su.id = sv.supervisor_user_id
	WHERE cc.org_id = ?
		AND cc.occurred_at >= ?
		AND cc.occurred_at <= ?`
	args := []any{orgID, from.UTC(), to.UTC()}

	if casaCaseID != nil {
		query += ` AND cc.casa_case_id = ?`
		args = append(args, *casaCaseID)
	}
	if len(contactTypeIDs) > 0 {
		query += ` AND cc.id IN (
			SELECT j.case_contact_id
			FROM case_contact_contact_types j
			WHERE j.contact_type_id IN ?)`
		args = append(args, contactTypeIDs)
	}

	query += ` ORDER BY cc.occurred_at ASC, cc.id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var scans []caseContactScan
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&scans).Error; err != nil {
		return nil, err
	}

	rows := make([]domain.CaseContactRow, 0, len(scans))
	for _, scan := range scans {
		rows = append(rows, domain.CaseContactRow{
			ContactID:                scan.ContactID,
			DurationMinutes:          scan.DurationMinutes,
			ContactMade:              scan.ContactMade,
			Medium:                   scan.Medium,
			OccurredAt:               scan.OccurredAt,
			CreatedAt:                scan.CreatedAt,
			MilesDriven:              scan.MilesDriven,
			WantDrivingReimbursement: scan.WantDrivingReimbursement,
			Notes:                    scan.Notes,
			CaseNumber:               scan.CaseNumber,
			CreatorEmail:             scan.CreatorEmail,
			CreatorName:              scan.CreatorName,
			SupervisorName:           scan.SupervisorName,
		})
	}
	return rows, nil
}

func (r *repo) ContactTypeNames(ctx context.Context, contactIDs []snowflake.ID) (map[snowflake.ID][]string, error) {
	if len(contactIDs) == 0 {
		return map[snowflake.ID][]string{}, nil
	}

	var pairs []struct {
		CaseContactID snowflake.ID `gorm:"column:case_contact_id"`
		Name          string       `gorm:"column:name"`
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT j.case_contact_id, t.name
		 FROM case_contact_contact_types j
		 JOIN contact_types t ON t.id = j.contact_type_id
		 WHERE j.case_contact_id IN ?
		 ORDER BY t.name ASC`,
		contactIDs,
	).Scan(&pairs).Error
	if err != nil {
		return nil, err
	}

	names := make(map[snowflake.ID][]string, len(contactIDs))
	for _, pair := range pairs {
		names[pair.CaseContactID] = append(names[pair.CaseContactID], pair.Name)
	}
	return names, nil
}

func (r *repo) QueryMileage(ctx context.Context, orgID snowflake.ID) ([]domain.MileageRow, error) {
	var rows []struct {
		CreatorName  string `gorm:"column:creator_name"`
		CreatorEmail string `gorm:"column:creator_email"`
		TotalMiles   int    `gorm:"column:total_miles"`
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT cu.display_name AS creator_name,
			cu.email AS creator_email,
			SUM(cc.miles_driven) AS total_miles
		 FROM case_contacts cc
		 JOIN users cu ON cu.id = cc.creator_user_id
		 WHERE cc.org_id = ?
			AND cc.want_driving_reimbursement
		 GROUP BY cu.id, cu.display_name, cu.email
		 ORDER BY cu.display_name ASC`,
		orgID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.MileageRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.MileageRow{
			CreatorName:  row.CreatorName,
			CreatorEmail: row.CreatorEmail,
			TotalMiles:   row.TotalMiles,
		})
	}
	return out, nil
}

func (r *repo) QueryMissingData(ctx context.Context, orgID snowflake.ID) ([]domain.MissingDataRow, error) {
	var scans []struct {
		ContactID   snowflake.ID `gorm:"column:contact_id"`
		CaseNumber  string       `gorm:"column:case_number"`
		CreatorName string       `gorm:"column:creator_name"`
		OccurredAt  time.Time    `gorm:"column:occurred_at"`
		Medium      string       `gorm:"column:medium"`
		Notes       string       `gorm:"column:notes"`
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT cc.id AS contact_id,
			k.case_number,
			cu.display_name AS creator_name,
			cc.occurred_at,
			cc.medium,
			cc.notes
		 FROM case_contacts cc
		 JOIN casa_cases k ON k.id = cc.casa_case_id
		 JOIN users cu ON cu.id = cc.creator_user_id
		 WHERE cc.org_id = ?
			AND (cc.medium = '' OR cc.notes = '')
		 ORDER BY cc.occurred_at ASC, cc.id ASC`,
		orgID,
	).Scan(&scans).Error
	if err != nil {
		return nil, err
	}

	rows := make([]domain.MissingDataRow, 0, len(scans))
	for _, scan := range scans {
		var missing []string
		if scan.Medium == "" {
			missing = append(missing, "medium")
		}
		if scan.Notes == "" {
			missing = append(missing, "notes")
		}
		rows = append(rows, domain.MissingDataRow{
			ContactID:   scan.ContactID,
			CaseNumber:  scan.CaseNumber,
			CreatorName: scan.CreatorName,
			OccurredAt:  scan.OccurredAt,
			Missing:     missing,
		})
	}
	return rows, nil
}

func (r *repo) QueryLearningHours(ctx context.Context, orgID snowflake.ID) ([]domain.LearningHourRow, error) {
	var rows []struct {
		UserName        string    `gorm:"column:user_name"`
		UserEmail       string    `gorm:"column:user_email"`
		Title           string    `gorm:"column:title"`
		DurationMinutes int       `gorm:"column:duration_minutes"`
		OccurredAt      time.Time `gorm:"column:occurred_at"`
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT u.display_name AS user_name,
			u.email AS user_email,
			lh.title,
			lh.duration_minutes,
			lh.occurred_at
		 FROM learning_hours lh
		 JOIN users u ON u.id = lh.user_id
		 WHERE lh.org_id = ?
		 ORDER BY u.display_name ASC, lh.occurred_at ASC`,
		orgID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.LearningHourRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.LearningHourRow{
			UserName:        row.UserName,
			UserEmail:       row.UserEmail,
			Title:           row.Title,
			DurationMinutes: row.DurationMinutes,
			OccurredAt:      row.OccurredAt,
		})
	}
	return out, nil
}
