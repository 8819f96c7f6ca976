package domain

import orgdomain "github.com/smallbiznis/advocase/internal/organization/domain"

// Attribute names a mutable facet of a case for role gating.
type Attribute string

const (
	AttrCaseNumber          Attribute = "case_number"
	AttrBirthMonthYearYouth Attribute = "birth_month_year_youth"
	AttrCourtReportStatus   Attribute = "court_report_status"
	AttrCourtOrders         Attribute = "court_orders"
	AttrContactTypes        Attribute = "contact_types"
)

// editableAttributes is the explicit capability table. Anything absent is
// dropped silently from an update rather than rejected.
var editableAttributes = map[string]map[Attribute]bool{
	orgdomain.RoleAdmin: {
		AttrCaseNumber:          true,
		AttrBirthMonthYearYouth: true,
		AttrCourtReportStatus:   true,
		AttrCourtOrders:         true,
		AttrContactTypes:        true,
	},
	orgdomain.RoleSupervisor: {
		AttrCourtReportStatus: true,
		AttrCourtOrders:       true,
		AttrContactTypes:      true,
	},
	orgdomain.RoleVolunteer: {
		AttrCourtReportStatus: true,
	},
}

// CanEdit reports whether role may mutate the given case attribute.
func CanEdit(role string, attr Attribute) bool {
	return editableAttributes[role][attr]
}

// EditableAttributes lists the attributes role may mutate, in form order.
func EditableAttributes(role string) []Attribute {
	ordered := []Attribute{AttrCaseNumber, AttrBirthMonthYearYouth, AttrCourtReportStatus, AttrCourtOrders, AttrContactTypes}
	allowed := make([]Attribute, 0, len(ordered))
	for _, attr := range ordered {
		if editableAttributes[role][attr] {
			allowed = append(allowed, attr)
		}
	}
	return allowed
}

// CanCreate reports whether role may create cases.
func CanCreate(role string) bool {
	return role == orgdomain.RoleAdmin
}

// CanTransition reports whether role may deactivate or reactivate cases.
// Other roles no-op rather than fail.
func CanTransition(role string) bool {
	return role == orgdomain.RoleAdmin
}

// CanViewNewForm reports whether role may open the new-case form.
func CanViewNewForm(role string) bool {
	return role == orgdomain.RoleAdmin || role == orgdomain.RoleSupervisor
}
