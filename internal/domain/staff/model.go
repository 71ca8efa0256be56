package staff

import (
	"time"

	"github.com/google/uuid"
)

// Permission names accepted by the permission endpoints. The set is closed:
// validation and the per-flag patch both run off this enumeration.
const (
	PermCreateInvoice = "createInvoice"
	PermEditInvoice   = "editInvoice"
	PermDeleteInvoice = "deleteInvoice"
	PermCashmemo      = "cashmemo"
	PermUploadReport  = "uploadReport"
)

// AllPermissions lists every recognized permission flag.
var AllPermissions = []string{
	PermCreateInvoice,
	PermEditInvoice,
	PermDeleteInvoice,
	PermCashmemo,
	PermUploadReport,
}

// permissionColumns maps each flag to its staff table column. Only names in
// this map ever reach SQL, so the column interpolation in the repo is safe.
var permissionColumns = map[string]string{
	PermCreateInvoice: "perm_create_invoice",
	PermEditInvoice:   "perm_edit_invoice",
	PermDeleteInvoice: "perm_delete_invoice",
	PermCashmemo:      "perm_cashmemo",
	PermUploadReport:  "perm_upload_report",
}

// ValidPermission reports whether name is a recognized permission flag.
func ValidPermission(name string) bool {
	_, ok := permissionColumns[name]
	return ok
}

// Permissions is the always-fully-populated permission set on a staff member.
type Permissions struct {
	CreateInvoice bool `json:"createInvoice"`
	EditInvoice   bool `json:"editInvoice"`
	DeleteInvoice bool `json:"deleteInvoice"`
	Cashmemo      bool `json:"cashmemo"`
	UploadReport  bool `json:"uploadReport"`
}

// Get returns the value of the named flag. Unknown names return false.
func (p Permissions) Get(name string) bool {
	switch name {
	case PermCreateInvoice:
		return p.CreateInvoice
	case PermEditInvoice:
		return p.EditInvoice
	case PermDeleteInvoice:
		return p.DeleteInvoice
	case PermCashmemo:
		return p.Cashmemo
	case PermUploadReport:
		return p.UploadReport
	}
	return false
}

// Set assigns the named flag. Unknown names are ignored.
func (p *Permissions) Set(name string, value bool) {
	switch name {
	case PermCreateInvoice:
		p.CreateInvoice = value
	case PermEditInvoice:
		p.EditInvoice = value
	case PermDeleteInvoice:
		p.DeleteInvoice = value
	case PermCashmemo:
		p.Cashmemo = value
	case PermUploadReport:
		p.UploadReport = value
	}
}

// Staff maps to the staff table. Usernames are stored lowercase and are
// unique across the lab.
type Staff struct {
	ID           uuid.UUID   `db:"id" json:"_id"`
	Name         string      `db:"name" json:"name"`
	Username     string      `db:"username" json:"username"`
	MobileNumber string      `db:"mobile_number" json:"mobileNumber"`
	Permissions  Permissions `json:"permissions"`
	IsActive     bool        `db:"is_active" json:"isActive"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}
