package rbac

// Shorthand for the policy table below. Keeping the table dense makes the
// full policy reviewable at a glance; tests enforce completeness.
const (
	no = LevelNone
	li = LevelLimited
	vw = LevelView
	cr = LevelCreate
	ed = LevelEdit
	mg = LevelManage
	fu = LevelFull
	cu = LevelCustom
)

// row maps one permission across all eleven roles in fixed level order.
func row(legend, phantom, aviator, gladiator, navigator, deviator, raider, merchant, visitor, passenger, ambassador AccessLevel) map[string]AccessLevel {
	return map[string]AccessLevel{
		RoleLegend:     legend,
		RolePhantom:    phantom,
		RoleAviator:    aviator,
		RoleGladiator:  gladiator,
		RoleNavigator:  navigator,
		RoleDeviator:   deviator,
		RoleRaider:     raider,
		RoleMerchant:   merchant,
		RoleVisitor:    visitor,
		RolePassenger:  passenger,
		RoleAmbassador: ambassador,
	}
}

// NewDefaultMatrix returns the platform permission policy.
//
// Column order: legend, phantom, aviator, gladiator, navigator, deviator,
// raider, merchant, visitor, passenger, ambassador.
func NewDefaultMatrix() *Matrix {
	return NewMatrix(map[string]map[string]AccessLevel{
		// Organization management
		"org.create":         row(fu, no, no, no, no, no, no, no, cu, no, no),
		"org.edit":           row(fu, fu, vw, vw, no, no, no, no, cu, no, no),
		"org.delete":         row(fu, no, no, no, no, no, no, no, no, no, no),
		"org.view_analytics": row(fu, fu, fu, li, li, li, no, no, cu, li, no),
		"org.manage_billing": row(fu, fu, vw, no, no, no, no, no, no, no, no),
		"org.export_data":    row(fu, fu, fu, li, li, no, no, no, cu, vw, no),

		// User management
		"users.invite":             row(fu, fu, fu, mg, li, li, no, no, cu, no, no),
		"users.remove":             row(fu, fu, mg, mg, li, no, no, no, no, no, no),
		"users.assign_roles":       row(fu, fu, mg, mg, li, no, no, no, no, no, no),
		"users.view_activity":      row(fu, fu, fu, mg, li, li, no, no, cu, no, no),
		"users.manage_permissions": row(fu, fu, mg, mg, no, no, no, no, no, no, no),
		"users.deactivate":         row(fu, fu, mg, li, no, no, no, no, no, no, no),

		// Project management
		"projects.create":         row(fu, fu, fu, mg, no, no, no, no, cu, no, no),
		"projects.edit":           row(fu, fu, fu, mg, li, li, no, no, cu, no, no),
		"projects.delete":         row(fu, fu, mg, mg, no, no, no, no, no, no, no),
		"projects.archive":        row(fu, fu, fu, mg, no, no, no, no, no, no, no),
		"projects.manage_teams":   row(fu, fu, fu, mg, li, li, no, no, cu, no, no),
		"projects.view_dashboard": row(fu, fu, fu, fu, li, li, li, li, cu, vw, no),
		"projects.export_data":    row(fu, fu, fu, mg, li, no, no, no, cu, vw, no),

		// Budget and finance
		"finance.create_budget":    row(fu, fu, fu, mg, li, no, no, no, no, no, no),
		"finance.edit_budget":      row(fu, fu, fu, mg, li, no, no, no, no, no, no),
		"finance.approve_expenses": row(fu, fu, fu, mg, li, li, no, no, no, no, no),
		"finance.view_reports":     row(fu, fu, fu, mg, li, li, no, no, cu, vw, no),
		"finance.process_payments": row(fu, fu, mg, mg, no, no, no, no, no, no, no),
		"finance.manage_invoices":  row(fu, fu, fu, mg, li, no, no, cr, no, no, no),
		"finance.export_data":      row(fu, fu, fu, mg, no, no, no, no, no, no, no),

		// Scheduling and timeline
		"scheduling.create":            row(fu, fu, fu, mg, mg, mg, no, no, cu, no, no),
		"scheduling.edit":              row(fu, fu, fu, mg, mg, mg, li, no, cu, no, no),
		"scheduling.assign_tasks":      row(fu, fu, fu, mg, mg, mg, no, no, no, no, no),
		"scheduling.manage_milestones": row(fu, fu, fu, mg, li, no, no, no, cu, no, no),
		"scheduling.view_gantt":        row(fu, fu, fu, fu, mg, mg, li, li, cu, vw, no),
		"scheduling.notifications":     row(fu, fu, fu, fu, fu, fu, vw, vw, cu, vw, no),
		"scheduling.export":            row(fu, fu, fu, mg, li, li, no, no, cu, vw, no),

		// Resource management
		"resources.add":               row(fu, fu, fu, mg, mg, li, no, no, no, no, no),
		"resources.edit":              row(fu, fu, fu, mg, mg, li, no, no, no, no, no),
		"resources.remove":            row(fu, fu, mg, mg, li, no, no, no, no, no, no),
		"resources.book":              row(fu, fu, fu, mg, mg, mg, cr, cr, cu, no, no),
		"resources.view_availability": row(fu, fu, fu, fu, fu, fu, vw, vw, cu, vw, no),
		"resources.approve_requests":  row(fu, fu, fu, mg, mg, li, no, no, no, no, no),
		"resources.manage_conflicts":  row(fu, fu, fu, mg, mg, li, no, no, no, no, no),

		// Document management
		"documents.upload":          row(fu, fu, fu, mg, mg, mg, cr, cr, cu, no, no),
		"documents.download":        row(fu, fu, fu, fu, fu, fu, vw, vw, cu, vw, vw),
		"documents.edit":            row(fu, fu, fu, mg, mg, mg, ed, ed, cu, no, no),
		"documents.delete":          row(fu, fu, mg, mg, mg, li, no, no, no, no, no),
		"documents.share_external":  row(fu, fu, fu, mg, li, no, no, no, no, no, no),
		"documents.manage_versions": row(fu, fu, fu, mg, mg, li, no, no, no, no, no),
		"documents.set_permissions": row(fu, fu, mg, mg, li, no, no, no, no, no, no),

		// Communication and collaboration
		"communication.post":          row(fu, fu, fu, fu, fu, fu, cr, cr, cu, no, no),
		"communication.tag":           row(fu, fu, fu, fu, fu, fu, vw, vw, cu, no, no),
		"communication.announcements": row(fu, fu, fu, mg, li, li, no, no, no, no, no),
		"communication.dm":            row(fu, fu, fu, fu, fu, fu, vw, vw, cu, no, no),
		"communication.participate":   row(fu, fu, fu, fu, fu, fu, vw, vw, cu, vw, no),
		"communication.view_feed":     row(fu, fu, fu, fu, fu, fu, vw, vw, cu, vw, no),

		// Vendor and external relations
		"vendors.add":                 row(fu, fu, fu, mg, li, no, no, no, no, no, no),
		"vendors.edit":                row(fu, fu, fu, mg, li, no, no, ed, no, no, no),
		"vendors.assign_contracts":    row(fu, fu, fu, mg, li, no, no, no, no, no, no),
		"vendors.review_deliverables": row(fu, fu, fu, mg, mg, li, no, no, cu, no, no),
		"vendors.approve_payments":    row(fu, fu, mg, mg, li, no, no, no, no, no, no),
		"vendors.view_performance":    row(fu, fu, fu, mg, li, no, no, no, cu, vw, no),

		// Reporting and analytics
		"reporting.view_dashboards": row(fu, fu, fu, fu, li, li, li, li, cu, vw, no),
		"reporting.create_reports":  row(fu, fu, fu, mg, li, li, no, no, cu, no, no),
		"reporting.export_data":     row(fu, fu, fu, mg, li, no, no, no, cu, vw, no),
		"reporting.view_audit_logs": row(fu, fu, fu, li, no, no, no, no, no, no, no),
		"reporting.historical_data": row(fu, fu, fu, mg, li, no, no, no, cu, vw, no),

		// Marketing and promotional assets
		"marketing.access_materials": row(fu, fu, fu, mg, li, no, no, no, no, no, fu),
		"marketing.download_content": row(fu, fu, fu, mg, li, no, no, no, no, no, fu),
		"marketing.view_guidelines":  row(fu, fu, fu, vw, vw, no, no, no, no, no, vw),
		"marketing.share_social":     row(fu, fu, mg, li, no, no, no, no, no, no, fu),
		"marketing.track_metrics":    row(fu, fu, fu, li, no, no, no, no, no, no, vw),

		// System administration
		"system.configure":     row(fu, li, no, no, no, no, no, no, no, no, no),
		"system.integrations":  row(fu, mg, li, no, no, no, no, no, no, no, no),
		"system.webhooks":      row(fu, mg, li, no, no, no, no, no, no, no, no),
		"system.notifications": row(fu, mg, li, li, no, no, no, no, no, no, no),
		"system.api":           row(fu, mg, no, no, no, no, no, no, no, no, no),
		"system.logs":          row(fu, vw, no, no, no, no, no, no, no, no, no),
	})
}
