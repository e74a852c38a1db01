package rbac

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
	RoleGuest      = "guest" // unauthenticated, offline mode only
)

const (
	PermScoringNormalize   = "scoring:normalize"
	PermSchemeView         = "scoring:scheme-view"
	PermAttemptEvaluate    = "attempt:evaluate"
	PermProgressionView    = "progression:view"
	PermPerformanceViewOwn = "performance:view-own"
	PermPerformanceViewAll = "performance:view-all"
)

var RolePermissions = map[string][]string{
	RoleGuest: {
		"scoring:*",
		PermAttemptEvaluate,
		PermProgressionView,
	},
	RoleStudent: {
		"scoring:*",
		PermAttemptEvaluate,
		PermProgressionView,
		PermPerformanceViewOwn,
	},
	RoleInstructor: {
		"scoring:*",
		PermAttemptEvaluate,
		PermProgressionView,
		"performance:*",
	},
	RoleAdmin: {
		"*", // everything
	},
}
