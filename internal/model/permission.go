package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionExamsRead allows viewing exam lists, details, and results.
	PermissionExamsRead Permission = "exams:read"

	// PermissionExamsWrite allows creating, updating, and deleting exams and questions.
	PermissionExamsWrite Permission = "exams:write"

	// PermissionExamsPublish allows publishing exams to make them available to students.
	PermissionExamsPublish Permission = "exams:publish"

	// PermissionAttemptsRewrite allows resetting a student's attempt for a retake.
	PermissionAttemptsRewrite Permission = "attempts:rewrite"

	// PermissionAttemptsFinalize allows manually triggering auto-submission.
	PermissionAttemptsFinalize Permission = "attempts:finalize"

	// PermissionStudentsRead allows viewing student lists and details.
	PermissionStudentsRead Permission = "students:read"

	// PermissionStudentsWrite allows creating and updating students.
	PermissionStudentsWrite Permission = "students:write"

	// PermissionStudentsResetSession allows resetting a student's active login session.
	PermissionStudentsResetSession Permission = "students:reset_session"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionExamsRead,
	PermissionExamsWrite,
	PermissionExamsPublish,
	PermissionAttemptsRewrite,
	PermissionAttemptsFinalize,
	PermissionStudentsRead,
	PermissionStudentsWrite,
	PermissionStudentsResetSession,
}
