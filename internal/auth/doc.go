// Package auth provides authentication and authorization for the admin UI.
//
// Accounts live in the local database with Argon2id password hashes. Every
// user has one role and roles carry permissions:
//
//   - dashboard.view: the overview page
//   - settings.manage: mail settings and the API key
//   - logs.view: reading email logs
//   - logs.manage: resending or deleting email logs
//   - mail.test: sending test emails
//
// Routes are protected with RequirePermission:
//
//	authService := auth.NewService(db)
//
//	app.Get("/settings",
//	    auth.RequirePermission(authService, auth.PermSettingsManage),
//	    handler,
//	)
package auth
