// Package db manages the PostgreSQL connection pool that backs farmer and
// farm records.
//
// [Connect] opens a pgx pool with retrying startup, [Migrate] applies
// embedded goose migrations, and [Healthcheck]/[Shutdown] integrate the
// pool with the server's readiness endpoint and graceful shutdown:
//
//	pool, err := db.Connect(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	if err := db.Migrate(ctx, pool, migrations.FS, cfg.Database.MigrationsTable, log); err != nil {
//	    return err
//	}
package db
