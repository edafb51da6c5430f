// Package checkpoint persists the resume position of a dispatch run.
//
// The position is a single non-negative integer: the index of the next
// record that has not been finalized. Every Store returns 0 when nothing has
// been stored yet, and Save is durable before it returns.
//
// Backends:
//   - FileStore: a text file written atomically (the default, progress_checkpoint.txt)
//   - RedisStore: one key per campaign under KeyPrefix
//   - SQLStore: one row per campaign in SQLite or PostgreSQL, schema applied by Migrate
//   - Memory: process memory, for tests
//
// A file checkpoint can be guarded against a second concurrent run with
// AcquireLock:
//
//	lock, err := checkpoint.AcquireLock(path)
//	if err != nil {
//		return err // ErrLocked if another run holds it
//	}
//	defer lock.Release()
//
// SQLite example:
//
//	db, err := checkpoint.OpenSQLite(ctx, "courier.db")
//	if err != nil {
//		return err
//	}
//	if err := checkpoint.Migrate(ctx, db, checkpoint.DialectSQLite, logger); err != nil {
//		return err
//	}
//	store, err := checkpoint.NewSQLStore(db, checkpoint.DialectSQLite, "spring-campaign")
package checkpoint
