// Package watcher keeps an index in sync with filesystem changes.
//
// A [FileSystemWatcher] registers directories with fsnotify and routes every
// change event to the [Registration] of the directory it happened in. The
// first event on an idle registration signals it and queues it for the
// worker; later events join its pending batch. The worker takes the whole
// batch, hands it to the [EventProcessor] in delivery order, and resets the
// registration so the next batch can be signalled.
//
// Event handling:
//   - CREATE: a new directory is registered with its sub-directories, then
//     the path is indexed
//   - MODIFY: the path is re-indexed if it still exists
//   - DELETE: registrations at or below the path are cancelled, then the
//     path is removed from the index
//   - OVERFLOW: logged and counted; no re-scan is attempted, so the index
//     may be stale afterwards
//
// Usage:
//
//	w, err := watcher.New(indexer, watcher.DefaultOptions(), nil)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	if err := w.Start(ctx, []string{"/path/to/docs"}); err != nil {
//	    return err
//	}
//	<-w.Ready()
package watcher
