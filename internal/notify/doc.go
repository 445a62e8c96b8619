// Package notify builds and delivers the per-cycle change notification.
//
// NewMessage renders a DiffResult into a timestamped subject and an HTML
// body with one link per added or removed listing. A Notifier delivers it:
// EmailNotifier sends it over SMTP, WriterNotifier prints it (dry runs),
// and Multi fans it out to several notifiers.
package notify
